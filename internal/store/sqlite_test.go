package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cnpj-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleResult(identifier string) model.LookupResult {
	return model.LookupResult{
		Identifier: identifier,
		Unified: &model.UnifiedEntity{
			Entity:  model.Entity{CNPJ: identifier, RazaoSocial: "ACME LTDA"},
			Sources: []string{"serpro"},
		},
		Statuses: []model.ProviderStatus{
			{Provider: "serpro", Success: true, Normalized: true, Origin: model.OriginLive},
		},
	}
}

func TestSQLiteSaveAndGetLookup(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	saved, err := s.SaveLookup(ctx, sampleResult("02558157000162"))
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	got, err := s.GetLookup(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "02558157000162", got.Identifier)
	require.NotNil(t, got.Result.Unified)
	assert.Equal(t, "ACME LTDA", got.Result.Unified.RazaoSocial)
	assert.Len(t, got.Result.Statuses, 1)
}

func TestSQLiteGetLookupNotFound(t *testing.T) {
	s := newTestSQLite(t)

	_, err := s.GetLookup(context.Background(), "missing-id")
	require.Error(t, err)
}

func TestSQLiteListLookups(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for _, id := range []string{"02558157000162", "02558157000162", "00000000000191"} {
		_, err := s.SaveLookup(ctx, sampleResult(id))
		require.NoError(t, err)
	}

	all, err := s.ListLookups(ctx, LookupFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	filtered, err := s.ListLookups(ctx, LookupFilter{Identifier: "02558157000162"})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	limited, err := s.ListLookups(ctx, LookupFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
