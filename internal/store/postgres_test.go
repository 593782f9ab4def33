package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_SaveLookup(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO lookups`).
		WithArgs(pgxmock.AnyArg(), "02558157000162", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	saved, err := s.SaveLookup(context.Background(), sampleResult("02558157000162"))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "02558157000162", saved.Identifier)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetLookup(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	resultJSON, err := json.Marshal(sampleResult("02558157000162"))
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT id, identifier, result, created_at FROM lookups WHERE id = \$1`).
		WithArgs("lookup-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "identifier", "result", "created_at"}).
			AddRow("lookup-1", "02558157000162", resultJSON, time.Now().UTC()))

	got, err := s.GetLookup(context.Background(), "lookup-1")
	require.NoError(t, err)
	assert.Equal(t, "lookup-1", got.ID)
	require.NotNil(t, got.Result.Unified)
	assert.Equal(t, "ACME LTDA", got.Result.Unified.RazaoSocial)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetLookup_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, identifier, result, created_at FROM lookups WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetLookup(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get lookup")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListLookups(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	resultJSON, err := json.Marshal(sampleResult("02558157000162"))
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT id, identifier, result, created_at FROM lookups WHERE 1=1 AND identifier = \$1`).
		WithArgs("02558157000162", 100).
		WillReturnRows(pgxmock.NewRows([]string{"id", "identifier", "result", "created_at"}).
			AddRow("lookup-1", "02558157000162", resultJSON, time.Now().UTC()))

	lookups, err := s.ListLookups(context.Background(), LookupFilter{Identifier: "02558157000162"})
	require.NoError(t, err)
	require.Len(t, lookups, 1)
	assert.Equal(t, "lookup-1", lookups[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS lookups`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
