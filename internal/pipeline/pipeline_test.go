package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cnpj-cli/internal/cache"
	"github.com/sells-group/cnpj-cli/internal/cnpj"
	"github.com/sells-group/cnpj-cli/internal/model"
	"github.com/sells-group/cnpj-cli/internal/resilience"
)

type fakeProvider struct {
	name    string
	entity  model.Entity
	payload []byte
	rawText string
	err     error
	calls   atomic.Int64
}

func (f *fakeProvider) ProviderName() string { return f.name }

func (f *fakeProvider) EndpointPath(id string) string { return "/" + f.name + "/" + id }

func (f *fakeProvider) Fetch(ctx context.Context, id string) (model.RawResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return model.RawResult{Provider: f.name, Err: f.err.Error(), Origin: model.OriginLive}, f.err
	}
	if f.rawText != "" {
		return model.RawResult{Provider: f.name, Success: true, RawText: f.rawText, Origin: model.OriginLive}, nil
	}
	payload := f.payload
	if payload == nil {
		payload, _ = json.Marshal(f.entity)
	}
	return model.RawResult{Provider: f.name, Success: true, Payload: payload, Origin: model.OriginLive}, nil
}

func (f *fakeProvider) Normalize(id string, raw []byte) (model.Entity, error) {
	var e model.Entity
	if err := json.Unmarshal(raw, &e); err != nil {
		return model.Entity{}, err
	}
	return e, nil
}

const testID = "02558157000162"

func TestLookupMergesByTrustOrder(t *testing.T) {
	t.Parallel()

	high := &fakeProvider{name: "serpro", entity: model.Entity{CNPJ: testID, RazaoSocial: "FROM SERPRO"}}
	low := &fakeProvider{name: "receitaws", entity: model.Entity{CNPJ: testID, RazaoSocial: "FROM RECEITAWS", NomeFantasia: "VIVO"}}

	e := New(Options{Providers: []RegistryProvider{low, high}})
	res, err := e.Lookup(context.Background(), "02.558.157/0001-62")
	require.NoError(t, err)

	require.Equal(t, testID, res.Identifier)
	require.False(t, res.AllFailed)
	require.NotNil(t, res.Unified)
	require.Equal(t, "FROM SERPRO", res.Unified.RazaoSocial)
	require.Equal(t, "VIVO", res.Unified.NomeFantasia)
	require.Equal(t, []string{"serpro", "receitaws"}, res.Unified.Sources)
	require.Len(t, res.Statuses, 2)
}

func TestLookupInvalidIdentifier(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{name: "serpro"}
	e := New(Options{Providers: []RegistryProvider{p}})

	_, err := e.Lookup(context.Background(), "not-a-cnpj")
	require.Error(t, err)
	require.True(t, eris.Is(err, cnpj.ErrInvalid))
	require.Zero(t, p.calls.Load())
}

func TestLookupPartialFailure(t *testing.T) {
	t.Parallel()

	ok := &fakeProvider{name: "brasilapi", entity: model.Entity{CNPJ: testID, RazaoSocial: "ACME"}}
	bad := &fakeProvider{name: "receitaws", err: eris.New("down")}

	e := New(Options{Providers: []RegistryProvider{ok, bad}})
	res, err := e.Lookup(context.Background(), testID)
	require.NoError(t, err)
	require.False(t, res.AllFailed)
	require.Equal(t, "ACME", res.Unified.RazaoSocial)

	require.True(t, res.Statuses[0].Success)
	require.False(t, res.Statuses[1].Success)
	require.Contains(t, res.Statuses[1].Error, "down")
}

func TestLookupAllFailed(t *testing.T) {
	t.Parallel()

	e := New(Options{Providers: []RegistryProvider{
		&fakeProvider{name: "serpro", err: eris.New("down")},
		&fakeProvider{name: "brasilapi", err: eris.New("down")},
	}})

	res, err := e.Lookup(context.Background(), testID)
	require.Error(t, err)
	require.ErrorIs(t, err, resilience.ErrAllProvidersFailed)
	require.True(t, res.AllFailed)
	require.Nil(t, res.Unified)
}

func TestLookupAllUnusableBodiesFails(t *testing.T) {
	t.Parallel()

	// Every fetch comes back 200 but nothing survives normalization:
	// zero records reach the merge, so the lookup is a failure even
	// though no provider reported a fetch error.
	e := New(Options{Providers: []RegistryProvider{
		&fakeProvider{name: "serpro", payload: []byte(`{"razao_social": [1, 2]}`)},
		&fakeProvider{name: "receitaws", rawText: "<html>rate limited</html>"},
	}})

	res, err := e.Lookup(context.Background(), testID)
	require.Error(t, err)
	require.ErrorIs(t, err, resilience.ErrAllProvidersFailed)
	require.True(t, res.AllFailed)
	require.Nil(t, res.Unified)

	for _, st := range res.Statuses {
		require.False(t, st.Normalized)
		require.NotEmpty(t, st.Error)
	}
}

func TestLookupSecondCallHitsMemo(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{name: "minhareceita", entity: model.Entity{CNPJ: testID, RazaoSocial: "ACME"}}
	e := New(Options{Providers: []RegistryProvider{p}})

	_, err := e.Lookup(context.Background(), testID)
	require.NoError(t, err)

	res, err := e.Lookup(context.Background(), testID)
	require.NoError(t, err)
	require.EqualValues(t, 1, p.calls.Load())
	require.Equal(t, model.OriginSessionMemo, res.Statuses[0].Origin)

	e.ClearSession()
	res, err = e.Lookup(context.Background(), testID)
	require.NoError(t, err)
	require.Equal(t, model.OriginTTLCache, res.Statuses[0].Origin)
	require.EqualValues(t, 1, p.calls.Load())
}

func writeDump(t *testing.T, content string) *cache.Dump {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fallback.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	d, err := cache.LoadDump(path)
	require.NoError(t, err)
	return d
}

func TestLookupDumpFallback(t *testing.T) {
	t.Parallel()

	dump := writeDump(t, `{"GET /serpro/`+testID+`": {"data": {"razao_social": "FROM DUMP"}}}`)
	p := &fakeProvider{name: "serpro", err: eris.New("credentials missing")}

	e := New(Options{Providers: []RegistryProvider{p}, Dump: dump})
	res, err := e.Lookup(context.Background(), testID)
	require.NoError(t, err)
	require.False(t, res.AllFailed)
	require.Equal(t, model.OriginDump, res.Statuses[0].Origin)
	require.True(t, res.Statuses[0].Success)
}

func TestCollectionCachesAndFallsBack(t *testing.T) {
	t.Parallel()

	dump := writeDump(t, `{"GET /sancoes/`+testID+`": {"data": [{"id": 1}, {"id": 2}]}}`)
	e := New(Options{Dump: dump})

	var calls atomic.Int64
	live := func(context.Context) (model.PagedCollection, error) {
		calls.Add(1)
		return model.PagedCollection{
			Endpoint: "/contratos/cpf-cnpj",
			Items:    []json.RawMessage{json.RawMessage(`{"id": 7}`)},
			Pages:    1,
			Origin:   model.OriginLive,
		}, nil
	}

	coll, err := e.Collection(context.Background(), "transparencia", "/contratos/cpf-cnpj", testID, live)
	require.NoError(t, err)
	require.Len(t, coll.Items, 1)
	require.Equal(t, model.OriginLive, coll.Origin)

	coll, err = e.Collection(context.Background(), "transparencia", "/contratos/cpf-cnpj", testID, live)
	require.NoError(t, err)
	require.Equal(t, model.OriginSessionMemo, coll.Origin)
	require.EqualValues(t, 1, calls.Load())

	// A failing paged endpoint with a dumped payload serves the dump.
	abort := func(context.Context) (model.PagedCollection, error) {
		return model.PagedCollection{}, &resilience.PaginationAbort{Endpoint: "/sancoes", Page: 2, Err: eris.New("403")}
	}
	coll, err = e.Collection(context.Background(), "transparencia", "/sancoes", testID, abort)
	require.NoError(t, err)
	require.Len(t, coll.Items, 2)
	require.Equal(t, model.OriginDump, coll.Origin)
}

func TestCollectionDumpIsPerIdentifier(t *testing.T) {
	t.Parallel()

	// A snapshot captured for one company must never answer a lookup for
	// another, even on the same endpoint.
	dump := writeDump(t, `{"GET /sancoes/`+testID+`": {"data": [{"empresa": "ACME"}]}}`)
	e := New(Options{Dump: dump})

	abort := func(context.Context) (model.PagedCollection, error) {
		return model.PagedCollection{}, &resilience.PaginationAbort{Endpoint: "/sancoes", Page: 1, Err: eris.New("503")}
	}

	_, err := e.Collection(context.Background(), "transparencia", "/sancoes", "99999999000199", abort)
	require.Error(t, err)

	var pa *resilience.PaginationAbort
	require.ErrorAs(t, err, &pa)

	coll, err := e.Collection(context.Background(), "transparencia", "/sancoes", testID, abort)
	require.NoError(t, err)
	require.Len(t, coll.Items, 1)
	require.Equal(t, model.OriginDump, coll.Origin)
}

func TestCollectionAbortSurfacesWithoutDump(t *testing.T) {
	t.Parallel()

	e := New(Options{})
	_, err := e.Collection(context.Background(), "transparencia", "/notas-fiscais", testID,
		func(context.Context) (model.PagedCollection, error) {
			return model.PagedCollection{}, &resilience.PaginationAbort{Endpoint: "/notas-fiscais", Page: 1, Err: eris.New("boom")}
		})
	require.Error(t, err)

	var pa *resilience.PaginationAbort
	require.ErrorAs(t, err, &pa)
}
