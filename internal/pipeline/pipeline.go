// Package pipeline orchestrates a lookup: validate the identifier, fan the
// registry providers out in parallel behind the cache tiers, normalize each
// payload, and consolidate a snapshot of whatever arrived.
package pipeline

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/cnpj-cli/internal/cache"
	"github.com/sells-group/cnpj-cli/internal/cnpj"
	"github.com/sells-group/cnpj-cli/internal/entity"
	"github.com/sells-group/cnpj-cli/internal/model"
	"github.com/sells-group/cnpj-cli/internal/resilience"
	"github.com/sells-group/cnpj-cli/internal/throttle"
)

// RegistryProvider is one single-record source. Fetch owns its own retry
// policy; Normalize is pure.
type RegistryProvider interface {
	ProviderName() string
	EndpointPath(identifier string) string
	Fetch(ctx context.Context, identifier string) (model.RawResult, error)
	Normalize(identifier string, raw []byte) (model.Entity, error)
}

// Engine runs lookups over a fixed provider set.
type Engine struct {
	providers []RegistryProvider
	trust     []string
	cache     *cache.Tiered
	dump      *cache.Dump
	gate      *throttle.Gate
}

// Options configures an Engine. A nil Dump disables the fallback tier; a
// nil Gate disables interactive throttling.
type Options struct {
	Providers  []RegistryProvider
	TrustOrder []string
	Cache      *cache.Tiered
	Dump       *cache.Dump
	Gate       *throttle.Gate
}

// New assembles an engine, defaulting the pieces not supplied.
func New(opts Options) *Engine {
	e := &Engine{
		providers: opts.Providers,
		trust:     opts.TrustOrder,
		cache:     opts.Cache,
		dump:      opts.Dump,
		gate:      opts.Gate,
	}
	if len(e.trust) == 0 {
		e.trust = entity.DefaultTrustOrder
	}
	if e.cache == nil {
		e.cache = cache.New(cache.Config{})
	}
	if e.dump == nil {
		e.dump, _ = cache.LoadDump("")
	}
	if e.gate == nil {
		e.gate = throttle.New(0)
	}
	return e
}

// Throttle exposes the interactive gate. Callers check it before
// dispatching a user-triggered lookup; fetches the engine issues itself
// (retries, pages) never consult it.
func (e *Engine) Throttle() *throttle.Gate { return e.gate }

// ClearSession empties the session-scoped memo tier.
func (e *Engine) ClearSession() { e.cache.Clear() }

// Lookup resolves one identifier across every provider. The returned
// result always carries per-provider statuses; the error is non-nil only
// for an invalid identifier or when every provider failed.
func (e *Engine) Lookup(ctx context.Context, raw string) (model.LookupResult, error) {
	id, err := cnpj.Normalize(raw)
	if err != nil {
		return model.LookupResult{Identifier: raw}, err
	}

	start := time.Now()
	res := model.LookupResult{
		Identifier: id,
		StartedAt:  start,
		Statuses:   make([]model.ProviderStatus, len(e.providers)),
	}

	var mu sync.Mutex
	entities := make(map[string]model.Entity)

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range e.providers {
		i, p := i, p
		g.Go(func() error {
			st, ent, ok := e.fetchOne(gctx, p, id)
			mu.Lock()
			res.Statuses[i] = st
			if ok {
				entities[p.ProviderName()] = ent
			}
			mu.Unlock()
			// A provider failure must not cancel its siblings.
			return nil
		})
	}
	g.Wait()

	// Consolidation runs on a fixed snapshot; late arrivals are
	// impossible past this point.
	res.Unified = entity.Consolidate(entities, e.trust)
	res.Duration = time.Since(start)

	// "No data available" is decided here, at the merge boundary: a fetch
	// that returned a body no normalizer could use contributes nothing, so
	// zero records reaching consolidation fails the lookup.
	res.AllFailed = res.Unified == nil
	if res.AllFailed {
		return res, resilience.ErrAllProvidersFailed
	}
	return res, nil
}

// fetchOne resolves a single provider through the cache tiers, falling
// back to the on-disk dump when the live fetch fails.
func (e *Engine) fetchOne(ctx context.Context, p RegistryProvider, id string) (model.ProviderStatus, model.Entity, bool) {
	name := p.ProviderName()
	key := cache.NewKey(name, id, nil)

	raw, err := e.cache.Fetch(ctx, key, cache.ClassRegistry, func(ctx context.Context) (model.RawResult, error) {
		return p.Fetch(ctx, id)
	})
	if err != nil {
		if payload, ok := e.dump.Get(p.EndpointPath(id)); ok {
			zap.L().Info("serving dump fallback",
				zap.String("provider", name),
				zap.String("identifier", id))
			raw = model.RawResult{Provider: name, Success: true, Payload: payload, Origin: model.OriginDump}
			err = nil
		}
	}

	st := model.ProviderStatus{
		Provider:   name,
		HTTPStatus: raw.HTTPStatus,
		Origin:     raw.Origin,
	}
	if err != nil {
		st.Error = err.Error()
		zap.L().Warn("provider unavailable",
			zap.String("provider", name),
			zap.String("identifier", id),
			zap.Error(err))
		return st, model.Entity{}, false
	}
	st.Success = true

	if len(raw.Payload) == 0 {
		nf := &resilience.NormalizationFailure{Provider: name, Err: eris.New("payload is not JSON")}
		st.Error = nf.Error()
		zap.L().Warn("normalization skipped", zap.String("provider", name), zap.Error(nf))
		return st, model.Entity{}, false
	}

	ent, nerr := p.Normalize(id, raw.Payload)
	if nerr != nil {
		nf := &resilience.NormalizationFailure{Provider: name, Err: nerr}
		st.Error = nf.Error()
		zap.L().Warn("normalization failed", zap.String("provider", name), zap.Error(nf))
		return st, model.Entity{}, false
	}

	st.Normalized = true
	return st, ent, true
}

// Collection wraps a paged fetch with the cache tiers and the dump
// fallback. The fetch's own inter-page pacing is untouched; only the fully
// accumulated collection is cached.
func (e *Engine) Collection(ctx context.Context, provider, endpoint, identifier string, fetch func(context.Context) (model.PagedCollection, error)) (model.PagedCollection, error) {
	key := cache.NewKey(provider, identifier, nil) + cache.Key("|"+endpoint)

	raw, err := e.cache.Fetch(ctx, key, cache.ClassList, func(ctx context.Context) (model.RawResult, error) {
		coll, err := fetch(ctx)
		if err != nil {
			return model.RawResult{}, err
		}
		payload, merr := json.Marshal(coll)
		if merr != nil {
			return model.RawResult{}, eris.Wrap(merr, "pipeline: encoding collection")
		}
		return model.RawResult{Provider: provider, Success: true, Payload: payload, Origin: model.OriginLive}, nil
	})
	if err != nil {
		// The dump key embeds the identifier, like the registry
		// providers' paths do, so one company's snapshot never answers
		// another company's lookup.
		if payload, ok := e.dump.Get(endpoint + "/" + identifier); ok {
			zap.L().Info("serving dump fallback",
				zap.String("provider", provider),
				zap.String("endpoint", endpoint),
				zap.String("identifier", identifier))
			return dumpCollection(endpoint, payload), nil
		}
		return model.PagedCollection{Endpoint: endpoint}, err
	}

	var coll model.PagedCollection
	if uerr := json.Unmarshal(raw.Payload, &coll); uerr != nil {
		return model.PagedCollection{Endpoint: endpoint}, eris.Wrap(uerr, "pipeline: decoding cached collection")
	}
	coll.Origin = raw.Origin
	return coll, nil
}

// dumpCollection shapes a dumped payload like a one-page collection. A
// list payload becomes the item set; anything else is a single item.
func dumpCollection(endpoint string, payload json.RawMessage) model.PagedCollection {
	coll := model.PagedCollection{Endpoint: endpoint, Pages: 1, Origin: model.OriginDump}
	var items []json.RawMessage
	if err := json.Unmarshal(payload, &items); err == nil {
		coll.Items = items
		return coll
	}
	coll.Items = []json.RawMessage{payload}
	return coll
}
