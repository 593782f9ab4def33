// Package cache layers the lookup tiers: a session-scoped memo with no
// expiry, a TTL cache with per-endpoint-class lifetimes, and singleflight
// collapse so concurrent misses for one key trigger a single live fetch.
package cache

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sells-group/cnpj-cli/internal/model"
)

// Class buckets endpoints by how long their answers stay useful. Registry
// records change rarely; paged list endpoints churn.
type Class int

const (
	ClassRegistry Class = iota
	ClassList
)

const (
	defaultRegistryTTL = 24 * time.Hour
	defaultListTTL     = time.Hour
)

// Key addresses one cached fetch: provider, identifier, and the sorted
// query string so parameter order never splits entries.
type Key string

// NewKey builds the cache key for a provider fetch.
func NewKey(provider, identifier string, params url.Values) Key {
	return Key(provider + "|" + identifier + "|" + params.Encode())
}

type entry struct {
	val     model.RawResult
	expires time.Time
}

// Config sets the per-class TTLs. Zero values take the defaults.
type Config struct {
	RegistryTTL time.Duration `mapstructure:"registry_ttl"`
	ListTTL     time.Duration `mapstructure:"list_ttl"`
}

// Tiered is the composed cache consulted before any live fetch.
type Tiered struct {
	mu   sync.RWMutex
	memo map[Key]model.RawResult
	ttl  map[Key]entry

	group singleflight.Group
	cfg   Config
	now   func() time.Time
}

// New creates an empty tiered cache.
func New(cfg Config) *Tiered {
	if cfg.RegistryTTL <= 0 {
		cfg.RegistryTTL = defaultRegistryTTL
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = defaultListTTL
	}
	return &Tiered{
		memo: make(map[Key]model.RawResult),
		ttl:  make(map[Key]entry),
		cfg:  cfg,
		now:  time.Now,
	}
}

func (t *Tiered) ttlFor(class Class) time.Duration {
	if class == ClassList {
		return t.cfg.ListTTL
	}
	return t.cfg.RegistryTTL
}

// lookup checks memo then TTL tier, tagging the hit's origin.
func (t *Tiered) lookup(key Key) (model.RawResult, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if v, ok := t.memo[key]; ok {
		v.Origin = model.OriginSessionMemo
		return v, true
	}
	if e, ok := t.ttl[key]; ok && t.now().Before(e.expires) {
		v := e.val
		v.Origin = model.OriginTTLCache
		return v, true
	}
	return model.RawResult{}, false
}

// fill refreshes both tiers after a successful live fetch.
func (t *Tiered) fill(key Key, class Class, v model.RawResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.memo[key] = v
	t.ttl[key] = entry{val: v, expires: t.now().Add(t.ttlFor(class))}
}

// Fetch returns the cached value for key or runs fetch exactly once across
// concurrent callers, filling both tiers on success. Failed fetches are
// never cached.
func (t *Tiered) Fetch(ctx context.Context, key Key, class Class, fetch func(context.Context) (model.RawResult, error)) (model.RawResult, error) {
	if v, ok := t.lookup(key); ok {
		return v, nil
	}

	out, err, _ := t.group.Do(string(key), func() (any, error) {
		// A racing caller may have filled the tiers while this one
		// waited on the flight group.
		if v, ok := t.lookup(key); ok {
			return v, nil
		}
		v, err := fetch(ctx)
		if err != nil {
			return v, err
		}
		t.fill(key, class, v)
		return v, nil
	})

	res, _ := out.(model.RawResult)
	return res, err
}

// Clear empties the session memo. The TTL tier keeps its entries.
func (t *Tiered) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.memo = make(map[Key]model.RawResult)
}

// Len reports entries per tier, for status output.
func (t *Tiered) Len() (memo, ttl int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.memo), len(t.ttl)
}
