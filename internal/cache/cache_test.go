package cache

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cnpj-cli/internal/model"
)

func liveResult(provider string) model.RawResult {
	return model.RawResult{Provider: provider, Success: true, Origin: model.OriginLive}
}

func TestKeySortsParams(t *testing.T) {
	t.Parallel()

	a := url.Values{}
	a.Set("pagina", "1")
	a.Set("tamanho", "100")
	b := url.Values{}
	b.Set("tamanho", "100")
	b.Set("pagina", "1")

	require.Equal(t, NewKey("transparencia", "02558157000162", a), NewKey("transparencia", "02558157000162", b))
	require.NotEqual(t, NewKey("transparencia", "02558157000162", a), NewKey("serpro", "02558157000162", a))
}

func TestFetchFillsBothTiers(t *testing.T) {
	t.Parallel()

	c := New(Config{})
	key := NewKey("serpro", "02558157000162", nil)

	var calls atomic.Int64
	fetch := func(context.Context) (model.RawResult, error) {
		calls.Add(1)
		return liveResult("serpro"), nil
	}

	got, err := c.Fetch(context.Background(), key, ClassRegistry, fetch)
	require.NoError(t, err)
	require.Equal(t, model.OriginLive, got.Origin)

	got, err = c.Fetch(context.Background(), key, ClassRegistry, fetch)
	require.NoError(t, err)
	require.Equal(t, model.OriginSessionMemo, got.Origin)
	require.EqualValues(t, 1, calls.Load())
}

func TestFetchTTLTierSurvivesMemoClear(t *testing.T) {
	t.Parallel()

	c := New(Config{})
	key := NewKey("brasilapi", "02558157000162", nil)

	_, err := c.Fetch(context.Background(), key, ClassRegistry, func(context.Context) (model.RawResult, error) {
		return liveResult("brasilapi"), nil
	})
	require.NoError(t, err)

	c.Clear()

	got, err := c.Fetch(context.Background(), key, ClassRegistry, func(context.Context) (model.RawResult, error) {
		t.Fatal("live fetch after clear: TTL tier should have answered")
		return model.RawResult{}, nil
	})
	require.NoError(t, err)
	require.Equal(t, model.OriginTTLCache, got.Origin)
}

func TestFetchExpiredEntryRefetches(t *testing.T) {
	t.Parallel()

	c := New(Config{ListTTL: time.Minute})
	key := NewKey("transparencia", "02558157000162", nil)

	var calls atomic.Int64
	fetch := func(context.Context) (model.RawResult, error) {
		calls.Add(1)
		return liveResult("transparencia"), nil
	}

	_, err := c.Fetch(context.Background(), key, ClassList, fetch)
	require.NoError(t, err)

	c.Clear()
	c.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	got, err := c.Fetch(context.Background(), key, ClassList, fetch)
	require.NoError(t, err)
	require.Equal(t, model.OriginLive, got.Origin)
	require.EqualValues(t, 2, calls.Load())
}

func TestFetchErrorNotCached(t *testing.T) {
	t.Parallel()

	c := New(Config{})
	key := NewKey("receitaws", "02558157000162", nil)

	var calls atomic.Int64
	_, err := c.Fetch(context.Background(), key, ClassRegistry, func(context.Context) (model.RawResult, error) {
		calls.Add(1)
		return model.RawResult{}, eris.New("boom")
	})
	require.Error(t, err)

	got, err := c.Fetch(context.Background(), key, ClassRegistry, func(context.Context) (model.RawResult, error) {
		calls.Add(1)
		return liveResult("receitaws"), nil
	})
	require.NoError(t, err)
	require.Equal(t, model.OriginLive, got.Origin)
	require.EqualValues(t, 2, calls.Load())
}

func TestFetchCollapsesConcurrentMisses(t *testing.T) {
	t.Parallel()

	c := New(Config{})
	key := NewKey("minhareceita", "02558157000162", nil)

	var calls atomic.Int64
	release := make(chan struct{})
	fetch := func(context.Context) (model.RawResult, error) {
		calls.Add(1)
		<-release
		return liveResult("minhareceita"), nil
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Fetch(context.Background(), key, ClassRegistry, fetch)
			require.NoError(t, err)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, calls.Load())
}
