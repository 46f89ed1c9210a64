package catalog_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bookingkit/pkg/catalog"
)

type memCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.data[key], nil
}

func (c *memCache) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = val
	c.ttls[key] = ttl
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func countingSource(plugins ...catalog.Plugin) (catalog.Source, *int) {
	calls := 0
	return catalog.SourceFunc(func(context.Context) ([]catalog.Plugin, error) {
		calls++
		return plugins, nil
	}), &calls
}

func TestCachedSource_Load(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reports := plugin("reports", "Reports", true)
	src, calls := countingSource(reports)
	cache := newMemCache()

	cached := catalog.NewCachedSource(src, cache, 5*time.Minute, catalog.WithCacheKey("test:plugins"))

	first, err := cached.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []catalog.Plugin{reports}, first)
	assert.Equal(t, 1, *calls)
	assert.Equal(t, 5*time.Minute, cache.ttls["test:plugins"])

	second, err := cached.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, *calls, "second load is served from cache")

	require.NoError(t, cached.Invalidate(ctx))
	_, err = cached.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, *calls)
}

func TestCachedSource_Degrades(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("cache read error falls back to source", func(t *testing.T) {
		t.Parallel()
		src, calls := countingSource(plugin("pos", "POS", false))
		cache := newMemCache()
		cache.getErr = errors.New("redis down")

		plugins, err := catalog.NewCachedSource(src, cache, 0).Load(ctx)
		require.NoError(t, err)
		assert.Len(t, plugins, 1)
		assert.Equal(t, 1, *calls)
	})

	t.Run("corrupted entry is replaced", func(t *testing.T) {
		t.Parallel()
		src, calls := countingSource(plugin("pos", "POS", false))
		cache := newMemCache()
		cache.data[catalog.DefaultCacheKey] = []byte("{not json")

		plugins, err := catalog.NewCachedSource(src, cache, 0).Load(ctx)
		require.NoError(t, err)
		assert.Len(t, plugins, 1)
		assert.Equal(t, 1, *calls)
		assert.NotEqual(t, "{not json", string(cache.data[catalog.DefaultCacheKey]))
	})

	t.Run("source error is returned", func(t *testing.T) {
		t.Parallel()
		errDown := errors.New("db down")
		src := catalog.SourceFunc(func(context.Context) ([]catalog.Plugin, error) { return nil, errDown })

		_, err := catalog.NewCachedSource(src, newMemCache(), 0).Load(ctx)
		assert.ErrorIs(t, err, errDown)
	})
}
