// Package cache provides a generic loader cache combining LRU storage with
// singleflight to coalesce concurrent loads for the same key.
package cache

import (
	"context"
	"fmt"

	"github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// LoaderCache loads values on miss via a callback. Concurrent misses for the same key
// share one load. Keys are converted to strings via keyToString for LRU and singleflight.
type LoaderCache[K comparable, V any] struct {
	lru         *lru.Cache[string, V]
	group       singleflight.Group
	keyToString func(K) string
}

// NewLoaderCache creates a loader cache with the given max entries and key serializer.
func NewLoaderCache[K comparable, V any](maxEntries int, keyToString func(K) string) (*LoaderCache[K, V], error) {
	lruCache, err := lru.New[string, V](maxEntries)
	if err != nil {
		return nil, err
	}

	return &LoaderCache[K, V]{
		lru:         lruCache,
		keyToString: keyToString,
	}, nil
}

// Get returns the value for key, loading it via load on cache miss.
func (c *LoaderCache[K, V]) Get(ctx context.Context, key K, load func(context.Context, K) (V, error)) (V, error) {
	v, _, err := c.GetWithStats(ctx, key, load)

	return v, err
}

// GetWithStats is like Get but also reports whether the value came from the cache.
func (c *LoaderCache[K, V]) GetWithStats(ctx context.Context, key K, load func(context.Context, K) (V, error)) (V, bool, error) {
	keyStr := c.keyToString(key)
	if v, ok := c.lru.Get(keyStr); ok {
		return v, true, nil
	}

	val, err, _ := c.group.Do(keyStr, func() (any, error) {
		loaded, loadErr := load(ctx, key)
		if loadErr != nil {
			return nil, loadErr
		}

		c.lru.Add(keyStr, loaded)

		return loaded, nil
	})
	if err != nil {
		var zero V

		return zero, false, err
	}

	return val.(V), false, nil
}

// GetMany resolves keys in order. Cached entries are served from the LRU; the distinct
// missing keys are passed to loadMany in a single call, which must return exactly one
// value per key in the same order. It returns the values and the number of cache hits.
// A failed load caches nothing.
func (c *LoaderCache[K, V]) GetMany(
	ctx context.Context,
	keys []K,
	loadMany func(context.Context, []K) ([]V, error),
) ([]V, int, error) {
	values := make([]V, len(keys))
	pending := make(map[string][]int)

	var missing []K

	hits := 0

	for i, key := range keys {
		keyStr := c.keyToString(key)
		if v, ok := c.lru.Get(keyStr); ok {
			values[i] = v
			hits++

			continue
		}

		if _, seen := pending[keyStr]; !seen {
			missing = append(missing, key)
		}

		pending[keyStr] = append(pending[keyStr], i)
	}

	if len(missing) == 0 {
		return values, hits, nil
	}

	loaded, err := loadMany(ctx, missing)
	if err != nil {
		return nil, hits, err
	}

	if len(loaded) != len(missing) {
		return nil, hits, fmt.Errorf("cache: loader returned %d values for %d keys", len(loaded), len(missing))
	}

	for i, key := range missing {
		keyStr := c.keyToString(key)
		c.lru.Add(keyStr, loaded[i])

		for _, idx := range pending[keyStr] {
			values[idx] = loaded[i]
		}
	}

	return values, hits, nil
}

// Invalidate removes the entry for key.
func (c *LoaderCache[K, V]) Invalidate(key K) {
	c.lru.Remove(c.keyToString(key))
}

// InvalidateAll removes all entries.
func (c *LoaderCache[K, V]) InvalidateAll() {
	c.lru.Purge()
}

// Len returns the number of entries in the cache.
func (c *LoaderCache[K, V]) Len() int {
	return c.lru.Len()
}
