// Package namecache memoizes pure string-keyed computations such as name preprocessing.
//
// A Cache is safe for concurrent use. Bounded caches evict the least recently used entry;
// a size of zero or less gives an unbounded cache, which is only appropriate for one-shot
// batch jobs whose lifetime bounds the cache.
package namecache

import (
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache memoizes values by their exact string key.
type Cache[V any] struct {
	entries *lru.Cache[string, V]
	size    int
}

// New creates a cache holding at most size entries. size <= 0 means unbounded.
func New[V any](size int) (*Cache[V], error) {
	capacity := size
	if capacity <= 0 {
		capacity = math.MaxInt
	}

	entries, err := lru.New[string, V](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create name cache: %w", err)
	}

	return &Cache[V]{entries: entries, size: size}, nil
}

// MustNew is New for static sizes that cannot fail.
func MustNew[V any](size int) *Cache[V] {
	c, err := New[V](size)
	if err != nil {
		panic(err)
	}
	return c
}

// GetOrCompute returns the cached value for key, computing and storing it on a miss.
// compute must be a pure function of key; concurrent misses may compute twice but
// always store the same value. A nil cache computes every time.
func (c *Cache[V]) GetOrCompute(key string, compute func(string) V) V {
	if c == nil {
		return compute(key)
	}
	if v, ok := c.entries.Get(key); ok {
		return v
	}
	v := compute(key)
	c.entries.Add(key, v)
	return v
}

// Len returns the number of cached entries.
func (c *Cache[V]) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

// Size returns the configured bound, or 0 for an unbounded cache.
func (c *Cache[V]) Size() int {
	if c == nil || c.size < 0 {
		return 0
	}
	return c.size
}

// Purge drops every entry. Long-running services may call this periodically instead of
// (or in addition to) bounding the cache.
func (c *Cache[V]) Purge() {
	if c == nil {
		return
	}
	c.entries.Purge()
}
