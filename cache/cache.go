// Package cache provides short-TTL memoization of content reads. A miss is
// always safe: it only costs one extra round trip, so there is no eviction
// beyond TTL expiry.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Fetcher produces the value for a key on a cache miss.
type Fetcher func(ctx context.Context) (any, error)

// Cache memoizes fetch results by key. Implementations must treat expired
// entries exactly like absent ones.
type Cache interface {
	// GetOrFetch returns the cached value for key when a non-expired entry
	// exists, otherwise invokes fetch, stores the result, and returns it.
	// A fetch error is returned as-is and nothing is stored.
	GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch Fetcher) (any, error)
	// Invalidate removes every entry whose key starts with prefix.
	Invalidate(prefix string)
	Clear()
}

// Key builds a composite cache key from a logical resource name and its
// request parameters: "comments:{"blog_post":"slug"}". Nil params yield the
// bare resource name.
func Key(resource string, params any) string {
	if params == nil {
		return resource
	}
	data, err := json.Marshal(params)
	if err != nil {
		return resource
	}
	return fmt.Sprintf("%s:%s", resource, data)
}

type entry struct {
	value    any
	storedAt time.Time
}

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// MemoryCache is a thread-safe in-memory cache with per-call TTL.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]entry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]entry)}
}

func (c *MemoryCache) lookup(key string, ttl time.Duration) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if NowTimeFunc().Sub(e.storedAt) >= ttl {
		return nil, false
	}
	return e.value, true
}

func (c *MemoryCache) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch Fetcher) (any, error) {
	if value, ok := c.lookup(key, ttl); ok {
		return value, nil
	}

	value, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.items[key] = entry{value: value, storedAt: NowTimeFunc()}
	c.mu.Unlock()
	return value, nil
}

func (c *MemoryCache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
}

func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]entry)
}

// NoopCache always misses. It swaps in for tests so callers exercise their
// fetchers on every call.
type NoopCache struct{}

func NewNoopCache() NoopCache { return NoopCache{} }

func (NoopCache) GetOrFetch(ctx context.Context, _ string, _ time.Duration, fetch Fetcher) (any, error) {
	return fetch(ctx)
}

func (NoopCache) Invalidate(string) {}
func (NoopCache) Clear()            {}
