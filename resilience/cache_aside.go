package resilience

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is the minimal store CacheAsidePolicy loads through.
type Cache interface {
	Get(ctx context.Context, key string) (any, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// MemoryCache is an in-process Cache with per-entry expiry. Suitable for
// tests and single-process deployments.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     any
	expiresAt time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

// Get returns the cached value for key, if present and unexpired.
func (c *MemoryCache) Get(_ context.Context, key string) (any, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores value under key. A non-positive ttl means no expiry.
func (c *MemoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}

// CacheAsidePolicy implements the cache-aside (lazy-loading) pattern with
// stampede protection: concurrent misses on the same key share a single
// loader call.
type CacheAsidePolicy struct {
	cache Cache
	ttl   time.Duration
	group singleflight.Group
}

// NewCacheAsidePolicy creates a policy loading through the given cache.
func NewCacheAsidePolicy(cache Cache, ttl time.Duration) *CacheAsidePolicy {
	return &CacheAsidePolicy{cache: cache, ttl: ttl}
}

// GetOrLoad returns the cached value for key, invoking loader on a miss
// and storing its result. Only one loader runs per key at a time.
func (p *CacheAsidePolicy) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	if value, ok, err := p.cache.Get(ctx, key); err != nil {
		return nil, err
	} else if ok {
		return value, nil
	}

	value, err, _ := p.group.Do(key, func() (any, error) {
		// Double-check after winning the flight; a concurrent loader may
		// have filled the entry already.
		if value, ok, err := p.cache.Get(ctx, key); err != nil {
			return nil, err
		} else if ok {
			return value, nil
		}

		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		if err := p.cache.Set(ctx, key, value, p.ttl); err != nil {
			return nil, err
		}
		return value, nil
	})
	return value, err
}
