package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"
)

// contentKey is the single cache key holding the full content mapping.
const contentKey = "content"

// ContentCache is a typed wrapper over a Cache for the page-content
// key/value mapping. The whole mapping is cached as one entry and
// invalidated on every successful bulk upsert, so readers see either the
// old or the fully new mapping, never a mix.
type ContentCache struct {
	cache Cache
	ttl   time.Duration

	// gen counts invalidations. A reader that loaded the mapping from the
	// database before an invalidation must not re-cache it afterwards, or
	// the pre-update mapping would stay visible until the TTL expires.
	gen atomic.Uint64
}

// NewContentCache wraps cache with content-specific typed accessors.
func NewContentCache(cache Cache, ttl time.Duration) *ContentCache {
	return &ContentCache{cache: cache, ttl: ttl}
}

// New builds the content cache from configuration: Redis when redisURL is
// set and reachable, otherwise an in-process memory cache. A Redis failure
// falls back to memory rather than failing startup.
func New(redisURL string, ttl time.Duration) *ContentCache {
	if redisURL != "" {
		rc, err := NewRedisCache(DefaultRedisCacheOptions(redisURL))
		if err == nil {
			slog.Info("content cache initialized", "backend", "redis")
			return NewContentCache(rc, ttl)
		}
		slog.Warn("redis unavailable, falling back to memory cache", "error", err)
	}
	slog.Info("content cache initialized", "backend", "memory")
	return NewContentCache(NewMemoryCache(ttl, time.Minute), ttl)
}

// Get returns the cached content mapping, or (nil, false) on a miss.
// Cache errors are treated as misses.
func (c *ContentCache) Get(ctx context.Context) (map[string]string, bool) {
	data, err := c.cache.Get(ctx, contentKey)
	if err != nil {
		return nil, false
	}

	var content map[string]string
	if err := json.Unmarshal(data, &content); err != nil {
		// Corrupt entry: drop it and treat as a miss.
		_ = c.cache.Delete(ctx, contentKey)
		return nil, false
	}
	return content, true
}

// Generation returns the current invalidation counter. Callers snapshot it
// before reading the database and pass it to Set.
func (c *ContentCache) Generation() uint64 {
	return c.gen.Load()
}

// Set stores the content mapping, unless an invalidation happened after
// gen was observed (the mapping would be stale). Failures are logged, not
// propagated; the cache is an optimization, not a source of truth.
func (c *ContentCache) Set(ctx context.Context, content map[string]string, gen uint64) {
	if c.gen.Load() != gen {
		return
	}
	data, err := json.Marshal(content)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, contentKey, data, c.ttl); err != nil {
		slog.Warn("failed to cache content", "error", err)
		return
	}
	// An invalidation may have raced the write above; drop the entry so
	// the stale mapping cannot survive.
	if c.gen.Load() != gen {
		_ = c.cache.Delete(ctx, contentKey)
	}
}

// Invalidate bumps the generation and drops the cached mapping. Called
// after every successful bulk upsert.
func (c *ContentCache) Invalidate(ctx context.Context) {
	c.gen.Add(1)
	if err := c.cache.Delete(ctx, contentKey); err != nil {
		slog.Warn("failed to invalidate content cache", "error", err)
	}
}

// Close releases the underlying cache.
func (c *ContentCache) Close() error {
	return c.cache.Close()
}
