package cache

import (
	"context"
	"testing"
	"time"
)

func newTestContentCache(t *testing.T) *ContentCache {
	t.Helper()
	c := NewContentCache(NewMemoryCache(time.Minute, 0), time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestContentCacheRoundTrip(t *testing.T) {
	c := newTestContentCache(t)
	ctx := context.Background()

	if _, ok := c.Get(ctx); ok {
		t.Fatal("Get() on empty cache reported a hit")
	}

	content := map[string]string{"hero_title": "Tineghir", "footer_text": "Discover"}
	c.Set(ctx, content, c.Generation())

	got, ok := c.Get(ctx)
	if !ok {
		t.Fatal("Get() after Set reported a miss")
	}
	if got["hero_title"] != "Tineghir" || got["footer_text"] != "Discover" {
		t.Errorf("Get() = %v", got)
	}
}

func TestContentCacheInvalidate(t *testing.T) {
	c := newTestContentCache(t)
	ctx := context.Background()

	c.Set(ctx, map[string]string{"k": "v"}, c.Generation())
	c.Invalidate(ctx)

	if _, ok := c.Get(ctx); ok {
		t.Error("Get() after Invalidate reported a hit")
	}
}

func TestContentCacheRefusesStaleSet(t *testing.T) {
	c := newTestContentCache(t)
	ctx := context.Background()

	// A reader snapshots the generation, then an update invalidates before
	// the reader gets to cache what it loaded. The stale mapping must not
	// be re-cached.
	gen := c.Generation()
	c.Invalidate(ctx)
	c.Set(ctx, map[string]string{"k": "pre-update"}, gen)

	if got, ok := c.Get(ctx); ok {
		t.Errorf("Get() = %v after stale Set, want miss", got)
	}

	// A fresh snapshot still caches normally.
	c.Set(ctx, map[string]string{"k": "current"}, c.Generation())
	got, ok := c.Get(ctx)
	if !ok || got["k"] != "current" {
		t.Errorf("Get() = (%v, %v), want current mapping", got, ok)
	}
}

func TestContentCacheCorruptEntry(t *testing.T) {
	mem := NewMemoryCache(time.Minute, 0)
	c := NewContentCache(mem, time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	// Plant a non-JSON entry under the content key.
	if err := mem.Set(ctx, contentKey, []byte("not json"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if _, ok := c.Get(ctx); ok {
		t.Fatal("Get() reported a hit for a corrupt entry")
	}

	// The corrupt entry must have been dropped.
	if _, err := mem.Get(ctx, contentKey); err == nil {
		t.Error("corrupt entry still present after Get")
	}
}

func TestNewFallsBackToMemory(t *testing.T) {
	// An unreachable Redis URL must yield a working memory-backed cache.
	c := New("redis://127.0.0.1:1/0", time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	c.Set(ctx, map[string]string{"k": "v"}, c.Generation())
	got, ok := c.Get(ctx)
	if !ok || got["k"] != "v" {
		t.Errorf("fallback cache Get() = (%v, %v)", got, ok)
	}
}
