package service

import (
	"sync"
	"time"

	"github.com/comptaline/backoffice/internal/seo/domain"
)

// resolvedCache keeps merged SEO payloads per route for a bounded TTL, so
// every storefront render does not hit the database twice.
type resolvedCache struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]cacheEntry
}

type cacheEntry struct {
	expiresAt time.Time
	resolved  domain.Resolved
}

func newResolvedCache(ttl time.Duration) *resolvedCache {
	return &resolvedCache{
		ttl:   ttl,
		items: make(map[string]cacheEntry),
	}
}

func (c *resolvedCache) Get(route string) (*domain.Resolved, bool) {
	if c == nil || route == "" {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.items[route]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().UTC().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.items, route)
		c.mu.Unlock()
		return nil, false
	}
	resolved := entry.resolved
	return &resolved, true
}

func (c *resolvedCache) Set(route string, resolved domain.Resolved) {
	if c == nil || route == "" {
		return
	}
	c.mu.Lock()
	c.items[route] = cacheEntry{
		expiresAt: time.Now().UTC().Add(c.ttl),
		resolved:  resolved,
	}
	c.mu.Unlock()
}

func (c *resolvedCache) Flush() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.items = make(map[string]cacheEntry)
	c.mu.Unlock()
}
