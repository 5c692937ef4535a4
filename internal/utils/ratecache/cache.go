// Package ratecache provides the short-lived in-process cache for resolved
// withholding-tax rates. It is owned by the rate resolver and injected as an
// explicit dependency; there is no package-level shared state.
package ratecache

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type entry struct {
	rate      decimal.Decimal
	expiresAt time.Time
}

// Cache is a TTL cache keyed by normalized procurement-type name.
// Invalidation is wholesale only; individual keys simply age out.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	nowFn   func() time.Time
}

// New creates a cache whose entries live for ttl.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
		nowFn:   time.Now,
	}
}

// Get returns the cached rate for key, if present and not expired.
func (c *Cache) Get(key string) (decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || c.nowFn().After(e.expiresAt) {
		return decimal.Zero, false
	}
	return e.rate, true
}

// Put stores a resolved rate under key for the cache's TTL.
func (c *Cache) Put(key string, rate decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{rate: rate, expiresAt: c.nowFn().Add(c.ttl)}
}

// Invalidate drops every cached entry.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len reports the number of entries currently held, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
