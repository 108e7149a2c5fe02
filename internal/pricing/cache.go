package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/langdock/gateway-core/internal/models"
)

// CachedLookup wraps a Lookup with a read-mostly, TTL-expiring in-memory
// cache. Pricing is treated as read-mostly by spec.md section 5; caching
// it is an optional optimization, not required for correctness, so a
// stale hit simply falls through to the underlying lookup on expiry.
type CachedLookup struct {
	underlying Lookup
	ttl        time.Duration

	mu      sync.RWMutex
	entries map[models.ModelID]cacheEntry
}

type cacheEntry struct {
	pricing   Pricing
	found     bool
	expiresAt time.Time
}

// NewCachedLookup wraps underlying with a TTL cache.
func NewCachedLookup(underlying Lookup, ttl time.Duration) *CachedLookup {
	return &CachedLookup{
		underlying: underlying,
		ttl:        ttl,
		entries:    make(map[models.ModelID]cacheEntry),
	}
}

// Find implements Lookup.
func (c *CachedLookup) Find(ctx context.Context, model models.ModelID) (Pricing, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[model]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.pricing, entry.found, nil
	}

	p, found, err := c.underlying.Find(ctx, model)
	if err != nil {
		return Pricing{}, false, err
	}

	c.mu.Lock()
	c.entries[model] = cacheEntry{pricing: p, found: found, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	return p, found, nil
}

// Invalidate drops a single cached entry so the next Find reads through
// to the underlying lookup.
func (c *CachedLookup) Invalidate(model models.ModelID) {
	c.mu.Lock()
	delete(c.entries, model)
	c.mu.Unlock()
}
