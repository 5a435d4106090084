package warehouse

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"fleet-dash/internal/domain"
	"fleet-dash/internal/tabular"
)

var _ domain.Warehouse = (*CachedWarehouse)(nil)

type cacheEntry struct {
	payload   *tabular.Payload
	expiresAt time.Time
}

// CachedWarehouse memoizes payloads by SQL text for a fixed TTL. Concurrent
// identical queries share one upstream call. Decoding is deterministic, so
// a cached payload always decodes to the same records.
//
// Errors and missing payloads are never cached.
type CachedWarehouse struct {
	next  domain.Warehouse
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewCachedWarehouse wraps next with a TTL cache. A non-positive ttl
// disables caching but keeps request collapsing.
func NewCachedWarehouse(next domain.Warehouse, ttl time.Duration) *CachedWarehouse {
	return &CachedWarehouse{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Query returns the cached payload for sql or fetches it from next.
func (c *CachedWarehouse) Query(ctx context.Context, sql string) (*tabular.Payload, error) {
	if p, ok := c.lookup(sql); ok {
		return p, nil
	}

	v, err, _ := c.group.Do(sql, func() (any, error) {
		if p, ok := c.lookup(sql); ok {
			return p, nil
		}
		p, err := c.next.Query(ctx, sql)
		if err != nil {
			return nil, err
		}
		if p != nil && c.ttl > 0 {
			c.mu.Lock()
			c.entries[sql] = cacheEntry{payload: p, expiresAt: c.now().Add(c.ttl)}
			c.mu.Unlock()
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	p, _ := v.(*tabular.Payload)
	return p, nil
}

func (c *CachedWarehouse) lookup(sql string) (*tabular.Payload, bool) {
	c.mu.RLock()
	e, ok := c.entries[sql]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.payload, true
}

// Invalidate drops every cached payload.
func (c *CachedWarehouse) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Purge removes expired entries and returns how many were dropped.
func (c *CachedWarehouse) Purge() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of cached entries, expired ones included.
func (c *CachedWarehouse) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
