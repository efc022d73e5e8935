package violation

import (
	"context"
	"sync"
	"time"
)

// purgeThreshold is the entry count past which Set sweeps expired entries,
// keeping the map bounded without a background janitor.
const purgeThreshold = 1024

type memEntry struct {
	counts    Counts
	expiresAt time.Time
}

// MemoryCache is an in-process Cache for single-node deployments and
// tests. Reads are safe under concurrency; a write is a last-writer-wins
// replace. Expired entries are evicted lazily on read and swept on write
// once the map grows large.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memEntry
}

// NewMemoryCache creates an in-memory cache. A zero or negative ttl falls
// back to SummaryTTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return newMemoryCache(ttl, time.Now)
}

func newMemoryCache(ttl time.Duration, now func() time.Time) *MemoryCache {
	if ttl <= 0 {
		ttl = SummaryTTL
	}
	return &MemoryCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]memEntry),
	}
}

// Get returns the cached counts for a user, or ok=false on a miss or an
// expired entry.
func (c *MemoryCache) Get(_ context.Context, userID string) (Counts, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok {
		return Counts{}, false, nil
	}
	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; another writer may have refreshed it.
		if cur, ok := c.entries[userID]; ok && c.now().After(cur.expiresAt) {
			delete(c.entries, userID)
		}
		c.mu.Unlock()
		return Counts{}, false, nil
	}
	return e.counts, true, nil
}

// Set stores the counts for a user with the cache TTL.
func (c *MemoryCache) Set(_ context.Context, userID string, counts Counts) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= purgeThreshold {
		c.purgeExpiredLocked()
	}
	c.entries[userID] = memEntry{counts: counts, expiresAt: c.now().Add(c.ttl)}
	return nil
}

// Invalidate drops the cached entry for a user.
func (c *MemoryCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) purgeExpiredLocked() {
	now := c.now()
	for id, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, id)
		}
	}
}

// Len reports the number of cached entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
