package violation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachePrefix is the Redis key prefix for cached per-user counts.
const CachePrefix = "modsum:"

// RedisCache stores per-user counts as JSON values with a TTL, so entries
// evict themselves without a janitor:
//
//	Key:   modsum:<user_id>
//	Value: JSON-encoded Counts
//	TTL:   SummaryTTL
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a cache using the provided Redis client. A zero or
// negative ttl falls back to SummaryTTL.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = SummaryTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the cached counts for a user, or ok=false on a miss.
func (c *RedisCache) Get(ctx context.Context, userID string) (Counts, bool, error) {
	val, err := c.client.Get(ctx, CachePrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Counts{}, false, nil
	}
	if err != nil {
		return Counts{}, false, fmt.Errorf("violation: cache get: %w", err)
	}

	var counts Counts
	if err := json.Unmarshal(val, &counts); err != nil {
		// A corrupt entry is indistinguishable from a miss; drop it.
		c.client.Del(ctx, CachePrefix+userID)
		return Counts{}, false, nil
	}
	return counts, true, nil
}

// Set stores the counts for a user with the cache TTL.
func (c *RedisCache) Set(ctx context.Context, userID string, counts Counts) error {
	data, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("violation: cache marshal: %w", err)
	}
	if err := c.client.Set(ctx, CachePrefix+userID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("violation: cache set: %w", err)
	}
	return nil
}

// Invalidate drops the cached entry for a user so the next read recomputes
// from the log.
func (c *RedisCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, CachePrefix+userID).Err(); err != nil {
		return fmt.Errorf("violation: cache invalidate: %w", err)
	}
	return nil
}
