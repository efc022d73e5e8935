// Package ratelimit throttles raw check-request throughput per sender with
// Redis INCR + EXPIRE windows. This is flood protection for the moderation
// pipeline itself: it bounds how often a single sender can invoke detection,
// and is independent of the violation-based restrictions the escalation
// policy derives from the moderation log.
package ratelimit

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rule defines a throttling policy: the Redis key prefix, the maximum number
// of requests allowed in the window, and the window duration.
type Rule struct {
	Key    string        // Redis key prefix (e.g. "flood:check:")
	Limit  int           // max count in the window
	Window time.Duration // time window
}

var (
	// RuleCheck allows 30 moderation checks per 10 seconds per sender.
	// Anything faster than that is a scripted client, not a person typing.
	RuleCheck = Rule{Key: "flood:check:", Limit: 30, Window: 10 * time.Second}

	// RuleAdminClear allows 10 rate-limit overrides per minute per admin
	// caller, so a stuck dashboard cannot hammer the cache.
	RuleAdminClear = Rule{Key: "flood:clear:", Limit: 10, Window: 1 * time.Minute}
)

// Limiter performs flood checks against Redis.
type Limiter struct {
	client *redis.Client
}

// NewLimiter creates a Limiter backed by the given Redis client.
func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// Allow reports whether the identifier is within the limit defined by rule.
// It increments the counter in Redis and sets the expiry on first access.
//
// On Redis errors the method fails open (returns true) so that a Redis
// outage does not stall the moderation pipeline.
func (l *Limiter) Allow(ctx context.Context, identifier string, rule Rule) (bool, error) {
	key := rule.Key + identifier

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		log.Printf("[ratelimit] redis INCR error key=%s: %v (failing open)", key, err)
		return true, err
	}

	// On the first increment, set the expiry to define the window boundary.
	if count == 1 {
		if err := l.client.Expire(ctx, key, rule.Window).Err(); err != nil {
			log.Printf("[ratelimit] redis EXPIRE error key=%s: %v (failing open)", key, err)
			// The key exists but has no TTL; delete it so it cannot throttle
			// the identifier forever.
			l.client.Del(ctx, key)
			return true, err
		}
	}

	return int(count) <= rule.Limit, nil
}

// Remaining returns the number of requests the identifier has left in the
// current window. Returns the full limit if the key does not exist yet, and
// fails open to the full limit on Redis errors.
func (l *Limiter) Remaining(ctx context.Context, identifier string, rule Rule) (int, error) {
	key := rule.Key + identifier

	count, err := l.client.Get(ctx, key).Int()
	if err == redis.Nil {
		return rule.Limit, nil
	}
	if err != nil {
		log.Printf("[ratelimit] redis GET error key=%s: %v (failing open)", key, err)
		return rule.Limit, err
	}

	remaining := rule.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
