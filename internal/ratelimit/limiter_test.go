package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// newTestLimiter connects to a local Redis and removes leftover flood keys.
// Tests that call this helper require Redis on localhost:6379.
func newTestLimiter(t *testing.T) (*Limiter, context.Context) {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // use DB 15 for tests to avoid conflicts
	})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}

	for _, prefix := range []string{RuleCheck.Key + "test_*", RuleAdminClear.Key + "test_*"} {
		iter := client.Scan(ctx, 0, prefix, 100).Iterator()
		for iter.Next(ctx) {
			client.Del(ctx, iter.Val())
		}
	}

	t.Cleanup(func() { client.Close() })
	return NewLimiter(client), ctx
}

func TestAllow_WithinLimit(t *testing.T) {
	l, ctx := newTestLimiter(t)
	rule := Rule{Key: "flood:check:", Limit: 3, Window: 10 * time.Second}

	for i := 0; i < rule.Limit; i++ {
		ok, err := l.Allow(ctx, "test_a", rule)
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !ok {
			t.Fatalf("request %d denied, want allowed within the limit", i+1)
		}
	}
}

func TestAllow_DeniesOverLimit(t *testing.T) {
	l, ctx := newTestLimiter(t)
	rule := Rule{Key: "flood:check:", Limit: 2, Window: 10 * time.Second}

	l.Allow(ctx, "test_b", rule)
	l.Allow(ctx, "test_b", rule)

	ok, err := l.Allow(ctx, "test_b", rule)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Error("request over the limit allowed, want denied")
	}
}

func TestAllow_IdentifiersAreIndependent(t *testing.T) {
	l, ctx := newTestLimiter(t)
	rule := Rule{Key: "flood:check:", Limit: 1, Window: 10 * time.Second}

	l.Allow(ctx, "test_c1", rule)
	if ok, _ := l.Allow(ctx, "test_c1", rule); ok {
		t.Error("second request for test_c1 allowed, want denied")
	}
	if ok, _ := l.Allow(ctx, "test_c2", rule); !ok {
		t.Error("first request for test_c2 denied, want allowed")
	}
}

func TestRemaining(t *testing.T) {
	l, ctx := newTestLimiter(t)
	rule := Rule{Key: "flood:check:", Limit: 5, Window: 10 * time.Second}

	if n, err := l.Remaining(ctx, "test_d", rule); err != nil || n != 5 {
		t.Errorf("Remaining before any request = %d (%v), want 5", n, err)
	}

	for i := 0; i < 3; i++ {
		l.Allow(ctx, "test_d", rule)
	}
	if n, _ := l.Remaining(ctx, "test_d", rule); n != 2 {
		t.Errorf("Remaining after 3 requests = %d, want 2", n)
	}

	for i := 0; i < 10; i++ {
		l.Allow(ctx, "test_d", rule)
	}
	if n, _ := l.Remaining(ctx, "test_d", rule); n != 0 {
		t.Errorf("Remaining past the limit = %d, want clamped to 0", n)
	}
}

func TestAllow_WindowResets(t *testing.T) {
	l, ctx := newTestLimiter(t)
	rule := Rule{Key: "flood:check:", Limit: 1, Window: time.Second}

	id := fmt.Sprintf("test_e%d", time.Now().UnixNano())
	l.Allow(ctx, id, rule)
	if ok, _ := l.Allow(ctx, id, rule); ok {
		t.Fatal("second request in the window allowed, want denied")
	}

	time.Sleep(1100 * time.Millisecond)
	if ok, _ := l.Allow(ctx, id, rule); !ok {
		t.Error("request after the window expired denied, want allowed")
	}
}
