package violation

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source for cache expiry tests.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func TestMemoryCache_SetGet(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	c := newMemoryCache(5*time.Minute, clk.Now)
	ctx := context.Background()

	want := Counts{Total: 7, LastHour: 2, LastDay: 4}
	if err := c.Set(ctx, "u1", want); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok, err := c.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("Get ok = false, want hit")
	}
	if got != want {
		t.Errorf("Get = %+v, want %+v", got, want)
	}
}

func TestMemoryCache_Miss(t *testing.T) {
	c := NewMemoryCache(0)

	_, ok, err := c.Get(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("Get ok = true on unknown user, want miss")
	}
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	c := newMemoryCache(5*time.Minute, clk.Now)
	ctx := context.Background()

	if err := c.Set(ctx, "u1", Counts{Total: 1}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	clk.Advance(4 * time.Minute)
	if _, ok, _ := c.Get(ctx, "u1"); !ok {
		t.Fatal("entry expired before the TTL elapsed")
	}

	clk.Advance(2 * time.Minute)
	if _, ok, _ := c.Get(ctx, "u1"); ok {
		t.Error("entry still served after the TTL elapsed")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d after lazy eviction, want 0", c.Len())
	}
}

func TestMemoryCache_Invalidate(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "u1", Counts{Total: 3}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Invalidate(ctx, "u1"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "u1"); ok {
		t.Error("Get hit after Invalidate, want miss")
	}

	// Invalidating an absent key is a no-op.
	if err := c.Invalidate(ctx, "ghost"); err != nil {
		t.Errorf("Invalidate(absent): %v", err)
	}
}

func TestMemoryCache_SetRefreshesTTL(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	c := newMemoryCache(5*time.Minute, clk.Now)
	ctx := context.Background()

	c.Set(ctx, "u1", Counts{Total: 1})
	clk.Advance(4 * time.Minute)
	c.Set(ctx, "u1", Counts{Total: 2})
	clk.Advance(4 * time.Minute)

	got, ok, _ := c.Get(ctx, "u1")
	if !ok {
		t.Fatal("refreshed entry expired, want it alive for a full TTL after Set")
	}
	if got.Total != 2 {
		t.Errorf("Total = %d, want 2", got.Total)
	}
}

func TestMemoryCache_PurgeOnWrite(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	c := newMemoryCache(time.Minute, clk.Now)
	ctx := context.Background()

	for i := 0; i < purgeThreshold; i++ {
		c.Set(ctx, fmt.Sprintf("user-%d", i), Counts{Total: i})
	}
	if c.Len() != purgeThreshold {
		t.Fatalf("Len = %d, want %d", c.Len(), purgeThreshold)
	}

	// Everything above has expired; the next Set must sweep it all out.
	clk.Advance(2 * time.Minute)
	c.Set(ctx, "fresh", Counts{Total: 1})
	if c.Len() != 1 {
		t.Errorf("Len = %d after sweep, want 1", c.Len())
	}
}
