package violation

import (
	"context"
	"time"
)

// SummaryTTL bounds how stale a cached per-user aggregate may be. Writes
// invalidate the entry immediately; the TTL only covers reads that race an
// invalidation on another node.
const SummaryTTL = 5 * time.Minute

// Cache holds per-user violation counts for a short TTL. Implementations
// must treat a miss as (zero Counts, false, nil) rather than an error.
type Cache interface {
	Get(ctx context.Context, userID string) (Counts, bool, error)
	Set(ctx context.Context, userID string, c Counts) error
	Invalidate(ctx context.Context, userID string) error
}
