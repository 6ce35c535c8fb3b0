package port

import (
	"context"
	"time"
)

// CounterStore backs rate-limit admission counters. IncrementCounter applies
// the TTL only on the first increment of a window, i.e. when the
// post-increment value equals amount.
type CounterStore interface {
	IncrementCounter(ctx context.Context, key string, amount int64, ttl time.Duration) (int64, error)
	CounterValue(ctx context.Context, key string) (int64, error)
}

// CounterSweeper removes counter keys in bulk, used by the hourly
// maintenance sweep.
type CounterSweeper interface {
	DeleteByPattern(ctx context.Context, pattern string) (int64, error)
}
