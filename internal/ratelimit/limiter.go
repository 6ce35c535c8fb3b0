package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/alwaisy/keyinsights-backend/internal/domain/port"
)

const keyPrefix = "ratelimit:"

// Decision is the outcome of one admission check. Limit, Remaining and Reset
// are computed from the same counter value that decided admission.
type Decision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	Reset     time.Time
	Count     int64
}

// Limiter admits or rejects job-creation requests per client against an
// hourly quota held in the counter store.
//
// Window policy: fixed window anchored at the wall-clock hour boundary
// (UTC). The counter's TTL is the remainder of the current hour, set on the
// window's first increment, and the advisory reset is the top of the next
// hour. Admission and display share the same anchor.
type Limiter struct {
	counters port.CounterStore
	limit    int64
	logger   *zap.Logger
}

func NewLimiter(counters port.CounterStore, limit int64, logger *zap.Logger) *Limiter {
	return &Limiter{
		counters: counters,
		limit:    limit,
		logger:   logger,
	}
}

// Allow counts the request against clientID's window and decides admission.
// A store failure admits the request: admission control degrades open rather
// than turning a store outage into a full denial of service.
func (l *Limiter) Allow(ctx context.Context, clientID string, now time.Time) Decision {
	reset := windowReset(now)
	ttl := reset.Sub(now)

	count, err := l.counters.IncrementCounter(ctx, keyPrefix+clientID, 1, ttl)
	if err != nil {
		l.logger.Warn("rate limit counter unavailable, admitting request",
			zap.String("client", clientID), zap.Error(err))
		return Decision{Allowed: true, Limit: l.limit, Remaining: l.limit, Reset: reset}
	}

	return l.decision(count, reset)
}

// Snapshot reads the current window without incrementing, for quota
// reporting routes.
func (l *Limiter) Snapshot(ctx context.Context, clientID string, now time.Time) Decision {
	reset := windowReset(now)

	count, err := l.counters.CounterValue(ctx, keyPrefix+clientID)
	if err != nil {
		l.logger.Warn("rate limit counter read failed",
			zap.String("client", clientID), zap.Error(err))
		count = 0
	}

	return l.decision(count, reset)
}

func (l *Limiter) decision(count int64, reset time.Time) Decision {
	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: remaining,
		Reset:     reset,
		Count:     count,
	}
}

func windowReset(now time.Time) time.Time {
	return now.UTC().Truncate(time.Hour).Add(time.Hour)
}
