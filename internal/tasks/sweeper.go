package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/alwaisy/keyinsights-backend/internal/domain/port"
)

// RateLimitSweeper clears all rate-limit counters at each wall-clock hour
// boundary, matching the limiter's window anchor. Store failures are logged
// and retried at the next tick.
type RateLimitSweeper struct {
	sweeper port.CounterSweeper
	logger  *zap.Logger
}

func NewRateLimitSweeper(sweeper port.CounterSweeper, logger *zap.Logger) *RateLimitSweeper {
	return &RateLimitSweeper{sweeper: sweeper, logger: logger}
}

// Start runs the sweep loop until ctx is cancelled.
func (s *RateLimitSweeper) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *RateLimitSweeper) run(ctx context.Context) {
	for {
		wait := time.Until(nextHour(time.Now().UTC()))
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.sweep(ctx)
		}
	}
}

func (s *RateLimitSweeper) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	deleted, err := s.sweeper.DeleteByPattern(sweepCtx, "ratelimit:*")
	if err != nil {
		s.logger.Warn("rate limit sweep failed, will retry next hour", zap.Error(err))
		return
	}
	s.logger.Info("rate limit counters reset", zap.Int64("deleted", deleted))
}

func nextHour(now time.Time) time.Time {
	return now.Truncate(time.Hour).Add(time.Hour)
}
