package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TickFunc runs one full fetch-persist-render cycle.
type TickFunc func(ctx context.Context, now time.Time) error

// Options tune refresh behaviour.
type Options struct {
	Interval     time.Duration
	StartupDelay time.Duration
}

// Scheduler drives the cooperative refresh loop: one cycle, a blocking sleep
// of the full interval, then a fresh cycle. There is no early-wake path short
// of context cancellation.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	return &Scheduler{opts: opts, logger: logger.With().Str("component", "scheduler").Logger()}
}

// Run blocks, executing cycles back to back until ctx is cancelled. A failed
// cycle is logged and the loop still sleeps and retries.
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	if s.opts.StartupDelay > 0 {
		if err := sleep(ctx, s.opts.StartupDelay); err != nil {
			return err
		}
	}

	for {
		now := time.Now()
		s.logger.Info().Time("cycle", now).Msg("executing refresh cycle")

		if err := tick(ctx, now); err != nil {
			s.logger.Error().Err(err).Time("cycle", now).Msg("cycle execution failed")
		}

		s.logger.Debug().Dur("sleep", s.opts.Interval).Msg("sleeping until next cycle")
		if err := sleep(ctx, s.opts.Interval); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
