package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// TickFunc runs one check. triggered selects the cooldown branch; a non-nil
// error stops the loop.
type TickFunc func(ctx context.Context) (triggered bool, err error)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Options tune scheduler behaviour.
type Options struct {
	Interval time.Duration
	Cooldown time.Duration
	// Sleep overrides the timer based sleeper.
	Sleep Sleeper
}

// Scheduler drives the poll loop: tick, optional cooldown, interval, repeat.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	if opts.Cooldown <= 0 {
		panic("scheduler cooldown must be positive")
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepTimer
	}
	return &Scheduler{opts: opts, logger: logger.With().Str("component", "scheduler").Logger()}
}

// Run blocks until ctx is cancelled or tick fails. After a triggered tick it
// waits Cooldown and then Interval; otherwise Interval only.
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	for iteration := 1; ; iteration++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		triggered, err := tick(ctx)
		if err != nil {
			s.logger.Error().Err(err).Int("iteration", iteration).Msg("tick execution failed")
			return fmt.Errorf("iteration %d: %w", iteration, err)
		}

		if triggered {
			s.logger.Info().Dur("cooldown", s.opts.Cooldown).Msg("alert fired, entering cooldown")
			if err := s.opts.Sleep(ctx, s.opts.Cooldown); err != nil {
				return err
			}
		}

		s.logger.Debug().
			Time("next_check", time.Now().Add(s.opts.Interval)).
			Msg("waiting for next check")
		if err := s.opts.Sleep(ctx, s.opts.Interval); err != nil {
			return err
		}
	}
}

func sleepTimer(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
