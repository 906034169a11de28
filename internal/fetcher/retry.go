package fetcher

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Retrying wraps a PriceFetcher and retries FetchErrors a fixed number of
// times. ParseErrors are returned immediately.
type Retrying struct {
	next    PriceFetcher
	retries int
	delay   time.Duration
	logger  zerolog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewRetrying decorates next. With retries <= 0 it returns next unchanged.
func NewRetrying(next PriceFetcher, retries int, delay time.Duration, logger zerolog.Logger) PriceFetcher {
	if retries <= 0 {
		return next
	}
	return &Retrying{
		next:    next,
		retries: retries,
		delay:   delay,
		logger:  logger.With().Str("component", "fetch_retry").Logger(),
		sleep:   sleepContext,
	}
}

// FetchPrice calls the wrapped fetcher up to retries+1 times.
func (r *Retrying) FetchPrice(ctx context.Context) (PriceSample, error) {
	var lastErr error
	for attempt := 0; attempt <= r.retries; attempt++ {
		sample, err := r.next.FetchPrice(ctx)
		if err == nil {
			return sample, nil
		}
		lastErr = err

		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			return PriceSample{}, err
		}
		if attempt == r.retries {
			break
		}

		r.logger.Warn().Err(err).
			Int("attempt", attempt+1).
			Int("max_attempts", r.retries+1).
			Dur("retry_in", r.delay).
			Msg("price fetch failed, retrying")

		if err := r.sleep(ctx, r.delay); err != nil {
			return PriceSample{}, err
		}
	}
	return PriceSample{}, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ PriceFetcher = (*Retrying)(nil)
