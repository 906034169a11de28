package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"btcalert/internal/alerting"
	"btcalert/internal/fetcher"
	"btcalert/internal/metrics"
)

// Service performs one price check per tick: fetch, evaluate, and notify
// when the price is below the threshold.
type Service struct {
	fetcher   fetcher.PriceFetcher
	notifier  alerting.Notifier
	metrics   *metrics.Metrics
	threshold decimal.Decimal
	logger    zerolog.Logger
	now       func() time.Time
}

// New constructs the price check service. notifier and m may be nil.
func New(threshold decimal.Decimal, priceFetcher fetcher.PriceFetcher, notifier alerting.Notifier, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		fetcher:   priceFetcher,
		notifier:  notifier,
		metrics:   m,
		threshold: threshold,
		logger:    logger.With().Str("component", "service").Logger(),
		now:       time.Now,
	}
}

// Check fetches the price and evaluates it without notifying.
func (s *Service) Check(ctx context.Context) (fetcher.PriceSample, alerting.Decision, error) {
	s.metrics.IncPolls()

	sample, err := s.fetcher.FetchPrice(ctx)
	if err != nil {
		s.metrics.IncFetchFailures()
		return fetcher.PriceSample{}, alerting.Decision{}, fmt.Errorf("fetch price: %w", err)
	}
	s.metrics.ObservePrice(sample.Value)

	decision := alerting.Evaluate(sample.Value, s.threshold)
	s.logger.Info().
		Str("price", decision.ObservedPrice.String()).
		Str("currency", sample.Currency).
		Str("threshold", s.threshold.String()).
		Bool("triggered", decision.Triggered).
		Msg("price checked")

	return sample, decision, nil
}

// Tick runs one check and reports whether an alert was triggered. Only fetch
// failures are returned; notification failures are logged and swallowed.
func (s *Service) Tick(ctx context.Context) (bool, error) {
	_, decision, err := s.Check(ctx)
	if err != nil {
		return false, err
	}
	if !decision.Triggered {
		return false, nil
	}

	s.metrics.IncAlerts()
	if s.notifier == nil {
		s.logger.Warn().Str("price", decision.ObservedPrice.String()).Msg("threshold crossed but no notifier configured")
		return true, nil
	}

	alert := alerting.Alert{
		Threshold: s.threshold,
		Price:     decision.ObservedPrice,
		At:        s.now().UTC(),
	}
	if err := s.notifier.Notify(ctx, alert); err != nil {
		s.metrics.IncNotifyFailures()
		s.logger.Error().Err(err).
			Str("price", alert.Price.String()).
			Msg("failed to dispatch alert")
	}
	return true, nil
}
