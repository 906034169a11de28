package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"btcalert/internal/alerting"
	"btcalert/internal/config"
	"btcalert/internal/fetcher"
	"btcalert/internal/metrics"
	"btcalert/internal/scheduler"
	"btcalert/internal/service"
	"btcalert/internal/version"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFetcher() fetcher.PriceFetcher {
	feed := a.Config.Feed
	ticker := fetcher.NewTicker(fetcher.TickerOptions{
		URL:       feed.URL,
		Currency:  feed.Currency,
		Field:     feed.Field,
		Timeout:   feed.RequestTimeout,
		UserAgent: version.UserAgent(),
	}, a.Logger)
	return fetcher.NewRetrying(ticker, feed.Retries, feed.RetryDelay, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	return alerting.NewWebhookNotifier(alerting.WebhookOptions{
		URL:       a.Config.Webhook.URL,
		Template:  a.template(),
		Timeout:   a.Config.Webhook.RequestTimeout,
		UserAgent: version.UserAgent(),
	}, a.Logger)
}

func (a *App) template() alerting.MessageTemplate {
	n := a.Config.Notification
	tmpl := alerting.DefaultTemplate()
	if n.Content != "" {
		tmpl.Content = n.Content
	}
	if n.Title != "" {
		tmpl.Title = n.Title
	}
	if n.Description != "" {
		tmpl.Description = n.Description
	}
	if n.Color != 0 {
		tmpl.Color = n.Color
	}
	tmpl.Footer = n.Footer
	tmpl.PricePrefix = n.PricePrefix
	return tmpl
}

// Run executes the long-running price watch until ctx is cancelled or a fetch fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	if addr := a.Config.Metrics.Addr; addr != "" {
		srv := metrics.NewServer(addr, reg, a.Logger)
		go func() {
			if err := srv.Run(ctx); err != nil {
				a.Logger.Error().Err(err).Str("addr", addr).Msg("metrics listener failed")
			}
		}()
	}

	sched := scheduler.New(scheduler.Options{
		Interval: a.Config.Alerting.CheckInterval,
		Cooldown: a.Config.Alerting.Cooldown,
	}, a.Logger)

	svc := service.New(a.Config.Alerting.Threshold, a.newFetcher(), a.newNotifier(), m, a.Logger)

	a.Logger.Info().
		Str("threshold", a.Config.Alerting.Threshold.String()).
		Dur("check_interval", a.Config.Alerting.CheckInterval).
		Dur("cooldown", a.Config.Alerting.Cooldown).
		Str("feed", a.Config.Feed.URL).
		Str("currency", a.Config.Feed.Currency).
		Msg("starting price watch")

	err := sched.Run(ctx, svc.Tick)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("price watch terminated with error")
		return err
	}

	a.Logger.Info().Msg("price watch stopped")
	return nil
}
