package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"btcalert/internal/alerting"
	"btcalert/internal/config"
	"btcalert/internal/fetcher"
)

func testConfig(feedURL, webhookURL string) *config.Config {
	return &config.Config{
		Feed: config.FeedConfig{
			URL:            feedURL,
			Currency:       "EUR",
			Field:          "buy",
			RequestTimeout: time.Second,
		},
		Alerting: config.AlertingConfig{
			Threshold:     decimal.NewFromInt(70000),
			CheckInterval: 10 * time.Millisecond,
			Cooldown:      10 * time.Millisecond,
		},
		Webhook: config.WebhookConfig{
			URL:            webhookURL,
			RequestTimeout: time.Second,
		},
		Notification: config.NotificationConfig{
			Footer:      "BTC Alert Bot",
			PricePrefix: "$",
			Asset:       "BTC",
		},
	}
}

func feedServer(t *testing.T, body string, onHit func(n int64)) *httptest.Server {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		if onHit != nil {
			onHit(n)
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunContinuesAfterWebhookFailure(t *testing.T) {
	var webhookHits atomic.Int64
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		webhookHits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer webhook.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	feed := feedServer(t, `{"EUR":{"buy":65000.0}}`, func(n int64) {
		if n == 3 {
			cancel()
		}
	})

	a := NewApp(testConfig(feed.URL, webhook.URL), zerolog.Nop())
	if err := a.Run(ctx); err != nil {
		t.Fatalf("run should stop cleanly on cancellation: %v", err)
	}
	if got := webhookHits.Load(); got < 2 {
		t.Fatalf("loop should keep notifying after failures, webhook hits=%d", got)
	}
}

func TestRunStopsOnFetchFailure(t *testing.T) {
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("webhook must not be called")
	}))
	defer webhook.Close()

	feed := feedServer(t, `{"EUR":{"sell":65000.0}}`, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a := NewApp(testConfig(feed.URL, webhook.URL), zerolog.Nop())
	err := a.Run(ctx)

	var parseErr *fetcher.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *fetcher.ParseError, got %v", err)
	}
}

func TestCheckPrintsSummary(t *testing.T) {
	feed := feedServer(t, `{"EUR":{"buy":65000.0}}`, nil)
	a := NewApp(testConfig(feed.URL, "http://localhost/unused"), zerolog.Nop())

	var out bytes.Buffer
	if err := a.Check(context.Background(), &out); err != nil {
		t.Fatalf("check: %v", err)
	}

	line := out.String()
	for _, want := range []string{"BTC EUR buy", "65,000.00", "70,000.00", "alert would fire"} {
		if !strings.Contains(line, want) {
			t.Fatalf("output %q missing %q", line, want)
		}
	}
}

func TestSimulateAlertDeliversPayload(t *testing.T) {
	var payload alerting.WebhookPayload
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer webhook.Close()

	a := NewApp(testConfig("http://localhost/unused", webhook.URL), zerolog.Nop())
	if err := a.SimulateAlert(context.Background(), decimal.NewFromInt(65000)); err != nil {
		t.Fatalf("simulate: %v", err)
	}

	if len(payload.Embeds) != 1 {
		t.Fatalf("unexpected payload %+v", payload)
	}
	fields := payload.Embeds[0].Fields
	if fields[0].Value != "$65000" || fields[1].Value != "$70000" {
		t.Fatalf("unexpected fields %+v", fields)
	}
	if payload.Content != alerting.DefaultTemplate().Content {
		t.Fatalf("content: got %q", payload.Content)
	}
}

func TestSimulateAlertReturnsDeliveryError(t *testing.T) {
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer webhook.Close()

	a := NewApp(testConfig("http://localhost/unused", webhook.URL), zerolog.Nop())
	err := a.SimulateAlert(context.Background(), decimal.NewFromInt(65000))

	var notifyErr *alerting.NotifyError
	if !errors.As(err, &notifyErr) {
		t.Fatalf("expected *alerting.NotifyError, got %v", err)
	}
}

func TestSimulateAlertRejectsPriceAtThreshold(t *testing.T) {
	a := NewApp(testConfig("http://localhost/unused", "http://localhost/unused"), zerolog.Nop())
	if err := a.SimulateAlert(context.Background(), decimal.NewFromInt(70000)); err == nil {
		t.Fatal("price equal to threshold must not send")
	}
}
