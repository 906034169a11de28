package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Notifier delivers a price alert.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// NotifyError reports a failed delivery: transport failure or a non-2xx status.
type NotifyError struct {
	StatusCode int
	Err        error
}

func (e *NotifyError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("webhook returned HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("send webhook: %v", e.Err)
}

func (e *NotifyError) Unwrap() error {
	return e.Err
}

// WebhookOptions parameterise the webhook notifier.
type WebhookOptions struct {
	URL       string
	Template  MessageTemplate
	Timeout   time.Duration
	UserAgent string
}

// WebhookNotifier posts a Discord-style JSON message to a webhook.
type WebhookNotifier struct {
	opts   WebhookOptions
	client *http.Client
	logger zerolog.Logger
}

// NewWebhookNotifier builds the webhook notifier.
func NewWebhookNotifier(opts WebhookOptions, logger zerolog.Logger) *WebhookNotifier {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &WebhookNotifier{
		opts:   opts,
		client: &http.Client{Timeout: timeout},
		logger: logger.With().Str("component", "alert_webhook").Logger(),
	}
}

// Notify renders alert and posts it once.
func (n *WebhookNotifier) Notify(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(BuildPayload(n.opts.Template, alert))
	if err != nil {
		return &NotifyError{Err: fmt.Errorf("marshal webhook payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.opts.URL, bytes.NewReader(body))
	if err != nil {
		return &NotifyError{Err: fmt.Errorf("create webhook request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if ua := strings.TrimSpace(n.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return &NotifyError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := strings.TrimSpace(string(snippet))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &NotifyError{StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	n.logger.Info().
		Str("price", alert.Price.String()).
		Str("threshold", alert.Threshold.String()).
		Msg("alert delivered")
	return nil
}

var _ Notifier = (*WebhookNotifier)(nil)
