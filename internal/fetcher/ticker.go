package fetcher

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
	"github.com/shopspring/decimal"
)

const (
	defaultTickerURL = "https://blockchain.info/ticker"
	maxTickerBody    = 1 << 20
)

// TickerOptions parameterise the ticker fetcher.
type TickerOptions struct {
	URL       string
	Currency  string
	Field     string
	Timeout   time.Duration
	UserAgent string
}

// Ticker reads a price out of a currency-keyed ticker document such as
// {"EUR": {"buy": 65000.0, ...}, "USD": {...}}.
type Ticker struct {
	opts   TickerOptions
	logger zerolog.Logger
	client *http.Client
	now    func() time.Time
}

// NewTicker constructs a ticker fetcher.
func NewTicker(opts TickerOptions, logger zerolog.Logger) *Ticker {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if opts.URL == "" {
		opts.URL = defaultTickerURL
	}
	if opts.Currency == "" {
		opts.Currency = "EUR"
	}
	if opts.Field == "" {
		opts.Field = "buy"
	}

	return &Ticker{
		opts:   opts,
		logger: logger.With().Str("component", "price_fetcher").Logger(),
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
	}
}

// FetchPrice performs a single GET against the feed and extracts <currency>.<field>.
func (t *Ticker) FetchPrice(ctx context.Context) (PriceSample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.opts.URL, nil)
	if err != nil {
		return PriceSample{}, &FetchError{URL: t.opts.URL, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(t.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return PriceSample{}, &FetchError{URL: t.opts.URL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTickerBody))
	if err != nil {
		return PriceSample{}, &FetchError{URL: t.opts.URL, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return PriceSample{}, &FetchError{URL: t.opts.URL, StatusCode: resp.StatusCode, Err: statusError(body)}
	}

	value, err := extractPrice(body, t.opts.Currency, t.opts.Field)
	if err != nil {
		return PriceSample{}, err
	}

	sample := PriceSample{
		Value:     value,
		Currency:  t.opts.Currency,
		FetchedAt: t.now().UTC(),
	}
	t.logger.Debug().
		Str("currency", sample.Currency).
		Str("price", sample.Value.String()).
		Msg("price fetched")
	return sample, nil
}

func extractPrice(body []byte, currency, field string) (decimal.Decimal, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return decimal.Decimal{}, &ParseError{Err: err}
	}

	rawCurrency, ok := root[currency]
	if !ok || isNull(rawCurrency) {
		return decimal.Decimal{}, &ParseError{Field: currency, Err: errors.New("currency not present in response")}
	}

	var quote map[string]json.RawMessage
	if err := json.Unmarshal(rawCurrency, &quote); err != nil {
		return decimal.Decimal{}, &ParseError{Field: currency, Err: err}
	}

	path := currency + "." + field
	rawValue, ok := quote[field]
	if !ok || isNull(rawValue) {
		return decimal.Decimal{}, &ParseError{Field: path, Err: errors.New("field not present in response")}
	}

	var value decimal.Decimal
	if err := value.UnmarshalJSON(rawValue); err != nil {
		return decimal.Decimal{}, &ParseError{Field: path, Err: err}
	}
	if value.IsNegative() {
		return decimal.Decimal{}, &ParseError{Field: path, Err: fmt.Errorf("negative price %s", value)}
	}
	return value, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func statusError(body []byte) error {
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	if snippet == "" {
		return errors.New("unexpected status")
	}
	return fmt.Errorf("unexpected status: %s", snippet)
}

var _ PriceFetcher = (*Ticker)(nil)
