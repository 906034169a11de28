package fetcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type scriptedFetcher struct {
	errs  []error
	calls int
}

func (s *scriptedFetcher) FetchPrice(ctx context.Context) (PriceSample, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return PriceSample{}, err
		}
	}
	return PriceSample{Value: decimal.NewFromInt(100), Currency: "EUR"}, nil
}

func newTestRetrying(next PriceFetcher, retries int) (*Retrying, *[]time.Duration) {
	var slept []time.Duration
	r := NewRetrying(next, retries, time.Second, noopLogger()).(*Retrying)
	r.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return r, &slept
}

func TestRetryingZeroRetriesReturnsInner(t *testing.T) {
	inner := &scriptedFetcher{}
	if got := NewRetrying(inner, 0, time.Second, noopLogger()); got != PriceFetcher(inner) {
		t.Fatal("zero retries should not wrap the fetcher")
	}
}

func TestRetryingRecoversFromFetchError(t *testing.T) {
	inner := &scriptedFetcher{errs: []error{&FetchError{URL: "x", Err: errors.New("reset")}, nil}}
	r, slept := newTestRetrying(inner, 2)

	sample, err := r.FetchPrice(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !sample.Value.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected sample %s", sample.Value)
	}
	if inner.calls != 2 {
		t.Fatalf("calls: got %d, want 2", inner.calls)
	}
	if len(*slept) != 1 || (*slept)[0] != time.Second {
		t.Fatalf("sleeps: got %v", *slept)
	}
}

func TestRetryingGivesUpAfterRetries(t *testing.T) {
	fail := &FetchError{URL: "x", Err: errors.New("timeout")}
	inner := &scriptedFetcher{errs: []error{fail, fail, fail, fail}}
	r, slept := newTestRetrying(inner, 2)

	_, err := r.FetchPrice(context.Background())
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if inner.calls != 3 {
		t.Fatalf("calls: got %d, want 3", inner.calls)
	}
	if len(*slept) != 2 {
		t.Fatalf("sleeps: got %d, want 2", len(*slept))
	}
}

func TestRetryingDoesNotRetryParseError(t *testing.T) {
	inner := &scriptedFetcher{errs: []error{&ParseError{Field: "EUR.buy", Err: errors.New("missing")}}}
	r, _ := newTestRetrying(inner, 5)

	_, err := r.FetchPrice(context.Background())
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("parse errors must not be retried, calls=%d", inner.calls)
	}
}

func TestRetryingStopsOnCancel(t *testing.T) {
	fail := &FetchError{URL: "x", Err: errors.New("timeout")}
	inner := &scriptedFetcher{errs: []error{fail, fail}}
	r := NewRetrying(inner, 3, time.Hour, noopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.FetchPrice(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
