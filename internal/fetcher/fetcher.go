package fetcher

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PriceSample is a single observation taken from the price feed.
type PriceSample struct {
	Value     decimal.Decimal
	Currency  string
	FetchedAt time.Time
}

// PriceFetcher retrieves the current asset price.
type PriceFetcher interface {
	FetchPrice(ctx context.Context) (PriceSample, error)
}
