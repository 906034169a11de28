package alerting

import "github.com/shopspring/decimal"

// Decision is the outcome of comparing one price observation to the threshold.
type Decision struct {
	Triggered     bool
	ObservedPrice decimal.Decimal
}

// Evaluate triggers when price is strictly below threshold. A price equal to
// the threshold does not trigger.
func Evaluate(price, threshold decimal.Decimal) Decision {
	return Decision{
		Triggered:     price.LessThan(threshold),
		ObservedPrice: price,
	}
}
