package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"btcalert/internal/alerting"
)

// SimulateAlert sends one notification as if price had been observed. Unlike
// the poll loop it returns delivery errors so the webhook can be verified.
func (a *App) SimulateAlert(ctx context.Context, price decimal.Decimal) error {
	threshold := a.Config.Alerting.Threshold
	decision := alerting.Evaluate(price, threshold)
	if !decision.Triggered {
		return fmt.Errorf("price %s is not below threshold %s; no alert would be sent", price, threshold)
	}

	alert := alerting.Alert{
		Threshold: threshold,
		Price:     decision.ObservedPrice,
		At:        time.Now().UTC(),
	}
	if err := a.newNotifier().Notify(ctx, alert); err != nil {
		return err
	}

	a.Logger.Info().Str("price", price.String()).Msg("simulated alert delivered")
	return nil
}
