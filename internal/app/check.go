package app

import (
	"context"
	"io"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"btcalert/internal/service"
)

// Check performs a single fetch and evaluation and writes a summary to w. It never notifies.
func (a *App) Check(ctx context.Context, w io.Writer) error {
	svc := service.New(a.Config.Alerting.Threshold, a.newFetcher(), nil, nil, a.Logger)

	sample, decision, err := svc.Check(ctx)
	if err != nil {
		return err
	}

	status := "above threshold, no alert"
	if decision.Triggered {
		status = "below threshold, alert would fire"
	}

	p := message.NewPrinter(language.English)
	_, err = p.Fprintf(w, "%s %s %s: %s (threshold %s) - %s\n",
		a.Config.Notification.Asset,
		sample.Currency,
		a.Config.Feed.Field,
		formatGrouped(p, decision.ObservedPrice),
		formatGrouped(p, a.Config.Alerting.Threshold),
		status,
	)
	return err
}

func formatGrouped(p *message.Printer, d decimal.Decimal) string {
	return p.Sprintf("%.2f", d.InexactFloat64())
}
