package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const namespace = "btcalert"

// Metrics tracks poll loop activity.
type Metrics struct {
	Polls          prometheus.Counter
	FetchFailures  prometheus.Counter
	Alerts         prometheus.Counter
	NotifyFailures prometheus.Counter
	LastPrice      prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg skips registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Polls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Price checks attempted.",
		}),
		FetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Price checks that failed to fetch or parse the feed.",
		}),
		Alerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Price checks that fell below the threshold.",
		}),
		NotifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_failures_total",
			Help:      "Webhook deliveries that failed.",
		}),
		LastPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_price",
			Help:      "Most recently observed price in the feed currency.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Polls, m.FetchFailures, m.Alerts, m.NotifyFailures, m.LastPrice)
	}
	return m
}

// ObservePrice records the latest price.
func (m *Metrics) ObservePrice(price decimal.Decimal) {
	if m == nil {
		return
	}
	m.LastPrice.Set(price.InexactFloat64())
}

// IncPolls counts one price check.
func (m *Metrics) IncPolls() {
	if m == nil {
		return
	}
	m.Polls.Inc()
}

// IncFetchFailures counts one failed fetch.
func (m *Metrics) IncFetchFailures() {
	if m == nil {
		return
	}
	m.FetchFailures.Inc()
}

// IncAlerts counts one triggered alert.
func (m *Metrics) IncAlerts() {
	if m == nil {
		return
	}
	m.Alerts.Inc()
}

// IncNotifyFailures counts one failed delivery.
func (m *Metrics) IncNotifyFailures() {
	if m == nil {
		return
	}
	m.NotifyFailures.Inc()
}
