package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
)

func gatherValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		m := mf.GetMetric()[0]
		switch mf.GetType() {
		case dto.MetricType_COUNTER:
			return m.GetCounter().GetValue()
		case dto.MetricType_GAUGE:
			return m.GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncPolls()
	m.IncPolls()
	m.IncAlerts()
	m.IncNotifyFailures()
	m.IncFetchFailures()
	m.ObservePrice(decimal.RequireFromString("65000.5"))

	checks := map[string]float64{
		"btcalert_polls_total":           2,
		"btcalert_alerts_total":          1,
		"btcalert_notify_failures_total": 1,
		"btcalert_fetch_failures_total":  1,
		"btcalert_last_price":            65000.5,
	}
	for name, want := range checks {
		if got := gatherValue(t, reg, name); got != want {
			t.Fatalf("%s: got %v, want %v", name, got, want)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.IncPolls()
	m.IncAlerts()
	m.IncNotifyFailures()
	m.IncFetchFailures()
	m.ObservePrice(decimal.NewFromInt(1))
}

func TestHandlerServesMetricsAndHealth(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg).IncPolls()

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "btcalert_polls_total 1") {
		t.Fatalf("metrics output missing counter: %s", body)
	}

	resp, err = http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status: got %d", resp.StatusCode)
	}
}
