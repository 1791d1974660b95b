package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordProviderCallIncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordProviderCall("anthropic", "claude-3", "ok", 120*time.Millisecond)

	got := counterValue(t, m.ProviderRequestCounter.WithLabelValues("anthropic", "claude-3", "ok"))
	if got != 1 {
		t.Fatalf("expected counter = 1, got %v", got)
	}
}

func TestRunStartedFinishedTracksGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RunStarted()
	if got := gaugeValue(t, m.ActiveRuns); got != 1 {
		t.Fatalf("expected active runs = 1, got %v", got)
	}

	m.RunFinished("completed", time.Second, 3)
	if got := gaugeValue(t, m.ActiveRuns); got != 0 {
		t.Fatalf("expected active runs = 0 after finish, got %v", got)
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetGauge().GetValue()
}
