package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWorkerMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWorkerMetrics(reg)

	m.ObserveDuration("outbox-publisher", 250*time.Millisecond)
	m.IncSuccess("outbox-publisher")
	m.IncFailure("notify-worker")
	m.IncPublished("outbox-publisher", "order_created")
	m.IncPublished("outbox-publisher", "order_created")

	if got := testutil.ToFloat64(m.success.WithLabelValues("outbox-publisher")); got != 1 {
		t.Fatalf("expected one success, got %v", got)
	}
	if got := testutil.ToFloat64(m.failure.WithLabelValues("notify-worker")); got != 1 {
		t.Fatalf("expected one failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.published.WithLabelValues("outbox-publisher", "order_created")); got != 2 {
		t.Fatalf("expected two published events, got %v", got)
	}
}

func TestWorkerMetricsNilSafe(t *testing.T) {
	var m *WorkerMetrics
	m.ObserveDuration("x", time.Second)
	m.IncSuccess("x")
	m.IncFailure("x")
	m.IncPublished("x", "y")

	unregistered := NewWorkerMetrics(nil)
	unregistered.IncSuccess("x")
}
