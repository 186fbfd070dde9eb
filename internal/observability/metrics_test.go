package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.ObserveAggregateOperation("op", "success", time.Millisecond)
	m.IncAggregateConflict("op")
	m.IncOutboxPublished("order.paid")
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("nil write: %v", err)
	}
}

func TestAggregateAndOutboxSeries(t *testing.T) {
	m := NewMetrics()
	m.ObserveAggregateOperation("Marketplace.Order.Pay", "success", 20*time.Millisecond)
	m.ObserveAggregateOperation("Marketplace.Order.Pay", "invariant_violation", 5*time.Millisecond)
	m.IncAggregateRetry("Marketplace.Order.Pay")
	m.IncAggregateRetry("Marketplace.Order.Pay")
	m.IncOutboxPublished("order.paid")
	m.ObserveOutboxBatch(3)

	if got := m.aggregateRetries.Value("Marketplace.Order.Pay"); got != 2 {
		t.Fatalf("retries: want=2 got=%v", got)
	}
	if got := m.aggregateOps.Value("Marketplace.Order.Pay", "success"); got != 1 {
		t.Fatalf("ops success: want=1 got=%v", got)
	}

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`mk_aggregate_operations_total{op="Marketplace.Order.Pay",status="invariant_violation"} 1.000000`,
		`mk_outbox_published_total{kind="order.paid"} 1.000000`,
		`mk_outbox_batch_size_bucket{le="5"} 1`,
		`mk_outbox_batch_size_count 1`,
		"# TYPE mk_api_inflight_requests gauge",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("exposition missing %q in:\n%s", want, out)
		}
	}
}

func TestAPIErrorCounting(t *testing.T) {
	m := NewMetrics()
	m.ObserveAPI("POST", "/api/v1/orders/:id/pay", "503", time.Millisecond)
	m.ObserveAPI("POST", "/api/v1/orders/:id/pay", "409", time.Millisecond)
	if got := m.apiReqTotal.Value(); got != 2 {
		t.Fatalf("total: want=2 got=%v", got)
	}
	if got := m.apiReqError.Value(); got != 1 {
		t.Fatalf("5xx: want=1 got=%v", got)
	}
}

func TestLabelEscaping(t *testing.T) {
	got := labelString([]string{"a", "b"}, []string{`x"y`})
	if got != `{a="x\"y",b="unknown"}` {
		t.Fatalf("labels: got=%s", got)
	}
	if le := withLe("", "0.5"); le != `{le="0.5"}` {
		t.Fatalf("le: got=%s", le)
	}
}
