package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jonwraymond/scopeops/guard"
)

func newTestMiddleware(t *testing.T) (*Middleware, *tracetest.SpanRecorder, *sdkmetric.ManualReader) {
	t.Helper()

	spanRecorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spanRecorder))
	tracer := &tracerImpl{tracer: tp.Tracer("test")}

	metricReader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(metricReader))
	metrics, err := newMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	return NewMiddleware(tracer, metrics, &noopLogger{}), spanRecorder, metricReader
}

// TestMiddleware_FiredGuard verifies a fired guard records a span and metrics.
func TestMiddleware_FiredGuard(t *testing.T) {
	mw, spanRecorder, metricReader := newTestMiddleware(t)

	meta := GuardMeta{Scope: "session", Name: "close"}
	g := guard.New(func() {}, guard.WithHook(mw.Hook(meta)))
	g.Exit()

	spans := spanRecorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "guard.exit.session.close" {
		t.Errorf("span name = %q, want %q", spans[0].Name(), "guard.exit.session.close")
	}

	var rm metricdata.ResourceMetrics
	if err := metricReader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	if findMetric(rm, "guard.exit.total") == nil {
		t.Error("guard.exit.total metric not found")
	}
}

// TestMiddleware_DismissedGuard verifies a dismissed guard records metrics
// but no span.
func TestMiddleware_DismissedGuard(t *testing.T) {
	mw, spanRecorder, metricReader := newTestMiddleware(t)

	meta := GuardMeta{Name: "cancelled"}
	g := guard.New(func() {}, guard.WithHook(mw.Hook(meta)))
	g.Dismiss()
	g.Exit()

	if spans := spanRecorder.Ended(); len(spans) != 0 {
		t.Errorf("expected 0 spans for a dismissed guard, got %d", len(spans))
	}

	var rm metricdata.ResourceMetrics
	if err := metricReader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	found := findMetric(rm, "guard.exit.total")
	if found == nil {
		t.Fatal("guard.exit.total metric not found")
	}
	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	var outcome string
	for iter := sum.DataPoints[0].Attributes.Iter(); iter.Next(); {
		kv := iter.Attribute()
		if string(kv.Key) == "guard.outcome" {
			outcome = kv.Value.AsString()
		}
	}
	if outcome != "dismissed" {
		t.Errorf("guard.outcome = %q, want dismissed", outcome)
	}
}

// TestMiddleware_SuppressedGuard verifies policy suppression is recorded.
func TestMiddleware_SuppressedGuard(t *testing.T) {
	mw, spanRecorder, _ := newTestMiddleware(t)

	var err error
	meta := GuardMeta{Scope: "tx", Name: "rollback"}
	g := guard.OnFailure(func() {}, guard.Failure(&err), guard.WithHook(mw.Hook(meta)))
	g.Exit()

	if spans := spanRecorder.Ended(); len(spans) != 0 {
		t.Errorf("expected 0 spans for a suppressed action, got %d", len(spans))
	}
}

// TestMiddleware_FailedAction verifies the error path records error telemetry.
func TestMiddleware_FailedAction(t *testing.T) {
	mw, spanRecorder, metricReader := newTestMiddleware(t)

	// Feed the hook directly: a real failed action would terminate the
	// process immediately after the hook runs.
	hook := mw.Hook(GuardMeta{Name: "flush"})
	hook(guard.Event{
		Policy:   guard.PolicyAlways,
		Outcome:  guard.OutcomeFired,
		Duration: 5 * time.Millisecond,
		Err:      errors.New("flush failed"),
	})

	spans := spanRecorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	var guardError bool
	for _, attr := range spans[0].Attributes() {
		if string(attr.Key) == "guard.error" {
			guardError = attr.Value.AsBool()
		}
	}
	if !guardError {
		t.Error("guard.error = false, want true on failed action")
	}

	var rm metricdata.ResourceMetrics
	if err := metricReader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	found := findMetric(rm, "guard.exit.errors")
	if found == nil {
		t.Fatal("guard.exit.errors metric not found")
	}
	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if sum.DataPoints[0].Value != 1 {
		t.Errorf("errors count = %d, want 1", sum.DataPoints[0].Value)
	}
}

// TestMiddleware_LogsFailure verifies the failure log line.
func TestMiddleware_LogsFailure(t *testing.T) {
	spanRecorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spanRecorder))
	tracer := &tracerImpl{tracer: tp.Tracer("test")}

	var buf bytes.Buffer
	logger := NewLoggerWithWriter("debug", &buf)

	mw := NewMiddleware(tracer, &noopMetrics{}, logger)
	hook := mw.Hook(GuardMeta{Name: "flush"})
	hook(guard.Event{
		Outcome: guard.OutcomeFired,
		Err:     errors.New("disk full"),
	})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v\nOutput: %s", err, buf.String())
	}
	if entry["level"] != "error" {
		t.Errorf("level = %v, want error", entry["level"])
	}
	if entry["error"] != "disk full" {
		t.Errorf("error = %v, want %q", entry["error"], "disk full")
	}
	if entry["outcome"] != "fired" {
		t.Errorf("outcome = %v, want fired", entry["outcome"])
	}
}

// TestMiddleware_TransferredGuard verifies relocation is observable.
func TestMiddleware_TransferredGuard(t *testing.T) {
	mw, _, metricReader := newTestMiddleware(t)

	meta := GuardMeta{Name: "handoff"}
	g1 := guard.New(func() {}, guard.WithHook(mw.Hook(meta)))
	g2 := g1.Transfer()
	g1.Exit()
	g2.Exit()

	var rm metricdata.ResourceMetrics
	if err := metricReader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	found := findMetric(rm, "guard.exit.total")
	if found == nil {
		t.Fatal("guard.exit.total metric not found")
	}
	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", found.Data)
	}

	// One transferred event plus one fired event, as distinct outcome series.
	outcomes := map[string]int64{}
	for _, dp := range sum.DataPoints {
		for iter := dp.Attributes.Iter(); iter.Next(); {
			kv := iter.Attribute()
			if string(kv.Key) == "guard.outcome" {
				outcomes[kv.Value.AsString()] += dp.Value
			}
		}
	}
	if outcomes["transferred"] != 1 {
		t.Errorf("transferred count = %d, want 1", outcomes["transferred"])
	}
	if outcomes["fired"] != 1 {
		t.Errorf("fired count = %d, want 1", outcomes["fired"])
	}
}
