package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/scopeops/guard"
)

// Metrics records scope-exit outcomes for guards.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordExit records a guard lifecycle event.
	RecordExit(ctx context.Context, meta GuardMeta, event guard.Event)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter        metric.Meter
	exitCount    metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// newMetrics creates a new Metrics instance with the given meter.
func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	exitCount, err := meter.Int64Counter(
		"guard.exit.total",
		metric.WithDescription("Total number of guard lifecycle events"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"guard.exit.errors",
		metric.WithDescription("Total number of actions that failed at scope exit"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"guard.action.duration_ms",
		metric.WithDescription("Fired action duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		exitCount:    exitCount,
		errorCount:   errorCount,
		durationHist: durationHist,
	}, nil
}

// RecordExit records metrics for a guard lifecycle event.
func (m *metricsImpl) RecordExit(ctx context.Context, meta GuardMeta, event guard.Event) {
	attrs := []attribute.KeyValue{
		attribute.String("guard.id", meta.GuardID()),
		attribute.String("guard.name", meta.Name),
		attribute.String("guard.policy", event.Policy.String()),
		attribute.String("guard.outcome", event.Outcome.String()),
	}

	if meta.Scope != "" {
		attrs = append(attrs, attribute.String("guard.scope", meta.Scope))
	}

	opt := metric.WithAttributes(attrs...)

	// Every lifecycle event counts toward the total
	m.exitCount.Add(ctx, 1, opt)

	// An action error is about to terminate the process; record it first
	if event.Err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}

	// Only fired actions have a meaningful duration
	if event.Outcome == guard.OutcomeFired {
		durationMs := float64(event.Duration.Microseconds()) / 1000.0
		m.durationHist.Record(ctx, durationMs, opt)
	}
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordExit(ctx context.Context, meta GuardMeta, event guard.Event) {
}
