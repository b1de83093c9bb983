package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// GuardMeta contains metadata about a guard binding for telemetry purposes.
type GuardMeta struct {
	ID       string // Fully qualified guard ID (scope.name or just name)
	Scope    string // Logical scope that owns the binding, e.g. "session" (may be empty)
	Name     string // Guard name (required)
	Resource string // Resource the action releases or compensates (optional)
}

// SpanName returns the deterministic span name for this guard binding.
// Format: guard.exit.<scope>.<name> or guard.exit.<name>
func (m GuardMeta) SpanName() string {
	if m.Scope != "" {
		return "guard.exit." + m.Scope + "." + m.Name
	}
	return "guard.exit." + m.Name
}

// GuardID returns the fully qualified guard identifier.
// If the ID field is set, returns it. Otherwise constructs from scope and name.
func (m GuardMeta) GuardID() string {
	if m.ID != "" {
		return m.ID
	}
	if m.Scope != "" {
		return m.Scope + "." + m.Name
	}
	return m.Name
}

// Tracer wraps OpenTelemetry tracing with guard-specific span management.
// A span covers the invocation of a fired scope-exit action; cleanup actions
// may block, so their spans carry real signal.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a firing scope-exit action.
	StartSpan(ctx context.Context, meta GuardMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error the action reported.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// newTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with guard metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta GuardMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("guard.id", meta.GuardID()),
		attribute.String("guard.name", meta.Name),
		attribute.Bool("guard.error", false), // Updated in EndSpan if the action failed
	}

	if meta.Scope != "" {
		attrs = append(attrs, attribute.String("guard.scope", meta.Scope))
	}
	if meta.Resource != "" {
		attrs = append(attrs, attribute.String("guard.resource", meta.Resource))
	}

	ctx, span := t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	return ctx, span
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("guard.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// newNoopTracer creates a no-op tracer.
func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta GuardMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
