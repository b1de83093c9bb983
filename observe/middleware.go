package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jonwraymond/scopeops/guard"
)

// Middleware turns guard lifecycle events into telemetry (tracing, metrics,
// logging). It attaches to a guard through the hook surface of the guard
// package:
//
//	mw := observe.NewMiddleware(tracer, metrics, logger)
//	meta := observe.GuardMeta{Scope: "session", Name: "close"}
//	g := guard.New(release, guard.WithHook(mw.Hook(meta)))
//	defer g.Exit()
//
// Contract:
//   - Concurrency: Hook() returns a hook safe for use from the goroutine
//     that owns the guard; distinct guards may share one Middleware.
//   - Errors: telemetry is best-effort; the hook never panics and never
//     alters guard behavior.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Hook returns a guard.Hook that records every lifecycle event of the guard
// binding described by meta. Fired actions additionally get a span covering
// the action's run time.
func (m *Middleware) Hook(meta GuardMeta) guard.Hook {
	log := m.logger.WithGuard(meta)
	return func(event guard.Event) {
		ctx := context.Background()

		if event.Outcome == guard.OutcomeFired {
			// The action already ran; the span records its duration as an
			// attribute rather than through its start/end timestamps.
			_, span := m.tracer.StartSpan(ctx, meta)
			span.SetAttributes(attribute.Float64(
				"guard.action.duration_ms",
				float64(event.Duration.Microseconds())/1000.0,
			))
			m.tracer.EndSpan(span, event.Err)
		}

		m.metrics.RecordExit(ctx, meta, event)

		fields := []Field{
			{Key: "outcome", Value: event.Outcome.String()},
			{Key: "policy", Value: event.Policy.String()},
		}
		if event.Outcome == guard.OutcomeFired {
			fields = append(fields, Field{Key: "duration_ms", Value: event.Duration.Milliseconds()})
		}

		switch {
		case event.Err != nil:
			// The process is about to terminate; this is the last word.
			log.Error(ctx, "scope-exit action failed", append(fields,
				Field{Key: "error", Value: event.Err.Error()})...)
		default:
			log.Debug(ctx, "guard "+event.Outcome.String(), fields...)
		}
	}
}
