package observe

import (
	"context"
	"time"
)

// Outcome summarizes one check execution for telemetry.
type Outcome struct {
	// Status is the reported health status name.
	Status string

	// Err is the execution failure (error, panic, timeout), if any.
	Err error
}

// ExecuteFunc is the signature of a single check execution.
type ExecuteFunc func(ctx context.Context, meta CheckMeta) Outcome

// Middleware wraps check execution with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe ExecuteFunc.
//   - Context: the wrapped function receives the span context.
//   - Errors: the outcome of the wrapped function is returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
// Nil components are replaced with no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Wrap wraps an ExecuteFunc with tracing, metrics, and logging.
func (m *Middleware) Wrap(fn ExecuteFunc) ExecuteFunc {
	return func(ctx context.Context, meta CheckMeta) Outcome {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		outcome := fn(ctx, meta)

		duration := time.Since(start)
		m.tracer.EndSpan(span, outcome)
		m.metrics.RecordCheck(ctx, meta, outcome, duration)

		checkLogger := m.logger.WithCheck(meta)
		fields := []Field{
			{Key: "status", Value: outcome.Status},
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		}
		if outcome.Err != nil {
			fields = append(fields, Field{Key: "error", Value: outcome.Err.Error()})
			checkLogger.Warn(ctx, "health check failed", fields...)
		} else {
			checkLogger.Debug(ctx, "health check completed", fields...)
		}

		return outcome
	}
}

// RecordRun records a completed runner invocation.
func (m *Middleware) RecordRun(ctx context.Context, runner string, status string, duration time.Duration) {
	m.metrics.RecordRun(ctx, runner, status, duration)
	m.logger.Debug(ctx, "health run completed",
		Field{Key: "runner.name", Value: runner},
		Field{Key: "status", Value: status},
		Field{Key: "duration_ms", Value: float64(duration.Milliseconds())},
	)
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(newTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
