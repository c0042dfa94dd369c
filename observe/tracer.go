package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// CheckMeta identifies a check execution for telemetry purposes.
type CheckMeta struct {
	Runner string // Runner name (may be empty for standalone checks)
	Name   string // Check name (required)
	Kind   string // Probe kind, e.g. "tcp" or "postgres" (optional)
}

// SpanName returns the deterministic span name for this check.
// Format: health.check.<runner>.<name> or health.check.<name>
func (m CheckMeta) SpanName() string {
	return "health.check." + m.CheckID()
}

// CheckID returns the fully qualified check identifier.
func (m CheckMeta) CheckID() string {
	if m.Runner != "" {
		return m.Runner + "." + m.Name
	}
	return m.Name
}

func (m CheckMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("check.id", m.CheckID()),
		attribute.String("check.name", m.Name),
	}
	if m.Runner != "" {
		attrs = append(attrs, attribute.String("runner.name", m.Runner))
	}
	if m.Kind != "" {
		attrs = append(attrs, attribute.String("check.kind", m.Kind))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with check-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a check execution.
	StartSpan(ctx context.Context, meta CheckMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording the reported status and any
	// execution failure.
	EndSpan(span trace.Span, outcome Outcome)
}

type tracerImpl struct {
	tracer trace.Tracer
}

func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with check metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta CheckMeta) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(meta.attributes()...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan ends the span. Execution failures mark the span as errored;
// an Unhealthy status reported by a check that ran fine does not.
func (t *tracerImpl) EndSpan(span trace.Span, outcome Outcome) {
	span.SetAttributes(
		attribute.String("check.status", outcome.Status),
		attribute.Bool("check.failed", outcome.Err != nil),
	)
	if outcome.Err != nil {
		span.SetStatus(codes.Error, outcome.Err.Error())
		span.RecordError(outcome.Err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta CheckMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, outcome Outcome) {
	span.End()
}
