package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records execution metrics for checks and runs.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCheck records one check execution.
	RecordCheck(ctx context.Context, meta CheckMeta, outcome Outcome, duration time.Duration)

	// RecordRun records one complete runner invocation.
	RecordRun(ctx context.Context, runner string, status string, duration time.Duration)
}

type metricsImpl struct {
	checkCount    metric.Int64Counter
	failureCount  metric.Int64Counter
	durationHist  metric.Float64Histogram
	runCount      metric.Int64Counter
	runDurationMs metric.Float64Histogram
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	checkCount, err := meter.Int64Counter(
		"health.check.total",
		metric.WithDescription("Total number of health check executions"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	failureCount, err := meter.Int64Counter(
		"health.check.failures",
		metric.WithDescription("Health checks that errored, panicked or timed out"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"health.check.duration_ms",
		metric.WithDescription("Health check duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	runCount, err := meter.Int64Counter(
		"health.run.total",
		metric.WithDescription("Total number of runner invocations"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	runDurationMs, err := meter.Float64Histogram(
		"health.run.duration_ms",
		metric.WithDescription("Runner invocation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		checkCount:    checkCount,
		failureCount:  failureCount,
		durationHist:  durationHist,
		runCount:      runCount,
		runDurationMs: runDurationMs,
	}, nil
}

// RecordCheck records metrics for a check execution.
func (m *metricsImpl) RecordCheck(ctx context.Context, meta CheckMeta, outcome Outcome, duration time.Duration) {
	attrs := append(meta.attributes(), attribute.String("check.status", outcome.Status))
	opt := metric.WithAttributes(attrs...)

	m.checkCount.Add(ctx, 1, opt)
	if outcome.Err != nil {
		m.failureCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordRun records metrics for a runner invocation.
func (m *metricsImpl) RecordRun(ctx context.Context, runner string, status string, duration time.Duration) {
	opt := metric.WithAttributes(
		attribute.String("runner.name", runner),
		attribute.String("run.status", status),
	)
	m.runCount.Add(ctx, 1, opt)
	m.runDurationMs.Record(ctx, float64(duration.Milliseconds()), opt)
}

type noopMetrics struct{}

func (noopMetrics) RecordCheck(ctx context.Context, meta CheckMeta, outcome Outcome, duration time.Duration) {
}

func (noopMetrics) RecordRun(ctx context.Context, runner string, status string, duration time.Duration) {
}
