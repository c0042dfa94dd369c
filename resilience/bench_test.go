package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/jonwraymond/healthrun/health"
)

func healthyChecker() health.Checker {
	return health.NewCheckerFunc("db", func(ctx context.Context) (health.Result, error) {
		return health.Healthy("ok"), nil
	})
}

// BenchmarkCircuitBreaker_Execute_Closed measures the closed-state path.
func BenchmarkCircuitBreaker_Execute_Closed(b *testing.B) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 100, ResetTimeout: time.Minute})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cb.Execute(ctx, func(ctx context.Context) error { return nil })
	}
}

// BenchmarkCircuitBreaker_AllowOpen measures rejection while open.
func BenchmarkCircuitBreaker_AllowOpen(b *testing.B) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Hour})
	cb.Record("refused")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cb.Allow()
	}
}

// BenchmarkRetry_Execute_FirstAttempt measures retry overhead on success.
func BenchmarkRetry_Execute_FirstAttempt(b *testing.B) {
	r := NewRetry(RetryConfig{MaxAttempts: 3})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.Execute(ctx, func(ctx context.Context) error { return nil })
	}
}

// BenchmarkWithRetry_Check measures the checker wrapper on a healthy check.
func BenchmarkWithRetry_Check(b *testing.B) {
	c := WithRetry(healthyChecker(), RetryConfig{MaxAttempts: 3})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Check(ctx)
	}
}

// BenchmarkWithCircuitBreaker_Check measures the checker wrapper while closed.
func BenchmarkWithCircuitBreaker_Check(b *testing.B) {
	c := WithCircuitBreaker(healthyChecker(), CircuitBreakerConfig{MaxFailures: 5, ResetTimeout: time.Minute})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Check(ctx)
	}
}
