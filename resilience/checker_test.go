package resilience

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonwraymond/healthrun/health"
)

type scriptedChecker struct {
	name    string
	kind    string
	results []health.Result
	errs    []error
	calls   int
}

func (s *scriptedChecker) Name() string { return s.name }
func (s *scriptedChecker) Kind() string { return s.kind }

func (s *scriptedChecker) Check(ctx context.Context) (health.Result, error) {
	i := s.calls
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.calls++
	return s.results[i], s.errs[i]
}

func script(steps ...any) *scriptedChecker {
	s := &scriptedChecker{name: "db", kind: "postgres"}
	for _, step := range steps {
		switch v := step.(type) {
		case error:
			s.results = append(s.results, health.Result{})
			s.errs = append(s.errs, v)
		case health.Result:
			s.results = append(s.results, v)
			s.errs = append(s.errs, nil)
		}
	}
	return s
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, Strategy: BackoffConstant}
}

func TestWithRetry_ForwardsIdentity(t *testing.T) {
	c := WithRetry(script(health.Healthy("ok")), fastRetry())

	if c.Name() != "db" {
		t.Errorf("Name() = %q, want db", c.Name())
	}
	if k, ok := c.(interface{ Kind() string }); !ok || k.Kind() != "postgres" {
		t.Error("Kind() should be forwarded")
	}
}

func TestWithRetry_RecoversAfterError(t *testing.T) {
	inner := script(errors.New("refused"), health.Healthy("ok"))
	c := WithRetry(inner, fastRetry())

	result, err := c.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if result.Status != health.StatusHealthy {
		t.Errorf("Status = %v, want Healthy", result.Status)
	}
	if v, _ := result.Data.Get("attempts"); v != 2 {
		t.Errorf("attempts = %v, want 2", v)
	}
}

func TestWithRetry_RetriesUnhealthy(t *testing.T) {
	inner := script(
		health.Unhealthy("lagging"),
		health.Unhealthy("lagging"),
		health.Degraded("catching up").WithData(health.NewData().Set("lag", 3)),
	)
	c := WithRetry(inner, fastRetry())

	result, err := c.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if result.Status != health.StatusDegraded {
		t.Errorf("Status = %v, want Degraded", result.Status)
	}
	if got := strings.Join(result.Data.Keys(), ","); got != "lag,attempts" {
		t.Errorf("Data keys = %q, want lag,attempts", got)
	}
}

func TestWithRetry_ReturnsLastFailure(t *testing.T) {
	last := errors.New("still refused")
	inner := script(errors.New("refused"), errors.New("refused"), last)
	c := WithRetry(inner, fastRetry())

	_, err := c.Check(context.Background())
	if !errors.Is(err, last) {
		t.Errorf("Check() error = %v, want %v", err, last)
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestWithRetry_SingleAttemptLeavesDataAlone(t *testing.T) {
	data := health.NewData().Set("open", 1)
	c := WithRetry(script(health.Healthy("ok").WithData(data)), fastRetry())

	result, _ := c.Check(context.Background())
	if result.Data.Len() != 1 {
		t.Errorf("Data len = %d, want 1", result.Data.Len())
	}
}

func TestWithCircuitBreaker_OpensAndShortCircuits(t *testing.T) {
	inner := script(errors.New("refused"))
	c := WithCircuitBreaker(inner, CircuitBreakerConfig{MaxFailures: 2, ResetTimeout: time.Hour})

	for i := 0; i < 2; i++ {
		if _, err := c.Check(context.Background()); err == nil {
			t.Fatalf("attempt %d: expected error", i)
		}
	}

	result, err := c.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v, want nil while open", err)
	}
	if inner.calls != 2 {
		t.Errorf("calls = %d, want 2", inner.calls)
	}
	if result.Status != health.StatusUnhealthy {
		t.Errorf("Status = %v, want Unhealthy", result.Status)
	}
	if result.Description != "circuit open: refused" {
		t.Errorf("Description = %q", result.Description)
	}
	if v, _ := result.Data.Get("circuit"); v != "open" {
		t.Errorf("circuit = %v, want open", v)
	}
}

func TestWithCircuitBreaker_UnhealthyCountsAsFailure(t *testing.T) {
	inner := script(health.Unhealthy("disk full"))
	c := WithCircuitBreaker(inner, CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Hour})

	_, _ = c.Check(context.Background())
	result, _ := c.Check(context.Background())

	if result.Description != "circuit open: disk full" {
		t.Errorf("Description = %q", result.Description)
	}
	if cc, ok := c.(*circuitChecker); !ok || cc.Breaker().State() != StateOpen {
		t.Error("breaker should be open")
	}
}

func TestWithCircuitBreaker_DegradedIsSuccess(t *testing.T) {
	inner := script(health.Degraded("slow"))
	c := WithCircuitBreaker(inner, CircuitBreakerConfig{MaxFailures: 1})

	for i := 0; i < 3; i++ {
		result, _ := c.Check(context.Background())
		if result.Status != health.StatusDegraded {
			t.Fatalf("attempt %d: Status = %v, want Degraded", i, result.Status)
		}
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestWrappers_InRunner(t *testing.T) {
	inner := script(errors.New("refused"), health.Healthy("ok"))
	guarded := WithCircuitBreaker(WithRetry(inner, fastRetry()), CircuitBreakerConfig{})

	runner, err := health.NewRunner("default", health.RunnerConfig{}, guarded)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	report := runner.Run(context.Background())
	if report.Status != health.StatusHealthy {
		t.Errorf("Status = %v, want Healthy", report.Status)
	}
	if report.Checks[0].Name != "db" {
		t.Errorf("Name = %q, want db", report.Checks[0].Name)
	}
}
