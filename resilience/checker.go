package resilience

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/healthrun/health"
)

// kinder mirrors the optional Kind method of health probes.
type kinder interface {
	Kind() string
}

func kindOf(c health.Checker) string {
	if k, ok := c.(kinder); ok {
		return k.Kind()
	}
	return ""
}

// errUnhealthy marks an attempt that ran but reported Unhealthy.
var errUnhealthy = errors.New("unhealthy")

// WithRetry returns a checker that re-runs c while it errors or reports
// Unhealthy. The final attempt's result is returned with an "attempts" entry
// added to its data when more than one attempt was made.
func WithRetry(c health.Checker, config RetryConfig) health.Checker {
	return &retryChecker{Checker: c, retry: NewRetry(config)}
}

type retryChecker struct {
	health.Checker
	retry *Retry
}

func (r *retryChecker) Kind() string {
	return kindOf(r.Checker)
}

func (r *retryChecker) Check(ctx context.Context) (health.Result, error) {
	var (
		result health.Result
		runErr error
	)

	// The outcome of the last attempt is reported even when ctx ends while
	// waiting for the next one.
	attempts, _ := r.retry.Execute(ctx, func(ctx context.Context) error {
		result, runErr = r.Checker.Check(ctx)
		if runErr != nil {
			return runErr
		}
		if result.Status == health.StatusUnhealthy {
			return errUnhealthy
		}
		return nil
	})

	if attempts > 1 {
		result.Data = withEntry(result.Data, "attempts", attempts)
	}
	return result, runErr
}

// WithCircuitBreaker returns a checker that stops calling c after
// MaxFailures consecutive failures (an error or an Unhealthy result). While
// the circuit is open the checker reports Unhealthy without probing.
func WithCircuitBreaker(c health.Checker, config CircuitBreakerConfig) health.Checker {
	return &circuitChecker{Checker: c, breaker: NewCircuitBreaker(config)}
}

type circuitChecker struct {
	health.Checker
	breaker *CircuitBreaker
}

func (c *circuitChecker) Kind() string {
	return kindOf(c.Checker)
}

// Breaker exposes the underlying circuit breaker.
func (c *circuitChecker) Breaker() *CircuitBreaker {
	return c.breaker
}

func (c *circuitChecker) Check(ctx context.Context) (health.Result, error) {
	if err := c.breaker.Allow(); err != nil {
		m := c.breaker.Metrics()
		desc := "circuit open"
		if m.LastError != "" {
			desc = fmt.Sprintf("circuit open: %s", m.LastError)
		}
		return health.Unhealthy(desc).WithData(
			health.NewData().
				Set("circuit", m.State.String()).
				Set("failures", m.Failures).
				Set("last_failure", m.LastFailure),
		), nil
	}

	result, err := c.Checker.Check(ctx)
	switch {
	case err != nil:
		c.breaker.Record(err.Error())
	case result.Status == health.StatusUnhealthy:
		failure := result.Description
		if failure == "" {
			failure = "unhealthy"
		}
		c.breaker.Record(failure)
	default:
		c.breaker.Record("")
	}
	return result, err
}

// withEntry returns a copy of d with key set, leaving d untouched.
func withEntry(d *health.Data, key string, value any) *health.Data {
	out := health.NewData()
	for _, k := range d.Keys() {
		v, _ := d.Get(k)
		out.Set(k, v)
	}
	return out.Set(key, value)
}
