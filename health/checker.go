package health

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Status represents the health status of a component.
//
// Statuses are totally ordered by severity: Healthy < Degraded < Unhealthy.
type Status int

const (
	// StatusHealthy indicates the component is functioning normally.
	StatusHealthy Status = iota
	// StatusDegraded indicates the component is functioning but with issues.
	StatusDegraded
	// StatusUnhealthy indicates the component is not functioning properly.
	StatusUnhealthy
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "Healthy"
	case StatusDegraded:
		return "Degraded"
	case StatusUnhealthy:
		return "Unhealthy"
	default:
		return "Unknown"
	}
}

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	return s >= StatusHealthy && s <= StatusUnhealthy
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("health: invalid status %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus parses a status name case-insensitively.
func ParseStatus(name string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "healthy":
		return StatusHealthy, nil
	case "degraded":
		return StatusDegraded, nil
	case "unhealthy":
		return StatusUnhealthy, nil
	default:
		return StatusUnhealthy, fmt.Errorf("health: unknown status %q", name)
	}
}

// Worse returns the more severe of a and b.
func Worse(a, b Status) Status {
	if b > a {
		return b
	}
	return a
}

// Result contains the outcome of a single health check.
type Result struct {
	// Name is the name of the check that produced the result. The Runner
	// sets it from Checker.Name.
	Name string

	// Status is the health status.
	Status Status

	// Description provides additional context about the status.
	Description string

	// Data contains an ordered diagnostic payload.
	Data *Data

	// Duration is how long the check took. Not serialized.
	Duration time.Duration

	// Err is the execution failure, if the check could not run to
	// completion. Not serialized.
	Err error
}

// Healthy creates a healthy result.
func Healthy(description string) Result {
	return Result{Status: StatusHealthy, Description: description}
}

// Degraded creates a degraded result.
func Degraded(description string) Result {
	return Result{Status: StatusDegraded, Description: description}
}

// Unhealthy creates an unhealthy result.
func Unhealthy(description string) Result {
	return Result{Status: StatusUnhealthy, Description: description}
}

// WithData attaches a diagnostic payload to a result.
func (r Result) WithData(data *Data) Result {
	r.Data = data
	return r
}

// Checker is the interface for health checks.
//
// Check returns a non-nil error when the probe could not be executed at all
// (unreachable dependency, bad response). The Runner converts such errors,
// panics and timeouts into an Unhealthy result; they never fail a run.
type Checker interface {
	// Name returns the name of this checker.
	Name() string

	// Check performs the health check.
	Check(ctx context.Context) (Result, error)
}

// CheckerFunc is an adapter to allow ordinary functions to be used as Checkers.
type CheckerFunc struct {
	name string
	fn   func(context.Context) (Result, error)
}

// NewCheckerFunc creates a new CheckerFunc.
func NewCheckerFunc(name string, fn func(context.Context) (Result, error)) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

// Name returns the name of this checker.
func (f *CheckerFunc) Name() string {
	return f.name
}

// Check performs the health check.
func (f *CheckerFunc) Check(ctx context.Context) (Result, error) {
	return f.fn(ctx)
}

// timeouter is implemented by checkers that carry their own deadline.
type timeouter interface {
	Timeout() time.Duration
}

type timeoutChecker struct {
	Checker
	timeout time.Duration
}

func (t *timeoutChecker) Timeout() time.Duration {
	return t.timeout
}

// WithTimeout returns a checker whose executions the Runner bounds by d.
// A check exceeding d is reported Unhealthy with the description "timed out".
// A non-positive d returns c unchanged.
func WithTimeout(c Checker, d time.Duration) Checker {
	if d <= 0 {
		return c
	}
	return &timeoutChecker{Checker: c, timeout: d}
}

func checkTimeout(c Checker) time.Duration {
	if t, ok := c.(timeouter); ok {
		return t.Timeout()
	}
	return 0
}
