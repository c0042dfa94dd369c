package health

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/healthrun/observe"
)

// Policy selects how a Runner executes its checks.
type Policy int

const (
	// PolicyParallel runs every check on its own goroutine.
	PolicyParallel Policy = iota
	// PolicySequential runs checks one at a time in configured order.
	PolicySequential
)

func (p Policy) String() string {
	switch p {
	case PolicyParallel:
		return "parallel"
	case PolicySequential:
		return "sequential"
	default:
		return "unknown"
	}
}

// ParsePolicy parses "parallel" or "sequential". The empty string is parallel.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "parallel":
		return PolicyParallel, nil
	case "sequential":
		return PolicySequential, nil
	default:
		return PolicyParallel, fmt.Errorf("health: unknown policy %q", s)
	}
}

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	// Policy selects parallel or sequential execution.
	// Default: PolicyParallel
	Policy Policy

	// Timeout bounds a whole Run. Checks still running when it elapses are
	// reported as timed out.
	// Default: 0 (no bound beyond the caller's context)
	Timeout time.Duration

	// MaxConcurrency caps the number of checks running at once under
	// PolicyParallel.
	// Default: 0 (one goroutine per check)
	MaxConcurrency int

	// Observer receives a span, metrics and a log line per check.
	// Default: nil (no instrumentation)
	Observer observe.Observer
}

// Report is the aggregate outcome of one Runner invocation.
type Report struct {
	// Runner is the name of the runner that produced the report.
	Runner string

	// Status is the most severe status among Checks, Healthy if empty.
	Status Status

	// Checks holds one result per configured check, in configured order.
	Checks []Result
}

// NewReport builds a report whose status is derived from results.
func NewReport(runner string, results []Result) Report {
	return Report{
		Runner: runner,
		Status: OverallStatus(results),
		Checks: results,
	}
}

// OverallStatus returns the most severe status in results.
// Returns Healthy if results is empty.
func OverallStatus(results []Result) Status {
	status := StatusHealthy
	for _, r := range results {
		status = Worse(status, r.Status)
	}
	return status
}

// Runner executes an ordered set of checks and aggregates their results.
//
// A Runner is immutable after NewRunner and safe for concurrent Run calls.
type Runner struct {
	name       string
	config     RunnerConfig
	checks     []Checker
	middleware *observe.Middleware
}

// NewRunner creates a runner. Check names must be non-empty and unique.
func NewRunner(name string, config RunnerConfig, checkers ...Checker) (*Runner, error) {
	if config.MaxConcurrency < 0 {
		config.MaxConcurrency = 0
	}
	if config.Timeout < 0 {
		config.Timeout = 0
	}

	seen := make(map[string]struct{}, len(checkers))
	checks := make([]Checker, 0, len(checkers))
	for i, c := range checkers {
		if c == nil {
			return nil, fmt.Errorf("%w: check %d is nil", ErrInvalidCheck, i)
		}
		checkName := c.Name()
		if checkName == "" {
			return nil, fmt.Errorf("%w: check %d has no name", ErrInvalidCheck, i)
		}
		if _, dup := seen[checkName]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCheck, checkName)
		}
		seen[checkName] = struct{}{}
		checks = append(checks, c)
	}

	r := &Runner{
		name:   name,
		config: config,
		checks: checks,
	}

	if config.Observer != nil {
		mw, err := observe.MiddlewareFromObserver(config.Observer)
		if err != nil {
			return nil, fmt.Errorf("health: instrument runner %q: %w", name, err)
		}
		r.middleware = mw
	}

	return r, nil
}

// Name returns the runner name.
func (r *Runner) Name() string {
	return r.name
}

// Config returns the runner configuration.
func (r *Runner) Config() RunnerConfig {
	return r.config
}

// CheckNames returns the names of the configured checks in order.
func (r *Runner) CheckNames() []string {
	names := make([]string, len(r.checks))
	for i, c := range r.checks {
		names[i] = c.Name()
	}
	return names
}

// Run executes every configured check and aggregates the results.
//
// Run never fails: errors, panics and timeouts of individual checks are
// reported as Unhealthy results. The returned report lists results in
// configured order regardless of completion order.
func (r *Runner) Run(ctx context.Context) Report {
	start := time.Now()

	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	results := make([]Result, len(r.checks))

	if r.config.Policy == PolicyParallel && len(r.checks) > 1 {
		var g errgroup.Group
		if r.config.MaxConcurrency > 0 {
			g.SetLimit(r.config.MaxConcurrency)
		}
		for i, c := range r.checks {
			g.Go(func() error {
				results[i] = r.execute(ctx, c)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, c := range r.checks {
			results[i] = r.execute(ctx, c)
		}
	}

	report := NewReport(r.name, results)
	if r.middleware != nil {
		r.middleware.RecordRun(ctx, r.name, report.Status.String(), time.Since(start))
	}
	return report
}

func (r *Runner) execute(ctx context.Context, c Checker) Result {
	if r.middleware == nil {
		return runCheck(ctx, c)
	}

	var result Result
	meta := observe.CheckMeta{Runner: r.name, Name: c.Name(), Kind: kindOf(c)}
	r.middleware.Wrap(func(ctx context.Context, _ observe.CheckMeta) observe.Outcome {
		result = runCheck(ctx, c)
		return observe.Outcome{Status: result.Status.String(), Err: result.Err}
	})(ctx, meta)
	return result
}

// runCheck runs one check in isolation, converting errors, panics and
// deadlines into an Unhealthy result.
func runCheck(ctx context.Context, c Checker) Result {
	name := c.Name()
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return failedResult(name, contextFailure(err), err, 0)
	}

	if d := checkTimeout(c); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	// Buffered so an abandoned check never blocks on send.
	resultCh := make(chan Result, 1)
	go func() {
		resultCh <- invoke(ctx, c, name)
	}()

	select {
	case result := <-resultCh:
		result.Name = name
		result.Duration = time.Since(start)
		return result
	case <-ctx.Done():
		return failedResult(name, contextFailure(ctx.Err()), ctx.Err(), time.Since(start))
	}
}

func invoke(ctx context.Context, c Checker, name string) (result Result) {
	defer func() {
		if p := recover(); p != nil {
			result = failedResult(name, FailurePanic, fmt.Errorf("panic: %v", p), 0)
		}
	}()

	res, err := c.Check(ctx)
	if err != nil {
		failed := failedResult(name, FailureError, err, 0)
		failed.Data = res.Data
		return failed
	}
	if !res.Status.Valid() {
		return failedResult(name, FailureError, fmt.Errorf("invalid status %d", int(res.Status)), 0)
	}
	return res
}

func failedResult(name string, kind FailureKind, err error, d time.Duration) Result {
	failure := &CheckExecutionFailure{Check: name, Kind: kind, Err: err}
	return Result{
		Name:        name,
		Status:      StatusUnhealthy,
		Description: failure.Description(),
		Duration:    d,
		Err:         failure,
	}
}

func contextFailure(err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	return FailureCanceled
}

// kinder is implemented by checkers that report a probe kind.
type kinder interface {
	Kind() string
}

func kindOf(c Checker) string {
	if t, ok := c.(*timeoutChecker); ok {
		c = t.Checker
	}
	if k, ok := c.(kinder); ok {
		return k.Kind()
	}
	return ""
}

// Checker returns the runner as a single Checker, so runners can be nested.
// The check's data maps each inner check name to its status.
func (r *Runner) Checker() Checker {
	return &runnerChecker{runner: r}
}

type runnerChecker struct {
	runner *Runner
}

func (c *runnerChecker) Name() string {
	return c.runner.name
}

func (c *runnerChecker) Kind() string {
	return "runner"
}

func (c *runnerChecker) Check(ctx context.Context) (Result, error) {
	report := c.runner.Run(ctx)

	data := NewData()
	for _, res := range report.Checks {
		data.Set(res.Name, res.Status.String())
	}

	var description string
	switch report.Status {
	case StatusHealthy:
		description = "all checks passed"
	case StatusDegraded:
		description = "some checks degraded"
	case StatusUnhealthy:
		description = "some checks failed"
	}

	return Result{
		Status:      report.Status,
		Description: description,
		Data:        data,
	}, nil
}
