// Package health aggregates named health checks and serves the result as JSON.
//
// # Core Concepts
//
// A Checker is a single named probe. It returns a Result carrying a Status
// (Healthy, Degraded or Unhealthy), an optional description and an ordered
// Data payload, or an error when the probe could not run.
//
// A Runner owns an ordered list of checkers and executes them either in
// parallel or sequentially. Every execution is isolated: an error, a panic or
// an exceeded deadline becomes an Unhealthy result with a description and
// never fails the run. The Report lists results in configured order and its
// Status is the most severe status among them.
//
// Serialize turns a Report into deterministic JSON. A Registry maps runner
// names to runners, with "" resolving to the default runner.
//
// # Basic Usage
//
//	db := health.NewCheckerFunc("db", func(ctx context.Context) (health.Result, error) {
//	    if err := pool.Ping(ctx); err != nil {
//	        return health.Result{}, err
//	    }
//	    return health.Healthy("connected"), nil
//	})
//
//	runner, err := health.NewRunner("default", health.RunnerConfig{
//	    Policy:  health.PolicyParallel,
//	    Timeout: 5 * time.Second,
//	}, db, health.WithTimeout(cacheChecker, time.Second))
//
//	report := runner.Run(ctx)
//	body, err := health.Serialize(report, false)
//
// # HTTP Endpoint
//
//	registry := health.NewRegistry()
//	_ = registry.Register("", runner)
//	registry.Seal()
//
//	mux := http.NewServeMux()
//	_, err = health.Mount(mux, registry, health.HandlerConfig{Route: "/health"})
//
// The handler answers 200 for Healthy and Degraded and 503 for Unhealthy
// unless HandlerConfig.StatusCodes says otherwise.
package health
