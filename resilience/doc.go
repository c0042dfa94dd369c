// Package resilience guards health probes against flapping and overload.
//
// Two wrappers are provided, both returning a health.Checker that keeps the
// wrapped check's name and kind:
//
//   - WithRetry re-runs a probe that errored or reported Unhealthy, with
//     exponential, linear or constant backoff. Transient blips then do not
//     flip the aggregate status.
//
//   - WithCircuitBreaker stops probing a dependency after repeated failures
//     and reports it Unhealthy from memory until ResetTimeout elapses, then
//     lets a single probe through to test recovery.
//
// # Usage
//
//	db := checks.NewPostgres(checks.PostgresConfig{DSN: dsn})
//
//	guarded := resilience.WithCircuitBreaker(
//	    resilience.WithRetry(db, resilience.RetryConfig{
//	        MaxAttempts:  3,
//	        InitialDelay: 100 * time.Millisecond,
//	    }),
//	    resilience.CircuitBreakerConfig{MaxFailures: 5, ResetTimeout: time.Minute},
//	)
//
// Retry and CircuitBreaker are also usable on plain func(context.Context) error
// operations through their Execute methods.
package resilience
