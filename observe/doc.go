// Package observe provides observability primitives for health check execution.
//
// It is a pure instrumentation library: it never runs checks itself. The
// health Runner wraps every check execution with a Middleware built from an
// Observer, producing one span, one set of metric points and one log line
// per check.
//
// # Metrics
//
//   - health.check.total        counter, attributes check.id, check.name, runner.name, check.status
//   - health.check.failures     counter, same attributes, incremented on execution failure
//   - health.check.duration_ms  histogram, same attributes
//   - health.run.total          counter, attributes runner.name, run.status
//
// # Logging
//
// Logger is backed by zerolog and writes one JSON object per line. Fields
// whose key looks like a credential (password, dsn, token, ...) are redacted.
package observe
