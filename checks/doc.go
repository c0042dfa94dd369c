// Package checks provides health.Checker implementations for common
// dependencies.
//
// Each probe reports its dependency kind through Kind, which the observe
// package attaches to spans and log lines:
//
//   - TCP dials an address
//   - HTTP issues a request and validates status, body and JSON fields
//   - Redis pings a server through go-redis
//   - Postgres connects through pgx and runs a query
//   - Disk compares filesystem usage against thresholds
//   - Static reports a fixed result
//
// Probes return an error when the dependency cannot be reached. The Runner
// turns that error into an Unhealthy result whose description is the error
// text. A probe that reaches its dependency but finds it impaired returns a
// Degraded or Unhealthy result with a nil error.
//
// Latency-sensitive probes accept a SlowThreshold. A successful probe slower
// than the threshold reports Degraded.
package checks
