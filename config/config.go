package config

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonwraymond/healthrun/health"
	"github.com/jonwraymond/healthrun/observe"
	"github.com/jonwraymond/healthrun/resilience"
)

// Config is the complete healthrun configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server" json:"server"`
	Logging   LoggingConfig   `koanf:"logging" json:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry" json:"telemetry"`
	Secrets   SecretsConfig   `koanf:"secrets" json:"secrets"`
	Runners   []RunnerConfig  `koanf:"runners" json:"runners,omitempty"`
}

// ServerConfig configures the HTTP listener and the health endpoint.
type ServerConfig struct {
	Address         string        `koanf:"address" json:"address,omitempty"`
	Route           string        `koanf:"route" json:"route,omitempty"`
	LivenessRoute   string        `koanf:"liveness_route" json:"liveness_route,omitempty"`
	MetricsRoute    string        `koanf:"metrics_route" json:"metrics_route,omitempty"`
	Runner          string        `koanf:"runner" json:"runner,omitempty"`
	Indent          bool          `koanf:"indent" json:"indent,omitempty"`
	Coalesce        bool          `koanf:"coalesce" json:"coalesce,omitempty"`
	CacheTTL        time.Duration `koanf:"cache_ttl" json:"cache_ttl,omitempty"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout,omitempty"`
	StatusCodes     StatusCodes   `koanf:"status_codes" json:"status_codes"`
}

// StatusCodes maps report statuses to HTTP response codes.
type StatusCodes struct {
	Healthy   int `koanf:"healthy" json:"healthy,omitempty"`
	Degraded  int `koanf:"degraded" json:"degraded,omitempty"`
	Unhealthy int `koanf:"unhealthy" json:"unhealthy,omitempty"`
}

// LoggingConfig configures the zerolog logger.
type LoggingConfig struct {
	Level  string `koanf:"level" json:"level,omitempty"`
	Pretty bool   `koanf:"pretty" json:"pretty,omitempty"`
}

// TelemetryConfig configures tracing and metrics.
type TelemetryConfig struct {
	ServiceName string        `koanf:"service_name" json:"service_name,omitempty"`
	Tracing     TracingConfig `koanf:"tracing" json:"tracing"`
	Metrics     MetricsConfig `koanf:"metrics" json:"metrics"`
}

// TracingConfig configures span export. SamplePct is a fraction from 0 to 1.
type TracingConfig struct {
	Enabled   bool    `koanf:"enabled" json:"enabled,omitempty"`
	Exporter  string  `koanf:"exporter" json:"exporter,omitempty"`
	SamplePct float64 `koanf:"sample_pct" json:"sample_pct,omitempty"`
}

// MetricsConfig configures metric export.
type MetricsConfig struct {
	Enabled  bool   `koanf:"enabled" json:"enabled,omitempty"`
	Exporter string `koanf:"exporter" json:"exporter,omitempty"`
}

// SecretsConfig configures secret providers by name. Strict rejects empty
// secrets.
type SecretsConfig struct {
	Strict    bool                      `koanf:"strict" json:"strict,omitempty"`
	Providers map[string]map[string]any `koanf:"providers" json:"providers,omitempty"`
}

// RunnerConfig declares one named runner and its checks.
type RunnerConfig struct {
	Name           string        `koanf:"name" json:"name"`
	Policy         string        `koanf:"policy" json:"policy,omitempty"`
	Timeout        time.Duration `koanf:"timeout" json:"timeout,omitempty"`
	MaxConcurrency int           `koanf:"max_concurrency" json:"max_concurrency,omitempty"`
	Checks         []CheckConfig `koanf:"checks" json:"checks,omitempty"`
}

// CheckConfig declares one check. Options are decoded by the factory
// registered for Kind.
type CheckConfig struct {
	Name    string         `koanf:"name" json:"name"`
	Kind    string         `koanf:"kind" json:"kind"`
	Timeout time.Duration  `koanf:"timeout" json:"timeout,omitempty"`
	Retry   *RetryConfig   `koanf:"retry" json:"retry,omitempty"`
	Circuit *CircuitConfig `koanf:"circuit" json:"circuit,omitempty"`
	Options map[string]any `koanf:"options" json:"options,omitempty"`
}

// RetryConfig wraps a check with retries.
type RetryConfig struct {
	MaxAttempts  int           `koanf:"max_attempts" json:"max_attempts,omitempty"`
	InitialDelay time.Duration `koanf:"initial_delay" json:"initial_delay,omitempty"`
	MaxDelay     time.Duration `koanf:"max_delay" json:"max_delay,omitempty"`
	Backoff      string        `koanf:"backoff" json:"backoff,omitempty"`
	Jitter       bool          `koanf:"jitter" json:"jitter,omitempty"`
}

// CircuitConfig wraps a check with a circuit breaker.
type CircuitConfig struct {
	MaxFailures  int           `koanf:"max_failures" json:"max_failures,omitempty"`
	ResetTimeout time.Duration `koanf:"reset_timeout" json:"reset_timeout,omitempty"`
}

// DefaultConfig returns the configuration used before any source loads.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			Route:           health.DefaultRoute,
			LivenessRoute:   "/healthz",
			MetricsRoute:    "/metrics",
			ShutdownTimeout: 10 * time.Second,
			StatusCodes: StatusCodes{
				Healthy:   http.StatusOK,
				Degraded:  http.StatusOK,
				Unhealthy: http.StatusServiceUnavailable,
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "healthrun",
			Tracing: TracingConfig{
				Exporter:  "none",
				SamplePct: 1.0,
			},
			Metrics: MetricsConfig{
				Exporter: "prometheus",
			},
		},
	}
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate reports every problem found, joined with errors.Join. kinds, if
// non-nil, is used to reject unknown check kinds.
func (c Config) Validate(kinds *Kinds) error {
	var errs []error
	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address cannot be empty"))
	}
	if c.Server.CacheTTL < 0 {
		errs = append(errs, errors.New("server.cache_ttl cannot be negative"))
	}
	codes := c.Server.StatusCodes
	for _, sc := range []struct {
		name string
		code int
	}{
		{"healthy", codes.Healthy},
		{"degraded", codes.Degraded},
		{"unhealthy", codes.Unhealthy},
	} {
		if sc.code < 100 || sc.code > 599 {
			errs = append(errs, fmt.Errorf("server.status_codes.%s: invalid HTTP status %d", sc.name, sc.code))
		}
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("logging.level: invalid level %q", c.Logging.Level))
	}
	if c.Telemetry.ServiceName == "" {
		errs = append(errs, errors.New("telemetry.service_name cannot be empty"))
	}

	runners := make(map[string]bool, len(c.Runners))
	for i, r := range c.Runners {
		path := fmt.Sprintf("runners[%d]", i)
		if r.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name cannot be empty", path))
		} else if runners[r.Name] {
			errs = append(errs, fmt.Errorf("%s.name: duplicate runner %q", path, r.Name))
		}
		runners[r.Name] = true
		errs = append(errs, r.validate(path, kinds)...)
	}

	if len(c.Runners) > 0 {
		target := c.Server.Runner
		if target == "" {
			target = health.DefaultRunnerName
		}
		if !runners[target] {
			errs = append(errs, fmt.Errorf("server.runner: no runner named %q", target))
		}
	}

	return errors.Join(errs...)
}

func (r RunnerConfig) validate(path string, kinds *Kinds) []error {
	var errs []error
	if _, err := health.ParsePolicy(r.Policy); err != nil {
		errs = append(errs, fmt.Errorf("%s.policy: %w", path, err))
	}
	if r.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%s.timeout cannot be negative", path))
	}
	if r.MaxConcurrency < 0 {
		errs = append(errs, fmt.Errorf("%s.max_concurrency cannot be negative", path))
	}

	names := make(map[string]bool, len(r.Checks))
	for i, c := range r.Checks {
		cpath := fmt.Sprintf("%s.checks[%d]", path, i)
		switch {
		case c.Name == "":
			errs = append(errs, fmt.Errorf("%s.name cannot be empty", cpath))
		case names[c.Name]:
			errs = append(errs, fmt.Errorf("%s.name: duplicate check %q", cpath, c.Name))
		}
		names[c.Name] = true

		if c.Kind == "" {
			errs = append(errs, fmt.Errorf("%s.kind cannot be empty", cpath))
		} else if kinds != nil && !kinds.Has(c.Kind) {
			errs = append(errs, fmt.Errorf("%s.kind: unknown kind %q", cpath, c.Kind))
		}
		if c.Timeout < 0 {
			errs = append(errs, fmt.Errorf("%s.timeout cannot be negative", cpath))
		}
	}
	return errs
}

// StatusCodeMap converts the configured codes for health.HandlerConfig.
func (s StatusCodes) StatusCodeMap() map[health.Status]int {
	return map[health.Status]int{
		health.StatusHealthy:   s.Healthy,
		health.StatusDegraded:  s.Degraded,
		health.StatusUnhealthy: s.Unhealthy,
	}
}

// HandlerConfig returns the health endpoint configuration.
func (s ServerConfig) HandlerConfig(logger observe.Logger) health.HandlerConfig {
	return health.HandlerConfig{
		RunnerName:  s.Runner,
		Route:       s.Route,
		Indent:      s.Indent,
		StatusCodes: s.StatusCodes.StatusCodeMap(),
		Coalesce:    s.Coalesce,
		CacheTTL:    s.CacheTTL,
		Logger:      logger,
	}
}

// ObserveConfig returns the telemetry configuration. Logs go to w.
func (c Config) ObserveConfig(version string, w io.Writer) observe.Config {
	return observe.Config{
		ServiceName: c.Telemetry.ServiceName,
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   c.Telemetry.Tracing.Enabled,
			Exporter:  c.Telemetry.Tracing.Exporter,
			SamplePct: c.Telemetry.Tracing.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Telemetry.Metrics.Enabled,
			Exporter: c.Telemetry.Metrics.Exporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   strings.ToLower(c.Logging.Level),
			Pretty:  c.Logging.Pretty,
			Writer:  w,
		},
	}
}

func (r RetryConfig) resilience() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:  r.MaxAttempts,
		InitialDelay: r.InitialDelay,
		MaxDelay:     r.MaxDelay,
		Strategy:     resilience.ParseBackoff(r.Backoff),
		Jitter:       r.Jitter,
	}
}

func (c CircuitConfig) resilience() resilience.CircuitBreakerConfig {
	return resilience.CircuitBreakerConfig{
		MaxFailures:  c.MaxFailures,
		ResetTimeout: c.ResetTimeout,
	}
}
