package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

const sampleJSON = `{
  "server": {"address": ":9090", "cache_ttl": "3s", "status_codes": {"degraded": 429}},
  "logging": {"level": "warn"},
  "runners": [
    {"name": "default", "policy": "sequential", "timeout": "5s", "checks": [
      {"name": "zeta", "kind": "static"},
      {"name": "alpha", "kind": "tcp", "timeout": "2s", "options": {"address": "localhost:5432"}},
      {"name": "mid", "kind": "http", "retry": {"max_attempts": 2, "initial_delay": "10ms"},
       "options": {"url": "http://localhost/health", "headers": {"Authorization": "Bearer x"}}}
    ]},
    {"name": "deps", "max_concurrency": 2, "checks": [
      {"name": "cache", "kind": "redis", "circuit": {"max_failures": 3, "reset_timeout": "1m"},
       "options": {"addr": "localhost:6379"}}
    ]}
  ]
}`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "healthrun.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_JSONFile(t *testing.T) {
	cfg, err := Load(DefaultKinds(), NewJSONFileSource(writeConfig(t, sampleJSON)))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Address != ":9090" || cfg.Server.CacheTTL != 3*time.Second {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.StatusCodes.Degraded != 429 || cfg.Server.StatusCodes.Unhealthy != 503 {
		t.Errorf("status codes = %+v, want file value merged over defaults", cfg.Server.StatusCodes)
	}
	if cfg.Server.Route != "/health" {
		t.Errorf("route = %q, want default", cfg.Server.Route)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}

	if len(cfg.Runners) != 2 || cfg.Runners[0].Name != "default" || cfg.Runners[1].Name != "deps" {
		t.Fatalf("runners = %+v", cfg.Runners)
	}
	var names []string
	for _, c := range cfg.Runners[0].Checks {
		names = append(names, c.Name)
	}
	if got := strings.Join(names, ","); got != "zeta,alpha,mid" {
		t.Errorf("check order = %q, want configured order", got)
	}

	def := cfg.Runners[0]
	if def.Policy != "sequential" || def.Timeout != 5*time.Second {
		t.Errorf("runner = %+v", def)
	}
	if def.Checks[1].Timeout != 2*time.Second || def.Checks[1].Options["address"] != "localhost:5432" {
		t.Errorf("tcp check = %+v", def.Checks[1])
	}
	if r := def.Checks[2].Retry; r == nil || r.MaxAttempts != 2 || r.InitialDelay != 10*time.Millisecond {
		t.Errorf("retry = %+v", r)
	}
	if c := cfg.Runners[1].Checks[0].Circuit; c == nil || c.MaxFailures != 3 || c.ResetTimeout != time.Minute {
		t.Errorf("circuit = %+v", c)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HEALTHRUN_SERVER__ADDRESS", ":7070")
	t.Setenv("HEALTHRUN_SERVER__CACHE_TTL", "750ms")
	t.Setenv("HEALTHRUN_SERVER__INDENT", "true")
	t.Setenv("HEALTHRUN_LOGGING__LEVEL", "debug")

	cfg, err := Load(DefaultKinds(), NewJSONFileSource(writeConfig(t, sampleJSON)), NewEnvVarSource())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Address != ":7070" || cfg.Server.CacheTTL != 750*time.Millisecond || !cfg.Server.Indent {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
}

func TestLoad_FlagOverrides(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	fs.String("server.address", ":8080", "")
	fs.String("logging.level", "info", "")
	fs.Duration("server.cache-ttl", 0, "")
	if err := fs.Parse([]string{"--config=x.json", "--server.address=:6060", "--server.cache-ttl=4s"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(DefaultKinds(),
		NewJSONFileSource(writeConfig(t, sampleJSON)),
		NewPFlagSource(fs, "config"),
	)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Address != ":6060" || cfg.Server.CacheTTL != 4*time.Second {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level = %q, unchanged flag must not override the file", cfg.Logging.Level)
	}
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(DefaultKinds(), NewJSONBytesSource([]byte(`{"runners":[{"name":"default","checks":[{"name":"x","kind":"mongo"}]}]}`)))
	if err == nil || !strings.Contains(err.Error(), `unknown kind "mongo"`) {
		t.Errorf("Load() error = %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(nil, NewJSONFileSource(filepath.Join(t.TempDir(), "missing.json"))); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"HEALTHRUN_SERVER__ADDRESS":                "server.address",
		"HEALTHRUN_SERVER__STATUS_CODES__DEGRADED": "server.status_codes.degraded",
		"HEALTHRUN_TELEMETRY__SERVICE_NAME":        "telemetry.service_name",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}
