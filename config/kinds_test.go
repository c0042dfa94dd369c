package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jonwraymond/healthrun/checks"
	"github.com/jonwraymond/healthrun/health"
)

func TestCheckSpec_Decode(t *testing.T) {
	spec := CheckSpec{Options: map[string]any{
		"url":             "http://localhost/health",
		"expected_status": float64(204),
		"slow_threshold":  "250ms",
		"insecure":        "true",
		"headers":         map[string]any{"X-Probe": "healthrun"},
	}}

	var opts httpOptions
	if err := spec.Decode(&opts); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if opts.URL != "http://localhost/health" || opts.ExpectedStatus != 204 {
		t.Errorf("opts = %+v", opts)
	}
	if opts.SlowThreshold != 250*time.Millisecond || !opts.Insecure {
		t.Errorf("weakly typed fields not decoded: %+v", opts)
	}
	if opts.Headers["X-Probe"] != "healthrun" {
		t.Errorf("Headers = %v", opts.Headers)
	}
}

func TestCheckSpec_DecodeNilOptions(t *testing.T) {
	var opts staticOptions
	if err := (CheckSpec{}).Decode(&opts); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if opts != (staticOptions{}) {
		t.Errorf("opts = %+v, want zero", opts)
	}
}

func TestKinds_RegisterAndList(t *testing.T) {
	k := NewKinds()
	factory := func(context.Context, CheckSpec) (health.Checker, error) { return nil, nil }

	if err := k.Register("custom", factory); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := k.Register("custom", factory); err == nil {
		t.Error("expected duplicate registration error")
	}
	if err := k.Register(" ", factory); err == nil {
		t.Error("expected error for blank kind")
	}
	if err := k.Register("nil", nil); err == nil {
		t.Error("expected error for nil factory")
	}
	if !k.Has("custom") || k.Has("other") {
		t.Error("Has() mismatch")
	}

	want := "disk,http,memory,postgres,redis,runner,static,tcp"
	if got := strings.Join(DefaultKinds().List(), ","); got != want {
		t.Errorf("DefaultKinds().List() = %q, want %q", got, want)
	}
}

func TestKinds_CreateUnknown(t *testing.T) {
	_, err := NewKinds().Create(context.Background(), CheckSpec{Name: "x", Kind: "mongo"})
	if err == nil || !strings.Contains(err.Error(), `"mongo" is not registered`) {
		t.Errorf("Create() error = %v", err)
	}
}

func TestDefaultKinds_Create(t *testing.T) {
	tests := []struct {
		kind    string
		options map[string]any
		want    string
	}{
		{"memory", map[string]any{"max_alloc": "512MiB"}, "memory"},
		{"tcp", map[string]any{"address": "localhost:5432"}, "tcp"},
		{"http", map[string]any{"url": "http://localhost/health"}, "http"},
		{"redis", map[string]any{"addr": "localhost:6379"}, "redis"},
		{"postgres", map[string]any{"dsn": "postgres://app@localhost:5432/app"}, "postgres"},
		{"disk", map[string]any{"path": "/", "min_free": "1 GB"}, "disk"},
		{"static", map[string]any{"status": "Degraded", "description": "maintenance"}, "static"},
	}

	kinds := DefaultKinds()
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			c, err := kinds.Create(context.Background(), CheckSpec{Name: "probe", Kind: tt.kind, Options: tt.options})
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if c.Name() != "probe" {
				t.Errorf("Name() = %q", c.Name())
			}
			kc, ok := c.(interface{ Kind() string })
			if !ok || kc.Kind() != tt.want {
				t.Errorf("Kind() mismatch for %T", c)
			}
			if r, ok := c.(*checks.Redis); ok {
				_ = r.Close()
			}
		})
	}
}

func TestDefaultKinds_CreateErrors(t *testing.T) {
	tests := []struct {
		kind    string
		options map[string]any
		wantErr string
	}{
		{"tcp", nil, "address is required"},
		{"http", nil, "URL is required"},
		{"redis", nil, "url or addr is required"},
		{"postgres", nil, "dsn is required"},
		{"memory", map[string]any{"max_alloc": "lots"}, "max_alloc"},
		{"disk", map[string]any{"min_free": "plenty"}, "min_free"},
		{"static", map[string]any{"status": "Sleepy"}, "Sleepy"},
		{"runner", nil, `option "runner" is required`},
		{"runner", map[string]any{"runner": "deps"}, `"deps" must be defined before it is nested`},
	}

	kinds := DefaultKinds()
	for _, tt := range tests {
		t.Run(tt.kind+"/"+tt.wantErr, func(t *testing.T) {
			_, err := kinds.Create(context.Background(), CheckSpec{Name: "probe", Kind: tt.kind, Options: tt.options})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Create() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestMemoryFactory_ParsesMaxAlloc(t *testing.T) {
	c, err := memoryFactory(context.Background(), CheckSpec{Name: "heap", Options: map[string]any{
		"max_alloc":         "512MiB",
		"warning_threshold": 0.6,
	}})
	if err != nil {
		t.Fatalf("memoryFactory() error = %v", err)
	}
	cfg := c.(*health.MemoryChecker).Config()
	if cfg.MaxAlloc != 512<<20 || cfg.WarningThreshold != 0.6 {
		t.Errorf("config = %+v", cfg)
	}
}

func TestDiskFactory_ParsesMinFree(t *testing.T) {
	c, err := diskFactory(context.Background(), CheckSpec{Name: "root", Options: map[string]any{
		"path":     "/var",
		"min_free": "2 GB",
	}})
	if err != nil {
		t.Fatalf("diskFactory() error = %v", err)
	}
	cfg := c.(*checks.Disk).Config()
	if cfg.Path != "/var" || cfg.MinFree != 2_000_000_000 {
		t.Errorf("config = %+v", cfg)
	}
}

func TestRunnerFactory_Nests(t *testing.T) {
	deps, err := health.NewRunner("deps", health.RunnerConfig{},
		checks.NewStatic("db", health.StatusHealthy, ""),
		checks.NewStatic("cache", health.StatusDegraded, "slow"),
	)
	if err != nil {
		t.Fatal(err)
	}

	c, err := runnerFactory(context.Background(), CheckSpec{
		Name:    "dependencies",
		Options: map[string]any{"runner": "deps"},
		Runners: map[string]*health.Runner{"deps": deps},
	})
	if err != nil {
		t.Fatalf("runnerFactory() error = %v", err)
	}
	if c.Name() != "dependencies" {
		t.Errorf("Name() = %q", c.Name())
	}
	if k := c.(interface{ Kind() string }).Kind(); k != "runner" {
		t.Errorf("Kind() = %q", k)
	}

	res, err := c.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if res.Status != health.StatusDegraded {
		t.Errorf("Status = %v", res.Status)
	}
	if got := strings.Join(res.Data.Keys(), ","); got != "db,cache" {
		t.Errorf("Data keys = %q", got)
	}
}

func TestParseBytes(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"", 0, false},
		{"  ", 0, false},
		{"1024", 1024, false},
		{"1 KiB", 1024, false},
		{"1kB", 1000, false},
		{"512MiB", 512 << 20, false},
		{"many", 0, true},
	}
	for _, tt := range tests {
		got, err := parseBytes("field", tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseBytes(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseBytes(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
