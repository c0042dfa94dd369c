package checks

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jonwraymond/healthrun/health"
)

func fakeUsage(total, used, avail uint64) func(string) (DiskUsage, error) {
	return func(string) (DiskUsage, error) {
		return DiskUsage{Total: total, Used: used, Avail: avail}, nil
	}
}

func TestNewDisk_Defaults(t *testing.T) {
	d := NewDisk(DiskConfig{})

	cfg := d.Config()
	if cfg.Path != "/" || d.Name() != "disk:/" || d.Kind() != "disk" {
		t.Errorf("Path = %q, Name() = %q", cfg.Path, d.Name())
	}
	if cfg.WarningThreshold != 0.8 || cfg.CriticalThreshold != 0.95 {
		t.Errorf("thresholds = %v/%v", cfg.WarningThreshold, cfg.CriticalThreshold)
	}
}

func TestDisk_Thresholds(t *testing.T) {
	const gb = 1000 * 1000 * 1000
	tests := []struct {
		name     string
		config   DiskConfig
		used     uint64
		want     health.Status
		wantDesc string
	}{
		{"normal", DiskConfig{}, 40 * gb, health.StatusHealthy, "disk usage normal: 40.0% used, 60 GB free"},
		{"high", DiskConfig{}, 85 * gb, health.StatusDegraded, "disk usage high: 85.0% used, 15 GB free"},
		{"critical", DiskConfig{}, 97 * gb, health.StatusUnhealthy, "disk usage critical: 97.0% used, 3.0 GB free"},
		{"min free", DiskConfig{MinFree: 70 * gb}, 40 * gb, health.StatusUnhealthy, "disk space low: 40.0% used, 60 GB free, need 70 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDisk(tt.config)
			d.usage = fakeUsage(100*gb, tt.used, 100*gb-tt.used)

			result, err := d.Check(context.Background())
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if result.Status != tt.want {
				t.Errorf("Status = %v, want %v", result.Status, tt.want)
			}
			if result.Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", result.Description, tt.wantDesc)
			}
		})
	}
}

func TestDisk_Data(t *testing.T) {
	d := NewDisk(DiskConfig{Path: "/var/lib/data"})
	d.usage = fakeUsage(1000, 250, 750)

	result, _ := d.Check(context.Background())
	want := "path,total_bytes,used_bytes,avail_bytes,usage_percent"
	if got := strings.Join(result.Data.Keys(), ","); got != want {
		t.Errorf("Data keys = %q, want %q", got, want)
	}
	if v, _ := result.Data.Get("usage_percent"); v != 25.0 {
		t.Errorf("usage_percent = %v, want 25", v)
	}
}

func TestDisk_ZeroSize(t *testing.T) {
	d := NewDisk(DiskConfig{})
	d.usage = fakeUsage(0, 0, 0)

	result, _ := d.Check(context.Background())
	if result.Status != health.StatusUnhealthy {
		t.Errorf("Status = %v, want Unhealthy", result.Status)
	}
}

func TestDisk_UsageError(t *testing.T) {
	d := NewDisk(DiskConfig{Path: "/missing"})
	d.usage = func(string) (DiskUsage, error) { return DiskUsage{}, errors.New("no such file or directory") }

	_, err := d.Check(context.Background())
	if err == nil || err.Error() != "failed to read filesystem usage for /missing: no such file or directory" {
		t.Errorf("Check() error = %v", err)
	}
}

func TestDisk_Live(t *testing.T) {
	d := NewDisk(DiskConfig{Path: t.TempDir()})

	result, err := d.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if v, _ := result.Data.Get("total_bytes"); v == uint64(0) {
		t.Error("expected a non-zero filesystem size")
	}
}

func TestDisk_ContextCancelled(t *testing.T) {
	d := NewDisk(DiskConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Check(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Check() error = %v, want context.Canceled", err)
	}
}
