package health

import (
	"context"
	"fmt"
	"runtime"

	"github.com/dustin/go-humanize"
)

// MemoryCheckerConfig configures the memory health checker.
type MemoryCheckerConfig struct {
	// Name is the check name.
	// Default: "memory"
	Name string

	// WarningThreshold is the fraction of MaxAlloc that triggers degraded status.
	// Value should be between 0 and 1. Default: 0.8 (80%)
	WarningThreshold float64

	// CriticalThreshold is the fraction of MaxAlloc that triggers unhealthy status.
	// Value should be between 0 and 1. Default: 0.95 (95%)
	CriticalThreshold float64

	// MaxAlloc is the maximum expected heap allocation in bytes.
	// Default: 0 (memory obtained from the OS)
	MaxAlloc uint64
}

// MemoryChecker checks heap usage against thresholds.
type MemoryChecker struct {
	config MemoryCheckerConfig
	stats  func(*runtime.MemStats)
}

// NewMemoryChecker creates a new memory health checker.
func NewMemoryChecker(config MemoryCheckerConfig) *MemoryChecker {
	if config.Name == "" {
		config.Name = "memory"
	}
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold >= 1 {
		config.CriticalThreshold = 0.95
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = config.WarningThreshold + 0.1
		if config.CriticalThreshold > 1 {
			config.CriticalThreshold = 0.99
		}
	}

	return &MemoryChecker{config: config, stats: runtime.ReadMemStats}
}

// Name returns the name of this checker.
func (m *MemoryChecker) Name() string {
	return m.config.Name
}

// Kind returns "memory".
func (m *MemoryChecker) Kind() string {
	return "memory"
}

// Config returns the effective configuration.
func (m *MemoryChecker) Config() MemoryCheckerConfig {
	return m.config
}

// Check performs the memory health check.
func (m *MemoryChecker) Check(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var stats runtime.MemStats
	m.stats(&stats)

	maxAlloc := m.config.MaxAlloc
	if maxAlloc == 0 {
		maxAlloc = stats.Sys
	}

	data := NewData().
		Set("alloc_bytes", stats.Alloc).
		Set("sys_bytes", stats.Sys).
		Set("max_alloc", maxAlloc).
		Set("heap_objects", stats.HeapObjects).
		Set("num_gc", stats.NumGC).
		Set("goroutines", runtime.NumGoroutine())

	if maxAlloc == 0 {
		return Healthy("memory stats unavailable").WithData(data), nil
	}

	usageRatio := float64(stats.Alloc) / float64(maxAlloc)
	data.Set("usage_percent", usageRatio*100)

	usage := fmt.Sprintf("%.1f%% (%s of %s)", usageRatio*100,
		humanize.IBytes(stats.Alloc), humanize.IBytes(maxAlloc))

	switch {
	case usageRatio >= m.config.CriticalThreshold:
		return Unhealthy("memory usage critical: " + usage).WithData(data), nil
	case usageRatio >= m.config.WarningThreshold:
		return Degraded("memory usage high: " + usage).WithData(data), nil
	default:
		return Healthy("memory usage normal: " + usage).WithData(data), nil
	}
}
