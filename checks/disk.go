package checks

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	sigar "github.com/elastic/gosigar"

	"github.com/jonwraymond/healthrun/health"
)

// DiskConfig configures a disk usage probe.
type DiskConfig struct {
	// Name is the check name. Default: "disk:" + Path
	Name string

	// Path is any path on the filesystem to inspect. Default: "/"
	Path string

	// WarningThreshold is the used fraction that triggers degraded status.
	// Default: 0.8
	WarningThreshold float64

	// CriticalThreshold is the used fraction that triggers unhealthy status.
	// Default: 0.95
	CriticalThreshold float64

	// MinFree is the number of available bytes below which the disk is
	// unhealthy regardless of the used fraction. Zero disables it.
	MinFree uint64
}

// DiskUsage is a filesystem usage sample in bytes.
type DiskUsage struct {
	Total uint64
	Used  uint64
	Avail uint64
}

// Disk checks filesystem usage against thresholds.
type Disk struct {
	config DiskConfig
	usage  func(path string) (DiskUsage, error)
}

// NewDisk creates a disk usage probe.
func NewDisk(config DiskConfig) *Disk {
	if config.Path == "" {
		config.Path = "/"
	}
	if config.Name == "" {
		config.Name = "disk:" + config.Path
	}
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold >= 1 {
		config.CriticalThreshold = 0.95
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = config.WarningThreshold
	}
	return &Disk{config: config, usage: fileSystemUsage}
}

func fileSystemUsage(path string) (DiskUsage, error) {
	fs := sigar.FileSystemUsage{}
	if err := fs.Get(path); err != nil {
		return DiskUsage{}, err
	}
	return DiskUsage{Total: fs.Total, Used: fs.Used, Avail: fs.Avail}, nil
}

// Name returns the check name.
func (d *Disk) Name() string { return d.config.Name }

// Kind returns "disk".
func (d *Disk) Kind() string { return "disk" }

// Config returns the effective configuration.
func (d *Disk) Config() DiskConfig { return d.config }

// Check samples filesystem usage.
func (d *Disk) Check(ctx context.Context) (health.Result, error) {
	if err := ctx.Err(); err != nil {
		return health.Result{}, err
	}

	u, err := d.usage(d.config.Path)
	if err != nil {
		return health.Result{}, fmt.Errorf("failed to read filesystem usage for %s: %w", d.config.Path, err)
	}

	data := health.NewData().
		Set("path", d.config.Path).
		Set("total_bytes", u.Total).
		Set("used_bytes", u.Used).
		Set("avail_bytes", u.Avail)

	if u.Total == 0 {
		return health.Unhealthy("filesystem reports zero size").WithData(data), nil
	}

	ratio := float64(u.Used) / float64(u.Total)
	data.Set("usage_percent", ratio*100)
	usage := fmt.Sprintf("%.1f%% used, %s free", ratio*100, humanize.Bytes(u.Avail))

	switch {
	case d.config.MinFree > 0 && u.Avail < d.config.MinFree:
		return health.Unhealthy(fmt.Sprintf("disk space low: %s, need %s", usage, humanize.Bytes(d.config.MinFree))).WithData(data), nil
	case ratio >= d.config.CriticalThreshold:
		return health.Unhealthy("disk usage critical: " + usage).WithData(data), nil
	case ratio >= d.config.WarningThreshold:
		return health.Degraded("disk usage high: " + usage).WithData(data), nil
	default:
		return health.Healthy("disk usage normal: " + usage).WithData(data), nil
	}
}
