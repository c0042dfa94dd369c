package checks

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jonwraymond/healthrun/health"
)

// Dialer abstracts network dialing for testability.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// TCPConfig configures a TCP probe.
type TCPConfig struct {
	// Name is the check name. Default: "tcp:" + Address
	Name string

	// Address is the host:port to connect to.
	Address string

	// Timeout bounds the dial. Default: 5s
	Timeout time.Duration

	// SlowThreshold marks a successful but slow dial as Degraded.
	SlowThreshold time.Duration

	// Dialer is injected for testing. Default: net.Dialer
	Dialer Dialer
}

// TCP verifies that an address accepts connections.
type TCP struct {
	config TCPConfig
}

// NewTCP creates a TCP probe.
func NewTCP(config TCPConfig) (*TCP, error) {
	if config.Address == "" {
		return nil, errors.New("tcp: address is required")
	}
	if _, _, err := net.SplitHostPort(config.Address); err != nil {
		return nil, fmt.Errorf("tcp: invalid address %q: %w", config.Address, err)
	}
	if config.Name == "" {
		config.Name = "tcp:" + config.Address
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.Dialer == nil {
		config.Dialer = &net.Dialer{}
	}
	return &TCP{config: config}, nil
}

// Name returns the check name.
func (t *TCP) Name() string { return t.config.Name }

// Kind returns "tcp".
func (t *TCP) Kind() string { return "tcp" }

// Check dials the address once.
func (t *TCP) Check(ctx context.Context) (health.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	start := time.Now()
	conn, err := t.config.Dialer.DialContext(ctx, "tcp", t.config.Address)
	if err != nil {
		return health.Result{}, fmt.Errorf("connection failed: %w", err)
	}
	took := time.Since(start)
	_ = conn.Close()

	data := health.NewData().Set("address", t.config.Address)
	return latencyResult("connected to "+t.config.Address, took, t.config.SlowThreshold, data), nil
}
