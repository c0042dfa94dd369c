package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/healthrun/config"
	"github.com/jonwraymond/healthrun/health"
	"github.com/jonwraymond/healthrun/observe"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the health report over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, config.DefaultKinds())
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	promRegistry := prometheus.NewRegistry()
	ocfg := cfg.ObserveConfig(Version, cmd.ErrOrStderr())
	ocfg.Metrics.Registerer = promRegistry
	ocfg.Global = true

	obs, err := observe.NewObserver(ctx, ocfg)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(shutdownCtx)
	}()
	logger := obs.Logger()

	stack, err := config.Build(ctx, cfg, config.Deps{Observer: obs})
	if err != nil {
		return err
	}
	defer func() { _ = stack.Close() }()

	mux, err := newServeMux(cfg, stack.Registry, promRegistry, logger)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Server.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Address, err)
	}

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()
	logger.Info(ctx, "serving health report",
		observe.Field{Key: "address", Value: ln.Addr().String()},
		observe.Field{Key: "route", Value: health.NormalizeRoute(cfg.Server.Route)},
		observe.Field{Key: "runners", Value: stack.Registry.Names()},
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

// newServeMux mounts the health report, the liveness probe and, when the
// Prometheus exporter is enabled, the metrics endpoint.
func newServeMux(cfg config.Config, registry *health.Registry, gatherer prometheus.Gatherer, logger observe.Logger) (*http.ServeMux, error) {
	mux := http.NewServeMux()

	if _, err := health.Mount(mux, registry, cfg.Server.HandlerConfig(logger)); err != nil {
		return nil, err
	}
	if cfg.Server.LivenessRoute != "" {
		mux.Handle(health.NormalizeRoute(cfg.Server.LivenessRoute), health.LivenessHandler())
	}
	metrics := cfg.Telemetry.Metrics
	if metrics.Enabled && metrics.Exporter == "prometheus" && cfg.Server.MetricsRoute != "" {
		mux.Handle(health.NormalizeRoute(cfg.Server.MetricsRoute), promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return mux, nil
}
