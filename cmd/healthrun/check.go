package main

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/healthrun/config"
	"github.com/jonwraymond/healthrun/health"
)

// errUnhealthy makes the process exit non-zero without printing an error;
// the report has already been written.
var errUnhealthy = errors.New("unhealthy")

const defaultCheckTimeout = 30 * time.Second

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [runner]",
		Short: "Run a runner once and print its report",
		Long: "Runs the named runner (or the default runner) once, prints the JSON report " +
			"and exits non-zero when the overall status is Unhealthy.",
		Args: cobra.MaximumNArgs(1),
		RunE: runCheck,
	}
	cmd.Flags().Duration("timeout", defaultCheckTimeout, "bound on the whole run")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, config.DefaultKinds())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	stack, err := config.Build(ctx, cfg, config.Deps{})
	if err != nil {
		return err
	}
	defer func() { _ = stack.Close() }()

	name := cfg.Server.Runner
	if len(args) == 1 {
		name = args[0]
	}
	runner, err := stack.Registry.Get(name)
	if err != nil {
		return err
	}

	report := runner.Run(ctx)
	body, err := health.Serialize(report, cfg.Server.Indent)
	if err != nil {
		return err
	}
	if !bytes.HasSuffix(body, []byte("\n")) {
		body = append(body, '\n')
	}
	_, _ = cmd.OutOrStdout().Write(body)

	if report.Status == health.StatusUnhealthy {
		return errUnhealthy
	}
	return nil
}
