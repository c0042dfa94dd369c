package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/healthrun/config"
)

// localFlags are command flags that are not configuration keys.
var localFlags = []string{"config", "help", "version", "timeout"}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "healthrun",
		Short:         "Aggregate health checks into one report",
		Long:          "healthrun runs configured health checks and reports an aggregated status as JSON.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "path to a JSON configuration file")
	flags.String("server.address", ":8080", "address to listen on")
	flags.String("server.route", "/health", "route serving the health report")
	flags.String("server.runner", "", "runner served on the health route")
	flags.Bool("server.indent", false, "pretty-print the JSON report")
	flags.Bool("server.coalesce", false, "share one in-flight run between concurrent requests")
	flags.Duration("server.cache-ttl", 0, "serve a rendered report for this long")
	flags.String("logging.level", "info", "log level: debug|info|warn|error")
	flags.Bool("logging.pretty", false, "human readable logs")

	root.AddCommand(newServeCmd(), newCheckCmd(), newValidateCmd(), newKindsCmd())
	return root
}

// loadConfig layers the config file, HEALTHRUN_ environment variables and
// changed flags over the defaults.
func loadConfig(cmd *cobra.Command, kinds *config.Kinds) (config.Config, error) {
	var sources []*config.Source
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		sources = append(sources, config.NewJSONFileSource(path))
	}
	sources = append(sources,
		config.NewEnvVarSource(),
		config.NewPFlagSource(cmd.Flags(), localFlags...),
	)
	return config.Load(kinds, sources...)
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, config.DefaultKinds())
			if err != nil {
				return err
			}
			checks := 0
			for _, r := range cfg.Runners {
				checks += len(r.Checks)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration ok: %d runners, %d checks\n", len(cfg.Runners), checks)
			return nil
		},
	}
}

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the available check kinds",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, kind := range config.DefaultKinds().List() {
				fmt.Fprintln(cmd.OutOrStdout(), kind)
			}
		},
	}
}
