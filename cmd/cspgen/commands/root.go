// Package commands implements the cspgen command tree.
package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gitrdm/gokancsp/internal/config"
	"github.com/gitrdm/gokancsp/internal/telemetry"
)

// globals holds the persistent flags and what is built from them before any
// subcommand runs.
type globals struct {
	configPath string
	logLevel   string
	jsonOutput bool

	cfg     config.Config
	log     zerolog.Logger
	metrics *telemetry.Registry
}

// Execute runs the root command.
func Execute(ctx context.Context, version, commit, buildDate string) error {
	return NewRootCommand(version, commit, buildDate).ExecuteContext(ctx)
}

// NewRootCommand builds the command tree.
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	g := &globals{}
	rootCmd := &cobra.Command{
		Use:   "cspgen",
		Short: "Solve constraint satisfaction problems described in YAML",
		Long: `cspgen loads problem files, builds a CSP for each one and enumerates
its models on the finite-domain or the symbolic backend.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if g.metrics != nil {
				g.metrics.LogSummary(g.log)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "override the configured log level")
	rootCmd.PersistentFlags().BoolVar(&g.jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(newSolveCommand(g))
	rootCmd.AddCommand(newValidateCommand(g))
	rootCmd.AddCommand(newVersionCommand(version, commit, buildDate))

	return rootCmd
}

func (g *globals) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return err
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	g.cfg = cfg
	g.log = telemetry.NewLogger(cfg.Logging, cmd.ErrOrStderr())
	g.metrics = telemetry.NewRegistry(cfg.Metrics.Enabled)
	return nil
}
