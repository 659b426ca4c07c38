// Package commands implements the ranking CLI commands.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tastemap/ranking-engine/cmd/ranking-cli/ui"
	"github.com/tastemap/ranking-engine/internal/app"
	"github.com/tastemap/ranking-engine/internal/config"
	"github.com/tastemap/ranking-engine/internal/observability"
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "ranking-cli",
	Short: "Restaurant ranking engine CLI",
	Long: `Operate the restaurant ranking engine against a configured store:
rebuild the keyword index, run ranking queries, inspect the keyword
vocabulary, and seed restaurant data.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// buildApp loads configuration and wires the component graph. Callers own
// closing the returned app.
func buildApp(ctx context.Context) (*app.App, error) {
	ui.Init(noColor)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := "warn"
	if verbose {
		level = cfg.Observability.LogLevel
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      "console",
		ServiceName: cfg.Observability.ServiceName,
	})

	return app.New(ctx, cfg, logger)
}
