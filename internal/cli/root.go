// Package cli defines the repo-explainer command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sakif/repo-explainer/internal/config"
	"github.com/sakif/repo-explainer/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "repo-explainer",
	Short: "Explain GitHub repositories in plain language",
	Long: `repo-explainer reads a public GitHub repository, asks a language model
for a short structured explanation and keeps a per-user search history.

Settings come from the environment (and a .env file, when present).`,
	SilenceUsage: true,
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd(), newMigrateCmd(), newExplainCmd())
}

// setup loads configuration and builds the logger every command shares.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	return cfg, logger, nil
}
