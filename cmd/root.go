// Package cmd implements the autodraft CLI.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/koopa0/autodraft/internal/app"
	"github.com/koopa0/autodraft/internal/config"
	"github.com/koopa0/autodraft/internal/log"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "autodraft",
	Short: "Grant-proposal drafting pipeline",
	Long: `AutoDraft drafts grant proposals: it ingests reference documents,
answers questions grounded in them, researches topics with a bounded
search loop, and generates proposal sections.

Run "autodraft serve" to expose the pipeline over HTTP.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// setup loads configuration and wires the application.
func setup(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{Level: level})

	backends, err := app.NewBackends(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return app.New(cfg, backends, logger)
}
