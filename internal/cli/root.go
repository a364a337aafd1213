package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sprite-ai/crev/internal/config"
	"github.com/sprite-ai/crev/internal/logging"
	"github.com/sprite-ai/crev/internal/narrative"
	"github.com/sprite-ai/crev/internal/review"
)

var (
	cfg    = config.Default()
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "crev",
	Short: "Automated code review with streamed results",
	Long: `crev reviews a piece of code for security, performance and readability.
Each category is scored by a deterministic analyzer and, when a model
provider is configured, explained in prose. Results stream as they are
produced.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to config file (default: user config dir)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd, checkCmd, watchCmd, versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func setup(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		loaded.Log.Level = level
	}

	l, _, err := logging.New(loaded.Log.Level)
	if err != nil {
		return err
	}
	cfg, logger = loaded, l
	return nil
}

// newOrchestrator builds the review pipeline from the loaded config. A
// missing API key degrades to narrative-free reviews instead of failing.
func newOrchestrator() (*review.Orchestrator, error) {
	n, err := narrative.New(cfg.Model.Provider, cfg.Model.ID)
	switch {
	case err == nil:
	case errors.Is(err, narrative.ErrMissingAPIKey):
		logger.Warn("narratives disabled", zap.String("provider", cfg.Model.Provider), zap.Error(err))
		n = narrative.Disabled{}
	default:
		return nil, fmt.Errorf("configuring narrator: %w", err)
	}

	opts := review.Options{
		NarrativeTimeout:   cfg.Review.NarrativeTimeout,
		ProgressEvents:     cfg.Review.ProgressEvents,
		MaxSubmissionBytes: cfg.Review.MaxSubmissionBytes,
		Policy:             cfg.Policy,
	}
	return review.New(n, opts, logger), nil
}

// commandContext returns the command's context, or Background when the
// command was run without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// exit flushes the logger before terminating with code.
func exit(code int) {
	_ = logger.Sync()
	os.Exit(code)
}
