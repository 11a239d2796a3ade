// Package main implements the insightd CLI: run analysis requests through
// the pipeline, fire cache invalidation triggers, and sweep expired entries.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fernwell/insightd/internal/config"
	"github.com/fernwell/insightd/internal/logging"
	"github.com/fernwell/insightd/internal/services"
)

var (
	// configPath points at an optional YAML config file
	configPath string
	// testMode forces the short deterministic cache TTLs
	testMode bool
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "insightd",
	Short: "Personal analytics pipeline for self-tracking data",
	Long: `insightd analyzes self-tracked wellness data: it classifies free-text
entries, extracts behavioral patterns, computes mood analytics, and surfaces
prioritized insights, with multi-tier result caching in between.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&testMode, "test-mode", false, "use short deterministic cache TTLs")
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(invalidateCmd)
	rootCmd.AddCommand(sweepCmd)
}

// buildRegistry loads config and assembles the service graph. The caller
// owns the returned registry and must Close it.
func buildRegistry(cmd *cobra.Command) (services.Registry, *logging.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if testMode {
		cfg.TestMode = true
	}

	logCfg := logging.NewDefaultConfig()
	if err := logCfg.Level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		return nil, nil, fmt.Errorf("parse log level: %w", err)
	}
	logCfg.Format = cfg.Logging.Format

	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}

	reg, err := services.NewFromConfig(cmd.Context(), cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	return reg, logger, nil
}
