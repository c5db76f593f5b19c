// Package cli wires the cobra commands for the funnel analyzer.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/funnel-analyzer/internal/config"
	"github.com/jonesrussell/funnel-analyzer/internal/funnel"
	"github.com/jonesrussell/funnel-analyzer/internal/logging"
	"github.com/jonesrussell/funnel-analyzer/internal/processor"
	"github.com/jonesrussell/funnel-analyzer/internal/telemetry"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "funnel-analyzer",
	Short: "Marketing funnel analysis for web analytics events",
	Long: `funnel-analyzer classifies web analytics events into marketing funnel
stages (AWARENESS, INTEREST, CONSIDERATION, CONVERSION), computes conversion
aggregates across sources, content, devices and time, and surfaces behavioral
patterns with ranked optimization insights.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yml", "configuration file path")
}

// app bundles the constructed components a command needs.
type app struct {
	cfg        *config.Config
	logger     logging.Logger
	telemetry  *telemetry.Provider
	batch      *processor.BatchClassifier
	calculator *funnel.Calculator
	runner     func(src processor.EventSource) *processor.Runner
}

// buildApp loads configuration and constructs the analysis pipeline.
func buildApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	tel := telemetry.NewProvider()

	matcher := funnel.NewMatcher(cfg.Funnel)
	classifier := funnel.NewStageClassifier(cfg.Funnel, matcher, logger)
	batch := processor.NewBatchClassifier(classifier, cfg.Service.Concurrency, tel, logger)
	calculator := funnel.NewCalculator(matcher, logger)
	analyzer := funnel.NewAnalyzer(cfg.Funnel, matcher, logger)

	return &app{
		cfg:        cfg,
		logger:     logger,
		telemetry:  tel,
		batch:      batch,
		calculator: calculator,
		runner: func(src processor.EventSource) *processor.Runner {
			return processor.NewRunner(src, batch, calculator, analyzer, tel, logger)
		},
	}, nil
}
