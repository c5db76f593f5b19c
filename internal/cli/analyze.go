package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/funnel-analyzer/internal/processor"
	"github.com/jonesrussell/funnel-analyzer/internal/report"
	"github.com/jonesrussell/funnel-analyzer/internal/source"
)

var (
	analyzeDays    int
	analyzeStart   string
	analyzeEnd     string
	analyzeSource  string
	analyzeCSVPath string
	analyzeOutput  string
	analyzeFormats []string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a funnel analysis over a date range",
	Long: `Run a complete funnel analysis: retrieve events from the configured
source, classify them into funnel stages, compute conversion aggregates and
behavioral patterns, and write reports to the output directory.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeDays, "days", 0, "analyze the trailing N days")
	analyzeCmd.Flags().StringVar(&analyzeStart, "start", "", "start date (YYYY-MM-DD)")
	analyzeCmd.Flags().StringVar(&analyzeEnd, "end", "", "end date (YYYY-MM-DD)")
	analyzeCmd.Flags().StringVar(&analyzeSource, "source", "csv", "event source: csv, db, api or es")
	analyzeCmd.Flags().StringVar(&analyzeCSVPath, "input", "events.csv", "events CSV path (source=csv)")
	analyzeCmd.Flags().StringVar(&analyzeOutput, "output", "", "report output directory (defaults to config)")
	analyzeCmd.Flags().StringSliceVar(&analyzeFormats, "formats", nil, "report formats: json, csv, summary")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	from, to, err := resolveRange()
	if err != nil {
		return err
	}

	src, cleanup, err := a.eventSource(analyzeSource, analyzeCSVPath)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := a.runner(src).Run(cmd.Context(), from, to)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	outputDir := analyzeOutput
	if outputDir == "" {
		outputDir = a.cfg.Reporting.OutputDir
	}
	formats := analyzeFormats
	if len(formats) == 0 {
		formats = a.cfg.Reporting.Formats
	}

	writer := report.NewWriter(outputDir, a.logger)
	now := time.Now()
	for _, format := range formats {
		switch format {
		case "json":
			if _, err := writer.WriteJSON(result, now); err != nil {
				return err
			}
		case "csv":
			if _, err := writer.WriteCSV(result, now); err != nil {
				return err
			}
		case "summary":
			path, err := writer.WriteSummary(result, now)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), writer.Summary(result))
			fmt.Fprintf(cmd.OutOrStdout(), "Summary written to %s\n", path)
		default:
			a.logger.Warn("unknown report format skipped", "format", format)
		}
	}

	return nil
}

// resolveRange turns the date flags into a concrete interval.
func resolveRange() (time.Time, time.Time, error) {
	if analyzeDays > 0 {
		to := time.Now().UTC()
		return to.AddDate(0, 0, -analyzeDays), to, nil
	}
	if analyzeStart == "" || analyzeEnd == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("either --days or both --start and --end are required")
	}

	from, err := time.Parse("2006-01-02", analyzeStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --start %q: %w", analyzeStart, err)
	}
	to, err := time.Parse("2006-01-02", analyzeEnd)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --end %q: %w", analyzeEnd, err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--end precedes --start")
	}
	return from, to.Add(24*time.Hour - time.Nanosecond), nil
}

// eventSource constructs the requested event source. The returned cleanup
// closes any held connections.
func (a *app) eventSource(kind, csvPath string) (processor.EventSource, func(), error) {
	noop := func() {}
	conversionEvent := a.cfg.Funnel.ConversionEvent

	switch kind {
	case "csv":
		return source.NewCSVSource(csvPath, conversionEvent, a.logger), noop, nil
	case "db":
		store, err := source.NewStore(a.cfg.Database, conversionEvent, a.logger)
		if err != nil {
			return nil, noop, fmt.Errorf("open event warehouse: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	case "api":
		return source.NewClient(a.cfg.Analytics, conversionEvent, a.logger), noop, nil
	case "es":
		es, err := source.NewElasticsearchSource(a.cfg.Search, conversionEvent, a.logger)
		if err != nil {
			return nil, noop, fmt.Errorf("open elasticsearch source: %w", err)
		}
		return es, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown source %q: expected csv, db, api or es", kind)
	}
}
