// Package report renders analysis results to files: a full JSON report,
// per-dimension CSV exports and a human-readable executive summary.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonesrussell/funnel-analyzer/internal/processor"
)

// Logger defines the logging interface.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Writer renders analysis results into the output directory.
type Writer struct {
	outputDir string
	logger    Logger
}

// NewWriter creates a report writer. The directory is created on first use.
func NewWriter(outputDir string, logger Logger) *Writer {
	return &Writer{outputDir: outputDir, logger: logger}
}

// timestampedName builds "<stem>_<run time>.<ext>" inside the output dir.
func (w *Writer) timestampedName(stem, ext string, at time.Time) string {
	return filepath.Join(w.outputDir, fmt.Sprintf("%s_%s.%s", stem, at.Format("20060102_150405"), ext))
}

func (w *Writer) ensureDir() error {
	if err := os.MkdirAll(w.outputDir, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}

// WriteJSON writes the full analysis result as indented JSON and returns the
// file path.
func (w *Writer) WriteJSON(result *processor.AnalysisResult, at time.Time) (string, error) {
	if err := w.ensureDir(); err != nil {
		return "", err
	}

	path := w.timestampedName("funnel_analysis", "json", at)
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal analysis result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write json report: %w", err)
	}

	w.logger.Info("json report written", "path", path)
	return path, nil
}
