package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jonesrussell/funnel-analyzer/internal/domain"
	"github.com/jonesrussell/funnel-analyzer/internal/processor"
)

// WriteCSV writes one CSV per conversion dimension and returns the file
// paths. Empty dimensions are skipped.
func (w *Writer) WriteCSV(result *processor.AnalysisResult, at time.Time) ([]string, error) {
	if result.Conversions == nil {
		w.logger.Warn("no conversion data, skipping csv reports")
		return nil, nil
	}

	if err := w.ensureDir(); err != nil {
		return nil, err
	}

	var paths []string

	if result.Conversions.Overview != nil {
		path := w.timestampedName("funnel_stages", "csv", at)
		if err := w.writeStagesCSV(path, result.Conversions.Overview); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	if len(result.Conversions.BySource) > 0 {
		path := w.timestampedName("conversion_by_source", "csv", at)
		if err := w.writeSourcesCSV(path, result.Conversions.BySource); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	if len(result.Conversions.ByContent) > 0 {
		path := w.timestampedName("conversion_by_content", "csv", at)
		if err := w.writeContentCSV(path, result.Conversions.ByContent); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	if len(result.Conversions.ByDevice) > 0 {
		path := w.timestampedName("conversion_by_device", "csv", at)
		if err := w.writeDevicesCSV(path, result.Conversions.ByDevice); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	w.logger.Info("csv reports written", "files", len(paths))
	return paths, nil
}

func (w *Writer) writeCSVFile(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write csv %s: %w", path, err)
	}
	return nil
}

func (w *Writer) writeStagesCSV(path string, overview *domain.StageFunnel) error {
	records := [][]string{{"stage", "users", "reach_rate"}}
	for _, stage := range domain.StageOrder {
		records = append(records, []string{
			string(stage),
			strconv.Itoa(overview.StageCounts[stage]),
			formatRate(overview.StageRates[stage]),
		})
	}
	return w.writeCSVFile(path, records)
}

func (w *Writer) writeSourcesCSV(path string, sources []domain.SourceConversion) error {
	records := [][]string{{"source_medium", "traffic_group", "users", "conversions", "conversion_rate", "traffic_quality"}}
	for _, s := range sources {
		records = append(records, []string{
			s.SourceMedium,
			s.TrafficGroup,
			strconv.Itoa(s.TotalUsers),
			strconv.Itoa(s.Conversions),
			formatRate(s.ConversionRate),
			s.TrafficQuality,
		})
	}
	return w.writeCSVFile(path, records)
}

func (w *Writer) writeContentCSV(path string, content []domain.ContentConversion) error {
	records := [][]string{{"page_path", "content_type", "users", "conversions", "conversion_rate", "avg_interactions", "effectiveness"}}
	for _, c := range content {
		records = append(records, []string{
			c.PagePath,
			c.ContentType,
			strconv.Itoa(c.TotalUsers),
			strconv.Itoa(c.Conversions),
			formatRate(c.ConversionRate),
			strconv.FormatFloat(c.AvgInteractions, 'f', 2, 64),
			c.Effectiveness,
		})
	}
	return w.writeCSVFile(path, records)
}

func (w *Writer) writeDevicesCSV(path string, devices []domain.DeviceConversion) error {
	records := [][]string{{"device_category", "users", "conversions", "conversion_rate", "user_share"}}
	for _, d := range devices {
		records = append(records, []string{
			d.DeviceCategory,
			strconv.Itoa(d.TotalUsers),
			strconv.Itoa(d.Conversions),
			formatRate(d.ConversionRate),
			formatRate(d.UserShare),
		})
	}
	return w.writeCSVFile(path, records)
}

func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', 2, 64)
}
