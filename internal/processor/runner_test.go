package processor

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/jonesrussell/funnel-analyzer/internal/config"
	"github.com/jonesrussell/funnel-analyzer/internal/domain"
	"github.com/jonesrussell/funnel-analyzer/internal/funnel"
	"github.com/jonesrussell/funnel-analyzer/internal/telemetry"
)

// Metrics register in the default registry, so the provider is built once
// for the whole test binary.
var testTelemetry = telemetry.NewProvider()

type stubSource struct {
	events      []domain.Event
	pageViews   []domain.PageView
	conversions []domain.ConversionEvent
}

func (s *stubSource) FunnelEvents(_ context.Context, _, _ time.Time) ([]domain.Event, error) {
	return s.events, nil
}

func (s *stubSource) PageSequences(_ context.Context, _, _ time.Time) ([]domain.PageView, error) {
	return s.pageViews, nil
}

func (s *stubSource) ConversionEvents(_ context.Context, _, _ time.Time) ([]domain.ConversionEvent, error) {
	return s.conversions, nil
}

func TestRunner_Run_RecordsSourceMetrics(t *testing.T) {
	cfg := config.Default().Funnel
	matcher := funnel.NewMatcher(cfg)
	classifier := funnel.NewStageClassifier(cfg, matcher, &mockLogger{})
	batch := NewBatchClassifier(classifier, 2, testTelemetry, &mockLogger{})
	calculator := funnel.NewCalculator(matcher, &mockLogger{})
	analyzer := funnel.NewAnalyzer(cfg, matcher, &mockLogger{})

	events := testEvents(3)
	src := &stubSource{events: events}
	r := NewRunner(src, batch, calculator, analyzer, testTelemetry, &mockLogger{})

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	result, err := r.Run(context.Background(), from, from.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.ClassifiedEvents) != len(events) {
		t.Errorf("expected %d classified events, got %d", len(events), len(result.ClassifiedEvents))
	}

	if got := testutil.ToFloat64(testTelemetry.Metrics.SourceRows.WithLabelValues("funnel_events")); got != float64(len(events)) {
		t.Errorf("expected %d funnel_events rows recorded, got %f", len(events), got)
	}
	if got := testutil.ToFloat64(testTelemetry.Metrics.SourceFailures.WithLabelValues("funnel_events")); got != 0 {
		t.Errorf("successful run counted as source failure: %f", got)
	}
	if got := testutil.ToFloat64(testTelemetry.Metrics.ActiveWorkers); got != 0 {
		t.Errorf("expected worker gauge back at 0 after run, got %f", got)
	}
}
