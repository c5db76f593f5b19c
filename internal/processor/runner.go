package processor

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jonesrussell/funnel-analyzer/internal/domain"
	"github.com/jonesrussell/funnel-analyzer/internal/funnel"
	"github.com/jonesrussell/funnel-analyzer/internal/telemetry"
)

// EventSource retrieves the three input relations for a date range. The
// retrieval layer owns retries and auth; a failure here is fatal for the run.
type EventSource interface {
	FunnelEvents(ctx context.Context, from, to time.Time) ([]domain.Event, error)
	PageSequences(ctx context.Context, from, to time.Time) ([]domain.PageView, error)
	ConversionEvents(ctx context.Context, from, to time.Time) ([]domain.ConversionEvent, error)
}

// AnalysisResult is the complete output of one analysis run.
type AnalysisResult struct {
	From time.Time `json:"period_start"`
	To   time.Time `json:"period_end"`

	ClassifiedEvents []domain.ClassifiedEvent  `json:"classified_events,omitempty"`
	UserProgress     []domain.UserProgress     `json:"user_progress,omitempty"`
	Transitions      domain.StageTransitions   `json:"stage_transitions"`
	Conversions      *domain.ConversionSummary `json:"conversions"`
	Patterns         *domain.PatternReport     `json:"patterns"`
}

// Runner orchestrates a full analysis: retrieve, classify, derive
// progression, aggregate, analyze patterns.
type Runner struct {
	source     EventSource
	batch      *BatchClassifier
	calculator *funnel.Calculator
	analyzer   *funnel.Analyzer
	telemetry  *telemetry.Provider
	logger     Logger
}

// NewRunner creates a runner over the given source and analysis components.
func NewRunner(
	source EventSource,
	batch *BatchClassifier,
	calculator *funnel.Calculator,
	analyzer *funnel.Analyzer,
	tel *telemetry.Provider,
	logger Logger,
) *Runner {
	return &Runner{
		source:     source,
		batch:      batch,
		calculator: calculator,
		analyzer:   analyzer,
		telemetry:  tel,
		logger:     logger,
	}
}

// Run executes one analysis over [from, to].
func (r *Runner) Run(ctx context.Context, from, to time.Time) (*AnalysisResult, error) {
	ctx, span := r.telemetry.StartSpan(ctx, "funnel.run",
		attribute.String("from", from.Format(time.RFC3339)),
		attribute.String("to", to.Format(time.RFC3339)),
	)
	defer span.End()

	start := time.Now()

	fetchStart := time.Now()
	events, err := r.source.FunnelEvents(ctx, from, to)
	r.telemetry.RecordSourceFetch("funnel_events", len(events), time.Since(fetchStart), err)
	if err != nil {
		r.telemetry.RecordRunFailure("funnel_events")
		return nil, fmt.Errorf("retrieve funnel events: %w", err)
	}

	fetchStart = time.Now()
	pageViews, err := r.source.PageSequences(ctx, from, to)
	r.telemetry.RecordSourceFetch("page_sequences", len(pageViews), time.Since(fetchStart), err)
	if err != nil {
		r.telemetry.RecordRunFailure("page_sequences")
		return nil, fmt.Errorf("retrieve page sequences: %w", err)
	}

	fetchStart = time.Now()
	conversions, err := r.source.ConversionEvents(ctx, from, to)
	r.telemetry.RecordSourceFetch("conversion_events", len(conversions), time.Since(fetchStart), err)
	if err != nil {
		r.telemetry.RecordRunFailure("conversion_events")
		return nil, fmt.Errorf("retrieve conversion events: %w", err)
	}

	r.logger.Info("analysis input retrieved",
		"events", len(events),
		"page_views", len(pageViews),
		"conversions", len(conversions),
	)

	classifyStart := time.Now()
	classified := r.batch.Classify(ctx, events)
	r.telemetry.RecordClassification(classified, time.Since(classifyStart))

	progress := funnel.UserProgression(classified)
	transitions := funnel.Transitions(progress)
	summary := r.calculator.Summary(classified, progress)
	patterns := r.analyzer.Analyze(classified, pageViews, conversions, progress)

	r.telemetry.RecordRun(len(progress), len(events), time.Since(start))
	r.telemetry.RecordInsights(summary.Opportunities)
	r.telemetry.RecordInsights(patterns.TopOpportunities)

	r.logger.Info("analysis run complete",
		"users", len(progress),
		"overall_rate", summary.Overview.OverallRate,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &AnalysisResult{
		From:             from,
		To:               to,
		ClassifiedEvents: classified,
		UserProgress:     progress,
		Transitions:      transitions,
		Conversions:      summary,
		Patterns:         patterns,
	}, nil
}
