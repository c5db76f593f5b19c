package funnel

import (
	"reflect"
	"testing"
	"time"

	"github.com/jonesrussell/funnel-analyzer/internal/config"
	"github.com/jonesrussell/funnel-analyzer/internal/domain"
)

type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Info(_ string, _ ...any)  {}
func (m *mockLogger) Warn(_ string, _ ...any)  {}
func (m *mockLogger) Error(_ string, _ ...any) {}

func newTestClassifier() *StageClassifier {
	cfg := config.Default().Funnel
	return NewStageClassifier(cfg, NewMatcher(cfg), &mockLogger{})
}

func ts(minute int) time.Time {
	return time.Date(2025, 6, 2, 10, minute, 0, 0, time.UTC)
}

func TestStageClassifier_TwoUserScenario(t *testing.T) {
	c := newTestClassifier()

	events := []domain.Event{
		{UserID: "A", SessionID: "a1", Name: "session_start", PagePath: "/", Source: "google", Medium: "organic", Timestamp: ts(0)},
		{UserID: "A", SessionID: "a1", Name: "page_view", PagePath: "/posts/5", Source: "google", Medium: "organic", Timestamp: ts(1)},
		{UserID: "A", SessionID: "a1", Name: "sign_up_complete", PagePath: "/signup", Source: "google", Medium: "organic", Timestamp: ts(2)},
		{UserID: "B", SessionID: "b1", Name: "session_start", PagePath: "/", Source: "google", Medium: "organic", Timestamp: ts(0)},
	}

	classified := c.Classify(events)
	if len(classified) != len(events) {
		t.Fatalf("expected %d classified events, got %d", len(events), len(classified))
	}

	// A's conversion event is terminal CONVERSION with full confidence.
	last := classified[2]
	if last.UserID != "A" || last.Name != "sign_up_complete" {
		t.Fatalf("unexpected event order: %+v", last)
	}
	if last.FunnelStage != domain.StageConversion {
		t.Errorf("expected CONVERSION, got %s", last.FunnelStage)
	}
	if last.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0, got %f", last.Confidence)
	}

	progress := UserProgression(classified)
	if len(progress) != 2 {
		t.Fatalf("expected 2 users, got %d", len(progress))
	}

	counts := map[domain.Stage]int{}
	for _, p := range progress {
		for _, stage := range domain.StageOrder {
			if p.Reached(stage) {
				counts[stage]++
			}
		}
	}
	want := map[domain.Stage]int{
		domain.StageAwareness:     2,
		domain.StageInterest:      1,
		domain.StageConsideration: 0,
		domain.StageConversion:    1,
	}
	for stage, n := range want {
		if counts[stage] != n {
			t.Errorf("stage %s: expected %d users, got %d", stage, n, counts[stage])
		}
	}

	calc := NewCalculator(NewMatcher(config.Default().Funnel), &mockLogger{})
	overview := calc.StageFunnel(progress)
	if overview.OverallRate != 50.0 {
		t.Errorf("expected overall rate 50.0, got %f", overview.OverallRate)
	}
}

func TestStageClassifier_ConversionEventDeterminism(t *testing.T) {
	c := newTestClassifier()

	// Even in the middle of an otherwise AWARENESS-heavy context the
	// conversion event name is terminal.
	events := []domain.Event{
		{UserID: "u", SessionID: "s", Name: "sign_up_complete", PagePath: "/", Source: "google", Medium: "organic", Timestamp: ts(0)},
	}

	classified := c.Classify(events)
	if classified[0].FunnelStage != domain.StageConversion {
		t.Errorf("expected CONVERSION, got %s", classified[0].FunnelStage)
	}
	if classified[0].Confidence != 1.0 {
		t.Errorf("expected confidence exactly 1.0, got %f", classified[0].Confidence)
	}
}

func TestStageClassifier_ConfidenceClamped(t *testing.T) {
	c := newTestClassifier()

	// first_visit + external source + landing page + first event fires
	// every AWARENESS signal; the sum (1.9) must clamp to 1.0.
	events := []domain.Event{
		{UserID: "u", SessionID: "s", Name: "first_visit", PagePath: "/", Source: "google", Medium: "cpc", Timestamp: ts(0)},
	}

	classified := c.Classify(events)
	if classified[0].Confidence != 1.0 {
		t.Errorf("expected clamped confidence 1.0, got %f", classified[0].Confidence)
	}
	if classified[0].FunnelStage != domain.StageAwareness {
		t.Errorf("expected AWARENESS, got %s", classified[0].FunnelStage)
	}
}

func TestStageClassifier_StageCoverage(t *testing.T) {
	c := newTestClassifier()

	events := []domain.Event{
		{UserID: "u", SessionID: "s", Name: "session_start", PagePath: "/", Source: "google", Medium: "organic", Timestamp: ts(0)},
		{UserID: "u", SessionID: "s", Name: "visit_blog", PagePath: "/posts/1", Source: "google", Medium: "organic", Timestamp: ts(1)},
		{UserID: "u", SessionID: "s", Name: "page_view", PagePath: "/pricing", Source: "google", Medium: "organic", Timestamp: ts(2)},
		{UserID: "u", SessionID: "s", Name: "mystery_event", PagePath: "", Source: "(direct)", Medium: "(none)", Timestamp: ts(3)},
	}

	for _, ev := range c.Classify(events) {
		if !ev.FunnelStage.Valid() {
			t.Errorf("invalid stage %q for event %s", ev.FunnelStage, ev.Name)
		}
		if ev.Confidence < 0 || ev.Confidence > 1 {
			t.Errorf("confidence %f out of [0,1] for event %s", ev.Confidence, ev.Name)
		}
	}
}

func TestStageClassifier_WeakSignalsStillClassify(t *testing.T) {
	c := newTestClassifier()

	// An unrecognized event name on an unlisted page: the only firing
	// signal is the AWARENESS external-source one.
	events := []domain.Event{
		{UserID: "u", SessionID: "s", Name: "noop", PagePath: "/nowhere", Source: "partner", Medium: "referral", Timestamp: ts(0)},
		{UserID: "u", SessionID: "s", Name: "noop", PagePath: "/nowhere", Source: "partner", Medium: "referral", Timestamp: ts(1)},
	}

	classified := c.Classify(events)
	if classified[1].FunnelStage != domain.StageAwareness {
		t.Errorf("expected AWARENESS from external-source signal, got %s", classified[1].FunnelStage)
	}
	if classified[1].Confidence != awarenessExternal {
		t.Errorf("expected confidence %f, got %f", awarenessExternal, classified[1].Confidence)
	}
}

func TestStageClassifier_Idempotent(t *testing.T) {
	c := newTestClassifier()

	events := []domain.Event{
		{UserID: "b", SessionID: "s2", Name: "page_view", PagePath: "/pricing", Source: "(direct)", Medium: "(none)", Timestamp: ts(5)},
		{UserID: "a", SessionID: "s1", Name: "session_start", PagePath: "/", Source: "google", Medium: "organic", Timestamp: ts(0)},
		{UserID: "a", SessionID: "s1", Name: "user_engagement", PagePath: "/posts/9", Source: "google", Medium: "organic", Timestamp: ts(3), EngagementMs: 20000},
	}

	first := c.Classify(append([]domain.Event{}, events...))
	second := c.Classify(append([]domain.Event{}, events...))

	if !reflect.DeepEqual(first, second) {
		t.Error("classification is not idempotent over identical input")
	}
}

func TestStageClassifier_EmptyInput(t *testing.T) {
	c := newTestClassifier()

	classified := c.Classify(nil)
	if len(classified) != 0 {
		t.Errorf("expected empty output, got %d events", len(classified))
	}
}

func TestStageClassifier_TieBreakPrefersEarlierStage(t *testing.T) {
	cfg := config.Default().Funnel
	c := NewStageClassifier(cfg, NewMatcher(cfg), &mockLogger{})

	// Exact tie at 0.3: a page_view on the signup page at position 1 scores
	// AWARENESS external source (0.3) and CONVERSION signup view (0.3). The
	// strict comparison keeps the stage evaluated first.
	events := []domain.Event{
		{UserID: "u", SessionID: "s", Name: "noop", PagePath: "/x", Source: "partner", Medium: "referral", Timestamp: ts(0)},
		{UserID: "u", SessionID: "s", Name: "page_view", PagePath: "/signup", Source: "partner", Medium: "referral", Timestamp: ts(1)},
	}
	sortEventsByTime(events)

	stage, confidence := c.classifyEvent(events[1], events, 1)
	if stage != domain.StageAwareness {
		t.Errorf("expected AWARENESS on tie, got %s", stage)
	}
	if confidence != awarenessExternal {
		t.Errorf("expected confidence %f, got %f", awarenessExternal, confidence)
	}
}
