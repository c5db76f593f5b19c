package funnel

import (
	"testing"

	"github.com/jonesrussell/funnel-analyzer/internal/config"
	"github.com/jonesrussell/funnel-analyzer/internal/domain"
)

func newTestCalculator() *Calculator {
	return NewCalculator(NewMatcher(config.Default().Funnel), &mockLogger{})
}

func TestCalculator_StageFunnel_ZeroDenominators(t *testing.T) {
	calc := newTestCalculator()

	overview := calc.StageFunnel(nil)
	if overview.TotalUsers != 0 {
		t.Fatalf("expected 0 users, got %d", overview.TotalUsers)
	}
	if overview.OverallRate != 0 {
		t.Errorf("expected overall rate exactly 0, got %f", overview.OverallRate)
	}
	for _, step := range overview.StepConversions {
		if step.Rate != 0 {
			t.Errorf("step %s->%s: expected 0 on zero denominator, got %f", step.From, step.To, step.Rate)
		}
	}
}

func TestCalculator_StageFunnel_RateBounds(t *testing.T) {
	calc := newTestCalculator()

	progress := []domain.UserProgress{
		{UserID: "a", ReachedAwareness: true, ReachedInterest: true, ReachedConversion: true},
		{UserID: "b", ReachedAwareness: true},
	}

	overview := calc.StageFunnel(progress)
	for stage, r := range overview.StageRates {
		if r < 0 || r > 100 {
			t.Errorf("stage %s rate %f out of [0,100]", stage, r)
		}
	}
	if overview.OverallRate != 50.0 {
		t.Errorf("expected 50.0 overall, got %f", overview.OverallRate)
	}

	// INTEREST -> CONSIDERATION has a non-zero denominator but no users.
	for _, step := range overview.StepConversions {
		if step.From == domain.StageInterest && step.Rate != 0 {
			t.Errorf("expected 0 for empty step, got %f", step.Rate)
		}
	}
}

func TestCalculator_SourceConversions_ZeroConversionGroupKept(t *testing.T) {
	calc := newTestCalculator()

	progress := []domain.UserProgress{
		{UserID: "a", FirstSource: "google", FirstMedium: "cpc", ReachedConversion: true},
		{UserID: "b", FirstSource: "bing", FirstMedium: "organic"},
	}

	out := calc.SourceConversions(progress)
	if len(out) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(out))
	}

	var bing *domain.SourceConversion
	for i := range out {
		if out[i].SourceMedium == "bing/organic" {
			bing = &out[i]
		}
	}
	if bing == nil {
		t.Fatal("zero-conversion group was dropped")
	}
	if bing.ConversionRate != 0 {
		t.Errorf("expected rate 0, got %f", bing.ConversionRate)
	}
	if bing.TrafficGroup != "organic_search" {
		t.Errorf("expected organic_search, got %q", bing.TrafficGroup)
	}
}

func TestAssessTrafficQuality_Boundaries(t *testing.T) {
	tests := []struct {
		rate  float64
		users int
		want  string
	}{
		{20, 50, QualityPremium},
		{25, 49, QualityLow}, // high rate, too few users for Premium or High
		{10, 100, QualityHigh},
		{5, 200, QualityMedium},
		{2, 1, QualityLow},
		{1.9, 500, QualityPoor},
	}

	for _, tt := range tests {
		if got := assessTrafficQuality(tt.rate, tt.users); got != tt.want {
			t.Errorf("assessTrafficQuality(%v, %d) = %q, want %q", tt.rate, tt.users, got, tt.want)
		}
	}
}

func TestAssessContentEffectiveness_Boundaries(t *testing.T) {
	tests := []struct {
		rate  float64
		users int
		want  string
	}{
		{30, 20, EffectivenessExcellent},
		{15, 50, EffectivenessGood},
		{8, 100, EffectivenessAverage},
		{3, 5, EffectivenessBelowAverage},
		{2.9, 1000, EffectivenessPoor},
	}

	for _, tt := range tests {
		if got := assessContentEffectiveness(tt.rate, tt.users); got != tt.want {
			t.Errorf("assessContentEffectiveness(%v, %d) = %q, want %q", tt.rate, tt.users, got, tt.want)
		}
	}
}

func TestCalculator_ContentConversions(t *testing.T) {
	calc := newTestCalculator()

	events := []domain.ClassifiedEvent{
		{Event: domain.Event{UserID: "a", PagePath: "/posts/1", Timestamp: ts(0)}, PageCategory: "content"},
		{Event: domain.Event{UserID: "a", PagePath: "/posts/1", Timestamp: ts(1)}, PageCategory: "content"},
		{Event: domain.Event{UserID: "b", PagePath: "/posts/1", Timestamp: ts(2)}, PageCategory: "content"},
		{Event: domain.Event{UserID: "b", PagePath: "/pricing", Timestamp: ts(3)}, PageCategory: "service_info"},
	}
	progress := []domain.UserProgress{
		{UserID: "a", ReachedConversion: true},
		{UserID: "b"},
	}

	out := calc.ContentConversions(events, progress)
	if len(out) != 1 {
		t.Fatalf("expected only the content page, got %d entries", len(out))
	}
	page := out[0]
	if page.PagePath != "/posts/1" {
		t.Fatalf("unexpected page %q", page.PagePath)
	}
	if page.TotalUsers != 2 || page.Conversions != 1 {
		t.Errorf("expected 2 users / 1 conversion, got %d/%d", page.TotalUsers, page.Conversions)
	}
	if page.ConversionRate != 50.0 {
		t.Errorf("expected 50.0, got %f", page.ConversionRate)
	}
	if page.AvgInteractions != 1.5 {
		t.Errorf("expected 1.5 interactions per visitor, got %f", page.AvgInteractions)
	}
	if page.ContentType != "posts" {
		t.Errorf("expected content type posts, got %q", page.ContentType)
	}
}

func TestCalculator_DeviceConversions_MissingColumn(t *testing.T) {
	calc := newTestCalculator()

	events := []domain.ClassifiedEvent{
		{Event: domain.Event{UserID: "a", PagePath: "/", Timestamp: ts(0)}},
	}
	progress := []domain.UserProgress{{UserID: "a"}}

	out := calc.DeviceConversions(events, progress)
	if len(out) != 0 {
		t.Errorf("expected empty aggregate when no event carries a device, got %d", len(out))
	}
}

func TestCalculator_DeviceConversions_ModalTieFirstSeen(t *testing.T) {
	calc := newTestCalculator()

	events := []domain.ClassifiedEvent{
		{Event: domain.Event{UserID: "a", DeviceCategory: "mobile", Timestamp: ts(0)}},
		{Event: domain.Event{UserID: "a", DeviceCategory: "desktop", Timestamp: ts(1)}},
	}
	progress := []domain.UserProgress{{UserID: "a", ReachedConversion: true}}

	out := calc.DeviceConversions(events, progress)
	if len(out) != 1 {
		t.Fatalf("expected 1 device group, got %d", len(out))
	}
	if out[0].DeviceCategory != "mobile" {
		t.Errorf("tie should resolve to first-encountered device, got %q", out[0].DeviceCategory)
	}
	if out[0].UserShare != 100.0 {
		t.Errorf("expected 100%% share, got %f", out[0].UserShare)
	}
}

func TestCalculator_Summary_Opportunities(t *testing.T) {
	calc := newTestCalculator()

	// 10 users reach AWARENESS, 2 reach INTEREST: a 20% step rate trips the
	// bottleneck rule at High priority.
	progress := make([]domain.UserProgress, 0, 10)
	for i := 0; i < 10; i++ {
		p := domain.UserProgress{UserID: string(rune('a' + i)), ReachedAwareness: true, FirstSource: "google", FirstMedium: "organic"}
		if i < 2 {
			p.ReachedInterest = true
		}
		progress = append(progress, p)
	}

	summary := calc.Summary(nil, progress)
	if len(summary.Opportunities) == 0 {
		t.Fatal("expected at least one opportunity")
	}
	first := summary.Opportunities[0]
	if first.Priority != domain.PriorityHigh {
		t.Errorf("expected High priority first, got %s", first.Priority)
	}
	if first.Type != "funnel_bottleneck" {
		t.Errorf("expected funnel_bottleneck, got %s", first.Type)
	}
}
