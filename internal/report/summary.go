package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jonesrussell/funnel-analyzer/internal/domain"
	"github.com/jonesrussell/funnel-analyzer/internal/processor"
)

// Funnel health grades by overall conversion rate.
const (
	gradeExcellent = "A"
	gradeGood      = "B"
	gradeFair      = "C"
	gradeWeak      = "D"
	gradeFailing   = "F"
)

// WriteSummary writes the executive text summary and returns its path.
func (w *Writer) WriteSummary(result *processor.AnalysisResult, at time.Time) (string, error) {
	if err := w.ensureDir(); err != nil {
		return "", err
	}

	path := w.timestampedName("funnel_summary", "txt", at)
	if err := os.WriteFile(path, []byte(w.Summary(result)), 0o600); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}

	w.logger.Info("summary written", "path", path)
	return path, nil
}

// Summary renders the executive summary as text. Large numbers are grouped
// with the English locale printer so 12500 reads as 12,500.
func (w *Writer) Summary(result *processor.AnalysisResult) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	overview := result.Conversions.Overview

	b.WriteString("MARKETING FUNNEL ANALYSIS\n")
	b.WriteString("=========================\n\n")
	p.Fprintf(&b, "Period: %s to %s\n",
		result.From.Format("2006-01-02"), result.To.Format("2006-01-02"))
	p.Fprintf(&b, "Users analyzed: %d\n", overview.TotalUsers)
	p.Fprintf(&b, "Overall conversion rate: %.1f%%\n", overview.OverallRate)
	p.Fprintf(&b, "Funnel health: %s\n\n", healthGrade(overview.OverallRate))

	b.WriteString("STAGE REACH\n")
	for _, stage := range domain.StageOrder {
		p.Fprintf(&b, "  %-14s %d users (%.1f%%)\n",
			stage, overview.StageCounts[stage], overview.StageRates[stage])
	}
	b.WriteString("\n")

	if step, ok := bottleneck(overview); ok {
		b.WriteString("BOTTLENECK\n")
		p.Fprintf(&b, "  %s -> %s at %.1f%%\n\n", step.From, step.To, step.Rate)
	}

	p.Fprintf(&b, "Optimization score: %d/100\n\n", optimizationScore(result))

	insights := topInsights(result)
	if len(insights) > 0 {
		b.WriteString("KEY OPPORTUNITIES\n")
		for i, insight := range insights {
			p.Fprintf(&b, "  %d. [%s] %s\n", i+1, insight.Priority, insight.Description)
			p.Fprintf(&b, "     %s\n", insight.Recommendation)
		}
	}

	return b.String()
}

// bottleneck returns the weakest step with a populated denominator.
func bottleneck(overview *domain.StageFunnel) (domain.StepConversion, bool) {
	var worst domain.StepConversion
	found := false
	for _, step := range overview.StepConversions {
		if overview.StageCounts[step.From] == 0 {
			continue
		}
		if !found || step.Rate < worst.Rate {
			worst = step
			found = true
		}
	}
	return worst, found
}

func healthGrade(overallRate float64) string {
	switch {
	case overallRate >= 15:
		return gradeExcellent
	case overallRate >= 10:
		return gradeGood
	case overallRate >= 5:
		return gradeFair
	case overallRate >= 2:
		return gradeWeak
	default:
		return gradeFailing
	}
}

// optimizationScore is a 0-100 blend of the overall rate and the weakest
// step, penalized by outstanding High-priority insights.
func optimizationScore(result *processor.AnalysisResult) int {
	overview := result.Conversions.Overview

	score := overview.OverallRate * 2
	if step, ok := bottleneck(overview); ok {
		score += step.Rate / 2
	}
	for _, insight := range topInsights(result) {
		if insight.Priority == domain.PriorityHigh {
			score -= 10
		}
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return int(score)
}

// topInsights merges calculator opportunities with pattern opportunities,
// calculator first, capped at five.
func topInsights(result *processor.AnalysisResult) []domain.Insight {
	var insights []domain.Insight
	if result.Conversions != nil {
		insights = append(insights, result.Conversions.Opportunities...)
	}
	if result.Patterns != nil {
		insights = append(insights, result.Patterns.TopOpportunities...)
	}
	if len(insights) > 5 {
		insights = insights[:5]
	}
	return insights
}
