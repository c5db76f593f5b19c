package funnel

import (
	"fmt"
	"sort"

	"github.com/jonesrussell/funnel-analyzer/internal/domain"
)

// priorityRank orders High before Medium before Low.
var priorityRank = map[string]int{
	domain.PriorityHigh:   0,
	domain.PriorityMedium: 1,
	domain.PriorityLow:    2,
}

// rankInsights orders insights by priority tier only, keeping insertion
// order within a tier, and caps the result at n.
func rankInsights(insights []domain.Insight, n int) []domain.Insight {
	sort.SliceStable(insights, func(i, j int) bool {
		return priorityRank[insights[i].Priority] < priorityRank[insights[j].Priority]
	})
	return top(insights, n)
}

// synthesizeInsights inspects the pattern aggregates and emits the top
// ranked recommendations.
func (a *Analyzer) synthesizeInsights(report *domain.PatternReport) []domain.Insight {
	var insights []domain.Insight

	// The largest drop-off stage is the most actionable lever.
	if point, ok := largestDropOff(report.DropOffPoints); ok && point.DropOffRate >= 30 {
		insights = append(insights, domain.Insight{
			Type:        "dropoff_concentration",
			Description: fmt.Sprintf("%.1f%% of non-converting users stall at %s", point.DropOffRate, point.Stage),
			Priority:    domain.PriorityHigh,
			Recommendation: fmt.Sprintf("Review the %s experience; most drop-offs end on %s",
				point.Stage, topDropPage(point)),
			Metric: point.DropOffRate,
		})
	}

	if report.Journeys != nil && len(report.Journeys.CommonPaths) > 0 {
		best := report.Journeys.CommonPaths[0]
		if best.ConversionRate >= 20 {
			insights = append(insights, domain.Insight{
				Type:           "winning_path",
				Description:    fmt.Sprintf("The path %s converts at %.1f%%", best.Path, best.ConversionRate),
				Priority:       domain.PriorityMedium,
				Recommendation: "Guide more visitors onto this entry path",
				Metric:         best.ConversionRate,
			})
		}
	}

	if report.Engagement != nil && report.Engagement.ScoreDifference > 10 {
		insights = append(insights, domain.Insight{
			Type: "engagement_gap",
			Description: fmt.Sprintf("Converted users score %.1f engagement points higher than non-converted",
				report.Engagement.ScoreDifference),
			Priority:       domain.PriorityMedium,
			Recommendation: "Add engagement prompts for low-scoring visitors early in their journey",
			Metric:         report.Engagement.ScoreDifference,
		})
	}

	if report.Temporal != nil && report.Temporal.ConvertingUsers > 0 {
		share := rate(report.Temporal.Within24hConversions, report.Temporal.ConvertingUsers)
		if share >= 70 {
			insights = append(insights, domain.Insight{
				Type:           "fast_conversion_window",
				Description:    fmt.Sprintf("%.1f%% of conversions happen within 24 hours of first visit", share),
				Priority:       domain.PriorityMedium,
				Recommendation: "Concentrate remarketing inside the first day after a visit",
				Metric:         share,
			})
		}
	}

	for _, segment := range report.HighValueSegments {
		if segment.ConversionRate >= 10 {
			insights = append(insights, domain.Insight{
				Type:           "high_value_segment",
				Description:    fmt.Sprintf("Segment %q converts at %.1f%% across %d users", segment.Name, segment.ConversionRate, segment.Users),
				Priority:       domain.PriorityLow,
				Recommendation: "Target lookalike audiences for this segment",
				Metric:         segment.ConversionRate,
			})
		}
	}

	if report.ConversionPaths != nil && report.ConversionPaths.MostCommonPreConversion != "" {
		insights = append(insights, domain.Insight{
			Type: "pre_conversion_page",
			Description: fmt.Sprintf("%s is the most common page immediately before conversion",
				report.ConversionPaths.MostCommonPreConversion),
			Priority:       domain.PriorityLow,
			Recommendation: "Keep this page fast and free of distractions",
		})
	}

	return rankInsights(insights, topSummary)
}

func largestDropOff(points []domain.DropOffPoint) (domain.DropOffPoint, bool) {
	var best domain.DropOffPoint
	found := false
	for _, p := range points {
		if !found || p.TotalDropped > best.TotalDropped {
			best = p
			found = true
		}
	}
	return best, found
}

func topDropPage(point domain.DropOffPoint) string {
	if len(point.TopPages) == 0 {
		return "an unknown page"
	}
	return point.TopPages[0].Page
}
