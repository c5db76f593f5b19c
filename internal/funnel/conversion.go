package funnel

import (
	"sort"
	"strings"

	"github.com/jonesrussell/funnel-analyzer/internal/domain"
)

// contentCategory is the page-category name the content aggregate keys on.
const contentCategory = "content"

// Calculator computes the conversion aggregates from classified events and
// the per-user progression derived from them. All methods are pure over
// their inputs and safe for concurrent use.
type Calculator struct {
	matcher *Matcher
	logger  Logger
}

// NewCalculator creates a conversion calculator.
func NewCalculator(matcher *Matcher, logger Logger) *Calculator {
	return &Calculator{matcher: matcher, logger: logger}
}

// StageFunnel computes per-stage user reach, adjacent step rates and the
// overall conversion rate. Stage counts are independent reach counts, not a
// strict funnel: a user can count toward CONSIDERATION without INTEREST.
func (c *Calculator) StageFunnel(progress []domain.UserProgress) *domain.StageFunnel {
	counts := make(map[domain.Stage]int, len(domain.StageOrder))
	for _, p := range progress {
		for _, stage := range domain.StageOrder {
			if p.Reached(stage) {
				counts[stage]++
			}
		}
	}

	total := len(progress)
	rates := make(map[domain.Stage]float64, len(domain.StageOrder))
	for _, stage := range domain.StageOrder {
		rates[stage] = rate(counts[stage], total)
	}

	steps := make([]domain.StepConversion, 0, len(domain.StageOrder)-1)
	for i := 0; i+1 < len(domain.StageOrder); i++ {
		from, to := domain.StageOrder[i], domain.StageOrder[i+1]
		steps = append(steps, domain.StepConversion{
			From: from,
			To:   to,
			Rate: rate(counts[to], counts[from]),
		})
	}

	return &domain.StageFunnel{
		TotalUsers:      total,
		StageCounts:     counts,
		StageRates:      rates,
		StepConversions: steps,
		OverallRate:     rate(counts[domain.StageConversion], total),
	}
}

// SourceConversions groups users by their first-seen (source, medium) pair
// and reports conversion performance per group, sorted by rate descending
// (users, then source/medium key break ties).
func (c *Calculator) SourceConversions(progress []domain.UserProgress) []domain.SourceConversion {
	type acc struct {
		source, medium string
		users          int
		conversions    int
	}

	groups := make(map[string]*acc)
	for _, p := range progress {
		key := p.FirstSource + "/" + p.FirstMedium
		a, ok := groups[key]
		if !ok {
			a = &acc{source: p.FirstSource, medium: p.FirstMedium}
			groups[key] = a
		}
		a.users++
		if p.ReachedConversion {
			a.conversions++
		}
	}

	out := make([]domain.SourceConversion, 0, len(groups))
	for key, a := range groups {
		r := rate(a.conversions, a.users)
		out = append(out, domain.SourceConversion{
			Source:         a.source,
			Medium:         a.medium,
			SourceMedium:   key,
			TrafficGroup:   c.matcher.TrafficGroup(a.source, a.medium),
			TotalUsers:     a.users,
			Conversions:    a.conversions,
			ConversionRate: r,
			TrafficQuality: assessTrafficQuality(r, a.users),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ConversionRate != out[j].ConversionRate {
			return out[i].ConversionRate > out[j].ConversionRate
		}
		if out[i].TotalUsers != out[j].TotalUsers {
			return out[i].TotalUsers > out[j].TotalUsers
		}
		return out[i].SourceMedium < out[j].SourceMedium
	})

	return out
}

// ContentConversions reports conversion performance per content page. Only
// pages in the content category participate; a visitor counts as converted
// when they reached CONVERSION anywhere in their journey, not only on the
// page itself.
func (c *Calculator) ContentConversions(events []domain.ClassifiedEvent, progress []domain.UserProgress) []domain.ContentConversion {
	converted := convertedSet(progress)

	type acc struct {
		visitors     map[string]struct{}
		interactions int
	}

	pages := make(map[string]*acc)
	for _, ev := range events {
		if ev.PageCategory != contentCategory {
			continue
		}
		a, ok := pages[ev.PagePath]
		if !ok {
			a = &acc{visitors: make(map[string]struct{})}
			pages[ev.PagePath] = a
		}
		a.visitors[ev.UserID] = struct{}{}
		a.interactions++
	}

	out := make([]domain.ContentConversion, 0, len(pages))
	for path, a := range pages {
		users := len(a.visitors)
		conversions := 0
		for id := range a.visitors {
			if converted[id] {
				conversions++
			}
		}
		r := rate(conversions, users)
		out = append(out, domain.ContentConversion{
			PagePath:        path,
			ContentType:     contentTypeOf(path),
			TotalUsers:      users,
			Conversions:     conversions,
			ConversionRate:  r,
			AvgInteractions: avg(a.interactions, users),
			Effectiveness:   assessContentEffectiveness(r, users),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ConversionRate != out[j].ConversionRate {
			return out[i].ConversionRate > out[j].ConversionRate
		}
		if out[i].TotalUsers != out[j].TotalUsers {
			return out[i].TotalUsers > out[j].TotalUsers
		}
		return out[i].PagePath < out[j].PagePath
	})

	return out
}

// DeviceConversions groups users by their modal device category. Events
// without a device category are ignored; if no event carries one the
// aggregate is empty, which is not an error.
func (c *Calculator) DeviceConversions(events []domain.ClassifiedEvent, progress []domain.UserProgress) []domain.DeviceConversion {
	converted := convertedSet(progress)
	device := modalPerUser(events, func(ev domain.ClassifiedEvent) (string, bool) {
		return ev.DeviceCategory, ev.DeviceCategory != ""
	})

	type acc struct {
		users       int
		conversions int
	}
	groups := make(map[string]*acc)
	for id, cat := range device {
		a, ok := groups[cat]
		if !ok {
			a = &acc{}
			groups[cat] = a
		}
		a.users++
		if converted[id] {
			a.conversions++
		}
	}

	total := 0
	for _, a := range groups {
		total += a.users
	}

	out := make([]domain.DeviceConversion, 0, len(groups))
	for cat, a := range groups {
		out = append(out, domain.DeviceConversion{
			DeviceCategory: cat,
			TotalUsers:     a.users,
			Conversions:    a.conversions,
			ConversionRate: rate(a.conversions, a.users),
			UserShare:      rate(a.users, total),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalUsers != out[j].TotalUsers {
			return out[i].TotalUsers > out[j].TotalUsers
		}
		return out[i].DeviceCategory < out[j].DeviceCategory
	})

	return out
}

// TimeConversions buckets users by their modal hour of day and modal day of
// week. Only buckets with at least one user are reported.
func (c *Calculator) TimeConversions(events []domain.ClassifiedEvent, progress []domain.UserProgress) *domain.TimeConversions {
	converted := convertedSet(progress)

	hour := modalPerUser(events, func(ev domain.ClassifiedEvent) (int, bool) {
		return ev.Timestamp.Hour(), true
	})
	day := modalPerUser(events, func(ev domain.ClassifiedEvent) (string, bool) {
		return ev.Timestamp.Weekday().String(), true
	})

	return &domain.TimeConversions{
		Hourly: hourBuckets(hour, converted),
		Daily:  dayBuckets(day, converted),
	}
}

// Summary combines the overview with the top five entries of each dimension
// and the calculator-level optimization opportunities.
func (c *Calculator) Summary(events []domain.ClassifiedEvent, progress []domain.UserProgress) *domain.ConversionSummary {
	overview := c.StageFunnel(progress)
	bySource := c.SourceConversions(progress)
	byContent := c.ContentConversions(events, progress)

	summary := &domain.ConversionSummary{
		Overview:      overview,
		BySource:      top(bySource, 5),
		ByContent:     top(byContent, 5),
		ByDevice:      c.DeviceConversions(events, progress),
		ByTime:        c.TimeConversions(events, progress),
		Opportunities: c.opportunities(overview, bySource, byContent),
	}

	c.logger.Debug("conversion summary computed",
		"users", overview.TotalUsers,
		"overall_rate", overview.OverallRate)

	return summary
}

// opportunities derives the calculator-level optimization insights: funnel
// bottlenecks, under-scaled strong sources and under-performing popular
// content. Results keep High before Medium before Low, stable within a tier,
// capped at ten.
func (c *Calculator) opportunities(overview *domain.StageFunnel, bySource []domain.SourceConversion, byContent []domain.ContentConversion) []domain.Insight {
	var insights []domain.Insight

	for _, step := range overview.StepConversions {
		if overview.StageCounts[step.From] > 0 && step.Rate < 50 {
			insights = append(insights, domain.Insight{
				Type:           "funnel_bottleneck",
				Description:    string(step.From) + " to " + string(step.To) + " conversion is below half",
				Priority:       domain.PriorityHigh,
				Recommendation: "Investigate the " + strings.ToLower(string(step.From)) + " experience for friction",
				Metric:         step.Rate,
			})
		}
	}

	for _, src := range bySource {
		if src.ConversionRate > 15 && src.TotalUsers < 100 {
			insights = append(insights, domain.Insight{
				Type:           "scale_opportunity",
				Description:    src.SourceMedium + " converts well but has low volume",
				Priority:       domain.PriorityMedium,
				Recommendation: "Increase investment in " + src.SourceMedium,
				Metric:         src.ConversionRate,
			})
		}
	}

	for _, content := range byContent {
		if content.ConversionRate < 5 && content.TotalUsers > 50 {
			insights = append(insights, domain.Insight{
				Type:           "content_improvement",
				Description:    content.PagePath + " attracts traffic but rarely converts",
				Priority:       domain.PriorityMedium,
				Recommendation: "Add clearer calls to action on " + content.PagePath,
				Metric:         content.ConversionRate,
			})
		}
	}

	return rankInsights(insights, 10)
}

// convertedSet builds the user-ID set of users who reached CONVERSION.
func convertedSet(progress []domain.UserProgress) map[string]bool {
	converted := make(map[string]bool, len(progress))
	for _, p := range progress {
		if p.ReachedConversion {
			converted[p.UserID] = true
		}
	}
	return converted
}

// modalPerUser computes, per user, the most frequent key produced by extract
// over their events. Ties resolve to the key encountered first in event
// order.
func modalPerUser[K comparable](events []domain.ClassifiedEvent, extract func(domain.ClassifiedEvent) (K, bool)) map[string]K {
	type tally struct {
		counts map[K]int
		order  []K
	}

	perUser := make(map[string]*tally)
	for _, ev := range events {
		key, ok := extract(ev)
		if !ok {
			continue
		}
		t, found := perUser[ev.UserID]
		if !found {
			t = &tally{counts: make(map[K]int)}
			perUser[ev.UserID] = t
		}
		if _, seen := t.counts[key]; !seen {
			t.order = append(t.order, key)
		}
		t.counts[key]++
	}

	modal := make(map[string]K, len(perUser))
	for id, t := range perUser {
		best := t.order[0]
		for _, key := range t.order[1:] {
			if t.counts[key] > t.counts[best] {
				best = key
			}
		}
		modal[id] = best
	}
	return modal
}

func hourBuckets(hourByUser map[string]int, converted map[string]bool) []domain.TimeBucket {
	type acc struct{ users, conversions int }
	buckets := make(map[int]*acc)
	for id, h := range hourByUser {
		a, ok := buckets[h]
		if !ok {
			a = &acc{}
			buckets[h] = a
		}
		a.users++
		if converted[id] {
			a.conversions++
		}
	}

	hours := make([]int, 0, len(buckets))
	for h := range buckets {
		hours = append(hours, h)
	}
	sort.Ints(hours)

	out := make([]domain.TimeBucket, 0, len(hours))
	for _, h := range hours {
		a := buckets[h]
		out = append(out, domain.TimeBucket{
			Hour:           h,
			TotalUsers:     a.users,
			Conversions:    a.conversions,
			ConversionRate: rate(a.conversions, a.users),
		})
	}
	return out
}

func dayBuckets(dayByUser map[string]string, converted map[string]bool) []domain.TimeBucket {
	type acc struct{ users, conversions int }
	buckets := make(map[string]*acc)
	for id, d := range dayByUser {
		a, ok := buckets[d]
		if !ok {
			a = &acc{}
			buckets[d] = a
		}
		a.users++
		if converted[id] {
			a.conversions++
		}
	}

	// Calendar order, Sunday first, skipping empty days.
	week := []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	out := make([]domain.TimeBucket, 0, len(buckets))
	for _, d := range week {
		a, ok := buckets[d]
		if !ok {
			continue
		}
		out = append(out, domain.TimeBucket{
			DayOfWeek:      d,
			TotalUsers:     a.users,
			Conversions:    a.conversions,
			ConversionRate: rate(a.conversions, a.users),
		})
	}
	return out
}

// contentTypeOf labels a content page by its leading path segment.
func contentTypeOf(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return "page"
	}
	if i := strings.IndexByte(trimmed, '/'); i > 0 {
		return trimmed[:i]
	}
	return trimmed
}

// top returns at most n leading elements without copying the backing array.
func top[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func avg(total, count int) float64 {
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}
