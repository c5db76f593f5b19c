package funnel

import (
	"sort"
	"strings"

	"github.com/jonesrussell/funnel-analyzer/internal/config"
	"github.com/jonesrussell/funnel-analyzer/internal/domain"
)

// Reporting thresholds. Groups below the user minimums are noise and are
// dropped rather than reported with unstable rates.
const (
	minComboUsers   = 5
	minPrefixUsers  = 10
	minSegmentUsers = 20

	topGroups        = 10
	topCommonPaths   = 10
	topCriticalPages = 10
	topDropOffPages  = 5
	topSegments      = 5
	topRawInsights   = 10
	topSummary       = 5
)

// Analyzer derives behavioral patterns from classified events, the raw
// page-view relation and the conversion-event relation. Like the calculator
// it is pure over its inputs.
type Analyzer struct {
	matcher *Matcher
	logger  Logger

	engagementEvents []string
}

// NewAnalyzer creates a pattern analyzer.
func NewAnalyzer(cfg config.FunnelConfig, matcher *Matcher, logger Logger) *Analyzer {
	var engagementEvents []string
	for _, rule := range cfg.StageRules {
		if rule.Stage == domain.StageInterest {
			engagementEvents = rule.TriggerEvents
		}
	}

	return &Analyzer{
		matcher:          matcher,
		logger:           logger,
		engagementEvents: engagementEvents,
	}
}

// Analyze produces the full pattern report.
func (a *Analyzer) Analyze(
	events []domain.ClassifiedEvent,
	pageViews []domain.PageView,
	conversions []domain.ConversionEvent,
	progress []domain.UserProgress,
) *domain.PatternReport {
	converted := convertedSet(progress)
	journeys := buildJourneys(pageViews)

	report := &domain.PatternReport{
		SourcePageCombinations: a.SourcePageCombinations(events, progress),
		Journeys:               a.JourneyPatterns(journeys, converted),
		Engagement:             a.EngagementPatterns(events, progress),
		Temporal:               a.TemporalPatterns(events, conversions),
		HighValueSegments:      a.HighValueSegments(progress),
		ConversionPaths:        a.ConversionPaths(journeys, converted),
		DropOffPoints:          a.DropOffPoints(journeys, progress),
	}
	report.TopOpportunities = a.synthesizeInsights(report)

	a.logger.Debug("pattern analysis complete",
		"users", len(progress),
		"insights", len(report.TopOpportunities))

	return report
}

// SourcePageCombinations finds, per traffic group, the best-converting
// combination of page categories its users visited. A combination is the
// sorted set of distinct categories in a user's journey; combinations seen
// by fewer than five users are dropped. Groups are ranked by their best
// combination's rate, top ten.
func (a *Analyzer) SourcePageCombinations(events []domain.ClassifiedEvent, progress []domain.UserProgress) []domain.SourcePagePattern {
	converted := convertedSet(progress)

	categories := make(map[string]map[string]struct{})
	for _, ev := range events {
		set, ok := categories[ev.UserID]
		if !ok {
			set = make(map[string]struct{})
			categories[ev.UserID] = set
		}
		set[ev.PageCategory] = struct{}{}
	}

	type comboAcc struct {
		users       int
		conversions int
	}
	type groupAcc struct {
		users  int
		combos map[string]*comboAcc
	}

	groups := make(map[string]*groupAcc)
	for _, p := range progress {
		set, ok := categories[p.UserID]
		if !ok {
			continue
		}
		group := a.matcher.TrafficGroup(p.FirstSource, p.FirstMedium)
		g, found := groups[group]
		if !found {
			g = &groupAcc{combos: make(map[string]*comboAcc)}
			groups[group] = g
		}
		g.users++

		combo := comboKey(set)
		c, found := g.combos[combo]
		if !found {
			c = &comboAcc{}
			g.combos[combo] = c
		}
		c.users++
		if converted[p.UserID] {
			c.conversions++
		}
	}

	out := make([]domain.SourcePagePattern, 0, len(groups))
	for group, g := range groups {
		var best *domain.ComboStats
		qualifying := 0
		for combo, c := range g.combos {
			if c.users < minComboUsers {
				continue
			}
			qualifying++
			stats := domain.ComboStats{
				Combination:    combo,
				Users:          c.users,
				Conversions:    c.conversions,
				ConversionRate: rate(c.conversions, c.users),
			}
			if best == nil || betterCombo(stats, *best) {
				s := stats
				best = &s
			}
		}
		if best == nil {
			continue
		}
		out = append(out, domain.SourcePagePattern{
			TrafficGroup:      group,
			BestCombination:   *best,
			TotalCombinations: qualifying,
			GroupUsers:        g.users,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].BestCombination.ConversionRate, out[j].BestCombination.ConversionRate
		if ri != rj {
			return ri > rj
		}
		if out[i].GroupUsers != out[j].GroupUsers {
			return out[i].GroupUsers > out[j].GroupUsers
		}
		return out[i].TrafficGroup < out[j].TrafficGroup
	})

	return top(out, topGroups)
}

// comboKey canonicalizes a category set as sorted names joined with " + ".
func comboKey(set map[string]struct{}) string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, " + ")
}

func betterCombo(a, b domain.ComboStats) bool {
	if a.ConversionRate != b.ConversionRate {
		return a.ConversionRate > b.ConversionRate
	}
	if a.Users != b.Users {
		return a.Users > b.Users
	}
	return a.Combination < b.Combination
}
