package funnel

import (
	"sort"

	"github.com/jonesrussell/funnel-analyzer/internal/domain"
)

// Engagement score weights. The score is a heuristic blend of breadth
// (events, pages), depth (long engagements) and loyalty (sessions).
const (
	weightDistinctEvents  = 2.0
	weightDistinctPages   = 1.5
	weightDeepEngagements = 3.0
	weightSessions        = 5.0
)

// EngagementPatterns compares per-user engagement scores between converted
// and non-converted users, and breaks engagement down by page category.
func (a *Analyzer) EngagementPatterns(events []domain.ClassifiedEvent, progress []domain.UserProgress) *domain.EngagementPatterns {
	converted := convertedSet(progress)

	type userAcc struct {
		names    map[string]struct{}
		pages    map[string]struct{}
		sessions map[string]struct{}
		deep     int
	}
	users := make(map[string]*userAcc)

	type catAcc struct {
		users  map[string]struct{}
		events int
	}
	categories := make(map[string]*catAcc)

	for _, ev := range events {
		u, ok := users[ev.UserID]
		if !ok {
			u = &userAcc{
				names:    make(map[string]struct{}),
				pages:    make(map[string]struct{}),
				sessions: make(map[string]struct{}),
			}
			users[ev.UserID] = u
		}
		u.names[ev.Name] = struct{}{}
		u.pages[ev.PagePath] = struct{}{}
		u.sessions[ev.SessionID] = struct{}{}
		if a.isDeepEngagement(ev) {
			u.deep++
		}

		c, ok := categories[ev.PageCategory]
		if !ok {
			c = &catAcc{users: make(map[string]struct{})}
			categories[ev.PageCategory] = c
		}
		c.users[ev.UserID] = struct{}{}
		c.events++
	}

	var convScores, nonConvScores []float64
	for id, u := range users {
		score := weightDistinctEvents*float64(len(u.names)) +
			weightDistinctPages*float64(len(u.pages)) +
			weightDeepEngagements*float64(u.deep) +
			weightSessions*float64(len(u.sessions))
		if converted[id] {
			convScores = append(convScores, score)
		} else {
			nonConvScores = append(nonConvScores, score)
		}
	}

	byCategory := make(map[string]domain.CategoryEngagement, len(categories))
	for name, c := range categories {
		total := len(c.users)
		conversions := 0
		for id := range c.users {
			if converted[id] {
				conversions++
			}
		}
		byCategory[name] = domain.CategoryEngagement{
			TotalUsers:       total,
			ConvertedUsers:   conversions,
			ConversionRate:   rate(conversions, total),
			AvgEventsPerUser: avg(c.events, total),
		}
	}

	convAvg := mean(convScores)
	nonConvAvg := mean(nonConvScores)
	return &domain.EngagementPatterns{
		ConvertedAvgScore:    convAvg,
		NonConvertedAvgScore: nonConvAvg,
		ScoreDifference:      convAvg - nonConvAvg,
		ByPageCategory:       byCategory,
	}
}

// isDeepEngagement reports whether an event is an engagement-class event.
// Duration is not required; engagement-class events count even when the
// optional duration field is absent.
func (a *Analyzer) isDeepEngagement(ev domain.ClassifiedEvent) bool {
	for _, name := range a.engagementEvents {
		if ev.Name == name {
			return true
		}
	}
	return false
}

// segmentDef is one named boolean predicate over a user's progress record.
type segmentDef struct {
	name        string
	description string
	matches     func(a *Analyzer, p domain.UserProgress) bool
}

// segmentDefs returns the fixed segment catalog in evaluation order.
func segmentDefs() []segmentDef {
	return []segmentDef{
		{
			name:        "engaged_explorers",
			description: "Users with 10+ events who reached INTEREST",
			matches: func(_ *Analyzer, p domain.UserProgress) bool {
				return p.TotalEvents >= 10 && p.ReachedInterest
			},
		},
		{
			name:        "returning_visitors",
			description: "Users with 2+ distinct sessions",
			matches: func(_ *Analyzer, p domain.UserProgress) bool {
				return p.Sessions >= 2
			},
		},
		{
			name:        "paid_search_researchers",
			description: "Paid-search users who reached 3+ funnel stages",
			matches: func(a *Analyzer, p domain.UserProgress) bool {
				return a.matcher.TrafficGroup(p.FirstSource, p.FirstMedium) == "paid_search" &&
					p.StagesReached >= 3
			},
		},
		{
			name:        "mid_funnel_users",
			description: "Users who reached both INTEREST and CONSIDERATION",
			matches: func(_ *Analyzer, p domain.UserProgress) bool {
				return p.ReachedInterest && p.ReachedConsideration
			},
		},
	}
}

// HighValueSegments evaluates the fixed segment catalog against the user
// population. Segments need at least twenty matching users to qualify and
// are ranked by conversion rate times user count, top five.
func (a *Analyzer) HighValueSegments(progress []domain.UserProgress) []domain.SegmentStats {
	out := make([]domain.SegmentStats, 0, len(segmentDefs()))

	for _, def := range segmentDefs() {
		users, conversions := 0, 0
		totalEvents, totalPages := 0, 0
		for _, p := range progress {
			if !def.matches(a, p) {
				continue
			}
			users++
			totalEvents += p.TotalEvents
			totalPages += p.UniquePages
			if p.ReachedConversion {
				conversions++
			}
		}
		if users < minSegmentUsers {
			continue
		}
		r := rate(conversions, users)
		out = append(out, domain.SegmentStats{
			Name:           def.name,
			Description:    def.description,
			Users:          users,
			Conversions:    conversions,
			ConversionRate: r,
			AvgEvents:      avg(totalEvents, users),
			AvgPages:       avg(totalPages, users),
			Value:          r * float64(users),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value > out[j].Value
	})

	return top(out, topSegments)
}
