package funnel

import (
	"sort"
	"time"

	"github.com/jonesrussell/funnel-analyzer/internal/domain"
)

// directSource is the value analytics sources report for direct traffic.
const directSource = "(direct)"

// Signal weights. Each stage confidence is an additive sum of the signals
// that fire, clamped to 1.0 — clamping, not normalization, so a stage with
// many weak signals can still reach full confidence.
const (
	awarenessSessionStart = 0.8
	awarenessFirstVisit   = 0.9
	awarenessExternal     = 0.3
	awarenessLandingPage  = 0.4
	awarenessFirstEvent   = 0.3

	interestEngagementEvent = 0.7
	interestBlogVisit       = 0.6
	interestContentPage     = 0.5
	interestLongEngagement  = 0.4
	interestPriorAwareness  = 0.2

	considerationServicePage   = 0.8
	considerationThreePages    = 0.3
	considerationFivePages     = 0.2
	considerationDeepSession   = 0.2
	considerationPriorInterest = 0.3
	considerationReturnVisit   = 0.2

	conversionSignupView       = 0.3
	conversionSignupEngagement = 0.5

	// minDistinctPages / deepDistinctPages are the CONSIDERATION breadth
	// thresholds; minSessionDepth is its ordinal-position threshold.
	minDistinctPages  = 3
	deepDistinctPages = 5
	minSessionDepth   = 3
)

// scoreFunc computes a confidence in [0,1] for one event against one stage.
// ctx is the user's full event list in timestamp order and pos is the
// event's index within it; several signals inspect events prior to pos.
type scoreFunc func(c *StageClassifier, ev domain.Event, ctx []domain.Event, pos int, rule domain.StageRule) float64

// stageScorer pairs a stage with its scoring function. Scorers are held in a
// fixed slice, not a map: evaluation order resolves exact-confidence ties
// (the earlier stage wins), so iteration order must be deterministic.
type stageScorer struct {
	stage domain.Stage
	score scoreFunc
}

// scorerTable returns the stage scorers in funnel evaluation order.
func scorerTable() []stageScorer {
	return []stageScorer{
		{domain.StageAwareness, (*StageClassifier).scoreAwareness},
		{domain.StageInterest, (*StageClassifier).scoreInterest},
		{domain.StageConsideration, (*StageClassifier).scoreConsideration},
		{domain.StageConversion, (*StageClassifier).scoreConversion},
	}
}

func (c *StageClassifier) scoreAwareness(ev domain.Event, ctx []domain.Event, pos int, rule domain.StageRule) float64 {
	confidence := 0.0

	switch ev.Name {
	case "session_start":
		confidence += awarenessSessionStart
	case "first_visit":
		confidence += awarenessFirstVisit
	}

	if ev.Source != directSource {
		confidence += awarenessExternal
	}

	if matchesAny(rule.TriggerPages, ev.PagePath) {
		confidence += awarenessLandingPage
	}

	if pos == 0 {
		confidence += awarenessFirstEvent
	}

	return clamp(confidence)
}

func (c *StageClassifier) scoreInterest(ev domain.Event, ctx []domain.Event, pos int, rule domain.StageRule) float64 {
	confidence := 0.0

	if rule.HasTriggerEvent(ev.Name) {
		confidence += interestEngagementEvent
	}

	if ev.Name == "visit_blog" {
		confidence += interestBlogVisit
	}

	if matchesAny(rule.TriggerPages, ev.PagePath) {
		confidence += interestContentPage
	}

	// Missing engagement duration simply skips the signal.
	if ev.EngagementMs > 0 {
		if time.Duration(ev.EngagementMs)*time.Millisecond > time.Duration(c.minEngagementSec)*time.Second {
			confidence += interestLongEngagement
		}
	}

	if c.hasPriorEvent(ctx, pos, c.awarenessRule.TriggerEvents) {
		confidence += interestPriorAwareness
	}

	return clamp(confidence)
}

func (c *StageClassifier) scoreConsideration(ev domain.Event, ctx []domain.Event, pos int, rule domain.StageRule) float64 {
	confidence := 0.0

	if matchesAny(rule.TriggerPages, ev.PagePath) {
		confidence += considerationServicePage
	}

	// Breadth of exploration: distinct pages visited up to and including
	// this event.
	distinct := distinctPagesThrough(ctx, pos)
	if distinct >= minDistinctPages {
		confidence += considerationThreePages
	}
	if distinct >= deepDistinctPages {
		confidence += considerationFivePages
	}

	if pos+1 >= minSessionDepth {
		confidence += considerationDeepSession
	}

	if c.hasPriorEvent(ctx, pos, c.interestRule.TriggerEvents) {
		confidence += considerationPriorInterest
	}

	// Direct traffic is treated as a proxy for a returning visitor.
	if ev.Source == directSource {
		confidence += considerationReturnVisit
	}

	return clamp(confidence)
}

func (c *StageClassifier) scoreConversion(ev domain.Event, ctx []domain.Event, pos int, rule domain.StageRule) float64 {
	// The configured conversion event is terminal: full confidence,
	// regardless of context.
	if ev.Name == c.conversionEvent {
		return 1.0
	}

	confidence := 0.0
	if ev.PagePath == c.signupPage {
		switch ev.Name {
		case "page_view":
			confidence += conversionSignupView
		case "user_engagement":
			confidence += conversionSignupEngagement
		}
	}

	return clamp(confidence)
}

// hasPriorEvent reports whether any event strictly before pos has a name in
// names.
func (c *StageClassifier) hasPriorEvent(ctx []domain.Event, pos int, names []string) bool {
	for i := 0; i < pos; i++ {
		for _, name := range names {
			if ctx[i].Name == name {
				return true
			}
		}
	}
	return false
}

// distinctPagesThrough counts distinct page paths in ctx[0..pos].
func distinctPagesThrough(ctx []domain.Event, pos int) int {
	seen := make(map[string]struct{}, pos+1)
	for i := 0; i <= pos && i < len(ctx); i++ {
		seen[ctx[i].PagePath] = struct{}{}
	}
	return len(seen)
}

func clamp(confidence float64) float64 {
	if confidence > 1.0 {
		return 1.0
	}
	return confidence
}

// sortEventsByTime orders events by timestamp ascending. The sort is stable
// so same-timestamp events keep their input order.
func sortEventsByTime(events []domain.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}
