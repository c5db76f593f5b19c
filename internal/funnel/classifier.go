package funnel

import (
	"sort"

	"github.com/jonesrussell/funnel-analyzer/internal/config"
	"github.com/jonesrussell/funnel-analyzer/internal/domain"
)

// StageClassifier assigns a funnel stage and confidence to raw analytics
// events. Classification is deterministic: the same events in any input
// order produce the same output, because events are partitioned by user and
// sorted by timestamp before scoring.
type StageClassifier struct {
	scorers []stageScorer
	rules   map[domain.Stage]domain.StageRule
	matcher *Matcher
	logger  Logger

	minEngagementSec int
	conversionEvent  string
	signupPage       string

	awarenessRule domain.StageRule
	interestRule  domain.StageRule
}

// NewStageClassifier creates a classifier from the funnel configuration.
func NewStageClassifier(cfg config.FunnelConfig, matcher *Matcher, logger Logger) *StageClassifier {
	rules := make(map[domain.Stage]domain.StageRule, len(cfg.StageRules))
	for _, rule := range cfg.StageRules {
		rules[rule.Stage] = rule
	}

	return &StageClassifier{
		scorers:          scorerTable(),
		rules:            rules,
		matcher:          matcher,
		logger:           logger,
		minEngagementSec: cfg.MinEngagementSec,
		conversionEvent:  cfg.ConversionEvent,
		signupPage:       cfg.SignupPage,
		awarenessRule:    rules[domain.StageAwareness],
		interestRule:     rules[domain.StageInterest],
	}
}

// Classify partitions events by user, orders each user's events by
// timestamp, and classifies every event. The result is grouped by user ID in
// ascending order so repeated runs over the same input are byte-identical.
func (c *StageClassifier) Classify(events []domain.Event) []domain.ClassifiedEvent {
	if len(events) == 0 {
		c.logger.Info("no events to classify")
		return []domain.ClassifiedEvent{}
	}

	byUser := partitionByUser(events)

	userIDs := make([]string, 0, len(byUser))
	for id := range byUser {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)

	classified := make([]domain.ClassifiedEvent, 0, len(events))
	for _, id := range userIDs {
		classified = append(classified, c.ClassifyUser(byUser[id])...)
	}

	c.logger.Debug("classified events",
		"events", len(classified),
		"users", len(userIDs))

	return classified
}

// ClassifyUser classifies a single user's events. Events are sorted by
// timestamp in place before scoring; positional signals (first event,
// session depth, prior-stage evidence) depend on that order.
func (c *StageClassifier) ClassifyUser(events []domain.Event) []domain.ClassifiedEvent {
	sortEventsByTime(events)

	classified := make([]domain.ClassifiedEvent, 0, len(events))
	for pos, ev := range events {
		stage, confidence := c.classifyEvent(ev, events, pos)
		classified = append(classified, domain.ClassifiedEvent{
			Event:        ev,
			FunnelStage:  stage,
			Confidence:   confidence,
			PageCategory: c.matcher.PageCategory(ev.PagePath),
		})
	}

	return classified
}

// classifyEvent scores one event against every stage and returns the stage
// with the highest confidence. Comparison is strict, so on an exact tie the
// stage evaluated earlier wins. An event no stage scores above zero is
// UNKNOWN with confidence 0.
func (c *StageClassifier) classifyEvent(ev domain.Event, ctx []domain.Event, pos int) (domain.Stage, float64) {
	best := domain.StageUnknown
	bestConfidence := 0.0

	for _, scorer := range c.scorers {
		confidence := scorer.score(c, ev, ctx, pos, c.rules[scorer.stage])
		if confidence > bestConfidence {
			best = scorer.stage
			bestConfidence = confidence
		}
	}

	return best, bestConfidence
}

// partitionByUser groups events by user ID. Slices share no backing array
// with the input so per-user sorting cannot disturb other users.
func partitionByUser(events []domain.Event) map[string][]domain.Event {
	byUser := make(map[string][]domain.Event)
	for _, ev := range events {
		byUser[ev.UserID] = append(byUser[ev.UserID], ev)
	}
	return byUser
}
