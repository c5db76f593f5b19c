package funnel

import (
	"sort"

	"github.com/jonesrussell/funnel-analyzer/internal/domain"
)

// UserProgression reduces classified events to one progress record per user,
// sorted by user ID. Stage membership is per-event: a user "reached" a stage
// when any of their events is classified into it, with no ordering
// requirement between stages.
func UserProgression(events []domain.ClassifiedEvent) []domain.UserProgress {
	type acc struct {
		stages   map[domain.Stage]bool
		pages    map[string]struct{}
		sessions map[string]struct{}
		first    domain.ClassifiedEvent
		total    int
	}

	byUser := make(map[string]*acc)
	for _, ev := range events {
		a, ok := byUser[ev.UserID]
		if !ok {
			a = &acc{
				stages:   make(map[domain.Stage]bool),
				pages:    make(map[string]struct{}),
				sessions: make(map[string]struct{}),
				first:    ev,
			}
			byUser[ev.UserID] = a
		}
		if ev.Timestamp.Before(a.first.Timestamp) {
			a.first = ev
		}
		a.total++
		a.pages[ev.PagePath] = struct{}{}
		a.sessions[ev.SessionID] = struct{}{}
		if ev.FunnelStage != domain.StageUnknown {
			a.stages[ev.FunnelStage] = true
		}
	}

	progress := make([]domain.UserProgress, 0, len(byUser))
	for id, a := range byUser {
		progress = append(progress, domain.UserProgress{
			UserID:               id,
			TotalEvents:          a.total,
			UniquePages:          len(a.pages),
			Sessions:             len(a.sessions),
			StagesReached:        len(a.stages),
			ReachedAwareness:     a.stages[domain.StageAwareness],
			ReachedInterest:      a.stages[domain.StageInterest],
			ReachedConsideration: a.stages[domain.StageConsideration],
			ReachedConversion:    a.stages[domain.StageConversion],
			HighestStage:         domain.HighestStage(a.stages),
			FirstSource:          a.first.Source,
			FirstMedium:          a.first.Medium,
		})
	}

	sort.Slice(progress, func(i, j int) bool {
		return progress[i].UserID < progress[j].UserID
	})

	return progress
}

// Transitions counts, for each adjacent stage pair, the users who reached
// both stages. Rates are over the total user population; an empty population
// yields all zeros.
func Transitions(progress []domain.UserProgress) domain.StageTransitions {
	t := domain.StageTransitions{TotalUsers: len(progress)}

	for _, p := range progress {
		if p.ReachedAwareness && p.ReachedInterest {
			t.AwarenessToInterest++
		}
		if p.ReachedInterest && p.ReachedConsideration {
			t.InterestToConsideration++
		}
		if p.ReachedConsideration && p.ReachedConversion {
			t.ConsiderationToConversion++
		}
	}

	t.AwarenessToInterestRate = rate(t.AwarenessToInterest, t.TotalUsers)
	t.InterestToConsiderRate = rate(t.InterestToConsideration, t.TotalUsers)
	t.ConsiderToConversionRate = rate(t.ConsiderationToConversion, t.TotalUsers)

	return t
}

// rate returns numerator/denominator as a percentage, or 0 when the
// denominator is zero.
func rate(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator) * 100
}
