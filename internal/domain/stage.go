package domain

// Stage is a funnel stage label assigned to a single classified event.
type Stage string

// Funnel stages. UNKNOWN is assigned when no stage rule scores above zero.
const (
	StageAwareness     Stage = "AWARENESS"
	StageInterest      Stage = "INTEREST"
	StageConsideration Stage = "CONSIDERATION"
	StageConversion    Stage = "CONVERSION"
	StageUnknown       Stage = "UNKNOWN"
)

// StageOrder is the fixed funnel order. It drives step-conversion pairing,
// highest-stage resolution, and classifier tie-breaking, so its order is
// load-bearing and must not be changed.
var StageOrder = []Stage{
	StageAwareness,
	StageInterest,
	StageConsideration,
	StageConversion,
}

// Valid reports whether s is one of the closed set of stage labels.
func (s Stage) Valid() bool {
	switch s {
	case StageAwareness, StageInterest, StageConsideration, StageConversion, StageUnknown:
		return true
	}
	return false
}

// HighestStage returns the latest stage in funnel order present in stages,
// or StageUnknown when none of the four real stages is present.
func HighestStage(stages map[Stage]bool) Stage {
	for i := len(StageOrder) - 1; i >= 0; i-- {
		if stages[StageOrder[i]] {
			return StageOrder[i]
		}
	}
	return StageUnknown
}

// StageRule is the policy record for one funnel stage: the trigger event
// names, the trigger page patterns (literal or "prefix*"), and the stage's
// position in evaluation order. Priority is only relevant when two stages
// score an exact tie; lower priority (earlier stage) wins, matching the
// fixed evaluation order.
type StageRule struct {
	Stage         Stage    `json:"stage"          yaml:"stage"`
	TriggerEvents []string `json:"trigger_events" yaml:"trigger_events"`
	TriggerPages  []string `json:"trigger_pages"  yaml:"trigger_pages"`
	Priority      int      `json:"priority"       yaml:"priority"`
}

// HasTriggerEvent reports whether name is one of the rule's trigger events.
func (r StageRule) HasTriggerEvent(name string) bool {
	for _, ev := range r.TriggerEvents {
		if ev == name {
			return true
		}
	}
	return false
}
