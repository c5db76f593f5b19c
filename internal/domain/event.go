package domain

import "time"

// Event represents a single observed user action from the analytics source.
// This is the input to the funnel analyzer; events are read-only for a run.
type Event struct {
	UserID    string    `db:"user_id"    json:"user_id"`
	SessionID string    `db:"session_id" json:"session_id"`
	Name      string    `db:"event_name" json:"event_name"`
	PagePath  string    `db:"page_path"  json:"page_path"`
	Source    string    `db:"source"     json:"source"`
	Medium    string    `db:"medium"     json:"medium"`
	Timestamp time.Time `db:"event_ts"   json:"timestamp"`

	// Optional fields. Zero values mean the source did not report them.
	DeviceCategory string `db:"device_category" json:"device_category,omitempty"`
	Country        string `db:"country"         json:"country,omitempty"`
	EngagementMs   int64  `db:"engagement_ms"   json:"engagement_time_ms,omitempty"`
}

// SourceMedium returns the combined "source/medium" key used by the
// traffic-group pattern table.
func (e Event) SourceMedium() string {
	return e.Source + "/" + e.Medium
}

// ClassifiedEvent is an Event augmented with its funnel stage assignment.
// Classification never drops or merges events: one ClassifiedEvent per Event.
type ClassifiedEvent struct {
	Event

	FunnelStage  Stage   `json:"funnel_stage"`
	Confidence   float64 `json:"stage_confidence"` // 0.0-1.0
	PageCategory string  `json:"page_category"`
}

// PageView is one row of the raw page-navigation-sequence relation
// (independent of funnel classification).
type PageView struct {
	UserID    string    `db:"user_id"   json:"user_id"`
	SessionID string    `db:"session_id" json:"session_id"`
	PagePath  string    `db:"page_path" json:"page_path"`
	Timestamp time.Time `db:"event_ts"  json:"timestamp"`
}

// ConversionEvent is one row of the conversion-event relation: an occurrence
// of the configured conversion event.
type ConversionEvent struct {
	UserID    string    `db:"user_id"    json:"user_id"`
	SessionID string    `db:"session_id" json:"session_id"`
	Name      string    `db:"event_name" json:"event_name"`
	PagePath  string    `db:"page_path"  json:"page_path"`
	Source    string    `db:"source"     json:"source"`
	Medium    string    `db:"medium"     json:"medium"`
	Timestamp time.Time `db:"event_ts"   json:"timestamp"`
}

// UserProgress summarizes one user's funnel progression derived from their
// classified events. "Reached stage X" means the user has at least one event
// classified X; stages are NOT required to occur in order, so a user may show
// CONSIDERATION without INTEREST. That is intentional: real journeys are not
// strictly linear.
type UserProgress struct {
	UserID               string `json:"user_id"`
	TotalEvents          int    `json:"total_events"`
	UniquePages          int    `json:"unique_pages"`
	Sessions             int    `json:"sessions"`
	StagesReached        int    `json:"stages_reached"`
	ReachedAwareness     bool   `json:"reached_awareness"`
	ReachedInterest      bool   `json:"reached_interest"`
	ReachedConsideration bool   `json:"reached_consideration"`
	ReachedConversion    bool   `json:"reached_conversion"`
	HighestStage         Stage  `json:"highest_stage"`
	FirstSource          string `json:"first_source"`
	FirstMedium          string `json:"first_medium"`
}

// Reached reports whether the user reached the given stage.
func (p UserProgress) Reached(s Stage) bool {
	switch s {
	case StageAwareness:
		return p.ReachedAwareness
	case StageInterest:
		return p.ReachedInterest
	case StageConsideration:
		return p.ReachedConsideration
	case StageConversion:
		return p.ReachedConversion
	default:
		return false
	}
}
