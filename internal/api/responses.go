package api

import (
	"fmt"
	"time"

	"github.com/jonesrussell/funnel-analyzer/internal/domain"
)

// HealthResponse is the health/readiness payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AnalyzeRequest selects the analysis window: either an explicit date pair
// or a trailing number of days.
type AnalyzeRequest struct {
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Days          int    `json:"days"`
	IncludeEvents bool   `json:"include_events"`
}

// ClassifyRequest carries raw events to classify.
type ClassifyRequest struct {
	Events []domain.Event `json:"events" binding:"required"`
}

// ClassifyResponse returns classified events with the derived progression
// and stage funnel.
type ClassifyResponse struct {
	Events   []domain.ClassifiedEvent `json:"events"`
	Progress []domain.UserProgress    `json:"user_progress"`
	Funnel   *domain.StageFunnel      `json:"funnel"`
}

// RulesResponse exposes the active funnel configuration.
type RulesResponse struct {
	StageRules       []domain.StageRule `json:"stage_rules"`
	ConversionEvent  string             `json:"conversion_event"`
	SignupPage       string             `json:"signup_page"`
	MinEngagementSec int                `json:"min_engagement_sec"`
}

func errBadDate(field, value string) error {
	return fmt.Errorf("invalid %s %q: expected YYYY-MM-DD", field, value)
}

func errRange(from, to time.Time) error {
	return fmt.Errorf("end_date %s precedes start_date %s",
		to.Format("2006-01-02"), from.Format("2006-01-02"))
}
