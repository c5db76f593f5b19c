package domain

// StageFunnel is the stage-level conversion aggregate. Stage reach counts are
// independent: a user with events at several stages counts in each bucket.
type StageFunnel struct {
	TotalUsers  int               `json:"total_users"`
	StageCounts map[Stage]int     `json:"stage_counts"`
	StageRates  map[Stage]float64 `json:"stage_rates"` // reach / total users x 100

	// StepConversions holds count(stage_i+1)/count(stage_i) x 100 for the
	// adjacent pairs in funnel order. Zero denominator yields 0.
	StepConversions []StepConversion `json:"step_conversions"`

	// OverallRate is count(CONVERSION) / total users x 100.
	OverallRate float64 `json:"overall_conversion_rate"`
}

// StepConversion is one adjacent stage-pair conversion rate.
type StepConversion struct {
	From Stage   `json:"from"`
	To   Stage   `json:"to"`
	Rate float64 `json:"rate"`
}

// SourceConversion aggregates conversion performance for one first-seen
// (source, medium) group.
type SourceConversion struct {
	Source         string  `json:"source"`
	Medium         string  `json:"medium"`
	SourceMedium   string  `json:"source_medium"`
	TrafficGroup   string  `json:"traffic_group"`
	TotalUsers     int     `json:"total_users"`
	Conversions    int     `json:"conversions"`
	ConversionRate float64 `json:"conversion_rate"`
	TrafficQuality string  `json:"traffic_quality"` // Premium/High/Medium/Low/Poor
}

// ContentConversion aggregates conversion performance for one content page.
// Conversions count visitors who reached CONVERSION anywhere in their
// journey, not only on the content page itself.
type ContentConversion struct {
	PagePath        string  `json:"page_path"`
	ContentType     string  `json:"content_type"`
	TotalUsers      int     `json:"total_users"`
	Conversions     int     `json:"conversions"`
	ConversionRate  float64 `json:"conversion_rate"`
	AvgInteractions float64 `json:"avg_interactions"`
	Effectiveness   string  `json:"content_effectiveness"` // Excellent..Poor
}

// DeviceConversion aggregates conversion performance by modal device
// category per user.
type DeviceConversion struct {
	DeviceCategory string  `json:"device_category"`
	TotalUsers     int     `json:"total_users"`
	Conversions    int     `json:"conversions"`
	ConversionRate float64 `json:"conversion_rate"`
	UserShare      float64 `json:"user_share"`
}

// TimeBucket is one hour-of-day or day-of-week conversion bucket. Only
// buckets with at least one user are reported.
type TimeBucket struct {
	Hour           int     `json:"hour,omitempty"`
	DayOfWeek      string  `json:"day_of_week,omitempty"`
	TotalUsers     int     `json:"total_users"`
	Conversions    int     `json:"conversions"`
	ConversionRate float64 `json:"conversion_rate"`
}

// TimeConversions groups the two time-based aggregates.
type TimeConversions struct {
	Hourly []TimeBucket `json:"hourly_conversions"`
	Daily  []TimeBucket `json:"daily_conversions"`
}

// StageTransitions counts users who reached both stages of each adjacent
// pair, with rates over total users.
type StageTransitions struct {
	TotalUsers                int     `json:"total_users"`
	AwarenessToInterest       int     `json:"awareness_to_interest"`
	InterestToConsideration   int     `json:"interest_to_consideration"`
	ConsiderationToConversion int     `json:"consideration_to_conversion"`
	AwarenessToInterestRate   float64 `json:"awareness_to_interest_rate"`
	InterestToConsiderRate    float64 `json:"interest_to_consideration_rate"`
	ConsiderToConversionRate  float64 `json:"consideration_to_conversion_rate"`
}

// ConversionSummary is the combined calculator output handed to report
// generation: the overview plus the per-dimension breakdowns and the
// calculator-level optimization opportunities.
type ConversionSummary struct {
	Overview      *StageFunnel        `json:"overview"`
	BySource      []SourceConversion  `json:"by_source"`
	ByContent     []ContentConversion `json:"by_content"`
	ByDevice      []DeviceConversion  `json:"by_device"`
	ByTime        *TimeConversions    `json:"by_time"`
	Opportunities []Insight           `json:"optimization_opportunities"`
}
