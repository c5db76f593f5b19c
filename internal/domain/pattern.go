package domain

// ComboStats describes one page-category combination within a traffic group.
type ComboStats struct {
	Combination    string  `json:"combination"` // sorted category names joined with " + "
	Users          int     `json:"users"`
	Conversions    int     `json:"conversions"`
	ConversionRate float64 `json:"conversion_rate"`
}

// SourcePagePattern reports the best-converting page-category combination
// for one traffic group.
type SourcePagePattern struct {
	TrafficGroup      string     `json:"traffic_group"`
	BestCombination   ComboStats `json:"best_combination"`
	TotalCombinations int        `json:"total_combinations"`
	GroupUsers        int        `json:"group_users"`
}

// PathLengthStats compares journey length between converted and
// non-converted populations.
type PathLengthStats struct {
	AvgLength      float64 `json:"avg_length"`
	MedianLength   float64 `json:"median_length"`
	AvgUniquePages float64 `json:"avg_unique_pages"`
}

// CommonPath is a shared first-three-pages journey prefix.
type CommonPath struct {
	Path           string  `json:"path"` // pages joined with " -> "
	Users          int     `json:"users"`
	Conversions    int     `json:"conversions"`
	ConversionRate float64 `json:"conversion_rate"`
}

// JourneyPatterns holds the page-sequence comparison products.
type JourneyPatterns struct {
	Converted    PathLengthStats `json:"converted"`
	NonConverted PathLengthStats `json:"non_converted"`
	CommonPaths  []CommonPath    `json:"common_paths"`
}

// CategoryEngagement summarizes per-page-category engagement and conversion.
type CategoryEngagement struct {
	TotalUsers       int     `json:"total_users"`
	ConvertedUsers   int     `json:"converted_users"`
	ConversionRate   float64 `json:"conversion_rate"`
	AvgEventsPerUser float64 `json:"avg_events_per_user"`
}

// EngagementPatterns compares engagement scores between converted and
// non-converted users and breaks engagement down by page category.
type EngagementPatterns struct {
	ConvertedAvgScore    float64                       `json:"converted_avg_score"`
	NonConvertedAvgScore float64                       `json:"non_converted_avg_score"`
	ScoreDifference      float64                       `json:"score_difference"`
	ByPageCategory       map[string]CategoryEngagement `json:"page_category_engagement"`
}

// TemporalPatterns describes time-to-conversion for converting users.
type TemporalPatterns struct {
	AvgHoursToConversion    float64 `json:"avg_time_to_conversion_hours"`
	MedianHoursToConversion float64 `json:"median_time_to_conversion_hours"`
	SameHourConversions     int     `json:"same_hour_conversions"`
	Within24hConversions    int     `json:"within_24h_conversions"`
	ConvertingUsers         int     `json:"converting_users"`
}

// SegmentStats reports one qualifying high-value user segment. Value is
// conversion rate x user count, favoring both rate and scale.
type SegmentStats struct {
	Name           string  `json:"segment_name"`
	Description    string  `json:"description"`
	Users          int     `json:"users_count"`
	Conversions    int     `json:"conversions"`
	ConversionRate float64 `json:"conversion_rate"`
	AvgEvents      float64 `json:"avg_events"`
	AvgPages       float64 `json:"avg_pages"`
	Value          float64 `json:"segment_value"`
}

// CriticalPage is a page frequently appearing in converting journeys.
type CriticalPage struct {
	Page           string  `json:"page"`
	Appearances    int     `json:"appearances"`
	AppearanceRate float64 `json:"appearance_rate"` // occurrences / converting journeys x 100
	PageCategory   string  `json:"page_category"`
}

// ConversionPaths describes the page journeys of converting users.
type ConversionPaths struct {
	TotalPaths              int            `json:"total_conversion_paths"`
	AvgPathLength           float64        `json:"avg_path_length"`
	MostCommonStart         string         `json:"most_common_start"`
	MostCommonPreConversion string         `json:"most_common_pre_conversion"`
	CriticalPages           []CriticalPage `json:"critical_pages"`
}

// DropOffPage is one of the top last-visited pages within a drop-off stage.
type DropOffPage struct {
	Page       string  `json:"page"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// DropOffPoint groups non-converting users by their highest reached stage.
type DropOffPoint struct {
	Stage        Stage         `json:"stage"`
	TotalDropped int           `json:"total_dropoffs"`
	DropOffRate  float64       `json:"dropoff_rate"` // over all non-converted users
	TopPages     []DropOffPage `json:"top_dropoff_pages"`
}

// Insight priorities, most urgent first.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// Insight is one ranked optimization recommendation.
type Insight struct {
	Type           string  `json:"type"`
	Description    string  `json:"description"`
	Priority       string  `json:"priority"`
	Recommendation string  `json:"recommendation"`
	Metric         float64 `json:"metric,omitempty"` // supporting rate or count, when one exists
}

// PatternReport is the full pattern-analyzer output.
type PatternReport struct {
	SourcePageCombinations []SourcePagePattern `json:"source_page_combinations"`
	Journeys               *JourneyPatterns    `json:"journey_patterns"`
	Engagement             *EngagementPatterns `json:"engagement_patterns"`
	Temporal               *TemporalPatterns   `json:"temporal_patterns"`
	HighValueSegments      []SegmentStats      `json:"high_value_segments"`
	ConversionPaths        *ConversionPaths    `json:"conversion_paths"`
	DropOffPoints          []DropOffPoint      `json:"drop_off_points"`
	TopOpportunities       []Insight           `json:"top_opportunities"`
}
