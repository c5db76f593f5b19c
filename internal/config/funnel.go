package config

import "github.com/jonesrussell/funnel-analyzer/internal/domain"

// DefaultStageRules returns the built-in stage rule table in evaluation
// order. Priority mirrors the slice order; both exist because tie-breaking
// depends on the order being explicit.
func DefaultStageRules() []domain.StageRule {
	return []domain.StageRule{
		{
			Stage:         domain.StageAwareness,
			TriggerEvents: []string{"session_start", "first_visit"},
			TriggerPages:  []string{"/", "/guide/getting-started"},
			Priority:      1,
		},
		{
			Stage:         domain.StageInterest,
			TriggerEvents: []string{"user_engagement", "visit_blog", "scroll"},
			TriggerPages:  []string{"/posts/*", "/guide/*"},
			Priority:      2,
		},
		{
			Stage:         domain.StageConsideration,
			TriggerEvents: []string{"page_view"},
			TriggerPages:  []string{"/pricing", "/providers", "/plans/*"},
			Priority:      3,
		},
		{
			Stage:         domain.StageConversion,
			TriggerEvents: []string{defaultConversionEvent},
			TriggerPages:  []string{defaultSignupPage},
			Priority:      4,
		},
	}
}

// DefaultPageCategories returns the built-in page-category pattern table.
// Entries are evaluated in order; the first matching pattern wins.
func DefaultPageCategories() []CategoryPatterns {
	return []CategoryPatterns{
		{Name: "homepage", Patterns: []string{"/"}},
		{Name: "authentication", Patterns: []string{"/login", "/signup"}},
		{Name: "content", Patterns: []string{"/posts/*", "/guide/*"}},
		{Name: "service_info", Patterns: []string{"/pricing", "/providers", "/plans/*"}},
		{Name: "core_features", Patterns: []string{"/orders/*", "/products/*"}},
		{Name: "support", Patterns: []string{"/help/*", "/faq"}},
	}
}

// DefaultTrafficGroups returns the built-in traffic-group pattern table
// keyed by "source/medium".
func DefaultTrafficGroups() []CategoryPatterns {
	return []CategoryPatterns{
		{Name: "paid_search", Patterns: []string{"google/cpc", "bing/cpc", "naver/cpc"}},
		{Name: "organic_search", Patterns: []string{"google/organic", "bing/organic", "duckduckgo/organic"}},
		{Name: "social_media", Patterns: []string{"facebook/*", "instagram/*", "youtube/*", "twitter/*"}},
		{Name: "email", Patterns: []string{"newsletter/*", "mailchimp/*"}},
		{Name: "referral", Patterns: []string{"blog/*"}},
		{Name: "direct", Patterns: []string{"(direct)/(none)", "(not set)/(not set)"}},
	}
}
