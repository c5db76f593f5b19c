package funnel

import (
	"strings"

	"github.com/jonesrussell/funnel-analyzer/internal/config"
)

// CategoryOther is returned when no pattern-table entry matches.
const CategoryOther = "other"

// Matcher classifies page paths and traffic source/medium pairs against the
// configured pattern tables. Patterns are literal strings unless they end
// with "*", in which case the remainder is matched as a prefix. Entries are
// evaluated in table order and the first match wins, so classification is a
// pure function of (table, input).
type Matcher struct {
	pages   []config.CategoryPatterns
	traffic []config.CategoryPatterns
}

// NewMatcher creates a matcher from the funnel configuration.
func NewMatcher(cfg config.FunnelConfig) *Matcher {
	return &Matcher{
		pages:   cfg.PageCategories,
		traffic: cfg.TrafficGroups,
	}
}

// PageCategory returns the category for a page path, or CategoryOther.
func (m *Matcher) PageCategory(path string) string {
	return matchCategory(m.pages, path)
}

// TrafficGroup returns the traffic group for a source/medium pair, or
// CategoryOther.
func (m *Matcher) TrafficGroup(source, medium string) string {
	return matchCategory(m.traffic, source+"/"+medium)
}

func matchCategory(table []config.CategoryPatterns, key string) string {
	for _, cat := range table {
		for _, pattern := range cat.Patterns {
			if matchPattern(pattern, key) {
				return cat.Name
			}
		}
	}
	return CategoryOther
}

// matchPattern reports whether key matches pattern: exact equality, or a
// prefix match when the pattern ends with "*". A wildcard pattern also
// matches the bare prefix itself, so "/posts/*" covers "/posts".
func matchPattern(pattern, key string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		if strings.HasPrefix(key, prefix) {
			return true
		}
		return key == strings.TrimSuffix(prefix, "/")
	}
	return key == pattern
}

// matchesAny reports whether key matches any of the patterns.
func matchesAny(patterns []string, key string) bool {
	for _, pattern := range patterns {
		if matchPattern(pattern, key) {
			return true
		}
	}
	return false
}
