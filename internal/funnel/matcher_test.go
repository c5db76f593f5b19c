package funnel

import (
	"testing"

	"github.com/jonesrussell/funnel-analyzer/internal/config"
)

func TestMatcher_PageCategory_Wildcards(t *testing.T) {
	m := NewMatcher(config.FunnelConfig{
		PageCategories: []config.CategoryPatterns{
			{Name: "content", Patterns: []string{"/posts/*"}},
		},
	})

	tests := []struct {
		name string
		path string
		want string
	}{
		{"nested path matches prefix", "/posts/123", "content"},
		{"bare prefix matches too", "/posts", "content"},
		{"unrelated path falls through", "/other", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.PageCategory(tt.path); got != tt.want {
				t.Errorf("PageCategory(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestMatcher_FirstMatchWins(t *testing.T) {
	m := NewMatcher(config.FunnelConfig{
		PageCategories: []config.CategoryPatterns{
			{Name: "first", Patterns: []string{"/a/*"}},
			{Name: "second", Patterns: []string{"/a/b"}},
		},
	})

	if got := m.PageCategory("/a/b"); got != "first" {
		t.Errorf("expected earlier table entry to win, got %q", got)
	}
}

func TestMatcher_TrafficGroup(t *testing.T) {
	m := NewMatcher(config.FunnelConfig{
		TrafficGroups: config.DefaultTrafficGroups(),
	})

	tests := []struct {
		source, medium string
		want           string
	}{
		{"google", "cpc", "paid_search"},
		{"google", "organic", "organic_search"},
		{"facebook", "social", "social_media"},
		{"(direct)", "(none)", "direct"},
		{"unknown", "thing", CategoryOther},
	}

	for _, tt := range tests {
		if got := m.TrafficGroup(tt.source, tt.medium); got != tt.want {
			t.Errorf("TrafficGroup(%q, %q) = %q, want %q", tt.source, tt.medium, got, tt.want)
		}
	}
}
