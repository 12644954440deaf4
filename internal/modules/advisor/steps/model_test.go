package steps

import (
	"strings"
	"testing"
)

func TestSelectModelTable(t *testing.T) {
	cfg := ModelConfig{Advanced: "adv", Standard: "std"}
	cases := []struct {
		name       string
		hard       bool
		onboarding string
		complex    bool
		want       ModelChoice
	}{
		{"hard wins over everything", true, OnboardingQuickWin, true, ModelChoice{"adv", 4096, "hard_mode"}},
		{"quick win regardless of complexity", false, OnboardingQuickWin, false, ModelChoice{"adv", 16384, "quick_win"}},
		{"complex", false, "", true, ModelChoice{"adv", 16384, "complex"}},
		{"standard", false, "", false, ModelChoice{"std", 16384, "standard"}},
		{"unknown onboarding mode", false, "tour", false, ModelChoice{"std", 16384, "standard"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SelectModel(cfg, tc.hard, tc.onboarding, tc.complex); got != tc.want {
				t.Fatalf("got %+v want %+v", got, tc.want)
			}
		})
	}
}

func TestSelectModelDefaults(t *testing.T) {
	got := SelectModel(ModelConfig{}, false, "", false)
	if got.Model != DefaultStandardModel {
		t.Fatalf("model=%q", got.Model)
	}
	if got := SelectModel(ModelConfig{}, true, "", false); got.Model != DefaultAdvancedModel {
		t.Fatalf("model=%q", got.Model)
	}
}

func TestIsComplex(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"hi", false},
		{"what were sales yesterday", false},
		{"why is labor so high", true},
		{"how should we staff sunday brunch", true},
		{"compare our food cost to last month", true},
		{"what if we closed mondays", true},
		{strings.Repeat("word ", 16), true},
		{strings.Repeat("word ", 15), false},
	}
	for _, tc := range cases {
		if got := IsComplex(tc.text); got != tc.want {
			t.Fatalf("IsComplex(%q)=%v want %v", tc.text, got, tc.want)
		}
	}
}
