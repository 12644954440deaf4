package steps

import (
	"regexp"
	"strings"
)

const (
	OnboardingQuickWin = "quick_win"

	DefaultAdvancedModel = "claude-opus-4-20250514"
	DefaultStandardModel = "claude-sonnet-4-20250514"

	HardModeMaxTokens = 4096
	DefaultMaxTokens  = 16384

	complexWordThreshold = 15
)

var reasoningTriggerRe = regexp.MustCompile(`(?i)\b(why|how\s+(should|can|do)|compare|analy[sz]e|strategy|plan|trade-?offs?|should\s+(i|we)|what\s+if|break\s+down|evaluate|explain)\b`)

type ModelConfig struct {
	Advanced string
	Standard string
}

type ModelChoice struct {
	Model     string
	MaxTokens int
	Reason    string
}

// IsComplex reports whether a user message warrants the advanced model.
func IsComplex(text string) bool {
	if len(strings.Fields(text)) > complexWordThreshold {
		return true
	}
	return reasoningTriggerRe.MatchString(text)
}

// SelectModel applies the selection table top to bottom; the first matching
// row wins.
func SelectModel(cfg ModelConfig, hardMode bool, onboardingMode string, complex bool) ModelChoice {
	advanced := strings.TrimSpace(cfg.Advanced)
	if advanced == "" {
		advanced = DefaultAdvancedModel
	}
	standard := strings.TrimSpace(cfg.Standard)
	if standard == "" {
		standard = DefaultStandardModel
	}
	switch {
	case hardMode:
		return ModelChoice{Model: advanced, MaxTokens: HardModeMaxTokens, Reason: "hard_mode"}
	case onboardingMode == OnboardingQuickWin:
		return ModelChoice{Model: advanced, MaxTokens: DefaultMaxTokens, Reason: "quick_win"}
	case complex:
		return ModelChoice{Model: advanced, MaxTokens: DefaultMaxTokens, Reason: "complex"}
	default:
		return ModelChoice{Model: standard, MaxTokens: DefaultMaxTokens, Reason: "standard"}
	}
}
