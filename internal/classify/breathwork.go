package classify

import (
	"context"
	"strings"

	"github.com/fernwell/insightd/internal/wellness"
)

// BreathworkSuggester recommends a breathing exercise for the given input,
// or nil when none applies. External implementations may fail; callers
// substitute the local heuristic.
type BreathworkSuggester interface {
	Suggest(ctx context.Context, text string, snapshot *wellness.MoodAnalyticsSnapshot) (*wellness.BreathworkSuggestion, error)
}

// HeuristicSuggester is the local fallback breathwork heuristic.
type HeuristicSuggester struct{}

// NewHeuristicSuggester creates the fallback suggester.
func NewHeuristicSuggester() *HeuristicSuggester {
	return &HeuristicSuggester{}
}

// Suggest picks a technique from coarse signals: anxiety keywords or a high
// anxiety baseline get box breathing, low energy gets an energizing breath,
// everything else gets no suggestion. Never returns an error.
func (s *HeuristicSuggester) Suggest(ctx context.Context, text string, snapshot *wellness.MoodAnalyticsSnapshot) (*wellness.BreathworkSuggestion, error) {
	lower := strings.ToLower(text)

	anxious := strings.Contains(lower, "anxious") || strings.Contains(lower, "panic") ||
		strings.Contains(lower, "overwhelmed")
	if !anxious && snapshot != nil && snapshot.Baselines.Anxiety >= 65 {
		anxious = true
	}
	if anxious {
		return &wellness.BreathworkSuggestion{
			Technique:   "box-breathing",
			DurationSec: 240,
			Reason:      "elevated anxiety signal",
		}, nil
	}

	lowEnergy := strings.Contains(lower, "tired") || strings.Contains(lower, "exhausted")
	if !lowEnergy && snapshot != nil && snapshot.Baselines.Energy <= 35 {
		lowEnergy = true
	}
	if lowEnergy {
		return &wellness.BreathworkSuggestion{
			Technique:   "energizing-breath",
			DurationSec: 120,
			Reason:      "low energy signal",
		}, nil
	}

	return nil, nil
}
