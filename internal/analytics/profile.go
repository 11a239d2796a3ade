package analytics

import (
	"fmt"
	"math"

	"github.com/fernwell/insightd/internal/wellness"
)

// ProfileInput is everything the cascade reads.
type ProfileInput struct {
	Baselines  wellness.Baselines
	Volatility float64
	Delta      float64
	SampleSize int
}

// Rule thresholds on the 0-100 scale. Boundaries are inclusive on both sides
// of shared values, so boundary-exact baselines (e.g. mood exactly 60 with
// anxiety exactly 60) can satisfy more than one rule; the cascade order is
// the tie-break policy and must not be reordered.
const (
	stressedMoodMax        = 60.0
	stressedAnxietyMin     = 60.0
	volatileVolatilityMin  = 15.0
	fatiguedEnergyMax      = 35.0
	fatiguedMoodMax        = 55.0
	recoveringDeltaMin     = 5.0
	recoveringMoodMin      = 40.0
	recoveringMoodMax      = 60.0
	resilientMoodMin       = 60.0
	resilientVolatilityMax = 8.0
	resilientAnxietyMax    = 60.0
	elevatedMoodMin        = 70.0
)

// profileRule is one (predicate, outcome) pair of the cascade.
type profileRule struct {
	profile   wellness.ProfileType
	base      float64
	match     func(ProfileInput) bool
	rationale func(ProfileInput) string
}

// profileCascade is evaluated top to bottom, first match wins. The priority
// order is stressed > volatile > fatigued > recovering > resilient >
// elevated > stable.
var profileCascade = []profileRule{
	{
		profile: wellness.ProfileStressed,
		base:    0.8,
		match: func(in ProfileInput) bool {
			return in.Baselines.Mood <= stressedMoodMax && in.Baselines.Anxiety >= stressedAnxietyMin
		},
		rationale: func(in ProfileInput) string {
			return fmt.Sprintf("depressed mood (%.1f) with elevated anxiety (%.1f)", in.Baselines.Mood, in.Baselines.Anxiety)
		},
	},
	{
		profile: wellness.ProfileVolatile,
		base:    0.75,
		match: func(in ProfileInput) bool {
			return in.Volatility >= volatileVolatilityMin
		},
		rationale: func(in ProfileInput) string {
			return fmt.Sprintf("mood swings well above typical range (volatility %.1f)", in.Volatility)
		},
	},
	{
		profile: wellness.ProfileFatigued,
		base:    0.7,
		match: func(in ProfileInput) bool {
			return in.Baselines.Energy <= fatiguedEnergyMax && in.Baselines.Mood <= fatiguedMoodMax
		},
		rationale: func(in ProfileInput) string {
			return fmt.Sprintf("low energy (%.1f) alongside flat mood (%.1f)", in.Baselines.Energy, in.Baselines.Mood)
		},
	},
	{
		profile: wellness.ProfileRecovering,
		base:    0.65,
		match: func(in ProfileInput) bool {
			return in.Delta >= recoveringDeltaMin &&
				in.Baselines.Mood >= recoveringMoodMin && in.Baselines.Mood <= recoveringMoodMax
		},
		rationale: func(in ProfileInput) string {
			return fmt.Sprintf("mood trending up (+%.1f this week) from a mid-range baseline", in.Delta)
		},
	},
	{
		profile: wellness.ProfileResilient,
		base:    0.8,
		match: func(in ProfileInput) bool {
			return in.Baselines.Mood >= resilientMoodMin &&
				in.Volatility <= resilientVolatilityMax &&
				in.Baselines.Anxiety <= resilientAnxietyMax
		},
		rationale: func(in ProfileInput) string {
			return fmt.Sprintf("steady positive mood (%.1f) with low volatility (%.1f)", in.Baselines.Mood, in.Volatility)
		},
	},
	{
		profile: wellness.ProfileElevated,
		base:    0.6,
		match: func(in ProfileInput) bool {
			return in.Baselines.Mood >= elevatedMoodMin
		},
		rationale: func(in ProfileInput) string {
			return fmt.Sprintf("mood running high (%.1f)", in.Baselines.Mood)
		},
	},
	{
		// Default: always matches.
		profile: wellness.ProfileStable,
		base:    0.5,
		match: func(ProfileInput) bool {
			return true
		},
		rationale: func(in ProfileInput) string {
			return fmt.Sprintf("no dominant signal; mood steady around %.1f", in.Baselines.Mood)
		},
	},
}

// ClassifyProfile runs the ordered rule cascade and returns the first match,
// with its base confidence scaled down proportionally to available sample.
func ClassifyProfile(in ProfileInput) wellness.EmotionalProfile {
	scale := math.Min(1, float64(in.SampleSize)/20.0)
	for _, rule := range profileCascade {
		if rule.match(in) {
			return wellness.EmotionalProfile{
				Type:       rule.profile,
				Confidence: rule.base * scale,
				Rationale:  []string{rule.rationale(in)},
			}
		}
	}
	// Unreachable: the last rule always matches.
	return wellness.EmotionalProfile{Type: wellness.ProfileStable, Confidence: 0.5 * scale}
}
