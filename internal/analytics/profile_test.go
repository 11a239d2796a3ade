package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernwell/insightd/internal/wellness"
)

func TestClassifyProfile_Cascade(t *testing.T) {
	tests := []struct {
		name    string
		in      ProfileInput
		profile wellness.ProfileType
	}{
		{
			name: "stressed",
			in: ProfileInput{
				Baselines:  wellness.Baselines{Mood: 45, Energy: 55, Anxiety: 75},
				SampleSize: 20,
			},
			profile: wellness.ProfileStressed,
		},
		{
			name: "volatile",
			in: ProfileInput{
				Baselines:  wellness.Baselines{Mood: 65, Energy: 60, Anxiety: 40},
				Volatility: 20,
				SampleSize: 20,
			},
			profile: wellness.ProfileVolatile,
		},
		{
			name: "fatigued",
			in: ProfileInput{
				Baselines:  wellness.Baselines{Mood: 50, Energy: 30, Anxiety: 45},
				SampleSize: 20,
			},
			profile: wellness.ProfileFatigued,
		},
		{
			name: "recovering",
			in: ProfileInput{
				Baselines:  wellness.Baselines{Mood: 50, Energy: 55, Anxiety: 45},
				Delta:      8,
				SampleSize: 20,
			},
			profile: wellness.ProfileRecovering,
		},
		{
			name: "resilient",
			in: ProfileInput{
				Baselines:  wellness.Baselines{Mood: 65, Energy: 60, Anxiety: 50},
				Volatility: 5,
				SampleSize: 20,
			},
			profile: wellness.ProfileResilient,
		},
		{
			name: "elevated",
			in: ProfileInput{
				Baselines:  wellness.Baselines{Mood: 75, Energy: 60, Anxiety: 40},
				Volatility: 10,
				SampleSize: 20,
			},
			profile: wellness.ProfileElevated,
		},
		{
			name: "stable default",
			in: ProfileInput{
				Baselines:  wellness.Baselines{Mood: 58, Energy: 60, Anxiety: 40},
				Volatility: 10,
				SampleSize: 20,
			},
			profile: wellness.ProfileStable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ClassifyProfile(tt.in)
			assert.Equal(t, tt.profile, out.Type)
			require.NotEmpty(t, out.Rationale)
		})
	}
}

func TestClassifyProfile_BoundaryTieResolvesToEarlierRule(t *testing.T) {
	// Mood and anxiety exactly 60 with zero volatility satisfy both the
	// stressed predicate (mood <= 60, anxiety >= 60) and the resilient one
	// (mood >= 60, volatility <= 8, anxiety <= 60). The cascade order is
	// the tie-break: stressed wins.
	in := ProfileInput{
		Baselines:  wellness.Baselines{Mood: 60, Energy: 70, Anxiety: 60},
		Volatility: 0,
		SampleSize: 20,
	}

	out := ClassifyProfile(in)
	assert.Equal(t, wellness.ProfileStressed, out.Type)
	assert.InDelta(t, 0.8, out.Confidence, 1e-9)

	// Nudged off the shared boundary, the same shape is resilient.
	in.Baselines.Anxiety = 59
	out = ClassifyProfile(in)
	assert.Equal(t, wellness.ProfileResilient, out.Type)
}

func TestClassifyProfile_ConfidenceScalesWithSample(t *testing.T) {
	in := ProfileInput{
		Baselines:  wellness.Baselines{Mood: 45, Energy: 55, Anxiety: 75},
		SampleSize: 10,
	}

	out := ClassifyProfile(in)
	assert.Equal(t, wellness.ProfileStressed, out.Type)
	assert.InDelta(t, 0.4, out.Confidence, 1e-9)

	in.SampleSize = 100
	out = ClassifyProfile(in)
	assert.InDelta(t, 0.8, out.Confidence, 1e-9)
}
