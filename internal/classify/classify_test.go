package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernwell/insightd/internal/wellness"
)

func TestKeywordClassifier_Categories(t *testing.T) {
	c := NewKeywordClassifier()

	tests := []struct {
		name     string
		text     string
		category string
	}{
		{"anxiety", "I feel anxious and my thoughts are racing", "anxiety"},
		{"low mood", "been really sad and down lately", "low-mood"},
		{"stress", "deadline pressure at work, totally stressed", "stress"},
		{"sleep", "so tired, can't sleep at all", "sleep"},
		{"positive", "had a great day, feeling happy", "positive"},
		{"neutral", "went to the store", "neutral"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := c.Classify(context.Background(), tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.category, out.Category)
		})
	}
}

func TestKeywordClassifier_ConfidenceCapped(t *testing.T) {
	c := NewKeywordClassifier()

	// Many keyword hits must still cap at the fallback ceiling.
	out, err := c.Classify(context.Background(),
		"anxious anxiety panic worried overwhelmed racing thoughts")
	require.NoError(t, err)
	assert.Equal(t, "anxiety", out.Category)
	assert.LessOrEqual(t, out.Confidence, FallbackMaxConfidence)
	assert.Greater(t, out.Confidence, 0.4)
}

func TestHeuristicSuggester(t *testing.T) {
	s := NewHeuristicSuggester()
	ctx := context.Background()

	out, err := s.Suggest(ctx, "feeling anxious about tomorrow", nil)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "box-breathing", out.Technique)

	out, err = s.Suggest(ctx, "completely exhausted today", nil)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "energizing-breath", out.Technique)

	out, err = s.Suggest(ctx, "nothing special", nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestHeuristicSuggester_UsesSnapshotBaselines(t *testing.T) {
	s := NewHeuristicSuggester()

	anxiousSnap := &wellness.MoodAnalyticsSnapshot{
		Baselines: wellness.Baselines{Mood: 50, Energy: 50, Anxiety: 70},
	}
	out, err := s.Suggest(context.Background(), "plain text", anxiousSnap)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "box-breathing", out.Technique)

	tiredSnap := &wellness.MoodAnalyticsSnapshot{
		Baselines: wellness.Baselines{Mood: 50, Energy: 30, Anxiety: 40},
	}
	out, err = s.Suggest(context.Background(), "plain text", tiredSnap)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "energizing-breath", out.Technique)
}
