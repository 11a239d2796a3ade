// Package classify defines the boundaries to the external text-classification
// collaborators and provides local keyword-based fallbacks for when those
// collaborators fail or are absent.
package classify

import (
	"context"
	"strings"

	"github.com/fernwell/insightd/internal/wellness"
)

// VoiceClassifier categorizes free-text (or transcribed voice) input.
// External implementations may fail; callers substitute the keyword fallback.
type VoiceClassifier interface {
	Classify(ctx context.Context, text string) (*wellness.VoiceClassification, error)
}

// FallbackMaxConfidence caps what the local keyword classifier will ever
// claim. Real classification belongs to the external collaborator.
const FallbackMaxConfidence = 0.6

// keywordRule maps containment keywords to a category and suggestion.
// Rules are checked in order; the first category with two keyword hits, or
// failing that the first with one, wins.
type keywordRule struct {
	category   string
	keywords   []string
	suggestion string
}

var keywordRules = []keywordRule{
	{
		category:   "anxiety",
		keywords:   []string{"anxious", "anxiety", "panic", "worried", "overwhelmed", "racing"},
		suggestion: "A slow exhale-focused breathing cycle can interrupt an anxiety spiral.",
	},
	{
		category:   "low-mood",
		keywords:   []string{"sad", "down", "hopeless", "empty", "depressed", "crying"},
		suggestion: "Logging one small positive moment per day measurably shifts low-mood stretches.",
	},
	{
		category:   "stress",
		keywords:   []string{"stress", "stressed", "pressure", "deadline", "burnout"},
		suggestion: "A five-minute walk between tasks lowers acute stress load.",
	},
	{
		category:   "sleep",
		keywords:   []string{"tired", "insomnia", "sleep", "exhausted", "awake"},
		suggestion: "Consistent wind-down time is the single strongest lever for sleep quality.",
	},
	{
		category:   "positive",
		keywords:   []string{"great", "happy", "good", "excited", "grateful", "proud"},
		suggestion: "",
	},
}

// KeywordClassifier is the local fallback voice classifier. It only does
// keyword containment and reports modest confidence.
type KeywordClassifier struct{}

// NewKeywordClassifier creates the fallback classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify never returns an error; unmatched text comes back as "neutral"
// with low confidence.
func (c *KeywordClassifier) Classify(ctx context.Context, text string) (*wellness.VoiceClassification, error) {
	lower := strings.ToLower(text)

	bestCategory := ""
	bestSuggestion := ""
	bestHits := 0
	for _, rule := range keywordRules {
		hits := 0
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > bestHits {
			bestHits = hits
			bestCategory = rule.category
			bestSuggestion = rule.suggestion
		}
	}

	if bestHits == 0 {
		return &wellness.VoiceClassification{
			Category:   "neutral",
			Confidence: 0.2,
		}, nil
	}

	confidence := 0.4 + 0.1*float64(bestHits)
	if confidence > FallbackMaxConfidence {
		confidence = FallbackMaxConfidence
	}
	return &wellness.VoiceClassification{
		Category:   bestCategory,
		Confidence: confidence,
		Suggestion: bestSuggestion,
	}, nil
}
