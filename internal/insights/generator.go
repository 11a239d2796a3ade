// Package insights maps extracted patterns and mood analytics into
// prioritized, human-readable recommendation records.
package insights

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/fernwell/insightd/internal/logging"
	"github.com/fernwell/insightd/internal/wellness"
)

// Config bounds the surfaced insight collections.
type Config struct {
	// MaxPerCategory caps each insight category after prioritization.
	MaxPerCategory int
}

// DefaultConfig returns production insight bounds.
func DefaultConfig() Config {
	return Config{MaxPerCategory: 3}
}

// Generator produces insight records.
type Generator struct {
	cfg    Config
	logger *logging.Logger
}

// NewGenerator creates a generator. Zero config fields fall back to defaults.
func NewGenerator(cfg Config, logger *logging.Logger) *Generator {
	if cfg.MaxPerCategory <= 0 {
		cfg.MaxPerCategory = DefaultConfig().MaxPerCategory
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Generator{cfg: cfg, logger: logger.Named("insights")}
}

// Generate builds the prioritized insight collections. Collections are
// sorted high priority first, then by descending confidence, and capped per
// category. When any input existed at all, at least one insight is always
// returned (the general fallback); truly empty input yields empty
// collections.
func (g *Generator) Generate(ctx context.Context, patterns []wellness.PatternRecord, snapshot *wellness.MoodAnalyticsSnapshot, voice *wellness.VoiceClassification) wellness.Insights {
	if len(patterns) == 0 && snapshot == nil && voice == nil {
		return wellness.Insights{
			Therapeutic: []wellness.InsightRecord{},
			Progress:    []wellness.InsightRecord{},
		}
	}

	var therapeutic, progress []wellness.InsightRecord

	if snapshot != nil {
		therapeutic = append(therapeutic, profileInsights(snapshot)...)
		progress = append(progress, progressInsights(snapshot)...)
	}
	therapeutic = append(therapeutic, patternInsights(patterns)...)
	if voice != nil {
		if rec, ok := voiceInsight(voice); ok {
			therapeutic = append(therapeutic, rec)
		}
	}

	if len(therapeutic) == 0 && len(progress) == 0 {
		progress = append(progress, fallbackInsight())
	}

	out := wellness.Insights{
		Therapeutic: prioritize(therapeutic, g.cfg.MaxPerCategory),
		Progress:    prioritize(progress, g.cfg.MaxPerCategory),
	}
	g.logger.Debug(ctx, "insights generated",
		zap.Int("therapeutic", len(out.Therapeutic)),
		zap.Int("progress", len(out.Progress)),
	)
	return out
}

// profileInsights maps the classified emotional profile to therapeutic
// recommendations.
func profileInsights(s *wellness.MoodAnalyticsSnapshot) []wellness.InsightRecord {
	conf := s.Profile.Confidence
	switch s.Profile.Type {
	case wellness.ProfileStressed:
		return []wellness.InsightRecord{{
			Text:       "Anxiety has been running high while mood is low. A short daily breathing practice tends to help most here.",
			Category:   wellness.InsightTherapeutic,
			Priority:   wellness.PriorityHigh,
			Actionable: true,
			Confidence: conf,
			Source:     "profile",
		}}
	case wellness.ProfileVolatile:
		return []wellness.InsightRecord{{
			Text:       "Mood has been swinging widely. Anchoring wake and sleep times can reduce day-to-day variation.",
			Category:   wellness.InsightTherapeutic,
			Priority:   wellness.PriorityHigh,
			Actionable: true,
			Confidence: conf,
			Source:     "profile",
		}}
	case wellness.ProfileFatigued:
		return []wellness.InsightRecord{{
			Text:       "Energy has been consistently low. Consider reviewing sleep duration before anything else.",
			Category:   wellness.InsightTherapeutic,
			Priority:   wellness.PriorityMedium,
			Actionable: true,
			Confidence: conf,
			Source:     "profile",
		}}
	default:
		return nil
	}
}

// progressInsights reports positive movement and notable correlations.
func progressInsights(s *wellness.MoodAnalyticsSnapshot) []wellness.InsightRecord {
	var out []wellness.InsightRecord

	if s.Profile.Type == wellness.ProfileRecovering || s.WeeklyDelta >= 5 {
		out = append(out, wellness.InsightRecord{
			Text:       fmt.Sprintf("Mood improved by %.0f points over the last week. Whatever changed recently is working.", s.WeeklyDelta),
			Category:   wellness.InsightProgress,
			Priority:   wellness.PriorityMedium,
			Actionable: false,
			Confidence: s.Confidence,
			Source:     "trend",
		})
	}
	if s.Profile.Type == wellness.ProfileResilient {
		out = append(out, wellness.InsightRecord{
			Text:       "Mood has been steady and positive with low anxiety. Current routines are worth keeping.",
			Category:   wellness.InsightProgress,
			Priority:   wellness.PriorityLow,
			Actionable: false,
			Confidence: s.Profile.Confidence,
			Source:     "profile",
		})
	}
	if s.BestTimes.DayOfWeek != "" && s.BestTimes.Confidence >= 0.3 {
		out = append(out, wellness.InsightRecord{
			Text:       fmt.Sprintf("Mood tends to peak on %ss. Scheduling demanding tasks then may help.", s.BestTimes.DayOfWeek),
			Category:   wellness.InsightProgress,
			Priority:   wellness.PriorityLow,
			Actionable: true,
			Confidence: s.BestTimes.Confidence,
			Source:     "best-times",
		})
	}

	for pair, c := range s.Correlations {
		if c.R == nil || c.P == nil || *c.P > 0.05 {
			continue
		}
		if *c.R <= -0.5 && pair == "mood-anxiety" {
			out = append(out, wellness.InsightRecord{
				Text:       "High-anxiety days reliably coincide with low-mood days in your data. Anxiety management is likely the highest-leverage focus.",
				Category:   wellness.InsightProgress,
				Priority:   wellness.PriorityMedium,
				Actionable: true,
				Confidence: absFloat(*c.R),
				Source:     "correlation",
			})
		}
	}

	return out
}

// patternInsights surfaces high-frequency behavioral triggers.
func patternInsights(patterns []wellness.PatternRecord) []wellness.InsightRecord {
	var out []wellness.InsightRecord
	for _, p := range patterns {
		if p.Category != wellness.PatternBehavioral || p.Frequency < 3 {
			continue
		}
		priority := wellness.PriorityMedium
		if p.Severity >= 7 {
			priority = wellness.PriorityHigh
		}
		out = append(out, wellness.InsightRecord{
			Text:       fmt.Sprintf("%q shows up repeatedly (%d recent entries). Tracking what precedes it could reveal an avoidable trigger.", p.Type, p.Frequency),
			Category:   wellness.InsightTherapeutic,
			Priority:   priority,
			Actionable: true,
			Confidence: p.Confidence,
			Source:     "pattern",
		})
	}
	return out
}

// voiceInsight converts a voice classification into one category-matched
// recommendation, when the classification is confident enough to act on.
func voiceInsight(v *wellness.VoiceClassification) (wellness.InsightRecord, bool) {
	if v.Confidence < 0.3 || v.Suggestion == "" {
		return wellness.InsightRecord{}, false
	}
	return wellness.InsightRecord{
		Text:       v.Suggestion,
		Category:   wellness.InsightTherapeutic,
		Priority:   wellness.PriorityMedium,
		Actionable: true,
		Confidence: v.Confidence,
		Source:     "voice",
	}, true
}

// fallbackInsight is the guaranteed non-empty path when input existed but
// produced nothing specific.
func fallbackInsight() wellness.InsightRecord {
	return wellness.InsightRecord{
		Text:       "Keep logging regularly. Specific recommendations unlock as more entries accumulate.",
		Category:   wellness.InsightProgress,
		Priority:   wellness.PriorityLow,
		Actionable: false,
		Confidence: 0.3,
		Source:     "fallback",
	}
}

// prioritize sorts high priority first, then descending confidence, and caps
// the collection.
func prioritize(records []wellness.InsightRecord, limit int) []wellness.InsightRecord {
	if records == nil {
		return []wellness.InsightRecord{}
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Priority.Rank() != records[j].Priority.Rank() {
			return records[i].Priority.Rank() < records[j].Priority.Rank()
		}
		return records[i].Confidence > records[j].Confidence
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
