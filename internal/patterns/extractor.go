// Package patterns turns a bounded, recency-sampled slice of raw entries
// into temporal, behavioral, and environmental pattern records plus a
// sample-size-derived confidence score.
package patterns

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fernwell/insightd/internal/logging"
	"github.com/fernwell/insightd/internal/stats"
	"github.com/fernwell/insightd/internal/wellness"
)

// Config bounds extraction cost under unbounded history.
type Config struct {
	// SampleSize caps how many most-recent records are considered.
	SampleSize int
	// MaxPatterns stops bucket scanning once this many patterns exist.
	MaxPatterns int
	// TemporalThreshold is the minimum bucket count for a temporal pattern.
	TemporalThreshold int
}

// DefaultConfig returns the extraction bounds used in production.
func DefaultConfig() Config {
	return Config{
		SampleSize:        50,
		MaxPatterns:       10,
		TemporalThreshold: 3,
	}
}

// TextFallbackConfidence is the fixed confidence emitted when the only
// input is free text.
const TextFallbackConfidence = 0.6

// textHints maps keyword containment checks to behavioral hint labels.
// Checked in a fixed order so output stays deterministic.
var textHints = []struct {
	keyword string
	label   string
}{
	{"stress", "stress"},
	{"anxious", "anxiety"},
	{"anxiety", "anxiety"},
	{"work", "work"},
	{"sleep", "sleep"},
	{"tired", "sleep"},
	{"caffeine", "caffeine"},
	{"coffee", "caffeine"},
	{"exercise", "exercise"},
	{"alone", "isolation"},
	{"lonely", "isolation"},
}

// Extractor extracts pattern records from raw entries.
type Extractor struct {
	cfg    Config
	logger *logging.Logger
}

// NewExtractor creates an extractor. Zero config fields fall back to defaults.
func NewExtractor(cfg Config, logger *logging.Logger) *Extractor {
	def := DefaultConfig()
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = def.SampleSize
	}
	if cfg.MaxPatterns <= 0 {
		cfg.MaxPatterns = def.MaxPatterns
	}
	if cfg.TemporalThreshold <= 0 {
		cfg.TemporalThreshold = def.TemporalThreshold
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Extractor{cfg: cfg, logger: logger.Named("patterns")}
}

// Extract produces pattern records and an overall confidence score.
//
// Structured records are recency-sampled before any bucketing. When the only
// input is free text, lightweight keyword hints are emitted at the fixed
// fallback confidence.
func (e *Extractor) Extract(ctx context.Context, rs wellness.RecordSet, freeText string) ([]wellness.PatternRecord, float64) {
	if rs.Empty() {
		if strings.TrimSpace(freeText) == "" {
			return []wellness.PatternRecord{}, 0
		}
		return e.extractFromText(freeText), TextFallbackConfidence
	}

	behaviors := sampleBehaviors(rs.Behaviors, e.cfg.SampleSize)
	moods := sampleMoods(rs.Moods, e.cfg.SampleSize)
	total := len(behaviors) + len(moods)

	out := make([]wellness.PatternRecord, 0, e.cfg.MaxPatterns)
	out = e.appendTemporal(out, behaviors, moods, total)
	out = e.appendBehavioral(out, behaviors, total)
	out = e.appendEnvironmental(out, behaviors, total)

	conf := StepConfidence(total)
	e.logger.Debug(ctx, "patterns extracted",
		zap.Int("sample_size", total),
		zap.Int("patterns", len(out)),
		zap.Float64("confidence", conf),
	)
	return out, conf
}

// appendTemporal buckets sampled records by hour of day and day of week.
// Buckets are scanned in fixed order and scanning stops at MaxPatterns, so
// cost stays bounded even on pathological distributions.
func (e *Extractor) appendTemporal(out []wellness.PatternRecord, behaviors []wellness.BehaviorRecord, moods []wellness.MoodRecord, total int) []wellness.PatternRecord {
	hourCounts := make(map[int]int)
	dayCounts := make(map[time.Weekday]int)

	count := func(ts time.Time) {
		hourCounts[ts.Hour()]++
		dayCounts[ts.Weekday()]++
	}
	for _, b := range behaviors {
		count(b.Timestamp)
	}
	for _, m := range moods {
		count(m.Timestamp)
	}

	for hour := 0; hour < 24; hour++ {
		if len(out) >= e.cfg.MaxPatterns {
			return out
		}
		if hourCounts[hour] > e.cfg.TemporalThreshold {
			out = append(out, wellness.PatternRecord{
				Category:    wellness.PatternTemporal,
				Type:        fmt.Sprintf("hour-%02d", hour),
				Description: fmt.Sprintf("recurring activity around %02d:00", hour),
				Frequency:   hourCounts[hour],
				Confidence:  bucketConfidence(hourCounts[hour], total),
				SampleSize:  total,
			})
		}
	}

	for day := time.Sunday; day <= time.Saturday; day++ {
		if len(out) >= e.cfg.MaxPatterns {
			return out
		}
		if dayCounts[day] > e.cfg.TemporalThreshold {
			out = append(out, wellness.PatternRecord{
				Category:    wellness.PatternTemporal,
				Type:        "day-" + strings.ToLower(day.String()),
				Description: fmt.Sprintf("recurring activity on %ss", day),
				Frequency:   dayCounts[day],
				Confidence:  bucketConfidence(dayCounts[day], total),
				SampleSize:  total,
			})
		}
	}

	return out
}

// appendBehavioral groups behaviors by resolved trigger. A group needs at
// least two occurrences; severity is the rounded mean of the per-record
// severity resolution.
func (e *Extractor) appendBehavioral(out []wellness.PatternRecord, behaviors []wellness.BehaviorRecord, total int) []wellness.PatternRecord {
	groups := make(map[string][]wellness.BehaviorRecord)
	order := make([]string, 0)
	for _, b := range behaviors {
		trigger := wellness.ResolveTrigger(b)
		if trigger == "" {
			continue
		}
		if _, seen := groups[trigger]; !seen {
			order = append(order, trigger)
		}
		groups[trigger] = append(groups[trigger], b)
	}
	sort.Strings(order)

	for _, trigger := range order {
		if len(out) >= e.cfg.MaxPatterns {
			return out
		}
		recs := groups[trigger]
		if len(recs) < 2 {
			continue
		}
		severities := make([]float64, len(recs))
		for i, r := range recs {
			severities[i] = wellness.ResolveSeverity(r)
		}
		out = append(out, wellness.PatternRecord{
			Category:    wellness.PatternBehavioral,
			Type:        trigger,
			Description: fmt.Sprintf("%q recurs across %d entries", trigger, len(recs)),
			Frequency:   len(recs),
			Severity:    math.Round(stats.Mean(severities)),
			Confidence:  bucketConfidence(len(recs), total),
			SampleSize:  total,
		})
	}
	return out
}

// appendEnvironmental groups behaviors by resolved location hints.
func (e *Extractor) appendEnvironmental(out []wellness.PatternRecord, behaviors []wellness.BehaviorRecord, total int) []wellness.PatternRecord {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, b := range behaviors {
		loc := wellness.ResolveLocation(b)
		if loc == "" {
			continue
		}
		if counts[loc] == 0 {
			order = append(order, loc)
		}
		counts[loc]++
	}
	sort.Strings(order)

	for _, loc := range order {
		if len(out) >= e.cfg.MaxPatterns {
			return out
		}
		if counts[loc] < 2 {
			continue
		}
		out = append(out, wellness.PatternRecord{
			Category:    wellness.PatternEnvironmental,
			Type:        loc,
			Description: fmt.Sprintf("entries cluster around %q", loc),
			Frequency:   counts[loc],
			Confidence:  bucketConfidence(counts[loc], total),
			SampleSize:  total,
		})
	}
	return out
}

// extractFromText derives lightweight behavioral hints from free text via
// keyword containment.
func (e *Extractor) extractFromText(text string) []wellness.PatternRecord {
	lower := strings.ToLower(text)
	out := make([]wellness.PatternRecord, 0, 4)
	seen := make(map[string]bool)

	for _, hint := range textHints {
		if len(out) >= e.cfg.MaxPatterns {
			break
		}
		if seen[hint.label] || !strings.Contains(lower, hint.keyword) {
			continue
		}
		seen[hint.label] = true
		out = append(out, wellness.PatternRecord{
			Category:    wellness.PatternBehavioral,
			Type:        hint.label,
			Description: fmt.Sprintf("text mentions %s", hint.label),
			Frequency:   1,
			Severity:    wellness.NeutralSeverity,
			Confidence:  TextFallbackConfidence,
			SampleSize:  1,
		})
	}
	return out
}

// StepConfidence is the monotonic step function of total sample count.
func StepConfidence(n int) float64 {
	switch {
	case n >= 50:
		return 0.95
	case n >= 20:
		return 0.8
	case n >= 10:
		return 0.6
	case n >= 5:
		return 0.4
	case n >= 2:
		return 0.2
	default:
		return 0.1
	}
}

// bucketConfidence scores a single bucket by its share of the sample,
// floored so sparse-but-present patterns are not reported as noise.
func bucketConfidence(freq, total int) float64 {
	if total == 0 {
		return 0
	}
	return stats.Clamp01(math.Max(0.3, float64(freq)/float64(total)))
}

// sampleBehaviors sorts descending by timestamp and caps at n.
func sampleBehaviors(recs []wellness.BehaviorRecord, n int) []wellness.BehaviorRecord {
	out := make([]wellness.BehaviorRecord, len(recs))
	copy(out, recs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// sampleMoods sorts descending by timestamp and caps at n.
func sampleMoods(recs []wellness.MoodRecord, n int) []wellness.MoodRecord {
	out := make([]wellness.MoodRecord, len(recs))
	copy(out, recs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
