// Package wellness defines the domain model shared by the analytics
// pipeline: raw behavioral and mood records, analysis requests, and the
// composed result bundle that gets cached.
package wellness

import "time"

// InputKind describes what an analysis request carries.
type InputKind string

const (
	InputVoice InputKind = "voice"
	InputData  InputKind = "data"
	InputMixed InputKind = "mixed"
)

// ContextHints carries request metadata that does not affect the analysis
// itself but scopes caching and telemetry.
type ContextHints struct {
	Origin    string            `json:"origin,omitempty"`
	Timestamp time.Time         `json:"timestamp,omitzero"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AnalysisRequest is the immutable per-call input to the pipeline.
type AnalysisRequest struct {
	SubjectID string       `json:"subject_id"`
	Kind      InputKind    `json:"kind"`
	Text      string       `json:"text,omitempty"`
	Records   RecordSet    `json:"records,omitzero"`
	Hints     ContextHints `json:"hints,omitzero"`
}

// RecordSet is the structured record collection of a request.
type RecordSet struct {
	Behaviors []BehaviorRecord `json:"behaviors,omitempty"`
	Moods     []MoodRecord     `json:"moods,omitempty"`
}

// Empty reports whether the set holds no records at all.
func (rs RecordSet) Empty() bool {
	return len(rs.Behaviors) == 0 && len(rs.Moods) == 0
}

// BehaviorRecord is a raw timestamped behavioral entry. Field names vary
// across upstream trackers, so loosely-typed attributes live in Extra and are
// read through the Resolve helpers in fields.go.
type BehaviorRecord struct {
	ID        string         `json:"id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Trigger   string         `json:"trigger,omitempty"`
	Note      string         `json:"note,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MoodRecord is a raw timestamped mood entry. Mood, energy, and anxiety are
// on a 0-100 scale; Energy and Anxiety are pointers because upstream sources
// frequently omit them, and absence is meaningful to the data-quality score.
type MoodRecord struct {
	ID        string         `json:"id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Mood      float64        `json:"mood"`
	Energy    *float64       `json:"energy,omitempty"`
	Anxiety   *float64       `json:"anxiety,omitempty"`
	Note      string         `json:"note,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// PatternCategory classifies an extracted pattern.
type PatternCategory string

const (
	PatternTemporal      PatternCategory = "temporal"
	PatternBehavioral    PatternCategory = "behavioral"
	PatternEnvironmental PatternCategory = "environmental"
)

// PatternRecord is one extracted pattern. Records are append-only; they are
// produced fresh per request and never mutated afterwards.
type PatternRecord struct {
	Category    PatternCategory `json:"category"`
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	Frequency   int             `json:"frequency"`
	Severity    float64         `json:"severity,omitempty"`
	Confidence  float64         `json:"confidence"`
	SampleSize  int             `json:"sample_size"`
}

// ProfileType is the outcome of the emotional-profile rule cascade.
type ProfileType string

const (
	ProfileStressed   ProfileType = "stressed"
	ProfileVolatile   ProfileType = "volatile"
	ProfileFatigued   ProfileType = "fatigued"
	ProfileRecovering ProfileType = "recovering"
	ProfileResilient  ProfileType = "resilient"
	ProfileElevated   ProfileType = "elevated"
	ProfileStable     ProfileType = "stable"
)

// EmotionalProfile is the classified profile plus its supporting rationale.
type EmotionalProfile struct {
	Type       ProfileType `json:"type"`
	Confidence float64     `json:"confidence"`
	Rationale  []string    `json:"rationale,omitempty"`
}

// Correlation is a single pairwise Pearson result. R and P are pointers: nil
// means "not measured" (sample below the gate), which is distinct from a
// measured zero.
type Correlation struct {
	R *float64 `json:"r"`
	N int      `json:"n"`
	P *float64 `json:"p"`
}

// Baselines are rolling means of the three tracked variables.
type Baselines struct {
	Mood    float64 `json:"mood"`
	Energy  float64 `json:"energy"`
	Anxiety float64 `json:"anxiety"`
}

// BestTimes reports when the subject tends to feel best.
type BestTimes struct {
	DayOfWeek  string  `json:"day_of_week,omitempty"`
	TimeOfDay  string  `json:"time_of_day,omitempty"`
	Confidence float64 `json:"confidence"`
}

// MoodAnalyticsSnapshot is the full statistical readout of a mood series.
type MoodAnalyticsSnapshot struct {
	WeeklyDelta  float64                `json:"weekly_delta"`
	Volatility   float64                `json:"volatility"`
	Baselines    Baselines              `json:"baselines"`
	Correlations map[string]Correlation `json:"correlations"`
	Profile      EmotionalProfile       `json:"profile"`
	BestTimes    BestTimes              `json:"best_times"`
	SampleSize   int                    `json:"sample_size"`
	DataQuality  float64                `json:"data_quality"`
	Confidence   float64                `json:"confidence"`
}

// Priority ranks an insight.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities for sorting, high first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// InsightCategory groups surfaced insights.
type InsightCategory string

const (
	InsightTherapeutic InsightCategory = "therapeutic"
	InsightProgress    InsightCategory = "progress"
)

// InsightRecord is one human-readable recommendation.
type InsightRecord struct {
	Text       string          `json:"text"`
	Category   InsightCategory `json:"category"`
	Priority   Priority        `json:"priority"`
	Actionable bool            `json:"actionable"`
	Confidence float64         `json:"confidence"`
	Source     string          `json:"source,omitempty"`
}

// VoiceClassification is the output of the external voice/text classifier
// or its local keyword fallback.
type VoiceClassification struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Suggestion string  `json:"suggestion,omitempty"`
}

// BreathworkSuggestion is a structured breathing exercise recommendation.
type BreathworkSuggestion struct {
	Technique   string `json:"technique"`
	DurationSec int    `json:"duration_sec"`
	Reason      string `json:"reason,omitempty"`
}

// Origin marks where a bundle came from.
type Origin string

const (
	OriginCache Origin = "cache"
	OriginFresh Origin = "fresh"
)

// BundleMetadata describes the provenance of a ResultBundle.
type BundleMetadata struct {
	Version          string        `json:"version"`
	RequestID        string        `json:"request_id,omitempty"`
	ProducedAt       time.Time     `json:"produced_at"`
	CacheTTL         time.Duration `json:"cache_ttl"`
	Origin           Origin        `json:"origin"`
	ProcessingTimeMs int64         `json:"processing_time_ms"`
}

// Insights holds the surfaced recommendations, already prioritized and
// length-capped per category.
type Insights struct {
	Therapeutic []InsightRecord `json:"therapeutic"`
	Progress    []InsightRecord `json:"progress"`
}

// Total counts all surfaced insights.
func (i Insights) Total() int {
	return len(i.Therapeutic) + len(i.Progress)
}

// ResultBundle is the externally visible unit of output and the cached value.
type ResultBundle struct {
	Voice      *VoiceClassification   `json:"voice,omitempty"`
	Breathwork *BreathworkSuggestion  `json:"breathwork,omitempty"`
	Patterns   []PatternRecord        `json:"patterns"`
	Analytics  *MoodAnalyticsSnapshot `json:"analytics,omitempty"`
	Insights   Insights               `json:"insights"`
	Metadata   BundleMetadata         `json:"metadata"`
}

// Category buckets the bundle for TTL selection: bundles that carry insights
// get the insight TTL, pattern-only bundles the pattern TTL, and bundles that
// only classified voice input the voice TTL.
func (b *ResultBundle) Category() string {
	if b.Insights.Total() > 0 {
		return "insights"
	}
	if len(b.Patterns) > 0 || b.Analytics != nil {
		return "patterns"
	}
	return "voice"
}

// Negative reports whether the bundle is an empty result for caching
// purposes: nothing actionable was produced.
func (b *ResultBundle) Negative() bool {
	return b.Insights.Total() == 0
}
