package patterns

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernwell/insightd/internal/wellness"
)

func newTestExtractor() *Extractor {
	return NewExtractor(DefaultConfig(), nil)
}

func behaviorAt(ts time.Time, trigger string) wellness.BehaviorRecord {
	return wellness.BehaviorRecord{Timestamp: ts, Trigger: trigger}
}

func TestExtract_EmptyInput(t *testing.T) {
	recs, conf := newTestExtractor().Extract(context.Background(), wellness.RecordSet{}, "")

	require.NotNil(t, recs)
	assert.Empty(t, recs)
	assert.Equal(t, 0.0, conf)
}

func TestExtract_TextOnlyFallback(t *testing.T) {
	recs, conf := newTestExtractor().Extract(context.Background(), wellness.RecordSet{},
		"I've been stressed at work and can't sleep")

	assert.Equal(t, TextFallbackConfidence, conf)
	require.NotEmpty(t, recs)

	labels := make([]string, len(recs))
	for i, r := range recs {
		labels[i] = r.Type
		assert.Equal(t, wellness.PatternBehavioral, r.Category)
		assert.Equal(t, TextFallbackConfidence, r.Confidence)
	}
	assert.Contains(t, labels, "stress")
	assert.Contains(t, labels, "work")
	assert.Contains(t, labels, "sleep")
}

func TestExtract_BehavioralThreshold(t *testing.T) {
	// Three records sharing trigger "x", two singletons: only "x" becomes a
	// pattern with frequency 3.
	now := time.Now()
	rs := wellness.RecordSet{Behaviors: []wellness.BehaviorRecord{
		behaviorAt(now, "x"),
		behaviorAt(now.Add(-time.Hour), "x"),
		behaviorAt(now.Add(-2*time.Hour), "x"),
		behaviorAt(now.Add(-3*time.Hour), "y"),
		behaviorAt(now.Add(-4*time.Hour), "z"),
	}}

	recs, _ := newTestExtractor().Extract(context.Background(), rs, "")

	var behavioral []wellness.PatternRecord
	for _, r := range recs {
		if r.Category == wellness.PatternBehavioral {
			behavioral = append(behavioral, r)
		}
	}
	require.Len(t, behavioral, 1)
	assert.Equal(t, "x", behavioral[0].Type)
	assert.Equal(t, 3, behavioral[0].Frequency)
}

func TestExtract_SeverityResolution(t *testing.T) {
	now := time.Now()
	rs := wellness.RecordSet{Behaviors: []wellness.BehaviorRecord{
		{Timestamp: now, Trigger: "work", Extra: map[string]any{"severity": 8.0}},
		{Timestamp: now.Add(-time.Hour), Trigger: "work", Extra: map[string]any{"intensity": 6.0}},
		{Timestamp: now.Add(-2 * time.Hour), Trigger: "work"}, // defaults to neutral 5
	}}

	recs, _ := newTestExtractor().Extract(context.Background(), rs, "")

	require.NotEmpty(t, recs)
	var found *wellness.PatternRecord
	for i := range recs {
		if recs[i].Type == "work" {
			found = &recs[i]
		}
	}
	require.NotNil(t, found)
	// Rounded mean of 8, 6, 5.
	assert.Equal(t, 6.0, found.Severity)
}

func TestExtract_TemporalBuckets(t *testing.T) {
	// Six entries at 09:00 on different days crosses the threshold of 3.
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	var moods []wellness.MoodRecord
	for i := 0; i < 6; i++ {
		moods = append(moods, wellness.MoodRecord{
			Timestamp: base.AddDate(0, 0, -i),
			Mood:      6,
		})
	}

	recs, _ := newTestExtractor().Extract(context.Background(), wellness.RecordSet{Moods: moods}, "")

	var hourPattern *wellness.PatternRecord
	for i := range recs {
		if recs[i].Type == "hour-09" {
			hourPattern = &recs[i]
		}
	}
	require.NotNil(t, hourPattern)
	assert.Equal(t, wellness.PatternTemporal, hourPattern.Category)
	assert.Equal(t, 6, hourPattern.Frequency)
}

func TestExtract_MaxPatternsEarlyExit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPatterns = 3
	e := NewExtractor(cfg, nil)

	// Pathological distribution: many hot hour buckets and many triggers.
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	var behaviors []wellness.BehaviorRecord
	for hour := 0; hour < 12; hour++ {
		for rep := 0; rep < 4; rep++ {
			behaviors = append(behaviors, wellness.BehaviorRecord{
				Timestamp: base.Add(time.Duration(hour)*time.Hour + time.Duration(rep)*24*time.Hour),
				Trigger:   fmt.Sprintf("trigger-%d", hour),
			})
		}
	}

	recs, _ := e.Extract(context.Background(), wellness.RecordSet{Behaviors: behaviors}, "")
	assert.Len(t, recs, 3)
}

func TestExtract_RecencySampling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleSize = 5
	e := NewExtractor(cfg, nil)

	now := time.Now()
	var behaviors []wellness.BehaviorRecord
	// Old records all share trigger "ancient"; only the 5 newest (trigger
	// "recent") survive sampling.
	for i := 0; i < 10; i++ {
		behaviors = append(behaviors, behaviorAt(now.AddDate(0, 0, -30-i), "ancient"))
	}
	for i := 0; i < 5; i++ {
		behaviors = append(behaviors, behaviorAt(now.Add(-time.Duration(i)*time.Minute), "recent"))
	}

	recs, _ := e.Extract(context.Background(), wellness.RecordSet{Behaviors: behaviors}, "")

	for _, r := range recs {
		assert.NotEqual(t, "ancient", r.Type)
	}
}

func TestStepConfidence(t *testing.T) {
	tests := []struct {
		n    int
		want float64
	}{
		{0, 0.1}, {1, 0.1}, {2, 0.2}, {4, 0.2}, {5, 0.4}, {9, 0.4},
		{10, 0.6}, {19, 0.6}, {20, 0.8}, {49, 0.8}, {50, 0.95}, {500, 0.95},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StepConfidence(tt.n), "n=%d", tt.n)
	}

	// Monotonic.
	prev := 0.0
	for n := 0; n <= 60; n++ {
		c := StepConfidence(n)
		assert.GreaterOrEqual(t, c, prev)
		prev = c
	}
}
