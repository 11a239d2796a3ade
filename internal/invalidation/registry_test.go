package invalidation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernwell/insightd/internal/cache"
	"github.com/fernwell/insightd/internal/logging"
	"github.com/fernwell/insightd/internal/telemetry"
	"github.com/fernwell/insightd/internal/wellness"
)

func newTestRegistry(t *testing.T) (*Registry, *cache.MemoryTier, *cache.MultiTier) {
	t.Helper()

	tier := cache.NewMemoryTier(100)
	policy := cache.Policy{
		CategoryTTL:     func(string) time.Duration { return time.Hour },
		NegativeTTL:     5 * time.Minute,
		NegativeEvict:   time.Minute,
		PromotionFactor: 0.5,
	}
	multi, err := cache.NewMultiTier(policy, logging.NewNop(), []cache.Tier{tier})
	require.NoError(t, err)

	return NewRegistry(multi, telemetry.NopSink{}, logging.NewNop()), tier, multi
}

func insightBundle() *wellness.ResultBundle {
	return &wellness.ResultBundle{
		Insights: wellness.Insights{
			Progress: []wellness.InsightRecord{{
				Text:     "Weekly mood is trending upward.",
				Category: wellness.InsightProgress,
				Priority: wellness.PriorityMedium,
			}},
		},
	}
}

func voiceBundle() *wellness.ResultBundle {
	return &wellness.ResultBundle{
		Voice: &wellness.VoiceClassification{Category: "neutral", Confidence: 0.2},
		Insights: wellness.Insights{
			Therapeutic: []wellness.InsightRecord{{
				Text:     "A short walk can reset a stressful afternoon.",
				Category: wellness.InsightTherapeutic,
				Priority: wellness.PriorityLow,
			}},
		},
	}
}

func TestInvalidate_RecordTriggersScopeToAnalytics(t *testing.T) {
	reg, tier, multi := newTestRegistry(t)
	ctx := context.Background()

	// An insight-carrying bundle and a voice-only one for the same subject.
	multi.Put(ctx, "s1:data:mobile:aaaa", "s1", insightBundle())
	voiceOnly := &wellness.ResultBundle{
		Voice: &wellness.VoiceClassification{Category: "neutral", Confidence: 0.2},
	}
	multi.Put(ctx, "s1:voice:mobile:bbbb", "s1", voiceOnly)
	multi.Put(ctx, "s2:data:mobile:cccc", "s2", insightBundle())

	removed, err := reg.Invalidate(ctx, TriggerMoodRecorded, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	// The voice-category bundle and the other subject survive.
	assert.Equal(t, 2, tier.Len())
}

func TestInvalidate_BehaviorTriggerRequiresSubject(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	_, err := reg.Invalidate(context.Background(), TriggerBehaviorRecorded, "")
	assert.Error(t, err)
}

func TestInvalidate_ManualRefreshWithSubject(t *testing.T) {
	// Two tiers so the durable one's retention is visible.
	fast := cache.NewMemoryTier(100)
	slow := cache.NewMemoryTier(100)
	policy := cache.Policy{
		CategoryTTL:     func(string) time.Duration { return time.Hour },
		NegativeTTL:     5 * time.Minute,
		NegativeEvict:   time.Minute,
		PromotionFactor: 0.5,
	}
	multi, err := cache.NewMultiTier(policy, logging.NewNop(), []cache.Tier{fast, slow})
	require.NoError(t, err)
	reg := NewRegistry(multi, telemetry.NopSink{}, logging.NewNop())
	ctx := context.Background()

	multi.Put(ctx, "s1:voice:mobile:aaaa", "s1", voiceBundle())
	multi.Put(ctx, "s2:data:mobile:bbbb", "s2", insightBundle())

	// The fast tier is emptied entirely; the durable tier loses only the
	// named subject.
	removed, err := reg.Invalidate(ctx, TriggerManualRefresh, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	assert.Equal(t, 0, fast.Len())
	assert.Equal(t, 1, slow.Len())
}

func TestInvalidate_ManualRefreshGlobalClearsFastTier(t *testing.T) {
	reg, tier, multi := newTestRegistry(t)
	ctx := context.Background()

	multi.Put(ctx, "s1:data:mobile:aaaa", "s1", insightBundle())
	multi.Put(ctx, "s2:data:mobile:bbbb", "s2", insightBundle())

	removed, err := reg.Invalidate(ctx, TriggerManualRefresh, "")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, tier.Len())
}

func TestInvalidate_UnknownTrigger(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	_, err := reg.Invalidate(context.Background(), Trigger("bogus"), "s1")
	assert.Error(t, err)
}

func TestInvalidate_NotifiesListeners(t *testing.T) {
	reg, _, multi := newTestRegistry(t)
	ctx := context.Background()

	multi.Put(ctx, "s1:data:mobile:aaaa", "s1", insightBundle())

	var gotTrigger Trigger
	var gotSubject string
	var gotRemoved int
	reg.Subscribe(func(trigger Trigger, subjectID string, removed int) {
		gotTrigger = trigger
		gotSubject = subjectID
		gotRemoved = removed
	})
	// A panicking listener must not break the others or the call.
	reg.Subscribe(func(Trigger, string, int) { panic("listener bug") })

	_, err := reg.Invalidate(ctx, TriggerBehaviorRecorded, "s1")
	require.NoError(t, err)

	assert.Equal(t, TriggerBehaviorRecorded, gotTrigger)
	assert.Equal(t, "s1", gotSubject)
	assert.Equal(t, 1, gotRemoved)
}
