package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernwell/insightd/internal/logging"
	"github.com/fernwell/insightd/internal/wellness"
)

func testPolicy() Policy {
	return Policy{
		CategoryTTL:     func(string) time.Duration { return time.Hour },
		NegativeTTL:     5 * time.Minute,
		NegativeEvict:   time.Minute,
		PromotionFactor: 0.5,
	}
}

func positiveBundle() *wellness.ResultBundle {
	return &wellness.ResultBundle{
		Insights: wellness.Insights{
			Therapeutic: []wellness.InsightRecord{{
				Text:       "Short breathing breaks lower your stress load.",
				Category:   wellness.InsightTherapeutic,
				Priority:   wellness.PriorityHigh,
				Confidence: 0.8,
			}},
		},
	}
}

// faultyTier fails every operation, standing in for an unreachable backend.
type faultyTier struct{}

func (faultyTier) Name() string { return "faulty" }

func (faultyTier) Get(context.Context, string) (*Entry, error) { return nil, errors.New("down") }

func (faultyTier) Set(context.Context, *Entry) error { return errors.New("down") }

func (faultyTier) Delete(context.Context, string) error { return errors.New("down") }

func (faultyTier) Clear(context.Context) (int, error) { return 0, errors.New("down") }

func (faultyTier) Sweep(context.Context, time.Time) (int, error) { return 0, errors.New("down") }

func (faultyTier) Close() error { return nil }
func (faultyTier) DeleteScope(context.Context, string, []string) (int, error) {
	return 0, errors.New("down")
}

func newTestMultiTier(t *testing.T, tiers []Tier, now *time.Time) *MultiTier {
	t.Helper()
	m, err := NewMultiTier(testPolicy(), logging.NewNop(), tiers,
		WithClock(func() time.Time { return *now }))
	require.NoError(t, err)
	return m
}

func TestMultiTier_WriteThroughAndLookup(t *testing.T) {
	now := time.Now()
	fast := NewMemoryTier(10)
	slow := NewMemoryTier(10)
	m := newTestMultiTier(t, []Tier{fast, slow}, &now)
	ctx := context.Background()

	m.Put(ctx, "k1", "s1", positiveBundle())

	got, ok := m.Lookup(ctx, "k1")
	require.True(t, ok)
	assert.Equal(t, 1, got.Insights.Total())

	// Write-through landed in both tiers.
	assert.Equal(t, 1, fast.Len())
	assert.Equal(t, 1, slow.Len())
}

func TestMultiTier_PromotionFromSlowTier(t *testing.T) {
	now := time.Now()
	fast := NewMemoryTier(10)
	slow := NewMemoryTier(10)
	m := newTestMultiTier(t, []Tier{fast, slow}, &now)
	ctx := context.Background()

	entry := &Entry{
		Key:       "k1",
		SubjectID: "s1",
		Category:  "insights",
		Bundle:    positiveBundle(),
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, slow.Set(ctx, entry))

	_, ok := m.Lookup(ctx, "k1")
	require.True(t, ok)

	// The hit was copied forward with the reduced promotion lifetime.
	promoted, err := fast.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*time.Minute), promoted.ExpiresAt)
}

func TestMultiTier_PromotionCappedAtOriginalExpiry(t *testing.T) {
	now := time.Now()
	fast := NewMemoryTier(10)
	slow := NewMemoryTier(10)
	m := newTestMultiTier(t, []Tier{fast, slow}, &now)
	ctx := context.Background()

	// Only ten minutes of life left; the promoted copy must not outlive it.
	entry := &Entry{
		Key:       "k1",
		SubjectID: "s1",
		Category:  "insights",
		Bundle:    positiveBundle(),
		CreatedAt: now.Add(-50 * time.Minute),
		ExpiresAt: now.Add(10 * time.Minute),
	}
	require.NoError(t, slow.Set(ctx, entry))

	_, ok := m.Lookup(ctx, "k1")
	require.True(t, ok)

	promoted, err := fast.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, entry.ExpiresAt, promoted.ExpiresAt)
}

func TestMultiTier_ExpiredEntryEvicted(t *testing.T) {
	now := time.Now()
	fast := NewMemoryTier(10)
	slow := NewMemoryTier(10)
	m := newTestMultiTier(t, []Tier{fast, slow}, &now)
	ctx := context.Background()

	m.Put(ctx, "k1", "s1", positiveBundle())

	now = now.Add(2 * time.Hour)
	_, ok := m.Lookup(ctx, "k1")
	assert.False(t, ok)
	assert.Equal(t, 0, fast.Len())
	assert.Equal(t, 0, slow.Len())
}

func TestMultiTier_ExpiredPromotedCopyFallsThrough(t *testing.T) {
	now := time.Now()
	fast := NewMemoryTier(10)
	slow := NewMemoryTier(10)
	m := newTestMultiTier(t, []Tier{fast, slow}, &now)
	ctx := context.Background()

	// The fast tier holds an expired promoted copy; the durable tier's
	// original is still live.
	require.NoError(t, fast.Set(ctx, &Entry{
		Key: "k1", SubjectID: "s1", Category: "insights",
		Bundle: positiveBundle(), CreatedAt: now.Add(-time.Hour), ExpiresAt: now.Add(-time.Minute),
	}))
	require.NoError(t, slow.Set(ctx, &Entry{
		Key: "k1", SubjectID: "s1", Category: "insights",
		Bundle: positiveBundle(), CreatedAt: now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour),
	}))

	_, ok := m.Lookup(ctx, "k1")
	require.True(t, ok)

	// The live entry was promoted back into the fast tier.
	repromoted, err := fast.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, repromoted.Expired(now))
}

func TestMultiTier_NegativeCaching(t *testing.T) {
	start := time.Now()
	now := start
	fast := NewMemoryTier(10)
	m := newTestMultiTier(t, []Tier{fast}, &now)
	ctx := context.Background()

	m.Put(ctx, "k1", "s1", &wellness.ResultBundle{})

	// Fresh negative entries are served.
	got, ok := m.Lookup(ctx, "k1")
	require.True(t, ok)
	assert.True(t, got.Negative())

	// Within a minute of expiry the negative entry is dropped so the next
	// request recomputes.
	now = start.Add(4*time.Minute + 30*time.Second)
	_, ok = m.Lookup(ctx, "k1")
	assert.False(t, ok)
	assert.Equal(t, 0, fast.Len())
}

func TestMultiTier_PositiveNotDroppedEarly(t *testing.T) {
	start := time.Now()
	now := start
	fast := NewMemoryTier(10)
	m := newTestMultiTier(t, []Tier{fast}, &now)
	ctx := context.Background()

	m.Put(ctx, "k1", "s1", positiveBundle())

	// Real results are served until actual expiry, even in the last minute.
	now = start.Add(time.Hour - time.Second)
	_, ok := m.Lookup(ctx, "k1")
	assert.True(t, ok)
}

func TestMultiTier_FaultyTierSkipped(t *testing.T) {
	now := time.Now()
	healthy := NewMemoryTier(10)
	m := newTestMultiTier(t, []Tier{faultyTier{}, healthy}, &now)
	ctx := context.Background()

	// Put logs the faulty tier and still lands in the healthy one.
	m.Put(ctx, "k1", "s1", positiveBundle())
	assert.Equal(t, 1, healthy.Len())

	_, ok := m.Lookup(ctx, "k1")
	assert.True(t, ok)
}

func TestMultiTier_Invalidate(t *testing.T) {
	now := time.Now()
	fast := NewMemoryTier(10)
	slow := NewMemoryTier(10)
	m := newTestMultiTier(t, []Tier{fast, slow}, &now)
	ctx := context.Background()

	m.Put(ctx, "k1", "s1", positiveBundle())
	m.Put(ctx, "k2", "s2", positiveBundle())

	removed := m.Invalidate(ctx, "s1")
	assert.Equal(t, 2, removed) // once per tier

	_, ok := m.Lookup(ctx, "k1")
	assert.False(t, ok)
	_, ok = m.Lookup(ctx, "k2")
	assert.True(t, ok)
}

func TestMultiTier_ClearFastTier(t *testing.T) {
	now := time.Now()
	fast := NewMemoryTier(10)
	slow := NewMemoryTier(10)
	m := newTestMultiTier(t, []Tier{fast, slow}, &now)
	ctx := context.Background()

	m.Put(ctx, "k1", "s1", positiveBundle())

	n := m.ClearFastTier(ctx)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, fast.Len())

	// The durable tier repopulates the fast tier on the next lookup.
	_, ok := m.Lookup(ctx, "k1")
	require.True(t, ok)
	assert.Equal(t, 1, fast.Len())
}

func TestNewMultiTier_Validation(t *testing.T) {
	_, err := NewMultiTier(testPolicy(), logging.NewNop(), nil)
	assert.Error(t, err)

	_, err = NewMultiTier(Policy{}, logging.NewNop(), []Tier{NewMemoryTier(1)})
	assert.Error(t, err)
}
