package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernwell/insightd/internal/wellness"
)

func newSQLiteForTest(t *testing.T) (*SQLiteTier, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	tier, err := NewSQLiteTier(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tier.Close() })
	return tier, path
}

func TestSQLiteTier_RoundTrip(t *testing.T) {
	tier, _ := newSQLiteForTest(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second).UTC()

	entry := &Entry{
		Key:       "k1",
		SubjectID: "s1",
		Category:  "insights",
		Bundle: &wellness.ResultBundle{
			Insights: wellness.Insights{
				Progress: []wellness.InsightRecord{{
					Text:     "Mood is trending upward this week.",
					Category: wellness.InsightProgress,
					Priority: wellness.PriorityMedium,
				}},
			},
		},
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, tier.Set(ctx, entry))

	got, err := tier.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.SubjectID)
	assert.Equal(t, "insights", got.Category)
	assert.Equal(t, 1, got.Bundle.Insights.Total())
	assert.True(t, got.ExpiresAt.Equal(entry.ExpiresAt))

	_, err = tier.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteTier_UpsertReplaces(t *testing.T) {
	tier, _ := newSQLiteForTest(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second).UTC()

	first := &Entry{
		Key: "k1", SubjectID: "s1", Category: "voice",
		Bundle: &wellness.ResultBundle{}, CreatedAt: now, ExpiresAt: now.Add(time.Minute),
	}
	require.NoError(t, tier.Set(ctx, first))

	second := *first
	second.Category = "patterns"
	second.ExpiresAt = now.Add(time.Hour)
	require.NoError(t, tier.Set(ctx, &second))

	got, err := tier.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "patterns", got.Category)
	assert.True(t, got.ExpiresAt.Equal(second.ExpiresAt))
}

func TestSQLiteTier_SurvivesReopen(t *testing.T) {
	tier, path := newSQLiteForTest(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second).UTC()

	require.NoError(t, tier.Set(ctx, &Entry{
		Key: "k1", SubjectID: "s1", Category: "voice",
		Bundle: &wellness.ResultBundle{}, CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}))
	require.NoError(t, tier.Close())

	reopened, err := NewSQLiteTier(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.SubjectID)
}

func TestSQLiteTier_DeleteScope(t *testing.T) {
	tier, _ := newSQLiteForTest(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second).UTC()

	for _, e := range []struct{ key, subject, category string }{
		{"a", "s1", "voice"},
		{"b", "s1", "patterns"},
		{"c", "s2", "patterns"},
	} {
		require.NoError(t, tier.Set(ctx, &Entry{
			Key: e.key, SubjectID: e.subject, Category: e.category,
			Bundle: &wellness.ResultBundle{}, CreatedAt: now, ExpiresAt: now.Add(time.Hour),
		}))
	}

	removed, err := tier.DeleteScope(ctx, "s1", []string{"patterns"})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	removed, err = tier.DeleteScope(ctx, "s1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	removed, err = tier.DeleteScope(ctx, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestSQLiteTier_Sweep(t *testing.T) {
	tier, _ := newSQLiteForTest(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second).UTC()

	require.NoError(t, tier.Set(ctx, &Entry{
		Key: "old", SubjectID: "s1", Category: "voice",
		Bundle: &wellness.ResultBundle{}, CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour),
	}))
	require.NoError(t, tier.Set(ctx, &Entry{
		Key: "live", SubjectID: "s1", Category: "voice",
		Bundle: &wellness.ResultBundle{}, CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}))

	removed, err := tier.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = tier.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = tier.Get(ctx, "live")
	assert.NoError(t, err)
}
