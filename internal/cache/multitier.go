package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fernwell/insightd/internal/logging"
	"github.com/fernwell/insightd/internal/wellness"
)

// MultiTier coordinates an ordered set of tiers, fastest first. Reads probe
// tiers in order and promote slow-tier hits forward; writes go through to
// every tier. A failing tier degrades lookups for that tier only and never
// fails a request.
type MultiTier struct {
	tiers  []Tier
	policy Policy
	logger *logging.Logger
	now    func() time.Time
}

// MultiTierOption customizes a MultiTier.
type MultiTierOption func(*MultiTier)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) MultiTierOption {
	return func(m *MultiTier) { m.now = now }
}

// NewMultiTier builds the coordinator over tiers ordered fastest first.
// At least one tier is required.
func NewMultiTier(policy Policy, logger *logging.Logger, tiers []Tier, opts ...MultiTierOption) (*MultiTier, error) {
	if len(tiers) == 0 {
		return nil, errors.New("at least one cache tier required")
	}
	if policy.CategoryTTL == nil {
		return nil, errors.New("cache policy requires a category TTL resolver")
	}
	initMetrics()

	m := &MultiTier{
		tiers:  tiers,
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Lookup returns the cached bundle for key, or (nil, false) on a miss.
// Expired entries and stale negative entries are evicted on the way.
func (m *MultiTier) Lookup(ctx context.Context, key string) (*wellness.ResultBundle, bool) {
	now := m.now()

	for i, tier := range m.tiers {
		entry, err := tier.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			m.logger.Warn(ctx, "cache tier read failed",
				zap.String("tier", tier.Name()), zap.Error(err))
			continue
		}

		// Promoted copies carry a shorter lifetime than their source, so
		// an expired read here only clears this tier; a deeper tier may
		// still hold a live entry.
		if entry.Expired(now) {
			if err := tier.Delete(ctx, key); err != nil {
				m.logger.Warn(ctx, "cache eviction failed",
					zap.String("tier", tier.Name()), zap.Error(err))
			}
			evictionsTotal.WithLabelValues("expired").Inc()
			continue
		}

		// A negative result near the end of its short life is dropped
		// early so the next request recomputes instead of re-serving
		// an empty answer.
		if entry.Negative() && entry.Remaining(now) < m.policy.NegativeEvict {
			m.evictAll(ctx, key, "negative")
			break
		}

		hitsTotal.WithLabelValues(tier.Name()).Inc()
		if i > 0 {
			m.promote(ctx, entry, m.tiers[:i], now)
		}
		return entry.Bundle, true
	}

	missesTotal.Inc()
	return nil, false
}

// Put writes the bundle through to every tier, with the category TTL for
// real results and the short negative TTL for empty ones.
func (m *MultiTier) Put(ctx context.Context, key, subjectID string, bundle *wellness.ResultBundle) {
	now := m.now()
	entry := &Entry{
		Key:       key,
		SubjectID: subjectID,
		Category:  bundle.Category(),
		Bundle:    bundle,
		CreatedAt: now,
		ExpiresAt: now.Add(m.policy.TTLFor(bundle)),
	}
	if entry.Negative() {
		negativeWrites.Inc()
	}

	for _, tier := range m.tiers {
		if err := tier.Set(ctx, entry); err != nil {
			m.logger.Warn(ctx, "cache tier write failed",
				zap.String("tier", tier.Name()), zap.Error(err))
		}
	}
}

// Invalidate removes entries for a subject across all tiers, optionally
// restricted to the given bundle categories. Returns the total removed.
func (m *MultiTier) Invalidate(ctx context.Context, subjectID string, categories ...string) int {
	removed := 0
	for _, tier := range m.tiers {
		n, err := tier.DeleteScope(ctx, subjectID, categories)
		if err != nil {
			m.logger.Warn(ctx, "cache tier invalidation failed",
				zap.String("tier", tier.Name()), zap.Error(err))
			continue
		}
		removed += n
	}
	if removed > 0 {
		evictionsTotal.WithLabelValues("invalidated").Add(float64(removed))
	}
	return removed
}

// ClearFastTier empties only the fastest tier, used for manual refresh so
// durable tiers repopulate it on the next lookup.
func (m *MultiTier) ClearFastTier(ctx context.Context) int {
	n, err := m.tiers[0].Clear(ctx)
	if err != nil {
		m.logger.Warn(ctx, "cache fast tier clear failed", zap.Error(err))
		return 0
	}
	return n
}

// Sweep removes expired entries from every tier and returns the total.
func (m *MultiTier) Sweep(ctx context.Context) int {
	now := m.now()
	removed := 0
	for _, tier := range m.tiers {
		n, err := tier.Sweep(ctx, now)
		if err != nil {
			m.logger.Warn(ctx, "cache tier sweep failed",
				zap.String("tier", tier.Name()), zap.Error(err))
			continue
		}
		removed += n
	}
	return removed
}

// Close releases every tier, returning the joined errors.
func (m *MultiTier) Close() error {
	var errs []error
	for _, tier := range m.tiers {
		if err := tier.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// promote copies a slow-tier hit into the faster tiers that missed, with a
// reduced lifetime so promoted copies never outlive the original entry.
func (m *MultiTier) promote(ctx context.Context, entry *Entry, faster []Tier, now time.Time) {
	expires := now.Add(m.policy.PromotionTTL(entry.Bundle))
	if expires.After(entry.ExpiresAt) {
		expires = entry.ExpiresAt
	}
	promoted := *entry
	promoted.ExpiresAt = expires

	for _, tier := range faster {
		if err := tier.Set(ctx, &promoted); err != nil {
			m.logger.Warn(ctx, "cache promotion failed",
				zap.String("tier", tier.Name()), zap.Error(err))
		}
	}
	promotionsTotal.Inc()
}

func (m *MultiTier) evictAll(ctx context.Context, key, reason string) {
	for _, tier := range m.tiers {
		if err := tier.Delete(ctx, key); err != nil {
			m.logger.Warn(ctx, "cache eviction failed",
				zap.String("tier", tier.Name()), zap.Error(err))
		}
	}
	evictionsTotal.WithLabelValues(reason).Inc()
}
