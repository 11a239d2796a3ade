package cache

import (
	"context"
	"errors"
	"time"

	"github.com/fernwell/insightd/internal/wellness"
)

// Errors for cache operations.
var (
	// ErrNotFound marks a cache miss. Tier faults are returned as other
	// errors and must never fail the overall request.
	ErrNotFound = errors.New("cache entry not found")
)

// Entry is one cached result bundle across all tiers.
type Entry struct {
	Key       string                `json:"key"`
	SubjectID string                `json:"subject_id"`
	Category  string                `json:"category"`
	Bundle    *wellness.ResultBundle `json:"bundle"`
	CreatedAt time.Time             `json:"created_at"`
	ExpiresAt time.Time             `json:"expires_at"`
}

// Expired reports whether the entry's lifetime has passed.
func (e *Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Remaining returns the entry's remaining lifetime, which can be negative.
func (e *Entry) Remaining(now time.Time) time.Duration {
	return e.ExpiresAt.Sub(now)
}

// Negative reports whether the entry holds an empty result.
func (e *Entry) Negative() bool {
	return e.Bundle == nil || e.Bundle.Negative()
}

// Tier is one cache storage layer. Implementations must be safe for
// concurrent use; each write is atomic per tier.
type Tier interface {
	// Name identifies the tier in logs and metrics.
	Name() string

	// Get returns the entry for key, or ErrNotFound on miss. Expiry is
	// enforced by the caller, not the tier.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set stores the entry, replacing any previous value for its key.
	Set(ctx context.Context, entry *Entry) error

	// Delete removes the entry for key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// DeleteScope removes entries for a subject, optionally restricted to
	// the given bundle categories. An empty subjectID matches all
	// subjects; empty categories match all categories. Returns the count
	// of removed entries.
	DeleteScope(ctx context.Context, subjectID string, categories []string) (int, error)

	// Clear removes every entry and returns the count removed.
	Clear(ctx context.Context) (int, error)

	// Sweep removes entries that expired before now and returns the
	// count removed.
	Sweep(ctx context.Context, now time.Time) (int, error)

	// Close releases tier resources.
	Close() error
}

// Policy holds the TTL rules applied on write and promotion.
type Policy struct {
	// CategoryTTL resolves the lifetime for a bundle category
	// (voice, patterns, insights).
	CategoryTTL func(category string) time.Duration

	// NegativeTTL is the short lifetime written for empty-insight
	// bundles regardless of category.
	NegativeTTL time.Duration

	// NegativeEvict is the remaining-life threshold below which a cached
	// negative result is evicted on read and treated as a miss.
	NegativeEvict time.Duration

	// PromotionFactor scales the category TTL when a slow-tier hit is
	// promoted into faster tiers.
	PromotionFactor float64
}

// TTLFor returns the write lifetime for a bundle: the negative TTL when the
// bundle carries zero insights, the category TTL otherwise.
func (p Policy) TTLFor(bundle *wellness.ResultBundle) time.Duration {
	if bundle == nil || bundle.Negative() {
		return p.NegativeTTL
	}
	return p.CategoryTTL(bundle.Category())
}

// PromotionTTL returns the reduced lifetime used when promoting a hit into
// faster tiers, floored at the negative TTL.
func (p Policy) PromotionTTL(bundle *wellness.ResultBundle) time.Duration {
	ttl := time.Duration(float64(p.TTLFor(bundle)) * p.PromotionFactor)
	if ttl < p.NegativeTTL {
		ttl = p.NegativeTTL
	}
	return ttl
}

// matchScope implements the shared scope predicate for tiers that filter
// in-process.
func matchScope(e *Entry, subjectID string, categories []string) bool {
	if subjectID != "" && e.SubjectID != subjectID {
		return false
	}
	if len(categories) == 0 {
		return true
	}
	for _, c := range categories {
		if e.Category == c {
			return true
		}
	}
	return false
}
