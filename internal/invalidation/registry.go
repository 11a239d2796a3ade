// Package invalidation maps domain events to cache invalidation scopes and
// fans the outcome out to interested listeners.
package invalidation

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/fernwell/insightd/internal/cache"
	"github.com/fernwell/insightd/internal/logging"
	"github.com/fernwell/insightd/internal/telemetry"
)

// Trigger names a domain event that invalidates cached results.
type Trigger string

const (
	// TriggerBehaviorRecorded fires when the subject logs a new behavior
	// entry. Pattern and insight bundles become stale; pure voice
	// classifications do not.
	TriggerBehaviorRecorded Trigger = "behavior.recorded"

	// TriggerMoodRecorded fires when the subject logs a new mood entry.
	// Same scope as behavior: analytics-derived bundles only.
	TriggerMoodRecorded Trigger = "mood.recorded"

	// TriggerManualRefresh is an explicit user request for fresh results.
	// It always empties the fast tier so durable tiers repopulate it, and
	// with a subject it also drops that subject from every tier.
	TriggerManualRefresh Trigger = "manual.refresh"
)

// recordScope is what a new behavior or mood record invalidates.
var recordScope = []string{"patterns", "insights"}

// Listener observes completed invalidations. Listeners must not block.
type Listener func(trigger Trigger, subjectID string, removed int)

// Registry routes triggers to cache scopes.
type Registry struct {
	cache  *cache.MultiTier
	sink   telemetry.Sink
	logger *logging.Logger

	mu        sync.RWMutex
	listeners []Listener
}

// NewRegistry wires the registry to its cache and telemetry sink.
func NewRegistry(c *cache.MultiTier, sink telemetry.Sink, logger *logging.Logger) *Registry {
	return &Registry{
		cache:  c,
		sink:   sink,
		logger: logger,
	}
}

// Subscribe registers a listener for completed invalidations.
func (r *Registry) Subscribe(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Invalidate applies the trigger's scope and returns the number of entries
// removed. Record triggers require a subject; manual refresh does not.
func (r *Registry) Invalidate(ctx context.Context, trigger Trigger, subjectID string) (int, error) {
	var removed int

	switch trigger {
	case TriggerBehaviorRecorded, TriggerMoodRecorded:
		if subjectID == "" {
			return 0, fmt.Errorf("trigger %q requires a subject", trigger)
		}
		removed = r.cache.Invalidate(ctx, subjectID, recordScope...)
	case TriggerManualRefresh:
		removed = r.cache.ClearFastTier(ctx)
		if subjectID != "" {
			removed += r.cache.Invalidate(ctx, subjectID)
		}
	default:
		return 0, fmt.Errorf("unknown invalidation trigger %q", trigger)
	}

	r.logger.Info(ctx, "cache invalidated",
		zap.String("trigger", string(trigger)),
		zap.String("subject.id", subjectID),
		zap.Int("removed", removed))

	r.sink.Emit(telemetry.Event{
		Name:      "cache.invalidated",
		SubjectID: subjectID,
		Fields: map[string]any{
			"trigger": string(trigger),
			"removed": removed,
		},
	})
	r.notify(ctx, trigger, subjectID, removed)

	return removed, nil
}

// notify fans out to listeners. A panicking listener is logged and skipped
// so one bad observer cannot break invalidation.
func (r *Registry) notify(ctx context.Context, trigger Trigger, subjectID string, removed int) {
	r.mu.RLock()
	listeners := make([]Listener, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.RUnlock()

	for _, l := range listeners {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					r.logger.Error(ctx, "invalidation listener panicked",
						zap.String("trigger", string(trigger)),
						zap.Any("panic", rec))
				}
			}()
			l(trigger, subjectID, removed)
		}()
	}
}
