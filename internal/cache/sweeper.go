package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fernwell/insightd/internal/logging"
)

// Sweeper periodically removes expired entries from every tier so durable
// tiers do not accumulate dead rows between reads.
type Sweeper struct {
	cache    *MultiTier
	interval time.Duration
	logger   *logging.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSweeper creates a sweeper over the given cache.
func NewSweeper(cache *MultiTier, interval time.Duration, logger *logging.Logger) *Sweeper {
	return &Sweeper{
		cache:    cache,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the background sweep loop. Starting a running sweeper is a
// no-op.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	go s.run(s.stopCh, s.doneCh)
	s.logger.Info(context.Background(), "cache sweeper started",
		zap.Duration("interval", s.interval))
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	doneCh := s.doneCh
	s.mu.Unlock()

	<-doneCh
	s.logger.Info(context.Background(), "cache sweeper stopped")
}

func (s *Sweeper) run(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			removed := s.cache.Sweep(context.Background())
			if removed > 0 {
				s.logger.Debug(context.Background(), "cache sweep completed",
					zap.Int("removed", removed))
			}
		}
	}
}
