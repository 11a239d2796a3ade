package pipeline

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// branchGroup runs the enrichment branches concurrently. Each branch gets
// its own deadline and panic recovery so a slow or broken collaborator
// degrades that branch to its zero value instead of failing the request.
type branchGroup struct {
	wg sync.WaitGroup
}

func (g *branchGroup) run(s *Service, ctx context.Context, name string, fn func(context.Context)) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				branchPanics.WithLabelValues(name).Inc()
				s.logger.Error(ctx, "pipeline branch panicked",
					zap.String("branch", name), zap.Any("panic", rec))
			}
		}()

		branchCtx, cancel := context.WithTimeout(ctx, s.cfg.Pipeline.BranchTimeout.Duration())
		defer cancel()

		fn(branchCtx)

		if errors.Is(branchCtx.Err(), context.DeadlineExceeded) {
			branchTimeouts.WithLabelValues(name).Inc()
			s.logger.Warn(ctx, "pipeline branch hit its deadline",
				zap.String("branch", name))
		}
	}()
}

func (g *branchGroup) wait() {
	g.wg.Wait()
}
