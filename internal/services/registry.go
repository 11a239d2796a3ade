package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/fernwell/insightd/internal/analytics"
	"github.com/fernwell/insightd/internal/cache"
	"github.com/fernwell/insightd/internal/config"
	"github.com/fernwell/insightd/internal/insights"
	"github.com/fernwell/insightd/internal/invalidation"
	"github.com/fernwell/insightd/internal/logging"
	"github.com/fernwell/insightd/internal/patterns"
	"github.com/fernwell/insightd/internal/pipeline"
	"github.com/fernwell/insightd/internal/telemetry"
)

// Registry provides access to all insightd services.
// Use accessor methods to retrieve individual services.
type Registry interface {
	Pipeline() *pipeline.Service
	Cache() *cache.MultiTier
	Invalidation() *invalidation.Registry
	Telemetry() telemetry.Sink

	// Close stops background work and releases every resource the
	// registry owns.
	Close(ctx context.Context) error
}

// Options configures the registry with service instances.
type Options struct {
	Pipeline     *pipeline.Service
	Cache        *cache.MultiTier
	Invalidation *invalidation.Registry
	Telemetry    telemetry.Sink
	Sweeper      *cache.Sweeper
}

// registry is the concrete implementation of Registry.
type registry struct {
	pipeline     *pipeline.Service
	cache        *cache.MultiTier
	invalidation *invalidation.Registry
	telemetry    telemetry.Sink
	sweeper      *cache.Sweeper
}

// NewRegistry creates a registry from already-built services.
func NewRegistry(opts Options) Registry {
	return &registry{
		pipeline:     opts.Pipeline,
		cache:        opts.Cache,
		invalidation: opts.Invalidation,
		telemetry:    opts.Telemetry,
		sweeper:      opts.Sweeper,
	}
}

func (r *registry) Pipeline() *pipeline.Service          { return r.pipeline }
func (r *registry) Cache() *cache.MultiTier              { return r.cache }
func (r *registry) Invalidation() *invalidation.Registry { return r.invalidation }
func (r *registry) Telemetry() telemetry.Sink            { return r.telemetry }

func (r *registry) Close(ctx context.Context) error {
	if r.sweeper != nil {
		r.sweeper.Stop()
	}

	var errs []error
	if r.telemetry != nil {
		if err := r.telemetry.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.cache != nil {
		if err := r.cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewFromConfig builds the full service graph from configuration: cache
// tiers per the enabled backends, the sweeper, telemetry, invalidation, and
// the pipeline. The returned registry owns everything and tears it down in
// Close.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *logging.Logger) (Registry, error) {
	tiers := []cache.Tier{cache.NewMemoryTier(cfg.Cache.Memory.MaxEntries)}

	if cfg.Cache.Redis.Enabled {
		redisTier, err := cache.NewRedisTier(ctx,
			cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("redis tier: %w", err)
		}
		tiers = append(tiers, redisTier)
	}
	if cfg.Cache.SQLite.Enabled {
		sqliteTier, err := cache.NewSQLiteTier(cfg.Cache.SQLite.Path)
		if err != nil {
			closeTiers(tiers)
			return nil, fmt.Errorf("sqlite tier: %w", err)
		}
		tiers = append(tiers, sqliteTier)
	}

	policy := cache.Policy{
		CategoryTTL:     cfg.CategoryTTL,
		NegativeTTL:     cfg.NegativeTTLValue(),
		NegativeEvict:   cfg.NegativeEvictValue(),
		PromotionFactor: cfg.Cache.PromotionFactor,
	}
	multi, err := cache.NewMultiTier(policy, logger.Named("cache"), tiers)
	if err != nil {
		closeTiers(tiers)
		return nil, err
	}

	sink := telemetry.NewAsyncSink(logger.Named("telemetry"))
	inval := invalidation.NewRegistry(multi, sink, logger.Named("invalidation"))

	svc, err := pipeline.NewService(pipeline.Options{
		Config:       cfg,
		Logger:       logger.Named("pipeline"),
		Cache:        multi,
		Invalidation: inval,
		Telemetry:    sink,
		Extractor:    patterns.NewExtractor(patterns.Config{SampleSize: cfg.Pipeline.SampleSize}, logger),
		Engine:       analytics.NewEngine(logger),
		Generator:    insights.NewGenerator(insights.Config{MaxPerCategory: cfg.Insights.MaxPerCategory}, logger),
	})
	if err != nil {
		_ = sink.Close()
		_ = multi.Close()
		return nil, err
	}

	sweeper := cache.NewSweeper(multi, cfg.Cache.SweepInterval.Duration(), logger.Named("sweeper"))
	sweeper.Start()

	return NewRegistry(Options{
		Pipeline:     svc,
		Cache:        multi,
		Invalidation: inval,
		Telemetry:    sink,
		Sweeper:      sweeper,
	}), nil
}

func closeTiers(tiers []cache.Tier) {
	for _, t := range tiers {
		_ = t.Close()
	}
}
