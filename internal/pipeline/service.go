// Package pipeline orchestrates one analysis request end to end: cache
// lookup, concurrent enrichment branches, statistical analytics, insight
// generation, and write-through caching of the composed bundle.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fernwell/insightd/internal/analytics"
	"github.com/fernwell/insightd/internal/cache"
	"github.com/fernwell/insightd/internal/classify"
	"github.com/fernwell/insightd/internal/config"
	"github.com/fernwell/insightd/internal/insights"
	"github.com/fernwell/insightd/internal/invalidation"
	"github.com/fernwell/insightd/internal/logging"
	"github.com/fernwell/insightd/internal/patterns"
	"github.com/fernwell/insightd/internal/telemetry"
	"github.com/fernwell/insightd/internal/wellness"
)

// bundleVersion stamps produced bundles so cached payloads from older
// builds can be recognized downstream.
const bundleVersion = "v1"

// ErrMissingSubject rejects requests without a subject identifier.
var ErrMissingSubject = errors.New("analysis request requires a subject id")

// Options wires the service's collaborators.
type Options struct {
	Config       *config.Config
	Logger       *logging.Logger
	Cache        *cache.MultiTier
	Invalidation *invalidation.Registry
	Telemetry    telemetry.Sink
	Extractor    *patterns.Extractor
	Engine       *analytics.Engine
	Generator    *insights.Generator

	// Classifier and Suggester are the primary (possibly remote)
	// collaborators. Nil or failing ones fall back to the local
	// keyword heuristics.
	Classifier classify.VoiceClassifier
	Suggester  classify.BreathworkSuggester
}

// Service is the analysis orchestrator.
type Service struct {
	cfg    *config.Config
	logger *logging.Logger
	cache  *cache.MultiTier
	inval  *invalidation.Registry
	sink   telemetry.Sink

	extractor *patterns.Extractor
	engine    *analytics.Engine
	generator *insights.Generator

	classifier         classify.VoiceClassifier
	suggester          classify.BreathworkSuggester
	fallbackClassifier classify.VoiceClassifier
	fallbackSuggester  classify.BreathworkSuggester

	now func() time.Time
}

// NewService builds the orchestrator from its collaborators.
func NewService(opts Options) (*Service, error) {
	if opts.Config == nil || opts.Logger == nil || opts.Cache == nil {
		return nil, errors.New("pipeline requires config, logger, and cache")
	}
	if opts.Extractor == nil || opts.Engine == nil || opts.Generator == nil {
		return nil, errors.New("pipeline requires extractor, engine, and generator")
	}
	if opts.Telemetry == nil {
		opts.Telemetry = telemetry.NopSink{}
	}
	initMetrics()

	return &Service{
		cfg:                opts.Config,
		logger:             opts.Logger,
		cache:              opts.Cache,
		inval:              opts.Invalidation,
		sink:               opts.Telemetry,
		extractor:          opts.Extractor,
		engine:             opts.Engine,
		generator:          opts.Generator,
		classifier:         opts.Classifier,
		suggester:          opts.Suggester,
		fallbackClassifier: classify.NewKeywordClassifier(),
		fallbackSuggester:  classify.NewHeuristicSuggester(),
		now:                time.Now,
	}, nil
}

// Process runs one analysis request and returns the result bundle. Identical
// requests within the cache lifetime return the cached bundle with its
// origin marked accordingly.
func (s *Service) Process(ctx context.Context, req wellness.AnalysisRequest) (*wellness.ResultBundle, error) {
	if req.SubjectID == "" {
		return nil, ErrMissingSubject
	}
	start := s.now()
	ctx = logging.WithSubjectID(ctx, req.SubjectID)

	if !s.cfg.Pipeline.Enabled {
		s.logger.Debug(ctx, "pipeline disabled, returning empty bundle")
		return s.emptyBundle(start), nil
	}

	key, err := requestKey(req)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.cache.Lookup(ctx, key); ok {
		served := *cached
		served.Metadata.Origin = wellness.OriginCache
		s.observe(ctx, req, "cache", start)
		return &served, nil
	}

	bundle := s.compute(ctx, req)
	bundle.Metadata = wellness.BundleMetadata{
		Version:          bundleVersion,
		RequestID:        uuid.NewString(),
		ProducedAt:       start,
		Origin:           wellness.OriginFresh,
		ProcessingTimeMs: s.now().Sub(start).Milliseconds(),
	}
	if bundle.Negative() {
		bundle.Metadata.CacheTTL = s.cfg.NegativeTTLValue()
	} else {
		bundle.Metadata.CacheTTL = s.cfg.CategoryTTL(bundle.Category())
	}

	s.cache.Put(ctx, key, req.SubjectID, bundle)
	s.observe(ctx, req, "fresh", start)
	return bundle, nil
}

// TriggerInvalidation forwards a domain event to the invalidation registry.
func (s *Service) TriggerInvalidation(ctx context.Context, trigger invalidation.Trigger, subjectID string) (int, error) {
	if s.inval == nil {
		return 0, errors.New("invalidation registry not configured")
	}
	return s.inval.Invalidate(ctx, trigger, subjectID)
}

// compute produces a fresh bundle: analytics first, then the enrichment
// branches concurrently, then insight generation over everything.
func (s *Service) compute(ctx context.Context, req wellness.AnalysisRequest) *wellness.ResultBundle {
	var snapshot *wellness.MoodAnalyticsSnapshot
	if len(req.Records.Moods) > 0 {
		snapshot = s.engine.Analyze(ctx, req.Records.Moods)
	}

	var (
		voice      *wellness.VoiceClassification
		breathwork *wellness.BreathworkSuggestion
	)
	// Non-nil even when no branch runs, so bundles always serialize with
	// an empty patterns array rather than null.
	extracted := []wellness.PatternRecord{}

	var branches branchGroup
	if req.Text != "" {
		branches.run(s, ctx, "voice", func(ctx context.Context) {
			voice = s.classifyVoice(ctx, req.Text)
		})
	}
	if req.Text != "" || snapshot != nil {
		branches.run(s, ctx, "breathwork", func(ctx context.Context) {
			breathwork = s.suggestBreathwork(ctx, req.Text, snapshot)
		})
	}
	if req.Text != "" || !req.Records.Empty() {
		branches.run(s, ctx, "patterns", func(ctx context.Context) {
			extracted, _ = s.extractor.Extract(ctx, req.Records, req.Text)
		})
	}
	branches.wait()

	generated := s.generator.Generate(ctx, extracted, snapshot, voice)

	return &wellness.ResultBundle{
		Voice:      voice,
		Breathwork: breathwork,
		Patterns:   extracted,
		Analytics:  snapshot,
		Insights:   generated,
	}
}

// classifyVoice tries the primary classifier and falls back to the local
// keyword heuristic on any failure.
func (s *Service) classifyVoice(ctx context.Context, text string) *wellness.VoiceClassification {
	if s.classifier != nil {
		out, err := s.classifier.Classify(ctx, text)
		if err == nil && out != nil {
			return out
		}
		if err != nil {
			s.logger.Warn(ctx, "voice classifier failed, using fallback", zap.Error(err))
		}
	}
	out, err := s.fallbackClassifier.Classify(ctx, text)
	if err != nil {
		return nil
	}
	return out
}

// suggestBreathwork mirrors classifyVoice for the breathwork collaborator.
func (s *Service) suggestBreathwork(ctx context.Context, text string, snapshot *wellness.MoodAnalyticsSnapshot) *wellness.BreathworkSuggestion {
	if s.suggester != nil {
		out, err := s.suggester.Suggest(ctx, text, snapshot)
		if err == nil {
			return out
		}
		s.logger.Warn(ctx, "breathwork suggester failed, using fallback", zap.Error(err))
	}
	out, err := s.fallbackSuggester.Suggest(ctx, text, snapshot)
	if err != nil {
		return nil
	}
	return out
}

// emptyBundle is what a disabled pipeline returns: well-formed, empty, and
// never cached.
func (s *Service) emptyBundle(start time.Time) *wellness.ResultBundle {
	return &wellness.ResultBundle{
		Patterns: []wellness.PatternRecord{},
		Insights: wellness.Insights{
			Therapeutic: []wellness.InsightRecord{},
			Progress:    []wellness.InsightRecord{},
		},
		Metadata: wellness.BundleMetadata{
			Version:    bundleVersion,
			RequestID:  uuid.NewString(),
			ProducedAt: start,
			Origin:     wellness.OriginFresh,
		},
	}
}

func (s *Service) observe(ctx context.Context, req wellness.AnalysisRequest, origin string, start time.Time) {
	elapsed := s.now().Sub(start)
	requestsTotal.WithLabelValues(origin).Inc()
	processDuration.WithLabelValues(origin).Observe(elapsed.Seconds())

	s.logger.Info(ctx, "analysis processed",
		zap.String("origin", origin),
		zap.String("kind", string(req.Kind)),
		zap.Duration("elapsed", elapsed))
	s.sink.Emit(telemetry.Event{
		Name:      "pipeline.processed",
		SubjectID: req.SubjectID,
		Fields: map[string]any{
			"origin":     origin,
			"kind":       string(req.Kind),
			"elapsed_ms": elapsed.Milliseconds(),
		},
	})
}

// requestKey fingerprints the analysis-relevant parts of a request. Hint
// metadata stays out so identical inputs share a cache entry.
func requestKey(req wellness.AnalysisRequest) (string, error) {
	payload, err := json.Marshal(struct {
		Kind    wellness.InputKind `json:"kind"`
		Text    string             `json:"text"`
		Records wellness.RecordSet `json:"records"`
	}{req.Kind, req.Text, req.Records})
	if err != nil {
		return "", err
	}
	return cache.Fingerprint(req.SubjectID, string(req.Kind), payload, req.Hints.Origin), nil
}
