package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/stemlight/compass/internal/artifacts"
	"github.com/stemlight/compass/internal/catalog"
	"github.com/stemlight/compass/internal/config"
	"github.com/stemlight/compass/internal/messaging"
	"github.com/stemlight/compass/internal/repair"
	"github.com/stemlight/compass/pkg/models"
)

// ErrModelsNotLoaded is returned for recommendation requests that arrive
// before LoadAllModels has succeeded.
var ErrModelsNotLoaded = errors.New("recommendation models are not loaded")

// EngineContext is one immutable generation of serving state: the catalog,
// the artifact bundle trained against it, and the encoder derived from both.
// A reload swaps in a whole new context; requests in flight keep the one
// they started with.
type EngineContext struct {
	Catalog  *catalog.Catalog
	Bundle   *artifacts.Bundle
	Encoder  *FeatureEncoder
	LoadedAt time.Time
}

// RecommendationEngine matches student profiles against the opportunity
// catalog in two stages: cluster-distance candidate selection across the
// profile dimensions, then TF-IDF cosine ranking of the combined set.
type RecommendationEngine struct {
	config  *config.Config
	logger  *logrus.Logger
	cache   *redis.Client
	bus     *messaging.EventBus
	metrics *EngineMetrics

	current atomic.Pointer[EngineContext]
}

// NewRecommendationEngine wires the engine against its response cache,
// event bus and metrics. Cache and bus may be nil; both degrade to no-ops.
// The metrics instance is shared with the feedback service so the collectors
// register exactly once.
func NewRecommendationEngine(cfg *config.Config, logger *logrus.Logger, cache *redis.Client, bus *messaging.EventBus, metrics *EngineMetrics) *RecommendationEngine {
	if metrics == nil {
		metrics = NewEngineMetrics(logger)
	}
	return &RecommendationEngine{
		config:  cfg,
		logger:  logger,
		cache:   cache,
		bus:     bus,
		metrics: metrics,
	}
}

// LoadAllModels reads the catalog and artifact bundle and atomically swaps
// them in as the serving context. Safe to call at runtime: a failed load
// returns the error and leaves the previous context serving.
func (e *RecommendationEngine) LoadAllModels(catalogPath, bundleDir string) error {
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return err
	}
	if cat.Len() == 0 {
		return fmt.Errorf("catalog %s has no rows", catalogPath)
	}

	bundle, err := artifacts.LoadBundle(bundleDir, cat.Len(), e.logger)
	if err != nil {
		return err
	}

	e.current.Store(&EngineContext{
		Catalog:  cat,
		Bundle:   bundle,
		Encoder:  NewFeatureEncoder(cat.DistinctStemFields(), cat.DistinctCategories()),
		LoadedAt: time.Now().UTC(),
	})

	e.logger.WithFields(logrus.Fields{
		"resources":      cat.Len(),
		"bundle_version": bundle.Manifest.Version,
		"disabled":       bundle.DisabledDimensions(),
	}).Info("Loaded recommendation models")
	return nil
}

// Context returns the current serving context, nil before the first load.
func (e *RecommendationEngine) Context() *EngineContext {
	return e.current.Load()
}

// Ready reports whether the engine has a serving context.
func (e *RecommendationEngine) Ready() bool {
	return e.current.Load() != nil
}

// ArtifactInfo summarizes the serving context for the admin surface.
func (e *RecommendationEngine) ArtifactInfo() map[string]interface{} {
	ectx := e.current.Load()
	if ectx == nil {
		return map[string]interface{}{"loaded": false}
	}

	info := map[string]interface{}{
		"loaded":         true,
		"loaded_at":      ectx.LoadedAt,
		"bundle_version": ectx.Bundle.Manifest.Version,
		"bundle_created": ectx.Bundle.Manifest.CreatedAt,
		"catalog_rows":   ectx.Catalog.Len(),
		"disabled":       ectx.Bundle.DisabledDimensions(),
	}
	if len(ectx.Bundle.Metrics) > 0 {
		info["cluster_metrics"] = ectx.Bundle.Metrics
	}
	return info
}

// requestOptions is a request's knobs resolved against the configured
// defaults.
type requestOptions struct {
	topN           int
	minSimilarity  float64
	locationFilter string
	gradeTolerance *int
}

func (e *RecommendationEngine) resolveOptions(req *models.RecommendationRequest) requestOptions {
	opts := requestOptions{
		topN:           e.config.Engine.TopN,
		minSimilarity:  e.config.Engine.MinSimilarity,
		locationFilter: req.LocationFilter,
		gradeTolerance: req.GradeTolerance,
	}
	if req.Count > 0 {
		opts.topN = req.Count
	}
	if req.MinSimilarity != nil {
		opts.minSimilarity = *req.MinSimilarity
	}
	if opts.locationFilter == "" {
		opts.locationFilter = models.LocationFilterAll
	}
	return opts
}

// GetRecommendations runs the full matching pipeline for one student
// profile, serving from the response cache when possible.
func (e *RecommendationEngine) GetRecommendations(ctx context.Context, req *models.RecommendationRequest) (*models.RecommendationResponse, error) {
	start := time.Now()

	ectx := e.current.Load()
	if ectx == nil {
		e.metrics.ObserveRequest("unavailable", false, time.Since(start).Seconds(), 0)
		return nil, ErrModelsNotLoaded
	}

	profile := req.Profile
	profile.Normalize()
	opts := e.resolveOptions(req)
	profileHash := profile.Hash()

	log := e.logger.WithFields(logrus.Fields{
		"profile_hash": profileHash,
		"top_n":        opts.topN,
	})

	if payload, ok := e.cacheLookup(ctx, ectx, profileHash, opts); ok {
		response := buildResponse(payload, true)
		e.metrics.ObserveRequest("ok", true, time.Since(start).Seconds(), payload.CandidateCount)
		e.publishServed(ctx, response, profileHash, time.Since(start))
		log.WithField("results", len(response.Recommendations)).Debug("Served recommendations from cache")
		return response, nil
	}

	payload, err := e.generate(ectx, &profile, opts, log)
	if err != nil {
		e.metrics.ObserveRequest("error", false, time.Since(start).Seconds(), 0)
		return nil, err
	}

	e.cacheStore(ctx, ectx, profileHash, opts, payload)

	response := buildResponse(payload, false)
	e.metrics.ObserveRequest("ok", false, time.Since(start).Seconds(), payload.CandidateCount)
	e.publishServed(ctx, response, profileHash, time.Since(start))

	log.WithFields(logrus.Fields{
		"results":     len(response.Recommendations),
		"candidates":  payload.CandidateCount,
		"relaxations": payload.Relaxations,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Served recommendations")
	return response, nil
}

// generate runs candidate selection, combination, ranking and post-filters
// against one serving context.
func (e *RecommendationEngine) generate(ectx *EngineContext, profile *models.StudentProfile, opts requestOptions, log *logrus.Entry) (*cachedRecommendations, error) {
	bundle := ectx.Bundle
	resources := ectx.Catalog.Resources

	sets := dimensionSets{universe: len(resources)}

	if bundle.Enabled(artifacts.DimAccessibility) && bundle.Accessibility != nil {
		vec, err := ectx.Encoder.AccessibilityVector(profile, bundle.Accessibility.Scaler)
		if err != nil {
			return nil, fmt.Errorf("failed to encode accessibility features: %w", err)
		}
		if sets.accessibility, err = clusterCandidates(bundle.Accessibility, vec, e.config.Engine.TopClusters); err != nil {
			return nil, fmt.Errorf("accessibility candidate selection failed: %w", err)
		}
	}

	if bundle.Enabled(artifacts.DimAcademic) && bundle.Academic != nil {
		vec, err := ectx.Encoder.AcademicVector(profile, bundle.Academic.Scaler)
		if err != nil {
			return nil, fmt.Errorf("failed to encode academic features: %w", err)
		}
		if sets.academic, err = clusterCandidates(bundle.Academic, vec, e.config.Engine.TopClusters); err != nil {
			return nil, fmt.Errorf("academic candidate selection failed: %w", err)
		}
	}

	sets.stem = stemInterestCandidates(bundle.Vectorizer, bundle.Matrix, profile.StemFields, e.config.Engine.StemSimilarityFloor)
	sets.format = formatCandidates(resources, profile.FormatPreferences)

	combined, relaxations := combineCandidates(sets, e.config.Engine.MinStemIntersection, e.config.Engine.MinFormatCandidates)

	relaxationNames := make([]string, 0, len(relaxations))
	for _, r := range relaxations {
		e.metrics.RelaxationApplied(r.Rule)
		relaxationNames = append(relaxationNames, r.Rule)
		log.WithFields(logrus.Fields{
			"rule": r.Rule,
			"from": r.From,
			"to":   r.To,
		}).Info("Relaxed candidate filter")
	}

	ranked := rankCandidates(bundle.Vectorizer, bundle.Matrix, profile.InterestText(), combined, opts.minSimilarity, opts.topN, e.logger)
	ranked = e.applyPostFilters(resources, ranked, profile, opts, log)

	return &cachedRecommendations{
		Recommendations: formatRecommendations(resources, ranked),
		CandidateCount:  len(combined),
		Relaxations:     relaxationNames,
	}, nil
}

// locationFilterTerms maps a filter value to the location substrings it
// accepts. Hybrid resources satisfy either filter.
var locationFilterTerms = map[string][]string{
	models.LocationFilterVirtual:  {models.LocationVirtual, models.LocationHybrid},
	models.LocationFilterInPerson: {models.LocationInPerson, models.LocationHybrid},
}

// applyPostFilters drops ranked rows the request's location or grade
// constraints exclude. Rows whose grade band cannot be parsed are kept.
func (e *RecommendationEngine) applyPostFilters(resources []models.Resource, ranked []rankedResource, profile *models.StudentProfile, opts requestOptions, log *logrus.Entry) []rankedResource {
	terms := locationFilterTerms[opts.locationFilter]
	if terms == nil && opts.gradeTolerance == nil {
		return ranked
	}

	kept := make([]rankedResource, 0, len(ranked))
	for _, r := range ranked {
		row := &resources[r.Index]
		if terms != nil && !containsAnyFold(row.LocationType, terms) {
			continue
		}
		if opts.gradeTolerance != nil && !repair.IsGradeAppropriate(profile.GradeLevel, row.GradeLabel(), *opts.gradeTolerance) {
			continue
		}
		kept = append(kept, r)
	}

	if dropped := len(ranked) - len(kept); dropped > 0 {
		e.metrics.PostFilterDropped(dropped)
		log.WithFields(logrus.Fields{
			"dropped":  dropped,
			"location": opts.locationFilter,
		}).Debug("Post-filters dropped ranked results")
	}
	return kept
}

func containsAnyFold(s string, terms []string) bool {
	lowered := strings.ToLower(s)
	for _, term := range terms {
		if strings.Contains(lowered, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

// cachedRecommendations is the cacheable portion of a response. Request
// identity and timestamps are always generated fresh.
type cachedRecommendations struct {
	Recommendations []models.Recommendation `json:"recommendations"`
	CandidateCount  int                     `json:"candidate_count"`
	Relaxations     []string                `json:"relaxations,omitempty"`
}

// cacheKey includes the bundle version so a reload invalidates every cached
// response at once.
func (e *RecommendationEngine) cacheKey(ectx *EngineContext, profileHash string, opts requestOptions) string {
	tolerance := -1
	if opts.gradeTolerance != nil {
		tolerance = *opts.gradeTolerance
	}
	return fmt.Sprintf("recommendations:v%d:%s:%d:%g:%s:%d",
		ectx.Bundle.Manifest.Version, profileHash, opts.topN, opts.minSimilarity, opts.locationFilter, tolerance)
}

func (e *RecommendationEngine) cacheLookup(ctx context.Context, ectx *EngineContext, profileHash string, opts requestOptions) (*cachedRecommendations, bool) {
	if !e.config.Engine.CacheEnabled || e.cache == nil {
		return nil, false
	}

	data, err := e.cache.Get(ctx, e.cacheKey(ectx, profileHash, opts)).Bytes()
	if err != nil {
		if err != redis.Nil {
			e.logger.WithError(err).Warn("Recommendation cache lookup failed")
		}
		return nil, false
	}

	var payload cachedRecommendations
	if err := json.Unmarshal(data, &payload); err != nil {
		e.logger.WithError(err).Warn("Discarding undecodable cached recommendations")
		return nil, false
	}
	return &payload, true
}

func (e *RecommendationEngine) cacheStore(ctx context.Context, ectx *EngineContext, profileHash string, opts requestOptions, payload *cachedRecommendations) {
	if !e.config.Engine.CacheEnabled || e.cache == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		e.logger.WithError(err).Warn("Failed to encode recommendations for cache")
		return
	}
	if err := e.cache.Set(ctx, e.cacheKey(ectx, profileHash, opts), data, e.config.Engine.CacheTTL).Err(); err != nil {
		e.logger.WithError(err).Warn("Recommendation cache store failed")
	}
}

func buildResponse(payload *cachedRecommendations, cacheHit bool) *models.RecommendationResponse {
	return &models.RecommendationResponse{
		RequestID:       uuid.New(),
		Recommendations: payload.Recommendations,
		CandidateCount:  payload.CandidateCount,
		Relaxations:     payload.Relaxations,
		GeneratedAt:     time.Now().UTC(),
		CacheHit:        cacheHit,
	}
}

// publishServed emits the served event for analytics. Cache hits publish
// too, flagged as such.
func (e *RecommendationEngine) publishServed(ctx context.Context, response *models.RecommendationResponse, profileHash string, elapsed time.Duration) {
	if e.bus == nil {
		return
	}

	event := messaging.ServedEvent{
		RequestID:      response.RequestID,
		ProfileHash:    profileHash,
		ResultCount:    len(response.Recommendations),
		CandidateCount: response.CandidateCount,
		Relaxations:    response.Relaxations,
		CacheHit:       response.CacheHit,
		DurationMs:     elapsed.Milliseconds(),
		ServedAt:       response.GeneratedAt,
	}
	if err := e.bus.PublishRecommendationServed(ctx, event); err != nil {
		e.logger.WithError(err).Warn("Failed to publish served event")
	}
}
