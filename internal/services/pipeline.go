package services

import (
	"context"
	"time"

	"flood-platform/internal/models"
	"flood-platform/internal/network"
	"flood-platform/internal/raster"
	"flood-platform/pkg/logging"
	"flood-platform/pkg/metrics"
)

// PipelineResult summarizes one river input pipeline run. Partial results
// are legitimate: dropped features and unmatched rivers are counted here so
// the caller can decide whether the result is acceptable.
type PipelineResult struct {
	TargetLocations []models.TargetLocation `json:"target_locations"`

	ReferenceCrossings int           `json:"reference_crossings"`
	PrunedCrossings    int           `json:"pruned_crossings"`
	WaterwayCrossings  int           `json:"waterway_crossings"`
	MatchedPairs       int           `json:"matched_pairs"`
	UnmatchedRivers    []int64       `json:"unmatched_rivers,omitempty"`
	Duration           time.Duration `json:"-"`
	DurationSeconds    float64       `json:"duration_seconds"`
}

// MatchPipeline runs the river-to-waterway boundary matching and target
// location extraction for one catchment. It is pure orchestration: every
// stage's output feeds the next, and stage failures propagate unchanged.
type MatchPipeline struct {
	extractor *CrossingExtractor
	matcher   *ProximityMatcher
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
}

// NewMatchPipeline creates a match pipeline with the given distance
// threshold in meters.
func NewMatchPipeline(thresholdM float64, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *MatchPipeline {
	return &MatchPipeline{
		extractor: NewCrossingExtractor(logger, metricsCollector),
		matcher:   NewProximityMatcher(thresholdM, logger, metricsCollector),
		logger:    logger,
		metrics:   metricsCollector,
	}
}

// Run executes the full pipeline: boundary decomposition, crossing
// extraction for both networks, reachability pruning, proximity matching,
// and per-pair target location extraction against the DEM.
func (p *MatchPipeline) Run(
	ctx context.Context,
	catchment models.CatchmentArea,
	riverFeatures []models.RiverFeature,
	waterways []models.Waterway,
	dem *raster.Grid,
) (*PipelineResult, error) {
	startTime := time.Now()

	p.logger.Info(ctx, "[PIPELINE_START] Starting river input pipeline", logging.Fields{
		"river_features": len(riverFeatures),
		"waterways":      len(waterways),
		"crs":            catchment.CRS,
	})

	result, err := p.run(ctx, catchment, riverFeatures, waterways, dem)
	if err != nil {
		p.metrics.PipelineRunsTotal.WithLabelValues("error").Inc()
		p.logger.Error(ctx, "[PIPELINE_ERROR] River input pipeline failed", logging.Fields{}, err)
		return nil, err
	}

	result.Duration = time.Since(startTime)
	result.DurationSeconds = result.Duration.Seconds()
	p.metrics.PipelineRunsTotal.WithLabelValues("success").Inc()
	p.metrics.PipelineDuration.Observe(result.Duration.Seconds())
	p.metrics.TargetLocationsTotal.Add(float64(len(result.TargetLocations)))

	p.logger.Info(ctx, "[PIPELINE_COMPLETE] River input pipeline completed", logging.Fields{
		"reference_crossings": result.ReferenceCrossings,
		"pruned_crossings":    result.PrunedCrossings,
		"waterway_crossings":  result.WaterwayCrossings,
		"matched_pairs":       result.MatchedPairs,
		"unmatched_rivers":    len(result.UnmatchedRivers),
		"target_locations":    len(result.TargetLocations),
		"duration_seconds":    result.Duration.Seconds(),
	})

	return result, nil
}

func (p *MatchPipeline) run(
	ctx context.Context,
	catchment models.CatchmentArea,
	riverFeatures []models.RiverFeature,
	waterways []models.Waterway,
	dem *raster.Grid,
) (*PipelineResult, error) {
	ring, err := catchment.ExteriorRing()
	if err != nil {
		return nil, err
	}

	segments, err := BuildBoundarySegments(catchment)
	if err != nil {
		return nil, err
	}

	// The DEM must cover the catchment; anything else is a provisioning
	// problem, not a data-quality exclusion.
	if !dem.Overlaps(catchment.Polygon.Bound()) {
		return nil, &models.ConfigurationError{
			Subject: "hydro DEM",
			Message: "DEM extent does not overlap the catchment area",
		}
	}

	graph := network.BuildFromFeatures(riverFeatures)
	if err := graph.Validate(); err != nil {
		return nil, err
	}

	riverCrossings := p.extractor.Extract(ctx, RiverCrossingFeatures(riverFeatures), ring, segments, NetworkReference)
	pruned := PruneUpstreamCrossings(ctx, graph, riverCrossings, p.logger, p.metrics)
	waterwayCrossings := p.extractor.Extract(ctx, WaterwayCrossingFeatures(waterways), ring, segments, NetworkWaterway)

	pairs, unmatched, err := p.matcher.Match(ctx, pruned, waterwayCrossings, segments)
	if err != nil {
		return nil, err
	}

	sampler := NewElevationSampler(dem, p.logger, p.metrics)
	locations := make([]models.TargetLocation, 0, len(pairs))
	for _, pair := range pairs {
		location, err := sampler.TargetLocation(ctx, pair)
		if err != nil {
			return nil, err
		}
		locations = append(locations, location)
	}

	result := &PipelineResult{
		TargetLocations:    locations,
		ReferenceCrossings: len(riverCrossings),
		PrunedCrossings:    len(riverCrossings) - len(pruned),
		WaterwayCrossings:  len(waterwayCrossings),
		MatchedPairs:       len(pairs),
	}
	for _, u := range unmatched {
		result.UnmatchedRivers = append(result.UnmatchedRivers, u.FeatureID)
	}

	return result, nil
}
