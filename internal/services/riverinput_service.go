package services

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb"

	"flood-platform/internal/models"
	"flood-platform/internal/raster"
	"flood-platform/internal/repository"
	"flood-platform/pkg/logging"
	"flood-platform/pkg/metrics"
)

// RiverInputOptions carries the tunables of a river input generation run.
type RiverInputOptions struct {
	DistanceThresholdM float64
	DEMPath            string
	ModelDir           string
}

// RiverInputService generates flood model river inputs for a catchment: it
// assembles the reference network and waterway data, runs the match
// pipeline, writes the model input files, and persists a run summary.
type RiverInputService struct {
	repo    repository.RiverRepository
	fetcher repository.WaterwayFetcher
	opts    RiverInputOptions
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewRiverInputService creates a new river input service
func NewRiverInputService(
	repo repository.RiverRepository,
	fetcher repository.WaterwayFetcher,
	opts RiverInputOptions,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *RiverInputService {
	return &RiverInputService{
		repo:    repo,
		fetcher: fetcher,
		opts:    opts,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// RefreshWaterways fetches waterways for the given WGS84 bounding box from
// the upstream source and replaces the local cache. The cache keeps pipeline
// runs reproducible and off the upstream API's rate limits.
func (s *RiverInputService) RefreshWaterways(ctx context.Context, bboxWGS84 orb.Bound) (int, error) {
	if s.fetcher == nil {
		return 0, fmt.Errorf("no waterway fetcher configured")
	}

	waterways, err := s.fetcher.FetchWaterways(ctx, bboxWGS84)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch waterways: %w", err)
	}

	if err := s.repo.ReplaceWaterways(ctx, waterways); err != nil {
		return 0, fmt.Errorf("failed to cache waterways: %w", err)
	}

	return len(waterways), nil
}

// GenerateRiverInputs runs the full river input generation for one catchment.
// The run summary is persisted whether the pipeline succeeds or fails;
// persistence errors are logged but never mask the pipeline outcome.
func (s *RiverInputService) GenerateRiverInputs(ctx context.Context, catchment models.CatchmentArea) (*PipelineResult, error) {
	s.logger.Info(ctx, "[RIVER_INPUT_START] Generating river inputs", logging.Fields{
		"dem_path":    s.opts.DEMPath,
		"model_dir":   s.opts.ModelDir,
		"threshold_m": s.opts.DistanceThresholdM,
	})

	writer := NewModelInputWriter(s.opts.ModelDir, s.logger)
	if err := writer.RemoveExistingRiverInputs(ctx); err != nil {
		return nil, err
	}

	dem, err := raster.ReadASCIIGrid(s.opts.DEMPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load DEM %s: %w", s.opts.DEMPath, err)
	}

	features, err := s.repo.GetRiverFeaturesIntersecting(ctx, catchment)
	if err != nil {
		return nil, err
	}

	waterways, err := s.repo.GetWaterwaysIntersecting(ctx, catchment)
	if err != nil {
		return nil, err
	}

	pipeline := NewMatchPipeline(s.opts.DistanceThresholdM, s.logger, s.metrics)
	result, err := pipeline.Run(ctx, catchment, features, waterways, dem)
	if err != nil {
		s.persistRun(ctx, models.RunStatusFailed, nil)
		return nil, err
	}

	if _, err := writer.WriteTargetLocations(ctx, result.TargetLocations); err != nil {
		s.persistRun(ctx, models.RunStatusFailed, result)
		return nil, err
	}

	s.persistRun(ctx, models.RunStatusCompleted, result)

	return result, nil
}

// ListRuns returns persisted run summaries, newest first
func (s *RiverInputService) ListRuns(ctx context.Context, limit, offset int) ([]models.RiverInputRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListRuns(ctx, limit, offset)
}

// HealthCheck verifies the service's dependencies
func (s *RiverInputService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}

func (s *RiverInputService) persistRun(ctx context.Context, status string, result *PipelineResult) {
	run := &models.RiverInputRun{
		Status:             status,
		DistanceThresholdM: s.opts.DistanceThresholdM,
		CreatedAt:          time.Now().UTC(),
	}
	if result != nil {
		run.MatchedPairs = result.MatchedPairs
		run.UnmatchedRivers = len(result.UnmatchedRivers)
		run.TargetLocations = len(result.TargetLocations)
		run.DurationSeconds = result.Duration.Seconds()
	}

	if err := s.repo.CreateRun(ctx, run); err != nil {
		s.logger.Error(ctx, "[RUN_PERSIST_ERROR] Failed to persist run summary", logging.Fields{
			"status": status,
		}, err)
	}
}
