package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/paulmach/orb/encoding/wkt"

	"flood-platform/internal/models"
	"flood-platform/pkg/database"
	"flood-platform/pkg/logging"
	"flood-platform/pkg/metrics"
)

// RiverRepository provides data access for the reference river network and
// persisted pipeline runs
type RiverRepository interface {
	// Reference network operations
	CreateRiverFeaturesBatch(ctx context.Context, features []models.RiverFeature) error
	GetRiverFeature(ctx context.Context, featureID int64) (*models.RiverFeature, error)
	GetRiverFeaturesIntersecting(ctx context.Context, catchment models.CatchmentArea) ([]models.RiverFeature, error)
	CountRiverFeatures(ctx context.Context) (int, error)

	// Waterway cache operations
	ReplaceWaterways(ctx context.Context, waterways []models.Waterway) error
	GetWaterwaysIntersecting(ctx context.Context, catchment models.CatchmentArea) ([]models.Waterway, error)

	// Run operations
	CreateRun(ctx context.Context, run *models.RiverInputRun) error
	ListRuns(ctx context.Context, limit, offset int) ([]models.RiverInputRun, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// riverRepository implements RiverRepository
type riverRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewRiverRepository creates a new river repository
func NewRiverRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) RiverRepository {
	return &riverRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// riverFeatureRow is the scan target for river feature queries; geometry
// travels as WKT text.
type riverFeatureRow struct {
	FeatureID     int64     `db:"feature_id"`
	FirstNode     int64     `db:"first_node"`
	LastNode      int64     `db:"last_node"`
	NodeDirection string    `db:"node_direction"`
	Geometry      string    `db:"geometry"`
	CreatedAt     time.Time `db:"created_at"`
}

func (r riverFeatureRow) toModel() (models.RiverFeature, error) {
	line, err := wkt.UnmarshalLineString(r.Geometry)
	if err != nil {
		return models.RiverFeature{}, fmt.Errorf("failed to decode river feature %d geometry: %w", r.FeatureID, err)
	}
	return models.RiverFeature{
		FeatureID:     r.FeatureID,
		FirstNode:     r.FirstNode,
		LastNode:      r.LastNode,
		NodeDirection: r.NodeDirection,
		Geometry:      line,
		CreatedAt:     r.CreatedAt,
	}, nil
}

// waterwayRow is the scan target for waterway cache queries.
type waterwayRow struct {
	ID       int64  `db:"id"`
	Kind     string `db:"waterway"`
	Geometry string `db:"geometry"`
}

func (r waterwayRow) toModel() (models.Waterway, error) {
	line, err := wkt.UnmarshalLineString(r.Geometry)
	if err != nil {
		return models.Waterway{}, fmt.Errorf("failed to decode waterway %d geometry: %w", r.ID, err)
	}
	return models.Waterway{
		ID:       r.ID,
		Kind:     r.Kind,
		Geometry: line,
	}, nil
}

// CreateRiverFeaturesBatch inserts river features, skipping ones already
// present. Geometry is stored in the catchment CRS (EPSG:2193).
func (r *riverRepository) CreateRiverFeaturesBatch(ctx context.Context, features []models.RiverFeature) error {
	if len(features) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO river_features (feature_id, first_node, last_node, node_direction, geometry, created_at)
		VALUES ($1, $2, $3, $4, ST_GeomFromText($5, 2193), $6)
		ON CONFLICT (feature_id) DO NOTHING
	`

	for _, f := range features {
		_, err := tx.ExecContext(ctx, query,
			f.FeatureID,
			f.FirstNode,
			f.LastNode,
			f.NodeDirection,
			wkt.MarshalString(f.Geometry),
			f.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert river feature %d: %w", f.FeatureID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit river features batch: %w", err)
	}

	r.logger.Debug(ctx, "[REPO_CREATE_FEATURES] River features stored", logging.Fields{
		"count": len(features),
	})

	return nil
}

// GetRiverFeature retrieves a single river feature by id
func (r *riverRepository) GetRiverFeature(ctx context.Context, featureID int64) (*models.RiverFeature, error) {
	query := `
		SELECT feature_id, first_node, last_node, node_direction,
		       ST_AsText(geometry) AS geometry, created_at
		FROM river_features
		WHERE feature_id = $1
	`

	var row riverFeatureRow
	err := r.db.GetContext(ctx, "get_river_feature", &row, query, featureID)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{
			Resource: "river_feature",
			ID:       fmt.Sprintf("%d", featureID),
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get river feature: %w", err)
	}

	feature, err := row.toModel()
	if err != nil {
		return nil, err
	}

	return &feature, nil
}

// GetRiverFeaturesIntersecting returns the river features whose geometry
// intersects the catchment polygon, ordered by feature id.
func (r *riverRepository) GetRiverFeaturesIntersecting(ctx context.Context, catchment models.CatchmentArea) ([]models.RiverFeature, error) {
	query := `
		SELECT feature_id, first_node, last_node, node_direction,
		       ST_AsText(geometry) AS geometry, created_at
		FROM river_features
		WHERE ST_Intersects(geometry, ST_GeomFromText($1, $2))
		ORDER BY feature_id
	`

	var rows []riverFeatureRow
	err := r.db.SelectContext(ctx, "get_river_features_intersecting", &rows, query,
		wkt.MarshalString(catchment.Polygon), catchment.CRS)
	if err != nil {
		return nil, fmt.Errorf("failed to query river features: %w", err)
	}

	features := make([]models.RiverFeature, 0, len(rows))
	for _, row := range rows {
		feature, err := row.toModel()
		if err != nil {
			return nil, err
		}
		features = append(features, feature)
	}

	r.logger.Debug(ctx, "[REPO_FEATURES_INTERSECTING] River features fetched for catchment", logging.Fields{
		"count": len(features),
	})

	return features, nil
}

// CountRiverFeatures returns the number of stored river features
func (r *riverRepository) CountRiverFeatures(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, "count_river_features", &count, `SELECT COUNT(*) FROM river_features`)
	if err != nil {
		return 0, fmt.Errorf("failed to count river features: %w", err)
	}
	return count, nil
}

// ReplaceWaterways replaces the cached waterway set in one transaction. The
// cache is a snapshot of the upstream source, so a full replace keeps it
// consistent with what was last fetched.
func (r *riverRepository) ReplaceWaterways(ctx context.Context, waterways []models.Waterway) error {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM waterways`); err != nil {
		return fmt.Errorf("failed to clear waterway cache: %w", err)
	}

	query := `
		INSERT INTO waterways (id, waterway, geometry)
		VALUES ($1, $2, ST_GeomFromText($3, 2193))
	`
	for _, w := range waterways {
		if _, err := tx.ExecContext(ctx, query, w.ID, w.Kind, wkt.MarshalString(w.Geometry)); err != nil {
			return fmt.Errorf("failed to insert waterway %d: %w", w.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit waterway cache: %w", err)
	}

	r.logger.Debug(ctx, "[REPO_REPLACE_WATERWAYS] Waterway cache replaced", logging.Fields{
		"count": len(waterways),
	})

	return nil
}

// GetWaterwaysIntersecting returns the cached waterways intersecting the
// catchment polygon, ordered by id.
func (r *riverRepository) GetWaterwaysIntersecting(ctx context.Context, catchment models.CatchmentArea) ([]models.Waterway, error) {
	query := `
		SELECT id, waterway, ST_AsText(geometry) AS geometry
		FROM waterways
		WHERE ST_Intersects(geometry, ST_GeomFromText($1, $2))
		ORDER BY id
	`

	var rows []waterwayRow
	err := r.db.SelectContext(ctx, "get_waterways_intersecting", &rows, query,
		wkt.MarshalString(catchment.Polygon), catchment.CRS)
	if err != nil {
		return nil, fmt.Errorf("failed to query waterways: %w", err)
	}

	waterways := make([]models.Waterway, 0, len(rows))
	for _, row := range rows {
		waterway, err := row.toModel()
		if err != nil {
			return nil, err
		}
		waterways = append(waterways, waterway)
	}

	return waterways, nil
}

// CreateRun persists a pipeline run summary and fills in its id
func (r *riverRepository) CreateRun(ctx context.Context, run *models.RiverInputRun) error {
	query := `
		INSERT INTO river_input_runs
			(status, distance_threshold_m, matched_pairs, unmatched_rivers,
			 target_locations, duration_seconds, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.GetContext(ctx, "create_run", &run.ID, query,
		run.Status,
		run.DistanceThresholdM,
		run.MatchedPairs,
		run.UnmatchedRivers,
		run.TargetLocations,
		run.DurationSeconds,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// ListRuns retrieves persisted run summaries, newest first
func (r *riverRepository) ListRuns(ctx context.Context, limit, offset int) ([]models.RiverInputRun, error) {
	query := `
		SELECT id, status, distance_threshold_m, matched_pairs, unmatched_rivers,
		       target_locations, duration_seconds, created_at
		FROM river_input_runs
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	var runs []models.RiverInputRun
	err := r.db.SelectContext(ctx, "list_runs", &runs, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return runs, nil
}

// HealthCheck performs a repository health check
func (r *riverRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
