package repository

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/paulmach/orb"
	"github.com/serjvanilla/go-overpass"

	"flood-platform/internal/models"
	"flood-platform/pkg/logging"
	"flood-platform/pkg/metrics"
)

// WaterwayFetcher retrieves waterway line features for a bounding box
type WaterwayFetcher interface {
	FetchWaterways(ctx context.Context, bbox orb.Bound) ([]models.Waterway, error)
}

// Projector converts a WGS84 longitude/latitude pair into the working CRS.
// The Overpass API always answers in WGS84; the pipeline runs in a projected
// CRS, so every fetched vertex passes through the projector.
type Projector func(lon, lat float64) orb.Point

// OverpassRepository fetches waterway ways from an Overpass API endpoint
type OverpassRepository struct {
	client    *overpass.Client
	projector Projector
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
}

// NewOverpassRepository creates a new Overpass repository. A nil projector
// keeps coordinates in WGS84.
func NewOverpassRepository(
	endpoint string,
	timeout time.Duration,
	projector Projector,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *OverpassRepository {
	httpClient := &http.Client{
		Timeout: timeout,
	}
	client := overpass.NewWithSettings(endpoint, 2, httpClient)

	if projector == nil {
		projector = func(lon, lat float64) orb.Point { return orb.Point{lon, lat} }
	}

	return &OverpassRepository{
		client:    &client,
		projector: projector,
		logger:    logger,
		metrics:   metricsCollector,
	}
}

// FetchWaterways retrieves river and stream ways intersecting the given
// WGS84 bounding box and converts them to waterway models in the working CRS.
// Ways with fewer than two nodes carry no usable line and are skipped.
func (r *OverpassRepository) FetchWaterways(ctx context.Context, bbox orb.Bound) ([]models.Waterway, error) {
	query := fmt.Sprintf(`
		[out:json];
		(
			way["waterway"~"river|stream"](%f,%f,%f,%f);
		);
		out body;
		>;
		out skel qt;
	`,
		bbox.Min[1], bbox.Min[0], bbox.Max[1], bbox.Max[0])

	timer := time.Now()
	result, err := r.client.Query(query)
	r.metrics.OverpassRequestDuration.Observe(time.Since(timer).Seconds())
	if err != nil {
		r.metrics.OverpassErrorsTotal.Inc()
		return nil, fmt.Errorf("overpass waterway query failed: %w", err)
	}

	ids := make([]int64, 0, len(result.Ways))
	for id := range result.Ways {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	waterways := make([]models.Waterway, 0, len(result.Ways))
	for _, id := range ids {
		way := result.Ways[id]
		if way == nil || len(way.Nodes) < 2 {
			continue
		}

		line := make(orb.LineString, 0, len(way.Nodes))
		for _, node := range way.Nodes {
			line = append(line, r.projector(node.Lon, node.Lat))
		}

		waterways = append(waterways, models.Waterway{
			ID:       id,
			Kind:     way.Tags["waterway"],
			Geometry: line,
		})
	}

	r.logger.Info(ctx, "[OVERPASS_FETCH] Waterways fetched", logging.Fields{
		"ways":      len(result.Ways),
		"waterways": len(waterways),
	})

	return waterways, nil
}
