package services

import (
	"context"

	"github.com/paulmach/orb"

	"flood-platform/internal/geometry"
	"flood-platform/internal/models"
	"flood-platform/pkg/logging"
	"flood-platform/pkg/metrics"
)

// Network labels used in logs and metrics.
const (
	NetworkReference = "reference"
	NetworkWaterway  = "waterway"
)

// Drop reasons for crossing extraction.
const (
	dropNoIntersection    = "no_intersection"
	dropMultiIntersection = "multi_intersection"
	dropBoundaryOverlap   = "boundary_overlap"
	dropNoSegment         = "no_segment"
)

// CrossingFeature is the network-agnostic view of a line feature handed to
// the crossing extractor. NetworkNode is zero for waterway features.
type CrossingFeature struct {
	FeatureID   int64
	NetworkNode int64
	Geometry    orb.LineString
}

// RiverCrossingFeatures adapts reference network features for extraction
func RiverCrossingFeatures(features []models.RiverFeature) []CrossingFeature {
	out := make([]CrossingFeature, 0, len(features))
	for _, f := range features {
		out = append(out, CrossingFeature{
			FeatureID:   f.FeatureID,
			NetworkNode: f.InflowNode(),
			Geometry:    f.Geometry,
		})
	}
	return out
}

// WaterwayCrossingFeatures adapts waterway features for extraction
func WaterwayCrossingFeatures(waterways []models.Waterway) []CrossingFeature {
	out := make([]CrossingFeature, 0, len(waterways))
	for _, w := range waterways {
		out = append(out, CrossingFeature{
			FeatureID: w.ID,
			Geometry:  w.Geometry,
		})
	}
	return out
}

// CrossingExtractor computes boundary crossings for line features against
// the catchment boundary ring and assigns each crossing to the boundary
// segment it falls on.
type CrossingExtractor struct {
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewCrossingExtractor creates a new crossing extractor
func NewCrossingExtractor(logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *CrossingExtractor {
	return &CrossingExtractor{
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Extract returns one BoundaryCrossing per feature whose geometry intersects
// the boundary ring in exactly one point. Features with no intersection,
// more than one intersection, or a stretch running along the boundary are
// data-quality exclusions: they are dropped, counted, and logged, never
// fatal.
func (e *CrossingExtractor) Extract(
	ctx context.Context,
	features []CrossingFeature,
	ring orb.Ring,
	segments []models.BoundarySegment,
	network string,
) []models.BoundaryCrossing {
	crossings := make([]models.BoundaryCrossing, 0, len(features))

	for _, feature := range features {
		points, overlaps := geometry.LineRingIntersection(feature.Geometry, ring)

		switch {
		case overlaps:
			e.drop(ctx, network, feature.FeatureID, dropBoundaryOverlap)
			continue
		case len(points) == 0:
			// Feature does not touch the boundary at all; not worth a log line.
			e.metrics.RecordCrossingDropped(dropNoIntersection)
			continue
		case len(points) > 1:
			e.drop(ctx, network, feature.FeatureID, dropMultiIntersection)
			continue
		}

		lineNumber, ok := assignBoundaryLine(points[0], segments)
		if !ok {
			e.drop(ctx, network, feature.FeatureID, dropNoSegment)
			continue
		}

		crossings = append(crossings, models.BoundaryCrossing{
			FeatureID:          feature.FeatureID,
			NetworkNode:        feature.NetworkNode,
			BoundaryPoint:      points[0],
			BoundaryLineNumber: lineNumber,
			SourceGeometry:     feature.Geometry,
		})
	}

	e.metrics.CrossingsExtractedTotal.WithLabelValues(network).Add(float64(len(crossings)))

	e.logger.Debug(ctx, "[CROSSINGS_EXTRACTED] Boundary crossings computed", logging.Fields{
		"network":   network,
		"features":  len(features),
		"crossings": len(crossings),
	})

	return crossings
}

// assignBoundaryLine finds the boundary segment the point lies on. Segments
// are scanned in ascending line-number order, so a point on a shared vertex
// of two segments deterministically takes the lower number.
func assignBoundaryLine(p orb.Point, segments []models.BoundarySegment) (int, bool) {
	for _, segment := range segments {
		if geometry.PointOnSegment(p, segment.Line[0], segment.Line[1], geometry.Epsilon*10) {
			return segment.LineNumber, true
		}
	}
	return 0, false
}

func (e *CrossingExtractor) drop(ctx context.Context, network string, featureID int64, reason string) {
	e.metrics.RecordCrossingDropped(reason)
	e.logger.Warn(ctx, "[CROSSING_DROPPED] Line feature excluded from boundary matching", logging.Fields{
		"network":    network,
		"feature_id": featureID,
		"reason":     reason,
	})
}
