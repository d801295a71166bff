package services

import (
	"context"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"flood-platform/internal/geometry"
	"flood-platform/internal/models"
	"flood-platform/internal/raster"
	"flood-platform/pkg/logging"
	"flood-platform/pkg/metrics"
)

// windowRadius is the half-width of the elevation search window in cells:
// a radius of 2 yields a 5x5 window, clamped at grid edges.
const windowRadius = 2

// ElevationSampler extracts, for one matched crossing, the DEM cell at
// which the river is injected into the simulation grid: the local minimum
// elevation near the crossing, which is the physically correct injection
// point for a raster hydrodynamic model.
type ElevationSampler struct {
	dem     *raster.Grid
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewElevationSampler creates an elevation sampler over the given DEM
func NewElevationSampler(dem *raster.Grid, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ElevationSampler {
	return &ElevationSampler{
		dem:     dem,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// TargetLocation computes the injection point for a matched pair:
//
//  1. buffer the crossed boundary segment by one DEM resolution with flat
//     caps, keeping the search area a thin rectangle along the boundary;
//  2. clip the DEM to that rectangle;
//  3. take the window of cells around the cell nearest the crossing point;
//  4. pick the window's minimum elevation, breaking ties toward the window
//     centroid.
func (s *ElevationSampler) TargetLocation(ctx context.Context, pair models.MatchedPair) (models.TargetLocation, error) {
	if len(pair.BoundaryLine) < 2 {
		return models.TargetLocation{}, &models.ValidationError{
			Field:   "boundary_line",
			Message: "matched pair carries no boundary segment geometry",
		}
	}

	buffered := geometry.BufferSegmentFlat(pair.BoundaryLine[0], pair.BoundaryLine[1], s.dem.Resolution)

	timer := s.metrics.NewTimer(s.metrics.DEMClipDuration)
	clipped, err := s.dem.Clip(buffered)
	timer.ObserveDuration()
	if err != nil {
		return models.TargetLocation{}, err
	}

	sample, err := minimumInWindow(clipped, pair.WaterwayPoint, s.metrics)
	if err != nil {
		return models.TargetLocation{}, err
	}

	s.logger.Debug(ctx, "[TARGET_LOCATION] Injection cell selected", logging.Fields{
		"reference_feature_id": pair.ReferenceFeatureID,
		"x":                    sample.TargetPoint[0],
		"y":                    sample.TargetPoint[1],
		"elevation":            sample.Elevation,
	})

	return models.TargetLocation{
		ReferenceFeatureID: pair.ReferenceFeatureID,
		WaterwayFeatureID:  pair.WaterwayFeatureID,
		TargetPoint:        sample.TargetPoint,
		Elevation:          sample.Elevation,
		DEMResolution:      s.dem.Resolution,
	}, nil
}

// minimumInWindow finds the minimum-elevation cell in the window around the
// cell nearest to the crossing point. Ties at the minimum resolve to the
// cell closest to the centroid of the window's cell centers, favoring a
// spatially representative low point over an edge artifact; an exact
// centroid-distance tie resolves to scan order (row, then column), which is
// a fixed total order.
func minimumInWindow(grid *raster.Grid, crossing orb.Point, metricsCollector *metrics.Collector) (models.ElevationSample, error) {
	col, row := grid.NearestIndex(crossing)

	colLo := max(0, col-windowRadius)
	colHi := min(grid.Cols()-1, col+windowRadius)
	rowLo := max(0, row-windowRadius)
	rowHi := min(grid.Rows()-1, row+windowRadius)

	var centers []orb.Point
	for r := rowLo; r <= rowHi; r++ {
		for c := colLo; c <= colHi; c++ {
			centers = append(centers, grid.CellCenter(c, r))
		}
	}
	metricsCollector.DEMWindowCellCount.Observe(float64(len(centers)))

	centroid := geometry.Centroid(centers)

	best := models.ElevationSample{}
	found := false
	for r := rowLo; r <= rowHi; r++ {
		for c := colLo; c <= colHi; c++ {
			v := grid.Value(c, r)
			if raster.IsNoData(v) {
				continue
			}

			sample := models.ElevationSample{
				TargetPoint:        grid.CellCenter(c, r),
				Elevation:          v,
				DistanceToCentroid: planar.Distance(grid.CellCenter(c, r), centroid),
			}

			if !found || sample.Elevation < best.Elevation ||
				(sample.Elevation == best.Elevation && sample.DistanceToCentroid < best.DistanceToCentroid) {
				best = sample
				found = true
			}
		}
	}

	if !found {
		return models.ElevationSample{}, &models.ConfigurationError{
			Subject: "hydro DEM",
			Message: "elevation window contains no valid cells",
		}
	}

	return best, nil
}
