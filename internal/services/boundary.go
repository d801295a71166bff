package services

import (
	"github.com/paulmach/orb"

	"flood-platform/internal/models"
)

// BuildBoundarySegments decomposes the catchment exterior ring into its
// straight boundary segments, numbered 1..k in ring order. The segment
// numbering is the join key used throughout the pipeline, so it must be
// sequential with no gaps.
func BuildBoundarySegments(catchment models.CatchmentArea) ([]models.BoundarySegment, error) {
	ring, err := catchment.ExteriorRing()
	if err != nil {
		return nil, err
	}

	segments := make([]models.BoundarySegment, 0, len(ring)-1)
	for i := 0; i < len(ring)-1; i++ {
		segments = append(segments, models.BoundarySegment{
			LineNumber: i + 1,
			Line:       orb.LineString{ring[i], ring[i+1]},
		})
	}

	return segments, nil
}
