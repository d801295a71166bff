package models

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
)

// Node direction values carried by reference network features. A feature
// flows "to" the catchment when its first node sits on the boundary side,
// and "from" the catchment otherwise.
const (
	NodeDirectionTo   = "to"
	NodeDirectionFrom = "from"
)

// CatchmentArea represents the selected catchment polygon and its CRS.
// The polygon is read-only throughout a pipeline run.
type CatchmentArea struct {
	Polygon orb.Polygon `json:"polygon"`
	CRS     int         `json:"crs"`
}

// ExteriorRing returns the single exterior ring of the catchment polygon.
// The polygon must be non-degenerate: at least one ring, closed, with at
// least three distinct vertices.
func (c CatchmentArea) ExteriorRing() (orb.Ring, error) {
	if len(c.Polygon) == 0 {
		return nil, &ValidationError{
			Field:   "polygon",
			Message: "catchment polygon has no exterior ring",
		}
	}

	ring := c.Polygon[0]
	if !ring.Closed() || len(ring) < 4 {
		return nil, &ValidationError{
			Field:   "polygon",
			Message: "catchment exterior ring must be closed with at least three vertices",
		}
	}

	return ring, nil
}

// BoundarySegment is one straight line segment of the catchment boundary,
// numbered sequentially around the exterior ring starting from 1.
type BoundarySegment struct {
	LineNumber int            `json:"boundary_line_no"`
	Line       orb.LineString `json:"geometry"`
}

// RiverFeature is one segment of the authoritative reference river network,
// carrying the topology node identifiers used for reachability pruning.
type RiverFeature struct {
	FeatureID     int64          `json:"feature_id" db:"feature_id"`
	FirstNode     int64          `json:"first_node" db:"first_node"`
	LastNode      int64          `json:"last_node" db:"last_node"`
	NodeDirection string         `json:"node_direction" db:"node_direction"`
	Geometry      orb.LineString `json:"geometry" db:"-"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
}

// InflowNode returns the network node that represents this feature at the
// catchment boundary: the first node when the feature flows toward the
// catchment, otherwise the last node.
func (f RiverFeature) InflowNode() int64 {
	if f.NodeDirection == NodeDirectionTo {
		return f.FirstNode
	}
	return f.LastNode
}

// Waterway is one line feature of the secondary (crowd-sourced) waterway
// network. It carries no topology; it is used for geometric alignment only.
type Waterway struct {
	ID       int64          `json:"id" db:"id"`
	Kind     string         `json:"waterway" db:"waterway"`
	Geometry orb.LineString `json:"geometry" db:"-"`
}

// BoundaryCrossing is the point where a line feature crosses the catchment
// boundary exactly once, tagged with the boundary segment it falls on.
// NetworkNode is zero for waterway crossings.
type BoundaryCrossing struct {
	FeatureID          int64          `json:"feature_id"`
	NetworkNode        int64          `json:"network_node,omitempty"`
	BoundaryPoint      orb.Point      `json:"boundary_point"`
	BoundaryLineNumber int            `json:"boundary_line_no"`
	SourceGeometry     orb.LineString `json:"source_geometry"`
}

// MatchedPair pairs a pruned reference crossing with its nearest waterway
// crossing within the distance threshold. Both sides appear at most once
// across all pairs of a run.
type MatchedPair struct {
	ReferenceFeatureID int64          `json:"reference_feature_id"`
	WaterwayFeatureID  int64          `json:"waterway_feature_id"`
	DistanceM          float64        `json:"distance_m"`
	BoundaryLineNumber int            `json:"boundary_line_no"`
	BoundaryLine       orb.LineString `json:"boundary_line"`
	WaterwayPoint      orb.Point      `json:"waterway_point"`
	WaterwayGeometry   orb.LineString `json:"waterway_geometry"`
}

// ElevationSample is a single DEM cell considered during target-location
// extraction. Produced and consumed within the elevation sampler.
type ElevationSample struct {
	TargetPoint        orb.Point
	Elevation          float64
	DistanceToCentroid float64
}

// TargetLocation is the final output record: the DEM cell at which one
// river is injected into the simulation grid as a point inflow.
type TargetLocation struct {
	ReferenceFeatureID int64     `json:"reference_feature_id"`
	WaterwayFeatureID  int64     `json:"waterway_feature_id"`
	TargetPoint        orb.Point `json:"target_point"`
	Elevation          float64   `json:"elevation"`
	DEMResolution      float64   `json:"dem_resolution"`
}

// RiverInputRun is one persisted pipeline run summary.
type RiverInputRun struct {
	ID                 int64     `json:"id" db:"id"`
	Status             string    `json:"status" db:"status"`
	DistanceThresholdM float64   `json:"distance_threshold_m" db:"distance_threshold_m"`
	MatchedPairs       int       `json:"matched_pairs" db:"matched_pairs"`
	UnmatchedRivers    int       `json:"unmatched_rivers" db:"unmatched_rivers"`
	TargetLocations    int       `json:"target_locations" db:"target_locations"`
	DurationSeconds    float64   `json:"duration_seconds" db:"duration_seconds"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

// Run status values.
const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}

// ConfigurationError represents a fatal misconfiguration that aborts a
// pipeline run, such as a cyclic river network or a DEM that does not
// cover the catchment.
type ConfigurationError struct {
	Subject string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Subject, e.Message)
}

// IsTransient returns false as configuration errors require operator action
func (e *ConfigurationError) IsTransient() bool {
	return false
}
