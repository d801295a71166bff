package services

import (
	"context"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb/planar"

	"flood-platform/internal/models"
	"flood-platform/pkg/logging"
	"flood-platform/pkg/metrics"
)

// waterwayEntry indexes one waterway crossing in the R-tree. The bounds are
// a tiny box around the crossing point; candidate search expands the query
// box by the distance threshold instead.
type waterwayEntry struct {
	location rtreego.Point
	crossing models.BoundaryCrossing
}

func (e *waterwayEntry) Bounds() *rtreego.Rect {
	return e.location.ToRect(0.01)
}

// candidate is one (reference, waterway, distance) triple considered for
// matching.
type candidate struct {
	refIndex  int
	wwIndex   int
	distanceM float64
}

// ProximityMatcher pairs pruned reference crossings with their nearest
// waterway crossings within a distance threshold, one-to-one on both sides.
type ProximityMatcher struct {
	thresholdM float64
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// NewProximityMatcher creates a proximity matcher with the given distance
// threshold in meters.
func NewProximityMatcher(thresholdM float64, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ProximityMatcher {
	return &ProximityMatcher{
		thresholdM: thresholdM,
		logger:     logger,
		metrics:    metricsCollector,
	}
}

// Match returns the one-to-one pairing of reference and waterway crossings.
// All candidate pairs within the threshold are collected, sorted by distance
// ascending, and accepted greedily so the closest mutually available pair
// always wins. Accepted pairs are returned sorted by boundary line number.
// Reference crossings left unmatched are returned separately; they are a
// data-quality condition for the caller to report, not an error.
func (m *ProximityMatcher) Match(
	ctx context.Context,
	references []models.BoundaryCrossing,
	waterways []models.BoundaryCrossing,
	segments []models.BoundarySegment,
) ([]models.MatchedPair, []models.BoundaryCrossing, error) {
	if m.thresholdM <= 0 {
		return nil, nil, &models.ConfigurationError{
			Subject: "proximity matcher",
			Message: "distance threshold must be positive",
		}
	}

	segmentByNumber := make(map[int]models.BoundarySegment, len(segments))
	for _, s := range segments {
		segmentByNumber[s.LineNumber] = s
	}

	candidates := m.collectCandidates(references, waterways)

	// Closest mutually available pair wins first. Feature ids break exact
	// distance ties so results never depend on slice order.
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.distanceM != b.distanceM {
			return a.distanceM < b.distanceM
		}
		ra, rb := references[a.refIndex].FeatureID, references[b.refIndex].FeatureID
		if ra != rb {
			return ra < rb
		}
		return waterways[a.wwIndex].FeatureID < waterways[b.wwIndex].FeatureID
	})

	matchedRefs := make(map[int]struct{}, len(references))
	matchedWws := make(map[int]struct{}, len(waterways))
	pairs := make([]models.MatchedPair, 0, len(references))

	for _, c := range candidates {
		if _, taken := matchedRefs[c.refIndex]; taken {
			continue
		}
		if _, taken := matchedWws[c.wwIndex]; taken {
			continue
		}
		matchedRefs[c.refIndex] = struct{}{}
		matchedWws[c.wwIndex] = struct{}{}

		ref, ww := references[c.refIndex], waterways[c.wwIndex]
		pairs = append(pairs, models.MatchedPair{
			ReferenceFeatureID: ref.FeatureID,
			WaterwayFeatureID:  ww.FeatureID,
			DistanceM:          c.distanceM,
			BoundaryLineNumber: ww.BoundaryLineNumber,
			BoundaryLine:       segmentByNumber[ww.BoundaryLineNumber].Line,
			WaterwayPoint:      ww.BoundaryPoint,
			WaterwayGeometry:   ww.SourceGeometry,
		})
	}

	// Stable downstream ordering for the model-input writer.
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].BoundaryLineNumber != pairs[j].BoundaryLineNumber {
			return pairs[i].BoundaryLineNumber < pairs[j].BoundaryLineNumber
		}
		return pairs[i].ReferenceFeatureID < pairs[j].ReferenceFeatureID
	})

	var unmatched []models.BoundaryCrossing
	for i, ref := range references {
		if _, matched := matchedRefs[i]; !matched {
			unmatched = append(unmatched, ref)
			m.metrics.UnmatchedCrossingsTotal.Inc()
			m.logger.Warn(ctx, "[CROSSING_UNMATCHED] No waterway crossing within threshold; river excluded from model input", logging.Fields{
				"reference_feature_id": ref.FeatureID,
				"boundary_line_no":     ref.BoundaryLineNumber,
				"threshold_m":          m.thresholdM,
			})
		}
	}

	m.metrics.MatchedPairsTotal.Add(float64(len(pairs)))

	return pairs, unmatched, nil
}

// collectCandidates finds, per reference crossing, all waterway crossings
// within the threshold. An R-tree over the waterway points keeps the
// candidate search bounded to the threshold box before exact distances are
// computed.
func (m *ProximityMatcher) collectCandidates(references, waterways []models.BoundaryCrossing) []candidate {
	if len(waterways) == 0 {
		return nil
	}

	tree := rtreego.NewTree(2, 8, 16)
	entryIndex := make(map[*waterwayEntry]int, len(waterways))
	for i, ww := range waterways {
		entry := &waterwayEntry{
			location: rtreego.Point{ww.BoundaryPoint[0], ww.BoundaryPoint[1]},
			crossing: ww,
		}
		entryIndex[entry] = i
		tree.Insert(entry)
	}

	var candidates []candidate
	for refIdx, ref := range references {
		corner := rtreego.Point{
			ref.BoundaryPoint[0] - m.thresholdM,
			ref.BoundaryPoint[1] - m.thresholdM,
		}
		searchBox, err := rtreego.NewRect(corner, []float64{2 * m.thresholdM, 2 * m.thresholdM})
		if err != nil {
			continue
		}

		for _, hit := range tree.SearchIntersect(searchBox) {
			entry := hit.(*waterwayEntry)
			d := planar.Distance(ref.BoundaryPoint, entry.crossing.BoundaryPoint)
			if d <= m.thresholdM {
				candidates = append(candidates, candidate{
					refIndex:  refIdx,
					wwIndex:   entryIndex[entry],
					distanceM: d,
				})
			}
		}
	}

	return candidates
}
