package services

import (
	"context"
	"sort"

	"flood-platform/internal/models"
	"flood-platform/internal/network"
	"flood-platform/pkg/logging"
	"flood-platform/pkg/metrics"
)

// PruneUpstreamCrossings removes reference crossings that are hydraulically
// redundant: if another candidate's boundary node is reachable downstream of
// a candidate's node, the upstream candidate is dropped, because modeling
// the downstream crossing already captures that branch.
//
// Callers must validate the graph as acyclic first; on an acyclic network
// the result is independent of iteration order. Candidate counts per
// catchment are small, so the pairwise descendant check is quadratic by
// design.
func PruneUpstreamCrossings(
	ctx context.Context,
	g *network.Graph,
	crossings []models.BoundaryCrossing,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) []models.BoundaryCrossing {
	nodeByFeature := make(map[int64]int64, len(crossings))
	for _, c := range crossings {
		nodeByFeature[c.FeatureID] = c.NetworkNode
	}

	// Deterministic candidate order for logging.
	featureIDs := make([]int64, 0, len(nodeByFeature))
	for id := range nodeByFeature {
		featureIDs = append(featureIDs, id)
	}
	sort.Slice(featureIDs, func(i, j int) bool { return featureIDs[i] < featureIDs[j] })

	redundant := make(map[int64]struct{})
	for _, featureID := range featureIDs {
		descendants := g.Descendants(nodeByFeature[featureID])

		for _, otherID := range featureIDs {
			if otherID == featureID {
				continue
			}
			if _, downstream := descendants[nodeByFeature[otherID]]; downstream {
				redundant[featureID] = struct{}{}
				logger.Debug(ctx, "[CROSSING_PRUNED] Upstream crossing removed as redundant", logging.Fields{
					"feature_id":            featureID,
					"downstream_feature_id": otherID,
				})
				break
			}
		}
	}

	kept := make([]models.BoundaryCrossing, 0, len(crossings))
	for _, c := range crossings {
		if _, isRedundant := redundant[c.FeatureID]; !isRedundant {
			kept = append(kept, c)
		}
	}

	metricsCollector.CrossingsPrunedTotal.Add(float64(len(redundant)))

	return kept
}
