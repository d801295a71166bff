package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"

	"flood-platform/internal/models"
)

func refCrossing(id int64, p orb.Point, line int) models.BoundaryCrossing {
	return models.BoundaryCrossing{FeatureID: id, NetworkNode: id * 100, BoundaryPoint: p, BoundaryLineNumber: line}
}

func wwCrossing(id int64, p orb.Point, line int) models.BoundaryCrossing {
	return models.BoundaryCrossing{FeatureID: id, BoundaryPoint: p, BoundaryLineNumber: line}
}

func TestProximityMatcher_Match(t *testing.T) {
	segments := []models.BoundarySegment{
		{LineNumber: 1, Line: orb.LineString{{0, 0}, {1000, 0}}},
		{LineNumber: 2, Line: orb.LineString{{1000, 0}, {1000, 1000}}},
		{LineNumber: 3, Line: orb.LineString{{1000, 1000}, {0, 1000}}},
		{LineNumber: 4, Line: orb.LineString{{0, 1000}, {0, 0}}},
	}

	matcher := NewProximityMatcher(300, testLogger, testMetrics)

	tests := []struct {
		name        string
		references  []models.BoundaryCrossing
		waterways   []models.BoundaryCrossing
		checkValues func(*testing.T, []models.MatchedPair, []models.BoundaryCrossing)
	}{
		{
			name: "nearest waterway within threshold matched",
			references: []models.BoundaryCrossing{
				refCrossing(1, orb.Point{100, 0}, 1),
			},
			waterways: []models.BoundaryCrossing{
				wwCrossing(50, orb.Point{150, 0}, 1),
				wwCrossing(51, orb.Point{350, 0}, 1),
			},
			checkValues: func(t *testing.T, pairs []models.MatchedPair, unmatched []models.BoundaryCrossing) {
				if len(pairs) != 1 {
					t.Fatalf("got %d pairs, want 1", len(pairs))
				}

				p := pairs[0]
				if p.ReferenceFeatureID != 1 || p.WaterwayFeatureID != 50 {
					t.Errorf("pair = (%d,%d), want (1,50)", p.ReferenceFeatureID, p.WaterwayFeatureID)
				}
				if math.Abs(p.DistanceM-50) > 1e-9 {
					t.Errorf("DistanceM = %v, want 50", p.DistanceM)
				}
				if p.WaterwayPoint != (orb.Point{150, 0}) {
					t.Errorf("WaterwayPoint = %v, want (150,0)", p.WaterwayPoint)
				}
				if len(unmatched) != 0 {
					t.Errorf("unmatched = %v, want none", unmatched)
				}
			},
		},
		{
			name: "crossing beyond threshold left unmatched",
			references: []models.BoundaryCrossing{
				refCrossing(1, orb.Point{100, 0}, 1),
			},
			waterways: []models.BoundaryCrossing{
				wwCrossing(50, orb.Point{600, 0}, 1),
			},
			checkValues: func(t *testing.T, pairs []models.MatchedPair, unmatched []models.BoundaryCrossing) {
				if len(pairs) != 0 {
					t.Fatalf("got %d pairs, want 0", len(pairs))
				}
				if len(unmatched) != 1 || unmatched[0].FeatureID != 1 {
					t.Fatalf("unmatched = %v, want feature 1", unmatched)
				}
			},
		},
		{
			name: "one-to-one: closer reference wins the shared waterway",
			references: []models.BoundaryCrossing{
				refCrossing(1, orb.Point{100, 0}, 1),
				refCrossing(2, orb.Point{220, 0}, 1),
			},
			waterways: []models.BoundaryCrossing{
				wwCrossing(50, orb.Point{200, 0}, 1),
			},
			checkValues: func(t *testing.T, pairs []models.MatchedPair, unmatched []models.BoundaryCrossing) {
				if len(pairs) != 1 {
					t.Fatalf("got %d pairs, want 1", len(pairs))
				}
				if pairs[0].ReferenceFeatureID != 2 {
					t.Errorf("matched reference = %d, want 2 (20 m beats 100 m)", pairs[0].ReferenceFeatureID)
				}
				if len(unmatched) != 1 || unmatched[0].FeatureID != 1 {
					t.Errorf("unmatched = %v, want feature 1", unmatched)
				}
			},
		},
		{
			name: "greedy assignment cascades to second-nearest",
			references: []models.BoundaryCrossing{
				refCrossing(1, orb.Point{100, 0}, 1),
				refCrossing(2, orb.Point{150, 0}, 1),
			},
			waterways: []models.BoundaryCrossing{
				wwCrossing(50, orb.Point{140, 0}, 1),
				wwCrossing(51, orb.Point{160, 0}, 1),
			},
			checkValues: func(t *testing.T, pairs []models.MatchedPair, unmatched []models.BoundaryCrossing) {
				if len(pairs) != 2 {
					t.Fatalf("got %d pairs, want 2", len(pairs))
				}

				// Closest pair is (2,50) at 10 m; reference 1 then takes 51.
				byRef := map[int64]int64{}
				for _, p := range pairs {
					byRef[p.ReferenceFeatureID] = p.WaterwayFeatureID
				}
				if byRef[2] != 50 || byRef[1] != 51 {
					t.Errorf("assignment = %v, want 2->50 and 1->51", byRef)
				}
			},
		},
		{
			name: "pairs sorted by boundary line number",
			references: []models.BoundaryCrossing{
				refCrossing(1, orb.Point{500, 1000}, 3),
				refCrossing(2, orb.Point{500, 0}, 1),
			},
			waterways: []models.BoundaryCrossing{
				wwCrossing(50, orb.Point{510, 1000}, 3),
				wwCrossing(51, orb.Point{510, 0}, 1),
			},
			checkValues: func(t *testing.T, pairs []models.MatchedPair, unmatched []models.BoundaryCrossing) {
				if len(pairs) != 2 {
					t.Fatalf("got %d pairs, want 2", len(pairs))
				}
				if pairs[0].BoundaryLineNumber != 1 || pairs[1].BoundaryLineNumber != 3 {
					t.Errorf("line numbers = (%d,%d), want ascending (1,3)",
						pairs[0].BoundaryLineNumber, pairs[1].BoundaryLineNumber)
				}
				// The pair carries the waterway side's boundary line geometry.
				if pairs[1].BoundaryLine[0] != (orb.Point{1000, 1000}) {
					t.Errorf("pair boundary line = %v, want segment 3 geometry", pairs[1].BoundaryLine)
				}
			},
		},
		{
			name:       "no references",
			references: nil,
			waterways: []models.BoundaryCrossing{
				wwCrossing(50, orb.Point{100, 0}, 1),
			},
			checkValues: func(t *testing.T, pairs []models.MatchedPair, unmatched []models.BoundaryCrossing) {
				if len(pairs) != 0 || len(unmatched) != 0 {
					t.Fatalf("pairs = %v, unmatched = %v, want both empty", pairs, unmatched)
				}
			},
		},
		{
			name: "no waterways leaves all references unmatched",
			references: []models.BoundaryCrossing{
				refCrossing(1, orb.Point{100, 0}, 1),
				refCrossing(2, orb.Point{500, 0}, 1),
			},
			waterways: nil,
			checkValues: func(t *testing.T, pairs []models.MatchedPair, unmatched []models.BoundaryCrossing) {
				if len(pairs) != 0 {
					t.Fatalf("got %d pairs, want 0", len(pairs))
				}
				if len(unmatched) != 2 {
					t.Fatalf("got %d unmatched, want 2", len(unmatched))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs, unmatched, err := matcher.Match(context.Background(), tt.references, tt.waterways, segments)
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			tt.checkValues(t, pairs, unmatched)
		})
	}
}

func TestProximityMatcher_InvalidThreshold(t *testing.T) {
	matcher := NewProximityMatcher(0, testLogger, testMetrics)

	_, _, err := matcher.Match(context.Background(), nil, nil, nil)
	if err == nil {
		t.Fatal("expected error for non-positive threshold")
	}

	var configErr *models.ConfigurationError
	if !errors.As(err, &configErr) {
		t.Errorf("error type = %T, want *models.ConfigurationError", err)
	}
}
