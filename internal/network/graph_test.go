package network

import (
	"errors"
	"testing"

	"flood-platform/internal/models"
)

func TestBuildFromFeatures(t *testing.T) {
	features := []models.RiverFeature{
		{FeatureID: 1, FirstNode: 10, LastNode: 20},
		{FeatureID: 2, FirstNode: 20, LastNode: 30},
		{FeatureID: 3, FirstNode: 40, LastNode: 30},
	}

	g := BuildFromFeatures(features)

	if got := g.NodeCount(); got != 4 {
		t.Errorf("NodeCount = %d, want 4", got)
	}

	for _, id := range []int64{10, 20, 30, 40} {
		if !g.HasNode(id) {
			t.Errorf("HasNode(%d) = false, want true", id)
		}
	}

	if g.HasNode(99) {
		t.Error("HasNode(99) = true, want false")
	}
}

func TestGraph_Validate(t *testing.T) {
	tests := []struct {
		name    string
		edges   [][2]int64
		wantErr bool
	}{
		{
			name:  "acyclic chain",
			edges: [][2]int64{{1, 2}, {2, 3}, {3, 4}},
		},
		{
			name:  "acyclic confluence",
			edges: [][2]int64{{1, 3}, {2, 3}, {3, 4}},
		},
		{
			name:    "three node cycle",
			edges:   [][2]int64{{1, 2}, {2, 3}, {3, 1}},
			wantErr: true,
		},
		{
			name:    "self loop",
			edges:   [][2]int64{{1, 2}, {2, 2}},
			wantErr: true,
		},
		{
			name:  "empty graph",
			edges: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			for _, e := range tt.edges {
				g.AddEdge(e[0], e[1])
			}

			err := g.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err != nil {
				var configErr *models.ConfigurationError
				if !errors.As(err, &configErr) {
					t.Errorf("Validate() error type = %T, want *models.ConfigurationError", err)
				}
			}
		})
	}
}

func TestGraph_Descendants(t *testing.T) {
	// 1 -> 2 -> 3 -> 5, with a second branch 4 -> 3.
	g := New()
	g.AddEdge(1, 2)
	g.AddEdge(2, 3)
	g.AddEdge(3, 5)
	g.AddEdge(4, 3)

	tests := []struct {
		name string
		node int64
		want []int64
	}{
		{"headwater sees full chain", 1, []int64{2, 3, 5}},
		{"side branch sees shared downstream", 4, []int64{3, 5}},
		{"outlet has no descendants", 5, nil},
		{"unknown node yields empty set", 99, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Descendants(tt.node)

			if len(got) != len(tt.want) {
				t.Fatalf("Descendants(%d) = %v, want %v", tt.node, got, tt.want)
			}

			for _, id := range tt.want {
				if _, ok := got[id]; !ok {
					t.Errorf("Descendants(%d) missing node %d", tt.node, id)
				}
			}

			if _, ok := got[tt.node]; ok {
				t.Errorf("Descendants(%d) must not contain the node itself", tt.node)
			}
		})
	}
}
