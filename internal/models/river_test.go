package models

import (
	"testing"

	"github.com/paulmach/orb"
)

func TestRiverFeature_InflowNode(t *testing.T) {
	tests := []struct {
		name    string
		feature RiverFeature
		want    int64
	}{
		{
			name:    "flows toward catchment uses first node",
			feature: RiverFeature{FirstNode: 10, LastNode: 20, NodeDirection: NodeDirectionTo},
			want:    10,
		},
		{
			name:    "flows away from catchment uses last node",
			feature: RiverFeature{FirstNode: 10, LastNode: 20, NodeDirection: NodeDirectionFrom},
			want:    20,
		},
		{
			name:    "unknown direction defaults to last node",
			feature: RiverFeature{FirstNode: 10, LastNode: 20, NodeDirection: ""},
			want:    20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.feature.InflowNode(); got != tt.want {
				t.Errorf("InflowNode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCatchmentArea_ExteriorRing(t *testing.T) {
	tests := []struct {
		name    string
		polygon orb.Polygon
		wantErr bool
	}{
		{
			name: "valid closed square",
			polygon: orb.Polygon{orb.Ring{
				{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0},
			}},
		},
		{
			name:    "empty polygon",
			polygon: orb.Polygon{},
			wantErr: true,
		},
		{
			name: "unclosed ring",
			polygon: orb.Polygon{orb.Ring{
				{0, 0}, {10, 0}, {10, 10}, {0, 10},
			}},
			wantErr: true,
		},
		{
			name: "too few vertices",
			polygon: orb.Polygon{orb.Ring{
				{0, 0}, {10, 0}, {0, 0},
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catchment := CatchmentArea{Polygon: tt.polygon, CRS: 2193}

			ring, err := catchment.ExteriorRing()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExteriorRing() error = %v, wantErr %v", err, tt.wantErr)
			}

			if !tt.wantErr && len(ring) != len(tt.polygon[0]) {
				t.Errorf("ring length = %d, want %d", len(ring), len(tt.polygon[0]))
			}
		})
	}
}

func TestDomainErrors(t *testing.T) {
	validationErr := &ValidationError{Field: "polygon", Message: "bad polygon"}
	if validationErr.Error() != "bad polygon" {
		t.Errorf("ValidationError.Error() = %q", validationErr.Error())
	}
	if validationErr.IsTransient() {
		t.Error("validation errors must not be transient")
	}

	configErr := &ConfigurationError{Subject: "river network", Message: "cycle detected"}
	if configErr.Error() != "river network: cycle detected" {
		t.Errorf("ConfigurationError.Error() = %q", configErr.Error())
	}
	if configErr.IsTransient() {
		t.Error("configuration errors must not be transient")
	}
}
