package handlers

import (
	"encoding/json"
	"testing"
)

func TestParseCatchment(t *testing.T) {
	tests := []struct {
		name        string
		req         GenerateRequest
		wantErr     bool
		wantCRS     int
		wantRingLen int
	}{
		{
			name: "polygon geometry with explicit crs",
			req: GenerateRequest{
				Catchment: json.RawMessage(`{"type":"Polygon","coordinates":[[[0,0],[1000,0],[1000,1000],[0,1000],[0,0]]]}`),
				CRS:       2193,
			},
			wantCRS:     2193,
			wantRingLen: 5,
		},
		{
			name: "crs defaults when omitted",
			req: GenerateRequest{
				Catchment: json.RawMessage(`{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,10],[0,10],[0,0]]]}`),
			},
			wantCRS:     2193,
			wantRingLen: 5,
		},
		{
			name:    "missing catchment",
			req:     GenerateRequest{},
			wantErr: true,
		},
		{
			name: "non-polygon geometry rejected",
			req: GenerateRequest{
				Catchment: json.RawMessage(`{"type":"Point","coordinates":[1,2]}`),
			},
			wantErr: true,
		},
		{
			name: "malformed geojson rejected",
			req: GenerateRequest{
				Catchment: json.RawMessage(`{"type":"Polygon"`),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catchment, err := parseCatchment(tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCatchment() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			if catchment.CRS != tt.wantCRS {
				t.Errorf("CRS = %d, want %d", catchment.CRS, tt.wantCRS)
			}
			if len(catchment.Polygon) != 1 || len(catchment.Polygon[0]) != tt.wantRingLen {
				t.Errorf("polygon ring length = %d, want %d", len(catchment.Polygon[0]), tt.wantRingLen)
			}
		})
	}
}
