package services

import (
	"testing"

	"github.com/paulmach/orb"

	"flood-platform/internal/models"
)

func TestBuildBoundarySegments(t *testing.T) {
	t.Run("square ring yields four numbered segments", func(t *testing.T) {
		segments, err := BuildBoundarySegments(squareCatchment())
		if err != nil {
			t.Fatalf("BuildBoundarySegments() error = %v", err)
		}

		if len(segments) != 4 {
			t.Fatalf("got %d segments, want 4", len(segments))
		}

		for i, s := range segments {
			if s.LineNumber != i+1 {
				t.Errorf("segment[%d].LineNumber = %d, want %d", i, s.LineNumber, i+1)
			}
			if len(s.Line) != 2 {
				t.Errorf("segment[%d] has %d vertices, want 2", i, len(s.Line))
			}
		}

		// Segments reconnect into the ring: each starts where the previous ends.
		for i := 1; i < len(segments); i++ {
			if segments[i].Line[0] != segments[i-1].Line[1] {
				t.Errorf("segment %d does not start at end of segment %d", i+1, i)
			}
		}
		if segments[len(segments)-1].Line[1] != segments[0].Line[0] {
			t.Error("last segment does not close back to the ring start")
		}
	})

	t.Run("irregular ring keeps vertex order", func(t *testing.T) {
		catchment := models.CatchmentArea{
			Polygon: orb.Polygon{orb.Ring{
				{0, 0}, {500, -100}, {900, 400}, {300, 800}, {0, 0},
			}},
			CRS: 2193,
		}

		segments, err := BuildBoundarySegments(catchment)
		if err != nil {
			t.Fatalf("BuildBoundarySegments() error = %v", err)
		}

		if len(segments) != 4 {
			t.Fatalf("got %d segments, want 4", len(segments))
		}

		if segments[0].Line[0] != (orb.Point{0, 0}) || segments[0].Line[1] != (orb.Point{500, -100}) {
			t.Errorf("segment 1 = %v, want ring's first edge", segments[0].Line)
		}
	})

	t.Run("degenerate polygon is rejected", func(t *testing.T) {
		catchment := models.CatchmentArea{Polygon: orb.Polygon{}, CRS: 2193}

		if _, err := BuildBoundarySegments(catchment); err == nil {
			t.Fatal("expected error for empty polygon")
		}
	})
}
