package raster

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

// testGrid builds a 4x4 grid with 10m resolution, cell centers at
// x = 5,15,25,35 and y = 35,25,15,5 (north to south). Elevations are
// row*10 + col so every cell is distinct.
func testGrid() *Grid {
	g := &Grid{
		X:          []float64{5, 15, 25, 35},
		Y:          []float64{35, 25, 15, 5},
		Resolution: 10,
	}
	g.Z = make([][]float64, 4)
	for r := 0; r < 4; r++ {
		g.Z[r] = make([]float64, 4)
		for c := 0; c < 4; c++ {
			g.Z[r][c] = float64(r*10 + c)
		}
	}
	return g
}

func TestGrid_Bound(t *testing.T) {
	g := testGrid()

	bound := g.Bound()
	want := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{40, 40}}

	if bound != want {
		t.Errorf("Bound() = %v, want %v", bound, want)
	}
}

func TestGrid_Overlaps(t *testing.T) {
	g := testGrid()

	tests := []struct {
		name string
		b    orb.Bound
		want bool
	}{
		{"fully inside", orb.Bound{Min: orb.Point{10, 10}, Max: orb.Point{20, 20}}, true},
		{"partial overlap", orb.Bound{Min: orb.Point{30, 30}, Max: orb.Point{50, 50}}, true},
		{"disjoint", orb.Bound{Min: orb.Point{100, 100}, Max: orb.Point{110, 110}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps(%v) = %v, want %v", tt.b, got, tt.want)
			}
		})
	}
}

func TestGrid_Clip(t *testing.T) {
	t.Run("selects covered cells and masks outside centers", func(t *testing.T) {
		g := testGrid()

		// Rectangle covering cell centers (15,15) and (25,15).
		poly := orb.Polygon{orb.Ring{
			{12, 12}, {28, 12}, {28, 18}, {12, 18}, {12, 12},
		}}

		clipped, err := g.Clip(poly)
		if err != nil {
			t.Fatalf("Clip() error = %v", err)
		}

		if clipped.Cols() != 2 || clipped.Rows() != 1 {
			t.Fatalf("clipped size = %dx%d, want 2x1", clipped.Cols(), clipped.Rows())
		}

		// Original row 2 (y=15), cols 1 and 2.
		if v := clipped.Value(0, 0); v != 21 {
			t.Errorf("Value(0,0) = %v, want 21", v)
		}
		if v := clipped.Value(1, 0); v != 22 {
			t.Errorf("Value(1,0) = %v, want 22", v)
		}
	})

	t.Run("masks cells whose centers fall outside the polygon", func(t *testing.T) {
		g := testGrid()

		// Triangle that pulls cell (35,35) into the bounding box but leaves
		// its center outside the polygon.
		poly := orb.Polygon{orb.Ring{
			{0, 0}, {40, 0}, {0, 40}, {0, 0},
		}}

		clipped, err := g.Clip(poly)
		if err != nil {
			t.Fatalf("Clip() error = %v", err)
		}

		if clipped.Cols() != 4 || clipped.Rows() != 4 {
			t.Fatalf("clipped size = %dx%d, want 4x4", clipped.Cols(), clipped.Rows())
		}

		// Northeast corner center (35,35) is outside the triangle.
		if v := clipped.Value(3, 0); !IsNoData(v) {
			t.Errorf("Value(3,0) = %v, want NoData", v)
		}

		// Southwest corner center (5,5) is inside.
		if v := clipped.Value(0, 3); IsNoData(v) {
			t.Error("Value(0,3) should hold data")
		}
	})

	t.Run("disjoint polygon is a configuration error", func(t *testing.T) {
		g := testGrid()

		poly := orb.Polygon{orb.Ring{
			{100, 100}, {110, 100}, {110, 110}, {100, 110}, {100, 100},
		}}

		if _, err := g.Clip(poly); err == nil {
			t.Fatal("Clip() expected error for disjoint polygon")
		}
	})

	t.Run("all cells masked is a configuration error", func(t *testing.T) {
		g := testGrid()
		for r := range g.Z {
			for c := range g.Z[r] {
				g.Z[r][c] = math.NaN()
			}
		}

		poly := orb.Polygon{orb.Ring{
			{0, 0}, {40, 0}, {40, 40}, {0, 40}, {0, 0},
		}}

		if _, err := g.Clip(poly); err == nil {
			t.Fatal("Clip() expected error when no valid cells remain")
		}
	})
}

func TestGrid_NearestIndex(t *testing.T) {
	g := testGrid()

	tests := []struct {
		name    string
		p       orb.Point
		wantCol int
		wantRow int
	}{
		{"exact cell center", orb.Point{15, 25}, 1, 1},
		{"off-center snaps to nearest", orb.Point{17, 23}, 1, 1},
		{"outside extent clamps to edge cell", orb.Point{-100, 100}, 0, 0},
		{"equidistant tie takes lower index", orb.Point{10, 30}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, row := g.NearestIndex(tt.p)
			if col != tt.wantCol || row != tt.wantRow {
				t.Errorf("NearestIndex(%v) = (%d,%d), want (%d,%d)", tt.p, col, row, tt.wantCol, tt.wantRow)
			}
		})
	}
}
