// Package raster provides the in-memory elevation grid consumed by the
// river input pipeline. The grid is the hydrologically conditioned DEM of
// the catchment, treated as read-only: clipping returns a new grid and
// never mutates the source.
package raster

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"flood-platform/internal/models"
)

// Grid is a regular elevation grid in a projected CRS. X holds cell-center
// x coordinates ascending west to east; Y holds cell-center y coordinates
// descending north to south, matching the row order of the common grid
// interchange formats. Z is indexed Z[row][col] with row following Y.
// Missing cells are NaN.
type Grid struct {
	X          []float64
	Y          []float64
	Z          [][]float64
	Resolution float64
}

// Rows returns the number of grid rows
func (g *Grid) Rows() int { return len(g.Y) }

// Cols returns the number of grid columns
func (g *Grid) Cols() int { return len(g.X) }

// Value returns the elevation at the given column and row
func (g *Grid) Value(col, row int) float64 {
	return g.Z[row][col]
}

// CellCenter returns the center coordinates of the given cell
func (g *Grid) CellCenter(col, row int) orb.Point {
	return orb.Point{g.X[col], g.Y[row]}
}

// IsNoData reports whether an elevation value marks a missing cell
func IsNoData(v float64) bool {
	return math.IsNaN(v)
}

// Bound returns the outer extent of the grid, cell edges included.
func (g *Grid) Bound() orb.Bound {
	if len(g.X) == 0 || len(g.Y) == 0 {
		return orb.Bound{}
	}

	half := g.Resolution / 2
	return orb.Bound{
		Min: orb.Point{g.X[0] - half, g.Y[len(g.Y)-1] - half},
		Max: orb.Point{g.X[len(g.X)-1] + half, g.Y[0] + half},
	}
}

// Overlaps reports whether the grid extent intersects the given bound
func (g *Grid) Overlaps(b orb.Bound) bool {
	return g.Bound().Intersects(b)
}

// Clip returns the sub-grid covered by the polygon. Cells whose centers
// fall inside the polygon's bounding box are retained; of those, cells
// whose centers lie outside the polygon itself are masked to NaN. An empty
// result is a configuration error: the DEM does not cover the requested
// geometry.
func (g *Grid) Clip(poly orb.Polygon) (*Grid, error) {
	bound := poly.Bound()
	half := g.Resolution / 2

	colLo, colHi := -1, -1
	for i, x := range g.X {
		if x >= bound.Min[0]-half && x <= bound.Max[0]+half {
			if colLo == -1 {
				colLo = i
			}
			colHi = i
		}
	}

	rowLo, rowHi := -1, -1
	for j, y := range g.Y {
		if y >= bound.Min[1]-half && y <= bound.Max[1]+half {
			if rowLo == -1 {
				rowLo = j
			}
			rowHi = j
		}
	}

	if colLo == -1 || rowLo == -1 {
		return nil, &models.ConfigurationError{
			Subject: "hydro DEM",
			Message: "clip geometry does not overlap the DEM extent",
		}
	}

	clipped := &Grid{
		X:          append([]float64(nil), g.X[colLo:colHi+1]...),
		Y:          append([]float64(nil), g.Y[rowLo:rowHi+1]...),
		Z:          make([][]float64, rowHi-rowLo+1),
		Resolution: g.Resolution,
	}

	anyData := false
	for j := rowLo; j <= rowHi; j++ {
		row := make([]float64, colHi-colLo+1)
		for i := colLo; i <= colHi; i++ {
			v := g.Z[j][i]
			if !IsNoData(v) && !planar.PolygonContains(poly, orb.Point{g.X[i], g.Y[j]}) {
				v = math.NaN()
			}
			if !IsNoData(v) {
				anyData = true
			}
			row[i-colLo] = v
		}
		clipped.Z[j-rowLo] = row
	}

	if !anyData {
		return nil, &models.ConfigurationError{
			Subject: "hydro DEM",
			Message: "clip geometry contains no DEM cells",
		}
	}

	return clipped, nil
}

// NearestIndex returns the column and row of the cell whose center is
// nearest to p, evaluated independently per axis. Ties resolve to the
// lower index, keeping results reproducible.
func (g *Grid) NearestIndex(p orb.Point) (col, row int) {
	col = nearest(g.X, p[0])
	row = nearest(g.Y, p[1])
	return col, row
}

func nearest(coords []float64, v float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, c := range coords {
		if d := math.Abs(c - v); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
