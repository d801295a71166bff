// Package geometry provides the planar geometry primitives used by the
// river input pipeline: boundary ring intersection, segment containment
// and flat-cap buffering. All operations work on projected (metric)
// coordinates.
package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Epsilon is the coordinate tolerance used for intersection and
// containment tests. Input data is metric (projected CRS), so one
// micrometer is far below survey precision.
const Epsilon = 1e-6

// cross returns the 2D cross product of vectors (x1,y1) and (x2,y2).
func cross(x1, y1, x2, y2 float64) float64 {
	return x1*y2 - y1*x2
}

// SegmentIntersection computes the intersection of segments a1-a2 and b1-b2.
// It returns the intersection points (zero, one, or for collinear touching
// segments up to two endpoints) and whether the segments overlap collinearly
// over a positive length.
func SegmentIntersection(a1, a2, b1, b2 orb.Point) ([]orb.Point, bool) {
	rx, ry := a2[0]-a1[0], a2[1]-a1[1]
	sx, sy := b2[0]-b1[0], b2[1]-b1[1]
	qpx, qpy := b1[0]-a1[0], b1[1]-a1[1]

	denom := cross(rx, ry, sx, sy)
	qpCrossR := cross(qpx, qpy, rx, ry)

	if math.Abs(denom) < Epsilon {
		if math.Abs(qpCrossR) >= Epsilon {
			// Parallel, non-intersecting.
			return nil, false
		}

		// Collinear: project b's endpoints onto a's parameter space.
		rLen2 := rx*rx + ry*ry
		if rLen2 < Epsilon*Epsilon {
			// Degenerate a; treat as a point test.
			if planar.Distance(a1, b1) < Epsilon || DistanceToSegment(a1, b1, b2) < Epsilon {
				return []orb.Point{a1}, false
			}
			return nil, false
		}

		t0 := (qpx*rx + qpy*ry) / rLen2
		t1 := t0 + (sx*rx+sy*ry)/rLen2
		lo, hi := math.Min(t0, t1), math.Max(t0, t1)
		lo, hi = math.Max(lo, 0), math.Min(hi, 1)

		if hi < lo {
			return nil, false
		}

		if hi-lo < Epsilon {
			// Touching at a single point.
			t := (lo + hi) / 2
			return []orb.Point{{a1[0] + t*rx, a1[1] + t*ry}}, false
		}

		// Positive-length overlap.
		p0 := orb.Point{a1[0] + lo*rx, a1[1] + lo*ry}
		p1 := orb.Point{a1[0] + hi*rx, a1[1] + hi*ry}
		return []orb.Point{p0, p1}, true
	}

	t := cross(qpx, qpy, sx, sy) / denom
	u := qpCrossR / denom

	if t < -Epsilon || t > 1+Epsilon || u < -Epsilon || u > 1+Epsilon {
		return nil, false
	}

	return []orb.Point{{a1[0] + t*rx, a1[1] + t*ry}}, false
}

// LineRingIntersection computes all distinct points where line intersects
// the ring. The second return value reports whether any part of the line
// runs along the ring (a positive-length collinear overlap), which callers
// treat as a data-quality exclusion.
func LineRingIntersection(line orb.LineString, ring orb.Ring) ([]orb.Point, bool) {
	var points []orb.Point
	overlap := false

	for i := 0; i < len(line)-1; i++ {
		for j := 0; j < len(ring)-1; j++ {
			pts, ov := SegmentIntersection(line[i], line[i+1], ring[j], ring[j+1])
			if ov {
				overlap = true
			}
			for _, p := range pts {
				points = appendDistinct(points, p)
			}
		}
	}

	return points, overlap
}

// appendDistinct appends p unless an equal point (within tolerance) is
// already present. Adjacent ring segments share vertices, so a crossing at
// a vertex would otherwise be reported twice.
func appendDistinct(points []orb.Point, p orb.Point) []orb.Point {
	for _, q := range points {
		if math.Abs(q[0]-p[0]) < 2*Epsilon && math.Abs(q[1]-p[1]) < 2*Epsilon {
			return points
		}
	}
	return append(points, p)
}

// DistanceToSegment returns the distance from p to the segment a-b.
func DistanceToSegment(p, a, b orb.Point) float64 {
	abx, aby := b[0]-a[0], b[1]-a[1]
	len2 := abx*abx + aby*aby
	if len2 == 0 {
		return planar.Distance(p, a)
	}

	t := ((p[0]-a[0])*abx + (p[1]-a[1])*aby) / len2
	t = math.Max(0, math.Min(1, t))

	closest := orb.Point{a[0] + t*abx, a[1] + t*aby}
	return planar.Distance(p, closest)
}

// PointOnSegment reports whether p lies on the segment a-b within tolerance.
func PointOnSegment(p, a, b orb.Point, tolerance float64) bool {
	return DistanceToSegment(p, a, b) <= tolerance
}

// BufferSegmentFlat buffers the segment a-b by distance d with flat
// ("squared") caps: the result is the rectangle of width 2*d whose long
// sides run parallel to the segment and whose ends do not extend past the
// segment endpoints.
func BufferSegmentFlat(a, b orb.Point, d float64) orb.Polygon {
	dx, dy := b[0]-a[0], b[1]-a[1]
	length := math.Hypot(dx, dy)
	if length == 0 {
		// Degenerate segment: an axis-aligned square around the point.
		return orb.Polygon{orb.Ring{
			{a[0] - d, a[1] - d},
			{a[0] + d, a[1] - d},
			{a[0] + d, a[1] + d},
			{a[0] - d, a[1] + d},
			{a[0] - d, a[1] - d},
		}}
	}

	// Unit normal to the segment.
	nx, ny := -dy/length*d, dx/length*d

	return orb.Polygon{orb.Ring{
		{a[0] + nx, a[1] + ny},
		{b[0] + nx, b[1] + ny},
		{b[0] - nx, b[1] - ny},
		{a[0] - nx, a[1] - ny},
		{a[0] + nx, a[1] + ny},
	}}
}

// Centroid returns the arithmetic mean of the given points.
func Centroid(points []orb.Point) orb.Point {
	if len(points) == 0 {
		return orb.Point{}
	}

	var sx, sy float64
	for _, p := range points {
		sx += p[0]
		sy += p[1]
	}

	n := float64(len(points))
	return orb.Point{sx / n, sy / n}
}
