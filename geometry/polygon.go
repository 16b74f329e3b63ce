package geometry

import (
	"image"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// areaEpsilon is the absolute area below which a polygon is treated as
// having no filled region
const areaEpsilon = 1e-9

// Polygon is an ordered list of boundary points describing a closed contour.
// The last point is implicitly connected back to the first.
type Polygon []Point

// PolygonFromImagePoints converts a contour of integer image points
func PolygonFromImagePoints(pts []image.Point) Polygon {
	poly := make(Polygon, len(pts))

	for i, pt := range pts {
		poly[i] = FromImagePoint(pt)
	}

	return poly
}

// ImagePoints returns the polygon rounded to pixel coordinates, as used by
// gocv drawing functions
func (p Polygon) ImagePoints() []image.Point {
	pts := make([]image.Point, len(p))

	for i, pt := range p {
		pts[i] = ToImagePoint(pt)
	}

	return pts
}

// SignedArea returns the shoelace area of the polygon.  The sign depends on
// the winding direction of the points.
func (p Polygon) SignedArea() float64 {
	if len(p) < 3 {
		return 0
	}

	var sum float64

	for i := range p {
		j := (i + 1) % len(p)
		sum += r2.Cross(p[i], p[j])
	}

	return sum / 2
}

// Area returns the absolute area of the polygon
func (p Polygon) Area() float64 {
	return math.Abs(p.SignedArea())
}

// Degenerate reports whether the polygon has fewer than 3 points or encloses
// no area
func (p Polygon) Degenerate() bool {
	return len(p) < 3 || p.Area() < areaEpsilon
}

// Centroid returns the area centroid of the polygon computed from its first
// moments (m10/m00, m01/m00).  For irregular shapes this differs from the
// center of the enclosing rectangle.  ok is false for degenerate polygons.
func (p Polygon) Centroid() (c Point, ok bool) {
	if len(p) < 3 {
		return Point{}, false
	}

	var m00, m10, m01 float64

	for i := range p {
		j := (i + 1) % len(p)
		cross := r2.Cross(p[i], p[j])
		m00 += cross
		m10 += (p[i].X + p[j].X) * cross
		m01 += (p[i].Y + p[j].Y) * cross
	}

	m00 /= 2

	if math.Abs(m00) < areaEpsilon {
		return Point{}, false
	}

	return Point{X: m10 / (6 * m00), Y: m01 / (6 * m00)}, true
}

// Bounds returns the integer bounding rectangle of the polygon.  Max is
// exclusive so the rectangle covers every pixel a filled polygon touches.
func (p Polygon) Bounds() image.Rectangle {
	if len(p) == 0 {
		return image.Rectangle{}
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)

	for _, pt := range p {
		minX = math.Min(minX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxX = math.Max(maxX, pt.X)
		maxY = math.Max(maxY, pt.Y)
	}

	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1)
}

// Translate returns a copy of the polygon shifted by d
func (p Polygon) Translate(d Point) Polygon {
	out := make(Polygon, len(p))

	for i, pt := range p {
		out[i] = r2.Add(pt, d)
	}

	return out
}

// Contains reports whether pt lies inside the polygon using the even-odd
// rule, or within tol pixels of its boundary
func (p Polygon) Contains(pt Point, tol float64) bool {
	if len(p) == 0 {
		return false
	}

	inside := false

	for i := range p {
		a := p[i]
		b := p[(i+1)%len(p)]

		if distanceToSegment(pt, a, b) <= tol {
			return true
		}

		if (a.Y > pt.Y) != (b.Y > pt.Y) {
			x := a.X + (pt.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)

			if pt.X < x {
				inside = !inside
			}
		}
	}

	return inside
}

// distanceToSegment returns the shortest distance from p to the segment ab
func distanceToSegment(p, a, b Point) float64 {
	ab := r2.Sub(b, a)
	l2 := r2.Dot(ab, ab)

	if l2 == 0 {
		return Distance(p, a)
	}

	t := r2.Dot(r2.Sub(p, a), ab) / l2
	t = math.Max(0, math.Min(1, t))

	return Distance(p, r2.Add(a, r2.Scale(t, ab)))
}
