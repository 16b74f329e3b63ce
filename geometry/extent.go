package geometry

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// OrientedExtent is the minimum area rectangle enclosing a polygon
type OrientedExtent struct {
	// Center of the rectangle
	Center Point
	// Width is the extent along the rectangle's local X axis
	Width float64
	// Height is the extent along the rectangle's local Y axis
	Height float64
	// Angle in degrees of the local X axis relative to the image X axis,
	// normalized to the range (-45, 45]
	Angle float64
}

// Radians returns the rotation angle in radians
func (e OrientedExtent) Radians() float64 {
	return e.Angle * math.Pi / 180
}

// WidthAxis returns the unit vector along which Width is measured
func (e OrientedExtent) WidthAxis() r2.Vec {
	sin, cos := math.Sincos(e.Radians())
	return r2.Vec{X: cos, Y: sin}
}

// HeightAxis returns the unit vector perpendicular to WidthAxis along which
// Height is measured
func (e OrientedExtent) HeightAxis() r2.Vec {
	sin, cos := math.Sincos(e.Radians())
	return r2.Vec{X: -sin, Y: cos}
}

// Area returns the rectangle's area
func (e OrientedExtent) Area() float64 {
	return e.Width * e.Height
}

// Corners returns the four rectangle corners in drawing order
func (e OrientedExtent) Corners() [4]Point {
	u := r2.Scale(e.Width/2, e.WidthAxis())
	v := r2.Scale(e.Height/2, e.HeightAxis())

	return [4]Point{
		r2.Sub(r2.Sub(e.Center, u), v),
		r2.Sub(r2.Add(e.Center, u), v),
		r2.Add(r2.Add(e.Center, u), v),
		r2.Add(r2.Sub(e.Center, u), v),
	}
}

// MinAreaRect computes the minimum area rectangle enclosing the given points.
// Candidate rectangles are aligned with each convex hull edge in turn and
// the smallest one wins.  Collinear input produces a rectangle with zero
// Height, a single point a rectangle with zero Width and Height.
func MinAreaRect(pts []Point) OrientedExtent {
	hull := ConvexHull(pts)

	switch len(hull) {
	case 0:
		return OrientedExtent{}
	case 1:
		return OrientedExtent{Center: hull[0]}
	}

	best := OrientedExtent{}
	bestArea := math.Inf(1)

	for i := range hull {
		edge := r2.Sub(hull[(i+1)%len(hull)], hull[i])

		if r2.Norm(edge) == 0 {
			continue
		}

		u := r2.Unit(edge)
		v := r2.Vec{X: -u.Y, Y: u.X}

		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)

		for _, pt := range hull {
			pu := r2.Dot(pt, u)
			pv := r2.Dot(pt, v)
			minU, maxU = math.Min(minU, pu), math.Max(maxU, pu)
			minV, maxV = math.Min(minV, pv), math.Max(maxV, pv)
		}

		w := maxU - minU
		h := maxV - minV
		area := w * h

		// keep the first of equal candidates so results are stable for
		// rectangles where every edge gives the same area
		if area < bestArea-areaEpsilon {
			bestArea = area
			best = OrientedExtent{
				Center: r2.Add(r2.Scale((minU+maxU)/2, u), r2.Scale((minV+maxV)/2, v)),
				Width:  w,
				Height: h,
				Angle:  math.Atan2(u.Y, u.X) * 180 / math.Pi,
			}
		}
	}

	return normalizeExtent(best)
}

// normalizeExtent rotates the rectangle's frame in 90 degree steps until the
// angle falls in (-45, 45].  Each quarter turn swaps which side is measured
// along the local X axis.
func normalizeExtent(e OrientedExtent) OrientedExtent {
	for e.Angle > 45 {
		e.Angle -= 90
		e.Width, e.Height = e.Height, e.Width
	}

	for e.Angle <= -45 {
		e.Angle += 90
		e.Width, e.Height = e.Height, e.Width
	}

	return e
}

// ConvexHull returns the convex hull of the points in counter clockwise
// order (in a Y-up frame) using Andrew's monotone chain.  Collinear points on
// the hull boundary are dropped.
func ConvexHull(pts []Point) []Point {
	sorted := make([]Point, len(pts))
	copy(sorted, pts)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})

	// remove duplicates
	uniq := sorted[:0]

	for i, pt := range sorted {
		if i == 0 || pt != sorted[i-1] {
			uniq = append(uniq, pt)
		}
	}

	if len(uniq) < 3 {
		return uniq
	}

	turn := func(o, a, b Point) float64 {
		return r2.Cross(r2.Sub(a, o), r2.Sub(b, o))
	}

	hull := make([]Point, 0, 2*len(uniq))

	// lower hull
	for _, pt := range uniq {
		for len(hull) >= 2 && turn(hull[len(hull)-2], hull[len(hull)-1], pt) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, pt)
	}

	// upper hull
	lower := len(hull) + 1

	for i := len(uniq) - 2; i >= 0; i-- {
		pt := uniq[i]

		for len(hull) >= lower && turn(hull[len(hull)-2], hull[len(hull)-1], pt) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, pt)
	}

	// last point repeats the first
	return hull[:len(hull)-1]
}
