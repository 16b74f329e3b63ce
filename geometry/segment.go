package geometry

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// Segment is an ordered pair of end points
type Segment struct {
	A, B Point
}

// Seg is shorthand for Segment{A: a, B: b}
func Seg(a, b Point) Segment {
	return Segment{A: a, B: b}
}

// AxisSegment returns the segment centered on c running half a length either
// side along dir, which is expected to be a unit vector
func AxisSegment(c Point, dir r2.Vec, length float64) Segment {
	half := r2.Scale(length/2, dir)
	return Segment{A: r2.Sub(c, half), B: r2.Add(c, half)}
}

// Length returns the Euclidean length of the segment
func (s Segment) Length() float64 {
	return Distance(s.A, s.B)
}

// Degenerate reports whether both end points coincide
func (s Segment) Degenerate() bool {
	return s.A == s.B
}

// Direction returns the unit vector from A to B, or the zero vector for a
// degenerate segment
func (s Segment) Direction() r2.Vec {
	if s.Degenerate() {
		return r2.Vec{}
	}

	return r2.Unit(r2.Sub(s.B, s.A))
}

// At returns the point a fraction t of the way from A to B
func (s Segment) At(t float64) Point {
	return r2.Add(s.A, r2.Scale(t, r2.Sub(s.B, s.A)))
}

// Midpoint returns the center of the segment
func (s Segment) Midpoint() Point {
	return s.At(0.5)
}
