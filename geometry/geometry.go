// Package geometry provides the planar primitives used to measure segmented
// objects: points, polygons, segments and the minimum area oriented
// rectangle enclosing a polygon.
package geometry

import (
	"image"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Point is a 2D point in image pixel coordinates.  The Y axis grows downward
// as it does in the source image.
type Point = r2.Vec

// Pt is shorthand for Point{X: x, Y: y}
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// FromImagePoint converts an integer image point
func FromImagePoint(p image.Point) Point {
	return Point{X: float64(p.X), Y: float64(p.Y)}
}

// ToImagePoint rounds a point to the nearest pixel
func ToImagePoint(p Point) image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

// Distance returns the Euclidean distance between two points
func Distance(a, b Point) float64 {
	return r2.Norm(r2.Sub(b, a))
}
