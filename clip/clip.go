// Package clip truncates a candidate measurement axis to the part of it that
// lies inside an object polygon
package clip

import (
	"fmt"
	"strings"

	"github.com/swdee/go-objsize/geometry"
)

// Clipper returns the portion of seg lying inside poly's filled area.  ok is
// false when the segment does not overlap the polygon in at least two
// distinct points.  Implementations never fail.
type Clipper interface {
	Clip(seg geometry.Segment, poly geometry.Polygon) (clipped geometry.Segment, ok bool)
}

// Kind names a clipping strategy
type Kind string

const (
	// KindRaster rasterises polygon and axis into masks and intersects them
	KindRaster Kind = "raster"
	// KindExact intersects the axis with the polygon edges analytically
	KindExact Kind = "exact"
)

// Selection defines how the raster clipper picks the two end points from
// the intersection pixels
type Selection int

const (
	// SelectScan uses the first and last intersection pixels in row major
	// scan order.  Correct for convex, roughly axis aligned shapes but can
	// return a non extremal pair for concave polygons.
	SelectScan Selection = iota
	// SelectExtremal uses the intersection pixels with the smallest and
	// largest projection onto the axis direction
	SelectExtremal
)

// ParseSelection converts "scan" or "extremal" to a Selection
func ParseSelection(s string) (Selection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "scan":
		return SelectScan, nil
	case "extremal":
		return SelectExtremal, nil
	}

	return SelectScan, fmt.Errorf("unknown clip selection %q", s)
}

// String returns the configuration name of the selection
func (s Selection) String() string {
	if s == SelectExtremal {
		return "extremal"
	}

	return "scan"
}

// New returns the clipper for kind.  Width and height bound the raster
// domain and are ignored by the exact clipper.
func New(kind Kind, width, height int, sel Selection) (Clipper, error) {
	switch Kind(strings.ToLower(string(kind))) {
	case "", KindRaster:
		return NewRaster(width, height, sel), nil
	case KindExact:
		return Exact{}, nil
	}

	return nil, fmt.Errorf("unknown clipper %q", kind)
}
