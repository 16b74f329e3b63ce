package measure

import (
	"fmt"
	"strings"

	"github.com/swdee/go-objsize"
	"github.com/swdee/go-objsize/geometry"
)

// UnitPixels is the unit reported when no calibration is available
const UnitPixels = "px"

// Measurement is the result of measuring one detection in one frame
type Measurement struct {
	// Detection is the source detection
	Detection objsize.Detection
	// ClassName is the label of the detection's class
	ClassName string
	// Valid is false when the polygon was missing or degenerate, in which
	// case the remaining geometry is zero and both axes are nil
	Valid bool
	// Centroid is the area centroid the axes are anchored on
	Centroid geometry.Point
	// Extent is the minimum area rectangle of the polygon
	Extent geometry.OrientedExtent
	// WidthAxis is the width axis clipped to the polygon, nil if absent
	WidthAxis *geometry.Segment
	// HeightAxis is the height axis clipped to the polygon, nil if absent
	HeightAxis *geometry.Segment
	// Width is the rectangle width converted to Unit.  It reflects the full
	// oriented rectangle, not the length of the clipped WidthAxis.
	Width float64
	// Height is the rectangle height converted to Unit
	Height float64
	// Unit of Width and Height
	Unit string
}

// WidthLabel returns the text shown beside the width axis
func (m Measurement) WidthLabel() string {
	return fmt.Sprintf("Width: %.2f %s", m.Width, m.Unit)
}

// HeightLabel returns the text shown beside the height axis
func (m Measurement) HeightLabel() string {
	return fmt.Sprintf("Height: %.2f %s", m.Height, m.Unit)
}

// ClassLabel returns the class name shown at the centroid
func (m Measurement) ClassLabel() string {
	return strings.ToUpper(m.ClassName)
}
