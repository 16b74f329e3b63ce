package clip

import (
	"image"
	"image/color"
	"math"

	"github.com/swdee/go-objsize/geometry"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/spatial/r2"
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Raster clips by drawing the filled polygon and a 1 pixel wide line into
// binary masks the size of the working frame and intersecting them.  This
// stays robust against the noisy, self touching contours segmentation models
// produce.
type Raster struct {
	width     int
	height    int
	selection Selection
}

// NewRaster returns a raster clipper over a width x height pixel domain.  A
// zero width or height leaves the domain unbounded, sized per call to cover
// the polygon, for frames kept at their source resolution.
func NewRaster(width, height int, sel Selection) *Raster {
	return &Raster{
		width:     width,
		height:    height,
		selection: sel,
	}
}

// Size returns the raster domain dimensions
func (r *Raster) Size() (width, height int) {
	return r.width, r.height
}

// Clip returns the two intersection pixels picked by the configured
// Selection.  Both end points are pixels on the rasterised candidate line
// that are also inside the filled polygon.
func (r *Raster) Clip(seg geometry.Segment, poly geometry.Polygon) (geometry.Segment, bool) {

	if len(poly) < 3 {
		return geometry.Segment{}, false
	}

	width, height := r.domain(poly)

	if width <= 0 || height <= 0 {
		return geometry.Segment{}, false
	}

	// fill the polygon on the mask
	polyMask := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0),
		height, width, gocv.MatTypeCV8UC1)
	defer polyMask.Close()

	ptsVector := gocv.NewPointsVectorFromPoints([][]image.Point{poly.ImagePoints()})
	defer ptsVector.Close()

	gocv.FillPoly(&polyMask, ptsVector, white)

	// draw the candidate axis
	lineMask := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0),
		height, width, gocv.MatTypeCV8UC1)
	defer lineMask.Close()

	gocv.Line(&lineMask, geometry.ToImagePoint(seg.A), geometry.ToImagePoint(seg.B), white, 1)

	intersection := gocv.NewMat()
	defer intersection.Close()

	gocv.BitwiseAnd(polyMask, lineMask, &intersection)

	// it is too slow to read pixel by pixel over CGO so copy the mask bytes
	// out and scan them directly
	return r.selectEnds(intersection.ToBytes(), width, seg)
}

// domain returns the mask size.  An unbounded domain only needs to reach the
// far corner of the polygon as clipped end points always lie inside it.
func (r *Raster) domain(poly geometry.Polygon) (width, height int) {
	if r.width > 0 && r.height > 0 {
		return r.width, r.height
	}

	b := poly.Bounds()

	return b.Max.X, b.Max.Y
}

// selectEnds picks the end points from a row major single channel mask of
// the given width
func (r *Raster) selectEnds(mask []byte, width int, seg geometry.Segment) (geometry.Segment, bool) {

	first, last := -1, -1

	dir := seg.Direction()
	minProj, maxProj := math.Inf(1), math.Inf(-1)
	minIdx, maxIdx := -1, -1

	for idx, v := range mask {
		if v == 0 {
			continue
		}

		if first < 0 {
			first = idx
		}
		last = idx

		if r.selection == SelectExtremal {
			proj := r2.Dot(pixel(idx, width), dir)

			if proj < minProj {
				minProj, minIdx = proj, idx
			}

			if proj > maxProj {
				maxProj, maxIdx = proj, idx
			}
		}
	}

	if first < 0 || first == last {
		// fewer than two intersection pixels
		return geometry.Segment{}, false
	}

	if r.selection == SelectExtremal && minIdx != maxIdx {
		return geometry.Seg(pixel(minIdx, width), pixel(maxIdx, width)), true
	}

	return geometry.Seg(pixel(first, width), pixel(last, width)), true
}

// pixel converts a mask byte offset to its pixel coordinate
func pixel(idx, width int) geometry.Point {
	return geometry.Pt(float64(idx%width), float64(idx/width))
}
