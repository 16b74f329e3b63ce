// Package detect provides Detector implementations that turn segmentation
// output, colour thresholds or recorded results into detection polygons
package detect

import (
	"context"
	"fmt"

	"github.com/swdee/go-objsize"
	"github.com/swdee/go-objsize/geometry"
	"gocv.io/x/gocv"
)

// DefaultEpsilon is the ApproxPolyDP tolerance in pixels used to simplify
// contours
const DefaultEpsilon = 3

// Object describes one instance in a labelled segmentation mask
type Object struct {
	ClassID     int
	TrackID     int
	Probability float32
}

// Segmentation is the output of an instance segmentation model.  Mask holds
// one byte per pixel of the frame in row major order, a value of i+1 marks a
// pixel as belonging to Objects[i] and 0 is background.
type Segmentation struct {
	Mask    []uint8
	Width   int
	Height  int
	Objects []Object
}

// Segmenter runs an instance segmentation model on a frame
type Segmenter interface {
	Segment(ctx context.Context, frame gocv.Mat) (Segmentation, error)
}

// MaskDetector adapts a Segmenter to the Detector interface by tracing the
// outline of each object in the mask
type MaskDetector struct {
	segmenter Segmenter
	// minArea filters out small contours picked up from aliasing/noise in
	// the mask
	minArea float64
	epsilon float64
}

// NewMaskDetector returns a MaskDetector.  Contours smaller than minArea are
// ignored and the outline is simplified with the epsilon tolerance.
func NewMaskDetector(s Segmenter, minArea, epsilon float64) *MaskDetector {
	return &MaskDetector{
		segmenter: s,
		minArea:   minArea,
		epsilon:   epsilon,
	}
}

// Detect segments frame and returns one detection per object
func (m *MaskDetector) Detect(ctx context.Context, frame gocv.Mat) ([]objsize.Detection, error) {

	seg, err := m.segmenter.Segment(ctx, frame)

	if err != nil {
		return nil, fmt.Errorf("error segmenting frame: %w", err)
	}

	return Polygons(seg, m.minArea, m.epsilon)
}

// Polygons converts a labelled segmentation mask into detections, tracing
// the largest external contour of each object.  Objects with no contour
// above minArea are returned with an empty polygon.
func Polygons(seg Segmentation, minArea, epsilon float64) ([]objsize.Detection, error) {

	if len(seg.Mask) != seg.Width*seg.Height {
		return nil, fmt.Errorf("mask has %d bytes, expected %dx%d", len(seg.Mask), seg.Width, seg.Height)
	}

	dets := make([]objsize.Detection, len(seg.Objects))

	for i, obj := range seg.Objects {
		dets[i] = objsize.Detection{
			ClassID:     obj.ClassID,
			TrackID:     obj.TrackID,
			Probability: obj.Probability,
		}
	}

	if len(seg.Objects) == 0 {
		return dets, nil
	}

	maskMat, err := gocv.NewMatFromBytes(seg.Height, seg.Width, gocv.MatTypeCV8U, seg.Mask)

	if err != nil {
		return nil, fmt.Errorf("error creating mask Mat: %w", err)
	}

	defer maskMat.Close()

	objMask := gocv.NewMat()
	defer objMask.Close()

	// iterate over each unique object ID to isolate the mask
	for objID := 1; objID <= len(seg.Objects); objID++ {

		bound := gocv.NewScalar(float64(objID), 0, 0, 0)
		gocv.InRangeWithScalar(maskMat, bound, bound, &objMask)

		dets[objID-1].Polygon = largestContour(objMask, minArea, epsilon)
	}

	return dets, nil
}

// largestContour returns the simplified outline of the largest external
// contour in a binary mask, or nil if none reaches minArea
func largestContour(mask gocv.Mat, minArea, epsilon float64) geometry.Polygon {

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	best := -1
	bestArea := 0.0

	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))

		if area >= minArea && area > bestArea {
			best, bestArea = i, area
		}
	}

	if best < 0 {
		return nil
	}

	contour := contours.At(best)

	if epsilon <= 0 {
		return polygonOf(contour)
	}

	approx := gocv.ApproxPolyDP(contour, epsilon, true)
	defer approx.Close()

	return polygonOf(approx)
}

// polygonOf converts a gocv contour to a Polygon
func polygonOf(pv gocv.PointVector) geometry.Polygon {
	return geometry.PolygonFromImagePoints(pv.ToPoints())
}
