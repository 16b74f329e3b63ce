package detect

import (
	"context"
	"fmt"

	"github.com/swdee/go-objsize"
	"gocv.io/x/gocv"
)

// HSV is a colour in OpenCV's 8 bit HSV space where hue is 0-180
type HSV struct {
	H, S, V float64
}

// ColorDetector finds objects of a single colour by thresholding the frame
// in HSV space.  It needs no model, which makes it useful for measuring
// flat coloured objects against a contrasting background and for testing
// calibration.
type ColorDetector struct {
	lower   HSV
	upper   HSV
	classID int
	minArea float64
	epsilon float64
}

// NewColorDetector returns a detector reporting every region with a colour
// between lower and upper and an area of at least minArea as classID
func NewColorDetector(lower, upper HSV, classID int, minArea, epsilon float64) *ColorDetector {
	return &ColorDetector{
		lower:   lower,
		upper:   upper,
		classID: classID,
		minArea: minArea,
		epsilon: epsilon,
	}
}

// Detect thresholds a BGR frame and returns one detection per region.  The
// detections carry no track id.
func (c *ColorDetector) Detect(_ context.Context, frame gocv.Mat) ([]objsize.Detection, error) {

	if frame.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	hsv := gocv.NewMat()
	defer hsv.Close()

	gocv.CvtColor(frame, &hsv, gocv.ColorBGRToHSV)

	mask := gocv.NewMat()
	defer mask.Close()

	gocv.InRangeWithScalar(hsv,
		gocv.NewScalar(c.lower.H, c.lower.S, c.lower.V, 0),
		gocv.NewScalar(c.upper.H, c.upper.S, c.upper.V, 0),
		&mask)

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	dets := make([]objsize.Detection, 0, contours.Size())

	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)

		if gocv.ContourArea(contour) < c.minArea {
			continue
		}

		det := objsize.Detection{
			ClassID:     c.classID,
			TrackID:     objsize.NoTrackID,
			Probability: 1,
		}

		if c.epsilon > 0 {
			approx := gocv.ApproxPolyDP(contour, c.epsilon, true)
			det.Polygon = polygonOf(approx)
			approx.Close()
		} else {
			det.Polygon = polygonOf(contour)
		}

		dets = append(dets, det)
	}

	return dets, nil
}
