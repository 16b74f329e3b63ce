package objsize

import (
	"context"

	"github.com/swdee/go-objsize/geometry"
	"gocv.io/x/gocv"
)

// NoTrackID is the TrackID of a detection the model could not assign a
// persistent identity to
const NoTrackID = -1

// Detection is one object instance reported by a detector for one frame
type Detection struct {
	// Polygon is the object silhouette in frame pixel coordinates.  It is
	// empty when the model produced a box but no segmentation mask.
	Polygon geometry.Polygon
	// ClassID is the line number in the labels file the Model was trained on
	ClassID int
	// TrackID is the persistent identity across frames or NoTrackID
	TrackID int
	// Probability is the model confidence score
	Probability float32
}

// HasTrack reports whether the detection carries a persistent identity
func (d Detection) HasTrack() bool {
	return d.TrackID >= 0
}

// Detector is the external model producing detections for a frame.  The
// returned order is the order detections are measured and rendered in.
type Detector interface {
	Detect(ctx context.Context, frame gocv.Mat) ([]Detection, error)
}

// DetectorFunc adapts a function to the Detector interface
type DetectorFunc func(ctx context.Context, frame gocv.Mat) ([]Detection, error)

// Detect calls f(ctx, frame)
func (f DetectorFunc) Detect(ctx context.Context, frame gocv.Mat) ([]Detection, error) {
	return f(ctx, frame)
}
