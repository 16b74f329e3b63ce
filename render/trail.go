package render

import (
	"image"
	"image/color"
	"sync"

	"github.com/swdee/go-objsize/geometry"
	"github.com/swdee/go-objsize/measure"
	"gocv.io/x/gocv"
)

// trailHistory is the centroid history of one track
type trailHistory struct {
	points []image.Point
	// lost counts the consecutive frames the track was not seen
	lost int
}

// Trail keeps the recent centroid history of each tracked object
type Trail struct {
	// size is the maximum number of most recent points to keep per track
	size int
	// maxAge is the number of consecutive frames a missing track keeps its
	// history
	maxAge int
	// history of centroids keyed by track id
	history map[int]*trailHistory
	sync.Mutex
}

// NewTrail returns a new trail history.  Size is the number of most recent
// centroids to keep and specifies the maximum length of the trail.  MaxAge is
// the number of frames a track may be missing, such as when briefly
// occluded, before its history is dropped.
func NewTrail(size, maxAge int) *Trail {

	if maxAge < 0 {
		maxAge = 0
	}

	return &Trail{
		size:    size,
		maxAge:  maxAge,
		history: make(map[int]*trailHistory),
	}
}

// Reset clears all history
func (t *Trail) Reset() {
	t.Lock()
	defer t.Unlock()

	t.history = make(map[int]*trailHistory)
}

// Add records the centroid of every valid tracked measurement.  Tracks not
// present in ms for more than maxAge consecutive frames are dropped so the
// history does not grow without bound as objects leave the scene.
func (t *Trail) Add(ms []measure.Measurement) {
	t.Lock()
	defer t.Unlock()

	if t.size <= 0 {
		return
	}

	seen := make(map[int]bool, len(ms))

	for _, m := range ms {
		if !m.Valid || !m.Detection.HasTrack() {
			continue
		}

		id := m.Detection.TrackID
		seen[id] = true

		h, ok := t.history[id]

		if !ok {
			h = &trailHistory{}
			t.history[id] = h
		}

		h.lost = 0
		h.points = append(h.points, geometry.ToImagePoint(m.Centroid))

		// check if history is exceeded and drop oldest point
		if len(h.points) > t.size {
			h.points = h.points[len(h.points)-t.size:]
		}
	}

	for id, h := range t.history {
		if seen[id] {
			continue
		}

		h.lost++

		if h.lost > t.maxAge {
			delete(t.history, id)
		}
	}
}

// Points returns a copy of the centroid history for a track id
func (t *Trail) Points(id int) []image.Point {
	t.Lock()
	defer t.Unlock()

	h, ok := t.history[id]

	if !ok {
		return nil
	}

	return append([]image.Point(nil), h.points...)
}

// TrailStyle defines the parameters used for rendering the trail style
type TrailStyle struct {
	// LineSame defines if the color of the trail line should be the track's
	// palette color.  If set to false then use the color specified at
	// LineColor
	LineSame      bool
	LineColor     color.RGBA
	LineThickness int
}

// DefaultTrailStyle returns default trail style settings
func DefaultTrailStyle() TrailStyle {
	return TrailStyle{
		LineSame:      false,
		LineColor:     Yellow,
		LineThickness: 1,
	}
}

// DrawTrail draws the centroid history of every tracked measurement
func DrawTrail(img *gocv.Mat, ms []measure.Measurement, trail *Trail, style TrailStyle) {

	for _, m := range ms {

		if !m.Detection.HasTrack() {
			continue
		}

		lineClr := style.LineColor

		if style.LineSame {
			lineClr = TrackColor(m.Detection.TrackID)
		}

		points := trail.Points(m.Detection.TrackID)

		for i := 1; i < len(points); i++ {
			gocv.Line(img, points[i-1], points[i], lineClr, style.LineThickness)
		}
	}
}
