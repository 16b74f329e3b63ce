// Package track assigns persistent identities to detections from detectors
// that do not track objects themselves, such as the color detector.  Objects
// are followed by their polygon centroid with a constant velocity Kalman
// filter and associated to new detections by nearest predicted position.
package track

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/swdee/go-objsize"
	"github.com/swdee/go-objsize/geometry"
	"gocv.io/x/gocv"
)

// Options defines the Tracker parameters
type Options struct {
	// MaxDistance is the largest distance in pixels between a predicted
	// centroid and a detection for them to be associated
	MaxDistance float64
	// MaxAge is the number of consecutive frames a track may go unmatched
	// before it is removed
	MaxAge int
	// PositionNoise and VelocityNoise are the process noise standard
	// deviations in pixels and pixels per frame
	PositionNoise float64
	VelocityNoise float64
	// MeasurementNoise is the centroid measurement standard deviation in pixels
	MeasurementNoise float64
	Logger           *slog.Logger
}

// DefaultOptions returns options suited to a 1020x500 working frame
func DefaultOptions() Options {
	return Options{
		MaxDistance:      80,
		MaxAge:           30,
		PositionNoise:    2,
		VelocityNoise:    1,
		MeasurementNoise: 4,
	}
}

// object is a single followed object
type object struct {
	id      int
	classID int
	filter  *kalman
	// lost counts the consecutive frames without a matched detection
	lost int
	hits int
}

// Tracker assigns track IDs to detections across frames.  It is safe for
// concurrent use.
type Tracker struct {
	sync.Mutex
	opts    Options
	logger  *slog.Logger
	objects []*object
	nextID  int
	frame   int
}

// New returns a Tracker.  Zero valued options are replaced by their defaults.
func New(opts Options) *Tracker {

	def := DefaultOptions()

	if opts.MaxDistance <= 0 {
		opts.MaxDistance = def.MaxDistance
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = def.MaxAge
	}
	if opts.PositionNoise <= 0 {
		opts.PositionNoise = def.PositionNoise
	}
	if opts.VelocityNoise <= 0 {
		opts.VelocityNoise = def.VelocityNoise
	}
	if opts.MeasurementNoise <= 0 {
		opts.MeasurementNoise = def.MeasurementNoise
	}

	logger := opts.Logger

	if logger == nil {
		logger = slog.Default()
	}

	return &Tracker{
		opts:   opts,
		logger: logger,
	}
}

// Reset removes all tracks and restarts ID assignment from zero
func (t *Tracker) Reset() {
	t.Lock()
	defer t.Unlock()

	t.objects = nil
	t.nextID = 0
	t.frame = 0
}

// Len returns the number of live tracks
func (t *Tracker) Len() int {
	t.Lock()
	defer t.Unlock()

	return len(t.objects)
}

// candidate is a possible association of a track and a detection
type candidate struct {
	obj  int
	det  int
	dist float64
}

// Update advances all tracks one frame and returns a copy of dets with a
// TrackID assigned.  Detections that already carry a TrackID are returned
// unchanged and are not followed.  A detection without a usable centroid keeps
// NoTrackID.
func (t *Tracker) Update(dets []objsize.Detection) []objsize.Detection {
	t.Lock()
	defer t.Unlock()

	t.frame++

	out := make([]objsize.Detection, len(dets))
	copy(out, dets)

	centroids := make(map[int]geometry.Point)

	for i, det := range out {
		if det.HasTrack() {
			continue
		}

		out[i].TrackID = objsize.NoTrackID

		if c, ok := det.Polygon.Centroid(); ok {
			centroids[i] = c
		}
	}

	for _, obj := range t.objects {
		obj.filter.predict()
	}

	// collect every association within the gate, nearest first
	var candidates []candidate

	for oi, obj := range t.objects {
		pos := obj.filter.position()

		for di, c := range centroids {
			if out[di].ClassID != obj.classID {
				continue
			}

			if d := geometry.Distance(pos, c); d <= t.opts.MaxDistance {
				candidates = append(candidates, candidate{obj: oi, det: di, dist: d})
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		// prefer the older track on a tie
		return t.objects[candidates[i].obj].id < t.objects[candidates[j].obj].id
	})

	matchedObj := make(map[int]bool)
	matchedDet := make(map[int]bool)

	for _, cand := range candidates {
		if matchedObj[cand.obj] || matchedDet[cand.det] {
			continue
		}

		obj := t.objects[cand.obj]

		if err := obj.filter.update(centroids[cand.det]); err != nil {
			t.logger.Warn("error updating track, restarting filter",
				"track", obj.id, "error", err)
			obj.filter = newKalman(centroids[cand.det], t.opts)
		}

		obj.lost = 0
		obj.hits++

		out[cand.det].TrackID = obj.id
		matchedObj[cand.obj] = true
		matchedDet[cand.det] = true
	}

	// age tracks that were not seen this frame
	live := t.objects[:0]

	for oi, obj := range t.objects {
		if !matchedObj[oi] {
			obj.lost++
		}

		if obj.lost > t.opts.MaxAge {
			t.logger.Debug("track removed", "track", obj.id, "hits", obj.hits, "frame", t.frame)
			continue
		}

		live = append(live, obj)
	}

	t.objects = live

	// start new tracks in detection order so IDs are deterministic
	for di := range out {
		c, ok := centroids[di]

		if !ok || matchedDet[di] {
			continue
		}

		obj := &object{
			id:      t.nextID,
			classID: out[di].ClassID,
			filter:  newKalman(c, t.opts),
			hits:    1,
		}

		t.nextID++
		t.objects = append(t.objects, obj)
		out[di].TrackID = obj.id

		t.logger.Debug("track started", "track", obj.id, "class", obj.classID, "frame", t.frame)
	}

	return out
}

// Wrap returns a Detector that passes the results of det through Update
func (t *Tracker) Wrap(det objsize.Detector) objsize.Detector {
	return objsize.DetectorFunc(func(ctx context.Context, frame gocv.Mat) ([]objsize.Detection, error) {

		dets, err := det.Detect(ctx, frame)

		if err != nil {
			return nil, err
		}

		return t.Update(dets), nil
	})
}
