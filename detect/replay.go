package detect

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/swdee/go-objsize"
	"github.com/swdee/go-objsize/geometry"
	"gocv.io/x/gocv"
)

// maxLineSize is the largest JSON line Replay accepts
const maxLineSize = 16 * 1024 * 1024

// record is the JSON form of one detection.  Track is omitted for
// detections without a persistent identity.
type record struct {
	Class   int          `json:"class"`
	Track   *int         `json:"track,omitempty"`
	Score   float32      `json:"score,omitempty"`
	Polygon [][2]float64 `json:"polygon"`
}

// frameRecord is one JSON line holding all detections of a frame
type frameRecord struct {
	Frame      int      `json:"frame"`
	Detections []record `json:"detections"`
}

// Replay returns recorded detections, one line of a JSON lines stream per
// Detect call, ignoring the frame content.  Once the stream is exhausted every
// call returns no detections.
type Replay struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
	mu      sync.Mutex
}

// OpenReplay opens a JSON lines file written by Recorder
func OpenReplay(path string) (*Replay, error) {

	f, err := os.Open(path)

	if err != nil {
		return nil, fmt.Errorf("error opening replay file: %w", err)
	}

	r := NewReplay(f)
	r.closer = f

	return r, nil
}

// NewReplay reads recorded detections from r
func NewReplay(r io.Reader) *Replay {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return &Replay{scanner: scanner}
}

// Detect returns the detections of the next recorded frame
func (r *Replay) Detect(_ context.Context, _ gocv.Mat) ([]objsize.Detection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.scanner.Scan() {
		r.line++

		data := r.scanner.Bytes()

		if len(data) == 0 {
			continue
		}

		var fr frameRecord

		if err := json.Unmarshal(data, &fr); err != nil {
			return nil, fmt.Errorf("replay line %d: %w", r.line, err)
		}

		dets := make([]objsize.Detection, len(fr.Detections))

		for i, rec := range fr.Detections {
			poly := make(geometry.Polygon, len(rec.Polygon))

			for j, p := range rec.Polygon {
				poly[j] = geometry.Pt(p[0], p[1])
			}

			trackID := objsize.NoTrackID

			if rec.Track != nil && *rec.Track >= 0 {
				trackID = *rec.Track
			}

			dets[i] = objsize.Detection{
				Polygon:     poly,
				ClassID:     rec.Class,
				TrackID:     trackID,
				Probability: rec.Score,
			}
		}

		return dets, nil
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading replay: %w", err)
	}

	return nil, nil
}

// Close closes the underlying file if the Replay was opened from a path
func (r *Replay) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Recorder writes the detections of each frame as a JSON line that Replay
// can read back
type Recorder struct {
	enc *json.Encoder
	mu  sync.Mutex
}

// NewRecorder returns a Recorder writing to w
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{enc: json.NewEncoder(w)}
}

// Write records the detections of frame
func (r *Recorder) Write(frame int, dets []objsize.Detection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fr := frameRecord{
		Frame:      frame,
		Detections: make([]record, len(dets)),
	}

	for i, det := range dets {
		rec := record{
			Class:   det.ClassID,
			Score:   det.Probability,
			Polygon: make([][2]float64, len(det.Polygon)),
		}

		if det.HasTrack() {
			id := det.TrackID
			rec.Track = &id
		}

		for j, p := range det.Polygon {
			rec.Polygon[j] = [2]float64{p.X, p.Y}
		}

		fr.Detections[i] = rec
	}

	if err := r.enc.Encode(fr); err != nil {
		return fmt.Errorf("error writing detections: %w", err)
	}

	return nil
}

// Tee returns a Detector that passes through the results of det, recording
// each successful frame
func (r *Recorder) Tee(det objsize.Detector) objsize.Detector {
	frame := 0

	return objsize.DetectorFunc(func(ctx context.Context, img gocv.Mat) ([]objsize.Detection, error) {
		dets, err := det.Detect(ctx, img)

		if err != nil {
			return nil, err
		}

		frame++

		return dets, r.Write(frame, dets)
	})
}
