// Package report accumulates measurements of tracked objects across frames
// and summarises them per track
package report

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/swdee/go-objsize/measure"
	"gonum.org/v1/gonum/stat"
)

// TrackStats summarises the measurements of one tracked object
type TrackStats struct {
	TrackID   int
	ClassName string
	Unit      string
	// Frames is the number of frames the object was measured in
	Frames       int
	WidthMean    float64
	WidthStdDev  float64
	HeightMean   float64
	HeightStdDev float64
}

type series struct {
	className string
	unit      string
	widths    []float64
	heights   []float64
}

// Collector gathers per track measurement series
type Collector struct {
	tracks map[int]*series
	mu     sync.Mutex
}

// NewCollector returns an empty Collector
func NewCollector() *Collector {
	return &Collector{
		tracks: make(map[int]*series),
	}
}

// Add records the valid, tracked measurements of a frame.  Objects without a
// track id can not be followed between frames and are ignored.
func (c *Collector) Add(ms []measure.Measurement) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range ms {
		if !m.Valid || !m.Detection.HasTrack() {
			continue
		}

		s, ok := c.tracks[m.Detection.TrackID]

		if !ok {
			s = &series{}
			c.tracks[m.Detection.TrackID] = s
		}

		s.className = m.ClassName
		s.unit = m.Unit
		s.widths = append(s.widths, m.Width)
		s.heights = append(s.heights, m.Height)
	}
}

// Stats returns the summary of every track ordered by track id
func (c *Collector) Stats() []TrackStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]TrackStats, 0, len(c.tracks))

	for id, s := range c.tracks {
		ts := TrackStats{
			TrackID:   id,
			ClassName: s.className,
			Unit:      s.unit,
			Frames:    len(s.widths),
		}

		ts.WidthMean, ts.WidthStdDev = meanStdDev(s.widths)
		ts.HeightMean, ts.HeightStdDev = meanStdDev(s.heights)

		out = append(out, ts)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].TrackID < out[j].TrackID
	})

	return out
}

// Log writes one line per track to logger
func (c *Collector) Log(logger *slog.Logger) {
	for _, ts := range c.Stats() {
		logger.Info("track summary",
			"track", ts.TrackID,
			"class", ts.ClassName,
			"frames", ts.Frames,
			"width", ts.WidthMean,
			"width_stddev", ts.WidthStdDev,
			"height", ts.HeightMean,
			"height_stddev", ts.HeightStdDev,
			"unit", ts.Unit,
		)
	}
}

// meanStdDev returns the mean and sample standard deviation, with a zero
// deviation for a single sample
func meanStdDev(x []float64) (mean, std float64) {
	if len(x) < 2 {
		return stat.Mean(x, nil), 0
	}
	return stat.MeanStdDev(x, nil)
}
