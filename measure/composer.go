// Package measure turns detection polygons into width and height
// measurements with axes clipped to the object silhouette
package measure

import (
	"fmt"
	"log/slog"

	"github.com/swdee/go-objsize"
	"github.com/swdee/go-objsize/clip"
	"github.com/swdee/go-objsize/geometry"
)

// Options defines the optional Composer parameters
type Options struct {
	// Unit is the physical unit name the Scale converts to, eg: "cm"
	Unit string
	// Inset shrinks each polygon by this many pixels before measuring to
	// compensate for segmentation masks bleeding past the object edge.  A
	// negative value grows the polygon.
	Inset float64
	// MinArea is the minimum polygon area in pixels for a detection to be
	// measured, smaller polygons are treated as noise
	MinArea float64
	// Labels maps class IDs to names
	Labels objsize.Labels
	// Logger receives per detection diagnostics
	Logger *slog.Logger
}

// DefaultOptions returns options measuring in centimeters with no inset
func DefaultOptions() Options {
	return Options{
		Unit: "cm",
	}
}

// Composer measures detections
type Composer struct {
	clipper clip.Clipper
	scale   *objsize.Scale
	opts    Options
	logger  *slog.Logger
}

// NewComposer returns a Composer clipping axes with c and converting lengths
// with scale.  A nil or uncalibrated scale reports lengths in pixels.
func NewComposer(c clip.Clipper, scale *objsize.Scale, opts Options) *Composer {
	if opts.Unit == "" {
		opts.Unit = "cm"
	}

	logger := opts.Logger

	if logger == nil {
		logger = slog.Default()
	}

	return &Composer{
		clipper: c,
		scale:   scale,
		opts:    opts,
		logger:  logger,
	}
}

// Measure computes the measurement for a single detection.  It never fails,
// a missing or degenerate polygon yields an invalid Measurement with zero
// lengths and no axes.
func (c *Composer) Measure(det objsize.Detection) Measurement {

	m := Measurement{
		Detection: det,
		ClassName: c.opts.Labels.Name(det.ClassID),
		Unit:      c.unit(),
	}

	poly := det.Polygon

	if c.opts.Inset != 0 {
		poly = geometry.Offset(poly, -c.opts.Inset)
	}

	if poly.Degenerate() || poly.Area() < c.opts.MinArea {
		return m
	}

	centroid, ok := poly.Centroid()

	if !ok {
		return m
	}

	ext := geometry.MinAreaRect(poly)

	m.Valid = true
	m.Centroid = centroid
	m.Extent = ext

	// lay the axes through the centroid rather than the rectangle center
	// so they follow the object's mass
	widthAxis := geometry.AxisSegment(centroid, ext.WidthAxis(), ext.Width)
	heightAxis := geometry.AxisSegment(centroid, ext.HeightAxis(), ext.Height)

	if seg, ok := c.clipper.Clip(widthAxis, poly); ok {
		m.WidthAxis = &seg
	}

	if seg, ok := c.clipper.Clip(heightAxis, poly); ok {
		m.HeightAxis = &seg
	}

	// lengths come from the full rectangle, not the clipped axes
	m.Width = c.convert(ext.Width)
	m.Height = c.convert(ext.Height)

	return m
}

// MeasureAll measures detections in the order given.  A failure measuring
// one detection is logged and yields an invalid Measurement so the rest of
// the frame is still measured.
func (c *Composer) MeasureAll(dets []objsize.Detection) []Measurement {

	results := make([]Measurement, 0, len(dets))

	for i, det := range dets {
		results = append(results, c.measureSafe(i, det))
	}

	return results
}

// measureSafe wraps Measure, recovering from panics raised by the clipping
// backend
func (c *Composer) measureSafe(idx int, det objsize.Detection) (m Measurement) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("measuring detection failed",
				"index", idx,
				"class", det.ClassID,
				"track", det.TrackID,
				"error", fmt.Sprint(r),
			)

			m = Measurement{
				Detection: det,
				ClassName: c.opts.Labels.Name(det.ClassID),
				Unit:      c.unit(),
			}
		}
	}()

	return c.Measure(det)
}

// unit returns the unit lengths are currently reported in
func (c *Composer) unit() string {
	if c.scale == nil || !c.scale.Calibrated() {
		return UnitPixels
	}

	return c.opts.Unit
}

// convert converts pixels to the reporting unit
func (c *Composer) convert(pixels float64) float64 {
	if c.scale == nil {
		return pixels
	}

	v, err := c.scale.Convert(pixels)

	if err != nil {
		return pixels
	}

	return v
}
