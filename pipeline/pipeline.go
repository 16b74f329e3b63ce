// Package pipeline runs the live measurement loop: read a frame, detect
// objects, measure them, draw the overlay and show the result
package pipeline

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"time"

	"github.com/swdee/go-objsize"
	"github.com/swdee/go-objsize/measure"
	"github.com/swdee/go-objsize/render"
	"gocv.io/x/gocv"
)

// ErrSourceExhausted is returned by Run when the source can not provide any
// more frames, such as at the end of a video file or on device failure
var ErrSourceExhausted = errors.New("frame source exhausted")

const (
	keyEsc = 27
	keyQ   = 'q'
)

// Options defines the optional Pipeline parameters
type Options struct {
	// Width and Height of the working resolution frames are resized to, zero
	// keeps the source resolution
	Width  int
	Height int
	// FrameStride processes every n-th frame, values below 1 process all
	FrameStride int
	// Letterbox keeps the source aspect when resizing, padding with black
	Letterbox bool
	Flip      Flip
	Style     render.Style
	// Trail enables drawing centroid history of tracked objects
	Trail      *render.Trail
	TrailStyle render.TrailStyle
	// WaitDelay is the milliseconds to wait for a key after showing a frame
	WaitDelay int
	// OnFrame is called with the measurements of each processed frame
	OnFrame func(frameNum int, ms []measure.Measurement)
	Logger  *slog.Logger
}

// DefaultOptions returns the options for a 1020x500 working frame processing
// every third frame
func DefaultOptions() Options {
	return Options{
		Width:       1020,
		Height:      500,
		FrameStride: 3,
		Style:       render.DefaultStyle(),
		TrailStyle:  render.DefaultTrailStyle(),
		WaitDelay:   1,
	}
}

// Timing records when each stage of processing a frame occurred
type Timing struct {
	ProcessStart time.Time
	DetectStart  time.Time
	DetectEnd    time.Time
	MeasureEnd   time.Time
	ProcessEnd   time.Time
}

// Pipeline is the live measurement loop
type Pipeline struct {
	source   Source
	detector objsize.Detector
	composer *measure.Composer
	display  Display
	opts     Options
	logger   *slog.Logger
}

// New returns a Pipeline.  display may be nil to run without showing frames.
func New(source Source, detector objsize.Detector, composer *measure.Composer,
	display Display, opts Options) *Pipeline {

	if opts.FrameStride < 1 {
		opts.FrameStride = 1
	}

	if opts.WaitDelay < 1 {
		opts.WaitDelay = 1
	}

	logger := opts.Logger

	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		source:   source,
		detector: detector,
		composer: composer,
		display:  display,
		opts:     opts,
		logger:   logger,
	}
}

// Run processes frames until the user presses q or Esc, the context is
// cancelled, or the source is exhausted.  It returns nil on a quit key, the
// context error on cancellation and ErrSourceExhausted at the end of the
// source.  The source is closed on every return path.
func (p *Pipeline) Run(ctx context.Context) error {

	defer func() {
		if err := p.source.Close(); err != nil {
			p.logger.Warn("error closing video source", "error", err)
		}
	}()

	frame := gocv.NewMat()
	defer frame.Close()

	out := gocv.NewMat()
	defer out.Close()

	count := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if ok := p.source.Read(&frame); !ok || frame.Empty() {
			p.logger.Info("video source exhausted", "frames", count)
			return ErrSourceExhausted
		}

		count++

		if count%p.opts.FrameStride != 0 {
			continue
		}

		ms := p.ProcessFrame(ctx, frame, &out, count)

		if p.opts.OnFrame != nil {
			p.opts.OnFrame(count, ms)
		}

		if p.display == nil {
			continue
		}

		p.display.Show(out)

		if key := p.display.WaitKey(p.opts.WaitDelay); key == keyQ || key == keyEsc {
			p.logger.Info("quit requested", "frames", count)
			return nil
		}
	}
}

// ProcessFrame resizes and flips frame into out, then detects, measures and
// draws the measurements on out.  A detector error is logged and out is left
// as the plain resized frame.
func (p *Pipeline) ProcessFrame(ctx context.Context, frame gocv.Mat, out *gocv.Mat,
	frameNum int) []measure.Measurement {

	timing := Timing{ProcessStart: time.Now()}

	Prepare(frame, out, p.opts.Width, p.opts.Height, p.opts.Letterbox, p.opts.Flip)

	timing.DetectStart = time.Now()

	dets, err := p.detector.Detect(ctx, *out)

	timing.DetectEnd = time.Now()

	if err != nil {
		p.logger.Error("error detecting objects", "frame", frameNum, "error", err)
		return nil
	}

	ms := p.composer.MeasureAll(dets)

	timing.MeasureEnd = time.Now()

	if p.opts.Trail != nil {
		p.opts.Trail.Add(ms)
		render.DrawTrail(out, ms, p.opts.Trail, p.opts.TrailStyle)
	}

	if err := render.Measurements(out, ms, p.opts.Style); err != nil {
		p.logger.Warn("error rendering measurements", "frame", frameNum, "error", err)
	}

	timing.ProcessEnd = time.Now()

	p.logger.Debug("processed frame",
		"frame", frameNum,
		"objects", len(ms),
		"detect", timing.DetectEnd.Sub(timing.DetectStart),
		"measure", timing.MeasureEnd.Sub(timing.DetectEnd),
		"render", timing.ProcessEnd.Sub(timing.MeasureEnd),
		"total", timing.ProcessEnd.Sub(timing.ProcessStart),
	)

	return ms
}

// Prepare resizes frame into out at the working resolution and applies the
// flip.  A zero width or height keeps the source resolution.
func Prepare(frame gocv.Mat, out *gocv.Mat, width, height int, letterbox bool, flip Flip) {

	switch {
	case width <= 0 || height <= 0:
		frame.CopyTo(out)
	case letterbox:
		Letterbox(frame, out, width, height, render.Black)
	default:
		gocv.Resize(frame, out, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
	}

	if flip != FlipNone {
		gocv.Flip(*out, out, flip.code())
	}
}
