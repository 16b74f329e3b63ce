// Package calibration implements the two click interaction that derives the
// pixels per unit scale from a known real world distance
package calibration

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/swdee/go-objsize"
	"github.com/swdee/go-objsize/geometry"
)

// State of the click accumulator
type State int

const (
	// Idle means no points have been clicked
	Idle State = iota
	// OnePoint means the first point of a pair has been clicked
	OnePoint
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case OnePoint:
		return "one point"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Outcome of a click
type Outcome int

const (
	// Pending is returned for the first click of a pair
	Pending Outcome = iota
	// Calibrated means a new scale was derived and saved
	Calibrated
	// Measured means the scale was already set and the distance between the
	// two points was converted to units without changing it
	Measured
	// Cancelled means the user declined to enter a distance, or the entered
	// distance could not produce a valid scale
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Calibrated:
		return "calibrated"
	case Measured:
		return "measured"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Result describes what happened on a click
type Result struct {
	Outcome Outcome
	// Points holds the clicked points, one for Pending and two otherwise
	Points []geometry.Point
	// Pixels is the distance between the two points
	Pixels float64
	// Distance is the real world distance in Unit, either entered by the
	// user or converted with the existing scale
	Distance float64
	// Scale is the pixels per unit value in effect after the click
	Scale float64
	// Unit name of Distance
	Unit string
}

// Label returns the text drawn beside the calibration line
func (r Result) Label() string {
	switch r.Outcome {
	case Calibrated, Measured:
		return fmt.Sprintf("%.0fpx ≈ %d%s", r.Pixels, int(math.Round(r.Distance)), r.Unit)
	case Cancelled:
		return fmt.Sprintf("%.0fpx", r.Pixels)
	}
	return ""
}

// Prompter asks the user for the real world length of a pixel distance.  It
// blocks until the user answers.  ok is false when the user cancels.
type Prompter interface {
	Prompt(ctx context.Context, message string) (value float64, ok bool, err error)
}

// PrompterFunc adapts a function to the Prompter interface
type PrompterFunc func(ctx context.Context, message string) (float64, bool, error)

// Prompt calls f
func (f PrompterFunc) Prompt(ctx context.Context, message string) (float64, bool, error) {
	return f(ctx, message)
}

// Session is the click state machine.  Clicks may arrive from a UI callback
// goroutine, the accumulator is guarded so a click arriving while a pair is
// being processed always starts a new pair.
type Session struct {
	scale    *objsize.Scale
	prompter Prompter
	unit     string
	logger   *slog.Logger

	mu     sync.Mutex
	points []geometry.Point
}

// NewSession returns a Session in the Idle state that updates scale.  unit
// is the name of the real world unit the user is asked for, eg: "cm".
func NewSession(scale *objsize.Scale, prompter Prompter, unit string, logger *slog.Logger) *Session {
	if unit == "" {
		unit = "cm"
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		scale:    scale,
		prompter: prompter,
		unit:     unit,
		logger:   logger,
		points:   make([]geometry.Point, 0, 2),
	}
}

// State returns the current accumulator state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.points) == 0 {
		return Idle
	}
	return OnePoint
}

// Points returns a copy of the accumulated points
func (s *Session) Points() []geometry.Point {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]geometry.Point(nil), s.points...)
}

// Reset discards any accumulated point
func (s *Session) Reset() {
	s.mu.Lock()
	s.points = s.points[:0]
	s.mu.Unlock()
}

// Click records a point.  On the second point of a pair the pixel distance is
// either used to derive a new scale, prompting the user for the real world
// distance, or converted with the existing scale.  The session returns to
// Idle before the prompt is shown.  An error is only returned when the
// prompter or the scale store fails.
func (s *Session) Click(ctx context.Context, pt geometry.Point) (Result, error) {

	s.mu.Lock()
	s.points = append(s.points, pt)

	if len(s.points) < 2 {
		res := Result{
			Outcome: Pending,
			Points:  []geometry.Point{pt},
			Unit:    s.unit,
		}
		s.mu.Unlock()
		return res, nil
	}

	pair := []geometry.Point{s.points[0], s.points[1]}
	s.points = s.points[:0]
	s.mu.Unlock()

	res := Result{
		Points: pair,
		Pixels: geometry.Distance(pair[0], pair[1]),
		Unit:   s.unit,
	}

	if v, ok := s.scale.Value(); ok {
		// scale already known, report the distance only
		res.Outcome = Measured
		res.Scale = v
		res.Distance, _ = s.scale.Convert(res.Pixels)

		s.logger.Info("measured distance",
			"pixels", res.Pixels,
			"distance", res.Distance,
			"unit", s.unit,
		)

		return res, nil
	}

	if res.Pixels == 0 {
		s.logger.Warn("calibration points coincide, click two distinct points")
		res.Outcome = Cancelled
		return res, nil
	}

	msg := fmt.Sprintf("How many real-world %s is %.2f pixels?", s.unit, res.Pixels)

	actual, ok, err := s.prompter.Prompt(ctx, msg)

	if err != nil {
		return res, fmt.Errorf("error prompting for distance: %w", err)
	}

	if !ok || actual <= 0 || math.IsNaN(actual) || math.IsInf(actual, 0) {
		s.logger.Info("calibration cancelled", "pixels", res.Pixels)
		res.Outcome = Cancelled
		return res, nil
	}

	scale := res.Pixels / actual

	if err := s.scale.Save(scale); err != nil {
		return res, err
	}

	res.Outcome = Calibrated
	res.Distance = actual
	res.Scale = scale

	s.logger.Info("calibrated",
		"pixels", res.Pixels,
		"distance", actual,
		"unit", s.unit,
		"pixels_per_unit", scale,
	)

	return res, nil
}
