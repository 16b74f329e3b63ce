package objsize

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
)

var (
	// ErrNoScale is returned by a ScaleStore when no calibration has been
	// persisted yet.  This is the normal state on first run.
	ErrNoScale = errors.New("no calibration stored")
	// ErrUncalibrated is returned when converting pixels before a scale has
	// been loaded or saved
	ErrUncalibrated = errors.New("scale is not calibrated")
	// ErrInvalidScale is returned when saving a scale that is not a positive
	// finite number
	ErrInvalidScale = errors.New("scale must be a positive finite number")
)

// ScaleStore persists the single pixels per unit calibration value
type ScaleStore interface {
	// ReadScale returns the stored value or ErrNoScale if none exists
	ReadScale() (float64, error)
	// WriteScale durably stores the value, replacing any previous one
	WriteScale(v float64) error
}

// Scale holds the pixels per physical unit calibration constant shared by
// the live measurement pipeline and the calibration session.  It is not safe
// for concurrent use, running more than one calibration session against the
// same Scale has undefined results.
type Scale struct {
	store  ScaleStore
	value  float64
	set    bool
	logger *slog.Logger
}

// NewScale returns an unset Scale backed by the given store.  Call Load to
// read any previously saved calibration.
func NewScale(store ScaleStore, logger *slog.Logger) *Scale {
	if logger == nil {
		logger = slog.Default()
	}

	return &Scale{
		store:  store,
		logger: logger,
	}
}

// NewFixedScale returns a Scale set to v that is not backed by a store.
// Save on a fixed scale only updates the in memory value.
func NewFixedScale(v float64) (*Scale, error) {
	if !validScale(v) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScale, v)
	}

	return &Scale{value: v, set: true, logger: slog.Default()}, nil
}

// Load reads the persisted calibration.  A missing calibration is not an
// error, ok is false and the Scale stays unset.
func (s *Scale) Load() (v float64, ok bool, err error) {
	if s.store == nil {
		return s.value, s.set, nil
	}

	v, err = s.store.ReadScale()

	if errors.Is(err, ErrNoScale) {
		s.logger.Info("no saved calibration found, click two points to calibrate")
		return 0, false, nil
	}

	if err != nil {
		return 0, false, fmt.Errorf("error reading calibration: %w", err)
	}

	if !validScale(v) {
		return 0, false, fmt.Errorf("stored calibration %v: %w", v, ErrInvalidScale)
	}

	s.value = v
	s.set = true

	s.logger.Info("loaded calibration", "pixels_per_unit", v)

	return v, true, nil
}

// Save persists v as the new calibration, overwriting any prior value
func (s *Scale) Save(v float64) error {
	if !validScale(v) {
		return fmt.Errorf("%w: %v", ErrInvalidScale, v)
	}

	if s.store != nil {
		if err := s.store.WriteScale(v); err != nil {
			return fmt.Errorf("error saving calibration: %w", err)
		}
	}

	s.value = v
	s.set = true

	s.logger.Info("saved calibration", "pixels_per_unit", v)

	return nil
}

// Value returns the current calibration and whether one is set
func (s *Scale) Value() (float64, bool) {
	return s.value, s.set
}

// Calibrated reports whether a calibration value is set
func (s *Scale) Calibrated() bool {
	return s.set
}

// Convert returns pixels expressed in physical units
func (s *Scale) Convert(pixels float64) (float64, error) {
	if !s.set {
		return 0, ErrUncalibrated
	}

	return pixels / s.value, nil
}

func validScale(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
