// Package config loads the measurement program settings from a TOML file
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config holds runtime configuration for capture, measurement, calibration
// and rendering.  Fields may be loaded from a TOML file and overridden by
// command-line flags.
type Config struct {
	Capture     Capture     `toml:"capture"`
	Measure     Measure     `toml:"measure"`
	Calibration Calibration `toml:"calibration"`
	Render      Render      `toml:"render"`
	Detect      Detect      `toml:"detect"`
	Track       Track       `toml:"track"`
	Log         Log         `toml:"log"`
}

// Capture configures the video source and working frame
type Capture struct {
	// Device is a camera index such as "0" or a video file path or URL
	Device string `toml:"device"`
	// Width and Height of the working frame, also the raster clipping domain
	Width  int `toml:"width"`
	Height int `toml:"height"`
	// FrameStride processes every n-th frame
	FrameStride int `toml:"frame_stride"`
	// Letterbox keeps the source aspect when resizing to the working frame
	Letterbox bool `toml:"letterbox"`
	// Flip is none, horizontal, vertical or both
	Flip string `toml:"flip"`
}

// Measure configures the measurement composer
type Measure struct {
	Unit string `toml:"unit"`
	// Clipper is raster or exact, empty selects raster
	Clipper string `toml:"clipper"`
	// Selection is scan or extremal, used by the raster clipper
	Selection string  `toml:"selection"`
	Inset     float64 `toml:"inset"`
	MinArea   float64 `toml:"min_area"`
}

// Calibration configures where the scale is persisted
type Calibration struct {
	// Store is file or sqlite
	Store string `toml:"store"`
	Path  string `toml:"path"`
	// Key is the row key used by the sqlite store
	Key string `toml:"key"`
}

// Render configures the overlay
type Render struct {
	Alpha         float64 `toml:"alpha"`
	LineThickness int     `toml:"line_thickness"`
	// Font is an optional TTF file used for labels instead of the built in
	// Hershey font
	Font     string  `toml:"font"`
	FontSize float64 `toml:"font_size"`
	// Trail is the number of centroids kept per tracked object, 0 disables
	Trail       int  `toml:"trail"`
	FillByTrack bool `toml:"fill_by_track"`
}

// Detect configures the detector
type Detect struct {
	// Source is replay or color
	Source string `toml:"source"`
	// Replay is the JSON lines file read by the replay detector
	Replay string `toml:"replay"`
	// Record is an optional JSON lines file detections are written to
	Record string `toml:"record"`
	// Labels is a file with one class name per line
	Labels string `toml:"labels"`
	// Lower and Upper are the HSV bounds of the color detector
	Lower   [3]float64 `toml:"lower"`
	Upper   [3]float64 `toml:"upper"`
	Class   int        `toml:"class"`
	MinArea float64    `toml:"min_area"`
	Epsilon float64    `toml:"epsilon"`
}

// Track configures the centroid tracker assigning identities to detections
// that do not carry one
type Track struct {
	Enabled bool `toml:"enabled"`
	// MaxDistance is the association gate in pixels
	MaxDistance float64 `toml:"max_distance"`
	// MaxAge is the number of frames an unmatched track is kept
	MaxAge int `toml:"max_age"`
}

// Log configures the logger
type Log struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"

	SourceReplay = "replay"
	SourceColor  = "color"
)

// DefaultConfig returns a Config populated with standard defaults
func DefaultConfig() *Config {
	return &Config{
		Capture: Capture{
			Device:      "0",
			Width:       1020,
			Height:      500,
			FrameStride: 3,
			Flip:        "none",
		},
		Measure: Measure{
			Unit:      "cm",
			Clipper:   "raster",
			Selection: "scan",
		},
		Calibration: Calibration{
			Store: StoreFile,
			Path:  "calibration.txt",
			Key:   "pixels_per_cm",
		},
		Render: Render{
			Alpha:         0.5,
			LineThickness: 2,
			FontSize:      18,
		},
		Detect: Detect{
			Source:  SourceColor,
			Lower:   [3]float64{0, 120, 70},
			Upper:   [3]float64{10, 255, 255},
			MinArea: 500,
			Epsilon: 3,
		},
		Track: Track{
			Enabled:     true,
			MaxDistance: 80,
			MaxAge:      30,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Validate clamps numeric values to safe ranges and rejects unknown names
func (c *Config) Validate() error {
	def := DefaultConfig()

	if c.Capture.Width < 0 || c.Capture.Height < 0 {
		c.Capture.Width, c.Capture.Height = def.Capture.Width, def.Capture.Height
	}
	if c.Capture.FrameStride <= 0 {
		c.Capture.FrameStride = 1
	}
	if c.Render.Alpha < 0 || c.Render.Alpha > 1 {
		c.Render.Alpha = def.Render.Alpha
	}
	if c.Render.LineThickness <= 0 {
		c.Render.LineThickness = def.Render.LineThickness
	}
	if c.Render.Trail < 0 {
		c.Render.Trail = 0
	}
	if c.Measure.Unit == "" {
		c.Measure.Unit = def.Measure.Unit
	}
	if c.Measure.MinArea < 0 {
		c.Measure.MinArea = 0
	}
	if c.Track.MaxDistance <= 0 {
		c.Track.MaxDistance = def.Track.MaxDistance
	}
	if c.Track.MaxAge <= 0 {
		c.Track.MaxAge = def.Track.MaxAge
	}
	if c.Calibration.Path == "" {
		c.Calibration.Path = def.Calibration.Path
	}
	if c.Calibration.Key == "" {
		c.Calibration.Key = def.Calibration.Key
	}

	var errs []error

	check := func(field, value string, allowed ...string) {
		for _, a := range allowed {
			if strings.EqualFold(value, a) {
				return
			}
		}
		errs = append(errs, fmt.Errorf("%s %q must be one of %s", field, value, strings.Join(allowed, ", ")))
	}

	check("capture.flip", c.Capture.Flip, "", "none", "horizontal", "vertical", "both")
	check("measure.clipper", c.Measure.Clipper, "", "raster", "exact")
	check("measure.selection", c.Measure.Selection, "", "scan", "extremal")
	check("calibration.store", c.Calibration.Store, StoreFile, StoreSQLite)
	check("detect.source", c.Detect.Source, SourceReplay, SourceColor)
	check("log.level", c.Log.Level, "", "debug", "info", "warn", "error")

	if strings.EqualFold(c.Detect.Source, SourceReplay) && c.Detect.Replay == "" {
		errs = append(errs, errors.New("detect.replay file is required for the replay source"))
	}

	return errors.Join(errs...)
}

// Load attempts to read configuration from the given TOML file path.  If the
// file does not exist it returns DefaultConfig().  On a decode or validation
// error it returns the config along with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)

	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("error decoding %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Save writes the configuration to the given path in TOML format
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)

	if err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}
