package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {

	cfg, err := Load(filepath.Join(t.TempDir(), "objsize.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {

	path := filepath.Join(t.TempDir(), "objsize.toml")

	data := `
[capture]
device = "belt.mp4"
frame_stride = 1
flip = "both"

[measure]
unit = "mm"
clipper = "exact"
inset = 2.5

[calibration]
store = "sqlite"
path = "scale.db"

[render]
alpha = 3.0
trail = 20

[track]
enabled = false
max_age = -4
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "belt.mp4", cfg.Capture.Device)
	assert.Equal(t, 1, cfg.Capture.FrameStride)
	assert.Equal(t, "both", cfg.Capture.Flip)
	// unset values keep their defaults
	assert.Equal(t, 1020, cfg.Capture.Width)
	assert.Equal(t, 500, cfg.Capture.Height)

	assert.Equal(t, "mm", cfg.Measure.Unit)
	assert.Equal(t, "exact", cfg.Measure.Clipper)
	assert.Equal(t, 2.5, cfg.Measure.Inset)

	assert.Equal(t, StoreSQLite, cfg.Calibration.Store)
	assert.Equal(t, "scale.db", cfg.Calibration.Path)
	assert.Equal(t, "pixels_per_cm", cfg.Calibration.Key)

	// out of range alpha is clamped back to the default
	assert.Equal(t, 0.5, cfg.Render.Alpha)
	assert.Equal(t, 20, cfg.Render.Trail)

	assert.False(t, cfg.Track.Enabled)
	assert.Equal(t, 80.0, cfg.Track.MaxDistance)
	assert.Equal(t, 30, cfg.Track.MaxAge)
}

func TestLoadInvalid(t *testing.T) {

	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[capture\nwidth = "), 0o644))

	cfg, err := Load(bad)
	assert.Error(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	unknown := filepath.Join(dir, "unknown.toml")
	require.NoError(t, os.WriteFile(unknown, []byte("[measure]\nclipper = \"sutherland\"\n[detect]\nsource = \"replay\"\n"), 0o644))

	_, err = Load(unknown)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "measure.clipper")
	assert.Contains(t, err.Error(), "detect.replay")
}

func TestValidateEmptyNames(t *testing.T) {

	// empty names select the default of each setting
	cfg := DefaultConfig()
	cfg.Measure.Clipper = ""
	cfg.Measure.Selection = ""
	cfg.Capture.Flip = ""
	cfg.Log.Level = ""

	assert.NoError(t, cfg.Validate())

	cfg.Calibration.Store = ""
	assert.ErrorContains(t, cfg.Validate(), "calibration.store")
}

func TestSaveRoundTrip(t *testing.T) {

	path := filepath.Join(t.TempDir(), "objsize.toml")

	cfg := DefaultConfig()
	cfg.Measure.Selection = "extremal"
	cfg.Render.Font = "DejaVuSans.ttf"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
