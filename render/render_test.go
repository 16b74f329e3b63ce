package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-objsize"
	"github.com/swdee/go-objsize/calibration"
	"github.com/swdee/go-objsize/clip"
	"github.com/swdee/go-objsize/geometry"
	"github.com/swdee/go-objsize/measure"
	"gocv.io/x/gocv"
)

var pt = geometry.Pt

func blankFrame() gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 200, 200, gocv.MatTypeCV8UC3)
}

func measureSquare(t *testing.T, trackID int) measure.Measurement {
	t.Helper()

	scale, err := objsize.NewFixedScale(10)
	require.NoError(t, err)

	comp := measure.NewComposer(clip.Exact{}, scale, measure.DefaultOptions())

	return comp.Measure(objsize.Detection{
		Polygon: geometry.Polygon{pt(10, 10), pt(110, 10), pt(110, 110), pt(10, 110)},
		TrackID: trackID,
	})
}

func TestMeasurements(t *testing.T) {

	img := blankFrame()
	defer img.Close()

	m := measureSquare(t, objsize.NoTrackID)
	require.True(t, m.Valid)

	err := Measurements(&img, []measure.Measurement{m}, DefaultStyle())
	require.NoError(t, err)

	// interior is half blended with the red fill, BGR order
	inside := img.GetVecbAt(90, 30)
	assert.InDelta(t, 0, inside[0], 1)
	assert.InDelta(t, 0, inside[1], 1)
	assert.InDelta(t, 127, inside[2], 1)

	// width axis drawn in green
	onAxis := img.GetVecbAt(60, 20)
	assert.Equal(t, uint8(255), onAxis[1])
	assert.Equal(t, uint8(0), onAxis[2])

	// outside the object untouched
	outside := img.GetVecbAt(170, 170)
	assert.Equal(t, gocv.Vecb{0, 0, 0}, outside)
}

func TestMeasurementsSkipsMissingPolygon(t *testing.T) {

	img := blankFrame()
	defer img.Close()

	ms := []measure.Measurement{
		{Detection: objsize.Detection{TrackID: 3}},
		{Detection: objsize.Detection{Polygon: geometry.Polygon{pt(0, 0), pt(5, 5)}}},
	}

	require.NoError(t, Measurements(&img, ms, DefaultStyle()))
	require.NoError(t, Measurements(&img, nil, DefaultStyle()))

	assert.Equal(t, 0, gocv.CountNonZero(img.Reshape(1, 0)))
}

func TestTrail(t *testing.T) {

	trail := NewTrail(3, 2)

	for i := 0; i < 5; i++ {
		m := measureSquare(t, 4)
		m.Centroid = pt(float64(10*i), 20)

		untracked := measureSquare(t, objsize.NoTrackID)

		trail.Add([]measure.Measurement{m, untracked})
	}

	points := trail.Points(4)
	require.Len(t, points, 3)
	assert.Equal(t, 20, points[0].X)
	assert.Equal(t, 40, points[2].X)
	assert.Empty(t, trail.Points(objsize.NoTrackID))

	img := blankFrame()
	defer img.Close()

	DrawTrail(&img, []measure.Measurement{measureSquare(t, 4)}, trail, DefaultTrailStyle())
	assert.NotZero(t, img.GetVecbAt(20, 30)[1])

	// track 4 missing for up to two frames keeps its history
	trail.Add([]measure.Measurement{measureSquare(t, 9)})
	trail.Add([]measure.Measurement{measureSquare(t, 9)})
	assert.Len(t, trail.Points(4), 3)
	assert.Len(t, trail.Points(9), 2)

	// reappearing continues the same trail
	m := measureSquare(t, 4)
	m.Centroid = pt(50, 20)
	trail.Add([]measure.Measurement{m})

	points = trail.Points(4)
	require.Len(t, points, 3)
	assert.Equal(t, 50, points[2].X)

	// track 4 leaving the scene for longer drops its history
	for i := 0; i < 3; i++ {
		trail.Add([]measure.Measurement{measureSquare(t, 9)})
	}
	assert.Empty(t, trail.Points(4))
	assert.Len(t, trail.Points(9), 3)

	trail.Reset()
	assert.Empty(t, trail.Points(9))
}

func TestCalibrationOverlay(t *testing.T) {

	img := blankFrame()
	defer img.Close()

	last := &calibration.Result{
		Outcome: calibration.Measured,
		Points:  []geometry.Point{pt(20, 150), pt(180, 150)},
		Pixels:  160,
		Unit:    "cm",
	}

	err := Calibration(&img, []geometry.Point{pt(100, 40)}, last, DefaultCalibrationStyle())
	require.NoError(t, err)

	// pending click drawn as a red dot
	assert.Equal(t, gocv.Vecb{0, 0, 255}, img.GetVecbAt(40, 100))

	// line between the measured pair
	assert.Equal(t, uint8(255), img.GetVecbAt(150, 100)[1])
}

func TestTrackColor(t *testing.T) {
	assert.Equal(t, TrackColor(3), TrackColor(-3))
	assert.Equal(t, TrackColor(0), TrackColor(len(trackColors)))
}

func TestFontReplacesMissingGlyphs(t *testing.T) {
	f := DefaultFont()
	assert.Equal(t, f.TextSize("100px ~ 10cm"), f.TextSize("100px ≈ 10cm"))
}
