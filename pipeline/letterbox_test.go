package pipeline

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"
)

func TestFitLetterbox(t *testing.T) {

	tests := []struct {
		src           image.Point
		width         int
		height        int
		expectedScale float64
		expectedSize  image.Point
		expectedPad   image.Point
	}{
		{image.Pt(1280, 720), 640, 640, 0.5, image.Pt(640, 360), image.Pt(0, 140)},
		{image.Pt(800, 1000), 640, 640, 0.64, image.Pt(512, 640), image.Pt(64, 0)},
		{image.Pt(800, 800), 640, 640, 0.8, image.Pt(640, 640), image.Pt(0, 0)},
		{image.Pt(1920, 1080), 1020, 500, 500.0 / 1080, image.Pt(888, 500), image.Pt(66, 0)},
	}

	for _, tc := range tests {
		fit := FitLetterbox(tc.src, tc.width, tc.height)

		if fit.Pad != tc.expectedPad || fit.Size != tc.expectedSize {
			t.Errorf("Test failed for src %v: expected size=%v pad=%v, got size=%v pad=%v",
				tc.src, tc.expectedSize, tc.expectedPad, fit.Size, fit.Pad)
		}

		if diff := fit.Scale - tc.expectedScale; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("Test failed for src %v: scale factor incorrect, expected %f, got %f",
				tc.src, tc.expectedScale, fit.Scale)
		}
	}
}

func TestPrepareLetterbox(t *testing.T) {

	src := gocv.NewMatWithSize(720, 1280, gocv.MatTypeCV8UC3)
	defer src.Close()
	src.SetTo(gocv.NewScalar(255, 255, 255, 0))

	out := gocv.NewMat()
	defer out.Close()

	Prepare(src, &out, 640, 640, true, FlipNone)

	assert.Equal(t, 640, out.Cols())
	assert.Equal(t, 640, out.Rows())

	// padding is black, the scaled frame white
	assert.Equal(t, uint8(0), out.GetVecbAt(70, 320)[0])
	assert.Equal(t, uint8(255), out.GetVecbAt(320, 320)[0])
	assert.Equal(t, uint8(0), out.GetVecbAt(570, 320)[0])

	Prepare(src, &out, 640, 640, false, FlipNone)
	assert.Equal(t, uint8(255), out.GetVecbAt(70, 320)[0])

	Prepare(src, &out, 0, 0, true, FlipHorizontal)
	assert.Equal(t, 1280, out.Cols())
	assert.Equal(t, 720, out.Rows())
}
