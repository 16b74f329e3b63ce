package detect

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-objsize"
	"github.com/swdee/go-objsize/geometry"
	"gocv.io/x/gocv"
)

// labelledMask returns a width x height mask with each rectangle filled with
// its index + 1
func labelledMask(width, height int, rects ...image.Rectangle) []uint8 {
	mask := make([]uint8, width*height)

	for i, r := range rects {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				mask[y*width+x] = uint8(i + 1)
			}
		}
	}

	return mask
}

func TestPolygons(t *testing.T) {

	seg := Segmentation{
		Mask:   labelledMask(200, 100, image.Rect(10, 10, 60, 40), image.Rect(100, 50, 150, 90)),
		Width:  200,
		Height: 100,
		Objects: []Object{
			{ClassID: 2, TrackID: 11, Probability: 0.9},
			{ClassID: 5, TrackID: objsize.NoTrackID, Probability: 0.7},
			// no pixels in the mask
			{ClassID: 1, TrackID: 12},
		},
	}

	dets, err := Polygons(seg, 10, DefaultEpsilon)
	require.NoError(t, err)
	require.Len(t, dets, 3)

	assert.Equal(t, 2, dets[0].ClassID)
	assert.Equal(t, 11, dets[0].TrackID)
	assert.Equal(t, float32(0.9), dets[0].Probability)
	assert.Equal(t, image.Rect(10, 10, 60, 40), dets[0].Polygon.Bounds())
	assert.InDelta(t, 49*29, dets[0].Polygon.Area(), 1)

	assert.Equal(t, image.Rect(100, 50, 150, 90), dets[1].Polygon.Bounds())
	assert.False(t, dets[1].HasTrack())

	assert.Empty(t, dets[2].Polygon)

	// the small object is filtered as noise
	dets, err = Polygons(seg, 1500, DefaultEpsilon)
	require.NoError(t, err)
	assert.Empty(t, dets[0].Polygon)
	assert.NotEmpty(t, dets[1].Polygon)

	_, err = Polygons(Segmentation{Mask: make([]uint8, 10), Width: 5, Height: 5}, 0, 0)
	assert.Error(t, err)
}

var red = color.RGBA{R: 255, A: 255}

type segmenterFunc func(ctx context.Context, frame gocv.Mat) (Segmentation, error)

func (f segmenterFunc) Segment(ctx context.Context, frame gocv.Mat) (Segmentation, error) {
	return f(ctx, frame)
}

func TestMaskDetector(t *testing.T) {

	frame := gocv.NewMat()
	defer frame.Close()

	det := NewMaskDetector(segmenterFunc(func(context.Context, gocv.Mat) (Segmentation, error) {
		return Segmentation{
			Mask:    labelledMask(100, 100, image.Rect(20, 20, 80, 70)),
			Width:   100,
			Height:  100,
			Objects: []Object{{ClassID: 3, TrackID: 1}},
		}, nil
	}), 10, DefaultEpsilon)

	dets, err := det.Detect(context.Background(), frame)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Len(t, dets[0].Polygon, 4)

	boom := errors.New("model not loaded")
	det = NewMaskDetector(segmenterFunc(func(context.Context, gocv.Mat) (Segmentation, error) {
		return Segmentation{}, boom
	}), 10, DefaultEpsilon)

	_, err = det.Detect(context.Background(), frame)
	assert.ErrorIs(t, err, boom)
}

func TestColorDetector(t *testing.T) {

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 200, 300, gocv.MatTypeCV8UC3)
	defer frame.Close()

	// red rectangle and a red speck too small to measure
	gocv.Rectangle(&frame, image.Rect(50, 40, 150, 120), red, -1)
	gocv.Rectangle(&frame, image.Rect(250, 150, 253, 153), red, -1)

	det := NewColorDetector(HSV{0, 100, 100}, HSV{10, 255, 255}, 4, 100, DefaultEpsilon)

	dets, err := det.Detect(context.Background(), frame)
	require.NoError(t, err)
	require.Len(t, dets, 1)

	assert.Equal(t, 4, dets[0].ClassID)
	assert.Equal(t, objsize.NoTrackID, dets[0].TrackID)
	assert.InDelta(t, 100*80, dets[0].Polygon.Area(), 200)

	empty := gocv.NewMat()
	defer empty.Close()

	_, err = det.Detect(context.Background(), empty)
	assert.Error(t, err)
}

func TestReplayRecorder(t *testing.T) {

	var buf bytes.Buffer
	rec := NewRecorder(&buf)

	frames := [][]objsize.Detection{
		{
			{Polygon: geometry.Polygon{geometry.Pt(1, 2), geometry.Pt(3, 4), geometry.Pt(5, 0)}, ClassID: 1, TrackID: 7, Probability: 0.5},
			{ClassID: 2, TrackID: objsize.NoTrackID},
		},
		{},
	}

	src := 0
	tee := rec.Tee(objsize.DetectorFunc(func(context.Context, gocv.Mat) ([]objsize.Detection, error) {
		dets := frames[src]
		src++
		return dets, nil
	}))

	frame := gocv.NewMat()
	defer frame.Close()

	for range frames {
		_, err := tee.Detect(context.Background(), frame)
		require.NoError(t, err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"frame":1`)
	assert.Contains(t, lines[1], `"frame":2`)

	// blank lines between frames are skipped
	replay := NewReplay(strings.NewReader(lines[0] + "\n\n" + lines[1] + "\n"))
	defer replay.Close()

	got, err := replay.Detect(context.Background(), frame)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, frames[0][0].Polygon, got[0].Polygon)
	assert.Equal(t, 7, got[0].TrackID)
	assert.Equal(t, float32(0.5), got[0].Probability)
	assert.Empty(t, got[1].Polygon)
	assert.Equal(t, objsize.NoTrackID, got[1].TrackID)

	got, err = replay.Detect(context.Background(), frame)
	require.NoError(t, err)
	assert.Empty(t, got)

	// exhausted
	got, err = replay.Detect(context.Background(), frame)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReplayMissingTrack(t *testing.T) {

	frame := gocv.NewMat()
	defer frame.Close()

	data := `{"frame":1,"detections":[` +
		`{"class":0,"polygon":[[0,0],[10,0],[10,10]]},` +
		`{"class":0,"track":0,"polygon":[[0,0],[10,0],[10,10]]},` +
		`{"class":1,"track":-1,"polygon":[[0,0],[10,0],[10,10]]}]}` + "\n"

	replay := NewReplay(strings.NewReader(data))

	got, err := replay.Detect(context.Background(), frame)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, objsize.NoTrackID, got[0].TrackID)
	assert.False(t, got[0].HasTrack())
	assert.Equal(t, 0, got[1].TrackID)
	assert.True(t, got[1].HasTrack())
	assert.Equal(t, objsize.NoTrackID, got[2].TrackID)

	// untracked detections are written without a track field
	var buf bytes.Buffer
	require.NoError(t, NewRecorder(&buf).Write(1, got))
	assert.Equal(t, 1, strings.Count(buf.String(), `"track"`))
}

func TestReplayMalformed(t *testing.T) {

	frame := gocv.NewMat()
	defer frame.Close()

	replay := NewReplay(strings.NewReader("{\"frame\":1,\"detections\":[]}\nnot json\n"))

	_, err := replay.Detect(context.Background(), frame)
	require.NoError(t, err)

	_, err = replay.Detect(context.Background(), frame)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	_, err = OpenReplay("does-not-exist.jsonl")
	assert.Error(t, err)
}
