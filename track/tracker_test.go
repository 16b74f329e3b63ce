package track

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-objsize"
	"github.com/swdee/go-objsize/geometry"
	"gocv.io/x/gocv"
)

// square returns an untracked detection of a 20x20 square centered on (cx, cy)
func square(cx, cy float64, classID int) objsize.Detection {
	return objsize.Detection{
		Polygon: geometry.Polygon{
			geometry.Pt(cx-10, cy-10),
			geometry.Pt(cx+10, cy-10),
			geometry.Pt(cx+10, cy+10),
			geometry.Pt(cx-10, cy+10),
		},
		ClassID:     classID,
		TrackID:     objsize.NoTrackID,
		Probability: 0.9,
	}
}

// pointNear compares points within epsilon pixels
func pointNear(a, b geometry.Point, epsilon float64) bool {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx <= epsilon && dx >= -epsilon && dy <= epsilon && dy >= -epsilon
}

// TestKalmanFollowsConstantVelocity feeds centroids moving 10 pixels per
// frame and expects the filter to predict the next position and velocity
func TestKalmanFollowsConstantVelocity(t *testing.T) {

	kf := newKalman(geometry.Pt(0, 100), DefaultOptions())

	for x := 10.0; x <= 100; x += 10 {
		kf.predict()

		if err := kf.update(geometry.Pt(x, 100)); err != nil {
			t.Fatalf("update at x=%f failed: %v", x, err)
		}
	}

	kf.predict()

	if pos := kf.position(); !pointNear(pos, geometry.Pt(110, 100), 3) {
		t.Errorf("Predicted position incorrect, expected (110, 100), got (%f, %f)", pos.X, pos.Y)
	}

	if vel := kf.velocity(); !pointNear(vel, geometry.Pt(10, 0), 1) {
		t.Errorf("Velocity incorrect, expected (10, 0), got (%f, %f)", vel.X, vel.Y)
	}
}

func TestMovingObjectKeepsID(t *testing.T) {

	tr := New(DefaultOptions())

	for i := 0; i < 15; i++ {
		out := tr.Update([]objsize.Detection{
			square(100+float64(i)*12, 200, 0),
			square(600-float64(i)*8, 300, 0),
		})

		require.Len(t, out, 2)
		assert.Equal(t, 0, out[0].TrackID, "frame %d", i)
		assert.Equal(t, 1, out[1].TrackID, "frame %d", i)
	}

	assert.Equal(t, 2, tr.Len())
}

func TestNearestAssociation(t *testing.T) {

	tr := New(DefaultOptions())
	tr.Update([]objsize.Detection{square(100, 100, 0), square(200, 100, 0)})

	// detections arrive in swapped order
	out := tr.Update([]objsize.Detection{square(203, 100, 0), square(102, 100, 0)})

	assert.Equal(t, 1, out[0].TrackID)
	assert.Equal(t, 0, out[1].TrackID)
}

func TestClassMismatchStartsNewTrack(t *testing.T) {

	tr := New(DefaultOptions())
	tr.Update([]objsize.Detection{square(100, 100, 0)})

	out := tr.Update([]objsize.Detection{square(100, 100, 1)})
	assert.Equal(t, 1, out[0].TrackID)
}

func TestGateStartsNewTrack(t *testing.T) {

	opts := DefaultOptions()
	opts.MaxDistance = 50
	tr := New(opts)

	tr.Update([]objsize.Detection{square(100, 100, 0)})

	out := tr.Update([]objsize.Detection{square(400, 100, 0)})
	assert.Equal(t, 1, out[0].TrackID)
}

func TestLostTrackExpires(t *testing.T) {

	opts := DefaultOptions()
	opts.MaxAge = 3
	tr := New(opts)

	tr.Update([]objsize.Detection{square(100, 100, 0)})

	// within MaxAge the object is picked up again
	for i := 0; i < 3; i++ {
		tr.Update(nil)
	}

	out := tr.Update([]objsize.Detection{square(100, 100, 0)})
	assert.Equal(t, 0, out[0].TrackID)

	for i := 0; i < 4; i++ {
		tr.Update(nil)
	}

	assert.Equal(t, 0, tr.Len())

	out = tr.Update([]objsize.Detection{square(100, 100, 0)})
	assert.Equal(t, 1, out[0].TrackID)
}

func TestExistingTrackIDPassesThrough(t *testing.T) {

	tr := New(DefaultOptions())

	tracked := square(100, 100, 0)
	tracked.TrackID = 42

	in := []objsize.Detection{tracked, {ClassID: 0, TrackID: 7}, {ClassID: 0, TrackID: objsize.NoTrackID}}
	out := tr.Update(in)

	assert.Equal(t, 42, out[0].TrackID)
	assert.Equal(t, 7, out[1].TrackID)
	// no polygon so no centroid to follow
	assert.Equal(t, objsize.NoTrackID, out[2].TrackID)
	assert.Equal(t, 0, tr.Len())

	// input slice is not modified
	assert.Equal(t, objsize.NoTrackID, in[2].TrackID)
}

func TestReset(t *testing.T) {

	tr := New(DefaultOptions())
	tr.Update([]objsize.Detection{square(100, 100, 0), square(300, 100, 0)})
	require.Equal(t, 2, tr.Len())

	tr.Reset()
	assert.Equal(t, 0, tr.Len())

	out := tr.Update([]objsize.Detection{square(300, 100, 0)})
	assert.Equal(t, 0, out[0].TrackID)
}

func TestWrap(t *testing.T) {

	calls := 0
	det := objsize.DetectorFunc(func(ctx context.Context, frame gocv.Mat) ([]objsize.Detection, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("model failure")
		}
		return []objsize.Detection{square(100, 100, 0)}, nil
	})

	tr := New(DefaultOptions())
	wrapped := tr.Wrap(det)

	frame := gocv.NewMat()
	defer frame.Close()

	out, err := wrapped.Detect(context.Background(), frame)
	require.NoError(t, err)
	assert.Equal(t, 0, out[0].TrackID)

	_, err = wrapped.Detect(context.Background(), frame)
	assert.Error(t, err)

	out, err = wrapped.Detect(context.Background(), frame)
	require.NoError(t, err)
	assert.Equal(t, 0, out[0].TrackID)
}
