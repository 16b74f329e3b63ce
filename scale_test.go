package objsize

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in memory ScaleStore
type memStore struct {
	value  float64
	stored bool
	err    error
	writes int
}

func (m *memStore) ReadScale() (float64, error) {
	if m.err != nil {
		return 0, m.err
	}

	if !m.stored {
		return 0, ErrNoScale
	}

	return m.value, nil
}

func (m *memStore) WriteScale(v float64) error {
	if m.err != nil {
		return m.err
	}

	m.value = v
	m.stored = true
	m.writes++

	return nil
}

func TestScaleLoadMissing(t *testing.T) {

	s := NewScale(&memStore{}, nil)

	v, ok, err := s.Load()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, v)
	assert.False(t, s.Calibrated())

	_, err = s.Convert(100)
	assert.ErrorIs(t, err, ErrUncalibrated)
}

func TestScaleRoundTrip(t *testing.T) {

	store := &memStore{}
	s := NewScale(store, nil)

	require.NoError(t, s.Save(25.21))
	assert.Equal(t, 1, store.writes)

	// a fresh Scale over the same store sees the saved value
	s2 := NewScale(store, nil)
	v, ok, err := s2.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 25.21, v)

	cm, err := s2.Convert(252.1)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, cm, 1e-12)

	// overwrite
	require.NoError(t, s2.Save(10))
	v, ok = s2.Value()
	assert.True(t, ok)
	assert.Equal(t, 10.0, v)

	cm, err = s2.Convert(50)
	require.NoError(t, err)
	assert.Equal(t, 5.0, cm)
}

func TestScaleSaveInvalid(t *testing.T) {

	store := &memStore{}
	s := NewScale(store, nil)

	for _, v := range []float64{0, -3, math.NaN(), math.Inf(1)} {
		err := s.Save(v)
		assert.ErrorIs(t, err, ErrInvalidScale, "value %v", v)
	}

	assert.Zero(t, store.writes)
	assert.False(t, s.Calibrated())
}

func TestScaleStoreErrors(t *testing.T) {

	boom := errors.New("disk on fire")
	s := NewScale(&memStore{err: boom}, nil)

	_, ok, err := s.Load()
	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)

	err = s.Save(12)
	assert.ErrorIs(t, err, boom)
	assert.False(t, s.Calibrated())

	// a stored value that is not positive is rejected on load
	s = NewScale(&memStore{value: -1, stored: true}, nil)
	_, _, err = s.Load()
	assert.ErrorIs(t, err, ErrInvalidScale)
}

func TestFixedScale(t *testing.T) {

	s, err := NewFixedScale(4)
	require.NoError(t, err)

	v, ok, err := s.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4.0, v)

	require.NoError(t, s.Save(8))
	cm, err := s.Convert(16)
	require.NoError(t, err)
	assert.Equal(t, 2.0, cm)

	_, err = NewFixedScale(0)
	assert.ErrorIs(t, err, ErrInvalidScale)
}
