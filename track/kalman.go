package track

import (
	"errors"
	"fmt"

	"github.com/swdee/go-objsize/geometry"
	"gonum.org/v1/gonum/mat"
)

// kalman is a constant velocity Kalman filter over an object centroid.  The
// state is [x, y, vx, vy] and the measurement is [x, y].
type kalman struct {
	mean *mat.VecDense
	cov  *mat.Dense
	// process noise added on every predict step
	process *mat.Dense
	// measurement noise added to the projected covariance
	noise     *mat.SymDense
	motionMat *mat.Dense
	updateMat *mat.Dense
}

// newKalman initiates a filter at the measured centroid with zero velocity
func newKalman(c geometry.Point, opts Options) *kalman {

	motionMat := mat.NewDense(4, 4, []float64{
		1, 0, 1, 0,
		0, 1, 0, 1,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})

	updateMat := mat.NewDense(2, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
	})

	p, v, r := opts.PositionNoise, opts.VelocityNoise, opts.MeasurementNoise

	process := mat.NewDense(4, 4, nil)
	process.Set(0, 0, p*p)
	process.Set(1, 1, p*p)
	process.Set(2, 2, v*v)
	process.Set(3, 3, v*v)

	noise := mat.NewSymDense(2, []float64{
		r * r, 0,
		0, r * r,
	})

	// the initial velocity is unknown so starts with a wide variance
	cov := mat.NewDense(4, 4, nil)
	cov.Set(0, 0, 2*r*r)
	cov.Set(1, 1, 2*r*r)
	cov.Set(2, 2, 100*v*v)
	cov.Set(3, 3, 100*v*v)

	return &kalman{
		mean:      mat.NewVecDense(4, []float64{c.X, c.Y, 0, 0}),
		cov:       cov,
		process:   process,
		noise:     noise,
		motionMat: motionMat,
		updateMat: updateMat,
	}
}

// position returns the current centroid estimate
func (k *kalman) position() geometry.Point {
	return geometry.Pt(k.mean.AtVec(0), k.mean.AtVec(1))
}

// velocity returns the current velocity estimate in pixels per frame
func (k *kalman) velocity() geometry.Point {
	return geometry.Pt(k.mean.AtVec(2), k.mean.AtVec(3))
}

// predict advances the state one frame
func (k *kalman) predict() {

	mean := mat.NewVecDense(4, nil)
	mean.MulVec(k.motionMat, k.mean)
	k.mean = mean

	// F * P * F^T + Q
	tmp := mat.NewDense(4, 4, nil)
	tmp.Mul(k.motionMat, k.cov)

	cov := mat.NewDense(4, 4, nil)
	cov.Mul(tmp, k.motionMat.T())
	cov.Add(cov, k.process)

	k.cov = cov
}

// update corrects the state with a measured centroid
func (k *kalman) update(c geometry.Point) error {

	// H * P, the cross covariance of measurement and state
	hp := mat.NewDense(2, 4, nil)
	hp.Mul(k.updateMat, k.cov)

	// S = H * P * H^T + R
	s := mat.NewDense(2, 2, nil)
	s.Mul(hp, k.updateMat.T())

	projected := mat.NewSymDense(2, []float64{
		s.At(0, 0), s.At(0, 1),
		s.At(1, 0), s.At(1, 1),
	})
	projected.AddSym(projected, k.noise)

	chol := mat.Cholesky{}

	if ok := chol.Factorize(projected); !ok {
		return errors.New("failed to factorize projected covariance")
	}

	// solving S * X = H * P gives X as the transposed Kalman gain
	var gainT mat.Dense

	if err := chol.SolveTo(&gainT, hp); err != nil {
		return fmt.Errorf("failed to compute kalman gain: %w", err)
	}

	innovation := mat.NewVecDense(2, []float64{
		c.X - k.mean.AtVec(0),
		c.Y - k.mean.AtVec(1),
	})

	correction := mat.NewVecDense(4, nil)
	correction.MulVec(gainT.T(), innovation)

	mean := mat.NewVecDense(4, nil)
	mean.AddVec(k.mean, correction)
	k.mean = mean

	// P - K * H * P
	reduce := mat.NewDense(4, 4, nil)
	reduce.Mul(gainT.T(), hp)

	cov := mat.NewDense(4, 4, nil)
	cov.Sub(k.cov, reduce)
	k.cov = cov

	return nil
}
