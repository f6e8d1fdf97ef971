package integrators

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/flatsim/internal/dynamo"
)

// Dormand-Prince 5(4) tableau. The seventh stage is evaluated at the new
// point and only enters the error estimate.
var (
	dpNodes = [7]float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1}

	dpCoeffs = [7][]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	}

	// fifth-order weights minus fourth-order weights
	dpError = [7]float64{
		35.0/384 - 5179.0/57600,
		0,
		500.0/1113 - 7571.0/16695,
		125.0/192 - 393.0/640,
		-2187.0/6784 + 92097.0/339200,
		11.0/84 - 187.0/2100,
		-1.0 / 40,
	}
)

// RK45 is the Dormand-Prince embedded 5(4) pair.
type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

// Step takes a single fifth-order step of size dt without error control.
func (r *RK45) Step(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	next, _, _ := r.StepAdaptive(sys, x, u, t, dt, math.Inf(1))
	return next
}

// StepAdaptive takes a step of size dt and suggests the next one. When the
// error estimate exceeds tol it returns dynamo.ErrStepRejected along with a
// smaller suggestion, and the returned state must be discarded.
func (r *RK45) StepAdaptive(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt, tol float64) (dynamo.State, float64, error) {
	var k [7]dynamo.State
	k[0] = sys.Derive(x, u, t)

	var next dynamo.State
	for s := 1; s < len(k); s++ {
		xs := x.Clone()
		for j, a := range dpCoeffs[s] {
			if a != 0 {
				floats.AddScaled(xs, dt*a, k[j])
			}
		}
		k[s] = sys.Derive(xs, u, t+dpNodes[s]*dt)
		next = xs
	}

	errMax := 0.0
	est := make([]float64, len(x))
	for j, e := range dpError {
		if e != 0 {
			floats.AddScaled(est, dt*e, k[j])
		}
	}
	for i := range x {
		scale := math.Abs(x[i]) + math.Abs(dt*k[0][i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(est[i])/scale)
	}

	ratio := errMax / tol
	switch {
	case ratio > 1:
		scale := math.Max(r.minScale, r.safety*math.Pow(ratio, -0.25))
		return next, dt * scale, dynamo.ErrStepRejected
	case ratio > 0:
		scale := math.Min(r.maxScale, r.safety*math.Pow(ratio, -0.2))
		return next, dt * math.Max(scale, 1), nil
	}
	return next, dt * r.maxScale, nil
}
