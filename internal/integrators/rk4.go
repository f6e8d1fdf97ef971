package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/flatsim/internal/dynamo"
)

// RK4 is the classic fourth-order Runge-Kutta method. It keeps a stage
// buffer between calls, so an instance must not be shared between goroutines.
type RK4 struct {
	stage dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

// at returns x + h*k in the stage buffer.
func (r *RK4) at(x dynamo.State, h float64, k dynamo.State) dynamo.State {
	if len(r.stage) != len(x) {
		r.stage = make(dynamo.State, len(x))
	}
	floats.AddScaledTo(r.stage, x, h, k)
	return r.stage
}

func (r *RK4) Step(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	half := dt / 2

	k1 := sys.Derive(x, u, t)
	k2 := sys.Derive(r.at(x, half, k1), u, t+half)
	k3 := sys.Derive(r.at(x, half, k2), u, t+half)
	k4 := sys.Derive(r.at(x, dt, k3), u, t+dt)

	next := x.Clone()
	floats.AddScaled(next, dt/6, k1)
	floats.AddScaled(next, dt/3, k2)
	floats.AddScaled(next, dt/3, k3)
	floats.AddScaled(next, dt/6, k4)
	return next
}
