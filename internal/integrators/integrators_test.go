package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/flatsim/internal/dynamo"
)

// rotation is the planar circle field x' = -y, y' = x.
type rotation struct{}

func (rotation) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{-x[1], x[0]}
}
func (rotation) StateDim() int   { return 2 }
func (rotation) ControlDim() int { return 0 }

func radius(x dynamo.State) float64 { return math.Hypot(x[0], x[1]) }

func integrate(integ dynamo.Integrator, x dynamo.State, dt float64, steps int) dynamo.State {
	for i := 0; i < steps; i++ {
		x = integ.Step(rotation{}, x, nil, float64(i)*dt, dt)
	}
	return x
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name  string
		integ dynamo.Integrator
		tol   float64
	}{
		{"euler", NewEuler(), 1e-2},
		{"rk4", NewRK4(), 1e-8},
		{"rk45", NewRK45(), 1e-8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := integrate(tt.integ, dynamo.State{1, 0}, 0.01, 100)
			wantX, wantY := math.Cos(1), math.Sin(1)
			if math.Abs(x[0]-wantX) > tt.tol || math.Abs(x[1]-wantY) > tt.tol {
				t.Errorf("got (%.9f, %.9f), want (%.9f, %.9f)", x[0], x[1], wantX, wantY)
			}
		})
	}
}

func TestEulerConstantField(t *testing.T) {
	sys := constant{v: dynamo.State{2, -1, 0, 0.5}}
	x := NewEuler().Step(sys, dynamo.State{1, 1, 1, 1}, nil, 0, 0.5)
	want := dynamo.State{2, 0.5, 1, 1.25}
	for i := range want {
		if x[i] != want[i] {
			t.Fatalf("got %v, want %v", x, want)
		}
	}
}

type constant struct{ v dynamo.State }

func (c constant) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State { return c.v }
func (c constant) StateDim() int                                                   { return len(c.v) }
func (c constant) ControlDim() int                                                 { return 0 }

func TestRadiusDrift(t *testing.T) {
	x := integrate(NewRK45(), dynamo.State{1, 0}, 0.01, 10000)
	if !x.IsValid() {
		t.Fatal("RK45 produced invalid state")
	}
	if drift := math.Abs(radius(x) - 1); drift > 1e-6 {
		t.Errorf("RK45 radius drift too high: %e", drift)
	}
}

func TestRK4ReusesScratchAcrossDimensions(t *testing.T) {
	integ := NewRK4()
	integrate(integ, dynamo.State{1, 0}, 0.01, 3)
	x := integ.Step(constant{v: dynamo.State{1, 1, 1}}, dynamo.State{0, 0, 0}, nil, 0, 0.1)
	if len(x) != 3 || math.Abs(x[2]-0.1) > 1e-15 {
		t.Errorf("unexpected result %v", x)
	}
}

func TestRK45StepAdaptive(t *testing.T) {
	integ := NewRK45()

	x, next, err := integ.StepAdaptive(rotation{}, dynamo.State{1, 0}, nil, 0, 0.01, 1e-6)
	if err != nil {
		t.Fatalf("small step rejected: %v", err)
	}
	if !x.IsValid() || next < 0.01 {
		t.Errorf("unexpected accepted step: x=%v next=%g", x, next)
	}

	_, next, err = integ.StepAdaptive(rotation{}, dynamo.State{1, 0}, nil, 0, 2.0, 1e-12)
	if !errors.Is(err, dynamo.ErrStepRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if next >= 2.0 || next <= 0 {
		t.Errorf("rejected step should shrink, got %g", next)
	}
}

func BenchmarkEuler(b *testing.B) {
	benchmark(b, NewEuler())
}

func BenchmarkRK4(b *testing.B) {
	benchmark(b, NewRK4())
}

func BenchmarkRK45(b *testing.B) {
	benchmark(b, NewRK45())
}

func benchmark(b *testing.B, integ dynamo.Integrator) {
	x := dynamo.State{1.0, 0.0}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integ.Step(rotation{}, x, nil, 0, 0.01)
	}
}
