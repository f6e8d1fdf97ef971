package dynamo

import (
	"context"
	"errors"
	"fmt"
	"math"
)

type Simulator struct {
	sys        System
	integrator Integrator
	controller Controller
	metrics    []Metric
	observers  []Observer
}

func New(sys System, integrator Integrator, controller Controller) *Simulator {
	return &Simulator{
		sys:        sys,
		integrator: integrator,
		controller: controller,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run integrates from x0 for cfg.Duration, querying the controller once per
// tick. An invalid state ends the run early and is recorded in Result.Errors.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(x0) != s.sys.StateDim() {
		return nil, fmt.Errorf("%w: state has %d entries, system expects %d", ErrDimensionMismatch, len(x0), s.sys.StateDim())
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &Result{
		States:   make([]State, 0, steps+1),
		Controls: make([]Control, 0, steps),
		Times:    make([]float64, 0, steps+1),
		Metrics:  make(map[string]float64),
		Errors:   make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := 0.0
	dt := cfg.Dt

	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)

	for i := 0; t < cfg.Duration-1e-12; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if !cfg.Adaptive && i >= steps {
			break
		}
		if t+dt > cfg.Duration {
			dt = cfg.Duration - t
		}

		u := s.controller.Compute(x, t)

		for _, m := range s.metrics {
			m.Observe(x, u, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, u, t)
		}

		var newX State
		var next float64
		var stepErr error

		if cfg.Adaptive {
			newX, dt, next, stepErr = s.adaptiveStep(x, u, t, dt, cfg)
		} else {
			newX = s.integrator.Step(s.sys, x, u, t, dt)
			next = dt
		}

		if stepErr != nil {
			result.Errors = append(result.Errors, &SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: stepErr})
		}

		if cfg.ValidateState && !newX.IsValid() {
			result.Errors = append(result.Errors, &SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: ErrInvalidState})
			break
		}

		x = newX
		t += dt
		dt = next
		result.StepsTaken++

		result.States = append(result.States, x.Clone())
		result.Controls = append(result.Controls, u)
		result.Times = append(result.Times, t)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

// adaptiveStep advances by at most dt. It returns the new state, the step
// actually taken and the step to try next. Integrators without an embedded
// error estimate fall back to step doubling.
func (s *Simulator) adaptiveStep(x State, u Control, t, dt float64, cfg Config) (State, float64, float64, error) {
	if adaptive, ok := s.integrator.(AdaptiveIntegrator); ok {
		for {
			newX, next, err := adaptive.StepAdaptive(s.sys, x, u, t, dt, cfg.Tolerance)
			if !errors.Is(err, ErrStepRejected) {
				return newX, dt, clamp(next, cfg.MinDt, cfg.MaxDt), err
			}
			if dt <= cfg.MinDt {
				return newX, dt, cfg.MinDt, ErrStepTooSmall
			}
			dt = math.Max(next, cfg.MinDt)
		}
	}

	for {
		x1 := s.integrator.Step(s.sys, x, u, t, dt)
		xHalf := s.integrator.Step(s.sys, x, u, t, dt/2)
		x2 := s.integrator.Step(s.sys, xHalf, u, t+dt/2, dt/2)

		err := x1.Sub(x2).Norm()
		if err > cfg.Tolerance {
			if dt/2 < cfg.MinDt {
				return x2, dt, cfg.MinDt, ErrStepTooSmall
			}
			dt /= 2
			continue
		}

		next := dt
		if err < cfg.Tolerance/10 && dt < cfg.MaxDt {
			next = math.Min(dt*2, cfg.MaxDt)
		}
		return x2, dt, next, nil
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// RunWithCallback steps until the duration elapses or callback returns false.
// The callback sees each state before it is advanced.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 State, cfg Config, callback func(State, Control, float64) bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	x := x0.Clone()
	t := 0.0
	dt := cfg.Dt

	for t < cfg.Duration {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		u := s.controller.Compute(x, t)

		if !callback(x, u, t) {
			return nil
		}

		x = s.integrator.Step(s.sys, x, u, t, dt)
		t += dt

		if cfg.ValidateState && !x.IsValid() {
			return &SimulationError{Time: t, State: x, Wrapped: ErrInvalidState}
		}
	}

	return nil
}

// Stepper advances a simulation one tick at a time, for interactive views.
type Stepper struct {
	sim *Simulator
	x   State
	t   float64
	dt  float64
}

func (s *Simulator) Stepper(x0 State, dt float64) *Stepper {
	return &Stepper{sim: s, x: x0.Clone(), dt: dt}
}

// Step computes the command for the current state, advances and returns the
// command together with the state it was computed for.
func (st *Stepper) Step() (State, Control, error) {
	x := st.x
	u := st.sim.controller.Compute(x, st.t)
	for _, obs := range st.sim.observers {
		obs.OnStep(x, u, st.t)
	}
	next := st.sim.integrator.Step(st.sim.sys, x, u, st.t, st.dt)
	if !next.IsValid() {
		return x, u, &SimulationError{Time: st.t, State: x.Clone(), Wrapped: ErrInvalidState}
	}
	st.x = next
	st.t += st.dt
	return x, u, nil
}

func (st *Stepper) Time() float64 { return st.t }
func (st *Stepper) State() State  { return st.x.Clone() }
