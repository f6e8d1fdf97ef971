package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/flatsim/internal/control"
	"github.com/san-kum/flatsim/internal/dynamo"
	"github.com/san-kum/flatsim/internal/flatness"
	"github.com/san-kum/flatsim/internal/integrators"
	"github.com/san-kum/flatsim/internal/metrics"
)

// ControllerFactory builds a controller for one run. Controllers keep
// per-run state, so every run gets its own.
type ControllerFactory func(eng *flatness.Engine, p flatness.VehicleParameters, opts ...control.FeedforwardOption) dynamo.Controller

type Registry struct {
	integrators map[string]func() dynamo.Integrator
	controllers map[string]ControllerFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() dynamo.Integrator),
		controllers: make(map[string]ControllerFactory),
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }

	r.controllers["feedforward"] = func(eng *flatness.Engine, p flatness.VehicleParameters, opts ...control.FeedforwardOption) dynamo.Controller {
		return control.NewFeedforward(eng, p, opts...)
	}
	r.controllers["hover"] = func(_ *flatness.Engine, p flatness.VehicleParameters, _ ...control.FeedforwardOption) dynamo.Controller {
		return control.NewHover(p)
	}

	return r
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s (have %v)", name, r.ListIntegrators())
	}
	return fn(), nil
}

func (r *Registry) GetController(name string) (ControllerFactory, error) {
	fn, ok := r.controllers[name]
	if !ok {
		return nil, fmt.Errorf("unknown controller: %s (have %v)", name, r.ListControllers())
	}
	return fn, nil
}

func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }

func (r *Registry) ListControllers() []string { return sortedKeys(r.controllers) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns the metrics recorded for every run. Attitude-based
// metrics need a feedforward controller.
func DefaultMetrics(ctrl dynamo.Controller) []dynamo.Metric {
	ms := []dynamo.Metric{
		metrics.NewControlEffort(),
		metrics.NewPeakThrust(),
		metrics.NewPeakTorque(),
	}
	if ff, ok := ctrl.(*control.Feedforward); ok {
		ms = append(ms, metrics.NewPeakTilt(ff), metrics.NewHoldRate(ff))
	}
	return ms
}
