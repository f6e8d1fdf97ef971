// Package experiment assembles a simulation run from a config: field, engine,
// kinematics, integrator, controller and metrics.
package experiment

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/san-kum/flatsim/internal/config"
	"github.com/san-kum/flatsim/internal/control"
	"github.com/san-kum/flatsim/internal/dynamo"
	"github.com/san-kum/flatsim/internal/field"
	"github.com/san-kum/flatsim/internal/flatness"
	"github.com/san-kum/flatsim/internal/models"
	"github.com/san-kum/flatsim/internal/storage"
)

type Experiment struct {
	cfg      *config.Config
	registry *Registry
	logger   *log.Logger

	field      *field.Field
	params     flatness.VehicleParameters
	engine     *flatness.Engine
	system     *models.FlatField
	controller dynamo.Controller
	simulator  *dynamo.Simulator
	trace      bool
}

type Option func(*Experiment)

func WithLogger(l *log.Logger) Option {
	return func(e *Experiment) { e.logger = l }
}

// WithTrace records the feedforward state of every tick.
func WithTrace() Option {
	return func(e *Experiment) { e.trace = true }
}

func WithRegistry(r *Registry) Option {
	return func(e *Experiment) { e.registry = r }
}

// New validates cfg, builds the flatness engine and wires the simulator.
func New(cfg *config.Config, opts ...Option) (*Experiment, error) {
	e := &Experiment{cfg: cfg, registry: NewRegistry(), logger: log.Default()}
	for _, opt := range opts {
		opt(e)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	f, err := cfg.LoadField()
	if err != nil {
		return nil, err
	}
	e.field = f
	e.params = cfg.VehicleParameters()

	conv := cfg.Convention()
	e.engine, err = flatness.NewEngine(f, e.params,
		flatness.WithConvention(conv),
		flatness.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	// The simulator integrates in the caller's frame.
	e.system = models.NewFlatField(f.InFrame(conv)).WithLogger(e.logger)

	e.simulator, e.controller, err = e.build()
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Experiment) build() (*dynamo.Simulator, dynamo.Controller, error) {
	integ, err := e.registry.GetIntegrator(e.cfg.Sim.Integrator)
	if err != nil {
		return nil, nil, err
	}
	name := e.cfg.Sim.Controller
	if name == "" {
		name = config.DefaultController
	}
	factory, err := e.registry.GetController(name)
	if err != nil {
		return nil, nil, err
	}

	ffOpts := []control.FeedforwardOption{control.WithLogger(e.logger)}
	if e.trace {
		ffOpts = append(ffOpts, control.WithTrace())
	}
	ctrl := factory(e.engine, e.params, ffOpts...)

	sim := dynamo.New(e.system, integ, ctrl)
	for _, m := range DefaultMetrics(ctrl) {
		sim.AddMetric(m)
	}
	return sim, ctrl, nil
}

func (e *Experiment) simConfig() dynamo.Config {
	c := dynamo.DefaultConfig()
	c.Dt = e.cfg.Sim.Dt
	c.Duration = e.cfg.Sim.Duration
	c.Adaptive = e.cfg.Sim.Adaptive
	if e.cfg.Sim.Tolerance > 0 {
		c.Tolerance = e.cfg.Sim.Tolerance
	}
	c.MaxDt = max(c.MaxDt, e.cfg.Sim.Dt)
	return c
}

// Run simulates from the configured initial flat output.
func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	x0 := dynamo.State(append([]float64(nil), e.cfg.GetInitState()...))
	e.logger.Debug("run", "integrator", e.cfg.Sim.Integrator, "dt", e.cfg.Sim.Dt, "duration", e.cfg.Sim.Duration, "init", []float64(x0))

	if ff, ok := e.controller.(*control.Feedforward); ok {
		ff.Reset()
	}
	result, err := e.simulator.Run(ctx, x0, e.simConfig())
	if err != nil {
		return nil, err
	}
	for _, runErr := range result.Errors {
		e.logger.Warn("run ended early", "err", runErr)
	}
	return result, nil
}

// Sweep runs the configured setup from every start in parallel. All runs
// share the engine; each gets its own integrator and controller.
func (e *Experiment) Sweep(ctx context.Context, starts []dynamo.State, workers int) ([]*dynamo.Result, error) {
	ens := dynamo.NewEnsemble(func() (*dynamo.Simulator, error) {
		sim, _, err := e.build()
		return sim, err
	}, workers)
	return ens.Run(ctx, starts, e.simConfig())
}

// Metadata describes a finished run for storage.
func (e *Experiment) Metadata(name string) storage.RunMetadata {
	meta := storage.RunMetadata{
		Name:       name,
		Field:      e.field.Source(),
		Convention: e.cfg.Convention().String(),
		Mass:       e.params.Mass,
		Gravity:    e.params.Gravity,
		Inertia:    e.cfg.Vehicle.Inertia,
		Dt:         e.cfg.Sim.Dt,
		Duration:   e.cfg.Sim.Duration,
		Integrator: e.cfg.Sim.Integrator,
	}
	if ff, ok := e.controller.(*control.Feedforward); ok {
		meta.Holds = ff.Holds()
	}
	return meta
}

// Trace returns the recorded feedforward samples of the last run.
func (e *Experiment) Trace() []control.Sample {
	if ff, ok := e.controller.(*control.Feedforward); ok {
		return ff.Trace()
	}
	return nil
}

func (e *Experiment) Config() *config.Config             { return e.cfg }
func (e *Experiment) Field() *field.Field                { return e.field }
func (e *Experiment) Engine() *flatness.Engine           { return e.engine }
func (e *Experiment) Params() flatness.VehicleParameters { return e.params }
func (e *Experiment) Controller() dynamo.Controller      { return e.controller }
func (e *Experiment) Simulator() *dynamo.Simulator       { return e.simulator }
