package flatness

import (
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/san-kum/flatsim/internal/field"
	sym "github.com/san-kum/flatsim/internal/symbolic"
)

// singularTolerance bounds |bb| below which the thrust direction is undefined.
const singularTolerance = 1e-9

// Engine evaluates state and commands for one field and one vehicle. It is
// immutable and safe for concurrent use.
type Engine struct {
	field  *field.Field
	ladder *field.Ladder
	eqs    *Equations
	params VehicleParameters
	conv   field.Convention
	logger *log.Logger
}

type Option func(*Engine)

// WithConvention sets the caller's axis convention relative to the field.
func WithConvention(c field.Convention) Option {
	return func(e *Engine) { e.conv = c }
}

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine derives the ladder of f and the equations for p.
func NewEngine(f *field.Field, p VehicleParameters, opts ...Option) (*Engine, error) {
	if f == nil {
		return nil, &ConfigError{Reason: "no field"}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{field: f, params: p, logger: log.Default()}
	for _, opt := range opts {
		opt(e)
	}

	start := time.Now()
	e.ladder = field.NewLadder(f)
	e.eqs = BuildEquations(p)
	e.logger.Debug("flatness engine ready",
		"components", f.Dim(),
		"convention", e.conv,
		"ladder", e.ladder.Size(),
		"equations", e.eqs.Size(),
		"elapsed", time.Since(start))

	return e, nil
}

// Init loads a field file and builds an engine for the given vehicle.
func Init(path string, mass float64, inertia [3][3]float64, opts ...Option) (*Engine, error) {
	f, err := field.Load(path)
	if err != nil {
		return nil, err
	}
	return NewEngine(f, NewVehicleParameters(mass, inertia), opts...)
}

func (e *Engine) Field() *field.Field          { return e.field }
func (e *Engine) Ladder() *field.Ladder        { return e.ladder }
func (e *Engine) Equations() *Equations        { return e.eqs }
func (e *Engine) Params() VehicleParameters    { return e.params }
func (e *Engine) Convention() field.Convention { return e.conv }

// Update is Evaluate with the query spelled out, returning the command first.
func (e *Engine) Update(x, y, z, yaw float64) (InputRecord, StateRecord, error) {
	st, in, err := e.Evaluate(field.Point{x, y, z, yaw})
	return in, st, err
}

// Evaluate reconstructs the state and command at the caller-frame point p.
// Records are expressed in the field's frame. A singular configuration
// returns an error matching ErrDomain and zero records.
func (e *Engine) Evaluate(p field.Point) (StateRecord, InputRecord, error) {
	if e == nil || e.ladder == nil || e.eqs == nil {
		return StateRecord{}, InputRecord{}, &ConfigError{Reason: "engine used before initialization"}
	}

	q := e.conv.Apply(p)
	tab, err := e.ladder.Table(q)
	if err != nil {
		return StateRecord{}, InputRecord{}, &DomainError{Quantity: "flat output derivatives", Point: p, Err: err}
	}

	ev := &evaluation{vals: sym.NewValues().SetPoint(tab[0]).Load(tab), point: p}

	bb := ev.scalar("bb", e.eqs.Bb)
	if ev.err == nil && math.Abs(bb) <= singularTolerance {
		ev.err = &DomainError{
			Quantity: "bb",
			Point:    p,
			Err:      &sym.DomainError{Op: "bb", Value: bb, Reason: "vertical acceleration cancels gravity"},
		}
	}

	st := StateRecord{
		X: tab[0][0], Y: tab[0][1], Z: tab[0][2],
		VX: tab[1][0], VY: tab[1][1], VZ: tab[1][2],
		Phi:   ev.scalar("phi", e.eqs.Phi),
		Theta: ev.scalar("theta", e.eqs.Theta),
		Psi:   ev.scalar("psi", e.eqs.Psi),
	}
	omega := ev.column("omega", e.eqs.Omega)
	st.P, st.Q, st.R = omega[0], omega[1], omega[2]

	torque := ev.column("torque", e.eqs.Torque)
	in := InputRecord{
		Thrust:  ev.scalar("thrust", e.eqs.Thrust),
		TorqueX: torque[0],
		TorqueY: torque[1],
		TorqueZ: torque[2],
	}

	if ev.err != nil {
		return StateRecord{}, InputRecord{}, ev.err
	}
	return st, in, nil
}

// evaluation keeps the first error of a query; later calls are no-ops.
type evaluation struct {
	vals  *sym.Values
	point field.Point
	err   error
}

func (ev *evaluation) scalar(name string, x sym.Expr) float64 {
	if ev.err != nil {
		return 0
	}
	v, err := sym.Eval(x, ev.vals)
	if err != nil {
		ev.err = &DomainError{Quantity: name, Point: ev.point, Err: err}
		return 0
	}
	return v
}

func (ev *evaluation) column(name string, m *sym.Matrix) [3]float64 {
	var out [3]float64
	for i, x := range m.Col(0) {
		out[i] = ev.scalar(name, x)
	}
	return out
}
