package symbolic

import (
	"errors"
	"math"
)

// MaxOrderLoaded is the highest flat-output derivative order a Table holds.
const MaxOrderLoaded = 4

// radicandTolerance absorbs round-off on square-root arguments that are
// mathematically zero.
const radicandTolerance = 1e-12

// Table holds numeric flat-output derivatives indexed by [order][axis].
type Table [MaxOrderLoaded + 1][NumAxes]float64

// Values is the numeric query context: concrete values for variables and for
// every (axis, order) flat-output reference. It memoizes evaluated subtrees
// until the next mutation.
type Values struct {
	vars   map[*Var]float64
	flat   Table
	loaded bool
	cache  map[Expr]float64
}

// NewValues returns an empty context.
func NewValues() *Values {
	return &Values{vars: make(map[*Var]float64)}
}

// Set binds a variable.
func (v *Values) Set(vr *Var, x float64) *Values {
	v.vars[vr] = x
	v.cache = nil
	return v
}

// SetPoint binds the four base variables in axis order.
func (v *Values) SetPoint(p [NumAxes]float64) *Values {
	for i, vr := range BaseVars {
		v.vars[vr] = p[i]
	}
	v.cache = nil
	return v
}

// Load installs the flat-output derivative table used by FlatRef nodes.
func (v *Values) Load(t Table) *Values {
	v.flat = t
	v.loaded = true
	v.cache = nil
	return v
}

// Flat returns the loaded value of symF(axis, order).
func (v *Values) Flat(axis Axis, order int) (float64, error) {
	ref := F(axis, order)
	if !axis.Valid() {
		return 0, &EvalError{Expr: ref.String(), Reason: "unrecognized flat output axis"}
	}
	if order < 0 || order > MaxOrderLoaded {
		return 0, &EvalError{Expr: ref.String(), Reason: "derivative order out of range 0..4"}
	}
	if !v.loaded {
		return 0, &EvalError{Expr: ref.String(), Reason: "flat output derivatives not loaded"}
	}
	return v.flat[order][axis], nil
}

type evaluator struct {
	vals *Values
}

func (ev *evaluator) of(e Expr) (float64, error) {
	if n, ok := e.(*Num); ok {
		return n.Value, nil
	}
	if r, ok := ev.vals.cache[e]; ok {
		return r, nil
	}
	r, err := e.eval(ev)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, &DomainError{Op: "eval", Expr: e.String(), Value: r, Reason: "non-finite result"}
	}
	ev.vals.cache[e] = r
	return r, nil
}

// Eval evaluates e to a float64 in the given context.
func Eval(e Expr, vals *Values) (float64, error) {
	if vals.cache == nil {
		vals.cache = make(map[Expr]float64)
	}
	return (&evaluator{vals: vals}).of(e)
}

func (n *Num) eval(*evaluator) (float64, error) { return n.Value, nil }

func (v *Var) eval(ev *evaluator) (float64, error) {
	x, ok := ev.vals.vars[v]
	if !ok {
		return 0, &EvalError{Expr: v.name, Reason: "unbound variable"}
	}
	return x, nil
}

func (r *FlatRef) eval(ev *evaluator) (float64, error) {
	return ev.vals.Flat(r.Axis, r.Order)
}

func (a *Add) eval(ev *evaluator) (float64, error) {
	sum := 0.0
	for _, t := range a.Terms {
		x, err := ev.of(t)
		if err != nil {
			return 0, err
		}
		sum += x
	}
	return sum, nil
}

func (m *Mul) eval(ev *evaluator) (float64, error) {
	prod := 1.0
	for _, f := range m.Factors {
		x, err := ev.of(f)
		if err != nil {
			return 0, err
		}
		prod *= x
	}
	return prod, nil
}

func (p *Pow) eval(ev *evaluator) (float64, error) {
	b, err := ev.of(p.Base)
	if err != nil {
		return 0, err
	}
	e, err := ev.of(p.Exp)
	if err != nil {
		return 0, err
	}
	if b == 0 && e < 0 {
		return 0, &DomainError{Op: "pow", Expr: p.String(), Value: b, Reason: "division by zero"}
	}
	if b < 0 && e != math.Trunc(e) {
		return 0, &DomainError{Op: "pow", Expr: p.String(), Value: b, Reason: "fractional power of a negative number"}
	}
	return math.Pow(b, e), nil
}

func (c *Call) eval(ev *evaluator) (float64, error) {
	a, err := ev.of(c.Arg)
	if err != nil {
		return 0, err
	}
	r, err := applyFunc(c.Fn, a)
	if err != nil {
		var de *DomainError
		if errors.As(err, &de) {
			de.Expr = c.String()
		}
		return 0, err
	}
	return r, nil
}

func (a *Atan2) eval(ev *evaluator) (float64, error) {
	y, err := ev.of(a.Y)
	if err != nil {
		return 0, err
	}
	x, err := ev.of(a.X)
	if err != nil {
		return 0, err
	}
	if y == 0 && x == 0 {
		return 0, &DomainError{Op: "atan2", Expr: a.String(), Reason: "both arguments are zero"}
	}
	return math.Atan2(y, x), nil
}

func applyFunc(fn Func, a float64) (float64, error) {
	switch fn {
	case Sin:
		return math.Sin(a), nil
	case Cos:
		return math.Cos(a), nil
	case Tan:
		return math.Tan(a), nil
	case Asin:
		if a < -1 || a > 1 {
			return 0, &DomainError{Op: "asin", Value: a, Reason: "argument outside [-1, 1]"}
		}
		return math.Asin(a), nil
	case Acos:
		if a < -1 || a > 1 {
			return 0, &DomainError{Op: "acos", Value: a, Reason: "argument outside [-1, 1]"}
		}
		return math.Acos(a), nil
	case Atan:
		return math.Atan(a), nil
	case Exp:
		return math.Exp(a), nil
	case Log:
		if a <= 0 {
			return 0, &DomainError{Op: "log", Value: a, Reason: "non-positive argument"}
		}
		return math.Log(a), nil
	case Sqrt:
		if a < 0 {
			if a < -radicandTolerance {
				return 0, &DomainError{Op: "sqrt", Value: a, Reason: "negative radicand"}
			}
			a = 0
		}
		return math.Sqrt(a), nil
	case Sinh:
		return math.Sinh(a), nil
	case Cosh:
		return math.Cosh(a), nil
	case Tanh:
		return math.Tanh(a), nil
	}
	return 0, &EvalError{Expr: string(fn), Reason: "unknown function"}
}
