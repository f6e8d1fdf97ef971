package symbolic

import (
	"fmt"
	"strconv"
	"strings"
)

// Expr is a node of an immutable expression tree.
type Expr interface {
	String() string
	diff(d *differ) Expr
	eval(ev *evaluator) (float64, error)
}

// Num is a floating-point constant.
type Num struct {
	Value float64
}

// FlatRef is symF(axis, order): the order-th time derivative of one flat
// output component. Its numeric value comes from the Values table.
type FlatRef struct {
	Axis  Axis
	Order int
}

// Add is a sum of terms.
type Add struct {
	Terms []Expr
}

// Mul is a product of factors. A numeric coefficient, if any, comes first.
type Mul struct {
	Factors []Expr
}

// Pow is Base raised to Exp.
type Pow struct {
	Base, Exp Expr
}

// Func names an elementary function of one argument.
type Func string

const (
	Sin  Func = "sin"
	Cos  Func = "cos"
	Tan  Func = "tan"
	Asin Func = "asin"
	Acos Func = "acos"
	Atan Func = "atan"
	Exp  Func = "exp"
	Log  Func = "log"
	Sqrt Func = "sqrt"
	Sinh Func = "sinh"
	Cosh Func = "cosh"
	Tanh Func = "tanh"
)

var knownFuncs = map[string]Func{
	"sin": Sin, "cos": Cos, "tan": Tan,
	"asin": Asin, "acos": Acos, "atan": Atan,
	"exp": Exp, "log": Log, "sqrt": Sqrt,
	"sinh": Sinh, "cosh": Cosh, "tanh": Tanh,
}

// LookupFunc resolves a function name as written in a field file.
func LookupFunc(name string) (Func, bool) {
	f, ok := knownFuncs[name]
	return f, ok
}

// Call applies an elementary function.
type Call struct {
	Fn  Func
	Arg Expr
}

// Atan2 is the two-argument arctangent atan2(Y, X).
type Atan2 struct {
	Y, X Expr
}

var (
	Zero = &Num{Value: 0}
	One  = &Num{Value: 1}
)

// F returns symF(axis, order).
func F(axis Axis, order int) *FlatRef {
	return &FlatRef{Axis: axis, Order: order}
}

func (n *Num) String() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

func (r *FlatRef) String() string {
	return fmt.Sprintf("symF(%s,%d)", r.Axis, r.Order)
}

func (a *Add) String() string {
	var b strings.Builder
	for i, t := range a.Terms {
		s := t.String()
		if i > 0 {
			if strings.HasPrefix(s, "-") {
				b.WriteString(" - ")
				s = s[1:]
			} else {
				b.WriteString(" + ")
			}
		}
		b.WriteString(s)
	}
	return b.String()
}

func (m *Mul) String() string {
	parts := make([]string, 0, len(m.Factors))
	for i, f := range m.Factors {
		if n, ok := f.(*Num); ok && i == 0 && n.Value == -1 && len(m.Factors) > 1 {
			parts = append(parts, "-")
			continue
		}
		parts = append(parts, wrap(f))
	}
	if len(parts) > 1 && parts[0] == "-" {
		return "-" + strings.Join(parts[1:], "*")
	}
	return strings.Join(parts, "*")
}

func (p *Pow) String() string {
	return wrap(p.Base) + "^" + wrap(p.Exp)
}

func (c *Call) String() string {
	return string(c.Fn) + "(" + c.Arg.String() + ")"
}

func (a *Atan2) String() string {
	return "atan2(" + a.Y.String() + ", " + a.X.String() + ")"
}

func wrap(e Expr) string {
	switch v := e.(type) {
	case *Add, *Mul, *Pow:
		return "(" + e.String() + ")"
	case *Num:
		if v.Value < 0 {
			return "(" + e.String() + ")"
		}
	}
	return e.String()
}

// Walk visits e and its descendants depth-first. Returning false from fn
// skips the children of the current node.
func Walk(e Expr, fn func(Expr) bool) {
	if !fn(e) {
		return
	}
	switch v := e.(type) {
	case *Add:
		for _, t := range v.Terms {
			Walk(t, fn)
		}
	case *Mul:
		for _, f := range v.Factors {
			Walk(f, fn)
		}
	case *Pow:
		Walk(v.Base, fn)
		Walk(v.Exp, fn)
	case *Call:
		Walk(v.Arg, fn)
	case *Atan2:
		Walk(v.Y, fn)
		Walk(v.X, fn)
	}
}

// Size counts the distinct nodes reachable from e.
func Size(e Expr) int {
	seen := make(map[Expr]struct{})
	Walk(e, func(n Expr) bool {
		if _, ok := seen[n]; ok {
			return false
		}
		seen[n] = struct{}{}
		return true
	})
	return len(seen)
}

// MaxOrder returns the highest FlatRef order appearing in e, or -1.
func MaxOrder(e Expr) int {
	max := -1
	Walk(e, func(n Expr) bool {
		if r, ok := n.(*FlatRef); ok && r.Order > max {
			max = r.Order
		}
		return true
	})
	return max
}
