// Package field parses flat-output vector fields and generates their time
// derivatives.
//
// A field V defines the flat-output kinematics dσ/dt = V(σ) over the live
// variables (the first N of x, y, z, w). Higher derivatives follow from the
// chain rule: d/dt D_k(σ) = J_{D_k}(σ) · V(σ), see [NextDerivative].
package field

import (
	"fmt"

	"github.com/san-kum/flatsim/internal/symbolic"
)

// Point is a flat-output sample in axis order (x, y, z, yaw).
type Point [symbolic.NumAxes]float64

// Field is a parsed vector field of dimension 1..4.
type Field struct {
	source []string
	vars   []*symbolic.Var
	v      *symbolic.Matrix
}

func newField(exprs []symbolic.Expr, source []string) *Field {
	n := len(exprs)
	vars := make([]*symbolic.Var, n)
	copy(vars, symbolic.BaseVars[:n])
	return &Field{
		source: source,
		vars:   vars,
		v:      symbolic.Column(exprs...),
	}
}

// Dim returns the number of components N.
func (f *Field) Dim() int { return len(f.vars) }

// Vars returns the live variables, the first Dim() base variables.
func (f *Field) Vars() []*symbolic.Var {
	out := make([]*symbolic.Var, len(f.vars))
	copy(out, f.vars)
	return out
}

// Matrix returns the field as an N x 1 symbolic matrix.
func (f *Field) Matrix() *symbolic.Matrix { return f.v }

// Component returns the expression of component i.
func (f *Field) Component(i int) symbolic.Expr { return f.v.At(i, 0) }

// Source returns the expression text the field was parsed from.
func (f *Field) Source() []string {
	out := make([]string, len(f.source))
	copy(out, f.source)
	return out
}

// Live reports whether axis a is driven by the field.
func (f *Field) Live(a symbolic.Axis) bool { return int(a) < len(f.vars) }

// Pin zeroes the coordinates of axes the field does not drive, order 0
// included: a field without a w line always reports yaw 0, whatever yaw the
// query carries.
func (f *Field) Pin(p Point) Point {
	for i := len(f.vars); i < symbolic.NumAxes; i++ {
		p[i] = 0
	}
	return p
}

// Derive evaluates V at p. Components beyond Dim() are zero.
func (f *Field) Derive(p Point) (Point, error) {
	vals := symbolic.NewValues().SetPoint(f.Pin(p))
	var out Point
	for i := range f.vars {
		x, err := symbolic.Eval(f.Component(i), vals)
		if err != nil {
			return Point{}, fmt.Errorf("field component %s: %w", f.vars[i], err)
		}
		out[i] = x
	}
	return out, nil
}

func (f *Field) String() string { return f.v.String() }
