package field

import (
	"fmt"

	"github.com/san-kum/flatsim/internal/symbolic"
)

// Orders is the number of symbolic derivatives kept in a Ladder (D1..D4).
const Orders = 4

// NextDerivative computes Jacobian(src) · vec, where the Jacobian is taken
// with respect to vars (cell [r][c] = ∂src[r]/∂vars[c]). With vec the field
// itself this is the time derivative of src along the field's trajectories.
func NextDerivative(vars []*symbolic.Var, src, vec *symbolic.Matrix) *symbolic.Matrix {
	jacob := symbolic.Jacobian(src.Col(0), vars)
	return jacob.Mul(vec)
}

// Ladder holds the symbolic derivatives D1..D4 of a field. It is immutable
// once built.
type Ladder struct {
	field *Field
	d     [Orders]*symbolic.Matrix
}

// NewLadder derives D2..D4 from D1 = f by D_{k+1} = J(D_k) · D1.
func NewLadder(f *Field) *Ladder {
	l := &Ladder{field: f}
	l.d[0] = f.Matrix()
	for k := 1; k < Orders; k++ {
		l.d[k] = NextDerivative(f.vars, l.d[k-1], l.d[0])
	}
	return l
}

// Field returns the field the ladder was derived from.
func (l *Ladder) Field() *Field { return l.field }

// D returns the order-k derivative matrix, k in 1..4.
func (l *Ladder) D(k int) *symbolic.Matrix {
	if k < 1 || k > Orders {
		panic(fmt.Sprintf("field: ladder order %d out of range 1..%d", k, Orders))
	}
	return l.d[k-1]
}

// Table substitutes p into D1..D4 and returns the numeric derivatives of
// orders 0..4. Axes the field does not drive stay zero in every order.
func (l *Ladder) Table(p Point) (symbolic.Table, error) {
	var t symbolic.Table
	p = l.field.Pin(p)
	t[0] = p

	vals := symbolic.NewValues().SetPoint(p)
	for k := 1; k <= Orders; k++ {
		d := l.D(k)
		for i := 0; i < l.field.Dim(); i++ {
			x, err := symbolic.Eval(d.At(i, 0), vals)
			if err != nil {
				return symbolic.Table{}, fmt.Errorf("order %d, component %s: %w", k, symbolic.BaseVars[i], err)
			}
			t[k][i] = x
		}
	}
	return t, nil
}

// Size returns the number of distinct expression nodes per order, for
// diagnostics.
func (l *Ladder) Size() [Orders]int {
	var out [Orders]int
	for k, d := range l.d {
		for _, e := range d.Col(0) {
			out[k] += symbolic.Size(e)
		}
	}
	return out
}
