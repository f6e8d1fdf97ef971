package symbolic

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense row-major matrix of expressions.
type Matrix struct {
	rows, cols int
	data       []Expr
}

// NewMatrix returns a rows x cols matrix filled with zero.
func NewMatrix(rows, cols int) *Matrix {
	if rows <= 0 || cols <= 0 {
		panic(ErrShape)
	}
	data := make([]Expr, rows*cols)
	for i := range data {
		data[i] = Zero
	}
	return &Matrix{rows: rows, cols: cols, data: data}
}

// MatrixOf builds a matrix from rows of equal length.
func MatrixOf(rows ...[]Expr) *Matrix {
	if len(rows) == 0 {
		panic(ErrShape)
	}
	m := NewMatrix(len(rows), len(rows[0]))
	for i, r := range rows {
		if len(r) != m.cols {
			panic(ErrShape)
		}
		copy(m.data[i*m.cols:], r)
	}
	return m
}

// Column builds an n x 1 matrix.
func Column(es ...Expr) *Matrix {
	m := NewMatrix(len(es), 1)
	copy(m.data, es)
	return m
}

// ConstMatrix lifts a numeric gonum matrix into expressions.
func ConstMatrix(a mat.Matrix) *Matrix {
	r, c := a.Dims()
	m := NewMatrix(r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, Const(a.At(i, j)))
		}
	}
	return m
}

func (m *Matrix) Dims() (r, c int) { return m.rows, m.cols }

func (m *Matrix) At(i, j int) Expr {
	m.check(i, j)
	return m.data[i*m.cols+j]
}

func (m *Matrix) Set(i, j int, e Expr) {
	m.check(i, j)
	m.data[i*m.cols+j] = e
}

func (m *Matrix) check(i, j int) {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("symbolic: index (%d,%d) out of range for %dx%d matrix", i, j, m.rows, m.cols))
	}
}

// Col returns column j as a slice.
func (m *Matrix) Col(j int) []Expr {
	out := make([]Expr, m.rows)
	for i := range out {
		out[i] = m.At(i, j)
	}
	return out
}

// Mul returns the matrix product m * o.
func (m *Matrix) Mul(o *Matrix) *Matrix {
	if m.cols != o.rows {
		panic(ErrShape)
	}
	out := NewMatrix(m.rows, o.cols)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < o.cols; j++ {
			terms := make([]Expr, m.cols)
			for k := 0; k < m.cols; k++ {
				terms[k] = Product(m.At(i, k), o.At(k, j))
			}
			out.Set(i, j, Sum(terms...))
		}
	}
	return out
}

// Add returns m + o.
func (m *Matrix) Add(o *Matrix) *Matrix {
	if m.rows != o.rows || m.cols != o.cols {
		panic(ErrShape)
	}
	out := NewMatrix(m.rows, m.cols)
	for i := range m.data {
		out.data[i] = Sum(m.data[i], o.data[i])
	}
	return out
}

// Diff differentiates every entry with respect to v.
func (m *Matrix) Diff(v *Var) *Matrix {
	out := NewMatrix(m.rows, m.cols)
	copy(out.data, DiffAll(m.data, v))
	return out
}

// Map applies fn to every entry.
func (m *Matrix) Map(fn func(Expr) Expr) *Matrix {
	out := NewMatrix(m.rows, m.cols)
	for i, e := range m.data {
		out.data[i] = fn(e)
	}
	return out
}

// Eval evaluates every entry into a gonum dense matrix.
func (m *Matrix) Eval(vals *Values) (*mat.Dense, error) {
	out := mat.NewDense(m.rows, m.cols, nil)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			x, err := Eval(m.At(i, j), vals)
			if err != nil {
				return nil, err
			}
			out.Set(i, j, x)
		}
	}
	return out, nil
}

func (m *Matrix) String() string {
	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < m.rows; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(m.At(i, j).String())
		}
	}
	b.WriteString("]")
	return b.String()
}

// Jacobian returns the matrix with cell [r][c] = d exprs[r] / d vars[c].
func Jacobian(exprs []Expr, vars []*Var) *Matrix {
	j := NewMatrix(len(exprs), len(vars))
	for c, v := range vars {
		col := DiffAll(exprs, v)
		for r := range exprs {
			j.Set(r, c, col[r])
		}
	}
	return j
}

// Skew returns the cross-product matrix of a 3 x 1 column, so that
// Skew(a) * b = a x b.
func Skew(a *Matrix) *Matrix {
	if r, c := a.Dims(); r != 3 || c != 1 {
		panic(ErrShape)
	}
	x, y, z := a.At(0, 0), a.At(1, 0), a.At(2, 0)
	return MatrixOf(
		[]Expr{Zero, Neg(z), y},
		[]Expr{z, Zero, Neg(x)},
		[]Expr{Neg(y), x, Zero},
	)
}
