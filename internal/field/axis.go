package field

import (
	"fmt"

	"github.com/san-kum/flatsim/internal/symbolic"
)

// Convention selects how a caller's frame relates to the field's frame.
type Convention int

const (
	// Native means caller and field share the same frame.
	Native Convention = iota
	// FlipYZ means the caller's y and z axes point the opposite way.
	FlipYZ
)

func (c Convention) String() string {
	switch c {
	case Native:
		return "native"
	case FlipYZ:
		return "flip_yz"
	}
	return fmt.Sprintf("convention(%d)", int(c))
}

// ParseConvention accepts the names produced by String.
func ParseConvention(s string) (Convention, error) {
	switch s {
	case "", "native":
		return Native, nil
	case "flip_yz", "flip-yz":
		return FlipYZ, nil
	}
	return Native, fmt.Errorf("field: unknown axis convention %q", s)
}

func (c Convention) signs() Point {
	if c == FlipYZ {
		return Point{1, -1, -1, 1}
	}
	return Point{1, 1, 1, 1}
}

// Apply maps a point between the caller's frame and the field's frame. The
// map is its own inverse.
func (c Convention) Apply(p Point) Point {
	s := c.signs()
	for i := range p {
		p[i] *= s[i]
	}
	return p
}

// InFrame returns the field expressed in the frame selected by c, that is
// S·V(S·σ) with S the convention's sign matrix.
func (f *Field) InFrame(c Convention) *Field {
	if c == Native {
		return f
	}
	s := c.signs()
	repl := make(map[*symbolic.Var]symbolic.Expr)
	for i, v := range symbolic.BaseVars {
		if s[i] < 0 {
			repl[v] = symbolic.Neg(v)
		}
	}
	exprs := make([]symbolic.Expr, f.Dim())
	for i := range exprs {
		e := symbolic.Subs(f.Component(i), repl)
		if s[i] < 0 {
			e = symbolic.Neg(e)
		}
		exprs[i] = e
	}
	return newField(exprs, f.Source())
}
