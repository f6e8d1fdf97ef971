package symbolic

import "github.com/charmbracelet/log"

type differ struct {
	v    *Var
	memo map[Expr]Expr
}

func newDiffer(v *Var) *differ {
	return &differ{v: v, memo: make(map[Expr]Expr)}
}

func (d *differ) of(e Expr) Expr {
	if r, ok := d.memo[e]; ok {
		return r
	}
	r := e.diff(d)
	d.memo[e] = r
	return r
}

// Diff returns the derivative of e with respect to v. Differentiating with
// respect to Time propagates through FlatRef nodes by raising their order.
func Diff(e Expr, v *Var) Expr {
	return newDiffer(v).of(e)
}

// DiffAll differentiates several expressions, sharing work between common
// subtrees.
func DiffAll(es []Expr, v *Var) []Expr {
	d := newDiffer(v)
	out := make([]Expr, len(es))
	for i, e := range es {
		out[i] = d.of(e)
	}
	return out
}

func (n *Num) diff(*differ) Expr { return Zero }

func (v *Var) diff(d *differ) Expr {
	if v == d.v {
		return One
	}
	return Zero
}

func (r *FlatRef) diff(d *differ) Expr {
	if d.v == Time {
		return F(r.Axis, r.Order+1)
	}
	if axis, ok := d.v.Axis(); ok && axis == r.Axis {
		return One
	}
	log.Warn("symbolic: flat output differentiated by unrelated symbol", "ref", r.String(), "symbol", d.v.Name())
	return Zero
}

func (a *Add) diff(d *differ) Expr {
	terms := make([]Expr, len(a.Terms))
	for i, t := range a.Terms {
		terms[i] = d.of(t)
	}
	return Sum(terms...)
}

func (m *Mul) diff(d *differ) Expr {
	terms := make([]Expr, 0, len(m.Factors))
	for i, fi := range m.Factors {
		dfi := d.of(fi)
		if isNum(dfi, 0) {
			continue
		}
		factors := make([]Expr, 0, len(m.Factors))
		factors = append(factors, dfi)
		for j, fj := range m.Factors {
			if j != i {
				factors = append(factors, fj)
			}
		}
		terms = append(terms, Product(factors...))
	}
	return Sum(terms...)
}

func (p *Pow) diff(d *differ) Expr {
	db := d.of(p.Base)
	if c, ok := numValue(p.Exp); ok {
		if isNum(db, 0) {
			return Zero
		}
		return Product(Const(c), Power(p.Base, Const(c-1)), db)
	}
	de := d.of(p.Exp)
	if isNum(db, 0) && isNum(de, 0) {
		return Zero
	}
	// d(b^e) = b^e * (e' ln b + e b'/b)
	return Product(p, Sum(
		Product(de, Apply(Log, p.Base)),
		Product(p.Exp, db, Power(p.Base, Const(-1))),
	))
}

func (c *Call) diff(d *differ) Expr {
	da := d.of(c.Arg)
	if isNum(da, 0) {
		return Zero
	}
	a := c.Arg
	var outer Expr
	switch c.Fn {
	case Sin:
		outer = Apply(Cos, a)
	case Cos:
		outer = Neg(Apply(Sin, a))
	case Tan:
		outer = Sum(One, Square(c))
	case Asin:
		outer = Power(Apply(Sqrt, Minus(One, Square(a))), Const(-1))
	case Acos:
		outer = Neg(Power(Apply(Sqrt, Minus(One, Square(a))), Const(-1)))
	case Atan:
		outer = Power(Sum(One, Square(a)), Const(-1))
	case Exp:
		outer = c
	case Log:
		outer = Power(a, Const(-1))
	case Sqrt:
		outer = Product(Const(0.5), Power(c, Const(-1)))
	case Sinh:
		outer = Apply(Cosh, a)
	case Cosh:
		outer = Apply(Sinh, a)
	case Tanh:
		outer = Minus(One, Square(c))
	default:
		log.Warn("symbolic: no derivative rule", "func", string(c.Fn))
		return Zero
	}
	return Product(outer, da)
}

func (a *Atan2) diff(d *differ) Expr {
	dy := d.of(a.Y)
	dx := d.of(a.X)
	if isNum(dy, 0) && isNum(dx, 0) {
		return Zero
	}
	// d atan2(y, x) = (x y' - y x') / (x^2 + y^2)
	num := Minus(Product(a.X, dy), Product(a.Y, dx))
	return Quo(num, Sum(Square(a.X), Square(a.Y)))
}
