package symbolic

import "math"

// Const returns a numeric constant.
func Const(v float64) Expr {
	switch v {
	case 0:
		return Zero
	case 1:
		return One
	}
	return &Num{Value: v}
}

func isNum(e Expr, v float64) bool {
	n, ok := e.(*Num)
	return ok && n.Value == v
}

func numValue(e Expr) (float64, bool) {
	n, ok := e.(*Num)
	if !ok {
		return 0, false
	}
	return n.Value, true
}

// Sum builds a flattened sum. Numeric terms are folded and zeros dropped.
func Sum(terms ...Expr) Expr {
	flat := make([]Expr, 0, len(terms))
	acc := 0.0
	for _, t := range terms {
		switch v := t.(type) {
		case *Num:
			acc += v.Value
		case *Add:
			for _, inner := range v.Terms {
				if n, ok := inner.(*Num); ok {
					acc += n.Value
				} else {
					flat = append(flat, inner)
				}
			}
		default:
			flat = append(flat, t)
		}
	}
	if acc != 0 {
		flat = append(flat, &Num{Value: acc})
	}
	switch len(flat) {
	case 0:
		return Zero
	case 1:
		return flat[0]
	}
	return &Add{Terms: flat}
}

// Product builds a flattened product with a single leading coefficient.
func Product(factors ...Expr) Expr {
	flat := make([]Expr, 0, len(factors))
	coeff := 1.0
	for _, f := range factors {
		switch v := f.(type) {
		case *Num:
			coeff *= v.Value
		case *Mul:
			for _, inner := range v.Factors {
				if n, ok := inner.(*Num); ok {
					coeff *= n.Value
				} else {
					flat = append(flat, inner)
				}
			}
		default:
			flat = append(flat, f)
		}
		if coeff == 0 {
			return Zero
		}
	}
	if len(flat) == 0 {
		return Const(coeff)
	}
	if coeff != 1 {
		flat = append([]Expr{&Num{Value: coeff}}, flat...)
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return &Mul{Factors: flat}
}

// Neg returns -e.
func Neg(e Expr) Expr { return Product(&Num{Value: -1}, e) }

// Minus returns a - b.
func Minus(a, b Expr) Expr { return Sum(a, Neg(b)) }

// Quo returns a / b.
func Quo(a, b Expr) Expr {
	if bv, ok := numValue(b); ok && bv != 0 {
		return Product(Const(1/bv), a)
	}
	return Product(a, Power(b, &Num{Value: -1}))
}

// Square returns e^2.
func Square(e Expr) Expr { return Power(e, &Num{Value: 2}) }

// Power builds base^exp, folding numeric cases that stay real and finite.
func Power(base, exp Expr) Expr {
	ev, expNum := numValue(exp)
	if expNum {
		switch ev {
		case 0:
			return One
		case 1:
			return base
		}
	}
	if bv, ok := numValue(base); ok {
		if bv == 1 {
			return One
		}
		if expNum {
			if r := math.Pow(bv, ev); !math.IsNaN(r) && !math.IsInf(r, 0) {
				return Const(r)
			}
		}
	}
	if inner, ok := base.(*Pow); ok && expNum && ev == math.Trunc(ev) {
		if iv, ok := numValue(inner.Exp); ok && iv == math.Trunc(iv) {
			return Power(inner.Base, Const(iv*ev))
		}
	}
	return &Pow{Base: base, Exp: exp}
}

// Apply builds fn(arg), folding constant arguments inside the function's domain.
func Apply(fn Func, arg Expr) Expr {
	if v, ok := numValue(arg); ok {
		if r, err := applyFunc(fn, v); err == nil {
			return Const(r)
		}
	}
	return &Call{Fn: fn, Arg: arg}
}

// NewAtan2 builds atan2(y, x). atan2(0, 0) is never folded.
func NewAtan2(y, x Expr) Expr {
	yv, yok := numValue(y)
	xv, xok := numValue(x)
	if yok && xok && (yv != 0 || xv != 0) {
		return Const(math.Atan2(yv, xv))
	}
	return &Atan2{Y: y, X: x}
}

// Subs replaces variables according to repl and rebuilds the tree through the
// simplifying constructors.
func Subs(e Expr, repl map[*Var]Expr) Expr {
	memo := make(map[Expr]Expr)
	var rec func(Expr) Expr
	rec = func(e Expr) Expr {
		if r, ok := memo[e]; ok {
			return r
		}
		var out Expr
		switch v := e.(type) {
		case *Var:
			if r, ok := repl[v]; ok {
				out = r
			} else {
				out = v
			}
		case *Add:
			terms := make([]Expr, len(v.Terms))
			for i, t := range v.Terms {
				terms[i] = rec(t)
			}
			out = Sum(terms...)
		case *Mul:
			factors := make([]Expr, len(v.Factors))
			for i, f := range v.Factors {
				factors[i] = rec(f)
			}
			out = Product(factors...)
		case *Pow:
			out = Power(rec(v.Base), rec(v.Exp))
		case *Call:
			out = Apply(v.Fn, rec(v.Arg))
		case *Atan2:
			out = NewAtan2(rec(v.Y), rec(v.X))
		default:
			out = e
		}
		memo[e] = out
		return out
	}
	return rec(e)
}
