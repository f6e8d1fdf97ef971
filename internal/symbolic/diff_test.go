package symbolic

import (
	"math"
	"testing"
)

func evalAt(t *testing.T, e Expr, p [NumAxes]float64) float64 {
	t.Helper()
	v, err := Eval(e, NewValues().SetPoint(p))
	if err != nil {
		t.Fatalf("eval %s failed: %v", e, err)
	}
	return v
}

func TestDiffRules(t *testing.T) {
	p := [NumAxes]float64{0.7, -1.3, 0.4, 0.2}
	x, y, z := p[0], p[1], p[2]

	tests := []struct {
		name string
		expr Expr
		v    *Var
		want float64
	}{
		{"constant", Const(4), X, 0},
		{"self", X, X, 1},
		{"other", Y, X, 0},
		{"polynomial", Power(X, Const(3)), X, 3 * x * x},
		{"product", Product(X, Y, Z), Y, x * z},
		{"sin chain", Apply(Sin, Product(X, Y)), X, y * math.Cos(x*y)},
		{"cos", Apply(Cos, X), X, -math.Sin(x)},
		{"tan", Apply(Tan, X), X, 1 + math.Tan(x)*math.Tan(x)},
		{"exp", Apply(Exp, Product(Const(2), X)), X, 2 * math.Exp(2*x)},
		{"log", Apply(Log, X), X, 1 / x},
		{"sqrt", Apply(Sqrt, Sum(Square(X), Const(1))), X, x / math.Sqrt(x*x+1)},
		{"atan", Apply(Atan, X), X, 1 / (1 + x*x)},
		{"asin", Apply(Asin, X), X, 1 / math.Sqrt(1-x*x)},
		{"acos", Apply(Acos, X), X, -1 / math.Sqrt(1-x*x)},
		{"sinh", Apply(Sinh, X), X, math.Cosh(x)},
		{"tanh", Apply(Tanh, X), X, 1 - math.Tanh(x)*math.Tanh(x)},
		{"quotient", Quo(X, Y), Y, -x / (y * y)},
		{"atan2 y", NewAtan2(Y, X), Y, x / (x*x + y*y)},
		{"atan2 x", NewAtan2(Y, X), X, -y / (x*x + y*y)},
		{"variable exponent", Power(Z, X), X, math.Pow(z, x) * math.Log(z)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evalAt(t, Diff(tt.expr, tt.v), p)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("d/d%s %s = %v, want %v", tt.v.Name(), tt.expr, got, tt.want)
			}
		})
	}
}

func TestDiffAgainstCentralDifference(t *testing.T) {
	e := Sum(
		Product(Apply(Sin, Product(X, Yaw)), Power(Y, Const(2))),
		Quo(Apply(Exp, Z), Sum(Const(2), Apply(Cos, X))),
		NewAtan2(Y, Sum(X, Const(3))),
	)
	p := [NumAxes]float64{0.3, -0.8, 0.5, 1.1}
	h := 1e-6

	for i, v := range BaseVars {
		plus, minus := p, p
		plus[i] += h
		minus[i] -= h
		want := (evalAt(t, e, plus) - evalAt(t, e, minus)) / (2 * h)
		got := evalAt(t, Diff(e, v), p)
		if math.Abs(got-want) > 1e-6 {
			t.Errorf("d/d%s: got %v, central difference %v", v.Name(), got, want)
		}
	}
}

func TestFlatRefTimeDerivative(t *testing.T) {
	d := Diff(F(AxisX, 2), Time)
	ref, ok := d.(*FlatRef)
	if !ok {
		t.Fatalf("expected FlatRef, got %T", d)
	}
	if ref.Axis != AxisX || ref.Order != 3 {
		t.Errorf("got %s, want symF(x,3)", ref)
	}

	chain := Diff(Apply(Cos, F(AxisYaw, 0)), Time)
	if got := chain.String(); got != "-sin(symF(w,0))*symF(w,1)" {
		t.Errorf("chain rule through flat ref: got %s", got)
	}
}

func TestFlatRefVariableDerivative(t *testing.T) {
	if got := Diff(F(AxisY, 1), Y); got != One {
		t.Errorf("d/dy symF(y,1) = %v, want 1", got)
	}
	if got := Diff(F(AxisY, 1), X); got != Zero {
		t.Errorf("d/dx symF(y,1) = %v, want 0", got)
	}
}

func TestDiffAllSharesSubtrees(t *testing.T) {
	shared := Apply(Sin, Product(X, Y))
	out := DiffAll([]Expr{Product(Const(2), shared), Product(Const(3), shared)}, X)
	m0, ok0 := out[0].(*Mul)
	m1, ok1 := out[1].(*Mul)
	if !ok0 || !ok1 {
		t.Fatalf("unexpected shapes %T %T", out[0], out[1])
	}
	found := false
	for _, a := range m0.Factors {
		for _, b := range m1.Factors {
			if a == b {
				if _, isNum := a.(*Num); !isNum {
					found = true
				}
			}
		}
	}
	if !found {
		t.Error("derivative of a shared subtree should be reused")
	}
}
