package flatness

import (
	sym "github.com/san-kum/flatsim/internal/symbolic"
)

// Equations is the endogenous transformation: closed-form expressions for
// attitude, body rates and commands in terms of the flat-output references
// symF(axis, order). It depends only on the vehicle parameters, never on a
// particular field or query.
type Equations struct {
	Params VehicleParameters

	Ba, Bb, Bc sym.Expr

	Phi, Theta, Psi    sym.Expr
	DPhi, DTheta, DPsi sym.Expr

	// T maps Euler rates to body rates.
	T      *sym.Matrix
	Omega  *sym.Matrix
	DOmega *sym.Matrix

	Torque *sym.Matrix
	Thrust sym.Expr
}

// BuildEquations derives the transformation for p. Building twice with the
// same parameters yields equivalent expressions.
func BuildEquations(p VehicleParameters) *Equations {
	g := sym.Const(p.Gravity)
	yaw := sym.F(sym.AxisYaw, 0)
	x2 := sym.F(sym.AxisX, 2)
	y2 := sym.F(sym.AxisY, 2)
	z2 := sym.F(sym.AxisZ, 2)
	cy, sy := sym.Apply(sym.Cos, yaw), sym.Apply(sym.Sin, yaw)

	eq := &Equations{Params: p}

	eq.Ba = sym.Minus(sym.Neg(sym.Product(cy, x2)), sym.Product(sy, y2))
	eq.Bb = sym.Sum(sym.Neg(z2), g)
	eq.Bc = sym.Sum(sym.Neg(sym.Product(sy, x2)), sym.Product(cy, y2))

	eq.Phi = sym.NewAtan2(eq.Bc, sym.Apply(sym.Sqrt, sym.Sum(sym.Square(eq.Ba), sym.Square(eq.Bb))))
	eq.Theta = sym.NewAtan2(eq.Ba, eq.Bb)
	eq.Psi = yaw

	rates := sym.DiffAll([]sym.Expr{eq.Phi, eq.Theta, eq.Psi}, sym.Time)
	eq.DPhi, eq.DTheta, eq.DPsi = rates[0], rates[1], rates[2]

	cphi, sphi := sym.Apply(sym.Cos, eq.Phi), sym.Apply(sym.Sin, eq.Phi)
	cth, sth := sym.Apply(sym.Cos, eq.Theta), sym.Apply(sym.Sin, eq.Theta)
	eq.T = sym.MatrixOf(
		[]sym.Expr{sym.Product(cphi, cth), sym.Neg(sphi), sym.Zero},
		[]sym.Expr{sym.Product(cth, sphi), cphi, sym.Zero},
		[]sym.Expr{sym.Neg(sth), sym.Zero, sym.One},
	)
	eq.Omega = eq.T.Mul(sym.Column(eq.DPhi, eq.DTheta, eq.DPsi))
	eq.DOmega = eq.Omega.Diff(sym.Time)

	j := sym.ConstMatrix(p.Inertia)
	eq.Torque = j.Mul(eq.DOmega).Add(sym.Skew(eq.Omega).Mul(j).Mul(eq.Omega))

	eq.Thrust = sym.Product(sym.Const(p.Mass), sym.Apply(sym.Sqrt, sym.Sum(
		sym.Square(x2),
		sym.Square(y2),
		sym.Square(sym.Minus(z2, g)),
	)))

	return eq
}

// MaxOrder is the highest flat-output derivative the equations reference.
func (eq *Equations) MaxOrder() int {
	top := sym.MaxOrder(eq.Thrust)
	for _, e := range eq.Torque.Col(0) {
		if o := sym.MaxOrder(e); o > top {
			top = o
		}
	}
	return top
}

// Size counts distinct expression nodes in the command expressions.
func (eq *Equations) Size() int {
	n := sym.Size(eq.Thrust)
	for _, e := range eq.Torque.Col(0) {
		n += sym.Size(e)
	}
	return n
}
