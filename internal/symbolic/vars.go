package symbolic

import "fmt"

// Axis identifies one component of the flat output.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
	AxisYaw
)

// NumAxes is the dimension of the flat output (x, y, z, yaw).
const NumAxes = 4

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	case AxisYaw:
		return "w"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// Valid reports whether a is one of the four flat-output axes.
func (a Axis) Valid() bool { return a >= AxisX && a <= AxisYaw }

// Var is a named symbol. Base variables carry the flat-output axis they stand
// for; Time carries none.
type Var struct {
	name string
	axis Axis
	base bool
}

var (
	X    = &Var{name: "x", axis: AxisX, base: true}
	Y    = &Var{name: "y", axis: AxisY, base: true}
	Z    = &Var{name: "z", axis: AxisZ, base: true}
	Yaw  = &Var{name: "w", axis: AxisYaw, base: true}
	Time = &Var{name: "t"}
)

// BaseVars lists the base variables in axis order.
var BaseVars = [NumAxes]*Var{X, Y, Z, Yaw}

// LookupVar resolves a base variable by its field-file name.
func LookupVar(name string) (*Var, bool) {
	for _, v := range BaseVars {
		if v.name == name {
			return v, true
		}
	}
	return nil, false
}

func (v *Var) Name() string { return v.name }

// Axis returns the flat-output axis of a base variable.
func (v *Var) Axis() (Axis, bool) { return v.axis, v.base }

func (v *Var) String() string { return v.name }
