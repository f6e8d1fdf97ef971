package flatness

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// StandardGravity is the gravitational acceleration used unless a vehicle
// overrides it.
const StandardGravity = 9.8

// VehicleParameters are fixed for the lifetime of an Engine. Changing any of
// them requires a new Engine.
type VehicleParameters struct {
	Mass    float64
	Inertia *mat.Dense
	Gravity float64
}

// NewVehicleParameters builds parameters with standard gravity.
func NewVehicleParameters(mass float64, inertia [3][3]float64) VehicleParameters {
	data := make([]float64, 0, 9)
	for _, row := range inertia {
		data = append(data, row[:]...)
	}
	return VehicleParameters{
		Mass:    mass,
		Inertia: mat.NewDense(3, 3, data),
		Gravity: StandardGravity,
	}
}

// DefaultParameters is a 1 kg vehicle with identity inertia.
func DefaultParameters() VehicleParameters {
	return NewVehicleParameters(1, [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
}

// HoverThrust is the thrust that balances gravity.
func (p VehicleParameters) HoverThrust() float64 { return p.Mass * p.Gravity }

func (p VehicleParameters) Validate() error {
	if !(p.Mass > 0) || math.IsInf(p.Mass, 0) {
		return &ConfigError{Reason: fmt.Sprintf("mass must be positive and finite, got %g", p.Mass)}
	}
	if !(p.Gravity > 0) || math.IsInf(p.Gravity, 0) {
		return &ConfigError{Reason: fmt.Sprintf("gravity must be positive and finite, got %g", p.Gravity)}
	}
	if p.Inertia == nil {
		return &ConfigError{Reason: "inertia tensor missing"}
	}
	if r, c := p.Inertia.Dims(); r != 3 || c != 3 {
		return &ConfigError{Reason: fmt.Sprintf("inertia tensor must be 3x3, got %dx%d", r, c)}
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v := p.Inertia.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &ConfigError{Reason: fmt.Sprintf("inertia[%d][%d] is not finite", i, j)}
			}
		}
		if p.Inertia.At(i, i) <= 0 {
			return &ConfigError{Reason: fmt.Sprintf("inertia[%d][%d] must be positive", i, i)}
		}
	}
	if !mat.EqualApprox(p.Inertia, p.Inertia.T(), 1e-9) {
		return &ConfigError{Reason: "inertia tensor must be symmetric"}
	}
	return nil
}

func (p VehicleParameters) String() string {
	return fmt.Sprintf("mass=%g gravity=%g inertia=%v", p.Mass, p.Gravity, mat.Formatted(p.Inertia, mat.Squeeze()))
}
