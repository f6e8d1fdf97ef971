package control

import (
	"github.com/san-kum/flatsim/internal/dynamo"
	"github.com/san-kum/flatsim/internal/flatness"
)

// Hover commands the thrust that balances gravity and no torque.
type Hover struct {
	thrust float64
}

func NewHover(p flatness.VehicleParameters) *Hover {
	return &Hover{thrust: p.HoverThrust()}
}

func (h *Hover) Compute(x dynamo.State, t float64) dynamo.Control {
	return dynamo.Control{h.thrust, 0, 0, 0}
}
