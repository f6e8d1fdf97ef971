package metrics

import (
	"math"

	"github.com/san-kum/flatsim/internal/dynamo"
)

// Peak tracks the largest magnitude of one command channel.
type Peak struct {
	name    string
	channel int
	peak    float64
}

// NewPeakThrust tracks the largest thrust command.
func NewPeakThrust() *Peak {
	return &Peak{name: "peak_thrust", channel: 0}
}

// NewPeakTorque tracks the largest torque magnitude.
func NewPeakTorque() *Peak {
	return &Peak{name: "peak_torque", channel: -1}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(x dynamo.State, u dynamo.Control, t float64) {
	var v float64
	switch {
	case p.channel >= 0 && p.channel < len(u):
		v = math.Abs(u[p.channel])
	case p.channel < 0 && len(u) >= 4:
		v = math.Sqrt(u[1]*u[1] + u[2]*u[2] + u[3]*u[3])
	}
	p.peak = math.Max(p.peak, v)
}

func (p *Peak) Value() float64 { return p.peak }

func (p *Peak) Reset() { p.peak = 0 }
