// Package metrics summarizes feedforward runs.
package metrics

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/flatsim/internal/dynamo"
)

// ControlEffort is the mean L1 norm of the command per tick, thrust and
// torques together.
type ControlEffort struct {
	total float64
	ticks int
}

func NewControlEffort() *ControlEffort { return &ControlEffort{} }

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(x dynamo.State, u dynamo.Control, t float64) {
	c.total += floats.Norm(u, 1)
	c.ticks++
}

func (c *ControlEffort) Value() float64 {
	if c.ticks == 0 {
		return 0
	}
	return c.total / float64(c.ticks)
}

func (c *ControlEffort) Reset() { c.total, c.ticks = 0, 0 }
