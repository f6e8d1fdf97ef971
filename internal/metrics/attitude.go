package metrics

import (
	"math"

	"github.com/san-kum/flatsim/internal/dynamo"
	"github.com/san-kum/flatsim/internal/flatness"
)

// AttitudeSource exposes the state behind the latest command, as
// control.Feedforward does.
type AttitudeSource interface {
	LastState() (flatness.StateRecord, bool)
}

// PeakTilt is the largest tilt from vertical, in radians, over the run.
// Observers run after the controller, so each tick sees the state for the
// command just issued.
type PeakTilt struct {
	src  AttitudeSource
	peak float64
}

func NewPeakTilt(src AttitudeSource) *PeakTilt {
	return &PeakTilt{src: src}
}

func (p *PeakTilt) Name() string { return "peak_tilt" }

func (p *PeakTilt) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if st, ok := p.src.LastState(); ok {
		p.peak = math.Max(p.peak, st.Tilt())
	}
}

func (p *PeakTilt) Value() float64 { return p.peak }

func (p *PeakTilt) Reset() { p.peak = 0 }

// HoldRate is the fraction of ticks on which the controller repeated an
// earlier command.
type HoldRate struct {
	src interface {
		Holds() int
		Ticks() int
	}
	base, baseTicks int
}

func NewHoldRate(src interface {
	Holds() int
	Ticks() int
}) *HoldRate {
	return &HoldRate{src: src}
}

func (h *HoldRate) Name() string { return "hold_rate" }

func (h *HoldRate) Observe(x dynamo.State, u dynamo.Control, t float64) {}

func (h *HoldRate) Value() float64 {
	ticks := h.src.Ticks() - h.baseTicks
	if ticks == 0 {
		return 0
	}
	return float64(h.src.Holds()-h.base) / float64(ticks)
}

func (h *HoldRate) Reset() {
	h.base, h.baseTicks = h.src.Holds(), h.src.Ticks()
}
