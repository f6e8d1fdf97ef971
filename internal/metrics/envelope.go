package metrics

import (
	"math"

	"github.com/san-kum/flatsim/internal/dynamo"
)

// Envelope is the fraction of ticks spent inside a box of half-width limit
// around the origin, checked on the position axes.
type Envelope struct {
	limit      float64
	violations int
	samples    int
}

func NewEnvelope(limit float64) *Envelope {
	return &Envelope{limit: limit}
}

func (e *Envelope) Name() string { return "envelope" }

func (e *Envelope) Observe(x dynamo.State, u dynamo.Control, t float64) {
	e.samples++
	for i := 0; i < len(x) && i < 3; i++ {
		if math.Abs(x[i]) > e.limit {
			e.violations++
			break
		}
	}
}

func (e *Envelope) Value() float64 {
	if e.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(e.violations)/float64(e.samples)
}

func (e *Envelope) Reset() {
	e.violations = 0
	e.samples = 0
}
