package control

import (
	"errors"

	"github.com/charmbracelet/log"

	"github.com/san-kum/flatsim/internal/dynamo"
	"github.com/san-kum/flatsim/internal/flatness"
)

// Source answers per-tick queries. *flatness.Engine and *flatness.Session
// both satisfy it.
type Source interface {
	Update(x, y, z, yaw float64) (flatness.InputRecord, flatness.StateRecord, error)
}

// Sample is one tick of a recorded feedforward trace.
type Sample struct {
	T     float64
	State flatness.StateRecord
	Input flatness.InputRecord
	Held  bool
}

// Feedforward queries the flatness engine for the command at the current
// flat output. When a query fails it repeats the last valid command, or the
// hover command before any query has succeeded.
type Feedforward struct {
	src    Source
	hover  flatness.InputRecord
	logger *log.Logger

	last      flatness.InputRecord
	lastState flatness.StateRecord
	valid     bool
	holds     int
	ticks     int
	err       error

	record bool
	trace  []Sample
}

type FeedforwardOption func(*Feedforward)

func WithLogger(l *log.Logger) FeedforwardOption {
	return func(f *Feedforward) { f.logger = l }
}

// WithTrace keeps every tick for later inspection.
func WithTrace() FeedforwardOption {
	return func(f *Feedforward) { f.record = true }
}

func NewFeedforward(src Source, p flatness.VehicleParameters, opts ...FeedforwardOption) *Feedforward {
	f := &Feedforward{
		src:    src,
		hover:  flatness.InputRecord{Thrust: p.HoverThrust()},
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.last = f.hover
	return f
}

func (f *Feedforward) Compute(x dynamo.State, t float64) dynamo.Control {
	var p [4]float64
	copy(p[:], x)
	f.ticks++

	in, st, err := f.src.Update(p[0], p[1], p[2], p[3])
	if err != nil {
		f.holds++
		f.err = err
		if errors.Is(err, flatness.ErrDomain) {
			f.logger.Warn("holding last command", "t", t, "err", err)
		} else {
			f.logger.Error("flatness query failed", "t", t, "err", err)
		}
		f.push(t, f.lastState, f.last, true)
		return dynamo.Control(f.last.Vector())
	}

	f.last, f.lastState, f.valid = in, st, true
	f.push(t, st, in, false)
	return dynamo.Control(in.Vector())
}

func (f *Feedforward) push(t float64, st flatness.StateRecord, in flatness.InputRecord, held bool) {
	if f.record {
		f.trace = append(f.trace, Sample{T: t, State: st, Input: in, Held: held})
	}
}

// LastState returns the state of the last successful query.
func (f *Feedforward) LastState() (flatness.StateRecord, bool) { return f.lastState, f.valid }

// Holds counts the ticks that repeated an earlier command.
func (f *Feedforward) Holds() int { return f.holds }

func (f *Feedforward) Ticks() int { return f.ticks }

// Err returns the most recent query error.
func (f *Feedforward) Err() error { return f.err }

func (f *Feedforward) Trace() []Sample { return f.trace }

func (f *Feedforward) Reset() {
	f.last = f.hover
	f.lastState = flatness.StateRecord{}
	f.valid = false
	f.holds, f.ticks = 0, 0
	f.err = nil
	f.trace = nil
}
