// Package models adapts flat-output fields to the simulation loop.
package models

import (
	"math"

	"github.com/charmbracelet/log"

	"github.com/san-kum/flatsim/internal/dynamo"
	"github.com/san-kum/flatsim/internal/field"
)

// FlatField is the flat-output kinematics dσ/dt = V(σ) as a dynamo.System.
// The state is (x, y, z, yaw) and the control input is ignored: the
// trajectory is prescribed, the commands only follow it.
type FlatField struct {
	field  *field.Field
	logger *log.Logger
}

func NewFlatField(f *field.Field) *FlatField {
	return &FlatField{field: f, logger: log.Default()}
}

// WithLogger replaces the logger used to report evaluation failures.
func (m *FlatField) WithLogger(l *log.Logger) *FlatField {
	m.logger = l
	return m
}

func (m *FlatField) Field() *field.Field { return m.field }

func (m *FlatField) StateDim() int   { return 4 }
func (m *FlatField) ControlDim() int { return 4 }

// Derive evaluates the field. A point outside the field's domain yields a
// NaN derivative, which the simulator reports as an invalid state.
func (m *FlatField) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	d, err := m.field.Derive(ToPoint(x))
	if err != nil {
		m.logger.Debug("field undefined", "t", t, "state", []float64(x), "err", err)
		return dynamo.State{math.NaN(), math.NaN(), math.NaN(), math.NaN()}
	}
	return dynamo.State(d[:])
}

// ToPoint copies up to four state entries into a field point.
func ToPoint(x dynamo.State) field.Point {
	var p field.Point
	copy(p[:], x)
	return p
}
