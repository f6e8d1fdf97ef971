package control

import (
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/flatsim/internal/dynamo"
	"github.com/san-kum/flatsim/internal/field"
	"github.com/san-kum/flatsim/internal/flatness"
)

var quiet = log.New(io.Discard)

type scripted struct {
	errs  []error
	calls [][4]float64
}

func (s *scripted) Update(x, y, z, yaw float64) (flatness.InputRecord, flatness.StateRecord, error) {
	s.calls = append(s.calls, [4]float64{x, y, z, yaw})
	i := len(s.calls) - 1
	if i < len(s.errs) && s.errs[i] != nil {
		return flatness.InputRecord{}, flatness.StateRecord{}, s.errs[i]
	}
	return flatness.InputRecord{Thrust: float64(i + 1), TorqueZ: 0.5}, flatness.StateRecord{X: x, Phi: 0.1}, nil
}

func TestFeedforwardHoldsLastCommand(t *testing.T) {
	domain := &flatness.DomainError{Quantity: "bb", Err: errors.New("singular")}
	src := &scripted{errs: []error{domain, nil, domain, nil}}
	params := flatness.NewVehicleParameters(2, [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	ff := NewFeedforward(src, params, WithLogger(quiet), WithTrace())

	u := ff.Compute(dynamo.State{0, 0, 9.8, 0}, 0)
	assert.Equal(t, dynamo.Control{19.6, 0, 0, 0}, u, "hover before the first valid command")
	_, ok := ff.LastState()
	assert.False(t, ok)

	u = ff.Compute(dynamo.State{1, 0, 0, 0}, 0.1)
	assert.Equal(t, dynamo.Control{2, 0, 0, 0.5}, u)

	u = ff.Compute(dynamo.State{2, 0, 0, 0}, 0.2)
	assert.Equal(t, dynamo.Control{2, 0, 0, 0.5}, u, "held")
	assert.ErrorIs(t, ff.Err(), flatness.ErrDomain)

	u = ff.Compute(dynamo.State{3, 0, 0, 0}, 0.3)
	assert.Equal(t, dynamo.Control{4, 0, 0, 0.5}, u)

	assert.Equal(t, 2, ff.Holds())
	assert.Equal(t, 4, ff.Ticks())
	st, ok := ff.LastState()
	require.True(t, ok)
	assert.Equal(t, 3.0, st.X)

	trace := ff.Trace()
	require.Len(t, trace, 4)
	assert.True(t, trace[0].Held)
	assert.False(t, trace[1].Held)
	assert.True(t, trace[2].Held)
	assert.Equal(t, 0.2, trace[2].T)

	ff.Reset()
	assert.Zero(t, ff.Holds())
	assert.Nil(t, ff.Trace())
	assert.NoError(t, ff.Err())
}

func TestFeedforwardPadsShortStates(t *testing.T) {
	src := &scripted{}
	ff := NewFeedforward(src, flatness.DefaultParameters(), WithLogger(quiet))
	ff.Compute(dynamo.State{5}, 0)
	assert.Equal(t, [][4]float64{{5, 0, 0, 0}}, src.calls)
	assert.Nil(t, ff.Trace())
}

func TestFeedforwardUninitializedSession(t *testing.T) {
	ff := NewFeedforward(flatness.NewSession(), flatness.DefaultParameters(), WithLogger(quiet))
	u := ff.Compute(dynamo.State{0, 0, 0, 0}, 0)
	assert.Equal(t, dynamo.Control{9.8, 0, 0, 0}, u)
	assert.ErrorIs(t, ff.Err(), flatness.ErrConfig)
}

func TestFeedforwardWithEngine(t *testing.T) {
	f, err := field.Parse([]string{"2", "-1", "0"})
	require.NoError(t, err)
	params := flatness.NewVehicleParameters(2, [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	eng, err := flatness.NewEngine(f, params, flatness.WithLogger(quiet))
	require.NoError(t, err)

	ff := NewFeedforward(eng, params, WithLogger(quiet))
	u := ff.Compute(dynamo.State{-1, -2, 0, 0}, 0)
	require.Len(t, u, 4)
	assert.InDelta(t, 19.6, u[0], 1e-9)
	assert.InDeltaSlice(t, []float64{0, 0, 0}, []float64(u[1:]), 1e-9)
	assert.Zero(t, ff.Holds())
}

func TestHover(t *testing.T) {
	h := NewHover(flatness.NewVehicleParameters(1.5, [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}))
	assert.InDeltaSlice(t, []float64{14.7, 0, 0, 0}, []float64(h.Compute(nil, 0)), 1e-12)
}
