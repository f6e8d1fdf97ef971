package viz

import (
	"errors"
	"io"
	"math"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/flatsim/internal/control"
	"github.com/san-kum/flatsim/internal/dynamo"
	"github.com/san-kum/flatsim/internal/field"
	"github.com/san-kum/flatsim/internal/flatness"
	"github.com/san-kum/flatsim/internal/integrators"
	"github.com/san-kum/flatsim/internal/models"
)

func circleModel(t *testing.T) (Model, *control.Feedforward) {
	t.Helper()
	quiet := log.New(io.Discard)

	f, err := field.Parse([]string{"-y", "x", "0", "0"})
	require.NoError(t, err)
	p := flatness.DefaultParameters()
	eng, err := flatness.NewEngine(f, p, flatness.WithLogger(quiet))
	require.NoError(t, err)

	ff := control.NewFeedforward(eng, p, control.WithLogger(quiet))
	sim := dynamo.New(models.NewFlatField(f), integrators.NewRK4(), ff)
	return NewModel(sim, ff, dynamo.State{1, 0, 0, 0}, 0.01, 1, "circle"), ff
}

func tickN(m Model, n int) Model {
	for i := 0; i < n; i++ {
		next, _ := m.Update(TickMsg(time.Time{}))
		m = next.(Model)
	}
	return m
}

func TestModelSteps(t *testing.T) {
	m, ff := circleModel(t)
	m = tickN(m, 3)

	// 60 frames a second at dt = 0.01 is two ticks per frame.
	assert.InDelta(t, 0.06, m.t, 1e-12)
	assert.Equal(t, 6, ff.Ticks())
	assert.InDelta(t, 1, math.Hypot(m.x[0], m.x[1]), 1e-9)
	require.Len(t, m.thrust, 6)
	assert.InDelta(t, math.Hypot(1, 9.8), m.thrust[0], 1e-9)

	view := m.View()
	assert.Contains(t, view, "CIRCLE")
	assert.Contains(t, view, "thrust")
	assert.Contains(t, view, "RUNNING")
}

func TestModelStopsAtDuration(t *testing.T) {
	m, _ := circleModel(t)
	m = tickN(m, 60)
	assert.True(t, m.done)
	assert.InDelta(t, 1, m.t, 1e-9)
	assert.Contains(t, m.View(), "DONE")
}

func TestModelKeys(t *testing.T) {
	m, ff := circleModel(t)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = tickN(next.(Model), 2)
	assert.False(t, m.running)
	assert.Zero(t, m.t)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	m = next.(Model)
	assert.Equal(t, Themes[1].Name, m.theme.Name)

	m.running = true
	m = tickN(m, 2)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	m = next.(Model)
	assert.Zero(t, m.t)
	assert.Zero(t, ff.Ticks())
	assert.Len(t, m.xs, 1)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestModelStopsOnInvalidState(t *testing.T) {
	f, err := field.Parse([]string{"1/(x - 1)"})
	require.NoError(t, err)
	sim := dynamo.New(models.NewFlatField(f), integrators.NewEuler(), control.NewHover(flatness.DefaultParameters()))
	m := NewModel(sim, nil, dynamo.State{1, 0, 0, 0}, 0.01, 1, "pole")
	m = tickN(m, 1)

	assert.True(t, m.done)
	assert.True(t, errors.Is(m.err, dynamo.ErrInvalidState))
	assert.Contains(t, m.View(), "STOPPED")
}

func TestCanvasPath(t *testing.T) {
	c := NewCanvas(4, 2)
	v := Fit([]float64{0, 1}, []float64{0, 1})
	c.Path(v, []float64{0, 1}, []float64{0, 1})

	lit := 0
	for _, row := range c.Grid {
		for _, r := range row {
			if r != blank {
				lit++
			}
		}
	}
	assert.Positive(t, lit)

	x0, y0 := v.Project(c, 0, 0)
	x1, y1 := v.Project(c, 1, 1)
	assert.Less(t, x0, x1)
	assert.Greater(t, y0, y1, "y points up")

	c.Clear()
	assert.Equal(t, "⠀⠀⠀⠀\n⠀⠀⠀⠀\n", c.String())
}

func TestSparkline(t *testing.T) {
	s := newStyles(GetTheme("minimal"))
	assert.Equal(t, "───", s.Sparkline(nil, 3))
	assert.Equal(t, "░░░░", ProgressBar(-1, 4))
	assert.Equal(t, "██░░", ProgressBar(0.5, 4))
	assert.Equal(t, Themes[0], GetTheme("nope"))
}
