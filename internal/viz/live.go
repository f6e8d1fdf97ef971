package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/flatsim/internal/dynamo"
	"github.com/san-kum/flatsim/internal/flatness"
)

const (
	canvasWidth     = 48
	canvasHeight    = 20
	historyCapacity = 600
	frameRate       = 60
)

// Feed is the attitude side of the controller, as control.Feedforward
// provides it.
type Feed interface {
	LastState() (flatness.StateRecord, bool)
	Holds() int
	Reset()
}

type TickMsg time.Time

// Model steps a simulation in real time and renders it.
type Model struct {
	sim      *dynamo.Simulator
	feed     Feed
	x0       dynamo.State
	dt       float64
	duration float64
	title    string

	stepper *dynamo.Stepper
	perTick int

	x      dynamo.State
	u      dynamo.Control
	t      float64
	held   bool
	holds  int
	xs, ys []float64
	thrust []float64
	tilt   []float64

	canvas   *Canvas
	theme    Theme
	styles   styles
	running  bool
	done     bool
	showHelp bool
	err      error
}

// NewModel prepares a live view of sim starting at x0. feed may be nil when
// the controller exposes no attitude.
func NewModel(sim *dynamo.Simulator, feed Feed, x0 dynamo.State, dt, duration float64, title string) Model {
	m := Model{
		sim:      sim,
		feed:     feed,
		x0:       x0.Clone(),
		dt:       dt,
		duration: duration,
		title:    title,
		perTick:  max(1, int(math.Round(1/(frameRate*dt)))),
		canvas:   NewCanvas(canvasWidth, canvasHeight),
		theme:    Themes[0],
		styles:   newStyles(Themes[0]),
		running:  true,
	}
	m.restart()
	return m
}

func (m *Model) restart() {
	if m.feed != nil {
		m.feed.Reset()
	}
	m.stepper = m.sim.Stepper(m.x0, m.dt)
	m.x, m.u, m.t = m.x0.Clone(), nil, 0
	m.held, m.holds = false, 0
	m.xs = append(m.xs[:0], m.x0[0])
	m.ys = append(m.ys[:0], m.x0[1])
	m.thrust, m.tilt = m.thrust[:0], m.tilt[:0]
	m.done, m.err = false, nil
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.restart()
		case "t":
			m.theme = nextTheme(m.theme.Name)
			m.styles = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && !m.done {
			for i := 0; i < m.perTick && !m.done; i++ {
				m.step()
			}
		}
		return m, tick()
	}
	return m, nil
}

// step advances one simulation tick and records what the view shows.
func (m *Model) step() {
	_, u, err := m.stepper.Step()
	if err != nil {
		m.err, m.done = err, true
		return
	}
	m.u = u
	m.t = m.stepper.Time()
	m.x = m.stepper.State()

	if m.feed != nil {
		holds := m.feed.Holds()
		m.held = holds > m.holds
		m.holds = holds
		if st, ok := m.feed.LastState(); ok {
			m.tilt = appendBounded(m.tilt, st.Tilt()*180/math.Pi)
		}
	}
	m.thrust = appendBounded(m.thrust, u[0])
	m.xs = appendBounded(m.xs, m.x[0])
	m.ys = appendBounded(m.ys, m.x[1])

	if m.t >= m.duration-1e-12 {
		m.done = true
	}
}

func appendBounded(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return m.styles.held.Render("STOPPED")
	case m.done:
		return m.styles.ok.Render("DONE")
	case !m.running:
		return m.styles.paused.Render("PAUSED")
	case m.held:
		return m.styles.held.Render("HOLDING")
	}
	return m.styles.ok.Render("RUNNING")
}

func (m Model) row(label, value string) string {
	return m.styles.label.Render(label) + m.styles.value.Render(value) + "\n"
}

func (m Model) View() string {
	s := m.styles

	m.canvas.Clear()
	m.canvas.Path(Fit(m.xs, m.ys), m.xs, m.ys)
	left := s.panel.Render(m.canvas.String())

	var b strings.Builder
	b.WriteString(s.header.Render(strings.ToUpper(m.title)) + "\n")
	b.WriteString(m.status() + "  " + ProgressBar(m.t/m.duration, 20) + "\n\n")

	b.WriteString(m.row("time", fmt.Sprintf("%.2fs", m.t)))
	if len(m.x) >= 4 {
		b.WriteString(m.row("position", fmt.Sprintf("%7.3f %7.3f %7.3f", m.x[0], m.x[1], m.x[2])))
		b.WriteString(m.row("yaw", fmt.Sprintf("%7.3f", m.x[3])))
	}
	if m.feed != nil {
		if st, ok := m.feed.LastState(); ok {
			b.WriteString(m.row("attitude", fmt.Sprintf("%7.2f %7.2f %7.2f deg",
				st.Phi*180/math.Pi, st.Theta*180/math.Pi, st.Psi*180/math.Pi)))
			b.WriteString(m.row("rates", fmt.Sprintf("%7.3f %7.3f %7.3f", st.P, st.Q, st.R)))
		}
		b.WriteString(m.row("holds", fmt.Sprintf("%d", m.holds)))
	}
	if len(m.u) >= 4 {
		b.WriteString(m.row("thrust", fmt.Sprintf("%.3f", m.u[0])))
		b.WriteString(m.row("torque", fmt.Sprintf("%7.4f %7.4f %7.4f", m.u[1], m.u[2], m.u[3])))
	}
	if m.err != nil {
		b.WriteString(s.held.Render(m.err.Error()) + "\n")
	}

	if len(m.thrust) > 1 {
		chart := asciigraph.Plot(m.thrust, asciigraph.Height(5), asciigraph.Width(36), asciigraph.Caption("thrust"))
		b.WriteString(s.graph.Render(chart) + "\n")
	}
	if len(m.tilt) > 0 {
		b.WriteString(m.row("tilt", s.Sparkline(m.tilt, 30)))
	}

	if m.showHelp {
		b.WriteString(s.help.Render("space pause/resume  r restart\nt theme (" + m.theme.Name + ")  ? help  q quit"))
	} else {
		b.WriteString(s.help.Render("? help  q quit"))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, left, s.panel.Render(b.String()))
}

// Run starts the interactive view and blocks until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
