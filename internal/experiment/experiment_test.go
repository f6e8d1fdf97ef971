package experiment

import (
	"context"
	"io"
	"math"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/flatsim/internal/config"
	"github.com/san-kum/flatsim/internal/control"
	"github.com/san-kum/flatsim/internal/dynamo"
	"github.com/san-kum/flatsim/internal/flatness"
)

var quiet = log.New(io.Discard)

func TestCruise(t *testing.T) {
	exp, err := New(config.GetPreset("cruise"), WithLogger(quiet), WithTrace())
	require.NoError(t, err)

	result, err := exp.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, result.Errors)

	final := result.Final()
	assert.InDelta(t, 19, final[0], 1e-9)
	assert.InDelta(t, -12, final[1], 1e-9)
	assert.InDelta(t, 19.6, result.Metrics["peak_thrust"], 1e-9)
	assert.InDelta(t, 0, result.Metrics["peak_tilt"], 1e-12)
	assert.Zero(t, result.Metrics["hold_rate"])
	assert.Len(t, exp.Trace(), result.StepsTaken)

	meta := exp.Metadata("cruise")
	assert.Equal(t, []string{"2", "-1", "0"}, meta.Field)
	assert.Equal(t, "rk4", meta.Integrator)
	assert.Equal(t, 2.0, meta.Mass)
}

func TestClimbInFlippedFrame(t *testing.T) {
	exp, err := New(config.GetPreset("climb"), WithLogger(quiet))
	require.NoError(t, err)

	result, err := exp.Run(context.Background())
	require.NoError(t, err)

	// z climbs toward 5 in the field frame, which is -5 for the caller.
	assert.InDelta(t, -5*(1-math.Exp(-5)), result.Final()[2], 1e-6)
	assert.InDelta(t, 1.2*(9.8+1.25), result.Metrics["peak_thrust"], 1e-9)
}

func TestSingularTickIsHeld(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Field.Lines = []string{"0", "0", "z"}
	cfg.Sim.Integrator = "euler"
	cfg.Sim.Duration = 0.05
	cfg.Sim.Init = [4]float64{0, 0, 9.8, 0}

	exp, err := New(cfg, WithLogger(quiet))
	require.NoError(t, err)
	result, err := exp.Run(context.Background())
	require.NoError(t, err)

	ff := exp.Controller().(*control.Feedforward)
	assert.Equal(t, 1, ff.Holds())
	assert.ErrorIs(t, ff.Err(), flatness.ErrDomain)
	assert.Equal(t, dynamo.Control{9.8, 0, 0, 0}, result.Controls[0])
	assert.InDelta(t, 0.2, result.Metrics["hold_rate"], 1e-12)
}

func TestHoverController(t *testing.T) {
	cfg := config.GetPreset("circle")
	cfg.Sim.Controller = "hover"
	cfg.Sim.Duration = 0.1

	exp, err := New(cfg, WithLogger(quiet))
	require.NoError(t, err)
	result, err := exp.Run(context.Background())
	require.NoError(t, err)
	for _, u := range result.Controls {
		assert.InDelta(t, 1.2*9.8, u[0], 1e-12)
	}
	assert.NotContains(t, result.Metrics, "peak_tilt")
}

func TestSweep(t *testing.T) {
	cfg := config.GetPreset("circle")
	cfg.Sim.Duration = 1

	exp, err := New(cfg, WithLogger(quiet))
	require.NoError(t, err)

	starts := []dynamo.State{{1, 0, 0, 0}, {2, 0, 1, 0}, {0, 3, 0, 0}}
	results, err := exp.Sweep(context.Background(), starts, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, r := range results {
		r0 := math.Hypot(starts[i][0], starts[i][1])
		f := r.Final()
		assert.InDelta(t, r0, math.Hypot(f[0], f[1]), 1e-6, "run %d", i)
		assert.InDelta(t, starts[i][2], f[2], 1e-12)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Sim.Integrator = "leapfrog"
	_, err := New(cfg, WithLogger(quiet))
	assert.ErrorContains(t, err, "unknown integrator")

	cfg = config.DefaultConfig()
	cfg.Field.Lines = []string{"x +"}
	_, err = New(cfg, WithLogger(quiet))
	assert.ErrorIs(t, err, flatness.ErrParse)

	cfg = config.DefaultConfig()
	cfg.Vehicle.Mass = -1
	_, err = New(cfg, WithLogger(quiet))
	assert.ErrorIs(t, err, flatness.ErrConfig)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"euler", "rk4", "rk45"}, r.ListIntegrators())
	assert.Equal(t, []string{"feedforward", "hover"}, r.ListControllers())
	_, err := r.GetController("lqr")
	assert.Error(t, err)
}

func TestSweepReportsBuildError(t *testing.T) {
	exp, err := New(config.GetPreset("circle"), WithLogger(quiet))
	require.NoError(t, err)

	exp.Config().Sim.Integrator = "leapfrog"
	results, err := exp.Sweep(context.Background(), []dynamo.State{{1, 0, 0, 0}}, 1)
	assert.ErrorContains(t, err, "unknown integrator")
	assert.Nil(t, results)
}
