package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/flatsim/internal/config"
	"github.com/san-kum/flatsim/internal/control"
	"github.com/san-kum/flatsim/internal/dynamo"
	"github.com/san-kum/flatsim/internal/experiment"
	"github.com/san-kum/flatsim/internal/export"
	"github.com/san-kum/flatsim/internal/field"
	"github.com/san-kum/flatsim/internal/flatness"
	"github.com/san-kum/flatsim/internal/storage"
	"github.com/san-kum/flatsim/internal/symbolic"
	"github.com/san-kum/flatsim/internal/viz"
)

var (
	dataDir string
	verbose bool
	logger  *log.Logger

	configFile string
	preset     string
	fieldFile  string
	convention string
	mass       float64
	dt         float64
	duration   float64
	integrator string
	controller string
	initState  []float64

	runName string
	workers int
	noTrace bool
	outFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "flatsim",
		Short:         "differential flatness feedforward for quadrotors",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "flatsim"})
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".flatsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	deriveCmd := &cobra.Command{
		Use:   "derive",
		Short: "print the derivative ladder and flatness equations",
		Args:  cobra.NoArgs,
		RunE:  deriveEquations,
	}
	addSetupFlags(deriveCmd)

	evalCmd := &cobra.Command{
		Use:   "eval x y z yaw",
		Short: "evaluate state and inputs at one flat output",
		Args:  cobra.ExactArgs(4),
		RunE:  evalPoint,
	}
	addSetupFlags(evalCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate and store a run",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSetupFlags(runCmd)
	addSimFlags(runCmd)
	runCmd.Flags().StringVar(&runName, "name", "", "run name")
	runCmd.Flags().BoolVar(&noTrace, "no-trace", false, "skip attitude.csv")

	sweepCmd := &cobra.Command{
		Use:   "sweep x,y,z,yaw [x,y,z,yaw...]",
		Short: "simulate from several starts in parallel",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSweep,
	}
	addSetupFlags(sweepCmd)
	addSimFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (0 = one per CPU)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "watch a simulation in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSetupFlags(liveCmd)
	addSimFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run as json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
		},
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a run's states as csv",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportCSV(os.Stdout, args[0])
		},
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a run's top-down path as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(deriveCmd, evalCmd, runCmd, sweepCmd, liveCmd, listCmd, plotCmd,
		exportJSONCmd, exportCSVCmd, exportSVGCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addSetupFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&fieldFile, "field", "", "field file, one expression per line")
	cmd.Flags().StringVar(&convention, "convention", "", "axis convention (native, flip_yz)")
	cmd.Flags().Float64Var(&mass, "mass", config.DefaultMass, "vehicle mass")
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator")
	cmd.Flags().StringVar(&controller, "controller", config.DefaultController, "controller")
	cmd.Flags().Float64SliceVar(&initState, "init", nil, "initial flat output x,y,z,yaw")
}

// loadConfig starts from a preset, a config file or the defaults, in that
// order, and applies the flags the user set on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	default:
		cfg = config.DefaultConfig()
	}

	flags := cmd.Flags()
	if flags.Changed("field") {
		cfg.Field.File, cfg.Field.Lines = fieldFile, nil
	}
	if flags.Changed("convention") {
		cfg.Field.Convention = convention
	}
	if flags.Changed("mass") {
		cfg.Vehicle.Mass = mass
	}
	if flags.Changed("dt") {
		cfg.Sim.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Sim.Duration = duration
	}
	if flags.Changed("integrator") {
		cfg.Sim.Integrator = integrator
	}
	if flags.Changed("controller") {
		cfg.Sim.Controller = controller
	}
	if flags.Changed("init") {
		if len(initState) != 4 {
			return nil, fmt.Errorf("--init needs 4 values, got %d", len(initState))
		}
		copy(cfg.Sim.Init[:], initState)
	}
	return cfg, nil
}

func buildEngine(cmd *cobra.Command) (*flatness.Engine, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	f, err := cfg.LoadField()
	if err != nil {
		return nil, err
	}
	return flatness.NewEngine(f, cfg.VehicleParameters(),
		flatness.WithConvention(cfg.Convention()),
		flatness.WithLogger(logger))
}

func deriveEquations(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine(cmd)
	if err != nil {
		return err
	}
	f, ladder, eqs := eng.Field(), eng.Ladder(), eng.Equations()

	fmt.Printf("field (%d components, %s):\n", f.Dim(), eng.Convention())
	for i, src := range f.Source() {
		fmt.Printf("  %s' = %s\n", symbolic.Axis(i), src)
	}

	sizes := ladder.Size()
	fmt.Println("\nderivative ladder:")
	for k := 1; k <= field.Orders; k++ {
		fmt.Printf("  D%d (%d nodes) = %s\n", k, sizes[k-1], ladder.D(k))
	}

	fmt.Printf("\nvehicle:\n%s\n", eng.Params())
	fmt.Printf("\nequations (%d nodes, flat output order %d):\n", eqs.Size(), eqs.MaxOrder())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  phi\t%s\n", eqs.Phi)
	fmt.Fprintf(w, "  theta\t%s\n", eqs.Theta)
	fmt.Fprintf(w, "  psi\t%s\n", eqs.Psi)
	fmt.Fprintf(w, "  omega\t%s\n", eqs.Omega)
	fmt.Fprintf(w, "  thrust\t%s\n", eqs.Thrust)
	fmt.Fprintf(w, "  torque\t%s\n", eqs.Torque)
	return w.Flush()
}

// evalPoint runs a single query through a Session, the way a host would.
func evalPoint(cmd *cobra.Command, args []string) error {
	var p [4]float64
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return fmt.Errorf("argument %d: %w", i+1, err)
		}
		p[i] = v
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	session := flatness.NewSession(flatness.WithConvention(cfg.Convention()), flatness.WithLogger(logger))
	params := cfg.VehicleParameters()
	if cfg.Field.File != "" && params.Gravity == flatness.StandardGravity {
		err = session.Init(cfg.Field.File, cfg.Vehicle.Mass, cfg.Vehicle.Inertia)
	} else {
		var f *field.Field
		if f, err = cfg.LoadField(); err == nil {
			err = session.InitField(f, params)
		}
	}
	if err != nil {
		return err
	}

	in, st, err := session.Update(p[0], p[1], p[2], p[3])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, name := range flatness.StateFields {
		fmt.Fprintf(w, "%s\t%.9g\n", name, st.Vector()[i])
	}
	fmt.Fprintln(w, "\t")
	for i, name := range flatness.InputFields {
		fmt.Fprintf(w, "%s\t%.9g\n", name, in.Vector()[i])
	}
	return w.Flush()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []experiment.Option{experiment.WithLogger(logger)}
	if !noTrace {
		opts = append(opts, experiment.WithTrace())
	}
	exp, err := experiment.New(cfg, opts...)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	name := runName
	if name == "" {
		name = preset
	}

	logger.Info("running simulation", "integrator", cfg.Sim.Integrator, "duration", cfg.Sim.Duration)
	start := time.Now()
	result, err := exp.Run(context.Background())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(exp.Metadata(name), result, exp.Trace())
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	printFinal(result)
	printMetrics(result.Metrics)
	return nil
}

func printFinal(result *dynamo.Result) {
	if final := result.Final(); len(final) == 4 {
		fmt.Printf("final: x=%.4f y=%.4f z=%.4f yaw=%.4f\n", final[0], final[1], final[2], final[3])
	}
}

func printMetrics(metrics map[string]float64) {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, metrics[name])
	}
}

func parseStart(s string) (dynamo.State, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("start %q: want x,y,z,yaw", s)
	}
	x := make(dynamo.State, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("start %q: %w", s, err)
		}
		x[i] = v
	}
	return x, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	starts := make([]dynamo.State, len(args))
	for i, a := range args {
		x, err := parseStart(a)
		if err != nil {
			return err
		}
		starts[i] = x
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, experiment.WithLogger(logger))
	if err != nil {
		return err
	}

	results, err := exp.Sweep(context.Background(), starts, workers)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "START\tFINAL\tPEAK THRUST\tPEAK TILT\tHOLD RATE\tERRORS")
	for i, r := range results {
		fmt.Fprintf(w, "%v\t%s\t%.4f\t%.4f\t%.3f\t%d\n",
			[]float64(starts[i]),
			formatState(r.Final()),
			r.Metrics["peak_thrust"],
			r.Metrics["peak_tilt"],
			r.Metrics["hold_rate"],
			len(r.Errors),
		)
	}
	return w.Flush()
}

func formatState(x dynamo.State) string {
	parts := make([]string, len(x))
	for i, v := range x {
		parts[i] = strconv.FormatFloat(v, 'f', 3, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// The alternate screen owns the terminal; only errors reach the log.
	quiet := log.NewWithOptions(os.Stderr, log.Options{Level: log.ErrorLevel})
	exp, err := experiment.New(cfg, experiment.WithLogger(quiet))
	if err != nil {
		return err
	}

	var feed viz.Feed
	if ff, ok := exp.Controller().(*control.Feedforward); ok {
		feed = ff
	}

	title := preset
	if title == "" {
		title = strings.Join(exp.Field().Source(), " | ")
	}
	m := viz.NewModel(exp.Simulator(), feed, dynamo.State(cfg.GetInitState()), cfg.Sim.Dt, cfg.Sim.Duration, title)
	return viz.Run(m)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tFIELD\tMASS\tDURATION\tDT\tINTEG\tHOLDS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.3g\t%.2fs\t%.4fs\t%s\t%d\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			strings.Join(run.Field, " | "),
			run.Mass,
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Holds,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states.Rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("field: %s\n", strings.Join(meta.Field, " | "))
	fmt.Printf("samples: %d\n\n", len(states.Rows))

	for _, col := range []string{"x", "y", "z", "thrust"} {
		plot(states.Column(col), col+" vs time")
	}

	att, err := st.LoadAttitude(runID)
	if err != nil {
		logger.Debug("no attitude trace", "run", runID, "err", err)
		return nil
	}
	for _, col := range []string{"phi", "theta"} {
		deg := att.Column(col)
		for i := range deg {
			deg[i] *= 180 / math.Pi
		}
		plot(deg, col+" (deg) vs time")
	}
	return nil
}

func plot(data []float64, caption string) {
	if len(data) == 0 {
		return
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
	fmt.Println(graph)
	fmt.Println()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	states, err := storage.New(dataDir).LoadStates(args[0])
	if err != nil {
		return err
	}

	out := os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return export.WritePath(out, states.Column("x"), states.Column("y"), export.DefaultPathOptions())
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tFIELD\tFRAME\tMASS\tINTEG\tDURATION")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%s\t%.3g\t%s\t%.1fs\n",
			name,
			strings.Join(p.Field.Lines, " | "),
			p.Field.Convention,
			p.Vehicle.Mass,
			p.Sim.Integrator,
			p.Sim.Duration,
		)
	}
	return w.Flush()
}
