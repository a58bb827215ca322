package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/san-kum/bungee/internal/config"
	"github.com/san-kum/bungee/internal/experiment"
	"github.com/san-kum/bungee/internal/storage"
	"github.com/san-kum/bungee/internal/viz"
)

var (
	dataDir  string
	logLevel string
	theme    string

	// run
	configFile string
	preset     string
	height     float64
	velocity   float64
	stiffness  float64
	length     float64
	mass       float64
	gravity    float64
	drag       float64
	qdrag      float64
	duration   float64
	maxStep    float64
	rtol       float64
	atol       float64
	integrator string
	noSave     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "bungee",
		Short:         "bungee jump trajectory simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".bungee", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "minimal", "color theme")

	runCmd := &cobra.Command{
		Use:   "run [name]",
		Short: "simulate a jump",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addJumpFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot height and velocity",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export height chart to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}

	exportPNGCmd := &cobra.Command{
		Use:   "export-png [run_id] [file]",
		Short: "export height chart to PNG",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  exportPNG,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [param] [min] [max] [n]",
		Short: "sweep one physical parameter",
		Args:  cobra.ExactArgs(4),
		RunE:  sweepParam,
	}
	addJumpFlags(sweepCmd)

	compareCmd := &cobra.Command{
		Use:   "compare [integrator1] [integrator2] ...",
		Short: "compare integrators on the same jump",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareIntegrators,
	}
	addJumpFlags(compareCmd)

	montecarloCmd := &cobra.Command{
		Use:   "montecarlo [trials]",
		Short: "estimate ground contact risk under mass and stiffness uncertainty",
		Args:  cobra.ExactArgs(1),
		RunE:  runMonteCarlo,
	}
	addJumpFlags(montecarloCmd)
	montecarloCmd.Flags().Float64Var(&spread, "spread", 0.1, "relative spread of mass and stiffness")
	montecarloCmd.Flags().Int64Var(&seed, "seed", 1, "random seed")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of jumps",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	designCmd := &cobra.Command{
		Use:   "design",
		Short: "search cord stiffness and length for a target clearance",
		Args:  cobra.NoArgs,
		RunE:  designCord,
	}
	addJumpFlags(designCmd)
	designCmd.Flags().Float64Var(&clearance, "clearance", 5, "wanted lowest height above ground (m)")
	designCmd.Flags().Float64Var(&maxG, "max-g", 3, "largest acceptable g-load (0 disables)")
	designCmd.Flags().IntVar(&points, "points", 8, "grid points per parameter")

	rootCmd.AddCommand(runCmd, listCmd, showCmd, plotCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd,
		exportPNGCmd, analyzeCmd, presetsCmd, sweepCmd, compareCmd, montecarloCmd, scenarioCmd, designCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, styles().Banner(false, err.Error()))
		os.Exit(1)
	}
}

func addJumpFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&height, "height", d.Physics.Height, "jump height (m)")
	cmd.Flags().Float64Var(&velocity, "velocity", d.Physics.Velocity, "initial vertical velocity (m/s)")
	cmd.Flags().Float64Var(&stiffness, "stiffness", d.Physics.Stiffness, "cord stiffness (N/m)")
	cmd.Flags().Float64Var(&length, "length", d.Physics.Length, "unstretched cord length (m)")
	cmd.Flags().Float64Var(&mass, "mass", d.Physics.Mass, "jumper mass (kg)")
	cmd.Flags().Float64Var(&gravity, "gravity", d.Physics.Gravity, "gravitational acceleration (m/s², negative)")
	cmd.Flags().Float64Var(&drag, "drag", d.Physics.LinearDrag, "linear drag coefficient")
	cmd.Flags().Float64Var(&qdrag, "qdrag", d.Physics.QuadraticDrag, "quadratic drag coefficient")
	cmd.Flags().Float64Var(&duration, "time", d.Solver.TEnd, "simulated time (s)")
	cmd.Flags().Float64Var(&maxStep, "max-step", d.Solver.MaxStep, "largest step (s)")
	cmd.Flags().Float64Var(&rtol, "rtol", d.Solver.RelTol, "relative tolerance")
	cmd.Flags().Float64Var(&atol, "atol", d.Solver.AbsTol, "absolute tolerance")
	cmd.Flags().StringVar(&integrator, "integrator", d.Integrator, "integrator (rk45|rk4|heun|euler)")
}

// buildConfig layers defaults, preset, config file and explicitly set
// flags, in that order.
func buildConfig(cmd *cobra.Command, name string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	overrides := []struct {
		flag string
		dst  *float64
		val  float64
	}{
		{"height", &cfg.Physics.Height, height},
		{"velocity", &cfg.Physics.Velocity, velocity},
		{"stiffness", &cfg.Physics.Stiffness, stiffness},
		{"length", &cfg.Physics.Length, length},
		{"mass", &cfg.Physics.Mass, mass},
		{"gravity", &cfg.Physics.Gravity, gravity},
		{"drag", &cfg.Physics.LinearDrag, drag},
		{"qdrag", &cfg.Physics.QuadraticDrag, qdrag},
		{"max-step", &cfg.Solver.MaxStep, maxStep},
		{"rtol", &cfg.Solver.RelTol, rtol},
		{"atol", &cfg.Solver.AbsTol, atol},
	}
	for _, o := range overrides {
		if flags.Changed(o.flag) {
			*o.dst = o.val
		}
	}
	if flags.Changed("time") {
		cfg.Solver.TEnd = cfg.Solver.TStart + duration
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if name != "" {
		cfg.Name = name
	}

	return cfg, nil
}

func newLogger() log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	var opt level.Option
	switch strings.ToLower(logLevel) {
	case "debug":
		opt = level.AllowDebug()
	case "info":
		opt = level.AllowInfo()
	case "error":
		opt = level.AllowError()
	default:
		opt = level.AllowWarn()
	}
	return level.NewFilter(logger, opt)
}

func styles() *viz.Styles {
	return viz.NewStyles(viz.GetTheme(theme))
}

func runSimulation(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	cfg, err := buildConfig(cmd, name)
	if err != nil {
		return err
	}

	logger := newLogger()
	level.Info(logger).Log("msg", "running jump", "name", cfg.Name, "integrator", cfg.Integrator)

	result, err := experiment.Run(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	s := styles()
	fmt.Println(s.RenderSummary(result))

	if noSave {
		return nil
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(result.Config, result.Trajectory, result.Metrics)
	if err != nil {
		return err
	}

	fmt.Println(s.Banner(true, "run id: "+runID))
	return nil
}
