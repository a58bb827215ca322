package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/bungee/internal/automation"
	"github.com/san-kum/bungee/internal/config"
	"github.com/san-kum/bungee/internal/dynamo"
	"github.com/san-kum/bungee/internal/experiment"
	"github.com/san-kum/bungee/internal/optim"
	"github.com/san-kum/bungee/internal/viz"
)

var (
	spread    float64
	seed      int64
	clearance float64
	maxG      float64
	points    int
)

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tHEIGHT\tLENGTH\tSTIFFNESS\tMASS\tSPAN")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%.0fm\t%.0fm\t%.0fN/m\t%.0fkg\t%.0fs\n",
			name, p.Physics.Height, p.Physics.Length, p.Physics.Stiffness, p.Physics.Mass, p.Solver.TEnd-p.Solver.TStart)
	}
	return w.Flush()
}

func sweepParam(cmd *cobra.Command, args []string) error {
	param := args[0]
	lo, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid min: %w", err)
	}
	hi, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("invalid max: %w", err)
	}
	n, err := strconv.Atoi(args[3])
	if err != nil {
		return fmt.Errorf("invalid point count: %w", err)
	}

	base, err := buildConfig(cmd, "")
	if err != nil {
		return err
	}

	results, err := automation.RunSweep(cmd.Context(), base, param, lo, hi, n, newLogger())
	if err != nil {
		return err
	}

	lows := make([]float64, len(results))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tMIN HEIGHT\tMAX SPEED\tMAX G\tGROUND\tSTEPS\n", param)
	for i, r := range results {
		m := r.Result.Metrics
		lows[i] = m["min_height"]
		fmt.Fprintf(w, "%.4g\t%.2fm\t%.2fm/s\t%.2f\t%.0f\t%d\n",
			r.ParamValue, m["min_height"], m["max_speed"], m["max_g"], m["ground_contacts"], r.Result.Trajectory.Steps)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	s := styles()
	fmt.Println()
	fmt.Println(s.Row("min height", s.Sparkline(lows, len(lows))))
	return nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	base, err := buildConfig(cmd, "")
	if err != nil {
		return err
	}
	logger := newLogger()

	fmt.Printf("comparing integrators on %s\n\n", base.Name)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tSAMPLES\tREJECTED\tEVALS\tMIN HEIGHT\tFINAL HEIGHT\tTIME")

	trajs := make([]*dynamo.Trajectory, 0, len(args))
	for _, name := range args {
		cfg := base.Clone()
		cfg.Integrator = name

		result, err := experiment.Run(cmd.Context(), cfg, logger)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", name, err)
			continue
		}

		_, final := result.Trajectory.Final()
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.4fm\t%.4fm\t%v\n",
			name,
			result.Trajectory.Len(),
			result.Trajectory.Rejected,
			result.Trajectory.Evaluations,
			result.Metrics["min_height"],
			final[0],
			result.Elapsed,
		)
		trajs = append(trajs, result.Trajectory)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(trajs) == 0 {
		return fmt.Errorf("no integrator completed")
	}
	graph, err := viz.PlotHeights(trajs, viz.PlotWidth, viz.PlotHeight, "height (m)")
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(graph)
	return nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	trials, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid trial count: %w", err)
	}
	base, err := buildConfig(cmd, "")
	if err != nil {
		return err
	}

	results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Base:      base,
		Spread:    spread,
		NumTrials: trials,
		Seed:      seed,
	}, newLogger())
	if err != nil {
		return err
	}

	lowest := results[0]
	for _, r := range results {
		if r.MinHeight < lowest.MinHeight {
			lowest = r
		}
	}
	safe, grounded := automation.MonteCarloStats(results)

	s := styles()
	fmt.Println(s.Row("trials", strconv.Itoa(trials)))
	fmt.Println(s.Row("safe", strconv.Itoa(safe)))
	if grounded > 0 {
		fmt.Println(s.Label.Render("ground contact") + s.Error.Render(fmt.Sprintf("%d (%.1f%%)", grounded, 100*float64(grounded)/float64(trials))))
	} else {
		fmt.Println(s.Row("ground contact", "0"))
	}
	fmt.Println(s.Row("worst case", fmt.Sprintf("%.2f m (m=%.1f kg, k=%.1f N/m)", lowest.MinHeight, lowest.Mass, lowest.Stiffness)))
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	results, err := automation.RunScenario(cmd.Context(), scenario, newLogger())
	if err != nil {
		return err
	}

	s := styles()
	if scenario.Name != "" {
		fmt.Println(s.Title.Render(scenario.Name))
	}
	if scenario.Description != "" {
		fmt.Println(s.Subtle.Render(scenario.Description))
	}
	for _, r := range results {
		fmt.Println(s.RenderSummary(r))
	}
	return nil
}

// designCord searches cord stiffness and length for the jump that bottoms
// out closest to the wanted clearance.
func designCord(cmd *cobra.Command, args []string) error {
	base, err := buildConfig(cmd, "")
	if err != nil {
		return err
	}

	p := base.Physics
	stiffness, err := optim.Linspace(p.Stiffness/4, p.Stiffness*4, points)
	if err != nil {
		return fmt.Errorf("--points: %w", err)
	}
	length, err := optim.Linspace(p.Height/8, p.Height*7/8, points)
	if err != nil {
		return fmt.Errorf("--points: %w", err)
	}
	g := optim.NewGridSearch(
		[]string{"stiffness", "length"},
		[][]float64{stiffness, length},
	).WithLogger(newLogger())

	params, _, err := g.Search(cmd.Context(), base, optim.Clearance(clearance, maxG))
	if err != nil {
		return err
	}

	cfg := base.Clone()
	for k, v := range params {
		if err := cfg.SetParam(k, v); err != nil {
			return err
		}
	}
	result, err := experiment.Run(cmd.Context(), cfg, newLogger())
	if err != nil {
		return err
	}

	s := styles()
	fmt.Println(s.Row("stiffness", fmt.Sprintf("%.2f N/m", params["stiffness"])))
	fmt.Println(s.Row("length", fmt.Sprintf("%.2f m", params["length"])))
	fmt.Println(s.Row("lowest point", fmt.Sprintf("%.2f m", result.Metrics["min_height"])))
	fmt.Println(s.Row("max g", fmt.Sprintf("%.2f", result.Metrics["max_g"])))
	return nil
}
