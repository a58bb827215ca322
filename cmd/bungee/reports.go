package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/bungee/internal/analysis"
	"github.com/san-kum/bungee/internal/dynamo"
	"github.com/san-kum/bungee/internal/export"
	"github.com/san-kum/bungee/internal/physics"
	"github.com/san-kum/bungee/internal/storage"
	"github.com/san-kum/bungee/internal/viz"
)

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
	fmt.Fprintln(w, "ID\tTIME\tINTEG\tSPAN\tSAMPLES\tMIN HEIGHT\tMAX SPEED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1fs\t%d\t%.2fm\t%.2fm/s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Config.Integrator,
			run.Config.Solver.TEnd-run.Config.Solver.TStart,
			run.Samples,
			run.Metrics["min_height"],
			run.Metrics["max_speed"],
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", traj.Len())

	graph, err := viz.PlotTrajectory(traj, viz.PlotWidth, viz.PlotHeight)
	if err != nil {
		return err
	}
	fmt.Println(graph)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	return storage.WriteCSV(os.Stdout, traj)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta.Config, traj, meta.Metrics)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	svg := export.HeightSVG(traj, 800, 400)
	if svg == "" {
		return fmt.Errorf("not enough samples to export")
	}
	fmt.Println(svg)
	return nil
}

func exportPNG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	path := runID + ".png"
	if len(args) > 1 {
		path = args[1]
	}

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	opts := export.DefaultPNGOptions()
	opts.Title = meta.ID
	opts.TautHeight = physics.NewBungee(meta.Config.Params()).TautHeight()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := export.WritePNG(f, traj, opts); err != nil {
		return err
	}

	fmt.Println(styles().Banner(true, "wrote "+path))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	b := physics.NewBungee(meta.Config.Params())

	// Only the oscillation on the taut cord has a meaningful frequency, so
	// drop the initial free fall.
	start := 0
	if tr := analysis.Transitions(traj, b); len(tr) > 0 {
		for start < traj.Len() && traj.Times[start] < tr[0].Time {
			start++
		}
	}
	tail := &dynamo.Trajectory{Times: traj.Times[start:], States: traj.States[start:]}

	uniform, err := analysis.Resample(tail, 1024)
	if err != nil {
		return err
	}
	dt := uniform.Times[1] - uniform.Times[0]
	heights := uniform.Positions()

	freq, err := analysis.DominantFrequency(heights, dt)
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n\n", meta.ID)
	fmt.Println(viz.PlotSpectrum(analysis.PowerSpectrum(heights), 64))
	fmt.Println()

	s := styles()
	tLow, yLow := analysis.Lowest(traj)
	fmt.Println(s.Row("lowest point", fmt.Sprintf("%.3f m at t=%.3f s", yLow, tLow)))
	fmt.Println(s.Row("rebounds", fmt.Sprintf("%d", len(analysis.Rebounds(traj)))))
	fmt.Println(s.Row("dominant freq", fmt.Sprintf("%.4f Hz", freq)))
	if freq > 0 {
		fmt.Println(s.Row("period", fmt.Sprintf("%.3f s", 1/freq)))
	}
	fmt.Println(s.Row("√(k/m)/2π", fmt.Sprintf("%.4f Hz", b.NaturalFrequency())))

	return nil
}
