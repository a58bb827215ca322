package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/bungee/internal/analysis"
	"github.com/san-kum/bungee/internal/dynamo"
)

const (
	PlotWidth  = 80
	PlotHeight = 12
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Cyan,
	asciigraph.Magenta,
	asciigraph.Yellow,
	asciigraph.Green,
	asciigraph.Red,
	asciigraph.Blue,
}

// PlotTrajectory charts height and velocity, resampled to width columns
// so the uneven adaptive steps do not distort the time axis.
func PlotTrajectory(traj *dynamo.Trajectory, width, height int) (string, error) {
	uniform, err := analysis.Resample(traj, width)
	if err != nil {
		return "", err
	}
	t0, t1 := uniform.Times[0], uniform.Times[uniform.Len()-1]

	heights := asciigraph.Plot(uniform.Positions(),
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(asciigraph.Cyan),
		asciigraph.Caption(fmt.Sprintf("height (m), t = %.1f..%.1f s", t0, t1)),
	)
	velocities := asciigraph.Plot(uniform.Velocities(),
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(asciigraph.Magenta),
		asciigraph.Caption(fmt.Sprintf("velocity (m/s), t = %.1f..%.1f s", t0, t1)),
	)
	return heights + "\n\n" + velocities, nil
}

// PlotHeights overlays the height series of several trajectories on one
// chart. All trajectories are resampled to the same number of columns.
func PlotHeights(trajs []*dynamo.Trajectory, width, height int, caption string) (string, error) {
	if len(trajs) == 0 {
		return "", fmt.Errorf("nothing to plot")
	}

	data := make([][]float64, len(trajs))
	for i, tr := range trajs {
		uniform, err := analysis.Resample(tr, width)
		if err != nil {
			return "", err
		}
		data[i] = uniform.Positions()
	}

	colors := make([]asciigraph.AnsiColor, len(trajs))
	for i := range colors {
		colors[i] = seriesColors[i%len(seriesColors)]
	}

	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(caption),
	), nil
}

// PlotSpectrum charts the first bins of a power spectrum.
func PlotSpectrum(ps []float64, bins int) string {
	if bins > len(ps) {
		bins = len(ps)
	}
	return asciigraph.Plot(ps[:bins],
		asciigraph.Height(PlotHeight),
		asciigraph.Width(PlotWidth),
		asciigraph.Caption("power spectrum (height)"),
	)
}
