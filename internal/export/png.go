package export

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/bungee/internal/dynamo"
)

type PNGOptions struct {
	Title    string
	WidthIn  float64
	HeightIn float64
	DPI      int
	// TautHeight draws a dashed marker where the cord becomes taut; NaN
	// disables it.
	TautHeight float64
}

func DefaultPNGOptions() PNGOptions {
	return PNGOptions{
		Title:    "Bungee jump",
		WidthIn:  8,
		HeightIn: 6,
		DPI:      150,

		TautHeight: math.NaN(),
	}
}

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.Title.Padding = vg.Points(8)
	p.X.Label.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)
	p.X.Padding = vg.Points(10)
	p.Y.Padding = vg.Points(10)
	p.Add(plotter.NewGrid())
}

// HeightPlot builds a height-over-time chart of traj.
func HeightPlot(traj *dynamo.Trajectory, opts PNGOptions) (*plot.Plot, error) {
	if traj.Len() < 2 {
		return nil, fmt.Errorf("plot data invalid: %d samples", traj.Len())
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "height (m)"
	stylePlot(p)

	pts := make(plotter.XYs, traj.Len())
	for i, x := range traj.States {
		pts[i].X = traj.Times[i]
		pts[i].Y = x[0]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(2)
	line.LineStyle.Color = color.RGBA{R: 0, G: 140, B: 200, A: 255}
	p.Add(line)
	p.Legend.Add("height", line)

	t0, t1 := traj.Times[0], traj.Times[traj.Len()-1]
	if !math.IsNaN(opts.TautHeight) {
		taut, err := plotter.NewLine(plotter.XYs{{X: t0, Y: opts.TautHeight}, {X: t1, Y: opts.TautHeight}})
		if err != nil {
			return nil, err
		}
		taut.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		taut.LineStyle.Color = color.Gray{Y: 128}
		p.Add(taut)
		p.Legend.Add("cord taut", taut)
	}

	return p, nil
}

// WritePNG renders the height chart of traj as PNG to w.
func WritePNG(w io.Writer, traj *dynamo.Trajectory, opts PNGOptions) error {
	p, err := HeightPlot(traj, opts)
	if err != nil {
		return err
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(opts.WidthIn)*vg.Inch, vg.Length(opts.HeightIn)*vg.Inch),
		vgimg.UseDPI(opts.DPI),
	)
	p.Draw(draw.New(c))

	bw := bufio.NewWriter(w)
	pngc := vgimg.PngCanvas{Canvas: c}
	if _, err := pngc.WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}
