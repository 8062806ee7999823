package report

import (
	"errors"
	"fmt"
	"image/color"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNothingToPlot is returned when a distribution has no point with a
// positive degree and count.
var ErrNothingToPlot = errors.New("degree distribution has no plottable points")

// PlotFile is the file name of the degree plot inside the output directory.
const PlotFile = "degree_distribution.png"

// degreePoints returns the (degree, count) pairs that can sit on log-log
// axes, sorted by degree.
func degreePoints(dist map[int]int) plotter.XYs {
	degrees := make([]int, 0, len(dist))
	for d, c := range dist {
		if d > 0 && c > 0 {
			degrees = append(degrees, d)
		}
	}
	sort.Ints(degrees)

	pts := make(plotter.XYs, len(degrees))
	for i, d := range degrees {
		pts[i].X = float64(d)
		pts[i].Y = float64(dist[d])
	}
	return pts
}

// PlotDegreeDistribution renders the degree histogram as a log-log scatter
// plot and saves it to path; the image format follows the file extension.
// Isolated nodes (degree 0) cannot be placed on a log axis and are left out.
func PlotDegreeDistribution(path string, dist map[int]int) error {
	pts := degreePoints(dist)
	if len(pts) == 0 {
		return ErrNothingToPlot
	}

	p := plot.New()
	p.Title.Text = "Degree Distribution"
	p.X.Label.Text = "Degree"
	p.Y.Label.Text = "Count"
	p.X.Scale = plot.LogScale{}
	p.Y.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Add(plotter.NewGrid())

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("building scatter: %w", err)
	}
	scatter.GlyphStyle.Color = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	scatter.GlyphStyle.Radius = vg.Points(2)
	p.Add(scatter)

	// Log axes need a positive, non-degenerate range even for one point.
	p.X.Min, p.X.Max = pts[0].X/1.5, pts[len(pts)-1].X*1.5
	minY, maxY := pts[0].Y, pts[0].Y
	for _, pt := range pts {
		minY = min(minY, pt.Y)
		maxY = max(maxY, pt.Y)
	}
	p.Y.Min, p.Y.Max = minY/1.5, maxY*1.5

	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("saving plot %s: %w", path, err)
	}
	return nil
}
