package report

import (
	"cmp"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/irisknn/pkg/errors"
	"github.com/YuminosukeSato/irisknn/sklearn/neighbors"
)

// Chart size used by PlotQuality.
const (
	PlotWidth  = 6 * vg.Inch
	PlotHeight = 4 * vg.Inch
)

// QualityChart builds a quality-vs-k chart with one line per distance
// metric. Unscored runs are skipped; when the same (metric, k) was tuned
// more than once the latest run in history wins.
func QualityChart(history []*neighbors.Hyperparameter) (*plot.Plot, error) {
	series := make(map[string]map[int]float64)
	var order []string
	for _, hp := range history {
		if hp == nil {
			continue
		}
		q, ok := hp.Quality()
		if !ok {
			continue
		}
		name := hp.Metric().Name()
		if _, seen := series[name]; !seen {
			series[name] = make(map[int]float64)
			order = append(order, name)
		}
		series[name][hp.K()] = q
	}
	if len(order) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "report: no scored runs to plot")
	}

	p := plot.New()
	p.Title.Text = "Tuning quality"
	p.X.Label.Text = "k"
	p.Y.Label.Text = "quality"
	p.Y.Min, p.Y.Max = 0, 1
	p.Add(plotter.NewGrid())

	for i, name := range order {
		pts := make(plotter.XYs, 0, len(series[name]))
		for k, q := range series[name] {
			pts = append(pts, plotter.XY{X: float64(k), Y: q})
		}
		slices.SortFunc(pts, func(a, b plotter.XY) int { return cmp.Compare(a.X, b.X) })

		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, errors.Wrapf(err, "report: series %s", name)
		}
		line.Color = plotutil.Color(i)
		points.Color = plotutil.Color(i)
		points.Shape = plotutil.Shape(i)
		p.Add(line, points)
		p.Legend.Add(name, line, points)
	}
	p.Legend.Top = false
	p.Legend.Left = false
	return p, nil
}

// PlotQuality renders QualityChart to path. The format follows the file
// extension (png, svg, pdf, ...).
func PlotQuality(history []*neighbors.Hyperparameter, path string) error {
	p, err := QualityChart(history)
	if err != nil {
		return err
	}
	if err := p.Save(PlotWidth, PlotHeight, path); err != nil {
		return errors.Wrapf(err, "report: save %s", path)
	}
	return nil
}
