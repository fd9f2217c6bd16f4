package evaluation

import (
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	scierrors "github.com/YuminosukeSato/antiox/pkg/errors"
)

// Plot file names written by WritePlots.
const (
	ResidualsPlot    = "residuals.png"
	ImportancePlot   = "importance.png"
	PredVsActualPlot = "pred_vs_actual.png"
)

const residualBins = 20

// WritePlots renders the residual histogram, the importance bar chart and
// the predicted-versus-actual scatter into dir, creating it if needed.
func WritePlots(r *Report, dir string) error {
	if r == nil || len(r.Actual) == 0 {
		return scierrors.Wrap(scierrors.ErrEmptyData, "WritePlots")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return scierrors.Wrapf(err, "create plot directory %s", dir)
	}
	for name, render := range map[string]func(*Report) (*plot.Plot, error){
		ResidualsPlot:    residualsPlot,
		ImportancePlot:   importancePlot,
		PredVsActualPlot: predVsActualPlot,
	} {
		p, err := render(r)
		if err != nil {
			return scierrors.Wrapf(err, "render %s", name)
		}
		if err := p.Save(6*vg.Inch, 4*vg.Inch, filepath.Join(dir, name)); err != nil {
			return scierrors.Wrapf(err, "save %s", name)
		}
	}
	return nil
}

func residualsPlot(r *Report) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Residuals"
	p.X.Label.Text = "actual - predicted"
	p.Y.Label.Text = "count"

	bins := residualBins
	if len(r.Residuals) < bins {
		bins = len(r.Residuals)
	}
	h, err := plotter.NewHist(plotter.Values(r.Residuals), bins)
	if err != nil {
		return nil, err
	}
	h.FillColor = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	p.Add(h)
	return p, nil
}

func importancePlot(r *Report) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Feature importance (gain)"
	p.X.Label.Text = "normalised gain"

	// Bars are drawn bottom-up; reverse so the top feature sits on top.
	n := len(r.Importance)
	values := make(plotter.Values, n)
	names := make([]string, n)
	for i, fi := range r.Importance {
		values[n-1-i] = fi.Score
		names[n-1-i] = fi.Feature
	}
	bars, err := plotter.NewBarChart(values, vg.Points(14))
	if err != nil {
		return nil, err
	}
	bars.Horizontal = true
	bars.Color = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	p.Add(bars)
	p.NominalY(names...)
	return p, nil
}

func predVsActualPlot(r *Report) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Predicted vs actual"
	p.X.Label.Text = "actual"
	p.Y.Label.Text = "predicted"

	pts := make(plotter.XYs, len(r.Actual))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range r.Actual {
		pts[i].X, pts[i].Y = r.Actual[i], r.Predictions[i]
		lo = math.Min(lo, math.Min(pts[i].X, pts[i].Y))
		hi = math.Max(hi, math.Max(pts[i].X, pts[i].Y))
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	scatter.GlyphStyle.Radius = vg.Points(2.5)

	identity, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return nil, err
	}
	identity.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
	identity.LineStyle.Color = color.RGBA{R: 200, A: 255}

	p.Add(plotter.NewGrid(), scatter, identity)
	return p, nil
}
