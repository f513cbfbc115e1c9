// Package viz renders datasets and fitted models with gonum/plot.
package viz

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/model"
)

// Size is the rendered plot size.
type Size struct {
	Width, Height vg.Length
}

// DefaultSize matches a 8x6 inch figure.
var DefaultSize = Size{Width: 8 * vg.Inch, Height: 6 * vg.Inch}

// Save writes p to path; the extension picks the format (png, svg, pdf, ...).
func Save(p *plot.Plot, path string, size Size) error {
	if size.Width <= 0 || size.Height <= 0 {
		size = DefaultSize
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := p.Save(size.Width, size.Height, path); err != nil {
		return fmt.Errorf("viz: save %s: %w", path, err)
	}
	return nil
}

var (
	dataColor = color.RGBA{R: 50, G: 50, B: 255, A: 255}
	fitColor  = color.RGBA{R: 255, A: 255}
)

func xys(x, y []float64) (plotter.XYs, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("viz: %d x values, %d y values", len(x), len(y))
	}
	pts := make(plotter.XYs, 0, len(x))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: x[i], Y: y[i]})
	}
	if len(pts) == 0 {
		return nil, errors.New("viz: no finite points to plot")
	}
	return pts, nil
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	return p
}

func scatter(p *plot.Plot, pts plotter.XYs, c color.Color) (*plotter.Scatter, error) {
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	s.Color = c
	p.Add(s)
	return s, nil
}

// Data scatters the target against one feature.
func Data(x, y []float64, xLabel, yLabel string) (*plot.Plot, error) {
	pts, err := xys(x, y)
	if err != nil {
		return nil, err
	}
	p := newPlot("Data Plot", or(xLabel, "Feature"), or(yLabel, "Target"))
	if _, err := scatter(p, pts, dataColor); err != nil {
		return nil, err
	}
	return p, nil
}

// Regression scatters y against the first column of X and draws the model's
// predictions on the same rows, joined in order of that column.
func Regression(X [][]float64, y []float64, m model.Regressor, xLabel, yLabel string) (*plot.Plot, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, fmt.Errorf("viz: %d rows of X, %d targets", len(X), len(y))
	}
	pred, err := m.Predict(X)
	if err != nil {
		return nil, err
	}
	first := make([]float64, len(X))
	for i, row := range X {
		first[i] = row[0]
	}
	pts, err := xys(first, y)
	if err != nil {
		return nil, err
	}
	fitted, err := xys(first, pred)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(fitted, func(a, b int) bool { return fitted[a].X < fitted[b].X })

	p := newPlot("Regression Plot", or(xLabel, "Feature"), or(yLabel, "Target"))
	s, err := scatter(p, pts, dataColor)
	if err != nil {
		return nil, err
	}
	l, err := plotter.NewLine(fitted)
	if err != nil {
		return nil, err
	}
	l.Color = fitColor
	l.LineStyle.Width = vg.Points(2)
	p.Add(l)
	p.Legend.Add("Data", s)
	p.Legend.Add("Fit", l)
	return p, nil
}

// Curve scatters (x, y) and draws the fitted curve densely over the x range.
func Curve(x, y []float64, f *model.CurveFit) (*plot.Plot, error) {
	pts, err := xys(x, y)
	if err != nil {
		return nil, err
	}
	lo, hi := pts[0].X, pts[0].X
	for _, pt := range pts {
		lo, hi = math.Min(lo, pt.X), math.Max(hi, pt.X)
	}
	const steps = 200
	curve := make(plotter.XYs, steps+1)
	for i := range curve {
		v := lo + (hi-lo)*float64(i)/steps
		curve[i] = plotter.XY{X: v, Y: f.Eval(v)}
	}

	p := newPlot(f.Kind+" Curve Fitting Plot", or(f.Feature, "Feature"), or(f.DepVar, "Target"))
	s, err := scatter(p, pts, dataColor)
	if err != nil {
		return nil, err
	}
	l, err := plotter.NewLine(curve)
	if err != nil {
		return nil, err
	}
	l.Color = fitColor
	if f.Kind == "Exponential" {
		l.Color = color.RGBA{G: 160, A: 255}
	}
	l.LineStyle.Width = vg.Points(2)
	p.Add(l)
	p.Legend.Add("Data", s)
	p.Legend.Add(f.Kind+" Fit", l)
	return p, nil
}

// Clusters scatters the first two features of X, one colour per cluster,
// with the centroids drawn as crosses. A single feature is plotted against
// the row index.
func Clusters(X [][]float64, labels []int, centroids [][]float64, names []string) (*plot.Plot, error) {
	if len(X) == 0 || len(X) != len(labels) {
		return nil, fmt.Errorf("viz: %d rows, %d labels", len(X), len(labels))
	}
	twoD := len(X[0]) >= 2
	coords := func(i int, row []float64) plotter.XY {
		if twoD {
			return plotter.XY{X: row[0], Y: row[1]}
		}
		return plotter.XY{X: float64(i), Y: row[0]}
	}
	xl, yl := "Feature 1", "Feature 2"
	if twoD && len(names) >= 2 {
		xl, yl = names[0], names[1]
	} else if !twoD {
		xl, yl = "Row", "Feature 1"
		if len(names) >= 1 {
			yl = names[0]
		}
	}
	p := newPlot("K-Means Clustering", xl, yl)

	groups := make([]plotter.XYs, len(centroids))
	for i, row := range X {
		k := labels[i]
		if k < 0 || k >= len(groups) {
			return nil, fmt.Errorf("viz: label %d outside [0, %d)", k, len(groups))
		}
		groups[k] = append(groups[k], coords(i, row))
	}
	for k, pts := range groups {
		if len(pts) == 0 {
			continue
		}
		s, err := scatter(p, pts, plotutil.Color(k))
		if err != nil {
			return nil, err
		}
		p.Legend.Add(fmt.Sprintf("cluster %d", k), s)
	}

	if twoD {
		cpts := make(plotter.XYs, len(centroids))
		for k, c := range centroids {
			cpts[k] = plotter.XY{X: c[0], Y: c[1]}
		}
		c, err := scatter(p, cpts, color.RGBA{A: 255})
		if err != nil {
			return nil, err
		}
		c.Shape = draw.CrossGlyph{}
		c.Radius = vg.Points(5)
	}
	return p, nil
}

// Rolling draws one line per coefficient across the window end positions.
// Undefined and singular windows are skipped.
func Rolling(f *model.RollingFit) (*plot.Plot, error) {
	if f.Defined() == 0 {
		return nil, errors.New("viz: no rolling windows to plot")
	}
	p := newPlot(fmt.Sprintf("Rolling OLS Coefficients (window %d)", f.Window), "Window end", "Coefficient")
	for j, name := range f.Names {
		var pts plotter.XYs
		for t, b := range f.Coefficients {
			if b == nil || math.IsNaN(b[j]) {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(t), Y: b[j]})
		}
		if len(pts) == 0 {
			continue
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		l.Color = plotutil.Color(j)
		l.LineStyle.Width = vg.Points(1.5)
		p.Add(l)
		p.Legend.Add(name, l)
	}
	return p, nil
}

func or(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
