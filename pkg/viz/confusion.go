package viz

import (
	"errors"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/model"
)

// countGrid adapts a confusion matrix to plotter.GridXYZ. Column c is the
// predicted label, and true labels run top to bottom.
type countGrid struct{ cm *model.ConfusionMatrix }

func (g countGrid) Dims() (c, r int)   { return len(g.cm.Labels), len(g.cm.Labels) }
func (g countGrid) X(c int) float64    { return float64(c) }
func (g countGrid) Y(r int) float64    { return float64(r) }
func (g countGrid) Z(c, r int) float64 { return float64(g.cm.Counts[g.row(r)][c]) }
func (g countGrid) row(r int) int      { return len(g.cm.Labels) - 1 - r }

// ConfusionMatrix draws the counts as a heat map annotated with each cell.
func ConfusionMatrix(cm *model.ConfusionMatrix) (*plot.Plot, error) {
	n := len(cm.Labels)
	if n == 0 {
		return nil, errors.New("viz: empty confusion matrix")
	}
	g := countGrid{cm}
	hm := plotter.NewHeatMap(g, palette.Heat(64, 1))
	hm.Min = 0
	peak := 0
	for _, row := range cm.Counts {
		for _, v := range row {
			peak = max(peak, v)
		}
	}
	hm.Max = float64(max(peak, 1))

	p := plot.New()
	p.Title.Text = "Confusion Matrix"
	p.X.Label.Text = "Predicted label"
	p.Y.Label.Text = "True label"
	p.Add(hm)

	cells := plotter.XYLabels{}
	xt := make([]plot.Tick, n)
	yt := make([]plot.Tick, n)
	for i, l := range cm.Labels {
		xt[i] = plot.Tick{Value: float64(i), Label: l}
		yt[i] = plot.Tick{Value: g.Y(n - 1 - i), Label: l}
		for r := range n {
			cells.XYs = append(cells.XYs, plotter.XY{X: g.X(i), Y: g.Y(r)})
			cells.Labels = append(cells.Labels, strconv.Itoa(cm.Counts[g.row(r)][i]))
		}
	}
	labels, err := plotter.NewLabels(cells)
	if err != nil {
		return nil, err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = text.XCenter
		labels.TextStyle[i].YAlign = text.YCenter
	}
	p.Add(labels)
	p.X.Tick.Marker = plot.ConstantTicks(xt)
	p.Y.Tick.Marker = plot.ConstantTicks(yt)
	p.X.Min, p.X.Max = -0.5, float64(n)-0.5
	p.Y.Min, p.Y.Max = -0.5, float64(n)-0.5
	return p, nil
}
