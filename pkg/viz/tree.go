package viz

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/model"
)

// MaxTreeDepth bounds how many levels of a tree are drawn.
const MaxTreeDepth = 4

type placed struct {
	node  *model.TreeNode
	x, y  float64
	label string
}

// treeLayout places leaves left to right and centres every parent over its
// children. Subtrees below MaxTreeDepth are collapsed into one box.
type treeLayout struct {
	features []string
	classes  []string
	nodes    []placed
	edges    [][2]plotter.XY
	next     float64
}

func (t *treeLayout) place(n *model.TreeNode, depth int) plotter.XY {
	if n.Leaf() || depth == MaxTreeDepth {
		pt := plotter.XY{X: t.next, Y: -float64(depth)}
		t.next++
		label := t.describe(n)
		if !n.Leaf() {
			label = fmt.Sprintf("(...)\nsamples = %d", n.Samples)
		}
		t.nodes = append(t.nodes, placed{n, pt.X, pt.Y, label})
		return pt
	}
	l := t.place(n.Left, depth+1)
	r := t.place(n.Right, depth+1)
	pt := plotter.XY{X: (l.X + r.X) / 2, Y: -float64(depth)}
	t.nodes = append(t.nodes, placed{n, pt.X, pt.Y, t.describe(n)})
	t.edges = append(t.edges, [2]plotter.XY{pt, l}, [2]plotter.XY{pt, r})
	return pt
}

func (t *treeLayout) feature(i int) string {
	if i >= 0 && i < len(t.features) {
		return t.features[i]
	}
	return fmt.Sprintf("x[%d]", i)
}

func (t *treeLayout) describe(n *model.TreeNode) string {
	var b strings.Builder
	if !n.Leaf() {
		op := "<="
		if n.Categorical {
			op = "=="
		}
		fmt.Fprintf(&b, "%s %s %.4g\n", t.feature(n.Feature), op, n.Threshold)
	}
	fmt.Fprintf(&b, "impurity = %.3f\nsamples = %d\n", n.Impurity, n.Samples)
	switch {
	case len(n.Value) == 1:
		fmt.Fprintf(&b, "value = %.4g", n.Value[0])
	case len(t.classes) == len(n.Value):
		best := 0
		for k, v := range n.Value {
			if v > n.Value[best] {
				best = k
			}
		}
		fmt.Fprintf(&b, "class = %s", t.classes[best])
	}
	return b.String()
}

// TreeDiagram draws one fitted tree. features and classes label splits and
// classifier leaves; either may be nil.
func TreeDiagram(root *model.TreeNode, title string, features, classes []string) (*plot.Plot, error) {
	if root == nil {
		return nil, errors.New("viz: no tree to draw")
	}
	t := &treeLayout{features: features, classes: classes}
	t.place(root, 0)

	p := plot.New()
	p.Title.Text = or(title, "Tree Diagram")
	p.HideAxes()
	for _, e := range t.edges {
		l, err := plotter.NewLine(plotter.XYs{e[0], e[1]})
		if err != nil {
			return nil, err
		}
		l.Color = color.Gray{Y: 120}
		l.LineStyle.Width = vg.Points(1)
		p.Add(l)
	}

	boxes := plotter.XYLabels{}
	for _, n := range t.nodes {
		boxes.XYs = append(boxes.XYs, plotter.XY{X: n.x, Y: n.y})
		boxes.Labels = append(boxes.Labels, n.label)
	}
	labels, err := plotter.NewLabels(boxes)
	if err != nil {
		return nil, err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = text.XCenter
		labels.TextStyle[i].YAlign = text.YCenter
		labels.TextStyle[i].Font.Size = vg.Points(7)
	}
	p.Add(labels)
	p.X.Min, p.X.Max = -0.75, t.next-0.25
	p.Y.Min, p.Y.Max = p.Y.Min-0.5, 0.5
	return p, nil
}

// Estimator returns the first tree of an ensemble for TreeDiagram.
func Estimator(m model.EnsembleInspector) (*model.TreeNode, error) {
	trees := m.Estimators()
	if len(trees) == 0 || trees[0] == nil {
		return nil, errors.New("viz: model has no estimators")
	}
	return trees[0], nil
}
