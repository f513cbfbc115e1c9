package viz

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/model"
)

func saved(t *testing.T, p *plot.Plot, name string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plots", name)
	require.NoError(t, Save(p, path, Size{}))
	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, fi.Size(), int64(0))
}

func sample() ([][]float64, []float64) {
	X := make([][]float64, 30)
	y := make([]float64, 30)
	for i := range X {
		x := float64(i) / 3
		X[i] = []float64{x, math.Cos(x)}
		y[i] = 1 + 2*x + math.Sin(x)
	}
	return X, y
}

func TestData(t *testing.T) {
	X, y := sample()
	x := make([]float64, len(X))
	for i := range X {
		x[i] = X[i][0]
	}
	p, err := Data(x, y, "", "sales")
	require.NoError(t, err)
	assert.Equal(t, "Feature", p.X.Label.Text)
	assert.Equal(t, "sales", p.Y.Label.Text)
	saved(t, p, "data.png")

	_, err = Data([]float64{math.NaN()}, []float64{1}, "", "")
	assert.Error(t, err)
	_, err = Data([]float64{1, 2}, []float64{1}, "", "")
	assert.Error(t, err)
}

func TestRegression(t *testing.T) {
	X, y := sample()
	fit, err := model.FitOLS(X, y)
	require.NoError(t, err)
	p, err := Regression(X, y, fit, "x", "y")
	require.NoError(t, err)
	assert.Equal(t, "Regression Plot", p.Title.Text)
	saved(t, p, "regression.svg")
}

func TestCurve(t *testing.T) {
	var x, y []float64
	for i := range 60 {
		v := float64(i)/10 - 1
		x = append(x, v)
		y = append(y, 3*math.Exp(-(v-2)*(v-2)/2)+0.01*math.Sin(float64(i)))
	}
	fit, err := model.FitGaussian(x, y)
	require.NoError(t, err)
	p, err := Curve(x, y, fit)
	require.NoError(t, err)
	assert.Equal(t, "Gaussian Curve Fitting Plot", p.Title.Text)
	saved(t, p, "curve.png")
}

func TestConfusionMatrix(t *testing.T) {
	cm := model.NewConfusionMatrix(
		[]string{"a", "a", "b", "b", "c", "c"},
		[]string{"a", "b", "b", "b", "c", "a"},
	)
	p, err := ConfusionMatrix(cm)
	require.NoError(t, err)
	assert.Equal(t, "Confusion Matrix", p.Title.Text)
	saved(t, p, "confusion.png")

	_, err = ConfusionMatrix(&model.ConfusionMatrix{})
	assert.Error(t, err)
}

func TestCountGridOrientation(t *testing.T) {
	cm := &model.ConfusionMatrix{Labels: []string{"a", "b"}, Counts: [][]int{{5, 1}, {2, 7}}}
	g := countGrid{cm}
	c, r := g.Dims()
	assert.Equal(t, 2, c)
	assert.Equal(t, 2, r)
	// the top row (highest Y) holds the first true label
	assert.Equal(t, 5.0, g.Z(0, 1))
	assert.Equal(t, 7.0, g.Z(1, 0))
}

func TestTreeDiagram(t *testing.T) {
	X, y := sample()
	rf := model.NewRandomForestRegressor(model.WithNEstimators(3))
	require.NoError(t, rf.Fit(X, y))
	root, err := Estimator(rf)
	require.NoError(t, err)
	p, err := TreeDiagram(root, "Random Forest Tree Diagram", []string{"x", "cos"}, nil)
	require.NoError(t, err)
	saved(t, p, "tree.png")

	_, err = TreeDiagram(nil, "", nil, nil)
	assert.Error(t, err)
}

func TestTreeLayout(t *testing.T) {
	root := &model.TreeNode{
		Feature: 0, Threshold: 1.5, Samples: 4,
		Left:  &model.TreeNode{Feature: -1, Samples: 2, Value: []float64{1, 0}},
		Right: &model.TreeNode{Feature: -1, Samples: 2, Value: []float64{0, 1}},
	}
	l := &treeLayout{features: []string{"age"}, classes: []string{"no", "yes"}}
	l.place(root, 0)
	require.Len(t, l.nodes, 3)
	assert.Len(t, l.edges, 2)
	parent := l.nodes[2]
	assert.Equal(t, 0.5, parent.x)
	assert.Contains(t, parent.label, "age <= 1.5")
	assert.Contains(t, l.nodes[0].label, "class = no")
	assert.Contains(t, l.nodes[1].label, "class = yes")
}

func TestClustersAndRolling(t *testing.T) {
	X, y := sample()
	km := model.NewKMeans(3)
	require.NoError(t, km.Fit(X))
	p, err := Clusters(X, km.Labels(), km.Centroids(), []string{"x", "cos"})
	require.NoError(t, err)
	assert.Equal(t, "x", p.X.Label.Text)
	saved(t, p, "clusters.png")

	_, err = Clusters(X, []int{0}, km.Centroids(), nil)
	assert.Error(t, err)

	roll, err := model.FitRolling(X, y, 8)
	require.NoError(t, err)
	p, err = Rolling(roll)
	require.NoError(t, err)
	saved(t, p, "rolling.pdf")
}
