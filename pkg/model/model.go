package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/data"
)

// ErrShape reports inputs whose dimensions do not line up. It wraps
// data.ErrInput so callers can treat it as an input problem.
var ErrShape = fmt.Errorf("%w: shape mismatch", data.ErrInput)

// ErrNaN reports missing values in data passed to a procedure that cannot
// handle them.
var ErrNaN = errors.New("input contains missing values")

// Handle is a fitted model. Capabilities are exposed through the narrower
// interfaces below.
type Handle interface {
	Name() string
}

// Regressor predicts a continuous value per row.
type Regressor interface {
	Handle
	Predict(X [][]float64) ([]float64, error)
}

// LabelClassifier predicts a class label per row.
type LabelClassifier interface {
	Handle
	PredictLabels(X [][]float64) ([]string, error)
	PredictProba(X [][]float64) ([][]float64, error)
	Classes() []string
}

// ClusterAssigner maps rows to cluster indices.
type ClusterAssigner interface {
	Handle
	Assign(X [][]float64) ([]int, error)
	Labels() []int
	Centroids() [][]float64
}

// Summarizer renders a human-readable fit report.
type Summarizer interface {
	Summary() string
}

// EnsembleInspector exposes the structure of the individual trees.
type EnsembleInspector interface {
	Estimators() []*TreeNode
}

// Labeler accepts display names for the dependent variable and features.
type Labeler interface {
	SetNames(dep string, features []string)
}

// TreeNode is a read-only view of a fitted tree node.
type TreeNode struct {
	Feature     int
	Threshold   float64
	Categorical bool
	Samples     int
	Impurity    float64
	// Value holds class probabilities for classifiers and a single mean or
	// leaf value for regressors.
	Value       []float64
	Left, Right *TreeNode
}

func (n *TreeNode) Leaf() bool { return n.Left == nil && n.Right == nil }

// Depth returns the depth of the subtree, a single leaf having depth 0.
func (n *TreeNode) Depth() int {
	if n == nil || n.Leaf() {
		return 0
	}
	return 1 + max(n.Left.Depth(), n.Right.Depth())
}

// checkXY validates a rectangular, finite design matrix and a target of the
// same length. It returns the number of columns.
func checkXY(X [][]float64, n int) (int, error) {
	if len(X) == 0 {
		return 0, fmt.Errorf("%w: empty X", ErrShape)
	}
	if n >= 0 && len(X) != n {
		return 0, fmt.Errorf("%w: X has %d rows, y has %d", ErrShape, len(X), n)
	}
	p := len(X[0])
	if p == 0 {
		return 0, fmt.Errorf("%w: X has no columns", ErrShape)
	}
	for i, row := range X {
		if len(row) != p {
			return 0, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShape, i, len(row), p)
		}
	}
	return p, nil
}

func checkFinite(X [][]float64, y []float64) error {
	for i, row := range X {
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: X[%d][%d]", ErrNaN, i, j)
			}
		}
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: y[%d]", ErrNaN, i)
		}
	}
	return nil
}

func checkWidth(X [][]float64, p int) error {
	for i, row := range X {
		if len(row) != p {
			return fmt.Errorf("%w: row %d has %d features, model has %d", ErrShape, i, len(row), p)
		}
	}
	return nil
}

func defaultNames(p int) []string {
	out := make([]string, p)
	for i := range out {
		out[i] = fmt.Sprintf("x%d", i+1)
	}
	return out
}
