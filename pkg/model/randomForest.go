package model

import (
	"errors"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/dataprep"
)

// ForestConfig holds the ensemble-level hyperparameters.
type ForestConfig struct {
	NEstimators int
	Bootstrap   bool
	RandomState int64
	// TreeOptions are applied to every tree after the forest defaults.
	TreeOptions []Option
}

// ForestOption functional config for random forests.
type ForestOption func(*ForestConfig)

func WithNEstimators(n int) ForestOption { return func(c *ForestConfig) { c.NEstimators = n } }
func WithBootstrap(b bool) ForestOption  { return func(c *ForestConfig) { c.Bootstrap = b } }
func WithSeed(seed int64) ForestOption   { return func(c *ForestConfig) { c.RandomState = seed } }
func WithTreeOptions(o ...Option) ForestOption {
	return func(c *ForestConfig) { c.TreeOptions = append(c.TreeOptions, o...) }
}

func newForestConfig(opts []ForestOption) ForestConfig {
	c := ForestConfig{NEstimators: 100, Bootstrap: true, RandomState: 42}
	for _, o := range opts {
		o(&c)
	}
	return c
}

// RandomForestRegressor averages regression trees grown on bootstrap samples.
type RandomForestRegressor struct {
	ForestConfig
	Trees []*DecisionTreeRegressor
}

// RandomForestClassifier averages the class probabilities of its trees.
type RandomForestClassifier struct {
	ForestConfig
	Trees   []*DecisionTreeClassifier
	classes []string
}

func NewRandomForestRegressor(opts ...ForestOption) *RandomForestRegressor {
	return &RandomForestRegressor{ForestConfig: newForestConfig(opts)}
}

func NewRandomForestClassifier(opts ...ForestOption) *RandomForestClassifier {
	return &RandomForestClassifier{ForestConfig: newForestConfig(opts)}
}

// sampleIndices draws the rows one tree trains on.
func (c *ForestConfig) sampleIndices(rnd *rand.Rand, n int) []int {
	idx := make([]int, n)
	for j := range idx {
		if c.Bootstrap {
			idx[j] = rnd.Intn(n)
		} else {
			idx[j] = j
		}
	}
	return idx
}

// grow trains NEstimators trees concurrently. Tree i draws its sample and
// feature subsets from seed RandomState+i, so the result does not depend on
// scheduling.
func (c *ForestConfig) grow(fit func(i int, rnd *rand.Rand) error) error {
	if c.NEstimators < 1 {
		return errors.New("randomforest: need at least one estimator")
	}
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < c.NEstimators; i++ {
		g.Go(func() error {
			return fit(i, rand.New(rand.NewSource(c.RandomState+int64(i))))
		})
	}
	return g.Wait()
}

func (c *ForestConfig) treeOptions(i int, defaults ...Option) []Option {
	opts := append(defaults, c.TreeOptions...)
	return append(opts, WithRandomState(c.RandomState+int64(i)))
}

// Fit trains the forest. Every feature is considered at each split.
func (rf *RandomForestRegressor) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return errors.New("randomforest: empty X")
	}
	if len(y) != len(X) {
		return errors.New("randomforest: X and y length mismatch")
	}
	rf.Trees = make([]*DecisionTreeRegressor, rf.NEstimators)
	return rf.grow(func(i int, rnd *rand.Rand) error {
		tree := NewDecisionTreeRegressor(rf.treeOptions(i)...)
		if err := tree.fitIndices(X, y, rf.sampleIndices(rnd, len(X))); err != nil {
			return err
		}
		rf.Trees[i] = tree
		return nil
	})
}

// Fit trains the forest on string labels, sampling √p features per split.
func (rf *RandomForestClassifier) Fit(X [][]float64, labels []string) error {
	if len(X) == 0 {
		return errors.New("randomforest: empty X")
	}
	if len(labels) != len(X) {
		return errors.New("randomforest: X and y length mismatch")
	}
	codes, enc := dataprep.LabelEncode(labels)
	rf.classes = enc.Classes
	mf := max(1, int(math.Sqrt(float64(len(X[0])))))
	rf.Trees = make([]*DecisionTreeClassifier, rf.NEstimators)
	return rf.grow(func(i int, rnd *rand.Rand) error {
		tree := NewDecisionTreeClassifier(rf.treeOptions(i, WithMaxFeatures(mf))...)
		tree.classes = rf.classes
		if err := tree.fitCodes(X, codes, len(rf.classes), rf.sampleIndices(rnd, len(X))); err != nil {
			return err
		}
		rf.Trees[i] = tree
		return nil
	})
}

func (rf *RandomForestRegressor) Name() string  { return "RandomForestRegressor" }
func (rf *RandomForestClassifier) Name() string { return "RandomForestClassifier" }

// Predict returns the mean prediction of all trees.
func (rf *RandomForestRegressor) Predict(X [][]float64) ([]float64, error) {
	if len(rf.Trees) == 0 {
		return nil, errors.New("randomforest: not trained")
	}
	if err := checkWidth(X, rf.Trees[0].nFeatures); err != nil {
		return nil, err
	}
	preds := make([][]float64, len(rf.Trees))
	var g errgroup.Group
	for t, tree := range rf.Trees {
		g.Go(func() (err error) {
			preds[t], err = tree.Predict(X)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for _, p := range preds {
		for i, v := range p {
			out[i] += v
		}
	}
	for i := range out {
		out[i] /= float64(len(preds))
	}
	return out, nil
}

func (rf *RandomForestClassifier) Classes() []string { return append([]string(nil), rf.classes...) }

// PredictProba averages the per-tree class distributions.
func (rf *RandomForestClassifier) PredictProba(X [][]float64) ([][]float64, error) {
	if len(rf.Trees) == 0 {
		return nil, errors.New("randomforest: not trained")
	}
	if err := checkWidth(X, rf.Trees[0].nFeatures); err != nil {
		return nil, err
	}
	probs := make([][][]float64, len(rf.Trees))
	var g errgroup.Group
	for t, tree := range rf.Trees {
		g.Go(func() (err error) {
			probs[t], err = tree.PredictProba(X)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make([][]float64, len(X))
	for i := range out {
		out[i] = make([]float64, len(rf.classes))
		for _, p := range probs {
			for k, v := range p[i] {
				out[i][k] += v
			}
		}
		for k := range out[i] {
			out[i][k] /= float64(len(probs))
		}
	}
	return out, nil
}

// PredictLabels returns the class with the highest averaged probability.
func (rf *RandomForestClassifier) PredictLabels(X [][]float64) ([]string, error) {
	probs, err := rf.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(probs))
	for i, p := range probs {
		out[i] = rf.classes[argmaxFloat(p)]
	}
	return out, nil
}

func (rf *RandomForestRegressor) Estimators() []*TreeNode {
	out := make([]*TreeNode, len(rf.Trees))
	for i, t := range rf.Trees {
		out[i] = t.Tree()
	}
	return out
}

func (rf *RandomForestClassifier) Estimators() []*TreeNode {
	out := make([]*TreeNode, len(rf.Trees))
	for i, t := range rf.Trees {
		out[i] = t.Tree()
	}
	return out
}

// FeatureImportances averages the per-tree importances.
func (rf *RandomForestRegressor) FeatureImportances() []float64 {
	imps := make([][]float64, len(rf.Trees))
	for i, t := range rf.Trees {
		imps[i] = t.importances
	}
	return meanImportances(imps)
}

func (rf *RandomForestClassifier) FeatureImportances() []float64 {
	imps := make([][]float64, len(rf.Trees))
	for i, t := range rf.Trees {
		imps[i] = t.importances
	}
	return meanImportances(imps)
}

func meanImportances(imps [][]float64) []float64 {
	if len(imps) == 0 {
		return nil
	}
	out := make([]float64, len(imps[0]))
	for _, imp := range imps {
		for j, v := range imp {
			out[j] += v
		}
	}
	for j := range out {
		out[j] /= float64(len(imps))
	}
	return out
}
