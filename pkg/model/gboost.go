package model

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/dataprep"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/optim"
)

// BoostConfig holds the gradient boosting hyperparameters.
type BoostConfig struct {
	NEstimators    int
	LearningRate   float64
	MaxDepth       int // 0 => no limit
	MinSamplesLeaf int
	RandomState    int64
}

// DefaultBoostConfig mirrors the usual defaults: 100 stages of depth-3 trees
// with shrinkage 0.1.
func DefaultBoostConfig() BoostConfig {
	return BoostConfig{NEstimators: 100, LearningRate: 0.1, MaxDepth: 3, MinSamplesLeaf: 1, RandomState: 42}
}

func (c BoostConfig) validate() error {
	if c.NEstimators < 1 {
		return errors.New("gradientboosting: need at least one estimator")
	}
	if !(c.LearningRate > 0 && c.LearningRate <= 1) {
		return fmt.Errorf("gradientboosting: learning rate %g outside (0, 1]", c.LearningRate)
	}
	return nil
}

func (c BoostConfig) stageTree(seed int64) *DecisionTreeRegressor {
	return NewDecisionTreeRegressor(
		WithMaxDepth(c.MaxDepth),
		WithMinSamplesLeaf(max(c.MinSamplesLeaf, 1)),
		WithRandomState(seed),
	)
}

// GradientBoostingRegressor fits stages of regression trees to the residuals
// of squared loss, starting from the target mean.
type GradientBoostingRegressor struct {
	BoostConfig
	Init      float64
	Stages    []*DecisionTreeRegressor
	TrainLoss []float64
}

func NewGradientBoostingRegressor(cfg BoostConfig) *GradientBoostingRegressor {
	return &GradientBoostingRegressor{BoostConfig: cfg}
}

func (gb *GradientBoostingRegressor) Fit(X [][]float64, y []float64) error {
	if err := gb.validate(); err != nil {
		return err
	}
	if _, err := checkXY(X, len(y)); err != nil {
		return err
	}
	n := len(y)
	gb.Init = 0
	for _, v := range y {
		gb.Init += v
	}
	gb.Init /= float64(n)
	F := make([]float64, n)
	for i := range F {
		F[i] = gb.Init
	}
	opt := optim.NewSGD(gb.LearningRate)
	gb.Stages = gb.Stages[:0]
	gb.TrainLoss = gb.TrainLoss[:0]
	for m := 0; m < gb.NEstimators; m++ {
		_, resid := squaredLoss(y, F)
		tree := gb.stageTree(gb.RandomState + int64(m))
		if err := tree.Fit(X, resid); err != nil {
			return err
		}
		h, err := tree.Predict(X)
		if err != nil {
			return err
		}
		opt.Ascend(F, h)
		loss, _ := squaredLoss(y, F)
		gb.Stages = append(gb.Stages, tree)
		gb.TrainLoss = append(gb.TrainLoss, loss)
	}
	return nil
}

func (gb *GradientBoostingRegressor) Name() string { return "GradientBoostingRegressor" }

func (gb *GradientBoostingRegressor) Predict(X [][]float64) ([]float64, error) {
	if len(gb.Stages) == 0 {
		return nil, errors.New("gradientboosting: not trained")
	}
	if err := checkWidth(X, gb.Stages[0].nFeatures); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i := range out {
		out[i] = gb.Init
	}
	opt := optim.NewSGD(gb.LearningRate)
	for _, tree := range gb.Stages {
		h, err := tree.Predict(X)
		if err != nil {
			return nil, err
		}
		opt.Ascend(out, h)
	}
	return out, nil
}

func (gb *GradientBoostingRegressor) Estimators() []*TreeNode {
	out := make([]*TreeNode, len(gb.Stages))
	for i, t := range gb.Stages {
		out[i] = t.Tree()
	}
	return out
}

// GradientBoostingClassifier uses log-loss with Newton leaf values. Two
// classes need one tree per stage; K > 2 classes fit K trees per stage on
// the softmax residuals.
type GradientBoostingClassifier struct {
	BoostConfig
	Init      []float64
	Stages    [][]*DecisionTreeRegressor
	TrainLoss []float64
	classes   []string
}

func NewGradientBoostingClassifier(cfg BoostConfig) *GradientBoostingClassifier {
	return &GradientBoostingClassifier{BoostConfig: cfg}
}

func (gb *GradientBoostingClassifier) Fit(X [][]float64, labels []string) error {
	if err := gb.validate(); err != nil {
		return err
	}
	if _, err := checkXY(X, len(labels)); err != nil {
		return err
	}
	codes, enc := dataprep.LabelEncode(labels)
	gb.classes = enc.Classes
	K := len(gb.classes)
	if K < 2 {
		return errors.New("gradientboosting: need at least two classes")
	}
	n := len(codes)
	prior := make([]float64, K)
	for _, c := range codes {
		prior[c] += 1 / float64(n)
	}
	gb.Stages = gb.Stages[:0]
	gb.TrainLoss = gb.TrainLoss[:0]
	if K == 2 {
		return gb.fitBinary(X, codes, prior[1])
	}
	return gb.fitMulti(X, codes, prior)
}

func (gb *GradientBoostingClassifier) fitBinary(X [][]float64, codes []int, p1 float64) error {
	n := len(codes)
	y := make([]float64, n)
	for i, c := range codes {
		y[i] = float64(c)
	}
	gb.Init = []float64{math.Log(p1 / (1 - p1))}
	F := make([]float64, n)
	for i := range F {
		F[i] = gb.Init[0]
	}
	opt := optim.NewSGD(gb.LearningRate)
	for m := 0; m < gb.NEstimators; m++ {
		_, resid, prob := binaryLogLoss(y, F)
		tree := gb.stageTree(gb.RandomState + int64(m))
		if err := tree.Fit(X, resid); err != nil {
			return err
		}
		newtonLeaves(tree, X, resid, func(i int) float64 { return prob[i] * (1 - prob[i]) }, 1)
		h, err := tree.Predict(X)
		if err != nil {
			return err
		}
		opt.Ascend(F, h)
		loss, _, _ := binaryLogLoss(y, F)
		gb.Stages = append(gb.Stages, []*DecisionTreeRegressor{tree})
		gb.TrainLoss = append(gb.TrainLoss, loss)
	}
	return nil
}

func (gb *GradientBoostingClassifier) fitMulti(X [][]float64, codes []int, prior []float64) error {
	K, n := len(prior), len(codes)
	gb.Init = make([]float64, K)
	F := make([][]float64, K)
	for k := range K {
		gb.Init[k] = math.Log(math.Max(prior[k], 1e-12))
		F[k] = make([]float64, n)
		for i := range F[k] {
			F[k][i] = gb.Init[k]
		}
	}
	opt := optim.NewSGD(gb.LearningRate)
	scale := float64(K-1) / float64(K)
	for m := 0; m < gb.NEstimators; m++ {
		_, resid, _ := multinomialLoss(codes, F)
		stage := make([]*DecisionTreeRegressor, K)
		var g errgroup.Group
		for k := range K {
			g.Go(func() error {
				r := resid[k]
				tree := gb.stageTree(gb.RandomState + int64(m*K+k))
				if err := tree.Fit(X, r); err != nil {
					return err
				}
				newtonLeaves(tree, X, r, func(i int) float64 {
					a := math.Abs(r[i])
					return a * (1 - a)
				}, scale)
				h, err := tree.Predict(X)
				if err != nil {
					return err
				}
				opt.Ascend(F[k], h)
				stage[k] = tree
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		loss, _, _ := multinomialLoss(codes, F)
		gb.Stages = append(gb.Stages, stage)
		gb.TrainLoss = append(gb.TrainLoss, loss)
	}
	return nil
}

// newtonLeaves replaces each leaf value with scale * Σresid / Σhess over the
// training rows that reach it.
func newtonLeaves(tree *DecisionTreeRegressor, X [][]float64, resid []float64, hess func(int) float64, scale float64) {
	type acc struct{ num, den float64 }
	sums := map[*dtNode]*acc{}
	for i := range X {
		leaf := tree.root.leaf(X[i])
		a, ok := sums[leaf]
		if !ok {
			a = &acc{}
			sums[leaf] = a
		}
		a.num += resid[i]
		a.den += hess(i)
	}
	for leaf, a := range sums {
		if math.Abs(a.den) < 1e-150 {
			leaf.value = 0
			continue
		}
		leaf.value = scale * a.num / a.den
	}
}

func (gb *GradientBoostingClassifier) Name() string { return "GradientBoostingClassifier" }

func (gb *GradientBoostingClassifier) Classes() []string {
	return append([]string(nil), gb.classes...)
}

// decision returns the raw ensemble scores indexed [class][row].
func (gb *GradientBoostingClassifier) decision(X [][]float64) ([][]float64, error) {
	if len(gb.Stages) == 0 {
		return nil, errors.New("gradientboosting: not trained")
	}
	if err := checkWidth(X, gb.Stages[0][0].nFeatures); err != nil {
		return nil, err
	}
	F := make([][]float64, len(gb.Init))
	for k := range F {
		F[k] = make([]float64, len(X))
		for i := range F[k] {
			F[k][i] = gb.Init[k]
		}
	}
	opt := optim.NewSGD(gb.LearningRate)
	for _, stage := range gb.Stages {
		for k, tree := range stage {
			h, err := tree.Predict(X)
			if err != nil {
				return nil, err
			}
			opt.Ascend(F[k], h)
		}
	}
	return F, nil
}

func (gb *GradientBoostingClassifier) PredictProba(X [][]float64) ([][]float64, error) {
	F, err := gb.decision(X)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(X))
	if len(F) == 1 {
		for i := range out {
			p := sigmoid(F[0][i])
			out[i] = []float64{1 - p, p}
		}
		return out, nil
	}
	f := make([]float64, len(F))
	for i := range out {
		for k := range F {
			f[k] = F[k][i]
		}
		out[i] = make([]float64, len(F))
		softmax(f, out[i])
	}
	return out, nil
}

func (gb *GradientBoostingClassifier) PredictLabels(X [][]float64) ([]string, error) {
	probs, err := gb.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(probs))
	for i, p := range probs {
		out[i] = gb.classes[argmaxFloat(p)]
	}
	return out, nil
}

func (gb *GradientBoostingClassifier) Estimators() []*TreeNode {
	var out []*TreeNode
	for _, stage := range gb.Stages {
		for _, t := range stage {
			out = append(out, t.Tree())
		}
	}
	return out
}
