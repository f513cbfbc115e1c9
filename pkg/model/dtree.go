package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/dataprep"
)

// parallelMinSamples is the node size from which split search fans out
// across features.
const parallelMinSamples = 128

// ---------------------------
// Types & options
// ---------------------------

// TreeConfig holds the CART hyperparameters shared by classifier and regressor.
type TreeConfig struct {
	MaxDepth            int     // maximum depth (root depth = 0). 0 => no limit
	MinSamplesSplit     int     // minimum samples to attempt a split
	MinSamplesLeaf      int     // minimum samples required in each leaf
	Criterion           string  // "gini" (default) or "entropy" for classifiers, "mse" for regressors
	MaxFeatures         int     // 0 => use all features, >0 => number of features sampled per split
	MinImpurityDecrease float64 // minimal impurity decrease to accept a split
	RandomState         int64   // seed for feature subsampling
}

// Option functional config
type Option func(*TreeConfig)

func WithMaxDepth(d int) Option         { return func(t *TreeConfig) { t.MaxDepth = d } }
func WithMinSamplesSplit(n int) Option  { return func(t *TreeConfig) { t.MinSamplesSplit = n } }
func WithMinSamplesLeaf(n int) Option   { return func(t *TreeConfig) { t.MinSamplesLeaf = n } }
func WithCriterion(c string) Option     { return func(t *TreeConfig) { t.Criterion = c } }
func WithMaxFeatures(k int) Option      { return func(t *TreeConfig) { t.MaxFeatures = k } }
func WithRandomState(seed int64) Option { return func(t *TreeConfig) { t.RandomState = seed } }
func WithMinImpurityDecrease(v float64) Option {
	return func(t *TreeConfig) { t.MinImpurityDecrease = v }
}

func newTreeConfig(criterion string, opts []Option) TreeConfig {
	c := TreeConfig{
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Criterion:       criterion,
		RandomState:     42,
	}
	for _, o := range opts {
		o(&c)
	}
	return c
}

// DecisionTreeClassifier is a CART-style classifier.
type DecisionTreeClassifier struct {
	TreeConfig

	root        *dtNode
	classes     []string
	importances []float64
	nFeatures   int
}

// DecisionTreeRegressor is a CART-style regressor minimizing squared error.
type DecisionTreeRegressor struct {
	TreeConfig

	root        *dtNode
	importances []float64
	nFeatures   int
}

// NewDecisionTreeClassifier returns a classifier with sensible defaults.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	return &DecisionTreeClassifier{TreeConfig: newTreeConfig("gini", opts)}
}

// NewDecisionTreeRegressor returns a regressor with sensible defaults.
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	return &DecisionTreeRegressor{TreeConfig: newTreeConfig("mse", opts)}
}

// dtNode holds a node in the tree.
type dtNode struct {
	isLeaf    bool
	feature   int
	threshold float64 // numeric threshold: x <= threshold => left
	isCat     bool    // equality split (x == threshold => left)
	sawNaN    bool    // missing values reached this split during training
	nanLeft   bool    // side those missing values went to
	left      *dtNode
	right     *dtNode

	n        int
	impurity float64
	probas   []float64 // classifier leaf distribution
	value    float64   // regressor leaf value
}

// ---------------------------
// Public API
// ---------------------------

// Fit trains the classifier on X (n x p) and string labels.
// Missing feature values must be math.NaN().
func (t *DecisionTreeClassifier) Fit(X [][]float64, labels []string) error {
	codes, enc := dataprep.LabelEncode(labels)
	t.classes = enc.Classes
	return t.fitCodes(X, codes, len(enc.Classes), nil)
}

// fitCodes trains on integer class codes in [0, nClasses). idx selects the
// training rows, with repeats; nil means every row once.
func (t *DecisionTreeClassifier) fitCodes(X [][]float64, y []int, nClasses int, idx []int) error {
	if len(X) == 0 {
		return errors.New("dtree: empty X")
	}
	if len(y) != len(X) {
		return errors.New("dtree: X and y length mismatch")
	}
	if nClasses == 0 {
		return errors.New("dtree: no classes in y")
	}
	b, err := newBuilder(&t.TreeConfig, X, idx)
	if err != nil {
		return err
	}
	b.codes, b.nClass = y, nClasses
	t.root = b.build()
	t.importances = b.importances()
	t.nFeatures = b.p
	return nil
}

// Fit trains the regressor on X and a continuous target.
func (t *DecisionTreeRegressor) Fit(X [][]float64, y []float64) error {
	return t.fitIndices(X, y, nil)
}

func (t *DecisionTreeRegressor) fitIndices(X [][]float64, y []float64, idx []int) error {
	if len(X) == 0 {
		return errors.New("dtree: empty X")
	}
	if len(y) != len(X) {
		return errors.New("dtree: X and y length mismatch")
	}
	b, err := newBuilder(&t.TreeConfig, X, idx)
	if err != nil {
		return err
	}
	b.y = y
	t.root = b.build()
	t.importances = b.importances()
	t.nFeatures = b.p
	return nil
}

func (t *DecisionTreeClassifier) Name() string { return "DecisionTreeClassifier" }
func (t *DecisionTreeRegressor) Name() string  { return "DecisionTreeRegressor" }

func (t *DecisionTreeClassifier) Classes() []string { return append([]string(nil), t.classes...) }

// PredictProba returns the per-class probability vectors for rows in X.
func (t *DecisionTreeClassifier) PredictProba(X [][]float64) ([][]float64, error) {
	if t.root == nil {
		return nil, errors.New("dtree: tree not trained")
	}
	if err := checkWidth(X, t.nFeatures); err != nil {
		return nil, err
	}
	out := make([][]float64, len(X))
	for i := range X {
		out[i] = t.root.leaf(X[i]).probas
	}
	return out, nil
}

// PredictLabels returns the most probable class of each row.
func (t *DecisionTreeClassifier) PredictLabels(X [][]float64) ([]string, error) {
	probs, err := t.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(X))
	for i, p := range probs {
		out[i] = t.classes[argmaxFloat(p)]
	}
	return out, nil
}

// Predict returns the leaf value of each row.
func (t *DecisionTreeRegressor) Predict(X [][]float64) ([]float64, error) {
	if t.root == nil {
		return nil, errors.New("dtree: tree not trained")
	}
	if err := checkWidth(X, t.nFeatures); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i := range X {
		out[i] = t.root.leaf(X[i]).value
	}
	return out, nil
}

// FeatureImportances returns the normalized total impurity decrease per feature.
func (t *DecisionTreeClassifier) FeatureImportances() []float64 {
	return append([]float64(nil), t.importances...)
}

func (t *DecisionTreeRegressor) FeatureImportances() []float64 {
	return append([]float64(nil), t.importances...)
}

// Tree exports the fitted structure.
func (t *DecisionTreeClassifier) Tree() *TreeNode { return t.root.view() }
func (t *DecisionTreeRegressor) Tree() *TreeNode  { return t.root.view() }

// Estimators lets a single tree be drawn like an ensemble of one.
func (t *DecisionTreeClassifier) Estimators() []*TreeNode { return []*TreeNode{t.Tree()} }
func (t *DecisionTreeRegressor) Estimators() []*TreeNode  { return []*TreeNode{t.Tree()} }

// ---------------------------
// Internal builders & helpers
// ---------------------------

// nodeStats accumulates the sufficient statistics of a sample set: class
// counts for classifiers, first and second moments for regressors.
type nodeStats struct {
	n      int
	counts []float64
	sum    float64
	sumSq  float64
}

func (s *nodeStats) reset() {
	s.n, s.sum, s.sumSq = 0, 0, 0
	for k := range s.counts {
		s.counts[k] = 0
	}
}

// set makes s = a + sign*b.
func (s *nodeStats) set(a, b *nodeStats, sign int) {
	s.n = a.n + sign*b.n
	s.sum = a.sum + float64(sign)*b.sum
	s.sumSq = a.sumSq + float64(sign)*b.sumSq
	for k := range s.counts {
		s.counts[k] = a.counts[k] + float64(sign)*b.counts[k]
	}
}

// builder grows one tree.
type builder struct {
	cfg *TreeConfig
	X   [][]float64
	p   int
	idx []int
	rnd *rand.Rand

	codes  []int // classification targets
	nClass int
	y      []float64 // regression targets

	imp []float64
}

func newBuilder(cfg *TreeConfig, X [][]float64, idx []int) (*builder, error) {
	p := len(X[0])
	for i := range X {
		if len(X[i]) != p {
			return nil, errors.New("dtree: inconsistent number of features in X rows")
		}
	}
	if idx == nil {
		idx = make([]int, len(X))
		for i := range idx {
			idx[i] = i
		}
	}
	switch cfg.Criterion {
	case "", "gini", "entropy", "mse":
	default:
		return nil, fmt.Errorf("dtree: unknown criterion %q", cfg.Criterion)
	}
	return &builder{
		cfg: cfg,
		X:   X,
		p:   p,
		idx: idx,
		rnd: rand.New(rand.NewSource(cfg.RandomState)),
		imp: make([]float64, p),
	}, nil
}

func (b *builder) newStats() *nodeStats {
	return &nodeStats{counts: make([]float64, b.nClass)}
}

func (b *builder) add(s *nodeStats, i int) {
	s.n++
	if b.nClass > 0 {
		s.counts[b.codes[i]]++
		return
	}
	v := b.y[i]
	s.sum += v
	s.sumSq += v * v
}

func (b *builder) impurity(s *nodeStats) float64 {
	if s.n == 0 {
		return 0
	}
	n := float64(s.n)
	if b.nClass == 0 {
		m := s.sum / n
		return math.Max(s.sumSq/n-m*m, 0)
	}
	res := 0.0
	if b.cfg.Criterion == "entropy" {
		for _, c := range s.counts {
			if c > 0 {
				p := c / n
				res -= p * math.Log2(p)
			}
		}
		return res
	}
	for _, c := range s.counts {
		p := c / n
		res += p * (1 - p)
	}
	return res
}

func (b *builder) build() *dtNode {
	return b.buildNode(b.idx, 0)
}

func (b *builder) importances() []float64 {
	total := 0.0
	for _, v := range b.imp {
		total += v
	}
	out := make([]float64, len(b.imp))
	if total == 0 {
		return out
	}
	for j, v := range b.imp {
		out[j] = v / total
	}
	return out
}

func (b *builder) leafFrom(node *dtNode, s *nodeStats) *dtNode {
	node.isLeaf = true
	if b.nClass > 0 {
		node.probas = make([]float64, b.nClass)
		for k, c := range s.counts {
			node.probas[k] = c / float64(s.n)
		}
	} else {
		node.value = s.sum / float64(s.n)
	}
	return node
}

// splitResult holds the best split found for one feature.
type splitResult struct {
	gain      float64
	feature   int
	threshold float64
	isCat     bool
	sawNaN    bool
	nanLeft   bool
}

// pair is a feature value and its row index.
type pair struct {
	v float64
	i int
}

func (b *builder) buildNode(idx []int, depth int) *dtNode {
	total := b.newStats()
	for _, i := range idx {
		b.add(total, i)
	}
	node := &dtNode{n: len(idx), impurity: b.impurity(total)}

	// make leaf if pure, too few samples or depth reached
	if node.impurity == 0 || len(idx) < b.cfg.MinSamplesSplit || len(idx) < 2*max(b.cfg.MinSamplesLeaf, 1) {
		return b.leafFrom(node, total)
	}
	if b.cfg.MaxDepth > 0 && depth >= b.cfg.MaxDepth {
		return b.leafFrom(node, total)
	}

	// determine features to try
	featIndices := make([]int, b.p)
	for j := range featIndices {
		featIndices[j] = j
	}
	if b.cfg.MaxFeatures > 0 && b.cfg.MaxFeatures < b.p {
		for i := 0; i < b.cfg.MaxFeatures; i++ {
			j := i + b.rnd.Intn(b.p-i)
			featIndices[i], featIndices[j] = featIndices[j], featIndices[i]
		}
		featIndices = featIndices[:b.cfg.MaxFeatures]
		sort.Ints(featIndices)
	}

	results := make([]splitResult, len(featIndices))
	if len(idx) >= parallelMinSamples && len(featIndices) > 1 {
		// Parallel search for the best split of each feature.
		var wg sync.WaitGroup
		for pos, f := range featIndices {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[pos] = b.bestSplitForFeature(idx, f, node.impurity, total)
			}()
		}
		wg.Wait()
	} else {
		for pos, f := range featIndices {
			results[pos] = b.bestSplitForFeature(idx, f, node.impurity, total)
		}
	}

	// featIndices is ascending, so strict comparison keeps the lowest
	// feature index on ties.
	best := splitResult{feature: -1}
	for _, r := range results {
		if r.feature >= 0 && r.gain > best.gain {
			best = r
		}
	}
	if best.feature == -1 || best.gain <= b.cfg.MinImpurityDecrease {
		return b.leafFrom(node, total)
	}

	leftIdx := make([]int, 0, len(idx))
	rightIdx := make([]int, 0, len(idx))
	for _, i := range idx {
		if goesLeft(b.X[i][best.feature], best.threshold, best.isCat, best.nanLeft) {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	node.feature = best.feature
	node.threshold = best.threshold
	node.isCat = best.isCat
	node.sawNaN = best.sawNaN
	node.nanLeft = best.nanLeft
	b.imp[best.feature] += best.gain * float64(len(idx))
	node.left = b.buildNode(leftIdx, depth+1)
	node.right = b.buildNode(rightIdx, depth+1)
	return node
}

func goesLeft(v, threshold float64, isCat, nanLeft bool) bool {
	switch {
	case math.IsNaN(v):
		return nanLeft
	case isCat:
		return v == threshold
	default:
		return v <= threshold
	}
}

// bestSplitForFeature scans every threshold of feature f. It only reads
// shared state, so several features can be searched concurrently.
func (b *builder) bestSplitForFeature(idx []int, f int, parentImpurity float64, total *nodeStats) splitResult {
	result := splitResult{feature: -1}

	valid := make([]pair, 0, len(idx))
	nans := b.newStats()
	for _, i := range idx {
		v := b.X[i][f]
		if math.IsNaN(v) {
			b.add(nans, i)
		} else {
			valid = append(valid, pair{v, i})
		}
	}
	if len(valid) < 2 {
		return result
	}
	sort.Slice(valid, func(a, c int) bool {
		if valid[a].v != valid[c].v {
			return valid[a].v < valid[c].v
		}
		return valid[a].i < valid[c].i
	})
	validStats := b.newStats()
	validStats.set(total, nans, -1)

	n := float64(len(idx))
	left, right := b.newStats(), b.newStats()
	l2, r2 := b.newStats(), b.newStats()
	try := func(l, r *nodeStats, thr float64, isCat, nanLeft bool) {
		if l.n < b.cfg.MinSamplesLeaf || r.n < b.cfg.MinSamplesLeaf || l.n == 0 || r.n == 0 {
			return
		}
		weighted := (float64(l.n)*b.impurity(l) + float64(r.n)*b.impurity(r)) / n
		gain := parentImpurity - weighted
		if gain > result.gain {
			result = splitResult{gain: gain, feature: f, threshold: thr, isCat: isCat, sawNaN: nans.n > 0, nanLeft: nanLeft}
		}
	}
	tryBoth := func(thr float64, isCat bool) {
		right.set(validStats, left, -1)
		if nans.n == 0 {
			try(left, right, thr, isCat, false)
			return
		}
		l2.set(left, nans, 1)
		try(l2, right, thr, isCat, true)
		r2.set(right, nans, 1)
		try(left, r2, thr, isCat, false)
	}

	// numeric splits: sweep the sorted values left to right
	for s := 1; s < len(valid); s++ {
		b.add(left, valid[s-1].i)
		if valid[s].v == valid[s-1].v {
			continue
		}
		thr := (valid[s-1].v + valid[s].v) / 2
		if thr >= valid[s].v {
			thr = valid[s-1].v
		}
		tryBoth(thr, false)
	}

	// equality splits for integer-like features with few distinct values
	if runs := valueRuns(valid); len(runs) > 2 && len(runs) <= 30 && allIntLike(valid, runs) {
		for r := range runs {
			left.reset()
			end := len(valid)
			if r+1 < len(runs) {
				end = runs[r+1]
			}
			for _, pv := range valid[runs[r]:end] {
				b.add(left, pv.i)
			}
			tryBoth(valid[runs[r]].v, true)
		}
	}
	return result
}

// valueRuns returns the start offset of each run of equal values.
func valueRuns(sorted []pair) []int {
	runs := []int{0}
	for s := 1; s < len(sorted); s++ {
		if sorted[s].v != sorted[s-1].v {
			runs = append(runs, s)
		}
	}
	return runs
}

func allIntLike(sorted []pair, runs []int) bool {
	for _, r := range runs {
		if !almostInt(sorted[r].v) {
			return false
		}
	}
	return true
}

func almostInt(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	_, frac := math.Modf(math.Abs(v))
	return frac < 1e-9 || frac > 1-1e-9
}

// ---------------------------
// Prediction helpers
// ---------------------------

func (node *dtNode) leaf(x []float64) *dtNode {
	for !node.isLeaf {
		val := x[node.feature]
		if math.IsNaN(val) && !node.sawNaN {
			// unseen missing value: follow the branch with more samples
			if node.left.n >= node.right.n {
				node = node.left
			} else {
				node = node.right
			}
			continue
		}
		if goesLeft(val, node.threshold, node.isCat, node.nanLeft) {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node
}

func (node *dtNode) view() *TreeNode {
	if node == nil {
		return nil
	}
	v := &TreeNode{
		Feature:     node.feature,
		Threshold:   node.threshold,
		Categorical: node.isCat,
		Samples:     node.n,
		Impurity:    node.impurity,
	}
	if node.isLeaf {
		v.Feature = -1
		if node.probas != nil {
			v.Value = append([]float64(nil), node.probas...)
		} else {
			v.Value = []float64{node.value}
		}
		return v
	}
	v.Left = node.left.view()
	v.Right = node.right.view()
	return v
}

func argmaxFloat(arr []float64) int {
	best := 0
	for i := 1; i < len(arr); i++ {
		if arr[i] > arr[best] {
			best = i
		}
	}
	return best
}
