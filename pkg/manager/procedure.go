package manager

import (
	"fmt"
	"strings"
	"time"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/data"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/model"
)

// Procedure names a fitting procedure.
type Procedure string

const (
	OLS              Procedure = "ols"
	WLS              Procedure = "wls"
	GLS              Procedure = "gls"
	RecursiveLS      Procedure = "recursive_ls"
	RLM              Procedure = "rlm"
	RollingLS        Procedure = "rolling_ls"
	RandomForest     Procedure = "random_forest"
	GradientBoosting Procedure = "gradient_boosting"
	KMeans           Procedure = "kmeans"
	GaussianFit      Procedure = "gaussian_fit"
	ExponentialFit   Procedure = "exponential_fit"
)

var procedures = []Procedure{
	OLS, WLS, GLS, RecursiveLS, RLM, RollingLS,
	RandomForest, GradientBoosting, KMeans, GaussianFit, ExponentialFit,
}

var titles = map[Procedure]string{
	OLS:              "OLS",
	WLS:              "WLS",
	GLS:              "GLS",
	RecursiveLS:      "Recursive LS",
	RLM:              "RLM",
	RollingLS:        "Rolling LS",
	RandomForest:     "Random Forest",
	GradientBoosting: "Gradient Boosting",
	KMeans:           "KMeans Clustering",
	GaussianFit:      "Gaussian Fitting",
	ExponentialFit:   "Exponential Fitting",
}

// Procedures lists every procedure in menu order.
func Procedures() []Procedure { return append([]Procedure(nil), procedures...) }

// Title is the display name used in menus and error messages.
func (p Procedure) Title() string {
	if t, ok := titles[p]; ok {
		return t
	}
	return string(p)
}

func (p Procedure) String() string { return string(p) }

// NeedsTarget reports whether the procedure requires a Y column.
func (p Procedure) NeedsTarget() bool { return p != KMeans }

// ParseProcedure accepts a procedure name or its title, case-insensitively,
// with '-' and ' ' treated as '_'.
func ParseProcedure(s string) (Procedure, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	for _, p := range procedures {
		if key == string(p) || key == strings.ReplaceAll(strings.ToLower(p.Title()), " ", "_") {
			return p, nil
		}
	}
	switch key {
	case "ordinary_least_squares":
		return OLS, nil
	case "weighted_least_squares":
		return WLS, nil
	case "generalized_least_squares":
		return GLS, nil
	case "recursive_least_squares":
		return RecursiveLS, nil
	case "robust_linear_model":
		return RLM, nil
	case "rolling_least_squares":
		return RollingLS, nil
	case "rf", "forest":
		return RandomForest, nil
	case "gb", "gbm", "gradient_boost":
		return GradientBoosting, nil
	case "gaussian":
		return GaussianFit, nil
	case "exponential":
		return ExponentialFit, nil
	}
	return "", fmt.Errorf("unknown procedure %q", s)
}

// Variant is the ensemble flavour fitted for a target.
type Variant int

const (
	// Auto picks the variant from the target kind.
	Auto Variant = iota
	Regression
	Classification
)

func (v Variant) String() string {
	switch v {
	case Regression:
		return "regression"
	case Classification:
		return "classification"
	default:
		return "auto"
	}
}

// ParseVariant reads "auto", "regression" or "classification".
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Auto, nil
	case "regression", "regressor":
		return Regression, nil
	case "classification", "classifier":
		return Classification, nil
	}
	return Auto, fmt.Errorf("unknown variant %q", s)
}

// VariantFor selects regression for a continuous target and classification
// for a categorical one.
func VariantFor(t data.Target) Variant {
	if t.Kind == data.Categorical {
		return Classification
	}
	return Regression
}

// Params carries the tunables of every procedure. Zero values select the
// defaults: 100 estimators, learning rate 0.1, 3 clusters, a window of 5.
// MaxDepth 0 leaves trees unlimited.
type Params struct {
	NEstimators  int     `validate:"gte=0,lte=1000"`
	MaxDepth     int     `validate:"gte=0,lte=100"`
	LearningRate float64 `validate:"gte=0,lte=1"`
	Clusters     int     `validate:"gte=0"`
	Window       int     `validate:"gte=0"`
	Variant      Variant `validate:"gte=0,lte=2"`

	// Weights are the WLS row weights.
	Weights []float64 `json:",omitempty"`
	// Sigma is the GLS error covariance.
	Sigma [][]float64 `json:"-"`
}

// Defaults for zero-valued Params fields.
const (
	DefaultEstimators   = 100
	DefaultLearningRate = 0.1
	DefaultClusters     = 3
	DefaultWindow       = 5
)

func (p Params) withDefaults() Params {
	if p.NEstimators == 0 {
		p.NEstimators = DefaultEstimators
	}
	if p.LearningRate == 0 {
		p.LearningRate = DefaultLearningRate
	}
	if p.Clusters == 0 {
		p.Clusters = DefaultClusters
	}
	if p.Window == 0 {
		p.Window = DefaultWindow
	}
	return p
}

// FitResult is the tagged result of an ensemble procedure: Model is a
// model.Regressor when Variant is Regression and a model.LabelClassifier
// when it is Classification.
type FitResult struct {
	Variant Variant
	Model   model.Handle
}

// OutputKind tags the payload of a Prediction.
type OutputKind int

const (
	OutputValues OutputKind = iota
	OutputLabels
	OutputClusters
)

// Prediction holds one output per input row in the field named by Kind.
type Prediction struct {
	Kind     OutputKind
	Values   []float64
	Labels   []string
	Clusters []int
}

// Len returns the number of predicted rows.
func (p Prediction) Len() int {
	switch p.Kind {
	case OutputLabels:
		return len(p.Labels)
	case OutputClusters:
		return len(p.Clusters)
	default:
		return len(p.Values)
	}
}

// Strings renders each prediction for display.
func (p Prediction) Strings() []string {
	out := make([]string, p.Len())
	for i := range out {
		switch p.Kind {
		case OutputLabels:
			out[i] = p.Labels[i]
		case OutputClusters:
			out[i] = fmt.Sprintf("cluster %d", p.Clusters[i])
		default:
			out[i] = fmt.Sprintf("%.6g", p.Values[i])
		}
	}
	return out
}

// Request is one dispatched run.
type Request struct {
	Procedure Procedure
	// X is the row-major feature matrix. Curve fits use its single column.
	X [][]float64
	// Y is the target. It is ignored by KMeans.
	Y data.Target
	// Features names the columns of X, for summaries.
	Features []string
	Params   Params
}

// Outcome is the result of Run.
type Outcome struct {
	Procedure Procedure
	// Variant is set for ensemble procedures.
	Variant Variant
	Model   model.Handle
	// Summary is the text summary, empty when the model has none.
	Summary  string
	Duration time.Duration
}
