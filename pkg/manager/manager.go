// Package manager dispatches fitting procedures and owns the current model.
package manager

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/data"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/model"
)

// Manager runs procedures and keeps the most recent successful model in a
// single slot. A failed fit leaves the slot unchanged.
//
// Methods are safe to call from several goroutines, but fits are not
// cancellable; callers that want a responsive UI run one fit at a time on a
// worker goroutine.
type Manager struct {
	mu      sync.Mutex
	current model.Handle
	proc    Procedure

	log         *zap.Logger
	validate    *validator.Validate
	seed        int64
	kmeansInit  int
	kmeansIter  int
	curveMethod string
}

// Option configures a Manager.
type Option func(*Manager)

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithRandomState seeds every stochastic procedure.
func WithRandomState(seed int64) Option { return func(m *Manager) { m.seed = seed } }

// WithKMeans sets the number of k-means++ restarts and the Lloyd iteration cap.
func WithKMeans(nInit, maxIter int) Option {
	return func(m *Manager) {
		if nInit > 0 {
			m.kmeansInit = nInit
		}
		if maxIter > 0 {
			m.kmeansIter = maxIter
		}
	}
}

// WithCurveMethod picks the curve-fit optimizer ("lm", "lbfgs", "nelder-mead").
func WithCurveMethod(method string) Option {
	return func(m *Manager) {
		if method != "" {
			m.curveMethod = method
		}
	}
}

// New returns an empty Manager.
func New(opts ...Option) *Manager {
	m := &Manager{
		log:         zap.NewNop(),
		validate:    validator.New(),
		seed:        42,
		kmeansInit:  10,
		kmeansIter:  300,
		curveMethod: model.MethodLM,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Current returns the current model, nil before the first successful fit.
func (m *Manager) Current() model.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// CurrentProcedure returns the procedure that produced the current model.
func (m *Manager) CurrentProcedure() Procedure {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.proc
}

func (m *Manager) snapshot() (model.Handle, Procedure) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, m.proc
}

func (m *Manager) commit(proc Procedure, h model.Handle) {
	m.mu.Lock()
	m.current, m.proc = h, proc
	m.mu.Unlock()
}

type shape struct{ rows, cols int }

func shapeOf(X [][]float64) shape {
	if len(X) == 0 {
		return shape{}
	}
	return shape{len(X), len(X[0])}
}

// fit runs fn, wraps its error with kind and commits the handle on success.
func fit[T model.Handle](m *Manager, proc Procedure, kind error, in shape, fn func() (T, error)) (T, error) {
	start := time.Now()
	h, err := fn()
	if err != nil {
		m.log.Warn("fit failed",
			zap.String("procedure", string(proc)),
			zap.Int("rows", in.rows),
			zap.Error(err),
		)
		var zero T
		return zero, newError(kind, proc, err)
	}
	m.commit(proc, h)
	m.log.Info("model fitted",
		zap.String("procedure", string(proc)),
		zap.String("model", h.Name()),
		zap.Int("rows", in.rows),
		zap.Int("features", in.cols),
		zap.Duration("duration", time.Since(start)),
	)
	return h, nil
}

func aligned(X [][]float64, n int) error {
	if len(X) != n {
		return fmt.Errorf("%w: X has %d rows, y has %d", model.ErrShape, len(X), n)
	}
	return nil
}

func finite(y []float64) error {
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: y[%d]", model.ErrNaN, i)
		}
	}
	return nil
}

// params validates p and fills in defaults.
func (m *Manager) params(proc Procedure, p Params) (Params, error) {
	if err := m.validate.Struct(p); err != nil {
		return p, newError(ErrModel, proc, describe(err))
	}
	return p.withDefaults(), nil
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		op := fe.Tag()
		switch op {
		case "gte":
			op = ">="
		case "lte":
			op = "<="
		}
		msgs = append(msgs, fmt.Sprintf("%s must be %s %s, got %v", fe.Field(), op, fe.Param(), fe.Value()))
	}
	return fmt.Errorf("invalid parameters: %s", strings.Join(msgs, "; "))
}

// OLS fits ordinary least squares with an intercept.
func (m *Manager) OLS(X [][]float64, y []float64) (*model.LinearFit, error) {
	return fit(m, OLS, ErrModel, shapeOf(X), func() (*model.LinearFit, error) {
		if err := aligned(X, len(y)); err != nil {
			return nil, err
		}
		return model.FitOLS(X, y)
	})
}

// WLS fits weighted least squares. Weights must be positive, one per row.
func (m *Manager) WLS(X [][]float64, y, weights []float64) (*model.LinearFit, error) {
	return fit(m, WLS, ErrModel, shapeOf(X), func() (*model.LinearFit, error) {
		if err := aligned(X, len(y)); err != nil {
			return nil, err
		}
		return model.FitWLS(X, y, weights)
	})
}

// GLS fits generalized least squares under the n×n error covariance sigma.
func (m *Manager) GLS(X [][]float64, y []float64, sigma [][]float64) (*model.LinearFit, error) {
	return fit(m, GLS, ErrModel, shapeOf(X), func() (*model.LinearFit, error) {
		if err := aligned(X, len(y)); err != nil {
			return nil, err
		}
		return model.FitGLS(X, y, sigma)
	})
}

// RecursiveLS fits least squares updated row by row.
func (m *Manager) RecursiveLS(X [][]float64, y []float64) (*model.RecursiveFit, error) {
	return fit(m, RecursiveLS, ErrModel, shapeOf(X), func() (*model.RecursiveFit, error) {
		if err := aligned(X, len(y)); err != nil {
			return nil, err
		}
		return model.FitRecursive(X, y)
	})
}

// RLM fits a Huber robust linear model.
func (m *Manager) RLM(X [][]float64, y []float64) (*model.RobustFit, error) {
	return fit(m, RLM, ErrModel, shapeOf(X), func() (*model.RobustFit, error) {
		if err := aligned(X, len(y)); err != nil {
			return nil, err
		}
		return model.FitRobust(X, y)
	})
}

// RollingLS fits OLS on every window of w consecutive rows.
func (m *Manager) RollingLS(X [][]float64, y []float64, w int) (*model.RollingFit, error) {
	return fit(m, RollingLS, ErrModel, shapeOf(X), func() (*model.RollingFit, error) {
		if err := aligned(X, len(y)); err != nil {
			return nil, err
		}
		return model.FitRolling(X, y, w)
	})
}

// chooseVariant applies an explicit override or falls back to the target kind.
func chooseVariant(y data.Target, v Variant) (Variant, error) {
	switch v {
	case Auto:
		return VariantFor(y), nil
	case Regression:
		if y.Kind == data.Categorical {
			return Auto, fmt.Errorf("regression needs a continuous target, %q is categorical", y.Name)
		}
	}
	return v, nil
}

// ensemble validates p, resolves the variant and runs the matching fit.
func (m *Manager) ensemble(proc Procedure, X [][]float64, y data.Target, p Params,
	regress func(Params) (model.Handle, error), classify func(Params, []string) (model.Handle, error),
) (FitResult, error) {
	p, err := m.params(proc, p)
	if err != nil {
		return FitResult{}, err
	}
	variant, err := chooseVariant(y, p.Variant)
	if err != nil {
		return FitResult{}, newError(ErrModel, proc, err)
	}
	h, err := fit(m, proc, ErrModel, shapeOf(X), func() (model.Handle, error) {
		if err := aligned(X, y.Len()); err != nil {
			return nil, err
		}
		if variant == Regression {
			if err := finite(y.Values); err != nil {
				return nil, err
			}
			return regress(p)
		}
		return classify(p, y.ClassLabels())
	})
	if err != nil {
		return FitResult{}, err
	}
	m.log.Debug("ensemble variant selected",
		zap.String("procedure", string(proc)),
		zap.Stringer("variant", variant),
		zap.Stringer("target", y.Kind),
	)
	return FitResult{Variant: variant, Model: h}, nil
}

// RandomForest fits a bagged tree ensemble, a regressor for continuous
// targets and a classifier for categorical ones.
func (m *Manager) RandomForest(X [][]float64, y data.Target, p Params) (FitResult, error) {
	opts := func(p Params) []model.ForestOption {
		return []model.ForestOption{
			model.WithNEstimators(p.NEstimators),
			model.WithSeed(m.seed),
			model.WithTreeOptions(model.WithMaxDepth(p.MaxDepth)),
		}
	}
	return m.ensemble(RandomForest, X, y, p,
		func(p Params) (model.Handle, error) {
			rf := model.NewRandomForestRegressor(opts(p)...)
			return rf, rf.Fit(X, y.Values)
		},
		func(p Params, labels []string) (model.Handle, error) {
			rf := model.NewRandomForestClassifier(opts(p)...)
			return rf, rf.Fit(X, labels)
		},
	)
}

// GradientBoosting fits boosted regression trees, with the same variant rule
// as RandomForest.
func (m *Manager) GradientBoosting(X [][]float64, y data.Target, p Params) (FitResult, error) {
	cfg := func(p Params) model.BoostConfig {
		return model.BoostConfig{
			NEstimators:    p.NEstimators,
			LearningRate:   p.LearningRate,
			MaxDepth:       p.MaxDepth,
			MinSamplesLeaf: 1,
			RandomState:    m.seed,
		}
	}
	return m.ensemble(GradientBoosting, X, y, p,
		func(p Params) (model.Handle, error) {
			gb := model.NewGradientBoostingRegressor(cfg(p))
			return gb, gb.Fit(X, y.Values)
		},
		func(p Params, labels []string) (model.Handle, error) {
			gb := model.NewGradientBoostingClassifier(cfg(p))
			return gb, gb.Fit(X, labels)
		},
	)
}

// KMeans partitions the rows of X into p.Clusters clusters.
func (m *Manager) KMeans(X [][]float64, p Params) (*model.KMeans, error) {
	p, err := m.params(KMeans, p)
	if err != nil {
		return nil, err
	}
	return fit(m, KMeans, ErrModel, shapeOf(X), func() (*model.KMeans, error) {
		km := model.NewKMeans(p.Clusters)
		km.NInit = m.kmeansInit
		km.MaxIter = m.kmeansIter
		km.RandomState = m.seed
		if err := km.Fit(X); err != nil {
			return nil, err
		}
		return km, nil
	})
}

// GaussianFit fits a·exp(−(x−x0)²/2σ²) to (x, y).
func (m *Manager) GaussianFit(x, y []float64) (*model.CurveFit, error) {
	return fit(m, GaussianFit, ErrFitting, shape{len(x), 1}, func() (*model.CurveFit, error) {
		return model.FitGaussian(x, y, model.WithMethod(m.curveMethod))
	})
}

// ExponentialFit fits a·exp(b·x)+c to (x, y).
func (m *Manager) ExponentialFit(x, y []float64) (*model.CurveFit, error) {
	return fit(m, ExponentialFit, ErrFitting, shape{len(x), 1}, func() (*model.CurveFit, error) {
		return model.FitExponential(x, y, model.WithMethod(m.curveMethod))
	})
}

// Summary returns the text summary of the current model.
func (m *Manager) Summary() (string, error) {
	h, proc := m.snapshot()
	if h == nil {
		return "", newError(ErrNoModel, "", nil)
	}
	s, ok := h.(model.Summarizer)
	if !ok {
		return "", newError(ErrUnsupported, proc, errors.New("summary is not available for this model"))
	}
	return s.Summary(), nil
}

// Predict applies the current model to new rows.
func (m *Manager) Predict(X [][]float64) (Prediction, error) {
	h, proc := m.snapshot()
	if h == nil {
		return Prediction{}, newError(ErrNoModel, "", nil)
	}
	var (
		p   Prediction
		err error
	)
	switch mdl := h.(type) {
	case model.LabelClassifier:
		p.Kind = OutputLabels
		p.Labels, err = mdl.PredictLabels(X)
	case model.Regressor:
		p.Kind = OutputValues
		p.Values, err = mdl.Predict(X)
	case model.ClusterAssigner:
		p.Kind = OutputClusters
		p.Clusters, err = mdl.Assign(X)
	default:
		return Prediction{}, newError(ErrUnsupported, proc, fmt.Errorf("%s cannot predict", h.Name()))
	}
	if err != nil {
		return Prediction{}, newError(ErrModel, proc, err)
	}
	return p, nil
}
