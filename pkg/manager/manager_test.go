package manager

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/data"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/model"
)

func line(n int) ([][]float64, []float64) {
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		X[i] = []float64{float64(i + 1)}
		y[i] = 2 * float64(i+1)
	}
	return X, y
}

func twoBlobs(n int) ([][]float64, data.Target) {
	rnd := rand.New(rand.NewSource(1))
	var X [][]float64
	var labels []string
	for i := range 2 * n {
		c, lbl := 0.0, "low"
		if i >= n {
			c, lbl = 6, "high"
		}
		X = append(X, []float64{c + rnd.NormFloat64()*0.5, c + rnd.NormFloat64()*0.5})
		labels = append(labels, lbl)
	}
	t := data.CategoricalTarget(labels)
	t.Name = "class"
	return X, t
}

func TestOLS_PredictsLine(t *testing.T) {
	m := New()
	X, y := line(5)
	fit, err := m.OLS(X, y)
	require.NoError(t, err)
	assert.Same(t, fit, m.Current())
	assert.Equal(t, OLS, m.CurrentProcedure())

	p, err := m.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, OutputValues, p.Kind)
	assert.InDeltaSlice(t, []float64{2, 4, 6, 8, 10}, p.Values, 1e-9)

	s, err := m.Summary()
	require.NoError(t, err)
	assert.Contains(t, s, "OLS Regression Results")
}

func TestLinearFamily(t *testing.T) {
	m := New()
	X, y := line(8)
	y[3] += 0.5

	ols, err := m.OLS(X, y)
	require.NoError(t, err)

	w := make([]float64, len(y))
	for i := range w {
		w[i] = 1
	}
	wls, err := m.WLS(X, y, w)
	require.NoError(t, err)
	assert.InDeltaSlice(t, ols.Params, wls.Params, 1e-9)

	ident := make([][]float64, len(y))
	for i := range ident {
		ident[i] = make([]float64, len(y))
		ident[i][i] = 1
	}
	gls, err := m.GLS(X, y, ident)
	require.NoError(t, err)
	assert.InDeltaSlice(t, ols.Params, gls.Params, 1e-9)

	rls, err := m.RecursiveLS(X, y)
	require.NoError(t, err)
	assert.InDeltaSlice(t, ols.Params, rls.Params, 1e-8)

	rlm, err := m.RLM(X, y)
	require.NoError(t, err)
	assert.Len(t, rlm.Params, 2)

	ident[2][2] = -1
	_, err = m.GLS(X, y, ident)
	assert.ErrorIs(t, err, ErrModel)
	assert.Same(t, rlm, m.Current(), "failed GLS keeps the robust fit")
}

func TestRollingLS(t *testing.T) {
	m := New()
	X, y := line(10)
	fit, err := m.RollingLS(X, y, 4)
	require.NoError(t, err)
	assert.Equal(t, 7, fit.Defined())
	assert.Same(t, fit, m.Current())

	_, err = m.Summary()
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = m.RollingLS(X, y, 11)
	assert.ErrorIs(t, err, ErrModel)
}

func TestVariantSelection(t *testing.T) {
	m := New()
	X, y := line(20)
	cont := data.ContinuousTarget(y)
	Xc, cat := twoBlobs(20)

	for _, run := range []func([][]float64, data.Target, Params) (FitResult, error){m.RandomForest, m.GradientBoosting} {
		r, err := run(X, cont, Params{NEstimators: 10})
		require.NoError(t, err)
		assert.Equal(t, Regression, r.Variant)
		_, ok := r.Model.(model.Regressor)
		assert.True(t, ok, "%T is a regressor", r.Model)

		r, err = run(Xc, cat, Params{NEstimators: 10})
		require.NoError(t, err)
		assert.Equal(t, Classification, r.Variant)
		clf, ok := r.Model.(model.LabelClassifier)
		require.True(t, ok, "%T is a classifier", r.Model)
		assert.Equal(t, []string{"high", "low"}, clf.Classes())
		assert.Same(t, r.Model, m.Current())

		p, err := m.Predict([][]float64{{0, 0}, {6, 6}})
		require.NoError(t, err)
		assert.Equal(t, OutputLabels, p.Kind)
		assert.Equal(t, []string{"low", "high"}, p.Labels)
	}
}

func TestVariantOverride(t *testing.T) {
	m := New()
	X, cat := twoBlobs(10)
	_, err := m.RandomForest(X, cat, Params{Variant: Regression})
	assert.ErrorIs(t, err, ErrModel)
	assert.Nil(t, m.Current())

	codes := make([]float64, cat.Len())
	for i, l := range cat.Labels {
		if l == "high" {
			codes[i] = 1
		}
	}
	r, err := m.RandomForest(X, data.ContinuousTarget(codes), Params{NEstimators: 5, Variant: Classification})
	require.NoError(t, err)
	assert.Equal(t, Classification, r.Variant)
	assert.Equal(t, []string{"0", "1"}, r.Model.(model.LabelClassifier).Classes())
}

func TestVariantFor(t *testing.T) {
	assert.Equal(t, Regression, VariantFor(data.ContinuousTarget([]float64{1, 2})))
	assert.Equal(t, Classification, VariantFor(data.CategoricalTarget([]string{"a"})))
}

func TestParamsValidation(t *testing.T) {
	m := New()
	X, y := line(10)
	cont := data.ContinuousTarget(y)

	_, err := m.RandomForest(X, cont, Params{NEstimators: 2000})
	require.ErrorIs(t, err, ErrModel)
	assert.Contains(t, err.Error(), "NEstimators must be <= 1000")
	assert.Contains(t, err.Error(), "Random Forest model error")

	_, err = m.GradientBoosting(X, cont, Params{LearningRate: 1.5})
	assert.ErrorIs(t, err, ErrModel)
	_, err = m.GradientBoosting(X, cont, Params{MaxDepth: -1})
	assert.ErrorIs(t, err, ErrModel)
	_, err = m.KMeans(X, Params{Clusters: -2})
	assert.ErrorIs(t, err, ErrModel)
	assert.Nil(t, m.Current())
}

func TestKMeans(t *testing.T) {
	m := New()
	X, _ := twoBlobs(15)
	km, err := m.KMeans(X, Params{Clusters: 2})
	require.NoError(t, err)
	for _, l := range km.Labels() {
		assert.Contains(t, []int{0, 1}, l)
	}

	p, err := m.Predict([][]float64{{0, 0}})
	require.NoError(t, err)
	assert.Equal(t, OutputClusters, p.Kind)
	assert.Equal(t, 1, p.Len())

	_, err = m.Summary()
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = m.KMeans(X[:3], Params{Clusters: 4})
	assert.ErrorIs(t, err, ErrModel)
	assert.Same(t, km, m.Current(), "failed fit preserves the previous model")
}

func TestCurveFits(t *testing.T) {
	m := New()
	var x, yg, ye []float64
	for i := range 80 {
		v := float64(i)/10 - 2
		x = append(x, v)
		yg = append(yg, 4*math.Exp(-(v-1)*(v-1)/(2*0.8*0.8)))
		ye = append(ye, 1.5*math.Exp(0.4*v)+0.5)
	}

	g, err := m.GaussianFit(x, yg)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{4, 1, 0.8}, g.Params(), 0.05)

	e, err := m.ExponentialFit(x, ye)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.5, 0.4, 0.5}, e.Params(), 0.05)
	assert.Same(t, e, m.Current())

	flat := make([]float64, len(x))
	_, err = m.ExponentialFit(x, flat)
	assert.ErrorIs(t, err, ErrFitting)
	assert.Same(t, e, m.Current())
}

func TestNoModel(t *testing.T) {
	m := New()
	_, err := m.Summary()
	assert.ErrorIs(t, err, ErrNoModel)
	_, err = m.Predict([][]float64{{1}})
	assert.ErrorIs(t, err, ErrNoModel)
}

func TestMisalignedRows(t *testing.T) {
	m := New()
	X, y := line(5)
	_, err := m.OLS(X, y[:4])
	assert.ErrorIs(t, err, ErrModel)
	assert.ErrorIs(t, err, ErrInput)

	var merr *Error
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, OLS, merr.Procedure)
	assert.Equal(t, ErrModel, KindOf(err))
}

func TestRun(t *testing.T) {
	m := New()
	X, y := line(12)
	target := data.ContinuousTarget(y)
	target.Name = "sales"

	out, err := m.Run(Request{Procedure: OLS, X: X, Y: target, Features: []string{"price"}})
	require.NoError(t, err)
	assert.Contains(t, out.Summary, "sales")
	assert.Contains(t, out.Summary, "price")

	out, err = m.Run(Request{Procedure: RandomForest, X: X, Y: target, Params: Params{NEstimators: 3}})
	require.NoError(t, err)
	assert.Equal(t, Regression, out.Variant)
	assert.Empty(t, out.Summary)

	out, err = m.Run(Request{Procedure: RollingLS, X: X, Y: target, Params: Params{Window: 6}})
	require.NoError(t, err)
	assert.Equal(t, 7, out.Model.(*model.RollingFit).Defined())

	out, err = m.Run(Request{Procedure: KMeans, X: X})
	require.NoError(t, err)
	assert.Equal(t, 3, len(out.Model.(*model.KMeans).Centroids()))
}

func TestRun_Errors(t *testing.T) {
	m := New()
	X, y := line(6)
	target := data.ContinuousTarget(y)

	_, err := m.Run(Request{Procedure: OLS, Y: target})
	assert.ErrorIs(t, err, ErrSelection)
	_, err = m.Run(Request{Procedure: OLS, X: X})
	assert.ErrorIs(t, err, ErrSelection)

	_, err = m.Run(Request{Procedure: "svm", X: X, Y: target})
	assert.ErrorIs(t, err, ErrUnsupported)

	cat := data.CategoricalTarget([]string{"a", "b", "a", "b", "a", "b"})
	_, err = m.Run(Request{Procedure: OLS, X: X, Y: cat})
	assert.ErrorIs(t, err, ErrModel)

	wide := [][]float64{{1, 2}, {2, 3}, {3, 4}, {4, 5}, {5, 6}, {6, 7}}
	_, err = m.Run(Request{Procedure: GaussianFit, X: wide, Y: target})
	assert.ErrorIs(t, err, ErrInput)
	assert.Nil(t, m.Current())
}

func TestLogsFits(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := New(WithLogger(zap.New(core)))
	X, y := line(5)
	_, err := m.OLS(X, y)
	require.NoError(t, err)
	_, err = m.OLS(X, y[:2])
	require.Error(t, err)

	require.Equal(t, 1, logs.FilterMessage("model fitted").Len())
	entry := logs.FilterMessage("model fitted").All()[0]
	assert.Equal(t, "ols", entry.ContextMap()["procedure"])
	assert.EqualValues(t, 5, entry.ContextMap()["rows"])
	assert.Equal(t, 1, logs.FilterMessage("fit failed").Len())
}

func TestParseProcedure(t *testing.T) {
	for in, want := range map[string]Procedure{
		"ols":                       OLS,
		"Random Forest":             RandomForest,
		"gradient-boosting":         GradientBoosting,
		"KMeans Clustering":         KMeans,
		"rolling_least_squares":     RollingLS,
		"exponential":               ExponentialFit,
		"Recursive LS":              RecursiveLS,
		"robust_linear_model":       RLM,
		"generalized_least_squares": GLS,
	} {
		got, err := ParseProcedure(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseProcedure("svm")
	assert.Error(t, err)
	assert.Len(t, Procedures(), 11)
}

func TestOLS_TwoRows(t *testing.T) {
	m := New()
	X, y := line(2)
	_, err := m.OLS(X, y)
	require.NoError(t, err)
	s, err := m.Summary()
	require.NoError(t, err)
	assert.Contains(t, s, "Df Residuals:")
}

func TestPredict_RowWidth(t *testing.T) {
	m := New()
	X := [][]float64{{1, 5}, {1, 4}, {1, 3}, {1, 2}, {1, 1}}
	y := data.ContinuousTarget([]float64{5, 4, 3, 2, 1})
	_, err := m.RandomForest(X, y, Params{NEstimators: 5})
	require.NoError(t, err)

	_, err = m.Predict([][]float64{{3}})
	assert.ErrorIs(t, err, ErrModel)
	assert.ErrorIs(t, err, model.ErrShape)

	Xc, cat := twoBlobs(10)
	_, err = m.GradientBoosting(Xc, cat, Params{NEstimators: 5})
	require.NoError(t, err)
	_, err = m.Predict([][]float64{{0}})
	assert.ErrorIs(t, err, ErrModel)
}

func TestEnsembles_Deterministic(t *testing.T) {
	X, y := line(30)
	cont := data.ContinuousTarget(y)
	Xc, cat := twoBlobs(15)
	multi := make([]string, len(y))
	for i := range multi {
		multi[i] = []string{"a", "b", "c"}[i*3/len(y)]
	}

	cases := []struct {
		name string
		fit  func(*Manager) (FitResult, error)
		rows [][]float64
	}{
		{"gb regression", func(m *Manager) (FitResult, error) {
			return m.GradientBoosting(X, cont, Params{NEstimators: 30})
		}, X},
		{"gb binary", func(m *Manager) (FitResult, error) {
			return m.GradientBoosting(Xc, cat, Params{NEstimators: 30})
		}, Xc},
		{"gb multiclass", func(m *Manager) (FitResult, error) {
			return m.GradientBoosting(X, data.CategoricalTarget(multi), Params{NEstimators: 20})
		}, X},
		{"rf classification", func(m *Manager) (FitResult, error) {
			return m.RandomForest(Xc, cat, Params{NEstimators: 20})
		}, Xc},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var preds []Prediction
			var probas [][][]float64
			for range 2 {
				m := New()
				r, err := tc.fit(m)
				require.NoError(t, err)
				p, err := m.Predict(tc.rows)
				require.NoError(t, err)
				preds = append(preds, p)
				if clf, ok := r.Model.(interface {
					PredictProba([][]float64) ([][]float64, error)
				}); ok {
					pr, err := clf.PredictProba(tc.rows)
					require.NoError(t, err)
					probas = append(probas, pr)
				}
			}
			assert.Equal(t, preds[0], preds[1])
			if len(probas) == 2 {
				assert.Equal(t, probas[0], probas[1])
			}
		})
	}
}
