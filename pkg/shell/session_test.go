package shell

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/data"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/history"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/manager"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/viz"
)

func writeCSV(t *testing.T, name string, header []string, rows [][]string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString(strings.Join(header, ",") + "\n")
	for _, r := range rows {
		b.WriteString(strings.Join(r, ",") + "\n")
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func f(v float64) string { return fmt.Sprintf("%.6f", v) }

// salesCSV has two numeric features, a weight column, a numeric target and
// a class column that splits x1 at 10.
func salesCSV(t *testing.T) string {
	var rows [][]string
	for i := range 40 {
		x1 := float64(i) * 0.5
		x2 := 3 * math.Sin(float64(i))
		y := 1 + 2*x1 - 0.5*x2 + 0.1*math.Cos(3*float64(i))
		class := "a"
		if x1 >= 10 {
			class = "b"
		}
		rows = append(rows, []string{f(x1), f(x2), fmt.Sprint(1 + i%3), f(y), class})
	}
	return writeCSV(t, "sales.csv", []string{"x1", "x2", "w", "y", "class"}, rows)
}

type fixture struct {
	session *Session
	store   *history.Store
	plots   string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	loader, err := data.NewLoader(data.DefaultOptions(), 2, false, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = loader.Close() })
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	plots := filepath.Join(t.TempDir(), "plots")
	s := NewSession(manager.New(), loader, WithHistory(store), WithPlots(plots, "png", viz.DefaultSize))
	return fixture{session: s, store: store, plots: plots}
}

func TestRun_RequiresSelection(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.session.Run(ctx, manager.OLS, manager.Params{})
	assert.ErrorIs(t, err, manager.ErrSelection)

	_, err = fx.session.Load(salesCSV(t))
	require.NoError(t, err)
	_, err = fx.session.Run(ctx, manager.OLS, manager.Params{})
	assert.ErrorIs(t, err, manager.ErrSelection)
	assert.ErrorContains(t, err, "no feature columns selected")

	require.NoError(t, fx.session.Select([]string{"x1"}, ""))
	_, err = fx.session.Run(ctx, manager.OLS, manager.Params{})
	assert.ErrorIs(t, err, manager.ErrSelection)
	assert.ErrorContains(t, err, "no target column selected")

	n, err := fx.store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "selection errors are not journaled")
}

func TestSelect_UnknownColumn(t *testing.T) {
	fx := newFixture(t)
	assert.ErrorIs(t, fx.session.Select([]string{"x1"}, "y"), manager.ErrSelection)

	_, err := fx.session.Load(salesCSV(t))
	require.NoError(t, err)
	assert.ErrorIs(t, fx.session.Select([]string{"nope"}, "y"), manager.ErrSelection)
	assert.ErrorIs(t, fx.session.Select([]string{"x1"}, "nope"), manager.ErrSelection)

	require.NoError(t, fx.session.Select([]string{"x1", "x2"}, "y"))
	features, target := fx.session.Selection()
	assert.Equal(t, []string{"x1", "x2"}, features)
	assert.Equal(t, "y", target)
}

func TestColumns(t *testing.T) {
	fx := newFixture(t)
	assert.Nil(t, fx.session.Columns())
	_, err := fx.session.Load(salesCSV(t))
	require.NoError(t, err)
	cols := fx.session.Columns()
	require.Len(t, cols, 5)
	assert.Equal(t, "x1", cols[0].Name)
	assert.True(t, cols[0].Kind.Numeric())
	assert.True(t, cols[2].Kind.Numeric())
	assert.False(t, cols[4].Kind.Numeric())
}

func TestRun_OLSReportPlotAndJournal(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	_, err := fx.session.Load(salesCSV(t))
	require.NoError(t, err)
	require.NoError(t, fx.session.Select([]string{"x1", "x2"}, "y"))

	rep, err := fx.session.Run(ctx, manager.OLS, manager.Params{})
	require.NoError(t, err)
	assert.Equal(t, manager.OLS, rep.Procedure)
	assert.Contains(t, rep.Text, "OLS Regression Results")
	assert.Contains(t, rep.Text, "x2")
	assert.Equal(t, filepath.Join(fx.plots, "ols.png"), rep.PlotPath)
	assert.FileExists(t, rep.PlotPath)

	pred, err := fx.session.Predict([][]float64{{2, 0}})
	require.NoError(t, err)
	assert.InDelta(t, 5, pred.Values[0], 0.1)

	s, err := fx.session.Summary()
	require.NoError(t, err)
	assert.Equal(t, rep.Text, s)

	// a failing run is journaled and keeps the fitted model
	require.NoError(t, fx.session.Select([]string{"x1"}, "class"))
	_, err = fx.session.Run(ctx, manager.OLS, manager.Params{})
	assert.ErrorIs(t, err, manager.ErrModel)
	assert.Equal(t, manager.OLS, fx.session.Last().Procedure)
	_, err = fx.session.Predict([][]float64{{2, 0}})
	assert.NoError(t, err)

	recs, err := fx.session.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, history.StatusError, recs[0].Status)
	assert.Equal(t, "class", recs[0].Target)
	assert.NotEmpty(t, recs[0].Error)
	assert.Equal(t, history.StatusOK, recs[1].Status)
	assert.Equal(t, []string{"x1", "x2"}, recs[1].Features)
	assert.Equal(t, "ols", recs[1].Procedure)
	assert.NotZero(t, recs[1].Fingerprint)
}

func TestRun_Ensembles(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	_, err := fx.session.Load(salesCSV(t))
	require.NoError(t, err)

	require.NoError(t, fx.session.Select([]string{"x1", "x2"}, "class"))
	rep, err := fx.session.Run(ctx, manager.RandomForest, manager.Params{NEstimators: 10, MaxDepth: 4})
	require.NoError(t, err)
	assert.Equal(t, manager.Classification, rep.Variant)
	assert.Contains(t, rep.Text, "Random Forest Classification Results")
	assert.Contains(t, rep.Text, "Training accuracy:")
	assert.FileExists(t, rep.PlotPath)

	rep, err = fx.session.Run(ctx, manager.GradientBoosting, manager.Params{NEstimators: 20, MaxDepth: 2})
	require.NoError(t, err)
	assert.Equal(t, manager.Classification, rep.Variant)
	assert.Equal(t, filepath.Join(fx.plots, string(manager.GradientBoosting)+".png"), rep.PlotPath)
	assert.FileExists(t, rep.PlotPath)

	pred, err := fx.session.Predict([][]float64{{1, 0}, {18, 0}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, pred.Labels)

	require.NoError(t, fx.session.Select([]string{"x1", "x2"}, "y"))
	rep, err = fx.session.Run(ctx, manager.GradientBoosting, manager.Params{NEstimators: 50, MaxDepth: 3})
	require.NoError(t, err)
	assert.Equal(t, manager.Regression, rep.Variant)
	assert.Contains(t, rep.Text, "Training R-squared:")
	assert.FileExists(t, rep.PlotPath)
}

func TestRun_ForcedClassificationOnNumericTarget(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	_, err := fx.session.Load(salesCSV(t))
	require.NoError(t, err)
	require.NoError(t, fx.session.Select([]string{"x1", "x2"}, "w"))

	accuracy := regexp.MustCompile(`Training accuracy:\s+([0-9.]+)`)
	for _, proc := range []manager.Procedure{manager.RandomForest, manager.GradientBoosting} {
		rep, err := fx.session.Run(ctx, proc, manager.Params{NEstimators: 20, Variant: manager.Classification})
		require.NoError(t, err, proc)
		assert.Equal(t, manager.Classification, rep.Variant)
		assert.Contains(t, rep.Text, fmt.Sprintf("%-22s %s", "Classes:", "1, 2, 3"))

		m := accuracy.FindStringSubmatch(rep.Text)
		require.Len(t, m, 2, rep.Text)
		acc, err := strconv.ParseFloat(m[1], 64)
		require.NoError(t, err)
		assert.Greater(t, acc, 0.5, proc)
		assert.FileExists(t, rep.PlotPath)
	}
}

func TestRun_KMeansWithoutTarget(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.session.Load(salesCSV(t))
	require.NoError(t, err)
	require.NoError(t, fx.session.Select([]string{"x1", "x2"}, ""))

	rep, err := fx.session.Run(context.Background(), manager.KMeans, manager.Params{Clusters: 2})
	require.NoError(t, err)
	assert.Contains(t, rep.Text, "Clusters:")
	assert.Contains(t, rep.Text, "cluster 1:")
	assert.Contains(t, rep.Text, "Inertia:")
	assert.FileExists(t, rep.PlotPath)

	pred, err := fx.session.Predict([][]float64{{0, 0}})
	require.NoError(t, err)
	assert.Equal(t, manager.OutputClusters, pred.Kind)
}

func TestRunDialog_LinearVariants(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	_, err := fx.session.Load(salesCSV(t))
	require.NoError(t, err)
	require.NoError(t, fx.session.Select([]string{"x1", "x2"}, "y"))
	rows := [][]float64{{1, 1}, {4, -2}}

	_, err = fx.session.Run(ctx, manager.OLS, manager.Params{})
	require.NoError(t, err)
	ols, err := fx.session.Predict(rows)
	require.NoError(t, err)

	rep, err := fx.session.RunDialog(ctx, manager.GLS, Input{Rho: 0})
	require.NoError(t, err)
	assert.Contains(t, rep.Text, "GLS")
	gls, err := fx.session.Predict(rows)
	require.NoError(t, err)
	assert.InDeltaSlice(t, ols.Values, gls.Values, 1e-8)

	_, err = fx.session.RunDialog(ctx, manager.GLS, Input{Rho: 0.6})
	require.NoError(t, err)

	_, err = fx.session.RunDialog(ctx, manager.WLS, Input{})
	assert.ErrorIs(t, err, manager.ErrSelection)
	_, err = fx.session.RunDialog(ctx, manager.WLS, Input{WeightColumn: "class"})
	assert.ErrorIs(t, err, manager.ErrInput)
	rep, err = fx.session.RunDialog(ctx, manager.WLS, Input{WeightColumn: "w"})
	require.NoError(t, err)
	assert.Contains(t, rep.Text, "WLS")

	rep, err = fx.session.RunDialog(ctx, manager.RollingLS, Input{Params: manager.Params{Window: 8}})
	require.NoError(t, err)
	assert.NotEmpty(t, rep.Text)
	assert.FileExists(t, rep.PlotPath)

	for _, proc := range []manager.Procedure{manager.RecursiveLS, manager.RLM} {
		rep, err = fx.session.Run(ctx, proc, manager.Params{})
		require.NoError(t, err, proc)
		assert.FileExists(t, rep.PlotPath)
	}
}

func TestRun_CurveFits(t *testing.T) {
	var rows [][]string
	for i := range 41 {
		x := -5 + 0.25*float64(i)
		g := 3*math.Exp(-(x-0.5)*(x-0.5)/(2*1.2*1.2)) + 0.01*math.Sin(7*x)
		e := 2*math.Exp(0.3*x) + 0.01*math.Cos(5*x)
		rows = append(rows, []string{f(x), f(g), f(e)})
	}
	path := writeCSV(t, "curve.csv", []string{"x", "peak", "growth"}, rows)

	fx := newFixture(t)
	ctx := context.Background()
	_, err := fx.session.Load(path)
	require.NoError(t, err)

	require.NoError(t, fx.session.Select([]string{"x"}, "peak"))
	rep, err := fx.session.Run(ctx, manager.GaussianFit, manager.Params{})
	require.NoError(t, err)
	assert.Contains(t, rep.Text, "Gaussian Curve Fit Results")
	assert.FileExists(t, rep.PlotPath)

	require.NoError(t, fx.session.Select([]string{"x"}, "growth"))
	rep, err = fx.session.Run(ctx, manager.ExponentialFit, manager.Params{})
	require.NoError(t, err)
	assert.FileExists(t, rep.PlotPath)

	require.NoError(t, fx.session.Select([]string{"x", "peak"}, "growth"))
	_, err = fx.session.Run(ctx, manager.ExponentialFit, manager.Params{})
	assert.ErrorIs(t, err, manager.ErrInput)
}

func TestPreprocess(t *testing.T) {
	path := writeCSV(t, "gaps.csv", []string{"x", "y"}, [][]string{
		{"1", "3"}, {"2", "5"}, {"", "7"}, {"4", "9"}, {"5", "11"}, {"6", "13"},
	})
	fx := newFixture(t)
	ctx := context.Background()
	_, err := fx.session.Load(path)
	require.NoError(t, err)
	require.NoError(t, fx.session.Select([]string{"x"}, "y"))

	_, err = fx.session.Run(ctx, manager.OLS, manager.Params{})
	require.Error(t, err)

	assert.ErrorIs(t, fx.session.Preprocess([]string{"shuffle"}), manager.ErrInput)
	require.NoError(t, fx.session.Preprocess([]string{"impute=mean"}))
	assert.Equal(t, []string{"impute=mean"}, fx.session.Steps())

	_, err = fx.session.Run(ctx, manager.OLS, manager.Params{})
	require.NoError(t, err)

	// reloading clears the selection and the applied steps
	_, err = fx.session.Load(path)
	require.NoError(t, err)
	assert.Empty(t, fx.session.Steps())
	features, _ := fx.session.Selection()
	assert.Empty(t, features)
}

func TestAR1(t *testing.T) {
	s := AR1(0.5, 4)
	assert.Equal(t, []float64{1, 0.5, 0.25, 0.125}, s[0])
	assert.Equal(t, []float64{0.25, 0.5, 1, 0.5}, s[2])
	for i := range s {
		for j := range s {
			assert.Equal(t, s[i][j], s[j][i])
		}
	}
	id := AR1(0, 3)
	assert.Equal(t, [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, id)
}

func TestHistoryDisabled(t *testing.T) {
	loader, err := data.NewLoader(data.DefaultOptions(), 1, false, nil)
	require.NoError(t, err)
	defer loader.Close()
	s := NewSession(manager.New(), loader)
	_, err = s.History(context.Background(), 5)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, manager.ErrSelection))
}
