package model

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCurve(f func(float64) float64, lo, hi, step, noise float64, seed int64) ([]float64, []float64) {
	rnd := rand.New(rand.NewSource(seed))
	var x, y []float64
	for v := lo; v <= hi+1e-9; v += step {
		x = append(x, v)
		y = append(y, f(v)+rnd.NormFloat64()*noise)
	}
	return x, y
}

func assertWithin(t *testing.T, want, got []float64, rel float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], math.Abs(want[i])*rel, "parameter %d", i)
	}
}

func gaussian(a, x0, s float64) func(float64) float64 {
	return func(x float64) float64 { return a * math.Exp(-(x-x0)*(x-x0)/(2*s*s)) }
}

func TestFitGaussian(t *testing.T) {
	x, y := sampleCurve(gaussian(5, 2, 1.5), -4, 8, 0.1, 0.05, 1)
	for _, method := range []string{MethodLM, MethodLBFGS, MethodNelderMead} {
		t.Run(method, func(t *testing.T) {
			fit, err := FitGaussian(x, y, WithMethod(method), WithMaxIter(5000))
			require.NoError(t, err)
			assertWithin(t, []float64{5, 2, 1.5}, fit.Params(), 0.1)
			assert.Equal(t, method, fit.Method)
			assert.Greater(t, fit.RSquared, 0.99)
			for _, se := range fit.StdErr {
				assert.Greater(t, se, 0.0)
			}
		})
	}
}

func TestFitGaussian_NegativeSigmaStart(t *testing.T) {
	x, y := sampleCurve(gaussian(-3, 0, 0.8), -3, 3, 0.05, 0.01, 2)
	fit, err := FitGaussian(x, y)
	require.NoError(t, err)
	p := fit.Params()
	assert.Greater(t, p[2], 0.0)
	assertWithin(t, []float64{-3, 0.8}, []float64{p[0], p[2]}, 0.1)
	assert.InDelta(t, 0, p[1], 0.05)
}

func TestFitExponential(t *testing.T) {
	x, y := sampleCurve(func(x float64) float64 { return 2*math.Exp(0.5*x) + 1 }, 0, 5, 0.05, 0.02, 3)
	fit, err := FitExponential(x, y)
	require.NoError(t, err)
	assertWithin(t, []float64{2, 0.5, 1}, fit.Params(), 0.1)
	assert.Equal(t, "Exponential", fit.Kind)

	pred, err := fit.Predict([][]float64{{0}, {2}})
	require.NoError(t, err)
	assert.InDelta(t, 3, pred[0], 0.1)
	assert.InDelta(t, 2*math.E+1, pred[1], 0.1)

	_, err = fit.Predict([][]float64{{0, 1}})
	assert.ErrorIs(t, err, ErrShape)
}

func TestFitExponential_Decay(t *testing.T) {
	x, y := sampleCurve(func(x float64) float64 { return 10*math.Exp(-1.2*x) - 2 }, 0, 4, 0.04, 0.01, 4)
	fit, err := FitExponential(x, y)
	require.NoError(t, err)
	assertWithin(t, []float64{10, -1.2, -2}, fit.Params(), 0.1)
}

func TestCurveFit_Degenerate(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	flat := []float64{3, 3, 3, 3, 3}

	_, err := FitGaussian(x, flat)
	assert.ErrorIs(t, err, ErrDegenerate)
	_, err = FitExponential(x, flat)
	assert.ErrorIs(t, err, ErrDegenerate)

	_, err = FitGaussian([]float64{1, 2, 3}, []float64{1, 5, 1})
	assert.ErrorIs(t, err, ErrDegenerate)

	_, err = FitExponential([]float64{2, 2, 2, 2}, []float64{1, 2, 3, 4})
	assert.ErrorIs(t, err, ErrDegenerate)

	_, err = FitGaussian(x, []float64{1, 2})
	assert.ErrorIs(t, err, ErrShape)

	_, err = FitGaussian(x, []float64{1, 2, math.NaN(), 2, 1})
	assert.ErrorIs(t, err, ErrNaN)

	_, err = FitGaussian(x, []float64{1, 2, 4, 2, 1}, WithMethod("bfgs"))
	assert.ErrorContains(t, err, "unknown method")
}

func TestCurveFit_Summary(t *testing.T) {
	x, y := sampleCurve(gaussian(5, 2, 1.5), -4, 8, 0.1, 0.05, 5)
	fit, err := FitGaussian(x, y)
	require.NoError(t, err)
	fit.SetNames("signal", []string{"time"})

	s := fit.Summary()
	assert.Contains(t, s, "Gaussian Curve Fit Results")
	assert.Contains(t, s, "Levenberg-Marquardt")
	assert.Contains(t, s, "signal")
	assert.Contains(t, s, "time")
	assert.Contains(t, s, "x0")
	assert.Contains(t, s, "sigma")
}
