package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/core"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/stats"
)

const (
	huberT     = 1.345
	rlmTol     = 1e-8
	rlmMaxIter = 50
)

// RobustFit is a robust linear model fitted by iteratively reweighted least
// squares with Huber's T norm and a MAD scale estimate.
type RobustFit struct {
	DepVar string
	Names  []string

	Params  []float64
	BSE     []float64
	ZValues []float64
	PValues []float64
	ConfInt [][2]float64

	// Weights are the final IRLS weights; outliers get weights below 1.
	Weights    []float64
	Scale      float64
	Fitted     []float64
	Resid      []float64
	Iterations int
	NObs       int
	DfModel    float64
	DfResid    float64
}

func huberRho(u float64) float64 {
	a := math.Abs(u)
	if a <= huberT {
		return 0.5 * u * u
	}
	return huberT*a - 0.5*huberT*huberT
}

func huberPsi(u float64) float64 { return math.Max(-huberT, math.Min(huberT, u)) }

func huberPsiDeriv(u float64) float64 {
	if math.Abs(u) <= huberT {
		return 1
	}
	return 0
}

func huberWeight(u float64) float64 {
	if a := math.Abs(u); a > huberT {
		return huberT / a
	}
	return 1
}

// FitRobust fits a robust linear model with an intercept.
func FitRobust(X [][]float64, y []float64) (*RobustFit, error) {
	p, err := checkXY(X, len(y))
	if err != nil {
		return nil, err
	}
	if err := checkFinite(X, y); err != nil {
		return nil, err
	}
	n, k := len(X), p+1
	if n < k {
		return nil, fmt.Errorf("%w: %d observations for %d parameters", ErrSingular, n, k)
	}
	m, _ := core.FromRows(X)
	design := m.AddConstant().Dense()
	yv := mat.NewDense(n, 1, append([]float64(nil), y...))

	beta, err := solveLS(design, yv)
	if err != nil {
		return nil, err
	}
	f := &RobustFit{DepVar: "y", Names: append([]string{"const"}, defaultNames(p)...), NObs: n,
		DfModel: float64(k - 1), DfResid: float64(n - k)}

	resid := residuals(design, y, beta)
	f.Scale = stats.MAD(resid, 0)
	weights := make([]float64, n)
	dev := math.Inf(1)
	for it := 1; it <= rlmMaxIter; it++ {
		f.Iterations = it
		if f.Scale == 0 {
			for i := range weights {
				weights[i] = 1
			}
			break
		}
		for i, r := range resid {
			weights[i] = huberWeight(r / f.Scale)
		}
		beta, err = weightedSolve(design, y, weights)
		if err != nil {
			return nil, err
		}
		resid = residuals(design, y, beta)
		f.Scale = stats.MAD(resid, 0)
		next := 0.0
		if f.Scale > 0 {
			for _, r := range resid {
				next += huberRho(r / f.Scale)
			}
		}
		if math.Abs(dev-next) < rlmTol {
			break
		}
		dev = next
	}
	if f.Scale > 0 {
		for i, r := range resid {
			weights[i] = huberWeight(r / f.Scale)
		}
	}
	f.Params = beta
	f.Weights = weights
	f.Resid = resid
	f.Fitted = make([]float64, n)
	for i := range n {
		f.Fitted[i] = y[i] - resid[i]
	}
	if err := f.covariance(design); err != nil {
		return nil, err
	}
	return f, nil
}

func residuals(design *mat.Dense, y, beta []float64) []float64 {
	n, k := design.Dims()
	out := make([]float64, n)
	for i := range n {
		s := 0.0
		for j := range k {
			s += design.At(i, j) * beta[j]
		}
		out[i] = y[i] - s
	}
	return out
}

func weightedSolve(design *mat.Dense, y, w []float64) ([]float64, error) {
	n, k := design.Dims()
	wx := mat.NewDense(n, k, nil)
	wy := mat.NewDense(n, 1, nil)
	for i := range n {
		s := math.Sqrt(w[i])
		for j := range k {
			wx.Set(i, j, design.At(i, j)*s)
		}
		wy.Set(i, 0, y[i]*s)
	}
	return solveLS(wx, wy)
}

// covariance fills the H1 standard errors and normal tests.
func (f *RobustFit) covariance(design *mat.Dense) error {
	k := len(f.Params)
	n := float64(f.NObs)
	cov, err := normalizedCov(design)
	if err != nil {
		return err
	}
	var factor float64
	if f.Scale > 0 {
		u := make([]float64, f.NObs)
		deriv := make([]float64, f.NObs)
		ssPsi := 0.0
		for i, r := range f.Resid {
			u[i] = r / f.Scale
			deriv[i] = huberPsiDeriv(u[i])
			ssPsi += huberPsi(u[i]) * huberPsi(u[i])
		}
		m := stats.Mean(deriv)
		kk := 1 + float64(k)/n*stats.Variance(deriv)/(m*m)
		factor = kk * kk * (ssPsi / f.DfResid) * f.Scale * f.Scale / (m * m)
	}
	f.BSE = make([]float64, k)
	f.ZValues = make([]float64, k)
	f.PValues = make([]float64, k)
	f.ConfInt = make([][2]float64, k)
	q := distuv.UnitNormal.Quantile(0.975)
	for j := range k {
		f.BSE[j] = math.Sqrt(factor * cov.At(j, j))
		f.ZValues[j] = f.Params[j] / f.BSE[j]
		f.PValues[j] = 2 * (1 - distuv.UnitNormal.CDF(math.Abs(f.ZValues[j])))
		f.ConfInt[j] = [2]float64{f.Params[j] - q*f.BSE[j], f.Params[j] + q*f.BSE[j]}
	}
	return nil
}

func (f *RobustFit) Name() string { return "RLM" }

func (f *RobustFit) SetNames(dep string, features []string) {
	if dep != "" {
		f.DepVar = dep
	}
	if len(features) == len(f.Params)-1 {
		f.Names = append([]string{"const"}, features...)
	}
}

func (f *RobustFit) Coefficients() []float64 { return append([]float64(nil), f.Params...) }

func (f *RobustFit) Predict(X [][]float64) ([]float64, error) { return predictLinear(f.Params, X) }

// Outliers returns the rows whose final weight is below 1.
func (f *RobustFit) Outliers() []int {
	var out []int
	for i, w := range f.Weights {
		if w < 1 {
			out = append(out, i)
		}
	}
	return out
}

func (f *RobustFit) Summary() string {
	return report{
		title: "Robust linear Model Regression Results",
		left: [][2]string{
			{"Dep. Variable:", f.DepVar},
			{"Model:", "RLM"},
			{"Method:", "IRLS"},
			{"Norm:", "HuberT"},
			{"Scale Est.:", "mad"},
			{"Cov Type:", "H1"},
		},
		right: [][2]string{
			{"No. Observations:", itoa(f.NObs)},
			{"Df Residuals:", ftoa(f.DfResid, 0)},
			{"Df Model:", ftoa(f.DfModel, 0)},
			{"Scale:", ftoa(f.Scale, 4)},
			{"No. Iterations:", itoa(f.Iterations)},
			{"Downweighted rows:", itoa(len(f.Outliers()))},
		},
		coef: &coefTable{
			stat:   "z",
			names:  f.Names,
			params: f.Params,
			bse:    f.BSE,
			stats:  f.ZValues,
			pvals:  f.PValues,
			ci:     f.ConfInt,
		},
	}.String()
}
