package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/core"
)

// maxCond is the largest design-matrix condition number accepted as full rank.
const maxCond = 1e12

// ErrSingular reports a rank-deficient or ill-conditioned design.
var ErrSingular = errors.New("singular design matrix")

// LinearFit is a least squares regression with an intercept. The OLS, WLS
// and GLS estimators differ only in how rows are whitened before the solve;
// fitted values and residuals are reported on the original scale.
type LinearFit struct {
	Method string // "OLS", "WLS" or "GLS"
	DepVar string
	Names  []string // parameter names, "const" first

	Params  []float64
	BSE     []float64
	TValues []float64
	PValues []float64
	ConfInt [][2]float64

	Fitted []float64
	Resid  []float64

	NObs        int
	DfModel     float64
	DfResid     float64
	Scale       float64
	SSR         float64
	CenteredTSS float64
	RSquared    float64
	AdjRSquared float64
	FValue      float64
	FPValue     float64
	LogLik      float64
	AIC         float64
	BIC         float64

	// CovParams is the estimated parameter covariance.
	CovParams *mat.SymDense
}

// whitener maps the model to one with spherical errors.
type whitener struct {
	apply  func(m *mat.Dense) *mat.Dense
	logDet float64 // log|det W|
}

var identity = whitener{apply: func(m *mat.Dense) *mat.Dense { return m }}

// FitOLS fits ordinary least squares.
func FitOLS(X [][]float64, y []float64) (*LinearFit, error) {
	return fitLinear("OLS", X, y, identity)
}

// FitWLS fits weighted least squares. Weights must be positive, one per row.
func FitWLS(X [][]float64, y, weights []float64) (*LinearFit, error) {
	if len(weights) != len(y) {
		return nil, fmt.Errorf("%w: %d weights for %d rows", ErrShape, len(weights), len(y))
	}
	sq := make([]float64, len(weights))
	logDet := 0.0
	for i, w := range weights {
		if !(w > 0) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("wls: weight %d is %g, must be positive", i, w)
		}
		sq[i] = math.Sqrt(w)
		logDet += 0.5 * math.Log(w)
	}
	w := whitener{logDet: logDet, apply: func(m *mat.Dense) *mat.Dense {
		r, c := m.Dims()
		out := mat.NewDense(r, c, nil)
		for i := range r {
			for j := range c {
				out.Set(i, j, m.At(i, j)*sq[i])
			}
		}
		return out
	}}
	return fitLinear("WLS", X, y, w)
}

// FitGLS fits generalized least squares for a known n×n error covariance.
// Rows are whitened by the inverse Cholesky factor of sigma.
func FitGLS(X [][]float64, y []float64, sigma [][]float64) (*LinearFit, error) {
	w, err := glsWhitener(sigma, len(y))
	if err != nil {
		return nil, err
	}
	return fitLinear("GLS", X, y, w)
}

func glsWhitener(sigma [][]float64, n int) (whitener, error) {
	if len(sigma) != n {
		return whitener{}, fmt.Errorf("%w: sigma has %d rows, want %d", ErrShape, len(sigma), n)
	}
	sym := mat.NewSymDense(n, nil)
	for i := range n {
		if len(sigma[i]) != n {
			return whitener{}, fmt.Errorf("%w: sigma row %d has %d columns, want %d", ErrShape, i, len(sigma[i]), n)
		}
		for j := i; j < n; j++ {
			a, b := sigma[i][j], sigma[j][i]
			if math.Abs(a-b) > 1e-10*math.Max(1, math.Abs(a)) {
				return whitener{}, fmt.Errorf("gls: sigma is not symmetric at (%d,%d)", i, j)
			}
			sym.SetSym(i, j, a)
		}
	}
	var ch mat.Cholesky
	if ok := ch.Factorize(sym); !ok {
		return whitener{}, errors.New("gls: sigma is not positive definite")
	}
	var L, Linv mat.TriDense
	ch.LTo(&L)
	if err := Linv.InverseTri(&L); err != nil {
		return whitener{}, fmt.Errorf("gls: invert cholesky factor: %w", err)
	}
	return whitener{logDet: -0.5 * ch.LogDet(), apply: func(m *mat.Dense) *mat.Dense {
		var out mat.Dense
		out.Mul(&Linv, m)
		return &out
	}}, nil
}

func fitLinear(method string, X [][]float64, y []float64, w whitener) (*LinearFit, error) {
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
	m, err := core.FromRows(X)
	if err != nil {
		return nil, err
	}
	design := m.AddConstant().Dense()
	yv := mat.NewDense(n, 1, append([]float64(nil), y...))

	wx := w.apply(design)
	wy := w.apply(yv)
	beta, err := solveLS(wx, wy)
	if err != nil {
		return nil, err
	}

	f := &LinearFit{Method: method, DepVar: "y", Names: append([]string{"const"}, defaultNames(p)...), NObs: n}
	f.Params = beta
	f.DfModel = float64(k - 1)
	f.DfResid = float64(n - k)

	f.Fitted = make([]float64, n)
	f.Resid = make([]float64, n)
	for i := range n {
		s := 0.0
		for j := range k {
			s += design.At(i, j) * beta[j]
		}
		f.Fitted[i] = s
		f.Resid[i] = y[i] - s
	}

	// statistics live in the whitened space
	var wr mat.Dense
	wr.Mul(wx, mat.NewDense(k, 1, beta))
	wr.Sub(wy, &wr)
	for i := range n {
		f.SSR += wr.At(i, 0) * wr.At(i, 0)
	}
	f.CenteredTSS = centeredTSS(w, yv)
	f.Scale = f.SSR / f.DfResid

	cov, err := normalizedCov(wx)
	if err != nil {
		return nil, err
	}
	cov.ScaleSym(f.Scale, cov)
	f.CovParams = cov

	f.BSE = make([]float64, k)
	for j := range k {
		f.BSE[j] = math.Sqrt(cov.At(j, j))
	}
	f.tTests()

	f.RSquared = 1 - f.SSR/f.CenteredTSS
	f.AdjRSquared = 1 - float64(n-1)/f.DfResid*(1-f.RSquared)
	if f.DfModel > 0 && f.DfResid > 0 {
		ess := f.CenteredTSS - f.SSR
		f.FValue = (ess / f.DfModel) / f.Scale
		f.FPValue = 1 - distuv.F{D1: f.DfModel, D2: f.DfResid}.CDF(f.FValue)
	} else {
		f.FValue, f.FPValue = math.NaN(), math.NaN()
	}
	nf := float64(n)
	f.LogLik = -nf/2*(math.Log(2*math.Pi*f.SSR/nf)+1) + w.logDet
	f.AIC = -2*f.LogLik + 2*float64(k)
	f.BIC = -2*f.LogLik + math.Log(nf)*float64(k)
	return f, nil
}

// solveLS solves min |Ax - b| by QR, rejecting ill-conditioned designs.
func solveLS(a, b *mat.Dense) ([]float64, error) {
	var qr mat.QR
	qr.Factorize(a)
	if c := qr.Cond(); math.IsInf(c, 0) || math.IsNaN(c) || c > maxCond {
		return nil, fmt.Errorf("%w (condition number %.3g)", ErrSingular, c)
	}
	var x mat.Dense
	if err := qr.SolveTo(&x, false, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	_, k := a.Dims()
	out := make([]float64, k)
	for j := range k {
		out[j] = x.At(j, 0)
	}
	return out, nil
}

// normalizedCov returns (AᵀA)⁻¹.
func normalizedCov(a *mat.Dense) (*mat.SymDense, error) {
	_, k := a.Dims()
	ata := mat.NewSymDense(k, nil)
	ata.SymOuterK(1, a.T())
	var ch mat.Cholesky
	if ok := ch.Factorize(ata); !ok {
		return nil, ErrSingular
	}
	inv := mat.NewSymDense(k, nil)
	if err := ch.InverseTo(inv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return inv, nil
}

// centeredTSS is the total sum of squares about the (weighted) mean of y,
// measured in the whitened space.
func centeredTSS(w whitener, y *mat.Dense) float64 {
	n, _ := y.Dims()
	ones := mat.NewDense(n, 1, nil)
	for i := range n {
		ones.Set(i, 0, 1)
	}
	wi := w.apply(ones)
	wy := w.apply(y)
	num, den := 0.0, 0.0
	for i := range n {
		num += wy.At(i, 0) * wi.At(i, 0)
		den += wi.At(i, 0) * wi.At(i, 0)
	}
	mean := num / den
	centered := mat.NewDense(n, 1, nil)
	for i := range n {
		centered.Set(i, 0, y.At(i, 0)-mean)
	}
	we := w.apply(centered)
	s := 0.0
	for i := range n {
		s += we.At(i, 0) * we.At(i, 0)
	}
	return s
}

func (f *LinearFit) tTests() {
	k := len(f.Params)
	f.TValues = make([]float64, k)
	f.PValues = make([]float64, k)
	f.ConfInt = make([][2]float64, k)
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: f.DfResid}
	q := math.NaN()
	if f.DfResid > 0 {
		q = dist.Quantile(0.975)
	}
	for j := range k {
		t := f.Params[j] / f.BSE[j]
		f.TValues[j] = t
		if f.DfResid > 0 && !math.IsNaN(t) {
			f.PValues[j] = 2 * (1 - dist.CDF(math.Abs(t)))
		} else {
			f.PValues[j] = math.NaN()
		}
		f.ConfInt[j] = [2]float64{f.Params[j] - q*f.BSE[j], f.Params[j] + q*f.BSE[j]}
	}
}

func (f *LinearFit) Name() string { return f.Method }

// SetNames labels the report.
func (f *LinearFit) SetNames(dep string, features []string) {
	if dep != "" {
		f.DepVar = dep
	}
	if len(features) == len(f.Params)-1 {
		f.Names = append([]string{"const"}, features...)
	}
}

// Coefficients returns the fitted parameters, intercept first.
func (f *LinearFit) Coefficients() []float64 { return append([]float64(nil), f.Params...) }

// Predict evaluates the fitted line on new rows.
func (f *LinearFit) Predict(X [][]float64) ([]float64, error) {
	return predictLinear(f.Params, X)
}

func predictLinear(params []float64, X [][]float64) ([]float64, error) {
	if err := checkWidth(X, len(params)-1); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i, row := range X {
		s := params[0]
		for j, v := range row {
			s += params[j+1] * v
		}
		out[i] = s
	}
	return out, nil
}

var methodTitles = map[string]string{
	"OLS": "Least Squares",
	"WLS": "Least Squares",
	"GLS": "Least Squares",
}

// Summary renders the fit in the familiar regression-results layout.
func (f *LinearFit) Summary() string {
	return f.report(f.Method+" Regression Results", f.Method, methodTitles[f.Method]).String()
}

func (f *LinearFit) report(title, model, method string) report {
	return report{
		title: title,
		left: [][2]string{
			{"Dep. Variable:", f.DepVar},
			{"Model:", model},
			{"Method:", method},
			{"No. Observations:", itoa(f.NObs)},
			{"Df Residuals:", ftoa(f.DfResid, 0)},
			{"Df Model:", ftoa(f.DfModel, 0)},
		},
		right: [][2]string{
			{"R-squared:", ftoa(f.RSquared, 3)},
			{"Adj. R-squared:", ftoa(f.AdjRSquared, 3)},
			{"F-statistic:", ftoa(f.FValue, 4)},
			{"Prob (F-statistic):", ftoa(f.FPValue, 3)},
			{"Log-Likelihood:", ftoa(f.LogLik, 3)},
			{"AIC:", ftoa(f.AIC, 2)},
			{"BIC:", ftoa(f.BIC, 2)},
		},
		coef: &coefTable{
			stat:   "t",
			names:  f.Names,
			params: f.Params,
			bse:    f.BSE,
			stats:  f.TValues,
			pvals:  f.PValues,
			ci:     f.ConfInt,
		},
	}
}
