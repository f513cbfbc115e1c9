package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/stats"
)

var (
	// ErrNoConvergence reports an optimizer that ran out of iterations.
	ErrNoConvergence = errors.New("optimal parameters not found")
	// ErrDegenerate reports data that cannot determine the curve.
	ErrDegenerate = errors.New("degenerate data")
	// ErrCovariance reports a solution whose parameter covariance is singular.
	ErrCovariance = errors.New("covariance of the parameters could not be estimated")
)

// Curve-fit optimizers.
const (
	MethodLM         = "lm"
	MethodLBFGS      = "lbfgs"
	MethodNelderMead = "nelder-mead"
)

// curveModel is a parametric function of one variable with its gradient.
type curveModel struct {
	name    string
	formula string
	params  []string
	eval    func(x float64, p []float64) float64
	grad    func(x float64, p []float64, g []float64)
}

var gaussianModel = curveModel{
	name:    "Gaussian",
	formula: "a*exp(-(x-x0)^2/(2*sigma^2))",
	params:  []string{"a", "x0", "sigma"},
	eval: func(x float64, p []float64) float64 {
		d := x - p[1]
		return p[0] * math.Exp(-d*d/(2*p[2]*p[2]))
	},
	grad: func(x float64, p []float64, g []float64) {
		d := x - p[1]
		s2 := p[2] * p[2]
		e := math.Exp(-d * d / (2 * s2))
		g[0] = e
		g[1] = p[0] * e * d / s2
		g[2] = p[0] * e * d * d / (s2 * p[2])
	},
}

var exponentialModel = curveModel{
	name:    "Exponential",
	formula: "a*exp(b*x)+c",
	params:  []string{"a", "b", "c"},
	eval: func(x float64, p []float64) float64 {
		return p[0]*math.Exp(p[1]*x) + p[2]
	},
	grad: func(x float64, p []float64, g []float64) {
		e := math.Exp(p[1] * x)
		g[0] = e
		g[1] = p[0] * x * e
		g[2] = 1
	},
}

type curveSettings struct {
	method  string
	maxIter int
}

// CurveOption configures a curve fit.
type CurveOption func(*curveSettings)

// WithMethod selects the optimizer: "lm" (default), "lbfgs" or "nelder-mead".
func WithMethod(m string) CurveOption { return func(s *curveSettings) { s.method = m } }

func WithMaxIter(n int) CurveOption { return func(s *curveSettings) { s.maxIter = n } }

// CurveFit is a nonlinear least squares fit of a one-variable curve.
type CurveFit struct {
	Kind       string
	Formula    string
	Method     string
	ParamNames []string
	StdErr     []float64
	Cov        *mat.SymDense
	RSS        float64
	RSquared   float64
	NObs       int
	Iterations int
	DepVar     string
	Feature    string

	params []float64
	model  curveModel
}

// FitGaussian fits a·exp(−(x−x0)²/2σ²). The returned σ is positive.
func FitGaussian(x, y []float64, opts ...CurveOption) (*CurveFit, error) {
	if err := checkCurveData(x, y, 3); err != nil {
		return nil, err
	}
	f, err := fitCurve(gaussianModel, x, y, gaussianGuess(x, y), opts)
	if err != nil {
		return nil, err
	}
	f.params[2] = math.Abs(f.params[2])
	return f, nil
}

// FitExponential fits a·exp(b·x)+c.
func FitExponential(x, y []float64, opts ...CurveOption) (*CurveFit, error) {
	if err := checkCurveData(x, y, 3); err != nil {
		return nil, err
	}
	p0, err := exponentialGuess(x, y)
	if err != nil {
		return nil, err
	}
	return fitCurve(exponentialModel, x, y, p0, opts)
}

func checkCurveData(x, y []float64, k int) error {
	if len(x) != len(y) {
		return fmt.Errorf("%w: %d x values, %d y values", ErrShape, len(x), len(y))
	}
	if len(x) <= k {
		return fmt.Errorf("%w: %d points cannot determine %d parameters", ErrDegenerate, len(x), k)
	}
	if err := checkFinite([][]float64{x}, y); err != nil {
		return err
	}
	if stats.Variance(y) == 0 {
		return fmt.Errorf("%w: y is constant", ErrDegenerate)
	}
	if stats.Variance(x) == 0 {
		return fmt.Errorf("%w: x is constant", ErrDegenerate)
	}
	return nil
}

// gaussianGuess starts at the most extreme point with a spread taken from
// the weighted second moment around it.
func gaussianGuess(x, y []float64) []float64 {
	peak := 0
	for i := range y {
		if math.Abs(y[i]) > math.Abs(y[peak]) {
			peak = i
		}
	}
	a, x0 := y[peak], x[peak]
	sign := math.Copysign(1, a)
	num, den := 0.0, 0.0
	for i := range x {
		w := math.Max(sign*y[i], 0)
		d := x[i] - x0
		num += w * d * d
		den += w
	}
	sigma := math.Sqrt(num / den)
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		lo, hi := stats.MinMax(x)
		sigma = (hi - lo) / 4
	}
	return []float64{a, x0, sigma}
}

// exponentialGuess scans growth rates on a grid and solves the linear
// problem in (a, c) for each, keeping the best.
func exponentialGuess(x, y []float64) ([]float64, error) {
	lo, hi := stats.MinMax(x)
	span := hi - lo
	n := float64(len(x))
	best, bestSSR := []float64(nil), math.Inf(1)
	e := make([]float64, len(x))
	for s := -10.0; s <= 10.0; s += 0.25 {
		if s == 0 {
			continue
		}
		b := s / span
		var se, see, sy, sey float64
		for i, xi := range x {
			e[i] = math.Exp(b * (xi - lo))
			se += e[i]
			see += e[i] * e[i]
			sy += y[i]
			sey += e[i] * y[i]
		}
		det := n*see - se*se
		if math.Abs(det) < 1e-12*n*see {
			continue
		}
		ap := (n*sey - se*sy) / det
		c := (sy - ap*se) / n
		ssr := 0.0
		for i := range x {
			r := ap*e[i] + c - y[i]
			ssr += r * r
		}
		a := ap * math.Exp(-b*lo)
		if math.IsNaN(ssr) || math.IsInf(a, 0) || math.IsNaN(a) {
			continue
		}
		if ssr < bestSSR {
			best, bestSSR = []float64{a, b, c}, ssr
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: no usable starting point", ErrDegenerate)
	}
	return best, nil
}

func fitCurve(m curveModel, x, y, p0 []float64, opts []CurveOption) (*CurveFit, error) {
	s := curveSettings{method: MethodLM, maxIter: 200 * (len(p0) + 1)}
	for _, o := range opts {
		o(&s)
	}
	var (
		p     []float64
		iters int
		err   error
	)
	switch s.method {
	case MethodLM, "":
		s.method = MethodLM
		p, iters, err = levenbergMarquardt(m, x, y, p0, s.maxIter)
	case MethodLBFGS:
		p, iters, err = minimizeSSR(m, x, y, p0, s.maxIter, &optimize.LBFGS{})
	case MethodNelderMead:
		p, iters, err = minimizeSSR(m, x, y, p0, s.maxIter, &optimize.NelderMead{})
	default:
		return nil, fmt.Errorf("curve fit: unknown method %q", s.method)
	}
	if err != nil {
		return nil, err
	}
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: parameters diverged", ErrNoConvergence)
		}
	}

	f := &CurveFit{
		Kind:       m.name,
		Formula:    m.formula,
		Method:     s.method,
		ParamNames: m.params,
		NObs:       len(x),
		Iterations: iters,
		DepVar:     "y",
		Feature:    "x",
		params:     p,
		model:      m,
	}
	J, r := jacobian(m, x, y, p)
	f.RSS = mat.Dot(r, r)
	f.RSquared = 1 - f.RSS/(stats.Variance(y)*float64(len(y)))
	cov, err := normalizedCov(J)
	if err != nil {
		return nil, ErrCovariance
	}
	cov.ScaleSym(f.RSS/float64(len(x)-len(p)), cov)
	f.Cov = cov
	f.StdErr = make([]float64, len(p))
	for j := range p {
		v := cov.At(j, j)
		if !(v >= 0) || math.IsInf(v, 0) {
			return nil, ErrCovariance
		}
		f.StdErr[j] = math.Sqrt(v)
	}
	return f, nil
}

// jacobian returns the model Jacobian at p and the residual vector y - f(x).
func jacobian(m curveModel, x, y, p []float64) (*mat.Dense, *mat.VecDense) {
	n, k := len(x), len(p)
	J := mat.NewDense(n, k, nil)
	r := mat.NewVecDense(n, nil)
	g := make([]float64, k)
	for i, xi := range x {
		m.grad(xi, p, g)
		J.SetRow(i, g)
		r.SetVec(i, y[i]-m.eval(xi, p))
	}
	return J, r
}

func ssr(m curveModel, x, y, p []float64) float64 {
	s := 0.0
	for i, xi := range x {
		d := y[i] - m.eval(xi, p)
		s += d * d
	}
	return s
}

// levenbergMarquardt minimizes the residual sum of squares with Marquardt's
// diagonal scaling.
func levenbergMarquardt(m curveModel, x, y, p0 []float64, maxIter int) ([]float64, int, error) {
	const (
		ftol = 1e-12
		xtol = 1e-12
	)
	k := len(p0)
	p := append([]float64(nil), p0...)
	cur := ssr(m, x, y, p)
	lambda := 1e-3
	trial := make([]float64, k)
	for it := 1; it <= maxIter; it++ {
		if cur == 0 {
			return p, it, nil
		}
		J, r := jacobian(m, x, y, p)
		var jtj mat.SymDense
		jtj.SymOuterK(1, J.T())
		var jtr mat.VecDense
		jtr.MulVec(J.T(), r)

		for {
			a := mat.NewSymDense(k, nil)
			a.CopySym(&jtj)
			for j := range k {
				d := jtj.At(j, j)
				if d == 0 {
					d = 1
				}
				a.SetSym(j, j, jtj.At(j, j)+lambda*d)
			}
			var ch mat.Cholesky
			var step mat.VecDense
			ok := ch.Factorize(a)
			if ok {
				ok = ch.SolveVecTo(&step, &jtr) == nil
			}
			if ok {
				for j := range k {
					trial[j] = p[j] + step.AtVec(j)
				}
				next := ssr(m, x, y, trial)
				if !math.IsNaN(next) && next < cur {
					rel := (cur - next) / cur
					small := true
					for j := range k {
						if math.Abs(step.AtVec(j)) > xtol*(math.Abs(p[j])+xtol) {
							small = false
						}
					}
					copy(p, trial)
					cur = next
					lambda = math.Max(lambda/10, 1e-15)
					if rel < ftol || small {
						return p, it, nil
					}
					break
				}
			}
			lambda *= 10
			if lambda > 1e16 {
				// no downhill step left: p is a stationary point
				return p, it, nil
			}
		}
	}
	return nil, maxIter, fmt.Errorf("%w: %d iterations", ErrNoConvergence, maxIter)
}

// minimizeSSR runs a gonum optimizer on the residual sum of squares.
func minimizeSSR(m curveModel, x, y, p0 []float64, maxIter int, method optimize.Method) ([]float64, int, error) {
	problem := optimize.Problem{
		Func: func(p []float64) float64 { return ssr(m, x, y, p) },
		Grad: func(grad, p []float64) {
			J, r := jacobian(m, x, y, p)
			var g mat.VecDense
			g.MulVec(J.T(), r)
			for j := range grad {
				grad[j] = -2 * g.AtVec(j)
			}
		},
	}
	// SSR differences vanish below float precision long before the gradient
	// reaches zero, so stop on a gradient scaled to the starting loss.
	settings := &optimize.Settings{
		MajorIterations:   maxIter,
		GradientThreshold: 1e-6 * math.Max(1, ssr(m, x, y, p0)),
	}
	res, err := optimize.Minimize(problem, p0, settings, method)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrNoConvergence, err)
	}
	switch res.Status {
	case optimize.IterationLimit, optimize.FunctionEvaluationLimit, optimize.GradientEvaluationLimit, optimize.RuntimeLimit, optimize.Failure:
		return nil, res.Stats.MajorIterations, fmt.Errorf("%w: %s", ErrNoConvergence, res.Status)
	}
	return res.X, res.Stats.MajorIterations, nil
}

func (f *CurveFit) Name() string { return f.Kind + "Fit" }

// Params returns the fitted parameters in declaration order.
func (f *CurveFit) Params() []float64 { return append([]float64(nil), f.params...) }

// Eval evaluates the fitted curve at x.
func (f *CurveFit) Eval(x float64) float64 { return f.model.eval(x, f.params) }

func (f *CurveFit) SetNames(dep string, features []string) {
	if dep != "" {
		f.DepVar = dep
	}
	if len(features) == 1 {
		f.Feature = features[0]
	}
}

// Predict evaluates the curve on the single column of X.
func (f *CurveFit) Predict(X [][]float64) ([]float64, error) {
	if err := checkWidth(X, 1); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = f.Eval(row[0])
	}
	return out, nil
}

var methodNames = map[string]string{
	MethodLM:         "Levenberg-Marquardt",
	MethodLBFGS:      "L-BFGS",
	MethodNelderMead: "Nelder-Mead",
}

func (f *CurveFit) Summary() string {
	k := len(f.params)
	df := float64(f.NObs - k)
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	q := dist.Quantile(0.975)
	tv := make([]float64, k)
	pv := make([]float64, k)
	ci := make([][2]float64, k)
	for j := range k {
		tv[j] = f.params[j] / f.StdErr[j]
		pv[j] = 2 * (1 - dist.CDF(math.Abs(tv[j])))
		ci[j] = [2]float64{f.params[j] - q*f.StdErr[j], f.params[j] + q*f.StdErr[j]}
	}
	return report{
		title: f.Kind + " Curve Fit Results",
		left: [][2]string{
			{"Dep. Variable:", f.DepVar},
			{"Independent:", f.Feature},
			{"Method:", methodNames[f.Method]},
			{"No. Observations:", itoa(f.NObs)},
			{"Df Residuals:", ftoa(df, 0)},
		},
		right: [][2]string{
			{"R-squared:", ftoa(f.RSquared, 4)},
			{"Residual SS:", ftoa(f.RSS, 4)},
			{"Iterations:", itoa(f.Iterations)},
		},
		coef: &coefTable{
			stat:   "t",
			names:  f.ParamNames,
			params: f.params,
			bse:    f.StdErr,
			stats:  tv,
			pvals:  pv,
			ci:     ci,
		},
		notes: []string{"Model: " + f.Formula},
	}.String()
}
