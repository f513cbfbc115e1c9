package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/core"
)

// RecursiveFit is a least squares fit updated one observation at a time.
// Estimation starts from the shortest prefix with a full-rank design; the
// final coefficients equal the OLS solution on all rows.
type RecursiveFit struct {
	*LinearFit

	// Start is the number of rows in the initial prefix.
	Start int
	// Path[t] holds the coefficients after row t. Entries before Start-1 are nil.
	Path [][]float64
	// RecursiveResid are the standardized one-step-ahead prediction errors,
	// NaN inside the initial prefix.
	RecursiveResid []float64
}

// FitRecursive runs recursive least squares with an intercept.
func FitRecursive(X [][]float64, y []float64) (*RecursiveFit, error) {
	base, err := FitOLS(X, y)
	if err != nil {
		return nil, err
	}
	base.Method = "RecursiveLS"

	m, err := core.FromRows(X)
	if err != nil {
		return nil, err
	}
	design := m.AddConstant()
	n, k := design.R, design.C

	start := 0
	var beta []float64
	for s := k; s <= n; s++ {
		sub := design.SliceRows(0, s).Dense()
		b, err := solveLS(sub, mat.NewDense(s, 1, append([]float64(nil), y[:s]...)))
		if err == nil {
			start, beta = s, b
			break
		}
	}
	if beta == nil {
		return nil, fmt.Errorf("recursive ls: %w", ErrSingular)
	}
	P, err := normalizedCov(design.SliceRows(0, start).Dense())
	if err != nil {
		return nil, fmt.Errorf("recursive ls: %w", err)
	}

	fit := &RecursiveFit{
		LinearFit:      base,
		Start:          start,
		Path:           make([][]float64, n),
		RecursiveResid: make([]float64, n),
	}
	for i := 0; i < start; i++ {
		fit.RecursiveResid[i] = math.NaN()
	}
	b := mat.NewVecDense(k, beta)
	fit.Path[start-1] = append([]float64(nil), beta...)

	var px mat.VecDense
	for t := start; t < n; t++ {
		x := mat.NewVecDense(k, append([]float64(nil), design.Row(t)...))
		px.MulVec(P, x)
		f := 1 + mat.Dot(x, &px)
		v := y[t] - mat.Dot(x, b)
		fit.RecursiveResid[t] = v / math.Sqrt(f)
		b.AddScaledVec(b, v/f, &px)
		P.SymRankOne(P, -1/f, &px)
		fit.Path[t] = append([]float64(nil), b.RawVector().Data...)
	}
	fit.Params = append([]float64(nil), b.RawVector().Data...)
	return fit, nil
}

func (f *RecursiveFit) Name() string { return "RecursiveLS" }

// Defined returns how many rows have a coefficient estimate.
func (f *RecursiveFit) Defined() int { return len(f.Path) - f.Start + 1 }

// CUSUM returns the cumulative sum of recursive residuals scaled by their
// standard deviation, one value per row after the initial prefix.
func (f *RecursiveFit) CUSUM() []float64 {
	rr := f.RecursiveResid[f.Start:]
	if len(rr) < 2 {
		return nil
	}
	mean := 0.0
	for _, v := range rr {
		mean += v
	}
	mean /= float64(len(rr))
	ss := 0.0
	for _, v := range rr {
		ss += (v - mean) * (v - mean)
	}
	sd := math.Sqrt(ss / float64(len(rr)-1))
	out := make([]float64, len(rr))
	acc := 0.0
	for i, v := range rr {
		acc += v
		out[i] = acc / sd
	}
	return out
}

func (f *RecursiveFit) Summary() string {
	r := f.report("Recursive Least Squares Results", "RecursiveLS", "Recursive LS")
	ssr := 0.0
	for _, v := range f.RecursiveResid[f.Start:] {
		ssr += v * v
	}
	r.notes = append(r.notes,
		fmt.Sprintf("Recursion initialised on the first %d observations.", f.Start),
		fmt.Sprintf("Sum of squared recursive residuals: %s", num(ssr, 4)),
	)
	return r.String()
}
