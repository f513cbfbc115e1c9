package model

import (
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/core"
)

// RollingFit holds one OLS coefficient vector per window position. Slot t
// covers rows t-W+1..t; the first W-1 slots are nil. A window whose design
// is singular gets a vector of NaN.
type RollingFit struct {
	Window       int
	Names        []string
	Coefficients [][]float64
}

// FitRolling fits OLS with an intercept on every window of w consecutive rows.
func FitRolling(X [][]float64, y []float64, w int) (*RollingFit, error) {
	p, err := checkXY(X, len(y))
	if err != nil {
		return nil, err
	}
	if err := checkFinite(X, y); err != nil {
		return nil, err
	}
	n, k := len(X), p+1
	if w < 1 {
		return nil, fmt.Errorf("rolling ls: window must be at least 1, got %d", w)
	}
	if w > n {
		return nil, fmt.Errorf("rolling ls: window %d exceeds %d rows", w, n)
	}
	if w < k {
		return nil, fmt.Errorf("rolling ls: window %d is smaller than the %d parameters", w, k)
	}
	m, err := core.FromRows(X)
	if err != nil {
		return nil, err
	}
	design := m.AddConstant()

	fit := &RollingFit{Window: w, Names: append([]string{"const"}, defaultNames(p)...), Coefficients: make([][]float64, n)}
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for t := w - 1; t < n; t++ {
		g.Go(func() error {
			lo := t - w + 1
			sub := design.SliceRows(lo, t+1).Dense()
			beta, err := solveLS(sub, mat.NewDense(w, 1, append([]float64(nil), y[lo:t+1]...)))
			if errors.Is(err, ErrSingular) {
				beta = make([]float64, k)
				for j := range beta {
					beta[j] = math.NaN()
				}
			} else if err != nil {
				return err
			}
			fit.Coefficients[t] = beta
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fit, nil
}

func (f *RollingFit) Name() string { return "RollingLS" }

func (f *RollingFit) SetNames(_ string, features []string) {
	if len(features) == len(f.Names)-1 {
		f.Names = append([]string{"const"}, features...)
	}
}

// Defined returns the number of window positions with an estimate.
func (f *RollingFit) Defined() int {
	c := 0
	for _, b := range f.Coefficients {
		if b != nil {
			c++
		}
	}
	return c
}

// Last returns the coefficients of the final window.
func (f *RollingFit) Last() ([]float64, error) {
	if len(f.Coefficients) == 0 || f.Coefficients[len(f.Coefficients)-1] == nil {
		return nil, errors.New("rolling: no fitted window")
	}
	return f.Coefficients[len(f.Coefficients)-1], nil
}

// Predict applies the final window's coefficients.
func (f *RollingFit) Predict(X [][]float64) ([]float64, error) {
	params, err := f.Last()
	if err != nil {
		return nil, err
	}
	return predictLinear(params, X)
}
