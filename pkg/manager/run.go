package manager

import (
	"errors"
	"fmt"
	"time"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/data"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/model"
)

// Run dispatches req to its procedure. Missing selections are reported as
// ErrSelection before anything is fitted.
func (m *Manager) Run(req Request) (*Outcome, error) {
	proc := req.Procedure
	if _, ok := titles[proc]; !ok {
		return nil, newError(ErrUnsupported, "", fmt.Errorf("unknown procedure %q", string(proc)))
	}
	if len(req.X) == 0 || len(req.X[0]) == 0 {
		return nil, SelectionError(proc, "no feature columns selected")
	}
	if proc.NeedsTarget() && req.Y.Len() == 0 {
		return nil, SelectionError(proc, "no target column selected")
	}
	if proc.NeedsTarget() && !ensembleProcedure(proc) && req.Y.Kind != data.Continuous {
		return nil, newError(ErrModel, proc,
			fmt.Errorf("%w: target %q is categorical, %s needs a numeric target", data.ErrInput, req.Y.Name, proc.Title()))
	}

	start := time.Now()
	out := &Outcome{Procedure: proc}
	var (
		h   model.Handle
		err error
	)
	X, y := req.X, req.Y.Values
	switch proc {
	case OLS:
		h, err = unwrap(m.OLS(X, y))
	case WLS:
		h, err = unwrap(m.WLS(X, y, req.Params.Weights))
	case GLS:
		h, err = unwrap(m.GLS(X, y, req.Params.Sigma))
	case RecursiveLS:
		h, err = unwrap(m.RecursiveLS(X, y))
	case RLM:
		h, err = unwrap(m.RLM(X, y))
	case RollingLS:
		var p Params
		if p, err = m.params(proc, req.Params); err == nil {
			h, err = unwrap(m.RollingLS(X, y, p.Window))
		}
	case RandomForest, GradientBoosting:
		var r FitResult
		if proc == RandomForest {
			r, err = m.RandomForest(X, req.Y, req.Params)
		} else {
			r, err = m.GradientBoosting(X, req.Y, req.Params)
		}
		h, out.Variant = r.Model, r.Variant
	case KMeans:
		h, err = unwrap(m.KMeans(X, req.Params))
	case GaussianFit, ExponentialFit:
		x, cerr := singleColumn(X)
		if cerr != nil {
			return nil, newError(ErrInput, proc, cerr)
		}
		if proc == GaussianFit {
			h, err = unwrap(m.GaussianFit(x, y))
		} else {
			h, err = unwrap(m.ExponentialFit(x, y))
		}
	}
	if err != nil {
		return nil, err
	}

	if l, ok := h.(model.Labeler); ok {
		l.SetNames(req.Y.Name, req.Features)
	}
	if s, ok := h.(model.Summarizer); ok {
		out.Summary = s.Summary()
	}
	out.Model = h
	out.Duration = time.Since(start)
	return out, nil
}

func ensembleProcedure(p Procedure) bool { return p == RandomForest || p == GradientBoosting }

// unwrap converts a typed result into a Handle, keeping a nil interface on
// error.
func unwrap[T model.Handle](h T, err error) (model.Handle, error) {
	if err != nil {
		return nil, err
	}
	return h, nil
}

func singleColumn(X [][]float64) ([]float64, error) {
	if len(X[0]) != 1 {
		return nil, errors.New("curve fits take exactly one feature column")
	}
	x := make([]float64, len(X))
	for i, row := range X {
		if len(row) != 1 {
			return nil, fmt.Errorf("%w: row %d has %d columns", model.ErrShape, i, len(row))
		}
		x[i] = row[0]
	}
	return x, nil
}
