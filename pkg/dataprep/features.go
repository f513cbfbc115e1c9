package dataprep

import (
	"fmt"

	"github.com/go-gota/gota/series"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/data"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/stats"
)

// Normalize standardizes the named numeric columns to zero mean and unit
// variance. An empty cols list normalizes every numeric column. The fitted
// scaler is returned so new rows can be transformed the same way.
func Normalize(ds *data.Dataset, cols []string) (*data.Dataset, *stats.StandardScaler, error) {
	cols, err := numericColumns(ds, cols)
	if err != nil {
		return nil, nil, err
	}
	X, err := ds.Features(cols)
	if err != nil {
		return nil, nil, err
	}
	sc := stats.NewStandardScaler()
	if err := sc.Fit(X); err != nil {
		return nil, nil, err
	}
	next, err := replaceColumns(ds, cols, sc.Transform(X))
	if err != nil {
		return nil, nil, err
	}
	return next, sc, nil
}

// Clip winsorizes the named numeric columns to the [lower, upper] percentile
// range. An empty cols list clips every numeric column.
func Clip(ds *data.Dataset, cols []string, lower, upper float64) (*data.Dataset, error) {
	if lower < 0 || upper > 100 || lower >= upper {
		return nil, fmt.Errorf("%w: invalid percentile range [%g, %g]", data.ErrInput, lower, upper)
	}
	cols, err := numericColumns(ds, cols)
	if err != nil {
		return nil, err
	}
	X, err := ds.Features(cols)
	if err != nil {
		return nil, err
	}
	return replaceColumns(ds, cols, stats.ClipOutliers(X, lower, upper))
}

func numericColumns(ds *data.Dataset, cols []string) ([]string, error) {
	if len(cols) > 0 {
		return cols, nil
	}
	s := ds.Schema()
	for i, n := range s.Names {
		if s.Kinds[i].Numeric() {
			cols = append(cols, n)
		}
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: no numeric columns", data.ErrInput)
	}
	return cols, nil
}

func replaceColumns(ds *data.Dataset, cols []string, X [][]float64) (*data.Dataset, error) {
	df := ds.Frame()
	for j, name := range cols {
		col := make([]float64, len(X))
		for i := range X {
			col[i] = X[i][j]
		}
		df = df.Mutate(series.New(col, series.Float, name))
	}
	return ds.WithFrame(df)
}
