package dataprep

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/series"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/data"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/stats"
)

// Strategy selects how missing cells are filled.
type Strategy string

const (
	Mean   Strategy = "mean"
	Median Strategy = "median"
	Mode   Strategy = "mode"
)

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case Mean, Median, Mode:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("%w: unknown imputation strategy %q", data.ErrInput, s)
}

// HandleMissing fills missing cells column by column. Mean and median apply
// to numeric columns only and turn Int columns into Float ones; mode applies
// to every column. A column with no observed values is left unchanged.
func HandleMissing(ds *data.Dataset, strategy Strategy) (*data.Dataset, error) {
	if _, err := ParseStrategy(string(strategy)); err != nil {
		return nil, err
	}
	df := ds.Frame()
	schema := ds.Schema()
	for j, name := range schema.Names {
		s := df.Col(name)
		missing := s.IsNaN()
		if !anyTrue(missing) {
			continue
		}
		kind := schema.Kinds[j]
		switch {
		case kind.Numeric():
			fill, ok := numericFill(s.Float(), strategy)
			if !ok {
				continue
			}
			typ := series.Float
			if kind == data.KindInt && strategy == Mode {
				typ = series.Int
			}
			vals := s.Float()
			for i, m := range missing {
				if m {
					vals[i] = fill
				}
			}
			if typ == series.Int {
				ints := make([]int, len(vals))
				for i, v := range vals {
					ints[i] = int(v)
				}
				df = df.Mutate(series.New(ints, series.Int, name))
			} else {
				df = df.Mutate(series.New(vals, series.Float, name))
			}
		case strategy == Mode:
			vals := s.Records()
			var observed []string
			for i, m := range missing {
				if !m {
					observed = append(observed, vals[i])
				}
			}
			if len(observed) == 0 {
				continue
			}
			fill := stats.ModeString(observed)
			for i, m := range missing {
				if m {
					vals[i] = fill
				}
			}
			typ := series.String
			if kind == data.KindBool {
				typ = series.Bool
			}
			df = df.Mutate(series.New(vals, typ, name))
		}
	}
	return ds.WithFrame(df)
}

func numericFill(vals []float64, strategy Strategy) (float64, bool) {
	observed := stats.DropNaN(vals)
	if len(observed) == 0 {
		return math.NaN(), false
	}
	switch strategy {
	case Median:
		return stats.Median(observed), true
	case Mode:
		return stats.Mode(observed), true
	default:
		return stats.Mean(observed), true
	}
}

func anyTrue(b []bool) bool {
	for _, v := range b {
		if v {
			return true
		}
	}
	return false
}
