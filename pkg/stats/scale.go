package stats

import "math"

// StandardScaler standardizes columns to zero mean and unit variance.
// NaN cells are ignored when fitting and stay NaN when transforming.
type StandardScaler struct {
	Mean []float64
	Std  []float64
	fit  bool
}

func NewStandardScaler() *StandardScaler { return &StandardScaler{} }

// Fit learns per-column means and population standard deviations.
// A constant column gets a std of 1 so it maps to zeros.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return nil
	}
	c := len(X[0])
	s.Mean = make([]float64, c)
	s.Std = make([]float64, c)
	col := make([]float64, 0, len(X))
	for j := 0; j < c; j++ {
		col = col[:0]
		for i := range X {
			if !math.IsNaN(X[i][j]) {
				col = append(col, X[i][j])
			}
		}
		s.Mean[j] = Mean(col)
		s.Std[j] = Std(col)
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}
	s.fit = true
	return nil
}

// Transform returns a scaled copy of X. An unfitted scaler returns X unchanged.
func (s *StandardScaler) Transform(X [][]float64) [][]float64 {
	if !s.fit || len(X) == 0 {
		return X
	}
	out := make([][]float64, len(X))
	for i := range X {
		row := make([]float64, len(X[i]))
		for j, v := range X[i] {
			row[j] = (v - s.Mean[j]) / s.Std[j]
		}
		out[i] = row
	}
	return out
}

func (s *StandardScaler) FitTransform(X [][]float64) [][]float64 { _ = s.Fit(X); return s.Transform(X) }
