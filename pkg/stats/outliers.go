package stats

import "math"

// ClipOutliers clips values in each column to the given lower and upper
// percentiles of that column. NaN cells are skipped and stay NaN.
func ClipOutliers(X [][]float64, lower, upper float64) [][]float64 {
	if len(X) == 0 {
		return X
	}
	rows, cols := len(X), len(X[0])
	lows := make([]float64, cols)
	highs := make([]float64, cols)
	col := make([]float64, 0, rows)
	for j := range cols {
		col = col[:0]
		for i := range rows {
			if !math.IsNaN(X[i][j]) {
				col = append(col, X[i][j])
			}
		}
		lows[j] = Percentile(col, lower)
		highs[j] = Percentile(col, upper)
	}
	out := make([][]float64, rows)
	for i := range rows {
		out[i] = make([]float64, cols)
		for j := range cols {
			v := X[i][j]
			switch {
			case v < lows[j]:
				out[i][j] = lows[j]
			case v > highs[j]:
				out[i][j] = highs[j]
			default:
				out[i][j] = v
			}
		}
	}
	return out
}
