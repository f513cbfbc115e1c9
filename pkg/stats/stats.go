package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean computes the average of a slice. Empty input yields 0.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

// Variance computes the population variance of a slice.
func Variance(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	_, v := stat.PopMeanVariance(x, nil)
	return v
}

// Std computes the population standard deviation of a slice.
func Std(x []float64) float64 {
	return math.Sqrt(Variance(x))
}

// MinMax returns the minimum and maximum values in the slice.
func MinMax(x []float64) (float64, float64) {
	if len(x) == 0 {
		return 0, 0
	}
	lo, hi := x[0], x[0]
	for _, v := range x[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Median returns the median value of the slice (allocates a copy).
func Median(x []float64) float64 {
	n := len(x)
	if n == 0 {
		return 0
	}
	cp := make([]float64, n)
	copy(cp, x)
	sort.Float64s(cp)
	mid := n >> 1
	if n&1 == 0 {
		return (cp[mid-1] + cp[mid]) * 0.5
	}
	return cp[mid]
}

// Mode returns the most frequent value in the slice. Ties go to the smallest value.
func Mode(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	counts := make(map[float64]int, len(x))
	for _, v := range x {
		counts[v]++
	}
	mode, best := x[0], 0
	for v, c := range counts {
		if c > best || (c == best && v < mode) {
			mode, best = v, c
		}
	}
	return mode
}

// ModeString returns the most frequent string. Ties go to the lexically smallest value.
func ModeString(x []string) string {
	if len(x) == 0 {
		return ""
	}
	counts := make(map[string]int, len(x))
	for _, v := range x {
		counts[v]++
	}
	mode, best := x[0], 0
	for v, c := range counts {
		if c > best || (c == best && v < mode) {
			mode, best = v, c
		}
	}
	return mode
}

// Percentile returns the p-th percentile value of the slice (0 <= p <= 100)
// using linear interpolation between closest ranks.
func Percentile(x []float64, p float64) float64 {
	n := len(x)
	if n == 0 {
		return 0
	}
	lo, hi := MinMax(x)
	if p <= 0 {
		return lo
	}
	if p >= 100 {
		return hi
	}
	cp := make([]float64, n)
	copy(cp, x)
	sort.Float64s(cp)
	rank := p / 100 * float64(n-1)
	lower := int(rank)
	upper := lower + 1
	weight := rank - float64(lower)
	if upper >= n {
		return cp[lower]
	}
	return cp[lower]*(1-weight) + cp[upper]*weight
}

// MAD is the median absolute deviation around center, normalized by 0.6745 so
// it estimates the standard deviation of normally distributed data.
func MAD(x []float64, center float64) float64 {
	if len(x) == 0 {
		return 0
	}
	dev := make([]float64, len(x))
	for i, v := range x {
		dev[i] = math.Abs(v - center)
	}
	return Median(dev) / 0.6745
}

// DropNaN returns the non-NaN values of x.
func DropNaN(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// HasNaN reports whether any value of x is NaN.
func HasNaN(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
