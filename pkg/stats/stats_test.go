package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescriptive(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	assert.InDelta(t, 2.5, Mean(x), 1e-12)
	assert.InDelta(t, 1.25, Variance(x), 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), Std(x), 1e-12)
	assert.InDelta(t, 2.5, Median(x), 1e-12)
	assert.InDelta(t, 3, Median([]float64{5, 1, 3}), 1e-12)

	lo, hi := MinMax([]float64{3, -1, 7, 2})
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 7.0, hi)

	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Median(nil))
}

func TestMode(t *testing.T) {
	assert.Equal(t, 2.0, Mode([]float64{1, 2, 2, 3}))
	assert.Equal(t, 1.0, Mode([]float64{3, 1, 3, 1}), "ties resolve to the smallest value")
	assert.Equal(t, "a", ModeString([]string{"b", "a", "a", "b"}))
	assert.Equal(t, "", ModeString(nil))
}

func TestPercentileAndMAD(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 3, Percentile(x, 50), 1e-12)
	assert.InDelta(t, 2, Percentile(x, 25), 1e-12)
	assert.Equal(t, 1.0, Percentile(x, 0))
	assert.Equal(t, 5.0, Percentile(x, 100))

	// |x| median is 3 -> 3/0.6745
	assert.InDelta(t, 3/0.6745, MAD(x, 0), 1e-12)
}

func TestNaNHelpers(t *testing.T) {
	x := []float64{1, math.NaN(), 3}
	assert.True(t, HasNaN(x))
	assert.Equal(t, []float64{1, 3}, DropNaN(x))
	assert.False(t, HasNaN(DropNaN(x)))
}

func TestStandardScaler(t *testing.T) {
	X := [][]float64{{1, 10}, {3, 10}, {math.NaN(), 10}}
	s := NewStandardScaler()
	out := s.FitTransform(X)

	assert.InDelta(t, 2, s.Mean[0], 1e-12)
	assert.InDelta(t, 1, s.Std[0], 1e-12)
	assert.Equal(t, 1.0, s.Std[1], "constant column keeps unit std")
	assert.InDelta(t, -1, out[0][0], 1e-12)
	assert.InDelta(t, 1, out[1][0], 1e-12)
	assert.True(t, math.IsNaN(out[2][0]))
	assert.Equal(t, 0.0, out[0][1])
}
