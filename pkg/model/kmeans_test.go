package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKMeans_SeparatesBlobs(t *testing.T) {
	centers := [][]float64{{0, 0}, {10, 0}, {0, 10}}
	X, truth := blobs(centers, 30, 0.5, 3)

	km := NewKMeans(3)
	require.NoError(t, km.Fit(X))
	labels := km.Labels()
	require.Len(t, labels, len(X))
	for _, l := range labels {
		assert.GreaterOrEqual(t, l, 0)
		assert.Less(t, l, 3)
	}

	// every blob maps onto a single cluster, and no two blobs share one
	byBlob := map[string]int{}
	for i, l := range labels {
		if prev, ok := byBlob[truth[i]]; ok {
			assert.Equal(t, prev, l, "row %d", i)
		}
		byBlob[truth[i]] = l
	}
	assert.Len(t, byBlob, 3)
	seen := map[int]bool{}
	for _, l := range byBlob {
		seen[l] = true
	}
	assert.Len(t, seen, 3)

	for _, c := range centers {
		lbl, err := km.Assign([][]float64{c})
		require.NoError(t, err)
		cent := km.Centroids()[lbl[0]]
		assert.InDelta(t, c[0], cent[0], 0.5)
		assert.InDelta(t, c[1], cent[1], 0.5)
	}
	assert.Greater(t, km.Inertia, 0.0)
}

func TestKMeans_Deterministic(t *testing.T) {
	X, _ := blobs([][]float64{{0, 0}, {3, 3}}, 25, 1.5, 9)
	a := NewKMeans(2)
	b := NewKMeans(2)
	require.NoError(t, a.Fit(X))
	require.NoError(t, b.Fit(X))
	assert.Equal(t, a.Labels(), b.Labels())
	assert.Equal(t, a.Centroids(), b.Centroids())
}

func TestKMeans_Errors(t *testing.T) {
	X := column(1, 2, 3)
	assert.Error(t, NewKMeans(4).Fit(X))
	assert.Error(t, NewKMeans(0).Fit(X))
	assert.ErrorIs(t, NewKMeans(1).Fit(nil), ErrShape)

	one := NewKMeans(1)
	require.NoError(t, one.Fit(X))
	assert.Equal(t, []int{0, 0, 0}, one.Labels())
	assert.InDelta(t, 2, one.Centroids()[0][0], 1e-12)

	_, err := NewKMeans(2).Assign(X)
	assert.Error(t, err)
	_, err = one.Assign([][]float64{{1, 2}})
	assert.ErrorIs(t, err, ErrShape)
}
