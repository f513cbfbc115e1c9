package dataprep

import (
	"fmt"
	"math/rand"
)

// TrainTestSplit shuffles the row indices 0..n-1 with seed and holds out
// round(n*testRatio) of them for testing.
func TrainTestSplit(n int, testRatio float64, seed int64) (train, test []int, err error) {
	if n < 2 {
		return nil, nil, fmt.Errorf("split: need at least 2 rows, got %d", n)
	}
	if !(testRatio > 0 && testRatio < 1) {
		return nil, nil, fmt.Errorf("split: test ratio %g outside (0, 1)", testRatio)
	}
	idx := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := min(max(int(float64(n)*testRatio+0.5), 1), n-1)
	return idx[nTest:], idx[:nTest], nil
}

// KFold deals the shuffled row indices into k folds of near-equal size.
func KFold(n, k int, seed int64) ([][]int, error) {
	if k < 2 || k > n {
		return nil, fmt.Errorf("kfold: %d folds for %d rows", k, n)
	}
	idx := rand.New(rand.NewSource(seed)).Perm(n)
	folds := make([][]int, k)
	for i, v := range idx {
		folds[i%k] = append(folds[i%k], v)
	}
	return folds, nil
}

// Take returns rows[idx[0]], rows[idx[1]], ...
func Take[T any](rows []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out
}
