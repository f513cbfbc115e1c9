package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"
)

// KMeans is an unsupervised learning model that partitions data points into K clusters.
type KMeans struct {
	K           int
	MaxIter     int
	NInit       int // independent k-means++ restarts; the lowest inertia wins
	Tol         float64
	RandomState int64

	centroids [][]float64
	labels    []int
	Inertia   float64 // Sum of squared distances to nearest centroid
	NIter     int
}

// NewKMeans creates a KMeans model with k clusters and the usual defaults.
func NewKMeans(k int) *KMeans {
	return &KMeans{K: k, MaxIter: 300, NInit: 10, Tol: 1e-4, RandomState: 42}
}

// Fit runs NInit seeded restarts and keeps the lowest-inertia solution.
func (m *KMeans) Fit(X [][]float64) error {
	if _, err := checkXY(X, -1); err != nil {
		return err
	}
	if err := checkFinite(X, nil); err != nil {
		return err
	}
	if m.K < 1 {
		return fmt.Errorf("kmeans: cluster count must be at least 1, got %d", m.K)
	}
	if len(X) < m.K {
		return fmt.Errorf("kmeans: %d clusters requested for %d points", m.K, len(X))
	}
	runs := max(m.NInit, 1)
	m.Inertia = math.Inf(1)
	for r := 0; r < runs; r++ {
		rnd := rand.New(rand.NewSource(m.RandomState + int64(r)))
		cent, labels, inertia, iters := m.lloyd(X, initCenters(X, m.K, rnd))
		if inertia < m.Inertia {
			m.centroids, m.labels, m.Inertia, m.NIter = cent, labels, inertia, iters
		}
	}
	if m.centroids == nil {
		return errors.New("kmeans: no restart produced a finite inertia")
	}
	return nil
}

// lloyd iterates assignment and centroid updates from the given centers.
func (m *KMeans) lloyd(X [][]float64, centroids [][]float64) ([][]float64, []int, float64, int) {
	n, p := len(X), len(X[0])
	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}
	maxIter := max(m.MaxIter, 1)
	iters := 0
	for it := 0; it < maxIter; it++ {
		iters = it + 1
		changed := assignParallel(X, centroids, assign)

		// === Update Step ===
		sums := make([][]float64, m.K)
		counts := make([]int, m.K)
		for k := range sums {
			sums[k] = make([]float64, p)
		}
		for i := range X {
			k := assign[i]
			counts[k]++
			for j := 0; j < p; j++ {
				sums[k][j] += X[i][j]
			}
		}
		shift := 0.0
		for k := 0; k < m.K; k++ {
			if counts[k] == 0 {
				continue // empty cluster keeps its centroid
			}
			for j := 0; j < p; j++ {
				c := sums[k][j] / float64(counts[k])
				d := c - centroids[k][j]
				shift += d * d
				centroids[k][j] = c
			}
		}
		if !changed || shift <= m.Tol*m.Tol {
			break
		}
	}
	assignParallel(X, centroids, assign)
	inertia := 0.0
	for i := range X {
		inertia += euclidSquared(X[i], centroids[assign[i]])
	}
	return centroids, assign, inertia, iters
}

// assignParallel assigns each row to its nearest centroid, splitting rows
// across workers. It reports whether any assignment changed.
func assignParallel(X [][]float64, centroids [][]float64, assign []int) bool {
	n := len(X)
	workers := runtime.GOMAXPROCS(0)
	rowsPerWorker := (n + workers - 1) / workers
	changed := make([]bool, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * rowsPerWorker
		end := min(start+rowsPerWorker, n)
		if start >= end {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := start; i < end; i++ {
				best := nearest(X[i], centroids)
				if assign[i] != best {
					changed[w] = true
				}
				assign[i] = best
			}
		}()
	}
	wg.Wait()
	for _, c := range changed {
		if c {
			return true
		}
	}
	return false
}

func nearest(x []float64, centroids [][]float64) int {
	best, bestD := 0, math.MaxFloat64
	for k, c := range centroids {
		if d := euclidSquared(x, c); d < bestD {
			best, bestD = k, d
		}
	}
	return best
}

func euclidSquared(a, b []float64) float64 {
	s := 0.0
	for j := range a {
		d := a[j] - b[j]
		s += d * d
	}
	return s
}

// initCenters picks k starting centroids with k-means++ seeding.
func initCenters(X [][]float64, k int, rnd *rand.Rand) [][]float64 {
	n := len(X)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, append([]float64(nil), X[rnd.Intn(n)]...))

	distSq := make([]float64, n)
	for i := range distSq {
		distSq[i] = euclidSquared(X[i], centroids[0])
	}
	for len(centroids) < k {
		total := 0.0
		for _, d := range distSq {
			total += d
		}
		pick := n - 1
		if total > 0 {
			r := rnd.Float64() * total
			cumulative := 0.0
			for i, d2 := range distSq {
				cumulative += d2
				if cumulative >= r && d2 > 0 {
					pick = i
					break
				}
			}
		} else {
			pick = rnd.Intn(n)
		}
		c := append([]float64(nil), X[pick]...)
		centroids = append(centroids, c)
		for i := range distSq {
			distSq[i] = math.Min(distSq[i], euclidSquared(X[i], c))
		}
	}
	return centroids
}

func (m *KMeans) Name() string { return "KMeans" }

// Labels returns the cluster of each training row.
func (m *KMeans) Labels() []int { return append([]int(nil), m.labels...) }

func (m *KMeans) Centroids() [][]float64 {
	out := make([][]float64, len(m.centroids))
	for k, c := range m.centroids {
		out[k] = append([]float64(nil), c...)
	}
	return out
}

// Assign maps new rows to their nearest centroid.
func (m *KMeans) Assign(X [][]float64) ([]int, error) {
	if m.centroids == nil {
		return nil, errors.New("kmeans: not trained")
	}
	if len(X) == 0 {
		return nil, errors.New("kmeans: input data for prediction cannot be empty")
	}
	if err := checkWidth(X, len(m.centroids[0])); err != nil {
		return nil, err
	}
	out := make([]int, len(X))
	for i := range out {
		out[i] = -1
	}
	assignParallel(X, m.centroids, out)
	return out, nil
}
