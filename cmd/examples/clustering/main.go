package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"path/filepath"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/manager"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/viz"
)

// generateClusterData draws n points around each of the given centers.
func generateClusterData(rnd *rand.Rand, centers [][]float64, n int) [][]float64 {
	var X [][]float64
	for _, c := range centers {
		for range n {
			X = append(X, []float64{c[0] + rnd.NormFloat64()*0.6, c[1] + rnd.NormFloat64()*0.6})
		}
	}
	return X
}

// generatePeak samples a noisy Gaussian peak on [-5, 5].
func generatePeak(rnd *rand.Rand, n int) (x, y []float64) {
	for i := range n {
		v := -5 + 10*float64(i)/float64(n-1)
		x = append(x, v)
		y = append(y, 4*math.Exp(-(v-1)*(v-1)/(2*0.8*0.8))+rnd.NormFloat64()*0.05)
	}
	return
}

func main() {
	out := flag.String("out", "plots", "directory for the plots")
	k := flag.Int("k", 3, "number of clusters")
	flag.Parse()

	rnd := rand.New(rand.NewSource(3))
	m := manager.New(manager.WithKMeans(10, 300))

	fmt.Println("=== KMeans ===")
	X := generateClusterData(rnd, [][]float64{{-4, -4}, {0, 4}, {4, -2}}, 100)
	km, err := m.KMeans(X, manager.Params{Clusters: *k})
	if err != nil {
		log.Fatal(err)
	}
	for c, cent := range km.Centroids() {
		fmt.Printf("  centroid %d: (%.2f, %.2f)\n", c, cent[0], cent[1])
	}
	fmt.Printf("  inertia %.2f after %d iterations\n", km.Inertia, km.NIter)
	p, err := viz.Clusters(X, km.Labels(), km.Centroids(), []string{"x1", "x2"})
	if err != nil {
		log.Fatal(err)
	}
	if err := viz.Save(p, filepath.Join(*out, "kmeans.png"), viz.DefaultSize); err != nil {
		log.Fatal(err)
	}

	fmt.Println("\n=== Gaussian curve fit ===")
	x, y := generatePeak(rnd, 80)
	fit, err := m.GaussianFit(x, y)
	if err != nil {
		log.Fatal(err)
	}
	fit.SetNames("signal", []string{"t"})
	fmt.Println(fit.Summary())
	p, err = viz.Curve(x, y, fit)
	if err != nil {
		log.Fatal(err)
	}
	if err := viz.Save(p, filepath.Join(*out, "gaussian.png"), viz.DefaultSize); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Saved plots to %s\n", *out)
}
