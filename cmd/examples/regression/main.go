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

// generateLinearData creates n samples of y = 1.5 + 2*x1 - x2 + noise and
// pushes every 25th target far off the line.
func generateLinearData(rnd *rand.Rand, n int) (X [][]float64, y []float64) {
	X = make([][]float64, n)
	y = make([]float64, n)
	for i := range n {
		x1 := rnd.Float64()*10 - 5
		x2 := rnd.NormFloat64()
		X[i] = []float64{x1, x2}
		y[i] = 1.5 + 2*x1 - x2 + rnd.NormFloat64()*0.5
		if i%25 == 0 {
			y[i] += 25
		}
	}
	return
}

// generateDriftData has a slope that drifts slowly over time.
func generateDriftData(rnd *rand.Rand, n int) (X [][]float64, y []float64) {
	for i := range n {
		x := rnd.Float64() * 4
		slope := 1 + 2*math.Sin(float64(i)/float64(n)*math.Pi)
		X = append(X, []float64{x})
		y = append(y, slope*x+rnd.NormFloat64()*0.2)
	}
	return
}

func main() {
	out := flag.String("out", "plots", "directory for the plots")
	flag.Parse()

	rnd := rand.New(rand.NewSource(42))
	m := manager.New()

	fmt.Println("=== Least squares family on data with outliers ===")
	X, y := generateLinearData(rnd, 200)
	ols, err := m.OLS(X, y)
	if err != nil {
		log.Fatalf("ols: %v", err)
	}
	ols.SetNames("y", []string{"x1", "x2"})
	fmt.Println(ols.Summary())

	rlm, err := m.RLM(X, y)
	if err != nil {
		log.Fatalf("rlm: %v", err)
	}
	rlm.SetNames("y", []string{"x1", "x2"})
	fmt.Println(rlm.Summary())
	fmt.Printf("OLS slope on x1: %.3f, RLM slope on x1: %.3f (true 2)\n\n", ols.Params[1], rlm.Params[1])

	p, err := viz.Regression(X, y, rlm, "x1", "y")
	if err != nil {
		log.Fatal(err)
	}
	if err := viz.Save(p, filepath.Join(*out, "rlm.png"), viz.DefaultSize); err != nil {
		log.Fatal(err)
	}

	fmt.Println("=== Rolling and recursive least squares on drifting data ===")
	Xd, yd := generateDriftData(rnd, 300)
	roll, err := m.RollingLS(Xd, yd, 40)
	if err != nil {
		log.Fatalf("rolling: %v", err)
	}
	fmt.Printf("Rolling windows with estimates: %d of %d rows\n", roll.Defined(), len(yd))
	rec, err := m.RecursiveLS(Xd, yd)
	if err != nil {
		log.Fatalf("recursive: %v", err)
	}
	cusum := rec.CUSUM()
	fmt.Printf("Recursive LS final slope %.3f, last CUSUM %.2f\n", rec.Params[1], cusum[len(cusum)-1])

	p, err = viz.Rolling(roll)
	if err != nil {
		log.Fatal(err)
	}
	if err := viz.Save(p, filepath.Join(*out, "rolling.png"), viz.DefaultSize); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Saved plots to %s\n", *out)
}
