package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"path/filepath"

	"gonum.org/v1/plot/vg"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/data"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/dataprep"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/manager"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/model"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/viz"
)

// generateQuadrantData labels a point "same" when x1 and x2 share a sign.
func generateQuadrantData(rnd *rand.Rand, n int) (X [][]float64, labels []string) {
	X = make([][]float64, n)
	labels = make([]string, n)
	for i := range n {
		x1 := rnd.Float64()*2 - 1
		x2 := rnd.Float64()*2 - 1
		X[i] = []float64{x1, x2}
		labels[i] = "differ"
		if x1*x2 > 0 {
			labels[i] = "same"
		}
	}
	return
}

func save(fn func() (string, error)) {
	path, err := fn()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Saved %s\n", path)
}

func main() {
	out := flag.String("out", "plots", "directory for the plots")
	trees := flag.Int("trees", 50, "estimators per ensemble")
	flag.Parse()

	rnd := rand.New(rand.NewSource(7))
	X, labels := generateQuadrantData(rnd, 1000)
	train, test, err := dataprep.TrainTestSplit(len(X), 0.3, 7)
	if err != nil {
		log.Fatal(err)
	}
	XTrain, XTest := dataprep.Take(X, train), dataprep.Take(X, test)
	yTrain, yTest := dataprep.Take(labels, train), dataprep.Take(labels, test)
	fmt.Printf("Train size: %d, Test size: %d\n", len(XTrain), len(XTest))

	m := manager.New()
	target := data.CategoricalTarget(yTrain)
	features := []string{"x1", "x2"}

	fmt.Println("\n=== Random Forest ===")
	rf, err := m.RandomForest(XTrain, target, manager.Params{NEstimators: *trees, MaxDepth: 8})
	if err != nil {
		log.Fatal(err)
	}
	report(m, XTest, yTest)
	save(func() (string, error) {
		root, err := viz.Estimator(rf.Model.(model.EnsembleInspector))
		if err != nil {
			return "", err
		}
		p, err := viz.TreeDiagram(root, "Random Forest: first tree", features, rf.Model.(model.LabelClassifier).Classes())
		if err != nil {
			return "", err
		}
		path := filepath.Join(*out, "forest_tree.png")
		return path, viz.Save(p, path, viz.Size{Width: 14 * vg.Inch, Height: 8 * vg.Inch})
	})

	fmt.Println("\n=== Gradient Boosting ===")
	if _, err := m.GradientBoosting(XTrain, target, manager.Params{NEstimators: *trees, MaxDepth: 3, LearningRate: 0.2}); err != nil {
		log.Fatal(err)
	}
	cm := report(m, XTest, yTest)
	save(func() (string, error) {
		p, err := viz.ConfusionMatrix(cm)
		if err != nil {
			return "", err
		}
		path := filepath.Join(*out, "boosting_confusion.png")
		return path, viz.Save(p, path, viz.DefaultSize)
	})
}

// report scores the current model on the held-out rows.
func report(m *manager.Manager, X [][]float64, labels []string) *model.ConfusionMatrix {
	pred, err := m.Predict(X)
	if err != nil {
		log.Fatal(err)
	}
	cm := model.NewConfusionMatrix(labels, pred.Labels)
	fmt.Printf("%s test accuracy: %.2f%%\n", m.Current().Name(), model.Accuracy(labels, pred.Labels)*100)
	for _, l := range cm.Labels {
		p, r, f1 := cm.PrecisionRecallF1(l)
		fmt.Printf("  %-7s precision %.3f recall %.3f f1 %.3f\n", l, p, r, f1)
	}
	return cm
}
