package model

import (
	"math"
	"sort"
)

func MSE(yTrue, yPred []float64) float64 {
	n := float64(len(yTrue))
	s := 0.0
	for i := range yTrue {
		d := yPred[i] - yTrue[i]
		s += d * d
	}
	return s / n
}

func MAE(yTrue, yPred []float64) float64 {
	n := float64(len(yTrue))
	s := 0.0
	for i := range yTrue {
		s += math.Abs(yPred[i] - yTrue[i])
	}
	return s / n
}

func RMSE(yTrue, yPred []float64) float64 { return math.Sqrt(MSE(yTrue, yPred)) }

func R2(yTrue, yPred []float64) float64 {
	m := 0.0
	for _, v := range yTrue {
		m += v
	}
	m /= float64(len(yTrue))
	ssTot := 0.0
	ssRes := 0.0
	for i := range yTrue {
		d := yTrue[i] - m
		ssTot += d * d
		r := yTrue[i] - yPred[i]
		ssRes += r * r
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// Accuracy is the share of matching labels.
func Accuracy(yTrue, yPred []string) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	c := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			c++
		}
	}
	return float64(c) / float64(len(yTrue))
}

// ConfusionMatrix counts true labels (rows) against predicted labels
// (columns) over the sorted union of both label sets.
type ConfusionMatrix struct {
	Labels []string
	Counts [][]int
}

func NewConfusionMatrix(yTrue, yPred []string) *ConfusionMatrix {
	seen := map[string]struct{}{}
	for i := range yTrue {
		seen[yTrue[i]] = struct{}{}
		seen[yPred[i]] = struct{}{}
	}
	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	counts := make([][]int, len(labels))
	for i := range counts {
		counts[i] = make([]int, len(labels))
	}
	for i := range yTrue {
		counts[index[yTrue[i]]][index[yPred[i]]]++
	}
	return &ConfusionMatrix{Labels: labels, Counts: counts}
}

// PrecisionRecallF1 returns the one-vs-rest scores of label.
func (c *ConfusionMatrix) PrecisionRecallF1(label string) (prec, rec, f1 float64) {
	k := -1
	for i, l := range c.Labels {
		if l == label {
			k = i
		}
	}
	if k < 0 {
		return
	}
	tp := c.Counts[k][k]
	fp, fn := 0, 0
	for i := range c.Labels {
		if i != k {
			fp += c.Counts[i][k]
			fn += c.Counts[k][i]
		}
	}
	if tp+fp > 0 {
		prec = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		rec = float64(tp) / float64(tp+fn)
	}
	if prec+rec > 0 {
		f1 = 2 * prec * rec / (prec + rec)
	}
	return
}
