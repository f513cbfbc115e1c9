package model

import "math"

func sigmoid(x float64) float64 { return 1.0 / (1.0 + math.Exp(-x)) }

// softmax writes the normalized exponentials of f into out.
func softmax(f, out []float64) {
	m := math.Inf(-1)
	for _, v := range f {
		m = math.Max(m, v)
	}
	s := 0.0
	for k, v := range f {
		out[k] = math.Exp(v - m)
		s += out[k]
	}
	for k := range out {
		out[k] /= s
	}
}

// squaredLoss returns half the mean squared error of f against y and the
// negative gradient, which is the residual vector.
func squaredLoss(y, f []float64) (float64, []float64) {
	n := len(y)
	s := 0.0
	resid := make([]float64, n)
	for i := range n {
		e := y[i] - f[i]
		s += e * e
		resid[i] = e
	}
	return s / float64(n) / 2, resid
}

// binaryLogLoss returns the mean binary cross-entropy of sigmoid(f) against
// 0/1 targets y, the negative gradient y-p and the probabilities p.
func binaryLogLoss(y, f []float64) (float64, []float64, []float64) {
	n := len(y)
	s := 0.0
	resid := make([]float64, n)
	prob := make([]float64, n)
	for i := range n {
		p := sigmoid(f[i])
		prob[i] = p
		pc := math.Min(math.Max(p, 1e-12), 1-1e-12)
		s += -(y[i]*math.Log(pc) + (1-y[i])*math.Log(1-pc))
		resid[i] = y[i] - p
	}
	return s / float64(n), resid, prob
}

// multinomialLoss returns the mean cross-entropy of softmax(F) against class
// codes y, with the per-class negative gradients and probabilities, both
// indexed [class][row].
func multinomialLoss(y []int, F [][]float64) (float64, [][]float64, [][]float64) {
	K := len(F)
	n := len(y)
	resid := make([][]float64, K)
	prob := make([][]float64, K)
	for k := range K {
		resid[k] = make([]float64, n)
		prob[k] = make([]float64, n)
	}
	f := make([]float64, K)
	p := make([]float64, K)
	s := 0.0
	for i := range n {
		for k := range K {
			f[k] = F[k][i]
		}
		softmax(f, p)
		for k := range K {
			prob[k][i] = p[k]
			t := 0.0
			if y[i] == k {
				t = 1
			}
			resid[k][i] = t - p[k]
		}
		s -= math.Log(math.Max(p[y[i]], 1e-12))
	}
	return s / float64(n), resid, prob
}
