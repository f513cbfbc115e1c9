package optim

// SGD applies plain gradient steps with a fixed learning rate. Gradient
// boosting uses it for the shrunken update F <- F - lr*g of the ensemble
// prediction, g being the negated output of the newly fitted stage.
type SGD struct{ LearningRate float64 }

func NewSGD(lr float64) *SGD { return &SGD{LearningRate: lr} }

// Step updates weights in place.
func (o *SGD) Step(weights, grads []float64) {
	for i := range weights {
		weights[i] -= o.LearningRate * grads[i]
	}
}

// Ascend moves weights along direction, the negative of a gradient.
func (o *SGD) Ascend(weights, direction []float64) {
	for i := range weights {
		weights[i] += o.LearningRate * direction[i]
	}
}
