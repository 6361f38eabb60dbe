package nn

import (
	"fmt"
	"math"

	"rainscale/internal/tensor"
)

// BCEWithLogits computes mean binary cross-entropy between raw scores and
// binary labels using the numerically stable formulation
// max(z,0) - z*y + log(1+exp(-|z|)), along with the gradient with respect to
// the logits, (sigmoid(z)-y)/N.
func BCEWithLogits(logits *tensor.Tensor, labels []float64) (float64, *tensor.Tensor, error) {
	if logits.Len() != len(labels) {
		return 0, nil, fmt.Errorf("bce: %d logits vs %d labels", logits.Len(), len(labels))
	}
	if logits.Len() == 0 {
		return 0, nil, fmt.Errorf("bce: empty batch")
	}

	grad := tensor.New(logits.Shape()...)
	z := logits.Data()
	g := grad.Data()
	n := float64(len(labels))
	total := 0.0
	for i, y := range labels {
		total += math.Max(z[i], 0) - z[i]*y + math.Log1p(math.Exp(-math.Abs(z[i])))
		g[i] = (Sigmoid(z[i]) - y) / n
	}
	return total / n, grad, nil
}
