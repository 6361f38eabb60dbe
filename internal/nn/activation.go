package nn

import (
	"fmt"
	"math"

	"rainscale/internal/tensor"
)

// LeakyReLU applies max(x, alpha*x) elementwise.
type LeakyReLU struct {
	alpha float64
	input *tensor.Tensor
}

func NewLeakyReLU(alpha float64) *LeakyReLU {
	return &LeakyReLU{alpha: alpha}
}

func (l *LeakyReLU) Params() []*Param { return nil }

func (l *LeakyReLU) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	l.input = x
	out := tensor.New(x.Shape()...)
	in := x.Data()
	dst := out.Data()
	for i, v := range in {
		if v > 0 {
			dst[i] = v
		} else {
			dst[i] = l.alpha * v
		}
	}
	return out, nil
}

func (l *LeakyReLU) Backward(grad *tensor.Tensor) (*tensor.Tensor, error) {
	if l.input == nil {
		return nil, fmt.Errorf("leakyrelu: backward before forward")
	}
	if !tensor.SameShape(grad, l.input) {
		return nil, fmt.Errorf("leakyrelu: gradient shape %v does not match input %v", grad.Shape(), l.input.Shape())
	}
	dx := tensor.New(grad.Shape()...)
	in := l.input.Data()
	g := grad.Data()
	din := dx.Data()
	for i, v := range in {
		if v > 0 {
			din[i] = g[i]
		} else {
			din[i] = l.alpha * g[i]
		}
	}
	return dx, nil
}

// Sigmoid maps a raw score to (0, 1). Kept out of the network definitions:
// training evaluates losses on logits, Sigmoid is for reporting only.
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
