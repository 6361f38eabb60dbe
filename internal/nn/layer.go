package nn

import (
	"fmt"

	"rainscale/internal/tensor"
)

// Layer is one differentiable block. Forward caches whatever Backward needs;
// Backward accumulates parameter gradients and returns the gradient with
// respect to the layer input.
type Layer interface {
	Forward(x *tensor.Tensor) (*tensor.Tensor, error)
	Backward(grad *tensor.Tensor) (*tensor.Tensor, error)
	Params() []*Param
}

// Sequential chains layers in order.
type Sequential struct {
	layers []Layer
}

func NewSequential(layers ...Layer) *Sequential {
	return &Sequential{layers: layers}
}

func (s *Sequential) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	out := x
	for i, layer := range s.layers {
		next, err := layer.Forward(out)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		out = next
	}
	return out, nil
}

func (s *Sequential) Backward(grad *tensor.Tensor) (*tensor.Tensor, error) {
	out := grad
	for i := len(s.layers) - 1; i >= 0; i-- {
		next, err := s.layers[i].Backward(out)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		out = next
	}
	return out, nil
}

func (s *Sequential) Params() []*Param {
	var params []*Param
	for _, layer := range s.layers {
		params = append(params, layer.Params()...)
	}
	return params
}
