package nn

import (
	"fmt"

	"rainscale/internal/tensor"
)

// Flatten collapses all trailing axes into one feature axis.
type Flatten struct {
	inDims []int
}

func NewFlatten() *Flatten {
	return &Flatten{}
}

func (f *Flatten) Params() []*Param { return nil }

func (f *Flatten) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if x.Rank() < 2 {
		return nil, fmt.Errorf("flatten: want rank >= 2, got %v", x.Shape())
	}
	f.inDims = x.Shape()
	return x.Reshape(x.Dim(0), x.Len()/x.Dim(0))
}

func (f *Flatten) Backward(grad *tensor.Tensor) (*tensor.Tensor, error) {
	if f.inDims == nil {
		return nil, fmt.Errorf("flatten: backward before forward")
	}
	return grad.Reshape(f.inDims...)
}
