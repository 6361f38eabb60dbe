package dataset

import (
	"math"

	"rainscale/internal/tensor"
)

// Log1p compresses rain-rate dynamics with log(1+x), the standard radar
// preprocessing before training. Returns a new tensor.
func Log1p(t *tensor.Tensor) *tensor.Tensor {
	out := tensor.New(t.Shape()...)
	in := t.Data()
	dst := out.Data()
	for i, v := range in {
		dst[i] = math.Log1p(v)
	}
	return out
}

// Expm1 inverts Log1p, mapping model output back to rain rates. Negative
// inputs are clamped so tiny generator undershoots cannot produce negative
// precipitation.
func Expm1(t *tensor.Tensor) *tensor.Tensor {
	out := tensor.New(t.Shape()...)
	in := t.Data()
	dst := out.Data()
	for i, v := range in {
		r := math.Expm1(v)
		if r < 0 {
			r = 0
		}
		dst[i] = r
	}
	return out
}
