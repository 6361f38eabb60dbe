package nn

import (
	"fmt"
	"math"
	"math/rand"

	"rainscale/internal/tensor"
)

// Dense is a fully connected projection over rank-2 [batch, features] input.
type Dense struct {
	inFeatures  int
	outFeatures int

	weights *Param
	bias    *Param

	input *tensor.Tensor
}

// NewDense builds a dense layer with Glorot-initialized weights, one
// contiguous weight row per output feature.
func NewDense(name string, inFeatures, outFeatures int, rng *rand.Rand) *Dense {
	d := &Dense{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weights:     newParam(name+".weights", outFeatures*inFeatures),
		bias:        newParam(name+".bias", outFeatures),
	}
	scale := math.Sqrt(2.0 / float64(inFeatures+outFeatures))
	for i := range d.weights.Value {
		d.weights.Value[i] = rng.NormFloat64() * scale
	}
	return d
}

func (d *Dense) Params() []*Param {
	return []*Param{d.weights, d.bias}
}

func (d *Dense) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if x.Rank() != 2 || x.Dim(1) != d.inFeatures {
		return nil, fmt.Errorf("dense: want [batch,%d] input, got %v", d.inFeatures, x.Shape())
	}
	d.input = x

	n := x.Dim(0)
	out := tensor.New(n, d.outFeatures)
	in := x.Data()
	dst := out.Data()
	for b := 0; b < n; b++ {
		row := in[b*d.inFeatures : (b+1)*d.inFeatures]
		for o := 0; o < d.outFeatures; o++ {
			dst[b*d.outFeatures+o] = d.bias.Value[o] +
				tensor.Dot(d.weights.Value[o*d.inFeatures:(o+1)*d.inFeatures], row)
		}
	}
	return out, nil
}

func (d *Dense) Backward(grad *tensor.Tensor) (*tensor.Tensor, error) {
	if d.input == nil {
		return nil, fmt.Errorf("dense: backward before forward")
	}
	if grad.Rank() != 2 || grad.Dim(1) != d.outFeatures {
		return nil, fmt.Errorf("dense: want [batch,%d] gradient, got %v", d.outFeatures, grad.Shape())
	}

	n := d.input.Dim(0)
	dx := tensor.New(n, d.inFeatures)
	in := d.input.Data()
	din := dx.Data()
	g := grad.Data()
	for b := 0; b < n; b++ {
		row := in[b*d.inFeatures : (b+1)*d.inFeatures]
		drow := din[b*d.inFeatures : (b+1)*d.inFeatures]
		for o := 0; o < d.outFeatures; o++ {
			gv := g[b*d.outFeatures+o]
			if gv == 0 {
				continue
			}
			d.bias.Grad[o] += gv
			tensor.Axpy(gv, row, d.weights.Grad[o*d.inFeatures:(o+1)*d.inFeatures])
			tensor.Axpy(gv, d.weights.Value[o*d.inFeatures:(o+1)*d.inFeatures], drow)
		}
	}
	return dx, nil
}
