package nn

import (
	"fmt"
	"math"
	"math/rand"

	"rainscale/internal/tensor"
)

// Conv2D is a stride-1, same-padded 2D convolution over NHWC input.
// Weights are laid out [outC][k][k][inC] so the innermost channel run is
// contiguous with the input and the inner loops reduce to dot products.
type Conv2D struct {
	inChannels  int
	outChannels int
	kernel      int

	weights *Param
	bias    *Param

	input *tensor.Tensor
}

// NewConv2D builds a convolution layer with He-initialized weights.
func NewConv2D(name string, inChannels, outChannels, kernel int, rng *rand.Rand) *Conv2D {
	c := &Conv2D{
		inChannels:  inChannels,
		outChannels: outChannels,
		kernel:      kernel,
		weights:     newParam(name+".weights", outChannels*kernel*kernel*inChannels),
		bias:        newParam(name+".bias", outChannels),
	}
	scale := math.Sqrt(2.0 / float64(kernel*kernel*inChannels))
	for i := range c.weights.Value {
		c.weights.Value[i] = rng.NormFloat64() * scale
	}
	return c
}

func (c *Conv2D) Params() []*Param {
	return []*Param{c.weights, c.bias}
}

func (c *Conv2D) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if x.Rank() != 4 || x.Dim(3) != c.inChannels {
		return nil, fmt.Errorf("conv2d: want rank-4 input with %d channels, got %v", c.inChannels, x.Shape())
	}
	c.input = x

	n, h, w := x.Dim(0), x.Dim(1), x.Dim(2)
	pad := c.kernel / 2
	out := tensor.New(n, h, w, c.outChannels)
	in := x.Data()
	dst := out.Data()
	kw := c.kernel * c.kernel * c.inChannels

	for b := 0; b < n; b++ {
		for y := 0; y < h; y++ {
			for px := 0; px < w; px++ {
				for oc := 0; oc < c.outChannels; oc++ {
					sum := c.bias.Value[oc]
					for ky := 0; ky < c.kernel; ky++ {
						iy := y + ky - pad
						if iy < 0 || iy >= h {
							continue
						}
						for kx := 0; kx < c.kernel; kx++ {
							ix := px + kx - pad
							if ix < 0 || ix >= w {
								continue
							}
							wOff := oc*kw + (ky*c.kernel+kx)*c.inChannels
							iOff := ((b*h+iy)*w + ix) * c.inChannels
							sum += tensor.Dot(c.weights.Value[wOff:wOff+c.inChannels], in[iOff:iOff+c.inChannels])
						}
					}
					dst[((b*h+y)*w+px)*c.outChannels+oc] = sum
				}
			}
		}
	}
	return out, nil
}

func (c *Conv2D) Backward(grad *tensor.Tensor) (*tensor.Tensor, error) {
	if c.input == nil {
		return nil, fmt.Errorf("conv2d: backward before forward")
	}
	if grad.Rank() != 4 || grad.Dim(3) != c.outChannels {
		return nil, fmt.Errorf("conv2d: want rank-4 gradient with %d channels, got %v", c.outChannels, grad.Shape())
	}

	x := c.input
	n, h, w := x.Dim(0), x.Dim(1), x.Dim(2)
	pad := c.kernel / 2
	dx := tensor.New(n, h, w, c.inChannels)
	in := x.Data()
	din := dx.Data()
	g := grad.Data()
	kw := c.kernel * c.kernel * c.inChannels

	for b := 0; b < n; b++ {
		for y := 0; y < h; y++ {
			for px := 0; px < w; px++ {
				for oc := 0; oc < c.outChannels; oc++ {
					gv := g[((b*h+y)*w+px)*c.outChannels+oc]
					if gv == 0 {
						continue
					}
					c.bias.Grad[oc] += gv
					for ky := 0; ky < c.kernel; ky++ {
						iy := y + ky - pad
						if iy < 0 || iy >= h {
							continue
						}
						for kx := 0; kx < c.kernel; kx++ {
							ix := px + kx - pad
							if ix < 0 || ix >= w {
								continue
							}
							wOff := oc*kw + (ky*c.kernel+kx)*c.inChannels
							iOff := ((b*h+iy)*w + ix) * c.inChannels
							tensor.Axpy(gv, in[iOff:iOff+c.inChannels], c.weights.Grad[wOff:wOff+c.inChannels])
							tensor.Axpy(gv, c.weights.Value[wOff:wOff+c.inChannels], din[iOff:iOff+c.inChannels])
						}
					}
				}
			}
		}
	}
	return dx, nil
}
