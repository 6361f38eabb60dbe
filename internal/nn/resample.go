package nn

import (
	"fmt"

	"rainscale/internal/tensor"
)

// UpSampling2D repeats each pixel of an NHWC tensor factor×factor times
// (nearest neighbor). Its backward pass sums the gradient over each block.
type UpSampling2D struct {
	factor int
	inDims []int
}

func NewUpSampling2D(factor int) *UpSampling2D {
	return &UpSampling2D{factor: factor}
}

func (u *UpSampling2D) Params() []*Param { return nil }

func (u *UpSampling2D) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if x.Rank() != 4 {
		return nil, fmt.Errorf("upsample: want rank-4 input, got %v", x.Shape())
	}
	u.inDims = x.Shape()

	n, h, w, c := x.Dim(0), x.Dim(1), x.Dim(2), x.Dim(3)
	f := u.factor
	out := tensor.New(n, h*f, w*f, c)
	in := x.Data()
	dst := out.Data()
	for b := 0; b < n; b++ {
		for y := 0; y < h*f; y++ {
			for px := 0; px < w*f; px++ {
				src := ((b*h+y/f)*w + px/f) * c
				copy(dst[((b*h*f+y)*w*f+px)*c:], in[src:src+c])
			}
		}
	}
	return out, nil
}

func (u *UpSampling2D) Backward(grad *tensor.Tensor) (*tensor.Tensor, error) {
	if u.inDims == nil {
		return nil, fmt.Errorf("upsample: backward before forward")
	}
	n, h, w, c := u.inDims[0], u.inDims[1], u.inDims[2], u.inDims[3]
	f := u.factor
	if grad.Rank() != 4 || grad.Dim(1) != h*f || grad.Dim(2) != w*f || grad.Dim(3) != c {
		return nil, fmt.Errorf("upsample: gradient shape %v does not match output", grad.Shape())
	}

	dx := tensor.New(n, h, w, c)
	g := grad.Data()
	din := dx.Data()
	for b := 0; b < n; b++ {
		for y := 0; y < h*f; y++ {
			for px := 0; px < w*f; px++ {
				dst := ((b*h+y/f)*w + px/f) * c
				src := ((b*h*f+y)*w*f + px) * c
				for ch := 0; ch < c; ch++ {
					din[dst+ch] += g[src+ch]
				}
			}
		}
	}
	return dx, nil
}

// AveragePooling2D reduces each pool×pool block to its mean; the backward
// pass spreads the gradient evenly back over the block.
type AveragePooling2D struct {
	pool   int
	inDims []int
}

func NewAveragePooling2D(pool int) *AveragePooling2D {
	return &AveragePooling2D{pool: pool}
}

func (a *AveragePooling2D) Params() []*Param { return nil }

func (a *AveragePooling2D) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	out, err := tensor.BlockAverage(x, a.pool)
	if err != nil {
		return nil, fmt.Errorf("avgpool: %w", err)
	}
	a.inDims = x.Shape()
	return out, nil
}

func (a *AveragePooling2D) Backward(grad *tensor.Tensor) (*tensor.Tensor, error) {
	if a.inDims == nil {
		return nil, fmt.Errorf("avgpool: backward before forward")
	}
	n, h, w, c := a.inDims[0], a.inDims[1], a.inDims[2], a.inDims[3]
	f := a.pool
	if grad.Rank() != 4 || grad.Dim(1) != h/f || grad.Dim(2) != w/f || grad.Dim(3) != c {
		return nil, fmt.Errorf("avgpool: gradient shape %v does not match output", grad.Shape())
	}

	dx := tensor.New(n, h, w, c)
	g := grad.Data()
	din := dx.Data()
	inv := 1.0 / float64(f*f)
	for b := 0; b < n; b++ {
		for y := 0; y < h; y++ {
			for px := 0; px < w; px++ {
				src := ((b*(h/f)+y/f)*(w/f) + px/f) * c
				dst := ((b*h+y)*w + px) * c
				for ch := 0; ch < c; ch++ {
					din[dst+ch] = g[src+ch] * inv
				}
			}
		}
	}
	return dx, nil
}
