// Package gan defines the conditional generator and discriminator used for
// precipitation downscaling: 4x4 radar fields conditioned with Gaussian noise
// are upscaled to 32x32 fields, and the discriminator scores (low-res,
// high-res) pairs with a single raw logit.
package gan

import (
	"fmt"
	"math/rand"

	"rainscale/internal/nn"
	"rainscale/internal/tensor"
)

const (
	// Spatial geometry of the sample pairs.
	LowResSize  = 4
	HighResSize = 32
	// UpscaleFactor is the block-average factor between the two resolutions.
	UpscaleFactor = HighResSize / LowResSize

	FieldChannels = 1
	NoiseChannels = 8
)

// Generator maps a (low-res, noise) pair to a high-res field. Noise and
// conditioning are stacked on the channel axis and pushed through three
// upsample+conv stages (4 -> 8 -> 16 -> 32).
type Generator struct {
	net *nn.Sequential
}

func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{
		net: nn.NewSequential(
			nn.NewConv2D("gen.in", FieldChannels+NoiseChannels, 64, 3, rng),
			nn.NewLeakyReLU(0.2),
			nn.NewUpSampling2D(2),
			nn.NewConv2D("gen.up8", 64, 64, 3, rng),
			nn.NewLeakyReLU(0.2),
			nn.NewUpSampling2D(2),
			nn.NewConv2D("gen.up16", 64, 32, 3, rng),
			nn.NewLeakyReLU(0.2),
			nn.NewUpSampling2D(2),
			nn.NewConv2D("gen.up32", 32, 16, 3, rng),
			nn.NewLeakyReLU(0.2),
			nn.NewConv2D("gen.out", 16, FieldChannels, 3, rng),
		),
	}
}

// Generate runs a forward pass. lowRes is [B,4,4,1], noise is [B,4,4,8]; the
// result is [B,32,32,1].
func (g *Generator) Generate(lowRes, noise *tensor.Tensor) (*tensor.Tensor, error) {
	joined, err := tensor.ConcatChannels(lowRes, noise)
	if err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}
	out, err := g.net.Forward(joined)
	if err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}
	return out, nil
}

// Backward accumulates parameter gradients from the gradient of the generated
// field. The gradient with respect to the conditioning input is discarded.
func (g *Generator) Backward(grad *tensor.Tensor) error {
	if _, err := g.net.Backward(grad); err != nil {
		return fmt.Errorf("generator: %w", err)
	}
	return nil
}

func (g *Generator) Params() []*nn.Param {
	return g.net.Params()
}
