package gan

import (
	"fmt"
	"math/rand"

	"rainscale/internal/nn"
	"rainscale/internal/tensor"
)

const trunkChannels = 64

// Discriminator scores (low-res, high-res) pairs. The high-res field is
// pooled down to the conditioning resolution (32 -> 16 -> 8 -> 4), stacked
// with the low-res field on the channel axis, and projected to one raw logit
// per sample. Losses are evaluated on the logit, never on a probability.
type Discriminator struct {
	trunk *nn.Sequential
	head  *nn.Sequential
}

func NewDiscriminator(rng *rand.Rand) *Discriminator {
	return &Discriminator{
		trunk: nn.NewSequential(
			nn.NewConv2D("disc.hr32", FieldChannels, 16, 3, rng),
			nn.NewLeakyReLU(0.2),
			nn.NewAveragePooling2D(2),
			nn.NewConv2D("disc.hr16", 16, 32, 3, rng),
			nn.NewLeakyReLU(0.2),
			nn.NewAveragePooling2D(2),
			nn.NewConv2D("disc.hr8", 32, trunkChannels, 3, rng),
			nn.NewLeakyReLU(0.2),
			nn.NewAveragePooling2D(2),
		),
		head: nn.NewSequential(
			nn.NewConv2D("disc.joint", trunkChannels+FieldChannels, 64, 3, rng),
			nn.NewLeakyReLU(0.2),
			nn.NewFlatten(),
			nn.NewDense("disc.out", LowResSize*LowResSize*64, 1, rng),
		),
	}
}

// Score returns one logit per sample, shape [B,1].
func (d *Discriminator) Score(lowRes, highRes *tensor.Tensor) (*tensor.Tensor, error) {
	pooled, err := d.trunk.Forward(highRes)
	if err != nil {
		return nil, fmt.Errorf("discriminator: %w", err)
	}
	joined, err := tensor.ConcatChannels(pooled, lowRes)
	if err != nil {
		return nil, fmt.Errorf("discriminator: %w", err)
	}
	logits, err := d.head.Forward(joined)
	if err != nil {
		return nil, fmt.Errorf("discriminator: %w", err)
	}
	return logits, nil
}

// Backward accumulates parameter gradients from the logit gradient and
// returns the gradient with respect to the high-res input, which the
// generator branch chains into Generator.Backward. The gradient with respect
// to the low-res conditioning is discarded.
func (d *Discriminator) Backward(grad *tensor.Tensor) (*tensor.Tensor, error) {
	dJoined, err := d.head.Backward(grad)
	if err != nil {
		return nil, fmt.Errorf("discriminator: %w", err)
	}
	dPooled, _, err := tensor.SplitChannels(dJoined, trunkChannels)
	if err != nil {
		return nil, fmt.Errorf("discriminator: %w", err)
	}
	dHighRes, err := d.trunk.Backward(dPooled)
	if err != nil {
		return nil, fmt.Errorf("discriminator: %w", err)
	}
	return dHighRes, nil
}

func (d *Discriminator) Params() []*nn.Param {
	return append(d.trunk.Params(), d.head.Params()...)
}
