// Package train holds the alternating adversarial trainer: one gradient
// update per call, alternating strictly between the discriminator and the
// generator, with running mean loss bookkeeping for both.
package train

import (
	"fmt"
	"math/rand"

	"rainscale/internal/nn"
	"rainscale/internal/optim"
	"rainscale/internal/tensor"
)

// Generator is the forward/backward surface the trainer needs from a
// generator network. Generate must not mutate parameters.
type Generator interface {
	Generate(lowRes, noise *tensor.Tensor) (*tensor.Tensor, error)
	Backward(grad *tensor.Tensor) error
	Params() []*nn.Param
}

// Discriminator scores (low-res, high-res) pairs with one raw logit per
// sample. Backward returns the gradient with respect to the high-res input so
// generator updates can chain through it.
type Discriminator interface {
	Score(lowRes, highRes *tensor.Tensor) (*tensor.Tensor, error)
	Backward(grad *tensor.Tensor) (*tensor.Tensor, error)
	Params() []*nn.Param
}

// Batch is one aligned pair of conditioning and target tensors, leading
// dimension B >= 1. The trainer assumes well-formed input; shape validation
// belongs to the caller.
type Batch struct {
	LowRes  *tensor.Tensor
	HighRes *tensor.Tensor
}

// StepResult reports both running means after a step. The tracker whose turn
// it was not carries its previous value.
type StepResult struct {
	Turn              Turn
	Step              uint64
	GeneratorLoss     float64
	DiscriminatorLoss float64
}

// NoiseShape is the per-sample geometry of the latent draw.
type NoiseShape struct {
	Height   int
	Width    int
	Channels int
}

// Config wires a Trainer. Seed drives the noise RNG only.
type Config struct {
	Noise NoiseShape
	Seed  int64
}

type Trainer struct {
	generator        Generator
	discriminator    Discriminator
	generatorOpt     optim.Optimizer
	discriminatorOpt optim.Optimizer

	noise NoiseShape
	rng   *rand.Rand

	step              uint64
	generatorLoss     MeanTracker
	discriminatorLoss MeanTracker
}

func NewTrainer(gen Generator, disc Discriminator, genOpt, discOpt optim.Optimizer, cfg Config) *Trainer {
	noise := cfg.Noise
	if noise.Height == 0 && noise.Width == 0 && noise.Channels == 0 {
		noise = NoiseShape{Height: 4, Width: 4, Channels: 8}
	}
	return &Trainer{
		generator:        gen,
		discriminator:    disc,
		generatorOpt:     genOpt,
		discriminatorOpt: discOpt,
		noise:            noise,
		rng:              rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Step returns the number of completed training steps.
func (t *Trainer) Step() uint64 {
	return t.step
}

// Losses returns the current running means without advancing the trainer.
func (t *Trainer) Losses() (generator, discriminator float64) {
	return t.generatorLoss.Mean(), t.discriminatorLoss.Mean()
}

// TrainStep performs exactly one optimization update, on the network selected
// by the parity of the step counter before it is incremented. Failures from
// the forward, backward, or optimizer calls propagate unmodified and leave
// the counter unchanged.
func (t *Trainer) TrainStep(batch Batch) (StepResult, error) {
	turn := TurnForStep(t.step)

	var err error
	switch turn {
	case DiscriminatorTurn:
		err = t.discriminatorStep(batch)
	case GeneratorTurn:
		err = t.generatorStep(batch)
	}
	if err != nil {
		return StepResult{}, fmt.Errorf("%s step %d: %w", turn, t.step, err)
	}

	t.step++
	return StepResult{
		Turn:              turn,
		Step:              t.step,
		GeneratorLoss:     t.generatorLoss.Mean(),
		DiscriminatorLoss: t.discriminatorLoss.Mean(),
	}, nil
}

// discriminatorStep trains the discriminator on a combined 2B batch of fake
// and real samples. Generated samples carry label 1 and real samples label 0;
// this sign convention is load-bearing and pairs with the all-zero misleading
// labels in generatorStep.
func (t *Trainer) discriminatorStep(batch Batch) error {
	b := batch.LowRes.Dim(0)

	noise := t.drawNoise(b)
	fake, err := t.generator.Generate(batch.LowRes, noise)
	if err != nil {
		return err
	}

	combinedHighRes, err := tensor.ConcatBatch(fake, batch.HighRes)
	if err != nil {
		return err
	}
	combinedLowRes, err := tensor.ConcatBatch(batch.LowRes, batch.LowRes)
	if err != nil {
		return err
	}

	labels := make([]float64, 2*b)
	for i := 0; i < b; i++ {
		labels[i] = 1
	}

	logits, err := t.discriminator.Score(combinedLowRes, combinedHighRes)
	if err != nil {
		return err
	}
	loss, grad, err := nn.BCEWithLogits(logits, labels)
	if err != nil {
		return err
	}

	nn.ZeroGrads(t.discriminator.Params())
	if _, err := t.discriminator.Backward(grad); err != nil {
		return err
	}
	if err := t.discriminatorOpt.Step(t.discriminator.Params()); err != nil {
		return err
	}
	nn.ZeroGrads(t.discriminator.Params())

	t.discriminatorLoss.Update(loss)
	return nil
}

// generatorStep trains the generator to push discriminator scores toward the
// "real" label (0). The discriminator is invoked and back-propagated through,
// but its accumulated gradients are discarded rather than applied.
func (t *Trainer) generatorStep(batch Batch) error {
	b := batch.LowRes.Dim(0)

	noise := t.drawNoise(b)
	fake, err := t.generator.Generate(batch.LowRes, noise)
	if err != nil {
		return err
	}

	misleading := make([]float64, b)

	logits, err := t.discriminator.Score(batch.LowRes, fake)
	if err != nil {
		return err
	}
	loss, grad, err := nn.BCEWithLogits(logits, misleading)
	if err != nil {
		return err
	}

	nn.ZeroGrads(t.generator.Params())
	nn.ZeroGrads(t.discriminator.Params())
	fakeGrad, err := t.discriminator.Backward(grad)
	if err != nil {
		return err
	}
	if err := t.generator.Backward(fakeGrad); err != nil {
		return err
	}
	if err := t.generatorOpt.Step(t.generator.Params()); err != nil {
		return err
	}
	nn.ZeroGrads(t.generator.Params())
	nn.ZeroGrads(t.discriminator.Params())

	t.generatorLoss.Update(loss)
	return nil
}

func (t *Trainer) drawNoise(batch int) *tensor.Tensor {
	return tensor.Normal(t.rng, batch, t.noise.Height, t.noise.Width, t.noise.Channels)
}
