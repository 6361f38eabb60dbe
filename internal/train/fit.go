package train

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"

	"rainscale/internal/dataset"
)

// FitConfig drives the outer training loop. ShuffleSeed only affects batch
// order; the trainer owns the noise RNG.
type FitConfig struct {
	Epochs      int
	BatchSize   int
	ShuffleSeed int64
}

// EpochSummary reports the trackers' running means as of the epoch's last
// step, matching what the trainer itself returns.
type EpochSummary struct {
	Epoch             int
	Steps             int
	GeneratorLoss     float64
	DiscriminatorLoss float64
	Duration          time.Duration
}

// Hooks let callers observe progress. OnEpochEnd errors abort the run.
type Hooks struct {
	OnStep     func(StepResult)
	OnEpochEnd func(ctx context.Context, summary EpochSummary) error
}

// Driver feeds shuffled dataset batches to a Trainer, one blocking TrainStep
// per batch, and aggregates per-epoch summaries. Logger and Clock default to
// slog.Default and the real clock when nil.
type Driver struct {
	Trainer *Trainer
	Dataset *dataset.Dataset
	Logger  *slog.Logger
	Clock   clockwork.Clock
	Hooks   Hooks
}

func (d *Driver) Fit(ctx context.Context, cfg FitConfig) ([]EpochSummary, error) {
	if cfg.Epochs <= 0 {
		return nil, fmt.Errorf("fit: epochs must be positive, got %d", cfg.Epochs)
	}

	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := d.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	shuffle := rand.New(rand.NewSource(cfg.ShuffleSeed))

	summaries := make([]EpochSummary, 0, cfg.Epochs)
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		start := clock.Now()
		batches, err := d.Dataset.Batches(shuffle, cfg.BatchSize)
		if err != nil {
			return summaries, fmt.Errorf("fit: epoch %d: %w", epoch, err)
		}

		var last StepResult
		steps := 0
		for _, b := range batches {
			select {
			case <-ctx.Done():
				return summaries, ctx.Err()
			default:
			}

			last, err = d.Trainer.TrainStep(Batch{LowRes: b.LowRes, HighRes: b.HighRes})
			if err != nil {
				return summaries, fmt.Errorf("fit: epoch %d: %w", epoch, err)
			}
			if d.Hooks.OnStep != nil {
				d.Hooks.OnStep(last)
			}
			steps++
		}

		summary := EpochSummary{
			Epoch:             epoch,
			Steps:             steps,
			GeneratorLoss:     last.GeneratorLoss,
			DiscriminatorLoss: last.DiscriminatorLoss,
			Duration:          clock.Since(start),
		}
		logger.Info("epoch complete",
			"epoch", epoch,
			"steps", steps,
			"generator_loss", summary.GeneratorLoss,
			"discriminator_loss", summary.DiscriminatorLoss,
			"duration", summary.Duration,
		)

		if d.Hooks.OnEpochEnd != nil {
			if err := d.Hooks.OnEpochEnd(ctx, summary); err != nil {
				return summaries, fmt.Errorf("fit: epoch %d hook: %w", epoch, err)
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
