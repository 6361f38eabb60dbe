package train

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"rainscale/internal/dataset"
	"rainscale/internal/optim"
)

func fitDataset(t *testing.T, samples int) *dataset.Dataset {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	fields, err := dataset.GenerateFields(rng, samples, dataset.DefaultSyntheticConfig(8))
	if err != nil {
		t.Fatalf("generate fields failed: %v", err)
	}
	ds, err := dataset.FromHighRes(fields, 2)
	if err != nil {
		t.Fatalf("build dataset failed: %v", err)
	}
	return ds
}

func fitTrainer() *Trainer {
	return NewTrainer(newStubGenerator(), newStubDiscriminator(),
		optim.NewSGD(0.1), optim.NewSGD(0.1), Config{Seed: 2})
}

func TestFitRunsEpochsAndSummarizes(t *testing.T) {
	clock := clockwork.NewFakeClock()
	driver := &Driver{
		Trainer: fitTrainer(),
		Dataset: fitDataset(t, 6),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:   clock,
	}

	stepEvents := 0
	driver.Hooks.OnStep = func(StepResult) { stepEvents++ }

	summaries, err := driver.Fit(context.Background(), FitConfig{Epochs: 3, BatchSize: 2, ShuffleSeed: 9})
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("expected 3 epoch summaries, got %d", len(summaries))
	}
	for i, s := range summaries {
		if s.Epoch != i+1 || s.Steps != 3 {
			t.Fatalf("unexpected summary %+v", s)
		}
	}
	if stepEvents != 9 {
		t.Fatalf("expected 9 step events, got %d", stepEvents)
	}
	if driver.Trainer.Step() != 9 {
		t.Fatalf("trainer must have advanced 9 steps, got %d", driver.Trainer.Step())
	}
	// After 9 alternating steps both trackers are populated.
	genLoss, discLoss := driver.Trainer.Losses()
	if genLoss == 0 || discLoss == 0 {
		t.Fatalf("expected populated trackers, got %g/%g", genLoss, discLoss)
	}
}

func TestFitEpochEndHookAborts(t *testing.T) {
	driver := &Driver{
		Trainer: fitTrainer(),
		Dataset: fitDataset(t, 4),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:   clockwork.NewFakeClock(),
	}
	boom := errors.New("checkpoint sink full")
	driver.Hooks.OnEpochEnd = func(context.Context, EpochSummary) error { return boom }

	summaries, err := driver.Fit(context.Background(), FitConfig{Epochs: 5, BatchSize: 2})
	if !errors.Is(err, boom) {
		t.Fatalf("expected hook error, got %v", err)
	}
	if len(summaries) != 0 {
		t.Fatalf("aborted first epoch must not be summarized, got %d", len(summaries))
	}
}

func TestFitHonorsCancellation(t *testing.T) {
	driver := &Driver{
		Trainer: fitTrainer(),
		Dataset: fitDataset(t, 4),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:   clockwork.NewFakeClock(),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := driver.Fit(ctx, FitConfig{Epochs: 2, BatchSize: 2})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestFitRejectsNonPositiveEpochs(t *testing.T) {
	driver := &Driver{Trainer: fitTrainer(), Dataset: fitDataset(t, 2)}
	if _, err := driver.Fit(context.Background(), FitConfig{Epochs: 0, BatchSize: 2}); err == nil {
		t.Fatal("expected epochs validation error")
	}
}

func TestFitDurationUsesInjectedClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	trainer := fitTrainer()
	driver := &Driver{
		Trainer: trainer,
		Dataset: fitDataset(t, 2),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:   clock,
	}
	driver.Hooks.OnStep = func(StepResult) { clock.Advance(250 * time.Millisecond) }

	summaries, err := driver.Fit(context.Background(), FitConfig{Epochs: 1, BatchSize: 1})
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if summaries[0].Duration != 500*time.Millisecond {
		t.Fatalf("expected 500ms epoch, got %s", summaries[0].Duration)
	}
}
