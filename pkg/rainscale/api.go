// Package rainscale is the embedding surface for the downscaling trainer: it
// wires synthetic data, the adversarial networks, the alternating trainer,
// and the checkpoint store behind a single client.
package rainscale

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"rainscale/internal/dataset"
	"rainscale/internal/gan"
	"rainscale/internal/model"
	"rainscale/internal/nn"
	"rainscale/internal/observability"
	"rainscale/internal/optim"
	"rainscale/internal/storage"
	"rainscale/internal/train"
)

const defaultDBPath = "rainscale.db"

type Options struct {
	StoreKind string
	DBPath    string
	Logger    *slog.Logger
	Metrics   *observability.Metrics
	Clock     clockwork.Clock
}

type Client struct {
	store   storage.Store
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock

	// Serializes inference so concurrent HTTP requests draw noise from the
	// shared RNG one at a time.
	inferMu  sync.Mutex
	inferRNG *rand.Rand
}

type TrainRequest struct {
	Epochs          int
	BatchSize       int
	Samples         int
	Seed            int64
	LearningRate    float64
	CheckpointEvery int
}

type TrainSummary struct {
	RunID                  string
	Epochs                 []model.EpochLoss
	FinalGeneratorLoss     float64
	FinalDiscriminatorLoss float64
}

type RunItem struct {
	RunID                  string
	CreatedAtUTC           string
	Seed                   int64
	Epochs                 int
	BatchSize              int
	Samples                int
	LearningRate           float64
	FinalGeneratorLoss     float64
	FinalDiscriminatorLoss float64
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = "memory"
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.NewMetricsForTesting()
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(context.Background()); err != nil {
		return nil, err
	}

	return &Client{
		store:    store,
		logger:   logger,
		metrics:  metrics,
		clock:    clock,
		inferRNG: rand.New(rand.NewSource(1)),
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Train runs one full adversarial training run on synthetic radar fields and
// persists the run record, its loss history, and the final checkpoint.
func (c *Client) Train(ctx context.Context, req TrainRequest) (TrainSummary, error) {
	if req.Epochs <= 0 {
		req.Epochs = 10
	}
	if req.BatchSize <= 0 {
		req.BatchSize = 8
	}
	if req.Samples <= 0 {
		req.Samples = 64
	}
	if req.LearningRate <= 0 {
		req.LearningRate = 2e-4
	}
	if req.CheckpointEvery <= 0 {
		req.CheckpointEvery = 1
	}

	rng := rand.New(rand.NewSource(req.Seed))
	fields, err := dataset.GenerateFields(rng, req.Samples, dataset.DefaultSyntheticConfig(gan.HighResSize))
	if err != nil {
		return TrainSummary{}, err
	}
	ds, err := dataset.FromHighRes(fields, gan.UpscaleFactor)
	if err != nil {
		return TrainSummary{}, err
	}

	generator := gan.NewGenerator(rng)
	discriminator := gan.NewDiscriminator(rng)
	trainer := train.NewTrainer(
		generator,
		discriminator,
		optim.NewAdam(req.LearningRate),
		optim.NewAdam(req.LearningRate),
		train.Config{Seed: req.Seed},
	)

	runID := uuid.NewString()
	history := make([]model.EpochLoss, 0, req.Epochs)

	driver := &train.Driver{
		Trainer: trainer,
		Dataset: ds,
		Logger:  c.logger.With("run_id", runID),
		Clock:   c.clock,
		Hooks: train.Hooks{
			OnStep: func(res train.StepResult) {
				c.metrics.TrainSteps.WithLabelValues(res.Turn.String()).Inc()
				c.metrics.GeneratorLoss.Set(res.GeneratorLoss)
				c.metrics.DiscriminatorLoss.Set(res.DiscriminatorLoss)
			},
			OnEpochEnd: func(ctx context.Context, summary train.EpochSummary) error {
				c.metrics.EpochDuration.Observe(summary.Duration.Seconds())
				history = append(history, model.EpochLoss{
					Epoch:             summary.Epoch,
					Steps:             summary.Steps,
					GeneratorLoss:     summary.GeneratorLoss,
					DiscriminatorLoss: summary.DiscriminatorLoss,
					DurationSeconds:   summary.Duration.Seconds(),
				})
				if summary.Epoch%req.CheckpointEvery != 0 && summary.Epoch != req.Epochs {
					return nil
				}
				return c.store.SaveCheckpoint(ctx, model.Checkpoint{
					VersionedRecord: storage.Stamp(),
					RunID:           runID,
					Epoch:           summary.Epoch,
					Generator:       nn.Snapshot(generator.Params()),
					Discriminator:   nn.Snapshot(discriminator.Params()),
				})
			},
		},
	}

	c.metrics.TrainingRunning.Set(1)
	defer c.metrics.TrainingRunning.Set(0)

	if _, err := driver.Fit(ctx, train.FitConfig{
		Epochs:      req.Epochs,
		BatchSize:   req.BatchSize,
		ShuffleSeed: req.Seed,
	}); err != nil {
		return TrainSummary{}, err
	}

	genLoss, discLoss := trainer.Losses()
	run := model.TrainingRun{
		VersionedRecord:        storage.Stamp(),
		ID:                     runID,
		CreatedAtUTC:           c.clock.Now().UTC().Format(time.RFC3339Nano),
		Seed:                   req.Seed,
		Epochs:                 req.Epochs,
		BatchSize:              req.BatchSize,
		Samples:                req.Samples,
		LearningRate:           req.LearningRate,
		FinalGeneratorLoss:     genLoss,
		FinalDiscriminatorLoss: discLoss,
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return TrainSummary{}, err
	}
	if err := c.store.SaveLossHistory(ctx, runID, history); err != nil {
		return TrainSummary{}, err
	}

	return TrainSummary{
		RunID:                  runID,
		Epochs:                 history,
		FinalGeneratorLoss:     genLoss,
		FinalDiscriminatorLoss: discLoss,
	}, nil
}

// Runs lists stored runs, most recent first.
func (c *Client) Runs(ctx context.Context) ([]RunItem, error) {
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RunItem, 0, len(runs))
	for _, r := range runs {
		out = append(out, RunItem{
			RunID:                  r.ID,
			CreatedAtUTC:           r.CreatedAtUTC,
			Seed:                   r.Seed,
			Epochs:                 r.Epochs,
			BatchSize:              r.BatchSize,
			Samples:                r.Samples,
			LearningRate:           r.LearningRate,
			FinalGeneratorLoss:     r.FinalGeneratorLoss,
			FinalDiscriminatorLoss: r.FinalDiscriminatorLoss,
		})
	}
	return out, nil
}

// Losses returns a run's per-epoch loss history. An empty runID selects the
// most recent run.
func (c *Client) Losses(ctx context.Context, runID string) ([]model.EpochLoss, error) {
	runID, err := c.resolveRunID(ctx, runID)
	if err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetLossHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("loss history not found for run id: %s", runID)
	}
	return history, nil
}

// Generate loads a run's checkpointed generator and upscales one low-res
// field. The input is a 4x4 grid of rain rates in mm/h; the output is the
// 32x32 grid in the same units. An empty runID selects the most recent run.
func (c *Client) Generate(ctx context.Context, runID string, lowRes [][]float64) ([][]float64, error) {
	runID, err := c.resolveRunID(ctx, runID)
	if err != nil {
		return nil, err
	}
	checkpoint, ok, err := c.store.GetCheckpoint(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("checkpoint not found for run id: %s", runID)
	}

	if len(lowRes) != gan.LowResSize {
		return nil, fmt.Errorf("low-res field must be %dx%d, got %d rows", gan.LowResSize, gan.LowResSize, len(lowRes))
	}
	input := tensorFromGrid(lowRes)
	if input == nil {
		return nil, fmt.Errorf("low-res field must be %dx%d", gan.LowResSize, gan.LowResSize)
	}

	generator := gan.NewGenerator(rand.New(rand.NewSource(0)))
	if err := nn.Restore(generator.Params(), checkpoint.Generator); err != nil {
		return nil, fmt.Errorf("restore checkpoint for run %s: %w", runID, err)
	}

	c.inferMu.Lock()
	noise := drawInferenceNoise(c.inferRNG)
	c.inferMu.Unlock()

	field, err := generator.Generate(dataset.Log1p(input), noise)
	if err != nil {
		return nil, err
	}
	return gridFromTensor(dataset.Expm1(field)), nil
}

func (c *Client) resolveRunID(ctx context.Context, runID string) (string, error) {
	if runID != "" {
		return runID, nil
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", errors.New("no runs available")
	}
	return runs[0].ID, nil
}
