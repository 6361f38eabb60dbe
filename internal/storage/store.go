package storage

import (
	"context"

	"rainscale/internal/model"
)

// Store defines persistence operations for training runs, their loss
// histories, and network checkpoints.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.TrainingRun) error
	GetRun(ctx context.Context, id string) (model.TrainingRun, bool, error)
	ListRuns(ctx context.Context) ([]model.TrainingRun, error)
	SaveLossHistory(ctx context.Context, runID string, history []model.EpochLoss) error
	GetLossHistory(ctx context.Context, runID string) ([]model.EpochLoss, bool, error)
	SaveCheckpoint(ctx context.Context, checkpoint model.Checkpoint) error
	GetCheckpoint(ctx context.Context, runID string) (model.Checkpoint, bool, error)
}
