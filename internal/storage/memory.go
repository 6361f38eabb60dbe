package storage

import (
	"context"
	"sort"
	"sync"

	"rainscale/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.TrainingRun
	history     map[string][]model.EpochLoss
	checkpoints map[string]model.Checkpoint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.TrainingRun)
	s.history = make(map[string][]model.EpochLoss)
	s.checkpoints = make(map[string]model.Checkpoint)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.TrainingRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.TrainingRun, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.TrainingRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.TrainingRun, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAtUTC == runs[j].CreatedAtUTC {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].CreatedAtUTC > runs[j].CreatedAtUTC
	})
	return runs, nil
}

func (s *MemoryStore) SaveLossHistory(_ context.Context, runID string, history []model.EpochLoss) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[runID] = append([]model.EpochLoss(nil), history...)
	return nil
}

func (s *MemoryStore) GetLossHistory(_ context.Context, runID string) ([]model.EpochLoss, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.EpochLoss(nil), history...), true, nil
}

func (s *MemoryStore) SaveCheckpoint(_ context.Context, checkpoint model.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Later epochs supersede earlier ones; one checkpoint per run.
	current, ok := s.checkpoints[checkpoint.RunID]
	if !ok || checkpoint.Epoch >= current.Epoch {
		s.checkpoints[checkpoint.RunID] = checkpoint
	}
	return nil
}

func (s *MemoryStore) GetCheckpoint(_ context.Context, runID string) (model.Checkpoint, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	checkpoint, ok := s.checkpoints[runID]
	return checkpoint, ok, nil
}
