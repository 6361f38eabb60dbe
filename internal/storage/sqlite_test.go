//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"rainscale/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "rainscale.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteRunAndHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	run := testRun("run-a", "2026-08-30T10:00:00Z")
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run failed: %v", err)
	}
	got, ok, err := store.GetRun(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("get run failed: ok=%v err=%v", ok, err)
	}
	if got.Seed != run.Seed || got.FinalDiscriminatorLoss != run.FinalDiscriminatorLoss {
		t.Fatalf("unexpected run: %+v", got)
	}

	history := []model.EpochLoss{
		{Epoch: 1, Steps: 8, GeneratorLoss: 0.93, DiscriminatorLoss: 0.71, DurationSeconds: 1.5},
		{Epoch: 2, Steps: 8, GeneratorLoss: 0.88, DiscriminatorLoss: 0.69, DurationSeconds: 1.4},
	}
	if err := store.SaveLossHistory(ctx, "run-a", history); err != nil {
		t.Fatalf("save history failed: %v", err)
	}
	gotHistory, ok, err := store.GetLossHistory(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("get history failed: ok=%v err=%v", ok, err)
	}
	if len(gotHistory) != 2 || gotHistory[1].GeneratorLoss != 0.88 {
		t.Fatalf("unexpected history: %+v", gotHistory)
	}
}

func TestSQLiteCheckpointLatestEpochWins(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	for _, epoch := range []int{1, 4, 2} {
		checkpoint := model.Checkpoint{
			VersionedRecord: Stamp(),
			RunID:           "run-a",
			Epoch:           epoch,
			Generator:       map[string][]float64{"gen.w": {float64(epoch)}},
			Discriminator:   map[string][]float64{"disc.w": {float64(-epoch)}},
		}
		if err := store.SaveCheckpoint(ctx, checkpoint); err != nil {
			t.Fatalf("save checkpoint failed: %v", err)
		}
	}

	got, ok, err := store.GetCheckpoint(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("get checkpoint failed: ok=%v err=%v", ok, err)
	}
	if got.Epoch != 4 || got.Generator["gen.w"][0] != 4 {
		t.Fatalf("expected epoch 4 checkpoint, got %+v", got)
	}

	if _, ok, _ := store.GetCheckpoint(ctx, "missing"); ok {
		t.Fatal("missing checkpoint must report ok=false")
	}
}

func TestSQLiteUninitializedStoreErrors(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "rainscale.db"))
	if _, _, err := store.GetRun(context.Background(), "run-a"); err == nil {
		t.Fatal("expected uninitialized store error")
	}
}
