package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunRequiresCommand(t *testing.T) {
	err := run(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "usage:") {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	err := run(context.Background(), []string{"bogus"})
	if err == nil || !strings.Contains(err.Error(), "unknown command: bogus") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestTrainCommand(t *testing.T) {
	args := []string{"train", "-epochs", "1", "-batch-size", "2", "-samples", "4", "-seed", "3"}
	if err := run(context.Background(), args); err != nil {
		t.Fatalf("train: %v", err)
	}
}

func TestRunsCommandEmptyStore(t *testing.T) {
	if err := run(context.Background(), []string{"runs"}); err != nil {
		t.Fatalf("runs: %v", err)
	}
}

func TestReadGridFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.json")
	if err := os.WriteFile(path, []byte(`[[1,2],[3,4]]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	grid, err := readGrid(path)
	if err != nil {
		t.Fatalf("readGrid: %v", err)
	}
	if len(grid) != 2 || grid[1][0] != 3 {
		t.Fatalf("unexpected grid: %v", grid)
	}

	if _, err := readGrid(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestHumanizeUTCFallback(t *testing.T) {
	if got := humanizeUTC("not-a-timestamp"); got != "not-a-timestamp" {
		t.Fatalf("expected raw string back, got %q", got)
	}
}
