package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"rainscale/internal/config"
	"rainscale/internal/hostinfo"
	"rainscale/internal/observability"
	"rainscale/internal/server"
	rainapi "rainscale/pkg/rainscale"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "train":
		return runTrain(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "losses":
		return runLosses(ctx, args[1:])
	case "generate":
		return runGenerate(ctx, args[1:])
	case "serve":
		return runServe(ctx, args[1:])
	case "info":
		return runInfo(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runTrain(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	storeKind := fs.String("store", "memory", "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "rainscale.db", "sqlite database path")
	epochs := fs.Int("epochs", 10, "training epochs")
	batchSize := fs.Int("batch-size", 8, "samples per training step")
	samples := fs.Int("samples", 64, "synthetic sample pairs to generate")
	seed := fs.Int64("seed", 0, "seed for data, weights, and noise")
	learningRate := fs.Float64("lr", 2e-4, "Adam learning rate for both networks")
	checkpointEvery := fs.Int("checkpoint-every", 1, "epochs between checkpoints")
	jsonOut := fs.Bool("json", false, "emit the run summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := rainapi.New(rainapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Train(ctx, rainapi.TrainRequest{
		Epochs:          *epochs,
		BatchSize:       *batchSize,
		Samples:         *samples,
		Seed:            *seed,
		LearningRate:    *learningRate,
		CheckpointEvery: *checkpointEvery,
	})
	if err != nil {
		return err
	}

	if *jsonOut {
		return writeJSON(os.Stdout, summary)
	}
	fmt.Printf("run %s complete\n", summary.RunID)
	for _, e := range summary.Epochs {
		fmt.Printf("epoch %d: steps=%d g_loss=%.4f d_loss=%.4f (%.2fs)\n",
			e.Epoch, e.Steps, e.GeneratorLoss, e.DiscriminatorLoss, e.DurationSeconds)
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	storeKind := fs.String("store", "memory", "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "rainscale.db", "sqlite database path")
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := rainapi.New(rainapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	if len(runs) > *limit {
		runs = runs[:*limit]
	}

	if *jsonOut {
		return writeJSON(os.Stdout, runs)
	}
	for _, r := range runs {
		fmt.Printf("%s  %s  seed=%d epochs=%d batch=%d samples=%s g_loss=%.4f d_loss=%.4f\n",
			r.RunID,
			humanizeUTC(r.CreatedAtUTC),
			r.Seed, r.Epochs, r.BatchSize,
			humanize.Comma(int64(r.Samples)),
			r.FinalGeneratorLoss, r.FinalDiscriminatorLoss,
		)
	}
	return nil
}

func runLosses(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("losses", flag.ContinueOnError)
	storeKind := fs.String("store", "memory", "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "rainscale.db", "sqlite database path")
	runID := fs.String("run", "", "run id (empty selects the most recent run)")
	jsonOut := fs.Bool("json", false, "emit loss history as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := rainapi.New(rainapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.Losses(ctx, *runID)
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(os.Stdout, history)
	}
	for _, e := range history {
		fmt.Printf("epoch %d: steps=%d g_loss=%.4f d_loss=%.4f (%.2fs)\n",
			e.Epoch, e.Steps, e.GeneratorLoss, e.DiscriminatorLoss, e.DurationSeconds)
	}
	return nil
}

func runGenerate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	storeKind := fs.String("store", "memory", "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "rainscale.db", "sqlite database path")
	runID := fs.String("run", "", "run id (empty selects the most recent run)")
	input := fs.String("input", "-", "path to a JSON 4x4 rain-rate grid, or - for stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}

	grid, err := readGrid(*input)
	if err != nil {
		return err
	}

	client, err := rainapi.New(rainapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	highRes, err := client.Generate(ctx, *runID, grid)
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, highRes)
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)
	metrics := observability.NewMetrics()

	client, err := rainapi.New(rainapi.Options{
		StoreKind: cfg.StoreBackend,
		DBPath:    cfg.DBPath,
		Logger:    logger,
		Metrics:   metrics,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	srv := server.New(cfg.HTTPAddr, client, metrics, logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runInfo(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "emit host info as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	info := hostinfo.Collect()
	if *jsonOut {
		return writeJSON(os.Stdout, info)
	}
	fmt.Printf("cpu: %s\n", info.CPUBrand)
	fmt.Printf("cores: %d physical, %d logical\n", info.PhysicalCores, info.LogicalCores)
	fmt.Printf("avx2: %t fma3: %t\n", info.AVX2, info.FMA3)
	if info.RSSBytes > 0 {
		fmt.Printf("rss: %s\n", humanize.Bytes(info.RSSBytes))
	}
	return nil
}

func readGrid(path string) ([][]float64, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var grid [][]float64
	if err := json.Unmarshal(raw, &grid); err != nil {
		return nil, fmt.Errorf("parse grid: %w", err)
	}
	return grid, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// humanizeUTC renders a stored RFC3339 timestamp as a relative time, falling
// back to the raw string when it does not parse.
func humanizeUTC(s string) string {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return s
	}
	return humanize.Time(t)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: rainscalectl <train|runs|losses|generate|serve|info> [flags]", msg)
}
