// Command clicatalog registers the climate files found on disk in the
// climate_files table used by the catalog locator.
//
//	clicatalog [scenario]
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dailyerosion/depbackend/internal/adapters/filesystem"
	"github.com/dailyerosion/depbackend/internal/adapters/postgres"
	"github.com/dailyerosion/depbackend/internal/core/domain"
	"github.com/dailyerosion/depbackend/internal/core/ports"
	"github.com/dailyerosion/depbackend/internal/pkg/config"
	"github.com/dailyerosion/depbackend/internal/pkg/logging"
)

const batchSize = 1000

func main() {
	cfg, err := config.Load("dep-clicatalog")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	scenario := cfg.Climate.Scenario
	if len(os.Args) > 1 {
		scenario, err = strconv.Atoi(os.Args[1])
		if err != nil || scenario < 0 {
			log.Fatalf("invalid scenario %q", os.Args[1])
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	store := filesystem.New(cfg.Climate.Root, scenario)
	start := time.Now()
	n, err := register(ctx, store, postgres.NewClimateRepo(db))
	if err != nil {
		slog.Error("catalog load failed", "scenario", scenario, "registered", n, "error", err)
		os.Exit(1)
	}
	slog.Info("catalog load complete", "scenario", scenario, "registered", n, "elapsed", time.Since(start).String())
}

// walker lists the climate files of a scenario.
type walker interface {
	WalkClimateFiles(ctx context.Context, fn func(domain.ClimateFile) error) error
}

// register upserts every climate file below the store in batches and
// returns how many were written.
func register(ctx context.Context, files walker, catalog ports.ClimateCatalogRepository) (int, error) {
	batch := make([]domain.ClimateFile, 0, batchSize)
	total := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := catalog.UpsertBatch(ctx, batch); err != nil {
			return err
		}
		total += len(batch)
		slog.Debug("catalog batch written", "size", len(batch), "total", total)
		batch = batch[:0]
		return nil
	}

	err := files.WalkClimateFiles(ctx, func(f domain.ClimateFile) error {
		batch = append(batch, f)
		if len(batch) == batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return total, err
	}
	return total, flush()
}
