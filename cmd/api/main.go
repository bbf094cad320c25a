package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/dailyerosion/depbackend/internal/adapters/filesystem"
	"github.com/dailyerosion/depbackend/internal/adapters/http"
	natsadapter "github.com/dailyerosion/depbackend/internal/adapters/nats"
	"github.com/dailyerosion/depbackend/internal/adapters/postgres"
	"github.com/dailyerosion/depbackend/internal/adapters/valkey"
	"github.com/dailyerosion/depbackend/internal/core/domain"
	"github.com/dailyerosion/depbackend/internal/core/ports"
	"github.com/dailyerosion/depbackend/internal/core/usecases"
	"github.com/dailyerosion/depbackend/internal/pkg/config"
	"github.com/dailyerosion/depbackend/internal/pkg/export"
	"github.com/dailyerosion/depbackend/internal/pkg/logging"
	"github.com/dailyerosion/depbackend/internal/pkg/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load("dep-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr, cfg.Telemetry.SampleRatio)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolStats(ctx, 15*time.Second)

	// Cache
	var cache ports.CacheService
	var cachePinger http.Pinger
	if cfg.Valkey.Addr != "" {
		vc, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable, caching disabled", "error", err)
		} else {
			defer vc.Close()
			cache, cachePinger = vc, vc
		}
	}

	// NATS
	var events ports.EventPublisher
	var natsPinger http.Pinger
	if cfg.NATS.URL != "" {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, audit events disabled", "error", err)
		} else {
			defer pub.Close()
			events, natsPinger = pub, pub
		}
	}

	// Repos
	climateRepo := postgres.NewClimateRepo(db)
	huc12Repo := postgres.NewHUC12Repo(db)
	metaRepo := postgres.NewMetadataRepo(db)

	store := filesystem.New(cfg.Climate.Root, cfg.Climate.Scenario)

	var locator ports.ClimateLocator
	switch cfg.Climate.Locator {
	case usecases.LocatorSpiral:
		locator = usecases.NewSpiralLocator(store, cfg.Climate.Resolution, cfg.Climate.Window)
	default:
		locator = usecases.NewCatalogLocator(climateRepo, cfg.Climate.Scenario, cfg.Climate.SearchDegrees)
	}
	slog.Info("climate locator ready", "locator", locator.Name(), "root", cfg.Climate.Root, "scenario", cfg.Climate.Scenario)

	prj, fromFile, err := export.LoadPRJ(cfg.Data.PRJFile)
	if err != nil {
		log.Fatalf("prj: %v", err)
	}
	if !fromFile {
		slog.Warn("prj file missing, using built-in EPSG:5070", "path", cfg.Data.PRJFile)
	}

	// Use cases
	bounds := domain.Bounds{
		MinLon: cfg.Climate.West,
		MinLat: cfg.Climate.South,
		MaxLon: cfg.Climate.East,
		MaxLat: cfg.Climate.North,
	}
	ttl := usecases.CacheTTLs{
		HUC12Data:   cfg.Cache.HUC12DataTTL,
		HUC12Geo:    cfg.Cache.HUC12GeoTTL,
		HUC12Static: cfg.Cache.HUC12StaticTTL,
		Events:      cfg.Cache.EventsTTL,
	}
	climateSvc := usecases.NewClimateService(locator, store, climateRepo, events, bounds, cfg.Climate.Scenario)
	huc12Svc := usecases.NewHUC12Service(huc12Repo, metaRepo, cache, ttl)
	exportSvc := usecases.NewExportService(huc12Svc, huc12Repo, store, prj)
	metaSvc := usecases.NewMetadataService(metaRepo)

	deps := &http.Dependencies{
		Climate:        climateSvc,
		HUC12:          huc12Svc,
		Exports:        exportSvc,
		Meta:           metaSvc,
		DB:             db,
		Cache:          cachePinger,
		NATS:           natsPinger,
		RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
		Version:        version,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024,
		AppName:      "DEP API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "version", version)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
