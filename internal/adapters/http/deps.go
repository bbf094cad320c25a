package http

import (
	"context"
	"time"

	"github.com/dailyerosion/depbackend/internal/core/usecases"
)

// Pinger is a backend the readiness check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Climate *usecases.ClimateService
	HUC12   *usecases.HUC12Service
	Exports *usecases.ExportService
	Meta    *usecases.MetadataService

	// Optional backends, nil when not configured.
	DB    Pinger
	Cache Pinger
	NATS  Pinger

	RequestTimeout time.Duration
	Version        string
}
