package ports

import (
	"context"

	"github.com/dailyerosion/depbackend/internal/core/domain"
)

// ClimateLocator finds the climate file to serve for a point.
// ok is false when nothing covers the point; that is not an error.
type ClimateLocator interface {
	Locate(ctx context.Context, pt domain.GeoPoint) (match domain.ClimateMatch, ok bool, err error)
	Name() string
}

// CellProber reports whether a climate file exists for a grid cell centre.
type CellProber interface {
	Probe(ctx context.Context, lon, lat float64) (path string, ok bool, err error)
}

// FileStore reads pre-generated model inputs and outputs from disk.
type FileStore interface {
	Exists(path string) (bool, error)
	ReadFile(path string) ([]byte, error)
	OFEToolPath(huc8 string) string
	OFEHUC12Path(huc12 string, summarize bool) string
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishClimateRequest(ctx context.Context, req *domain.ClimateRequest) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
