package usecases

import (
	"context"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dailyerosion/depbackend/internal/core/ports"
	"github.com/dailyerosion/depbackend/internal/pkg/metrics"
	"github.com/dailyerosion/depbackend/internal/pkg/telemetry"
)

// cached returns the JSON value stored under key, or runs load and stores
// its result for ttl seconds. Cache errors fall through to load.
func cached[T any](ctx context.Context, cache ports.CacheService, op, key string, ttl int, load func(context.Context) (T, error)) (T, error) {
	if cache != nil {
		if data, err := cache.Get(ctx, key); err == nil {
			var v T
			if err := json.Unmarshal(data, &v); err == nil {
				metrics.CacheHits.WithLabelValues(op).Inc()
				return v, nil
			}
		}
		metrics.CacheMisses.WithLabelValues(op).Inc()
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanCacheFill,
		trace.WithAttributes(attribute.String(telemetry.AttrCacheKey, key)))
	defer span.End()

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	if cache != nil && ttl > 0 {
		if data, err := json.Marshal(v); err == nil {
			_ = cache.Set(ctx, key, data, ttl)
		}
	}
	return v, nil
}
