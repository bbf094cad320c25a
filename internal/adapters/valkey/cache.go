package valkey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/valkey-io/valkey-go"

	"github.com/dailyerosion/depbackend/internal/pkg/metrics"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache miss")

const breakerName = "valkey"

// Cache implements ports.CacheService using Valkey (Redis-compatible).
// Calls go through a circuit breaker so an unhealthy server is skipped
// instead of adding latency to every request.
type Cache struct {
	client valkey.Client
	cb     *gobreaker.CircuitBreaker[[]byte]
}

// New creates a new Valkey cache client.
func New(addr string) (*Cache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(stateValue(gobreaker.StateClosed))
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrMiss)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("cache circuit breaker", "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &Cache{client: client, cb: cb}, nil
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Get retrieves a value by key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	return c.cb.Execute(func() ([]byte, error) {
		b, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).AsBytes()
		if valkey.IsValkeyNil(err) {
			return nil, ErrMiss
		}
		return b, err
	})
}

// Set stores a value with a TTL in seconds.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	_, err := c.cb.Execute(func() ([]byte, error) {
		cmd := c.client.B().Set().Key(key).Value(valkey.BinaryString(value)).
			Ex(time.Duration(ttlSeconds) * time.Second).Build()
		return nil, c.client.Do(ctx, cmd).Error()
	})
	return err
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	_, err := c.cb.Execute(func() ([]byte, error) {
		return nil, c.client.Do(ctx, c.client.B().Del().Key(key).Build()).Error()
	})
	return err
}

// Ping checks the server is reachable. It bypasses the breaker.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (c *Cache) Close() {
	c.client.Close()
}
