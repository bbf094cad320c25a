//go:build integration

package valkey

import (
	"context"
	"errors"
	"os"
	"testing"
)

func TestCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("DEP_VALKEY_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	c, err := New(addr)
	if err != nil {
		t.Skipf("valkey not available: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	key := "/test/dep/cache"
	if err := c.Set(ctx, key, []byte(`{"a":1}`), 5); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := c.Get(ctx, key)
	if err != nil || string(got) != `{"a":1}` {
		t.Fatalf("get = %q, %v", got, err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Get(ctx, key); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}
