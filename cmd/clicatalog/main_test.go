package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailyerosion/depbackend/internal/adapters/filesystem"
	"github.com/dailyerosion/depbackend/internal/core/domain"
)

type recordingCatalog struct {
	batches [][]domain.ClimateFile
	err     error
}

func (r *recordingCatalog) Nearest(context.Context, int, domain.GeoPoint, float64) (domain.ClimateMatch, bool, error) {
	return domain.ClimateMatch{}, false, nil
}

func (r *recordingCatalog) UpsertBatch(_ context.Context, files []domain.ClimateFile) error {
	if r.err != nil {
		return r.err
	}
	r.batches = append(r.batches, append([]domain.ClimateFile(nil), files...))
	return nil
}

func (r *recordingCatalog) LogRequest(context.Context, *domain.ClimateRequest) error { return nil }

func writeClimateFile(t *testing.T, root string, lon, lat float64) {
	t.Helper()
	p := filesystem.ClimatePath(root, 0, lon, lat)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("cli"), 0o644))
}

func TestRegister(t *testing.T) {
	root := t.TempDir()
	writeClimateFile(t, root, -93.5, 42.0)
	writeClimateFile(t, root, -93.49, 42.01)
	// not a climate file name, skipped
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(filesystem.ClimatePath(root, 0, -93.5, 42.0)), "README"), nil, 0o644))

	catalog := &recordingCatalog{}
	n, err := register(context.Background(), filesystem.New(root, 0), catalog)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, catalog.batches, 1)

	got := catalog.batches[0]
	assert.InDelta(t, -93.49, got[0].Location.Lon, 1e-9)
	assert.InDelta(t, 42.01, got[0].Location.Lat, 1e-9)
	assert.InDelta(t, -93.5, got[1].Location.Lon, 1e-9)
}

func TestRegisterEmptyScenario(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "0", "cli"), 0o755))

	catalog := &recordingCatalog{}
	n, err := register(context.Background(), filesystem.New(root, 0), catalog)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, catalog.batches)
}

func TestRegisterUpsertError(t *testing.T) {
	root := t.TempDir()
	writeClimateFile(t, root, -93.5, 42.0)

	boom := errors.New("boom")
	_, err := register(context.Background(), filesystem.New(root, 0), &recordingCatalog{err: boom})
	assert.ErrorIs(t, err, boom)
}
