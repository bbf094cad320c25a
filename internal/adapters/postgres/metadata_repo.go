package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dailyerosion/depbackend/internal/core/domain"
)

// MetadataRepo implements ports.MetadataRepository over scenarios,
// dep_version and properties.
type MetadataRepo struct {
	db *DB
}

// NewMetadataRepo creates a new MetadataRepo.
func NewMetadataRepo(db *DB) *MetadataRepo {
	return &MetadataRepo{db: db}
}

// VersionLabel returns the dep_version label a scenario was run with.
func (r *MetadataRepo) VersionLabel(ctx context.Context, scenario int) (string, error) {
	var label string
	err := r.db.Pool.QueryRow(ctx,
		`SELECT coalesce(dep_version_label, '') FROM scenarios WHERE id = $1`,
		scenario).Scan(&label)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: unknown scenario %d", domain.ErrNoData, scenario)
	}
	return label, err
}

// Version returns the full dep_version row for a scenario.
func (r *MetadataRepo) Version(ctx context.Context, scenario int) (map[string]any, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT d.* FROM scenarios s, dep_version d
		WHERE s.id = $1 AND s.dep_version_label = d.label
	`, scenario)
	if err != nil {
		return nil, err
	}
	v, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

// LastDate returns the last_date_<scenario> property, if set.
func (r *MetadataRepo) LastDate(ctx context.Context, scenario int) (string, bool, error) {
	var value string
	err := r.db.Pool.QueryRow(ctx,
		`SELECT value FROM properties WHERE key = $1`,
		fmt.Sprintf("last_date_%d", scenario)).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}
