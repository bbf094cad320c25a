package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dailyerosion/depbackend/internal/core/domain"
	"github.com/dailyerosion/depbackend/internal/pkg/geospatial"
)

// ClimateRepo implements ports.ClimateCatalogRepository over the
// climate_files table.
type ClimateRepo struct {
	db *DB
}

// NewClimateRepo creates a new ClimateRepo.
func NewClimateRepo(db *DB) *ClimateRepo {
	return &ClimateRepo{db: db}
}

// Nearest returns the closest climate file inside a square envelope of
// searchDegrees around pt, using the GiST index for the KNN ordering.
func (r *ClimateRepo) Nearest(ctx context.Context, scenario int, pt domain.GeoPoint, searchDegrees float64) (domain.ClimateMatch, bool, error) {
	minLat, minLon, maxLat, maxLon := geospatial.Envelope(pt.Lat, pt.Lon, searchDegrees)

	var m domain.ClimateMatch
	var loc domain.GeoPoint
	err := r.db.Pool.QueryRow(ctx, `
		SELECT filepath,
		       ST_Distance(geom, ST_SetSRID(ST_MakePoint($1, $2), 4326)),
		       ST_Y(geom), ST_X(geom)
		FROM climate_files
		WHERE scenario = $3
		  AND ST_Contains(ST_MakeEnvelope($4, $5, $6, $7, 4326), geom)
		ORDER BY geom <-> ST_SetSRID(ST_MakePoint($1, $2), 4326)
		LIMIT 1
	`, pt.Lon, pt.Lat, scenario, minLon, minLat, maxLon, maxLat).Scan(&m.Path, &m.Distance, &loc.Lat, &loc.Lon)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ClimateMatch{}, false, nil
	}
	if err != nil {
		return domain.ClimateMatch{}, false, fmt.Errorf("nearest climate file: %w", err)
	}
	m.Location = &loc
	return m, true, nil
}

// UpsertBatch registers climate files using pgx.Batch.
func (r *ClimateRepo) UpsertBatch(ctx context.Context, files []domain.ClimateFile) error {
	batch := &pgx.Batch{}
	for _, f := range files {
		batch.Queue(`
			INSERT INTO climate_files (scenario, filepath, geom)
			VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326))
			ON CONFLICT (scenario, filepath) DO UPDATE
			SET geom = EXCLUDED.geom
		`, f.Scenario, f.Path, f.Location.Lon, f.Location.Lat)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range files {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// LogRequest records a served climate file in clifile_requests.
func (r *ClimateRepo) LogRequest(ctx context.Context, req *domain.ClimateRequest) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO clifile_requests (client_addr, geom, climate_file_id, distance_degrees, valid)
		VALUES (
			NULLIF($1, '')::inet,
			ST_SetSRID(ST_MakePoint($2, $3), 4326),
			(SELECT id FROM climate_files WHERE scenario = $4 AND filepath = $5),
			$6, $7
		)
	`, req.ClientAddr, req.Point.Lon, req.Point.Lat, req.Scenario, req.Path, req.Distance, req.RequestedAt)
	return err
}
