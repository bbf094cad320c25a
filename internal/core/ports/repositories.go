package ports

import (
	"context"
	"time"

	"github.com/dailyerosion/depbackend/internal/core/domain"
)

// ClimateCatalogRepository is the spatially indexed table of climate files.
type ClimateCatalogRepository interface {
	// Nearest returns the closest registered file within searchDegrees of pt.
	// ok is false when the envelope holds no file.
	Nearest(ctx context.Context, scenario int, pt domain.GeoPoint, searchDegrees float64) (match domain.ClimateMatch, ok bool, err error)
	UpsertBatch(ctx context.Context, files []domain.ClimateFile) error
	LogRequest(ctx context.Context, req *domain.ClimateRequest) error
}

// HUC12Repository reads HUC12 metadata and model results.
type HUC12Repository interface {
	Name(ctx context.Context, huc12 string, scenario int) (string, error)
	Search(ctx context.Context, query string, limit int) ([]domain.HUC12Ref, error)
	Summaries(ctx context.Context, huc12s []string, sdate, edate time.Time) ([]domain.HUC12Summary, error)
	Totals(ctx context.Context, sdate, edate time.Time) ([]domain.HUC12Totals, error)
	TotalsWithGeometry(ctx context.Context, date time.Time, date2 *time.Time, state string) ([]domain.HUC12Geometry, error)
	StaticMetadata(ctx context.Context) ([]domain.HUC12Static, error)
	PeriodTotals(ctx context.Context, huc12 string, scenario int, date time.Time, date2 *time.Time) (*domain.ResultTotals, error)
	TopEvents(ctx context.Context, huc12 string, scenario, limit int) ([]domain.DailyResult, error)
	MonthlyTotals(ctx context.Context, huc12 string, scenario int) ([]domain.MonthlyTotal, error)
	DailyEvents(ctx context.Context, huc12 string) ([]domain.EventSummary, error)
	YearlyEvents(ctx context.Context, huc12 string) ([]domain.EventSummary, error)
	ShapeRows(ctx context.Context, dt time.Time, dt2 *time.Time, states []string) ([]domain.HUC12ShapeRow, error)
}

// MetadataRepository reads scenario and versioning metadata.
type MetadataRepository interface {
	VersionLabel(ctx context.Context, scenario int) (string, error)
	Version(ctx context.Context, scenario int) (map[string]any, error)
	LastDate(ctx context.Context, scenario int) (string, bool, error)
}
