package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"github.com/dailyerosion/depbackend/internal/core/domain"
)

// HUC12Repo implements ports.HUC12Repository over huc12 and
// results_by_huc12. Aggregates use the production scenario 0 unless a
// scenario is passed in.
type HUC12Repo struct {
	db *DB
}

// NewHUC12Repo creates a new HUC12Repo.
func NewHUC12Repo(db *DB) *HUC12Repo {
	return &HUC12Repo{db: db}
}

// dateFilter limits valid to a day or an inclusive range. $1 and $2 are
// the dates; $2 is NULL for a single day.
const dateFilter = `(($2::date IS NULL AND valid = $1::date) OR (valid >= $1::date AND valid <= $2::date))`

// Name returns the HUC12 name, or "" when unknown.
func (r *HUC12Repo) Name(ctx context.Context, huc12 string, scenario int) (string, error) {
	var name string
	err := r.db.Pool.QueryRow(ctx,
		`SELECT name FROM huc12 WHERE huc_12 = $1 AND scenario = $2`,
		huc12, scenario).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return name, err
}

// Search matches names case-insensitively as a regex, or ids by prefix.
func (r *HUC12Repo) Search(ctx context.Context, query string, limit int) ([]domain.HUC12Ref, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT huc_12, coalesce(name, '') FROM huc12
		WHERE (name ~* $1 OR strpos(huc_12, $1) = 1) AND scenario = 0
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.HUC12Ref, error) {
		var h domain.HUC12Ref
		err := row.Scan(&h.HUC12, &h.Name)
		return h, err
	})
}

// Summaries returns english totals per HUC12 for an inclusive range.
func (r *HUC12Repo) Summaries(ctx context.Context, huc12s []string, sdate, edate time.Time) ([]domain.HUC12Summary, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT huc_12,
		       sum(avg_loss) * 4.463 AS avg_loss_ton_acre,
		       sum(avg_delivery) * 4.463 AS avg_delivery_ton_acre,
		       sum(qc_precip) / 25.4 AS rain_inch
		FROM results_by_huc12
		WHERE huc_12 = ANY($1) AND scenario = 0
		  AND valid >= $2 AND valid <= $3
		GROUP BY huc_12 ORDER BY huc_12
	`, huc12s, sdate, edate)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.HUC12Summary, error) {
		var s domain.HUC12Summary
		err := row.Scan(&s.HUC12, &s.AvgLossTonAcre, &s.AvgDeliveryTonAcre, &s.RainInch)
		return s, err
	})
}

// totalsCTE sums english totals per HUC12 for the date filter.
const totalsCTE = `
	obs AS (
		SELECT huc_12,
		       sum(coalesce(avg_loss, 0)) * 4.463 AS avg_loss,
		       sum(coalesce(avg_delivery, 0)) * 4.463 AS avg_delivery,
		       sum(coalesce(qc_precip, 0)) / 25.4 AS qc_precip,
		       sum(coalesce(avg_runoff, 0)) / 25.4 AS avg_runoff
		FROM results_by_huc12
		WHERE ` + dateFilter + ` AND scenario = 0
		GROUP BY huc_12)`

// roundedTotals selects the obs columns rounded to two decimals.
const roundedTotals = `
	coalesce(round(o.avg_loss::numeric, 2), 0)::float8,
	coalesce(round(o.qc_precip::numeric, 2), 0)::float8,
	coalesce(round(o.avg_delivery::numeric, 2), 0)::float8,
	coalesce(round(o.avg_runoff::numeric, 2), 0)::float8`

// Totals returns rounded english totals for every HUC12.
func (r *HUC12Repo) Totals(ctx context.Context, sdate, edate time.Time) ([]domain.HUC12Totals, error) {
	rows, err := r.db.Pool.Query(ctx, `
		WITH `+totalsCTE+`
		SELECT h.huc_12, `+roundedTotals+`
		FROM huc12 h LEFT JOIN obs o ON (h.huc_12 = o.huc_12)
		WHERE h.scenario = 0
	`, sdate, edate)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.HUC12Totals, error) {
		var t domain.HUC12Totals
		err := row.Scan(&t.HUC12, &t.AvgLoss, &t.QCPrecip, &t.AvgDelivery, &t.AvgRunoff)
		return t, err
	})
}

// TotalsWithGeometry returns rounded english totals with WGS 84 polygons.
// state, when set, limits HUC12s to those whose states match it.
func (r *HUC12Repo) TotalsWithGeometry(ctx context.Context, date time.Time, date2 *time.Time, state string) ([]domain.HUC12Geometry, error) {
	rows, err := r.db.Pool.Query(ctx, `
		WITH data AS (
			SELECT ST_AsBinary(ST_ReducePrecision(ST_Transform(simple_geom, 4326), 0.0001)) AS g, huc_12
			FROM huc12
			WHERE scenario = 0 AND ($3 = '' OR states ~* $3)),
		`+totalsCTE+`
		SELECT d.huc_12, `+roundedTotals+`, d.g
		FROM data d LEFT JOIN obs o ON (d.huc_12 = o.huc_12)
	`, date, date2, state)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.HUC12Geometry, error) {
		var h domain.HUC12Geometry
		var g []byte
		if err := row.Scan(&h.HUC12, &h.AvgLoss, &h.QCPrecip, &h.AvgDelivery, &h.AvgRunoff, &g); err != nil {
			return h, err
		}
		geom, err := decodeGeometry(g)
		h.Geometry = geom
		return h, err
	})
}

// StaticMetadata returns the map app's per-HUC12 attributes.
func (r *HUC12Repo) StaticMetadata(ctx context.Context) ([]domain.HUC12Static, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT huc_12, coalesce(name, ''), coalesce(dominant_tillage, 0),
		       coalesce(round(average_slope_ratio::numeric, 3), 0)::float8,
		       ST_AsBinary(ST_ReducePrecision(ST_Transform(simple_geom, 4326), 0.0001))
		FROM huc12 WHERE scenario = 0
	`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.HUC12Static, error) {
		var s domain.HUC12Static
		var g []byte
		if err := row.Scan(&s.HUC12, &s.Name, &s.DominantTillage, &s.SlopeRatio, &g); err != nil {
			return s, err
		}
		geom, err := decodeGeometry(g)
		s.Geometry = geom
		return s, err
	})
}

// PeriodTotals returns raw metric sums for one HUC12.
func (r *HUC12Repo) PeriodTotals(ctx context.Context, huc12 string, scenario int, date time.Time, date2 *time.Time) (*domain.ResultTotals, error) {
	var t domain.ResultTotals
	err := r.db.Pool.QueryRow(ctx, `
		SELECT coalesce(sum(qc_precip), 0), coalesce(sum(avg_runoff), 0),
		       coalesce(sum(avg_loss), 0), coalesce(sum(avg_delivery), 0)
		FROM results_by_huc12
		WHERE `+dateFilter+` AND huc_12 = $3 AND scenario = $4
	`, date, date2, huc12, scenario).Scan(&t.QCPrecip, &t.AvgRunoff, &t.AvgLoss, &t.AvgDelivery)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// TopEvents returns the days with the largest soil loss, metric units.
func (r *HUC12Repo) TopEvents(ctx context.Context, huc12 string, scenario, limit int) ([]domain.DailyResult, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT valid, coalesce(qc_precip, 0), coalesce(avg_loss, 0),
		       coalesce(avg_delivery, 0), coalesce(avg_runoff, 0)
		FROM results_by_huc12
		WHERE huc_12 = $1 AND scenario = $2 AND avg_loss > 0
		ORDER BY avg_loss DESC LIMIT $3
	`, huc12, scenario, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.DailyResult, error) {
		var d domain.DailyResult
		err := row.Scan(&d.Valid, &d.QCPrecip, &d.AvgLoss, &d.AvgDelivery, &d.AvgRunoff)
		return d, err
	})
}

// MonthlyTotals returns english sums per year and month.
func (r *HUC12Repo) MonthlyTotals(ctx context.Context, huc12 string, scenario int) ([]domain.MonthlyTotal, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT extract(year FROM valid)::int AS yr,
		       extract(month FROM valid)::int AS mo,
		       coalesce(sum(avg_loss), 0) * 4.463,
		       coalesce(sum(avg_delivery), 0) * 4.463,
		       coalesce(sum(qc_precip), 0) / 25.4,
		       coalesce(sum(avg_runoff), 0) / 25.4
		FROM results_by_huc12
		WHERE huc_12 = $1 AND scenario = $2
		GROUP BY mo, yr
	`, huc12, scenario)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.MonthlyTotal, error) {
		var m domain.MonthlyTotal
		err := row.Scan(&m.Year, &m.Month, &m.AvgLoss, &m.AvgDelivery, &m.QCPrecip, &m.AvgRunoff)
		return m, err
	})
}

// DailyEvents returns every modelled day in english units. Each row
// counts as one event.
func (r *HUC12Repo) DailyEvents(ctx context.Context, huc12 string) ([]domain.EventSummary, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT valid,
		       coalesce(avg_loss, 0) * 4.463, coalesce(avg_delivery, 0) * 4.463,
		       coalesce(qc_precip, 0) / 25.4, coalesce(avg_runoff, 0) / 25.4,
		       1, 1, 1, 1
		FROM results_by_huc12
		WHERE huc_12 = $1 AND scenario = 0
		ORDER BY valid ASC
	`, huc12)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanEventSummary)
}

// YearlyEvents returns english sums per year with counts of non-zero days.
func (r *HUC12Repo) YearlyEvents(ctx context.Context, huc12 string) ([]domain.EventSummary, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT make_date(extract(year FROM valid)::int, 1, 1) AS yr,
		       coalesce(sum(avg_loss), 0) * 4.463, coalesce(sum(avg_delivery), 0) * 4.463,
		       coalesce(sum(qc_precip), 0) / 25.4, coalesce(sum(avg_runoff), 0) / 25.4,
		       count(*) FILTER (WHERE avg_loss > 0),
		       count(*) FILTER (WHERE avg_delivery > 0),
		       count(*) FILTER (WHERE qc_precip > 0),
		       count(*) FILTER (WHERE avg_runoff > 0)
		FROM results_by_huc12
		WHERE huc_12 = $1 AND scenario = 0
		GROUP BY yr ORDER BY yr ASC
	`, huc12)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanEventSummary)
}

func scanEventSummary(row pgx.CollectableRow) (domain.EventSummary, error) {
	var e domain.EventSummary
	err := row.Scan(&e.Valid, &e.AvgLoss, &e.AvgDelivery, &e.QCPrecip, &e.AvgRunoff,
		&e.AvgLossEvents, &e.AvgDeliveryEvents, &e.QCPrecipEvents, &e.AvgRunoffEvents)
	return e, err
}

// ShapeRows returns metric totals with EPSG:5070 polygons for the
// shapefile download. states are two letter codes matched as regexes.
func (r *HUC12Repo) ShapeRows(ctx context.Context, dt time.Time, dt2 *time.Time, states []string) ([]domain.HUC12ShapeRow, error) {
	var stateFilter []string
	if len(states) > 0 {
		stateFilter = states
	}
	rows, err := r.db.Pool.Query(ctx, `
		WITH data AS (
			SELECT simple_geom, huc_12, name, dominant_tillage,
			       average_slope_ratio, s.dep_version_label AS version
			FROM huc12 h, scenarios s
			WHERE h.scenario = 0 AND s.id = 0
			  AND ($3::text[] IS NULL OR h.states ~* ANY($3::text[]))),
		obs AS (
			SELECT huc_12,
			       sum(coalesce(avg_loss, 0)) AS avg_loss,
			       sum(coalesce(avg_delivery, 0)) AS avg_delivery,
			       sum(coalesce(qc_precip, 0)) AS qc_precip,
			       sum(coalesce(avg_runoff, 0)) AS avg_runoff
			FROM results_by_huc12
			WHERE `+dateFilter+` AND scenario = 0
			GROUP BY huc_12)
		SELECT d.huc_12, coalesce(d.name, ''), coalesce(d.dominant_tillage, 0),
		       coalesce(d.average_slope_ratio, 0),
		       coalesce(o.qc_precip, 0), coalesce(o.avg_loss, 0),
		       coalesce(o.avg_runoff, 0), coalesce(o.avg_delivery, 0),
		       coalesce(d.version, ''), ST_AsBinary(d.simple_geom)
		FROM data d LEFT JOIN obs o ON (d.huc_12 = o.huc_12)
	`, dt, dt2, stateFilter)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.HUC12ShapeRow, error) {
		var s domain.HUC12ShapeRow
		var g []byte
		if err := row.Scan(&s.HUC12, &s.Name, &s.TillCode, &s.AvgSlope,
			&s.PrecipMM, &s.LossKgM2, &s.RunoffMM, &s.DeliveryKgM2, &s.Version, &g); err != nil {
			return s, err
		}
		geom, err := decodeGeometry(g)
		s.Geometry = geom
		return s, err
	})
}

func decodeGeometry(b []byte) (orb.Geometry, error) {
	if len(b) == 0 {
		return nil, nil
	}
	g, err := wkb.Unmarshal(b)
	if err != nil {
		return nil, fmt.Errorf("decode wkb: %w", err)
	}
	return g, nil
}
