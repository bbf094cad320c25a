package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/dailyerosion/depbackend/internal/core/domain"
	"github.com/dailyerosion/depbackend/internal/core/ports"
)

const (
	isoDate  = "2006-01-02"
	isoStamp = "2006-01-02T15:04:05Z"

	maxSummaryHUC12s = 64
	searchLimit      = 10
	topEventsLimit   = 10
	unknownHUC12     = "Unknown HUC12"
)

// CacheTTLs holds cache lifetimes in seconds per cached response.
type CacheTTLs struct {
	HUC12Data   int
	HUC12Geo    int
	HUC12Static int
	Events      int
}

// DefaultCacheTTLs are the lifetimes used by the web app.
var DefaultCacheTTLs = CacheTTLs{
	HUC12Data:   3600,
	HUC12Geo:    3600,
	HUC12Static: 86400,
	Events:      15,
}

// HUC12Service serves HUC12 summaries, details and map layers.
type HUC12Service struct {
	huc12 ports.HUC12Repository
	meta  ports.MetadataRepository
	cache ports.CacheService
	ttl   CacheTTLs
	now   func() time.Time
}

// NewHUC12Service creates a new HUC12Service.
func NewHUC12Service(huc12 ports.HUC12Repository, meta ports.MetadataRepository, cache ports.CacheService, ttl CacheTTLs) *HUC12Service {
	return &HUC12Service{huc12: huc12, meta: meta, cache: cache, ttl: ttl, now: time.Now}
}

// FieldSet is a value per output variable.
type FieldSet[T any] struct {
	AvgLoss     T `json:"avg_loss"`
	QCPrecip    T `json:"qc_precip"`
	AvgDelivery T `json:"avg_delivery"`
	AvgRunoff   T `json:"avg_runoff"`
}

func sameRamp(r []float64) FieldSet[[]float64] {
	return FieldSet[[]float64]{AvgLoss: r, QCPrecip: r, AvgDelivery: r, AvgRunoff: r}
}

func maxTotals(rows []domain.HUC12Totals) FieldSet[float64] {
	var m FieldSet[float64]
	for _, r := range rows {
		m.AvgLoss = max(m.AvgLoss, r.AvgLoss)
		m.QCPrecip = max(m.QCPrecip, r.QCPrecip)
		m.AvgDelivery = max(m.AvgDelivery, r.AvgDelivery)
		m.AvgRunoff = max(m.AvgRunoff, r.AvgRunoff)
	}
	return m
}

// spanDays is the ramp selector for a period; nil means a single day.
func spanDays(date time.Time, date2 *time.Time) *int {
	if date2 == nil {
		return nil
	}
	d := int(date2.Sub(date).Hours() / 24)
	return &d
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(isoDate)
	return &s
}

// Summary returns english-unit totals for up to 64 HUC12s. Identifiers are
// truncated to 12 characters.
func (s *HUC12Service) Summary(ctx context.Context, huc12s []string, sdate, edate time.Time) ([]domain.HUC12Summary, error) {
	ids := make([]string, 0, min(len(huc12s), maxSummaryHUC12s))
	for _, h := range huc12s {
		if len(ids) == maxSummaryHUC12s {
			break
		}
		h = strings.TrimSpace(h)
		if len(h) > 12 {
			h = h[:12]
		}
		ids = append(ids, h)
	}
	return s.huc12.Summaries(ctx, ids, sdate, edate)
}

// HUC12Data is the map app's per-HUC12 totals for a period.
type HUC12Data struct {
	Data           []domain.HUC12Totals `json:"data"`
	Date           string               `json:"date"`
	Date2          *string              `json:"date2"`
	GenerationTime string               `json:"generation_time"`
	Count          int                  `json:"count"`
	Ramps          FieldSet[[]float64]  `json:"ramps"`
	MaxValues      FieldSet[float64]    `json:"max_values"`
}

// Data returns totals for every HUC12 between sdate and edate inclusive.
func (s *HUC12Service) Data(ctx context.Context, sdate, edate time.Time) (*HUC12Data, error) {
	key := fmt.Sprintf("/json/huc12data/%s_%s", sdate.Format("20060102"), edate.Format("20060102"))
	return cached(ctx, s.cache, "huc12_data", key, s.ttl.HUC12Data, func(ctx context.Context) (*HUC12Data, error) {
		rows, err := s.huc12.Totals(ctx, sdate, edate)
		if err != nil {
			return nil, err
		}
		return &HUC12Data{
			Data:           rows,
			Date:           sdate.Format(isoDate),
			Date2:          formatOptional(&edate),
			GenerationTime: s.now().UTC().Format(isoStamp),
			Count:          len(rows),
			Ramps:          sameRamp(domain.RampForSpan(spanDays(sdate, &edate))),
			MaxValues:      maxTotals(rows),
		}, nil
	})
}

// DetailsRequest selects a HUC12 and period for Details.
type DetailsRequest struct {
	HUC12    string
	Date     time.Time
	Date2    *time.Time
	Scenario int
	Metric   bool
}

// EventDetail is one of the top erosion days of a HUC12.
type EventDetail struct {
	Date        string  `json:"date"`
	QCPrecip    float64 `json:"qc_precip"`
	AvgLoss     float64 `json:"avg_loss"`
	AvgDelivery float64 `json:"avg_delivery"`
	AvgRunoff   float64 `json:"avg_runoff"`
}

// HUC12Details are period totals and top events for one HUC12.
type HUC12Details struct {
	Name        string        `json:"name"`
	QCPrecip    float64       `json:"qc_precip"`
	AvgRunoff   float64       `json:"avg_runoff"`
	AvgLoss     float64       `json:"avg_loss"`
	AvgDelivery float64       `json:"avg_delivery"`
	PrecipUnit  string        `json:"punit"`
	LossUnit    string        `json:"lunit"`
	Top10       []EventDetail `json:"top10"`
}

// Details returns period totals and the ten days with the largest soil
// loss, in metric (mm, tonne/ha) or english (inch, ton/acre) units.
func (s *HUC12Service) Details(ctx context.Context, req DetailsRequest) (*HUC12Details, error) {
	name, err := s.huc12.Name(ctx, req.HUC12, req.Scenario)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = unknownHUC12
	}

	out := &HUC12Details{Name: name, PrecipUnit: "mm", LossUnit: "tonne/ha", Top10: []EventDetail{}}
	totals, err := s.huc12.PeriodTotals(ctx, req.HUC12, req.Scenario, req.Date, req.Date2)
	if err != nil {
		return nil, err
	}
	if totals != nil {
		out.QCPrecip = totals.QCPrecip
		out.AvgRunoff = totals.AvgRunoff
		out.AvgLoss = totals.AvgLoss * domain.KgM2ToTonneHa
		out.AvgDelivery = totals.AvgDelivery * domain.KgM2ToTonneHa
		if !req.Metric {
			out.QCPrecip /= domain.MMPerInch
			out.AvgRunoff /= domain.MMPerInch
			out.AvgLoss *= domain.TonneHaToTonAcre
			out.AvgDelivery *= domain.TonneHaToTonAcre
		}
	}
	if !req.Metric {
		out.PrecipUnit = "inch"
		out.LossUnit = "ton/acre"
	}

	events, err := s.huc12.TopEvents(ctx, req.HUC12, req.Scenario, topEventsLimit)
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		d := EventDetail{
			Date:        e.Valid.Format(isoDate),
			QCPrecip:    e.QCPrecip,
			AvgLoss:     e.AvgLoss * domain.KgM2ToTonneHa,
			AvgDelivery: e.AvgDelivery * domain.KgM2ToTonneHa,
			AvgRunoff:   e.AvgRunoff,
		}
		if !req.Metric {
			d.QCPrecip /= domain.MMPerInch
			d.AvgLoss *= domain.TonneHaToTonAcre
			d.AvgDelivery *= domain.TonneHaToTonAcre
		}
		out.Top10 = append(out.Top10, d)
	}
	return out, nil
}

// MonthlyAverages are per calendar month means of monthly totals.
type MonthlyAverages struct {
	HUC12    string
	MinYear  int
	MaxYear  int
	Months   []int // calendar months present, ascending
	Averages map[int]FieldSet[float64]
}

// Monthly averages the monthly totals of a HUC12 over all years with data.
func (s *HUC12Service) Monthly(ctx context.Context, huc12 string, scenario int) (*MonthlyAverages, error) {
	rows, err := s.huc12.MonthlyTotals(ctx, huc12, scenario)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w for HUC12 %s", domain.ErrNoData, huc12)
	}

	out := &MonthlyAverages{HUC12: huc12, MinYear: rows[0].Year, MaxYear: rows[0].Year, Averages: map[int]FieldSet[float64]{}}
	counts := map[int]int{}
	for _, r := range rows {
		out.MinYear = min(out.MinYear, r.Year)
		out.MaxYear = max(out.MaxYear, r.Year)
		acc := out.Averages[r.Month]
		acc.AvgLoss += r.AvgLoss
		acc.AvgDelivery += r.AvgDelivery
		acc.QCPrecip += r.QCPrecip
		acc.AvgRunoff += r.AvgRunoff
		out.Averages[r.Month] = acc
		counts[r.Month]++
	}
	for m := 1; m <= 12; m++ {
		n, ok := counts[m]
		if !ok {
			continue
		}
		acc := out.Averages[m]
		f := float64(n)
		out.Averages[m] = FieldSet[float64]{
			AvgLoss:     acc.AvgLoss / f,
			QCPrecip:    acc.QCPrecip / f,
			AvgDelivery: acc.AvgDelivery / f,
			AvgRunoff:   acc.AvgRunoff / f,
		}
		out.Months = append(out.Months, m)
	}
	return out, nil
}

// Search finds HUC12s whose name matches q or whose id starts with q.
func (s *HUC12Service) Search(ctx context.Context, q string) ([]domain.HUC12Ref, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("%w: search query must not be empty", domain.ErrInvalidArgument)
	}
	refs, err := s.huc12.Search(ctx, q, searchLimit)
	if err != nil {
		return nil, err
	}
	if refs == nil {
		refs = []domain.HUC12Ref{}
	}
	return refs, nil
}

// HUC12FeatureCollection is the map app's HUC12 layer for a period.
type HUC12FeatureCollection struct {
	Type            string              `json:"type"`
	DepVersionLabel string              `json:"dep_version_label"`
	Date            string              `json:"date"`
	Date2           *string             `json:"date2"`
	Features        []*geojson.Feature  `json:"features"`
	GenerationTime  string              `json:"generation_time"`
	Count           int                 `json:"count"`
	Jenks           FieldSet[[]float64] `json:"jenks"`
	MaxValues       FieldSet[float64]   `json:"max_values"`
}

// GeoJSON returns every HUC12 polygon with english totals for date, or the
// inclusive range date..date2. state limits features to HUC12s touching a
// two letter state.
func (s *HUC12Service) GeoJSON(ctx context.Context, date time.Time, date2 *time.Time, state string) (*HUC12FeatureCollection, error) {
	tkey := ""
	if date2 != nil {
		tkey = date2.Format("20060102")
	}
	key := fmt.Sprintf("/geojson/huc12/%s/%s/%s", date.Format("20060102"), tkey, state)
	return cached(ctx, s.cache, "huc12_geojson", key, s.ttl.HUC12Geo, func(ctx context.Context) (*HUC12FeatureCollection, error) {
		label, err := s.meta.VersionLabel(ctx, 0)
		if err != nil {
			return nil, err
		}
		rows, err := s.huc12.TotalsWithGeometry(ctx, date, date2, state)
		if err != nil {
			return nil, err
		}

		fc := &HUC12FeatureCollection{
			Type:            "FeatureCollection",
			DepVersionLabel: label,
			Date:            date.Format(isoDate),
			Date2:           formatOptional(date2),
			Features:        make([]*geojson.Feature, 0, len(rows)),
			GenerationTime:  s.now().UTC().Format(isoStamp),
			Count:           len(rows),
			Jenks:           sameRamp(domain.RampForSpan(spanDays(date, date2))),
		}
		totals := make([]domain.HUC12Totals, 0, len(rows))
		for _, r := range rows {
			f := geojson.NewFeature(r.Geometry)
			f.ID = r.HUC12
			f.Properties = geojson.Properties{
				"huc_12":       r.HUC12,
				"avg_loss":     r.AvgLoss,
				"qc_precip":    r.QCPrecip,
				"avg_delivery": r.AvgDelivery,
				"avg_runoff":   r.AvgRunoff,
			}
			fc.Features = append(fc.Features, f)
			totals = append(totals, r.HUC12Totals)
		}
		fc.MaxValues = maxTotals(totals)
		return fc, nil
	})
}

// StaticGeoJSON returns the static HUC12 metadata layer keyed by HUC12.
func (s *HUC12Service) StaticGeoJSON(ctx context.Context) (*geojson.FeatureCollection, error) {
	return cached(ctx, s.cache, "huc12_static", "/geojson/huc12.geojson", s.ttl.HUC12Static, func(ctx context.Context) (*geojson.FeatureCollection, error) {
		rows, err := s.huc12.StaticMetadata(ctx)
		if err != nil {
			return nil, err
		}
		fc := geojson.NewFeatureCollection()
		for _, r := range rows {
			f := geojson.NewFeature(r.Geometry)
			f.ID = r.HUC12
			f.Properties = geojson.Properties{
				"dt":   r.DominantTillage,
				"slp":  r.SlopeRatio,
				"name": r.Name,
			}
			fc.Append(f)
		}
		return fc, nil
	})
}

// Event modes.
const (
	ModeDaily  = "daily"
	ModeYearly = "yearly"
)

// EventRecord is one row of the events series, english units.
type EventRecord struct {
	Date              string  `json:"date"`
	AvgLoss           float64 `json:"avg_loss"`
	AvgLossEvents     int     `json:"avg_loss_events"`
	AvgDelivery       float64 `json:"avg_delivery"`
	AvgDeliveryEvents int     `json:"avg_delivery_events"`
	QCPrecip          float64 `json:"qc_precip"`
	QCPrecipEvents    int     `json:"qc_precip_events"`
	AvgRunoff         float64 `json:"avg_runoff"`
	AvgRunoffEvents   int     `json:"avg_runoff_events"`
}

// HUC12Events is the daily or yearly event series of a HUC12.
type HUC12Events struct {
	Results        []EventRecord `json:"results"`
	HUC12          string        `json:"huc12"`
	GenerationTime string        `json:"generation_time"`
}

func (s *HUC12Service) eventRows(ctx context.Context, huc12, mode string) ([]domain.EventSummary, error) {
	switch mode {
	case ModeDaily:
		return s.huc12.DailyEvents(ctx, huc12)
	case ModeYearly:
		return s.huc12.YearlyEvents(ctx, huc12)
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidArgument, mode)
	}
}

// Events returns the event series in daily or yearly mode.
func (s *HUC12Service) Events(ctx context.Context, huc12, mode string) (*HUC12Events, error) {
	key := fmt.Sprintf("/geojson/huc12_events/%s/%s/json", huc12, mode)
	return cached(ctx, s.cache, "huc12_events", key, s.ttl.Events, func(ctx context.Context) (*HUC12Events, error) {
		rows, err := s.eventRows(ctx, huc12, mode)
		if err != nil {
			return nil, err
		}
		out := &HUC12Events{
			Results:        make([]EventRecord, 0, len(rows)),
			HUC12:          huc12,
			GenerationTime: s.now().UTC().Format(isoStamp),
		}
		for _, r := range rows {
			out.Results = append(out.Results, EventRecord{
				Date:              r.Valid.Format(isoDate),
				AvgLoss:           r.AvgLoss,
				AvgLossEvents:     r.AvgLossEvents,
				AvgDelivery:       r.AvgDelivery,
				AvgDeliveryEvents: r.AvgDeliveryEvents,
				QCPrecip:          r.QCPrecip,
				QCPrecipEvents:    r.QCPrecipEvents,
				AvgRunoff:         r.AvgRunoff,
				AvgRunoffEvents:   r.AvgRunoffEvents,
			})
		}
		return out, nil
	})
}

// EventRows returns the uncached event series for spreadsheet export.
func (s *HUC12Service) EventRows(ctx context.Context, huc12, mode string) ([]domain.EventSummary, error) {
	return s.eventRows(ctx, huc12, mode)
}
