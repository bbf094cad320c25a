package usecases

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/dailyerosion/depbackend/internal/core/domain"
	"github.com/dailyerosion/depbackend/internal/core/ports"
	"github.com/dailyerosion/depbackend/internal/pkg/export"
)

// Unit systems of the shapefile download.
const (
	UnitsMetric  = "metric"
	UnitsEnglish = "english"
)

// ShapefileRequest selects the period and states of a shapefile download.
type ShapefileRequest struct {
	Date   time.Time
	Date2  *time.Time
	States []string
	Units  string
}

// ExportService renders HUC12 results as file downloads.
type ExportService struct {
	huc12 *HUC12Service
	repo  ports.HUC12Repository
	files ports.FileStore
	prj   []byte
}

// NewExportService creates an ExportService. prj is the WKT of the
// shapefile projection (EPSG:5070).
func NewExportService(huc12 *HUC12Service, repo ports.HUC12Repository, files ports.FileStore, prj []byte) *ExportService {
	return &ExportService{huc12: huc12, repo: repo, files: files, prj: prj}
}

// ShapefileBase is the archive basename, idepv2_YYYYMMDD[_YYYYMMDD].
func ShapefileBase(date time.Time, date2 *time.Time) string {
	base := "idepv2_" + date.Format("20060102")
	if date2 != nil {
		base += date2.Format("_20060102")
	}
	return base
}

var (
	shapeKeyFields = []export.Field{
		{Name: "HUC_12", Kind: export.String, Size: 12},
		{Name: "NAME", Kind: export.String, Size: 128},
		{Name: "TILLCODE", Kind: export.Integer, Size: 10},
		{Name: "AVG_SLP1", Kind: export.Float, Size: 18, Decimals: 6},
	}
	shapeMetricFields = []export.Field{
		{Name: "PREC_MM", Kind: export.Float, Size: 18, Decimals: 4},
		{Name: "LOS_KGM2", Kind: export.Float, Size: 18, Decimals: 4},
		{Name: "RUNOF_MM", Kind: export.Float, Size: 18, Decimals: 4},
		{Name: "DELI_KGM", Kind: export.Float, Size: 18, Decimals: 4},
	}
	shapeEnglishFields = []export.Field{
		{Name: "PREC_IN", Kind: export.Float, Size: 18, Decimals: 4},
		{Name: "LOSS_TPA", Kind: export.Float, Size: 18, Decimals: 4},
		{Name: "RUNOF_IN", Kind: export.Float, Size: 18, Decimals: 4},
		{Name: "DELI_TPA", Kind: export.Float, Size: 18, Decimals: 4},
	}
	shapeVersionField = export.Field{Name: "VERSION", Kind: export.String, Size: 64}
)

// Shapefile returns a zip of the HUC12 polygons with period totals.
// English output replaces the metric columns with converted ones placed
// after VERSION.
func (s *ExportService) Shapefile(ctx context.Context, req ShapefileRequest) (*Download, error) {
	states := make([]string, 0, len(req.States))
	for _, st := range req.States {
		st = strings.ToUpper(strings.TrimSpace(st))
		if len(st) > 2 {
			st = st[:2]
		}
		if st != "" {
			states = append(states, st)
		}
	}

	rows, err := s.repo.ShapeRows(ctx, req.Date, req.Date2, states)
	if err != nil {
		return nil, err
	}

	english := req.Units == UnitsEnglish
	fields := append([]export.Field{}, shapeKeyFields...)
	if english {
		fields = append(fields, shapeVersionField)
		fields = append(fields, shapeEnglishFields...)
	} else {
		fields = append(fields, shapeMetricFields...)
		fields = append(fields, shapeVersionField)
	}

	features := make([]export.Feature, 0, len(rows))
	for _, r := range rows {
		vals := []any{r.HUC12, r.Name, r.TillCode, r.AvgSlope}
		if english {
			vals = append(vals, r.Version,
				r.PrecipMM/domain.MMPerInch,
				r.LossKgM2*domain.KgM2ToTonAcre,
				r.RunoffMM/domain.MMPerInch,
				r.DeliveryKgM2*domain.KgM2ToTonAcre)
		} else {
			vals = append(vals, r.PrecipMM, r.LossKgM2, r.RunoffMM, r.DeliveryKgM2, r.Version)
		}
		features = append(features, export.Feature{Geometry: r.Geometry, Values: vals})
	}

	base := ShapefileBase(req.Date, req.Date2)
	var buf bytes.Buffer
	if err := export.WriteShapefileZip(&buf, base, s.prj, fields, features); err != nil {
		return nil, err
	}
	return &Download{Filename: base + ".zip", ContentType: "application/octet-stream", Body: buf.Bytes()}, nil
}

// OFETool returns the per-HUC8 OFE summary CSV.
func (s *ExportService) OFETool(_ context.Context, huc8 string) (*Download, error) {
	return s.serveFile(s.files.OFEToolPath(huc8), "HUC8 "+huc8)
}

// OFEToolHUC12 returns the OFE CSV of one HUC12, summarized for the OFE
// tool or the raw results.
func (s *ExportService) OFEToolHUC12(_ context.Context, huc12 string, summarize bool) (*Download, error) {
	if len(huc12) != 12 {
		return nil, fmt.Errorf("%w: huc12 must be 12 digits", domain.ErrInvalidArgument)
	}
	return s.serveFile(s.files.OFEHUC12Path(huc12, summarize), "HUC12 "+huc12)
}

func (s *ExportService) serveFile(p, what string) (*Download, error) {
	ok, err := s.files.Exists(p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w for %s", domain.ErrNoData, what)
	}
	body, err := s.files.ReadFile(p)
	if err != nil {
		return nil, err
	}
	return &Download{Filename: path.Base(p), ContentType: "application/octet-stream", Body: body}, nil
}

// EventsXLSX returns the event series as a workbook. Daily mode omits the
// event count columns, which are always one.
func (s *ExportService) EventsXLSX(ctx context.Context, huc12, mode string) (*Download, error) {
	rows, err := s.huc12.EventRows(ctx, huc12, mode)
	if err != nil {
		return nil, err
	}

	header := []string{"valid", "avg_loss", "avg_delivery", "qc_precip", "avg_runoff"}
	if mode != ModeDaily {
		header = append(header, "avg_loss_events", "avg_delivery_events", "qc_precip_events", "avg_runoff_events")
	}
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		row := []any{r.Valid, r.AvgLoss, r.AvgDelivery, r.QCPrecip, r.AvgRunoff}
		if mode != ModeDaily {
			row = append(row, r.AvgLossEvents, r.AvgDeliveryEvents, r.QCPrecipEvents, r.AvgRunoffEvents)
		}
		out = append(out, row)
	}

	var buf bytes.Buffer
	if err := export.WriteSheet(&buf, huc12+" Data", header, out); err != nil {
		return nil, err
	}
	return &Download{Filename: "dep" + huc12 + ".xlsx", ContentType: export.XLSXContentType, Body: buf.Bytes()}, nil
}

// MonthlyChart renders the monthly averages of a HUC12 as a PNG.
func (s *ExportService) MonthlyChart(ctx context.Context, huc12 string, scenario int) ([]byte, error) {
	avg, err := s.huc12.Monthly(ctx, huc12, scenario)
	if err != nil {
		return nil, err
	}

	panels := []export.MonthlyPanel{
		{Label: "Precipitation (inch)"},
		{Label: "Water Runoff (inch)"},
		{Label: "Soil Detachment (T/a)"},
		{Label: "Hillslope Soil Delivery (T/a)"},
	}
	for _, m := range avg.Months {
		v := avg.Averages[m]
		panels[0].Values[m-1] = v.QCPrecip
		panels[1].Values[m-1] = v.AvgRunoff
		panels[2].Values[m-1] = v.AvgLoss
		panels[3].Values[m-1] = v.AvgDelivery
	}

	title := fmt.Sprintf("Monthly Average for HUC12: %s (%d-%d)", huc12, avg.MinYear, avg.MaxYear)
	var buf bytes.Buffer
	if err := export.MonthlyBarsPNG(&buf, title, panels); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
