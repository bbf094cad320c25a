package domain

import (
	"time"

	"github.com/paulmach/orb"
)

// Unit conversions used across the DEP outputs.
const (
	KgM2ToTonAcre    = 4.463
	KgM2ToTonneHa    = 10.0
	TonneHaToTonAcre = 0.4463
	MMPerInch        = 25.4
)

// ClimateFile is a registered per-cell climate input file.
type ClimateFile struct {
	ID       int64    `json:"id"`
	Scenario int      `json:"scenario"`
	Path     string   `json:"filepath"`
	Location GeoPoint `json:"location"`
}

// ClimateMatch is the result of a nearest climate file search.
type ClimateMatch struct {
	Path       string    `json:"filepath"`
	Distance   float64   `json:"distance_degrees"`
	DistanceKm float64   `json:"distance_km"`
	Location   *GeoPoint `json:"location,omitempty"` // cell centre of the file
	Cell       *GridCell `json:"cell,omitempty"`     // only set by the spiral locator
	Locator    string    `json:"locator"`
}

// ClimateRequest is an audit record of a served climate file.
type ClimateRequest struct {
	ID          string    `json:"id"`
	ClientAddr  string    `json:"client_addr"`
	Point       GeoPoint  `json:"point"`
	Scenario    int       `json:"scenario"`
	Path        string    `json:"filepath"`
	Distance    float64   `json:"distance_degrees"`
	RequestedAt time.Time `json:"requested_at"`
}

// HUC12Ref identifies a HUC12 by code and name.
type HUC12Ref struct {
	HUC12 string `json:"huc_12"`
	Name  string `json:"name"`
}

// HUC12Summary is a row of the multi-HUC12 CSV summary, english units.
type HUC12Summary struct {
	HUC12              string  `json:"huc_12"`
	AvgLossTonAcre     float64 `json:"avg_loss_ton_acre"`
	AvgDeliveryTonAcre float64 `json:"avg_delivery_ton_acre"`
	RainInch           float64 `json:"rain_inch"`
}

// HUC12Totals are per-HUC12 sums over a date range, english units.
type HUC12Totals struct {
	HUC12       string  `json:"huc_12"`
	AvgLoss     float64 `json:"avg_loss"`
	QCPrecip    float64 `json:"qc_precip"`
	AvgDelivery float64 `json:"avg_delivery"`
	AvgRunoff   float64 `json:"avg_runoff"`
}

// HUC12Geometry pairs totals with a WGS 84 geometry.
type HUC12Geometry struct {
	HUC12Totals
	Geometry orb.Geometry `json:"-"`
}

// HUC12Static is the static metadata of a HUC12 used by the map app.
type HUC12Static struct {
	HUC12           string       `json:"huc_12"`
	Name            string       `json:"name"`
	DominantTillage int          `json:"dt"`
	SlopeRatio      float64      `json:"slp"`
	Geometry        orb.Geometry `json:"-"`
}

// HUC12ShapeRow is one feature of the shapefile download, metric units,
// geometry in the DEP projected CRS (EPSG:5070).
type HUC12ShapeRow struct {
	HUC12        string
	Name         string
	TillCode     int
	AvgSlope     float64
	PrecipMM     float64
	LossKgM2     float64
	RunoffMM     float64
	DeliveryKgM2 float64
	Version      string
	Geometry     orb.Geometry
}

// ResultTotals are raw metric sums from results_by_huc12.
type ResultTotals struct {
	QCPrecip    float64
	AvgRunoff   float64
	AvgLoss     float64
	AvgDelivery float64
}

// DailyResult is a single day of HUC12 model output, metric units.
type DailyResult struct {
	Valid       time.Time
	QCPrecip    float64
	AvgLoss     float64
	AvgDelivery float64
	AvgRunoff   float64
}

// MonthlyTotal is a year/month sum of HUC12 output, english units.
type MonthlyTotal struct {
	Year        int
	Month       int
	AvgLoss     float64
	AvgDelivery float64
	QCPrecip    float64
	AvgRunoff   float64
}

// EventSummary is a daily or yearly roll-up with non-zero event counts,
// english units.
type EventSummary struct {
	Valid             time.Time
	AvgLoss           float64
	AvgDelivery       float64
	QCPrecip          float64
	AvgRunoff         float64
	AvgLossEvents     int
	AvgDeliveryEvents int
	QCPrecipEvents    int
	AvgRunoffEvents   int
}

// TimeDomain describes the dates for which a scenario has output.
type TimeDomain struct {
	ServerTime string  `json:"server_time"`
	FirstDate  *string `json:"first_date"`
	LastDate   *string `json:"last_date"`
	Scenario   int     `json:"scenario"`
}
