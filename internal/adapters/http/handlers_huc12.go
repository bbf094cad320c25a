package http

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/dailyerosion/depbackend/internal/core/usecases"
)

const geoJSONContentType = "application/vnd.geo+json"

type huc12SummaryQuery struct {
	HUC12 string `query:"huc12"`
	SDate string `query:"sdate" validate:"datetime=2006-01-02"`
	EDate string `query:"edate" validate:"datetime=2006-01-02"`
}

// HUC12SummaryHandler returns loss, delivery and rain totals of up to 64
// HUC12s as CSV.
func HUC12SummaryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := huc12SummaryQuery{HUC12: "070600040601", SDate: "2022-01-01", EDate: "2022-07-01"}
		if err := parseQuery(c, &q); err != nil {
			return errFromDomain(c, err)
		}

		rows, err := deps.HUC12.Summary(c.UserContext(), splitList(q.HUC12), mustDate(q.SDate), mustDate(q.EDate))
		if err != nil {
			return errFromDomain(c, err)
		}

		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		_ = w.Write([]string{"huc_12", "avg_loss_ton_acre", "avg_delivery_ton_acre", "rain_inch"})
		for _, r := range rows {
			_ = w.Write([]string{
				r.HUC12,
				strconv.FormatFloat(r.AvgLossTonAcre, 'f', 2, 64),
				strconv.FormatFloat(r.AvgDeliveryTonAcre, 'f', 2, 64),
				strconv.FormatFloat(r.RainInch, 'f', 2, 64),
			})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return errFromDomain(c, err)
		}

		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Send(buf.Bytes())
	}
}

type huc12DataQuery struct {
	SDate string `query:"sdate" validate:"datetime=2006-01-02"`
	EDate string `query:"edate" validate:"datetime=2006-01-02"`
}

// HUC12DataHandler returns totals of every HUC12 for a period.
func HUC12DataHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := huc12DataQuery{SDate: "2010-01-01", EDate: "2010-01-01"}
		if err := parseQuery(c, &q); err != nil {
			return errFromDomain(c, err)
		}
		data, err := deps.HUC12.Data(c.UserContext(), mustDate(q.SDate), mustDate(q.EDate))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(data)
	}
}

type huc12DetailsQuery struct {
	HUC12    string `query:"huc12" validate:"required,len=12,numeric"`
	Date     string `query:"date" validate:"required,datetime=2006-01-02"`
	Date2    string `query:"date2" validate:"omitempty,datetime=2006-01-02"`
	Scenario int    `query:"scenario" validate:"gte=0"`
	Metric   bool   `query:"metric"`
}

// HUC12DetailsHandler returns period totals and top events of one HUC12.
func HUC12DetailsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q huc12DetailsQuery
		if err := parseQuery(c, &q); err != nil {
			return errFromDomain(c, err)
		}
		out, err := deps.HUC12.Details(c.UserContext(), usecases.DetailsRequest{
			HUC12:    q.HUC12,
			Date:     mustDate(q.Date),
			Date2:    optionalDate(q.Date2),
			Scenario: q.Scenario,
			Metric:   q.Metric,
		})
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(out)
	}
}

type huc12MonthlyQuery struct {
	HUC12    string `query:"huc12" validate:"required,max=12"`
	Scenario int    `query:"scenario" validate:"gte=0"`
}

// HUC12ByMonthHandler renders the monthly average chart of a HUC12.
func HUC12ByMonthHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := huc12MonthlyQuery{HUC12: "070600040601"}
		if err := parseQuery(c, &q); err != nil {
			return errFromDomain(c, err)
		}
		png, err := deps.Exports.MonthlyChart(c.UserContext(), q.HUC12, q.Scenario)
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set(fiber.HeaderContentType, "image/png")
		return c.Send(png)
	}
}

type huc12EventsQuery struct {
	HUC12    string `query:"huc12" validate:"len=12"`
	Mode     string `query:"mode" validate:"oneof=daily yearly"`
	Format   string `query:"format" validate:"oneof=json xlsx"`
	Callback string `query:"callback"`
}

// HUC12EventsHandler returns the daily or yearly event series of a HUC12
// as JSON(P) or a spreadsheet.
func HUC12EventsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := huc12EventsQuery{HUC12: "000000000000", Mode: usecases.ModeDaily, Format: "json"}
		if err := parseQuery(c, &q); err != nil {
			return errFromDomain(c, err)
		}

		if q.Format == "xlsx" {
			dl, err := deps.Exports.EventsXLSX(c.UserContext(), q.HUC12, q.Mode)
			if err != nil {
				return errFromDomain(c, err)
			}
			return sendAttachment(c, dl.Filename, dl.ContentType, dl.Body)
		}

		out, err := deps.HUC12.Events(c.UserContext(), q.HUC12, q.Mode)
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set(fiber.HeaderCacheControl, "public, max-age=15")
		return sendJSON(c, out, q.Callback, "")
	}
}

type huc12SearchQuery struct {
	Q string `query:"q" validate:"required,max=200"`
}

// HUC12SearchHandler finds HUC12s by name or identifier prefix.
func HUC12SearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q huc12SearchQuery
		if err := parseQuery(c, &q); err != nil {
			return errFromDomain(c, err)
		}
		refs, err := deps.HUC12.Search(c.UserContext(), q.Q)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{"results": refs})
	}
}

type huc12GeoJSONQuery struct {
	Date     string `query:"date" validate:"required,datetime=2006-01-02"`
	Date2    string `query:"date2" validate:"omitempty,datetime=2006-01-02"`
	Domain   string `query:"domain" validate:"omitempty,len=2,alpha"`
	Callback string `query:"callback"`
}

// HUC12GeoJSONHandler returns the HUC12 layer with period totals.
func HUC12GeoJSONHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q huc12GeoJSONQuery
		if err := parseQuery(c, &q); err != nil {
			return errFromDomain(c, err)
		}
		fc, err := deps.HUC12.GeoJSON(c.UserContext(), mustDate(q.Date), optionalDate(q.Date2), q.Domain)
		if err != nil {
			return errFromDomain(c, err)
		}
		return sendJSON(c, fc, q.Callback, geoJSONContentType)
	}
}

// HUC12StaticHandler returns static HUC12 metadata as GeoJSON.
func HUC12StaticHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fc, err := deps.HUC12.StaticGeoJSON(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
		return sendJSON(c, fc, c.Query("callback"), geoJSONContentType)
	}
}
