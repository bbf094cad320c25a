package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dailyerosion/depbackend/internal/core/usecases"
	"github.com/dailyerosion/depbackend/internal/pkg/validation"
)

type shapefileQuery struct {
	DT     string `query:"dt" validate:"required,datetime=2006-01-02"`
	DT2    string `query:"dt2" validate:"omitempty,datetime=2006-01-02"`
	States string `query:"states"`
	Conv   string `query:"conv" validate:"oneof=metric english"`
}

// ShapefileHandler downloads HUC12 polygons with period totals as a zip.
func ShapefileHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := shapefileQuery{Conv: usecases.UnitsMetric}
		if err := parseQuery(c, &q); err != nil {
			return errFromDomain(c, err)
		}
		dl, err := deps.Exports.Shapefile(c.UserContext(), usecases.ShapefileRequest{
			Date:   mustDate(q.DT),
			Date2:  optionalDate(q.DT2),
			States: splitList(q.States),
			Units:  q.Conv,
		})
		if err != nil {
			return errFromDomain(c, err)
		}
		return sendAttachment(c, dl.Filename, dl.ContentType, dl.Body)
	}
}

type ofeToolParams struct {
	HUC8 string `json:"huc8" validate:"required,len=8,numeric"`
}

// OFEToolHandler downloads the OFE tool summary of a HUC8.
func OFEToolHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := ofeToolParams{HUC8: c.Params("huc8", c.Query("huc8"))}
		if err := validation.ValidateStruct(&p); err != nil {
			return errFromDomain(c, err)
		}
		dl, err := deps.Exports.OFETool(c.UserContext(), p.HUC8)
		if err != nil {
			return errFromDomain(c, err)
		}
		return sendAttachment(c, dl.Filename, dl.ContentType, dl.Body)
	}
}

type ofeHUC12Query struct {
	HUC12     string `query:"huc12" validate:"required,len=12,numeric"`
	Summarize bool   `query:"summarize"`
}

// OFEToolHUC12Handler downloads the OFE summary, or raw OFE results, of a HUC12.
func OFEToolHUC12Handler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := ofeHUC12Query{Summarize: true}
		if err := bindQuery(c, &q); err != nil {
			return errFromDomain(c, err)
		}
		q.HUC12 = c.Params("huc12", q.HUC12)
		if err := validation.ValidateStruct(&q); err != nil {
			return errFromDomain(c, err)
		}
		dl, err := deps.Exports.OFEToolHUC12(c.UserContext(), q.HUC12, q.Summarize)
		if err != nil {
			return errFromDomain(c, err)
		}
		return sendAttachment(c, dl.Filename, dl.ContentType, dl.Body)
	}
}
