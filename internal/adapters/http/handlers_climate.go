package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dailyerosion/depbackend/internal/core/domain"
	"github.com/dailyerosion/depbackend/internal/core/usecases"
)

type pointQuery struct {
	Lat *float64 `query:"lat" validate:"required,latitude"`
	Lon *float64 `query:"lon" validate:"required,longitude"`
}

func (q pointQuery) point() domain.GeoPoint {
	return domain.GeoPoint{Lat: *q.Lat, Lon: *q.Lon}
}

type climateFileQuery struct {
	Lat       *float64 `query:"lat" validate:"required,latitude"`
	Lon       *float64 `query:"lon" validate:"required,longitude"`
	Format    string   `query:"format" validate:"omitempty,oneof=wepp ntt"`
	Intensity string   `query:"intensity"`
}

// ClimateFileHandler downloads the climate file nearest to lat/lon as the
// raw WEPP file, an NTT weather file, or a precipitation intensity CSV.
func ClimateFileHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := climateFileQuery{Format: usecases.FormatWEPP}
		if err := parseQuery(c, &q); err != nil {
			return errFromDomain(c, err)
		}
		levels, err := parseIntList("intensity", q.Intensity)
		if err != nil {
			return errFromDomain(c, err)
		}

		dl, err := deps.Climate.Download(c.UserContext(), usecases.ClimateDownloadRequest{
			Point:      domain.GeoPoint{Lat: *q.Lat, Lon: *q.Lon},
			Format:     q.Format,
			Intensity:  levels,
			ClientAddr: c.IP(),
		})
		if err != nil {
			return errFromDomain(c, err)
		}
		return sendAttachment(c, dl.Filename, dl.ContentType, dl.Body)
	}
}

// NearestClimateFileHandler reports which climate file serves lat/lon.
func NearestClimateFileHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q pointQuery
		if err := parseQuery(c, &q); err != nil {
			return errFromDomain(c, err)
		}
		m, err := deps.Climate.Nearest(c.UserContext(), q.point())
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(m)
	}
}
