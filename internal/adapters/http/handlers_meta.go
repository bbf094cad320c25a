package http

import (
	"github.com/gofiber/fiber/v2"
)

type scenarioQuery struct {
	Scenario int `query:"scenario" validate:"gte=0"`
}

// VersionHandler returns the model version a scenario was run with.
func VersionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q scenarioQuery
		if err := parseQuery(c, &q); err != nil {
			return errFromDomain(c, err)
		}
		v, err := deps.Meta.Version(c.UserContext(), q.Scenario)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(v)
	}
}

// TimeDomainHandler returns the dates a scenario has output for.
func TimeDomainHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q scenarioQuery
		if err := parseQuery(c, &q); err != nil {
			return errFromDomain(c, err)
		}
		td, err := deps.Meta.TimeDomain(c.UserContext(), q.Scenario)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(td)
	}
}
