package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control on GET responses that did not set
// their own. Model output changes once a day, so most endpoints are
// cacheable for an hour.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet || c.Response().StatusCode() >= 400 {
			return err
		}
		if len(c.Response().Header.Peek(fiber.HeaderCacheControl)) > 0 {
			return err
		}

		var ttl string
		switch path := c.Path(); {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10"

		case path == "/metrics":
			ttl = "no-cache"

		case strings.HasPrefix(path, "/v1/climate-file"), strings.HasPrefix(path, "/dl/climatefile"):
			ttl = "private, no-store" // audited downloads

		case path == "/v1/timedomain", strings.HasPrefix(path, "/geojson/timedomain"):
			ttl = "public, max-age=300"

		case strings.HasPrefix(path, "/v1/huc12/search"), strings.HasPrefix(path, "/geojson/hsearch"):
			ttl = "public, max-age=3600"

		case strings.HasPrefix(path, "/v1/"), strings.HasSuffix(path, ".py"):
			ttl = "public, max-age=3600"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}
		return err
	}
}
