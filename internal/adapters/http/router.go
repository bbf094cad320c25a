package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"

	"github.com/dailyerosion/depbackend/internal/pkg/metrics"
)

const defaultRequestTimeout = 30 * time.Second

// legacySunset is when the historical .py URLs stop being served.
var legacySunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

type route struct {
	path    string
	legacy  string
	handler func(*Dependencies) fiber.Handler
}

// apiRoutes are the read-only endpoints. Each legacy path serves the same
// handler as its /v1 successor.
var apiRoutes = []route{
	{"/v1/climate-file", "/dl/climatefile.py", ClimateFileHandler},
	{"/v1/climate-file/nearest", "", NearestClimateFileHandler},
	{"/v1/huc12/summary", "/auto/huc12_summary.py", HUC12SummaryHandler},
	{"/v1/huc12/data", "/auto/huc12data.py", HUC12DataHandler},
	{"/v1/huc12/details", "/auto/huc12_details.py", HUC12DetailsHandler},
	{"/v1/huc12/bymonth.png", "/auto/huc12_bymonth.py", HUC12ByMonthHandler},
	{"/v1/huc12/events", "/geojson/huc12_events.py", HUC12EventsHandler},
	{"/v1/huc12/search", "/geojson/hsearch.py", HUC12SearchHandler},
	{"/v1/huc12.geojson", "/geojson/huc12.py", HUC12GeoJSONHandler},
	{"/v1/huc12/static.geojson", "/geojson/huc12.geojson", HUC12StaticHandler},
	{"/v1/shapefile", "/dl/shapefile.py", ShapefileHandler},
	{"/v1/ofetool/huc12/:huc12", "/dl/ofetool_huc12summary.py", OFEToolHUC12Handler},
	{"/v1/ofetool/:huc8", "/dl/ofetool_huc8summary.py", OFEToolHandler},
	{"/v1/version", "/auto/version.py", VersionHandler},
	{"/v1/timedomain", "/geojson/timedomain.py", TimeDomainHandler},
}

// DeprecatedRoutes lists the legacy aliases with their successors.
func DeprecatedRoutes() []DeprecatedRoute {
	var out []DeprecatedRoute
	for _, r := range apiRoutes {
		if r.legacy == "" {
			continue
		}
		out = append(out, DeprecatedRoute{Path: r.legacy, SunsetDate: legacySunset, Alternative: r.path})
	}
	return out
}

// SetupRoutes registers all REST and GraphQL routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 600 requests per minute per IP, the map app fans out
	app.Use(limiter.New(limiter.Config{
		Max:        600,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(DeprecationMiddleware(DeprecatedRoutes()))

	// Health & readiness, no timeout
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	reqTimeout := deps.RequestTimeout
	if reqTimeout <= 0 {
		reqTimeout = defaultRequestTimeout
	}
	for _, r := range apiRoutes {
		h := timeout.NewWithContext(r.handler(deps), reqTimeout)
		app.Get(r.path, h)
		if r.legacy != "" {
			app.Get(r.legacy, h)
		}
	}

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app)
}
