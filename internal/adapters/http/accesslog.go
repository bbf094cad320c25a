package http

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// quietPaths are probed by orchestrators and scrapers; they log at debug.
var quietPaths = map[string]bool{
	"/v1/health": true,
	"/v1/ready":  true,
	"/metrics":   true,
}

// AccessLogMiddleware writes one structured record per request through the
// request-scoped logger. Server errors log at error, client errors at
// warn. Hits on the legacy .py URLs are flagged so their remaining callers
// can be found before the aliases are removed.
func AccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method, path := c.Method(), c.Path()

		err := c.Next()

		status := c.Response().StatusCode()
		level := slog.LevelInfo
		switch {
		case err != nil || status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		case quietPaths[path]:
			level = slog.LevelDebug
		}

		attrs := []slog.Attr{
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes_out", len(c.Response().Body())),
			slog.String("client", c.IP()),
		}
		if q := c.Request().URI().QueryString(); len(q) > 0 {
			attrs = append(attrs, slog.String("query", string(q)))
		}
		if strings.HasSuffix(path, ".py") {
			attrs = append(attrs, slog.Bool("legacy", true),
				slog.String("user_agent", c.Get(fiber.HeaderUserAgent)))
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}

		ctx := c.UserContext()
		LoggerFromCtx(ctx).LogAttrs(ctx, level, method+" "+path, attrs...)
		return err
	}
}
