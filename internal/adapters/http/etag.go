package http

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ETagMiddleware tags successful GET responses with a weak ETag over the
// body and answers 304 when If-None-Match already names it. Attachments
// (climate files, shapefiles, spreadsheets) are never tagged.
func ETagMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}

		resp := c.Response()
		if c.Method() != fiber.MethodGet || resp.StatusCode() != fiber.StatusOK ||
			len(resp.Body()) == 0 || len(resp.Header.Peek(fiber.HeaderContentDisposition)) > 0 {
			return nil
		}

		sum := sha256.Sum256(resp.Body())
		tag := `W/"` + hex.EncodeToString(sum[:8]) + `"`
		c.Set(fiber.HeaderETag, tag)

		if etagMatches(c.Get(fiber.HeaderIfNoneMatch), tag) {
			c.Status(fiber.StatusNotModified)
			resp.ResetBody()
		}
		return nil
	}
}

// etagMatches applies the weak comparison of If-None-Match: any listed
// tag, with or without the W/ prefix, or "*".
func etagMatches(header, tag string) bool {
	if header == "" {
		return false
	}
	want := strings.TrimPrefix(tag, "W/")
	for _, t := range strings.Split(header, ",") {
		t = strings.TrimSpace(t)
		if t == "*" || strings.TrimPrefix(t, "W/") == want {
			return true
		}
	}
	return false
}
