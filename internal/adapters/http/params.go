package http

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dailyerosion/depbackend/internal/pkg/validation"
)

const isoDate = "2006-01-02"

var callbackRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$.]{0,63}$`)

// parseQuery binds query parameters into dst and validates it.
func parseQuery(c *fiber.Ctx, dst any) error {
	if err := bindQuery(c, dst); err != nil {
		return err
	}
	return validation.ValidateStruct(dst)
}

func bindQuery(c *fiber.Ctx, dst any) error {
	if err := c.QueryParser(dst); err != nil {
		return &validation.Error{Fields: []validation.FieldError{{Field: "query", Tag: "parse"}}}
	}
	return nil
}

// mustDate parses a date the validator has already accepted.
func mustDate(s string) time.Time {
	t, _ := time.Parse(isoDate, s)
	return t
}

func optionalDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t := mustDate(s)
	return &t
}

// splitList splits a comma separated parameter, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseIntList parses comma separated positive integers.
func parseIntList(field, s string) ([]int, error) {
	var out []int
	for _, p := range splitList(s) {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return nil, &validation.Error{Fields: []validation.FieldError{{Field: field, Tag: "numeric"}}}
		}
		out = append(out, n)
	}
	return out, nil
}

// sendJSON writes v as JSON, wrapped in callback(...) when a JSONP
// callback was requested.
func sendJSON(c *fiber.Ctx, v any, callback, contentType string) error {
	if callback == "" {
		if err := c.JSON(v); err != nil {
			return err
		}
		if contentType != "" {
			c.Set(fiber.HeaderContentType, contentType)
		}
		return nil
	}
	if !callbackRe.MatchString(callback) {
		return errValidation(c, &validation.Error{Fields: []validation.FieldError{{Field: "callback", Tag: "jsonp"}}})
	}
	body, err := c.App().Config().JSONEncoder(v)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/javascript")
	return c.SendString(callback + "(" + string(body) + ")")
}

// sendAttachment writes a file download.
func sendAttachment(c *fiber.Ctx, filename, contentType string, body []byte) error {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+filename)
	return c.Send(body)
}
