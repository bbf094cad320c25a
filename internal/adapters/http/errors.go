package http

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/dailyerosion/depbackend/internal/core/domain"
	"github.com/dailyerosion/depbackend/internal/pkg/validation"
)

// APIError is a structured error response.
type APIError struct {
	Status    int                     `json:"status"`
	Code      string                  `json:"code"`    // bad_request, validation_error, not_found, ...
	Message   string                  `json:"message"` // Human-readable message
	Fields    []validation.FieldError `json:"fields,omitempty"`
	RequestID string                  `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errValidation returns a 422 listing every failed parameter.
func errValidation(c *fiber.Ctx, verr *validation.Error) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(fiber.StatusUnprocessableEntity).JSON(APIError{
		Status:    fiber.StatusUnprocessableEntity,
		Code:      "validation_error",
		Message:   verr.Error(),
		Fields:    verr.Fields,
		RequestID: reqID,
	})
}

// errFromDomain maps service errors onto HTTP responses. Unexpected errors
// are logged and reported without detail.
func errFromDomain(c *fiber.Ctx, err error) error {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return errValidation(c, verr)
	case errors.Is(err, domain.ErrOutsideDomain), errors.Is(err, domain.ErrInvalidArgument):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrNoClimateFile):
		return errNotFound(c, "Failed to locate a climate file in vicinity of your point.")
	case errors.Is(err, domain.ErrNoData):
		return errNotFound(c, err.Error())
	case errors.Is(err, domain.ErrCatalogInconsistent):
		LoggerFromCtx(c.UserContext()).Error("climate catalog out of sync with disk", "error", err)
		return newError(c, fiber.StatusInternalServerError, "data_integrity", "climate file catalog is inconsistent")
	case errors.Is(err, context.DeadlineExceeded):
		return newError(c, fiber.StatusRequestTimeout, "timeout", "request timed out")
	default:
		LoggerFromCtx(c.UserContext()).Error("request failed", slog.String("path", c.Path()), slog.Any("error", err))
		return errInternal(c, "internal server error")
	}
}
