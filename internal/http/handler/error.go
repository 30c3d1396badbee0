package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"userapi/internal/http/middleware"
	"userapi/internal/logger"
	"userapi/internal/orm"
	"userapi/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError maps a user service error onto the response. Unclassified errors are logged
// and answered with 500.
func writeServiceError(c *fiber.Ctx, err error) error {
	var verr *orm.ValidationError
	switch {
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "user not found")
	case errors.As(err, &verr):
		return writeError(c, fiber.StatusUnprocessableEntity, "VALIDATION_FAILED", verr.Field+" "+verr.Reason)
	case errors.Is(err, orm.ErrValidation):
		return writeError(c, fiber.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed")
	case errors.Is(err, orm.ErrConstraint):
		return writeError(c, fiber.StatusConflict, "CONFLICT", "user conflicts with an existing record")
	}
	logger.Ctx(c.UserContext(), logger.Nop()).Errorw("request_failed", "error", err)
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			logger.Ctx(c.UserContext(), logger.Nop()).Errorw("unhandled_error", "status", status, "error", err)
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
