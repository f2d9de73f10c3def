// utils/errors.go
package utils

import (
	"errors"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
)

// AppError is the error vocabulary every service speaks. Code is the stable
// machine-readable identifier, Status the HTTP status it maps to.
type AppError struct {
	Code    string `json:"code"`
	Status  int    `json:"-"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

func NewBadRequest(message string) *AppError {
	return &AppError{Code: "BAD_REQUEST", Status: fiber.StatusBadRequest, Message: message}
}

func NewUnauthorized(message string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Status: fiber.StatusUnauthorized, Message: message}
}

func NewForbidden(message string) *AppError {
	return &AppError{Code: "FORBIDDEN", Status: fiber.StatusForbidden, Message: message}
}

func NewNotFound(message string) *AppError {
	return &AppError{Code: "NOT_FOUND", Status: fiber.StatusNotFound, Message: message}
}

func NewConflict(message string) *AppError {
	return &AppError{Code: "CONFLICT", Status: fiber.StatusConflict, Message: message}
}

// NewNotFoundUpstream — BGG has no such item. A domain 404, never retried.
func NewNotFoundUpstream(message string) *AppError {
	return &AppError{Code: "NOT_FOUND_UPSTREAM", Status: fiber.StatusNotFound, Message: message}
}

// NewUpstreamError — network failure, timeout or malformed payload from an
// external service.
func NewUpstreamError(message string) *AppError {
	return &AppError{Code: "UPSTREAM_ERROR", Status: fiber.StatusBadGateway, Message: message}
}

func NewRateLimited(message string) *AppError {
	return &AppError{Code: "RATE_LIMITED", Status: fiber.StatusTooManyRequests, Message: message}
}

func NewInvalidRequest(message string) *AppError {
	return &AppError{Code: "INVALID_REQUEST", Status: fiber.StatusBadRequest, Message: message}
}

// NewPayloadTooLarge — caller sent more text than one translation request
// allows; should not happen when the chunking path is used.
func NewPayloadTooLarge(message string) *AppError {
	return &AppError{Code: "PAYLOAD_TOO_LARGE", Status: fiber.StatusRequestEntityTooLarge, Message: message}
}

// ErrorHandler is the app-wide fiber error handler. AppErrors map to their
// status and code; anything else is masked as a generic 500 outside
// development (the raw message leaks nothing useful to users anyway).
func ErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(fiber.Map{
			"success": false,
			"error":   appErr.Message,
			"code":    appErr.Code,
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"success": false,
			"error":   fiberErr.Message,
			"code":    "HTTP_ERROR",
		})
	}

	log.Printf("❌ [ERROR] unhandled error on %s %s: %v", c.Method(), c.Path(), err)

	message := "internal server error"
	if os.Getenv("APP_ENV") == "development" {
		message = err.Error()
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   message,
		"code":    "INTERNAL_SERVER_ERROR",
	})
}
