// Package apperr defines the error kinds shared by the domain services and
// their mapping onto HTTP responses.
//
// Services wrap one of the sentinel kinds with context using fmt.Errorf and
// %w; handlers call HTTPError to turn the result into an echo.HTTPError.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

var (
	// ErrValidation marks a missing or malformed input field.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a missing record or a record the caller does not own.
	ErrNotFound = errors.New("not found")
	// ErrIncompleteProfile marks a TDEE/LBM computation that lacks inputs.
	ErrIncompleteProfile = errors.New("incomplete profile")
	// ErrConflict marks a uniqueness violation such as a duplicate email.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized marks failed credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrLocked marks a caller that is temporarily blocked from logging in.
	ErrLocked = errors.New("too many failed attempts")
	// ErrPersistence marks a storage failure. Its details are never shown
	// to the caller.
	ErrPersistence = errors.New("persistence failure")
)

// Validation returns an ErrValidation wrapping a formatted message.
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound returns an ErrNotFound naming the missing entity.
func NotFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}

// Persistence wraps a storage error so that it is reported generically.
func Persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}

// Status returns the HTTP status code for err.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrIncompleteProfile):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrLocked):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// HTTPError converts err into an echo.HTTPError. Server errors carry a
// generic message and keep err as the internal cause for logging.
func HTTPError(err error) *echo.HTTPError {
	status := Status(err)
	if status == http.StatusInternalServerError {
		return echo.NewHTTPError(status, "internal server error").SetInternal(err)
	}
	return echo.NewHTTPError(status, err.Error())
}
