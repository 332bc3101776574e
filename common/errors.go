package common

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

var (
	ErrUnauthenticated = errors.New("user not authenticated")
	ErrForbidden       = errors.New("not allowed to modify this post")
	ErrNotFound        = errors.New("not found")
	ErrExternal        = errors.New("external service error")
)

// ValidationError reports a required field that is missing or malformed
// before any write is attempted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func Invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFound wraps ErrNotFound with the missing thing's name.
func NotFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

// StoreError converts gorm.ErrRecordNotFound into ErrNotFound and wraps
// everything else with the operation name.
func StoreError(op, what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(what)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Status maps an error to the HTTP status used in the result envelope.
func Status(err error) int {
	var verr *ValidationError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrExternal):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
