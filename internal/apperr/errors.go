// Package apperr carries request-level failures from services to the HTTP layer.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("resource not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrConflict        = errors.New("conflict")
	ErrBadRequest      = errors.New("bad request")
	ErrInternal        = errors.New("internal server error")
)

// AppError is an error with the status code and client-facing message to report.
// Fields is set only for validation errors.
type AppError struct {
	Err        error
	StatusCode int
	Message    string
	Fields     map[string][]string
}

func (e *AppError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %v", e.Message, e.Fields)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// NewValidationError returns a 422 error keyed by field.
func NewValidationError(fields map[string][]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		StatusCode: http.StatusUnprocessableEntity,
		Message:    "The given data was invalid.",
		Fields:     fields,
	}
}

func NewFieldError(field, message string) *AppError {
	return NewValidationError(map[string][]string{field: {message}})
}

// NewNotFoundError reports "<resource> <id> not found", or "<resource> not found" for a nil id.
func NewNotFoundError(resource string, id any) *AppError {
	msg := fmt.Sprintf("%s %v not found", resource, id)
	if id == nil {
		msg = resource + " not found"
	}
	return &AppError{Err: ErrNotFound, StatusCode: http.StatusNotFound, Message: msg}
}

func NewForbiddenError(message string) *AppError {
	if message == "" {
		message = "Unauthorized"
	}
	return &AppError{Err: ErrForbidden, StatusCode: http.StatusForbidden, Message: message}
}

func NewUnauthenticatedError(message string) *AppError {
	if message == "" {
		message = "Unauthenticated."
	}
	return &AppError{Err: ErrUnauthenticated, StatusCode: http.StatusUnauthorized, Message: message}
}

func NewBadRequestError(message string) *AppError {
	return &AppError{Err: ErrBadRequest, StatusCode: http.StatusBadRequest, Message: message}
}

func NewConflictError(message string) *AppError {
	return &AppError{Err: ErrConflict, StatusCode: http.StatusConflict, Message: message}
}

// NewInternalError keeps the cause in Err for logging; Message never includes it.
func NewInternalError(cause error) *AppError {
	return &AppError{
		Err:        fmt.Errorf("%w: %v", ErrInternal, cause),
		StatusCode: http.StatusInternalServerError,
		Message:    "Server Error",
	}
}

// From normalises any error into an AppError. Unknown errors become 500.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return &AppError{Err: err, StatusCode: http.StatusNotFound, Message: "Not Found"}
	case errors.Is(err, ErrForbidden):
		return NewForbiddenError("")
	case errors.Is(err, ErrUnauthenticated):
		return NewUnauthenticatedError("")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &AppError{Err: err, StatusCode: http.StatusServiceUnavailable, Message: "Request timed out"}
	}
	return NewInternalError(err)
}

// StatusCode returns the HTTP status for err, 500 for unknown errors.
func StatusCode(err error) int {
	return From(err).StatusCode
}

func IsNotFound(err error) bool  { return errors.Is(err, ErrNotFound) }
func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
