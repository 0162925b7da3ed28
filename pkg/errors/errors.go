// Package errors defines the platform's error taxonomy: sentinel errors for
// each failure class plus an AppError wrapper that carries an HTTP status for
// the service endpoints. All failures are terminal; the core performs no
// retries.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingInput signals a required input file or table is absent.
	ErrMissingInput = errors.New("required input missing")
	// ErrUnsupportedFormat signals an unexpected file extension or schema.
	ErrUnsupportedFormat = errors.New("unsupported input format")
	// ErrDateFormat signals a date string that matches none of the accepted
	// formats.
	ErrDateFormat = errors.New("unrecognized date format")
	// ErrMalformedRecord signals a record missing title, journal, or date,
	// or a structurally malformed graph.
	ErrMalformedRecord = errors.New("malformed record")

	ErrGraphNotReady = errors.New("mention graph not built yet")
	ErrDrugNotFound  = errors.New("drug not found in graph")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInternal      = errors.New("internal error")
)

// AppError wraps a sentinel with a human-readable message and an HTTP status
// code for the service layer.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps an error to the HTTP status the service endpoints
// should return.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrMissingInput), errors.Is(err, ErrDrugNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnsupportedFormat), errors.Is(err, ErrDateFormat),
		errors.Is(err, ErrMalformedRecord), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrGraphNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
