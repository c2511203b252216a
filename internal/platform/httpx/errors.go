// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// FieldErrors carries per-field validation detail. It wraps ErrValidation so
// callers can map it with errors.Is while handlers surface the field map.
type FieldErrors map[string]string

// Error implements the error interface.
func (f FieldErrors) Error() string { return "validation failed" }

// Unwrap links FieldErrors into the ErrValidation chain.
func (f FieldErrors) Unwrap() error { return ErrValidation }

// RespondError maps domain errors to HTTP responses using RFC7807.
// Forbidden responses never include the underlying reason: exposing which
// role or permission would have succeeded invites enumeration.
func RespondError(w http.ResponseWriter, err error) {
	var fields FieldErrors
	switch {
	case errors.As(err, &fields):
		ProblemFields(w, http.StatusBadRequest, "Validation Failed", fields)
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", "not permitted")
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
