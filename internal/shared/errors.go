package shared

import "errors"

var (
	// ErrNotFound marks an internal lookup miss. HTTP responses use the
	// httpx sentinel; this one stays inside service flows that translate
	// it (login resolves it to ErrInvalidCredentials).
	ErrNotFound = errors.New("record not found")
	// ErrInvalidCredentials is the single error login returns, whether the
	// account is missing or the password wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing is returned when a mutating request carries no
	// token.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch is returned when the token does not match the
	// session.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
