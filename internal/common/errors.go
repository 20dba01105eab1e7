// Package common defines shared constants and sentinel errors used across
// the gophauth packages. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// ErrDenied is the only failure login and exchange ever report.
	ErrDenied = errors.New("denied")

	// Credential policy errors.
	ErrValidation     = errors.New("validation error")
	ErrReuseViolation = errors.New("password was used recently")

	// Token errors.
	ErrInvalidToken      = errors.New("invalid token")
	ErrInvalidSignature  = errors.New("invalid token signature")
	ErrTokenExpired      = errors.New("token expired")
	ErrMalformedToken    = errors.New("malformed token")
	ErrTokenKindMismatch = errors.New("unexpected token kind")
	ErrAudienceMismatch  = errors.New("token audience mismatch")
	ErrTokenRevoked      = errors.New("token revoked")

	// ErrConfiguration is fatal at startup.
	ErrConfiguration = errors.New("configuration error")
)
