// Package common defines shared constants and sentinel errors used across
// client and server layers of SecureVault. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

// Errors reported to callers of the vault client core.
var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnregistered       = errors.New("unregistered")
	ErrEmailInUse         = errors.New("email already in use")
	ErrWeakSecret         = errors.New("weak secret")
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = ErrorNotFound
	ErrNetworkFailure     = errors.New("network failure")
	ErrBackendFailure     = errors.New("backend failure")

	// ErrStaleScope is returned when a response arrives for an identity
	// that is no longer current. It is never shown to the user.
	ErrStaleScope = errors.New("stale scope")
)

// ValidationError names the offending field. It matches ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError is a shorthand for &ValidationError{field, reason}.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
