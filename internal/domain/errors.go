package domain

import "errors"

// Sentinel errors. These let the transport layer map internal outcomes to
// status codes (e.g. ErrForbidden -> 403). All of them are expected results
// callers branch on; anything else is an infrastructure failure.

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrTokenExpired    = errors.New("token expired")
	ErrTokenRevoked    = errors.New("token revoked")

	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrCapExceeded       = errors.New("featured slot cap exceeded")
	ErrValidation        = errors.New("validation failed")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// IsUnauthenticated reports whether err is any of the credential failures:
// unknown, expired or revoked tokens all resolve to "who are you" at the
// boundary.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenRevoked)
}
