package service

import "errors"

var (
	// ErrInvalidCredentials is returned for both an unknown username and a
	// wrong password so responses cannot reveal whether an account exists.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated covers a missing, unknown, or expired session.
	ErrUnauthenticated = errors.New("unauthenticated")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
