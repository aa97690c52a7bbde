package auth

import "errors"

// Sentinel errors returned by the auth service. Handlers map these onto
// HTTP statuses; the error text is what callers are allowed to see.
var (
	// ErrInvalidCredentials is returned for every failed login, whether
	// the user does not exist or the password did not match. Keeping a
	// single value prevents account enumeration.
	ErrInvalidCredentials = errors.New("invalid email/username or password")

	// ErrUnauthorized is returned by admin guards for anonymous and
	// non-admin callers alike.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict is returned when a username or email is already taken.
	ErrConflict = errors.New("username or email already exists")
)

// ValidationError reports user-correctable bad input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
