package application

import "errors"

// Auth failures all map to 401 at the transport layer. Login failures use
// one generic message for both unknown email and wrong password so callers
// cannot enumerate accounts.
var (
	ErrInvalidCredentials = errors.New("Incorrect email or password")
	ErrTokenExpired       = errors.New("Token has expired")
	ErrTokenInvalid       = errors.New("Could not validate credentials")
	ErrUserNotFound       = errors.New("User not found")
	ErrWrongPassword      = errors.New("Current password is incorrect")
)

// ValidationError reports malformed input; always a 400.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string { return e.Detail }

// ConflictError reports a uniqueness violation on the named field; 400.
type ConflictError struct {
	Field  string
	Detail string
}

func (e *ConflictError) Error() string { return e.Detail }

func validationErr(detail string) error {
	return &ValidationError{Detail: detail}
}

func conflictErr(field, detail string) error {
	return &ConflictError{Field: field, Detail: detail}
}
