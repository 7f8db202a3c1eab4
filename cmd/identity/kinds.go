package identity

import "errors"

// Sentinel error kinds (stable for errors.Is and for mapping to API error codes).
var (
	ErrInvalidInput     = errors.New("invalid_input")
	ErrNotFound         = errors.New("not_found")
	ErrConflict         = errors.New("conflict")
	ErrNotAuthenticated = errors.New("not_authenticated")
	ErrForbidden        = errors.New("forbidden")

	ErrDuplicateEmail  = errors.New("duplicate_email")
	ErrNoSuchAccount   = errors.New("no_such_account")
	ErrInvalidPassword = errors.New("invalid_password")
)
