package session

import "errors"

// ErrSessionExpired is the single user-facing condition for any token that fails verification.
// Both ErrTokenExpired and ErrTokenInvalid match it via errors.Is.
var ErrSessionExpired = errors.New("session expired, please sign in again")

var (
	// ErrTokenExpired is returned for a well-formed token past its expiry.
	ErrTokenExpired error = &tokenError{reason: "token expired"}

	// ErrTokenInvalid is returned for a malformed token or a bad signature.
	ErrTokenInvalid error = &tokenError{reason: "token invalid"}

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)

type tokenError struct {
	reason string
}

func (e *tokenError) Error() string { return e.reason }

func (e *tokenError) Is(target error) bool { return target == ErrSessionExpired }
