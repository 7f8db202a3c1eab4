package session

import (
	"time"

	"gqlsocial/cmd/identity"
	"gqlsocial/cmd/security/token"
)

// TokenManager issues and verifies session tokens of one format.
type TokenManager interface {
	Issue(c identity.Claims, now time.Time) (tok string, exp time.Time, err error)

	// Verify returns ErrTokenExpired or ErrTokenInvalid on failure.
	Verify(tok string, now time.Time) (identity.Claims, error)
}

// NewTokenManager builds the TokenManager selected by cfg.Format.
func NewTokenManager(cfg Config) (TokenManager, error) {
	if err := token.CheckSecret(cfg.Secret, token.MinSecretBytes); err != nil {
		return nil, ErrConfig
	}
	if cfg.TTL <= 0 || cfg.ClockSkew < 0 {
		return nil, ErrConfig
	}

	switch cfg.Format {
	case FormatJWT, "":
		return NewJWTManager(cfg)
	case FormatPaseto:
		return NewPasetoV4LocalManager(cfg)
	default:
		return nil, ErrConfig
	}
}
