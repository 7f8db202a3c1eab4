package session

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gqlsocial/cmd/security/token"
)

// Format selects the session token encoding.
type Format string

const (
	// FormatJWT issues HS256 JSON Web Tokens.
	FormatJWT Format = "jwt"
	// FormatPaseto issues PASETO v4.local tokens.
	FormatPaseto Format = "paseto"
)

// Config defines all runtime configuration for the session subsystem.
type Config struct {
	// Issuer is the value set in the "iss" claim and required on verify.
	Issuer string

	// TTL is the absolute token lifetime measured from issuance.
	TTL time.Duration

	// ClockSkew is the leeway applied to expiry checks during verification.
	ClockSkew time.Duration

	Format Format

	// Secret is the signing secret. It is never derivable from a token.
	Secret []byte
}

// DefaultConfig returns the default configuration without a secret.
func DefaultConfig() Config {
	return Config{
		Issuer:    "gqlsocial",
		TTL:       24 * time.Hour,
		ClockSkew: 0,
		Format:    FormatJWT,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - GQLSOCIAL_TOKEN_SECRET (>= 32 bytes)
//
// Optional (durations must be valid Go duration strings):
//   - GQLSOCIAL_TOKEN_FORMAT (jwt|paseto)
//   - GQLSOCIAL_TOKEN_TTL
//   - GQLSOCIAL_TOKEN_ISSUER
//   - GQLSOCIAL_TOKEN_CLOCK_SKEW
//
// Returns an error matching ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("GQLSOCIAL_TOKEN_ISSUER"); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("GQLSOCIAL_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.TTL = d
	}

	if v := os.Getenv("GQLSOCIAL_TOKEN_CLOCK_SKEW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.ClockSkew = d
	}

	if v := os.Getenv("GQLSOCIAL_TOKEN_FORMAT"); v != "" {
		f, err := ParseFormat(v)
		if err != nil {
			return Config{}, err
		}
		cfg.Format = f
	}

	secret, err := token.SecretFromEnv(token.MinSecretBytes)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	cfg.Secret = secret

	return cfg, nil
}

// ParseFormat maps a config string onto a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJWT:
		return FormatJWT, nil
	case FormatPaseto:
		return FormatPaseto, nil
	default:
		return "", fmt.Errorf("%w: unknown token format %q", ErrConfig, s)
	}
}
