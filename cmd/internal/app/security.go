package app

import (
	"errors"
	"fmt"

	"gqlsocial/cmd/security/token"
)

// ValidateSecurityConfig enforces the startup security policy. It fails fast
// instead of letting the server run with a weak or missing signing secret.
func ValidateSecurityConfig(cfg Config) error {
	if _, err := token.SecretFromEnv(token.MinSecretBytes); err != nil {
		switch {
		case errors.Is(err, token.ErrSecretMissing):
			return fmt.Errorf("security policy: %s is missing", token.SecretEnvKey)
		case errors.Is(err, token.ErrSecretTooShort):
			return fmt.Errorf("security policy: %s is too short (min %d bytes)", token.SecretEnvKey, token.MinSecretBytes)
		default:
			return err
		}
	}

	if cfg.CORSAllowCredentials {
		for _, o := range cfg.CORSAllowedOrigins {
			if o == "*" {
				return errors.New("security policy: CORS credentials cannot be combined with a wildcard origin")
			}
		}
	}
	return nil
}
