package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
)

const (
	// SecretEnvKey is the env var name for the token signing secret.
	// #nosec G101 -- not a credential; it's an environment variable name.
	SecretEnvKey = "GQLSOCIAL_TOKEN_SECRET"

	// MinSecretBytes is the shortest secret accepted for HS256 or v4.local.
	MinSecretBytes = 32
)

// Purposes passed to DeriveKey.
const (
	PurposeJWT    = "gqlsocial/session/jwt-hs256"
	PurposePaseto = "gqlsocial/session/paseto-v4-local"
)

// CheckSecret enforces the minimum length on an already-loaded secret.
func CheckSecret(secret []byte, minBytes int) error {
	if len(secret) == 0 {
		return ErrSecretMissing
	}
	if minBytes > 0 && len(secret) < minBytes {
		return ErrSecretTooShort
	}
	return nil
}

// SecretFromEnv returns the configured secret bytes (trimmed), enforcing a minimum byte length.
// If the env var is missing/blank -> ErrSecretMissing.
// If too short -> ErrSecretTooShort.
func SecretFromEnv(minBytes int) ([]byte, error) {
	b := []byte(strings.TrimSpace(os.Getenv(SecretEnvKey)))
	if err := CheckSecret(b, minBytes); err != nil {
		return nil, err
	}
	return b, nil
}

// DeriveKey returns a 32-byte key bound to purpose.
func DeriveKey(secret []byte, purpose string) []byte {
	m := hmac.New(sha256.New, secret)
	_, _ = m.Write([]byte(purpose))
	return m.Sum(nil)
}

// Fingerprint returns a short, non-reversible tag for a token, safe to log.
func Fingerprint(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:8])
}
