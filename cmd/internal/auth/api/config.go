package authapi

import (
	"net/textproto"
	"os"
	"strconv"
	"strings"
)

// DefaultTokenHeader is the fallback header carrying a raw session token.
const DefaultTokenHeader = "x-token"

// Config controls auth API behavior.
type Config struct {
	// TokenHeader is checked when no Authorization: Bearer header is present.
	TokenHeader string

	// TrustProxy honors X-Forwarded-For / X-Real-IP for audit records.
	TrustProxy bool
}

// LoadConfigFromEnv loads auth config from environment variables with safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		TokenHeader: envString("GQLSOCIAL_AUTH_TOKEN_HEADER", DefaultTokenHeader),
		TrustProxy:  envBool("GQLSOCIAL_AUTH_TRUST_PROXY", false),
	}
	cfg.TokenHeader = canonicalHeader(cfg.TokenHeader)
	return cfg
}

func canonicalHeader(h string) string {
	h = strings.TrimSpace(h)
	if h == "" || strings.EqualFold(h, "Authorization") {
		h = DefaultTokenHeader
	}
	return textproto.CanonicalMIMEHeaderKey(h)
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
