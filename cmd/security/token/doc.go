// Package token holds the signing-secret primitives shared by the session layer.
//
// It is the single source of truth for how the configured secret is loaded,
// validated and turned into per-purpose keys.
//
// Environment:
// - GQLSOCIAL_TOKEN_SECRET: required, at least MinSecretBytes long.
//
// Per-format keys are derived with HMAC-SHA256(secret, purpose) so the same
// secret never feeds two algorithms directly.
package token
