// Package session implements gqlsocial's stateless session tokens.
//
// A session token carries the caller's identity claims and an absolute expiry.
// There is no server-side session table: validity is decided by signature and
// expiry at verification time, so a token cannot be revoked before it expires.
//
// Two token formats are supported, selected by GQLSOCIAL_TOKEN_FORMAT:
//   - jwt: HS256 JSON Web Tokens (default)
//   - paseto: PASETO v4.local, keyed from the same secret
//
// Transport (HTTP/WS) integration is intentionally out of scope here.
package session
