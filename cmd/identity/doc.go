// Package identity implements gqlsocial's credential store and identity claims.
//
// It contains the user record, the store boundary used by the social service
// and the auth API, the error taxonomy shared by every layer, and the
// per-request identity context.
//
// This package is intentionally dependency-light; password hashing is injected.
package identity
