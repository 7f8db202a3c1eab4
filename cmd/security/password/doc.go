// Package password provides password hashing and verification for gqlsocial.
//
// Two schemes are supported:
//   - argon2id (default), encoded as a PHC-like string
//   - bcrypt, encoded in the standard $2a$/$2b$ form
//
// Both take a single tunable work factor: argon2id iterations or bcrypt cost.
// Verify dispatches on the stored hash prefix, so a deployment can switch the
// hashing scheme without invalidating existing credentials.
//
// Security notes:
//   - Hash strings are treated as untrusted input during Verify.
//   - Verification refuses argon2id hashes whose parameters exceed reasonable bounds.
package password
