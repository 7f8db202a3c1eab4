package identity

import "context"

// Claims is the verified identity attached to a request.
type Claims struct {
	UserID int64
	Email  string
	Name   string
}

type claimsKey struct{}

// WithClaims binds c to ctx.
func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext returns the identity bound to ctx, if any.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(Claims)
	if !ok || c.UserID == 0 {
		return Claims{}, false
	}
	return c, true
}

// ClaimsFor builds the claims carried in a session token for u.
func ClaimsFor(u User) Claims {
	return Claims{UserID: u.ID, Email: u.Email, Name: u.Name}
}
