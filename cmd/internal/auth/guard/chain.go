package guard

import (
	"context"
	"errors"
	"log/slog"

	"gqlsocial/cmd/identity"
)

// Middleware decorates an Op.
type Middleware[A, R any] func(Op[A, R]) Op[A, R]

// Chain is an ordered list of middlewares. The first element runs first.
type Chain[A, R any] []Middleware[A, R]

// Then composes the chain around op.
func (c Chain[A, R]) Then(op Op[A, R]) Op[A, R] {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i] != nil {
			op = c[i](op)
		}
	}
	return op
}

// Authenticated is RequireAuthenticated as a chain element.
func Authenticated[A, R any]() Middleware[A, R] {
	return RequireAuthenticated[A, R]
}

// Owner is RequireResourceOwner as a chain element.
func Owner[A, R any](lookup Lookup[A]) Middleware[A, R] {
	return func(op Op[A, R]) Op[A, R] {
		return RequireResourceOwner(lookup, op)
	}
}

// Logged records denials from the rest of the chain under name.
func Logged[A, R any](log *slog.Logger, name string) Middleware[A, R] {
	if log == nil {
		log = slog.Default()
	}
	return func(op Op[A, R]) Op[A, R] {
		return func(ctx context.Context, args A) (R, error) {
			res, err := op(ctx, args)
			if err != nil && isDenial(err) {
				attrs := []any{"op", name, "reason", reason(err)}
				if c, ok := identity.ClaimsFromContext(ctx); ok {
					attrs = append(attrs, "user_id", c.UserID)
				}
				log.InfoContext(ctx, "guard.denied", attrs...)
			}
			return res, err
		}
	}
}

func isDenial(err error) bool {
	return errors.Is(err, identity.ErrNotAuthenticated) ||
		errors.Is(err, identity.ErrForbidden)
}

func reason(err error) string {
	if errors.Is(err, identity.ErrNotAuthenticated) {
		return "not_authenticated"
	}
	return "forbidden"
}
