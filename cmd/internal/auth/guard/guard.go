// Package guard wraps operations with identity and ownership checks.
//
// Guards are decorators: each takes an Op and returns an Op with the same
// signature that runs its check first and short-circuits with a typed error,
// so the wrapped operation never starts when the check fails.
//
//	deletePost := guard.RequireAuthenticated(guard.RequireResourceOwner(lookupPost, deletePostOp))
package guard

import (
	"context"

	"gqlsocial/cmd/identity"
)

// Op is a single operation taking arguments A and producing R.
type Op[A, R any] func(ctx context.Context, args A) (R, error)

// Owned is a resource with a recorded owner.
type Owned interface {
	OwnerID() int64
}

// Lookup resolves the resource targeted by args. ok=false with a nil error
// means absent; a non-nil error is returned to the caller as is.
type Lookup[A any] func(ctx context.Context, args A) (res Owned, ok bool, err error)

// RequireAuthenticated fails with ErrNotAuthenticated when ctx carries no identity.
// Otherwise op runs with the same ctx and args.
func RequireAuthenticated[A, R any](op Op[A, R]) Op[A, R] {
	return func(ctx context.Context, args A) (R, error) {
		if _, err := Caller(ctx); err != nil {
			var zero R
			return zero, err
		}
		return op(ctx, args)
	}
}

// RequireResourceOwner runs op only when the caller owns the resource found by lookup.
//
// Order of checks: identity present (ErrNotAuthenticated), lookup succeeds,
// resource exists (ErrNotFound), owner matches caller (ErrForbidden).
func RequireResourceOwner[A, R any](lookup Lookup[A], op Op[A, R]) Op[A, R] {
	return func(ctx context.Context, args A) (R, error) {
		var zero R

		caller, err := Caller(ctx)
		if err != nil {
			return zero, err
		}

		res, ok, err := lookup(ctx, args)
		if err != nil {
			return zero, err
		}
		if !ok || res == nil {
			return zero, identity.NotFoundError{Op: "guard.RequireResourceOwner", Resource: "resource"}
		}
		if res.OwnerID() != caller.UserID {
			return zero, identity.OpError{Op: "guard.RequireResourceOwner", Kind: identity.ErrForbidden, Msg: "caller is not the owner"}
		}
		return op(ctx, args)
	}
}

// Caller returns the identity bound to ctx or ErrNotAuthenticated.
func Caller(ctx context.Context) (identity.Claims, error) {
	c, ok := identity.ClaimsFromContext(ctx)
	if !ok {
		return identity.Claims{}, identity.OpError{Op: "guard.RequireAuthenticated", Kind: identity.ErrNotAuthenticated, Msg: "sign in required"}
	}
	return c, nil
}
