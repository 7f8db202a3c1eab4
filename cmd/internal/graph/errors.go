package graph

import (
	"context"
	"errors"
	"log/slog"

	"gqlsocial/cmd/identity"
	"gqlsocial/cmd/internal/auth/session"
)

// Error codes carried in extensions.code.
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeDuplicateEmail  = "DUPLICATE_EMAIL"
	CodeNoSuchAccount   = "NO_SUCH_ACCOUNT"
	CodeInvalidPassword = "INVALID_PASSWORD"
	CodeConflict        = "CONFLICT"
	CodeBadUserInput    = "BAD_USER_INPUT"
	CodeInternal        = "INTERNAL_SERVER_ERROR"
)

// Error is a resolver error with a stable code. graphql-go copies Extensions into the response.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Extensions implements the graphql-go extensions hook.
func (e *Error) Extensions() map[string]any {
	return map[string]any{"code": e.Code}
}

// toError maps a domain error onto a user-facing resolver error.
// Unknown errors are logged and hidden behind a generic message.
func toError(ctx context.Context, log *slog.Logger, op string, err error) error {
	if err == nil {
		return nil
	}

	var ce identity.ConflictError
	var oe identity.OpError
	var nf identity.NotFoundError

	switch {
	case errors.Is(err, session.ErrSessionExpired):
		return &Error{Code: CodeUnauthenticated, Message: session.ErrSessionExpired.Error()}
	case errors.Is(err, identity.ErrNotAuthenticated):
		return &Error{Code: CodeUnauthenticated, Message: "sign in required"}
	case errors.Is(err, identity.ErrForbidden):
		return &Error{Code: CodeForbidden, Message: "not allowed to modify this resource"}
	case errors.Is(err, identity.ErrDuplicateEmail):
		return &Error{Code: CodeDuplicateEmail, Message: "email already registered"}
	case errors.Is(err, identity.ErrNoSuchAccount):
		return &Error{Code: CodeNoSuchAccount, Message: "no account for this email"}
	case errors.Is(err, identity.ErrInvalidPassword):
		return &Error{Code: CodeInvalidPassword, Message: "wrong password"}
	case errors.As(err, &nf):
		msg := "not found"
		if nf.Resource != "" {
			msg = nf.Resource + " not found"
		}
		return &Error{Code: CodeNotFound, Message: msg}
	case errors.Is(err, identity.ErrNotFound):
		return &Error{Code: CodeNotFound, Message: "not found"}
	case errors.As(err, &ce):
		if ce.Field == "friend" {
			return &Error{Code: CodeConflict, Message: "already friends"}
		}
		return &Error{Code: CodeConflict, Message: "conflict: " + ce.Field}
	case errors.Is(err, identity.ErrConflict):
		return &Error{Code: CodeConflict, Message: "conflict"}
	case errors.Is(err, identity.ErrInvalidInput):
		msg := "invalid input"
		if errors.As(err, &oe) && oe.Msg != "" {
			msg = oe.Msg
		}
		return &Error{Code: CodeBadUserInput, Message: msg}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Error{Code: CodeInternal, Message: "request cancelled"}
	default:
		log.ErrorContext(ctx, "graphql.resolver.fail", "op", op, "err", err)
		return &Error{Code: CodeInternal, Message: "internal error"}
	}
}

func badInput(msg string) error {
	return &Error{Code: CodeBadUserInput, Message: msg}
}
