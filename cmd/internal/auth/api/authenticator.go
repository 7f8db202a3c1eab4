// Package authapi connects HTTP requests and credential operations to the
// identity store and the session token service.
package authapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"gqlsocial/cmd/identity"
	"gqlsocial/cmd/internal/auth/session"
	"gqlsocial/cmd/security/token"
)

// Sessions issues and verifies session tokens. *session.Service satisfies it.
type Sessions interface {
	Issue(u identity.User, now time.Time) (session.Issued, error)
	Verify(tok string, now time.Time) (identity.Claims, error)
}

// Authenticator implements sign-up, login and request authentication.
type Authenticator struct {
	log      *slog.Logger
	cfg      Config
	users    identity.Store
	sessions Sessions
	audit    Auditor
	validate *validator.Validate
	now      func() time.Time
}

// Option configures optional Authenticator dependencies.
type Option func(*Authenticator)

// WithAuditor overrides the default log-backed auditor.
func WithAuditor(au Auditor) Option {
	return func(a *Authenticator) {
		if a == nil || au == nil {
			return
		}
		a.audit = au
	}
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		if a == nil || now == nil {
			return
		}
		a.now = now
	}
}

// New constructs an Authenticator.
func New(log *slog.Logger, cfg Config, users identity.Store, sessions Sessions, opts ...Option) *Authenticator {
	if log == nil {
		log = slog.Default()
	}
	cfg.TokenHeader = canonicalHeader(cfg.TokenHeader)

	a := &Authenticator{
		log:      log,
		cfg:      cfg,
		users:    users,
		sessions: sessions,
		audit:    LogAuditor{Log: log},
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(a)
	}
	return a
}

// TokenHeader is the canonical custom header accepted besides Authorization.
func (a *Authenticator) TokenHeader() string { return a.cfg.TokenHeader }

// SignUp registers a new account. The returned user never carries the password hash.
func (a *Authenticator) SignUp(ctx context.Context, in SignUpInput) (identity.User, error) {
	const op = "authapi.SignUp"

	in.Email = strings.TrimSpace(in.Email)
	if err := a.presence(op, in); err != nil {
		return identity.User{}, err
	}

	ip := clientIPFromContext(ctx)
	u, err := a.users.Register(ctx, identity.RegisterInput{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Now:      a.now(),
	})
	if err != nil {
		if errors.Is(err, identity.ErrDuplicateEmail) {
			a.auditSignupFailed(ctx, identity.NormalizeEmail(in.Email), ip, "duplicate_email")
		}
		return identity.User{}, err
	}

	a.auditSignup(ctx, u.ID, ip)
	return u, nil
}

// Login verifies credentials and issues a session token.
func (a *Authenticator) Login(ctx context.Context, in LoginInput) (session.Issued, error) {
	const op = "authapi.Login"

	in.Email = strings.TrimSpace(in.Email)
	if err := a.presence(op, in); err != nil {
		return session.Issued{}, err
	}

	ip := clientIPFromContext(ctx)
	email := identity.NormalizeEmail(in.Email)

	u, err := a.users.VerifyCredentials(ctx, in.Email, in.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrNoSuchAccount):
			a.auditLoginFailed(ctx, email, ip, "no_such_account")
		case errors.Is(err, identity.ErrInvalidPassword):
			a.auditLoginFailed(ctx, email, ip, "invalid_password")
		}
		return session.Issued{}, err
	}

	issued, err := a.sessions.Issue(u, a.now())
	if err != nil {
		a.log.ErrorContext(ctx, "auth.login.issue.fail", "err", err, "user_id", u.ID)
		return session.Issued{}, err
	}

	a.auditLoginSuccess(ctx, u.ID, ip, email)
	return issued, nil
}

// Authenticate resolves the identity carried by r.
//
// No token: ok=false, err=nil (anonymous).
// Token present but invalid or expired: err matches session.ErrSessionExpired.
func (a *Authenticator) Authenticate(r *http.Request) (identity.Claims, bool, error) {
	tok, present := tokenFromRequest(r, a.cfg.TokenHeader)
	if !present {
		return identity.Claims{}, false, nil
	}
	return a.verify(r.Context(), tok, clientIP(r, a.cfg.TrustProxy))
}

// AuthenticateToken verifies a token obtained outside the standard headers.
func (a *Authenticator) AuthenticateToken(ctx context.Context, tok string) (identity.Claims, bool, error) {
	if strings.TrimSpace(tok) == "" {
		return identity.Claims{}, false, nil
	}
	return a.verify(ctx, tok, clientIPFromContext(ctx))
}

func (a *Authenticator) verify(ctx context.Context, tok string, ip net.IP) (identity.Claims, bool, error) {
	claims, err := a.sessions.Verify(tok, a.now())
	if err != nil {
		a.auditTokenRejected(ctx, ip, token.Fingerprint(tok))
		return identity.Claims{}, false, err
	}
	return claims, true, nil
}

// Middleware binds the request identity into the context.
// Anonymous requests pass through; a rejected token ends the request with 401.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := withClientIP(r.Context(), clientIP(r, a.cfg.TrustProxy))
		r = r.WithContext(ctx)

		claims, ok, err := a.Authenticate(r)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", session.ErrSessionExpired.Error())
			return
		}
		if ok {
			ctx = identity.WithClaims(ctx, claims)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) presence(op string, v any) error {
	err := a.validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return identity.OpError{Op: op, Kind: identity.ErrInvalidInput, Msg: strings.ToLower(verrs[0].Field()) + " is required"}
	}
	return identity.OpError{Op: op, Kind: identity.ErrInvalidInput, Msg: err.Error()}
}

type clientIPKey struct{}

func withClientIP(ctx context.Context, ip net.IP) context.Context {
	if ip == nil {
		return ctx
	}
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func clientIPFromContext(ctx context.Context) net.IP {
	ip, _ := ctx.Value(clientIPKey{}).(net.IP)
	return ip
}
