package session

import (
	"strings"
	"time"

	"gqlsocial/cmd/identity"
)

// maxTokenLen bounds attacker-supplied input before any parsing.
const maxTokenLen = 4096

// Service issues and verifies stateless session tokens.
type Service struct {
	cfg    Config
	tokens TokenManager
}

// Issued is the result of issuing a session token.
type Issued struct {
	Token     string
	ExpiresAt time.Time
}

// NewService constructs a Service using the TokenManager selected by cfg.Format.
func NewService(cfg Config) (*Service, error) {
	tokens, err := NewTokenManager(cfg)
	if err != nil {
		return nil, err
	}
	return &Service{cfg: cfg, tokens: tokens}, nil
}

// NewServiceWithManager constructs a Service over an explicit TokenManager.
func NewServiceWithManager(cfg Config, tokens TokenManager) *Service {
	return &Service{cfg: cfg, tokens: tokens}
}

// Format reports the configured token format.
func (s *Service) Format() Format { return s.cfg.Format }

// TTL reports the configured token lifetime.
func (s *Service) TTL() time.Duration { return s.cfg.TTL }

// Issue signs a token embedding u's id, email and name, expiring TTL after now.
func (s *Service) Issue(u identity.User, now time.Time) (Issued, error) {
	tok, exp, err := s.tokens.Issue(identity.ClaimsFor(u), now)
	if err != nil {
		return Issued{}, err
	}
	return Issued{Token: tok, ExpiresAt: exp}, nil
}

// Verify checks tok's signature and expiry at now and returns its claims.
// It has no side effects; every failure matches ErrSessionExpired.
func (s *Service) Verify(tok string, now time.Time) (identity.Claims, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" || len(tok) > maxTokenLen {
		return identity.Claims{}, ErrTokenInvalid
	}
	return s.tokens.Verify(tok, now)
}
