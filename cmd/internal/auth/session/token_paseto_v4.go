package session

import (
	"strconv"
	"time"

	paseto "aidanwoods.dev/go-paseto"

	"gqlsocial/cmd/identity"
	"gqlsocial/cmd/identity/ids"
	"gqlsocial/cmd/security/token"
)

type pasetoV4LocalManager struct {
	issuer    string
	ttl       time.Duration
	clockSkew time.Duration

	key paseto.V4SymmetricKey
}

// NewPasetoV4LocalManager builds a TokenManager based on PASETO v4.local.
//
// The symmetric key is derived from cfg.Secret, so the same secret can back either format.
// Expiry is checked against the caller's clock, not the parser's.
func NewPasetoV4LocalManager(cfg Config) (TokenManager, error) {
	if err := token.CheckSecret(cfg.Secret, token.MinSecretBytes); err != nil {
		return nil, ErrConfig
	}

	key, err := paseto.V4SymmetricKeyFromBytes(token.DeriveKey(cfg.Secret, token.PurposePaseto))
	if err != nil {
		return nil, ErrConfig
	}

	return &pasetoV4LocalManager{
		issuer:    cfg.Issuer,
		ttl:       cfg.TTL,
		clockSkew: cfg.ClockSkew,
		key:       key,
	}, nil
}

func (m *pasetoV4LocalManager) Issue(c identity.Claims, now time.Time) (string, time.Time, error) {
	exp := now.Add(m.ttl)

	tok := paseto.NewToken()
	tok.SetIssuer(m.issuer)
	tok.SetSubject(strconv.FormatInt(c.UserID, 10))
	tok.SetJti(ids.New(now))
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(exp)

	if err := tok.Set("email", c.Email); err != nil {
		return "", time.Time{}, err
	}
	if err := tok.Set("name", c.Name); err != nil {
		return "", time.Time{}, err
	}

	return tok.V4Encrypt(m.key, nil), exp, nil
}

func (m *pasetoV4LocalManager) Verify(tok string, now time.Time) (identity.Claims, error) {
	// Fresh parser per call; time rules are applied below against now.
	p := paseto.NewParserWithoutExpiryCheck()
	p.AddRule(paseto.IssuedBy(m.issuer))

	parsed, err := p.ParseV4Local(m.key, tok, nil)
	if err != nil {
		return identity.Claims{}, ErrTokenInvalid
	}

	exp, err := parsed.GetExpiration()
	if err != nil {
		return identity.Claims{}, ErrTokenInvalid
	}
	if nbf, err := parsed.GetNotBefore(); err == nil && now.Add(m.clockSkew).Before(nbf) {
		return identity.Claims{}, ErrTokenInvalid
	}
	if !now.Before(exp.Add(m.clockSkew)) {
		return identity.Claims{}, ErrTokenExpired
	}

	sub, err := parsed.GetSubject()
	if err != nil {
		return identity.Claims{}, ErrTokenInvalid
	}
	uid, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || uid <= 0 {
		return identity.Claims{}, ErrTokenInvalid
	}

	email, err := parsed.GetString("email")
	if err != nil {
		return identity.Claims{}, ErrTokenInvalid
	}
	name, _ := parsed.GetString("name")

	return identity.Claims{UserID: uid, Email: email, Name: name}, nil
}
