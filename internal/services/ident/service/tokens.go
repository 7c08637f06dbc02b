package service

import (
	"time"

	perr "harborlist/internal/platform/errors"
	"harborlist/internal/services/ident/domain"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the bearer token claims; the subject is the actor id
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// Tokens signs and verifies HS256 bearer tokens
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

var _ domain.TokenPort = (*Tokens)(nil)

// NewTokens returns a token codec. An empty secret panics so an API never
// starts accepting unsigned callers
func NewTokens(secret, issuer string, ttl time.Duration) *Tokens {
	if secret == "" {
		panic("ident.Tokens requires a signing secret")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Tokens{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue signs a token for p
func (t *Tokens) Issue(p domain.Principal) (string, error) {
	if p.Anonymous() {
		return "", perr.InvalidArgf("cannot issue a token without a subject")
	}
	now := t.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Roles: p.Roles,
	})
	s, err := tok.SignedString(t.secret)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnknown, "sign token")
	}
	return s, nil
}

// Parse verifies a token and returns its subject and roles. It matches httpkit.TokenFunc
func (t *Tokens) Parse(raw string) (string, []string, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}
	tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return t.secret, nil }, opts...)
	if err != nil {
		return "", nil, perr.Wrap(err, perr.ErrorCodeUnauthorized, "invalid bearer token")
	}
	if !tok.Valid || claims.Subject == "" {
		return "", nil, perr.Unauthorizedf("invalid bearer token")
	}
	return claims.Subject, claims.Roles, nil
}
