package httpkit

import (
	"net/http"
	"strings"

	perrs "harborlist/internal/platform/errors"
)

// TokenFunc parses a bearer token and returns the user id and granted roles
type TokenFunc func(token string) (userID string, roles []string, err error)

// Port implements middleware.AuthPort over a TokenFunc
type Port struct {
	parse TokenFunc
}

// NewPortFunc builds a Port from fn
func NewPortFunc(fn TokenFunc) *Port { return &Port{parse: fn} }

// Parse reads "Authorization: Bearer <token>". The scheme is matched without
// case. Every failure is 401 and never says which check failed
func (p *Port) Parse(r *http.Request) (string, []string, error) {
	scheme, token, _ := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	token = strings.TrimSpace(token)
	if !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", nil, perrs.Unauthorizedf("missing bearer token")
	}
	if p.parse == nil {
		return "", nil, perrs.Unauthorizedf("invalid bearer token")
	}
	uid, roles, err := p.parse(token)
	if err != nil || uid == "" {
		return "", nil, perrs.Unauthorizedf("invalid bearer token")
	}
	return uid, roles, nil
}
