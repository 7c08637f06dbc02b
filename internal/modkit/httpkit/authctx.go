package httpkit

import (
	"net/http"

	pnet "harborlist/internal/platform/net"
)

// Actor returns the caller id when present; anonymous requests yield ""
func Actor(r *http.Request) string { return pnet.UserID(r.Context()) }

// Roles returns the roles granted to the caller
func Roles(r *http.Request) []string { return pnet.Roles(r.Context()) }
