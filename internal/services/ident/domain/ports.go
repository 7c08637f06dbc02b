// Package domain defines identity and capability types shared by the API modules
package domain

import (
	"context"
	"slices"
)

// Roles granted through the bearer token
const (
	RoleSeller    = "seller"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// Principal is the caller behind a request; a zero ID is anonymous
type Principal struct {
	ID    string
	Roles []string
}

// Anonymous reports whether no caller was resolved
func (p Principal) Anonymous() bool { return p.ID == "" }

// Has reports whether p holds any of roles
func (p Principal) Has(roles ...string) bool {
	for _, r := range roles {
		if slices.Contains(p.Roles, r) {
			return true
		}
	}
	return false
}

// Reviewer reports whether p may moderate listings
func (p Principal) Reviewer() bool { return p.Has(RoleModerator, RoleAdmin) }

// Action is something a principal asks to do to a listing
type Action string

// Listing actions
const (
	ActionCreate      Action = "create"
	ActionEdit        Action = "edit"
	ActionModerate    Action = "moderate"
	ActionMarkSold    Action = "mark_sold"
	ActionViewPrivate Action = "view_private"
)

// Target is the listing an action applies to; empty for create
type Target struct {
	ListingID string
	OwnerID   string
}

// CapabilityPort answers canPerform for the listing service
type CapabilityPort interface {
	CanPerform(ctx context.Context, p Principal, a Action, t Target) (bool, error)
}

// QuotaRepo counts what an owner already has open
type QuotaRepo interface {
	// CountOpen returns the owner's listings that are not sold, expired or rejected
	CountOpen(ctx context.Context, ownerID string) (int, error)
}

// TokenPort issues and parses bearer tokens
type TokenPort interface {
	Issue(p Principal) (string, error)
	Parse(token string) (userID string, roles []string, err error)
}
