// Package service answers capability checks for listing actions
package service

import (
	"context"

	"harborlist/internal/modkit/repokit"
	"harborlist/internal/platform/logger"
	"harborlist/internal/services/ident/domain"
)

// Svc implements domain.CapabilityPort
type Svc struct {
	db        repokit.Queryer
	binder    repokit.Binder[domain.QuotaRepo]
	maxActive int
}

var _ domain.CapabilityPort = (*Svc)(nil)

// New constructs the ident service. maxActive <= 0 disables the quota
func New(db repokit.Queryer, binder repokit.Binder[domain.QuotaRepo], maxActive int) *Svc {
	if db == nil {
		panic("ident.Service requires a non-nil Queryer")
	}
	if binder == nil {
		panic("ident.Service requires a non-nil Repo binder")
	}
	return &Svc{db: db, binder: binder, maxActive: maxActive}
}

// CanPerform applies the role table. Owners act on their own listings and
// reviewers moderate. Admins may edit anything but still count against quota
func (s *Svc) CanPerform(ctx context.Context, p domain.Principal, a domain.Action, t domain.Target) (bool, error) {
	if p.Anonymous() {
		return false, nil
	}
	owner := t.OwnerID != "" && t.OwnerID == p.ID

	switch a {
	case domain.ActionCreate:
		if !p.Has(domain.RoleSeller, domain.RoleAdmin) {
			return false, nil
		}
		return s.underQuota(ctx, p.ID)
	case domain.ActionEdit, domain.ActionMarkSold:
		return owner || p.Has(domain.RoleAdmin), nil
	case domain.ActionModerate:
		return p.Reviewer(), nil
	case domain.ActionViewPrivate:
		return owner || p.Reviewer(), nil
	}
	return false, nil
}

func (s *Svc) underQuota(ctx context.Context, ownerID string) (bool, error) {
	if s.maxActive <= 0 {
		return true, nil
	}
	n, err := s.binder.Bind(s.db).CountOpen(ctx, ownerID)
	if err != nil {
		return false, err
	}
	if n >= s.maxActive {
		logger.C(ctx).Info().Str("owner_id", ownerID).Int("open", n).Int("max", s.maxActive).
			Msg("listing quota reached")
		return false, nil
	}
	return true, nil
}
