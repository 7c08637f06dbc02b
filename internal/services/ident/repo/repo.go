// Package repo provides Postgres bindings for domain.QuotaRepo
package repo

import (
	"context"

	"harborlist/internal/modkit/repokit"
	perr "harborlist/internal/platform/errors"
	"harborlist/internal/platform/store"
	"harborlist/internal/services/ident/domain"
)

type (
	// PG is a Postgres binder for domain.QuotaRepo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// Compile-time assertion: queries implements domain.QuotaRepo
var _ domain.QuotaRepo = (*queries)(nil)

// NewPG returns a Postgres binder for QuotaRepo
func NewPG() repokit.Binder[domain.QuotaRepo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) domain.QuotaRepo { return &queries{q: q} }

// CountOpen uses listings_owner_status_idx
func (r *queries) CountOpen(ctx context.Context, ownerID string) (int, error) {
	const sql = `
		SELECT count(*)
		  FROM listings
		 WHERE owner_id = $1
		   AND status NOT IN ('sold', 'expired', 'rejected')`
	n, err := store.Scalar[int64](ctx, r.q, sql, ownerID)
	if err != nil {
		return 0, perr.FromPostgres(err, "count open listings")
	}
	return int(n), nil
}
