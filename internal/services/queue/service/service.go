// Package service contains moderation queue workflows
package service

import (
	"context"
	"time"

	"harborlist/internal/core/listing"
	"harborlist/internal/modkit/repokit"
	perr "harborlist/internal/platform/errors"
	"harborlist/internal/platform/logger"
	"harborlist/internal/platform/store"
	"harborlist/internal/services/queue/domain"
	"harborlist/internal/services/queue/repo"
)

// Service is the public service port
type Service interface{ domain.ServicePort }

// Svc implements the service port
type Svc struct {
	binder   repokit.Binder[repo.Repo]
	db       repokit.TxRunner
	listings domain.ListingPort
	retry    store.RetryPolicy
	limit    int
	maxLimit int
	now      func() time.Time
}

// Options control service behavior
type Options struct {
	// Listings is required; it moves a listing into review on assignment
	Listings domain.ListingPort

	DefaultLimit int
	MaxLimit     int
	Retry        store.RetryPolicy
}

// New constructs the service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], opt Options) *Svc {
	if db == nil {
		panic("queue.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("queue.Service requires a non nil Repo binder")
	}
	if opt.Listings == nil {
		panic("queue.Service requires a non nil ListingPort")
	}
	if opt.DefaultLimit <= 0 {
		opt.DefaultLimit = 50
	}
	if opt.MaxLimit <= 0 {
		opt.MaxLimit = 200
	}
	return &Svc{
		binder:   binder,
		db:       db,
		listings: opt.Listings,
		retry:    opt.Retry,
		limit:    opt.DefaultLimit,
		maxLimit: opt.MaxLimit,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List returns entries ordered by priority, then oldest submission first
func (s *Svc) List(ctx context.Context, f domain.Filter) (domain.Page, error) {
	if f.Status != "" && !f.Status.Valid() {
		return domain.Page{}, perr.Validationf("status", "unknown queue status %q", f.Status)
	}
	if f.Priority != "" && !f.Priority.Valid() {
		return domain.Page{}, perr.Validationf("priority", "unknown priority %q", f.Priority)
	}
	if f.Offset < 0 {
		return domain.Page{}, perr.Validationf("offset", "offset must be at least 0")
	}
	switch {
	case f.Limit <= 0:
		f.Limit = s.limit
	case f.Limit > s.maxLimit:
		f.Limit = s.maxLimit
	}

	items, total, err := s.binder.Bind(s.db).List(ctx, f)
	if err != nil {
		return domain.Page{}, err
	}
	if items == nil {
		items = []domain.Entry{}
	}
	return domain.Page{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// Get returns one entry
func (s *Svc) Get(ctx context.Context, id string) (domain.Entry, error) {
	return s.binder.Bind(s.db).Get(ctx, id)
}

// Assign lets a moderator claim an entry. Claiming again by the same moderator
// is a no-op; a different moderator gets a conflict
func (s *Svc) Assign(ctx context.Context, id, moderatorID string) (domain.Entry, error) {
	if moderatorID == "" {
		return domain.Entry{}, perr.Unauthorizedf("moderator required")
	}

	var out domain.Entry
	err := store.RunTx(ctx, s.db, s.retry, func(ctx context.Context, q store.RowQuerier) error {
		r := s.binder.Bind(q)
		e, err := r.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		switch e.Status {
		case domain.StatusResolved:
			return perr.InvalidStatef(string(e.Status), "queue entry %s is already resolved", id)
		case domain.StatusInReview:
			if e.AssignedTo == moderatorID {
				out = e
				return nil
			}
			return perr.Conflictf("queue entry %s is assigned to another moderator", id)
		}

		if err := s.listings.Claim(ctx, q, e.ListingID, moderatorID); err != nil {
			return err
		}
		at := s.now()
		if err := r.MarkAssigned(ctx, id, moderatorID, at); err != nil {
			return err
		}
		e.Status, e.AssignedTo, e.AssignedAt = domain.StatusInReview, moderatorID, &at
		out = e
		return nil
	})
	if err != nil {
		return domain.Entry{}, err
	}

	logger.C(ctx).Info().
		Str("queue_id", out.ID).
		Str("listing_id", out.ListingID).
		Str("moderator", moderatorID).
		Str("priority", string(out.Priority)).
		Msg("queue entry assigned")
	return out, nil
}

// Resolve closes an entry whose listing no longer waits for a decision.
// Resolving a resolved entry returns it unchanged
func (s *Svc) Resolve(ctx context.Context, id, actorID string) (domain.Entry, error) {
	if actorID == "" {
		return domain.Entry{}, perr.Unauthorizedf("moderator required")
	}

	var out domain.Entry
	err := store.RunTx(ctx, s.db, s.retry, func(ctx context.Context, q store.RowQuerier) error {
		r := s.binder.Bind(q)
		e, err := r.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if e.Status == domain.StatusResolved {
			out = e
			return nil
		}
		pending, err := s.listings.Outstanding(ctx, q, e.ListingID)
		if err != nil {
			return err
		}
		if pending {
			return perr.InvalidStatef(string(e.Status),
				"listing %s still awaits a decision; moderate the listing to close this entry", e.ListingID)
		}
		at := s.now()
		if err := r.MarkResolved(ctx, id, at); err != nil {
			return err
		}
		e.Status, e.ResolvedAt = domain.StatusResolved, &at
		out = e
		return nil
	})
	if err != nil {
		return domain.Entry{}, err
	}

	logger.C(ctx).Info().Str("queue_id", out.ID).Str("listing_id", out.ListingID).Str("actor", actorID).
		Msg("queue entry resolved")
	return out, nil
}

// Priorities lists every priority, most pressing first
var Priorities = []listing.Priority{
	listing.PriorityUrgent, listing.PriorityHigh, listing.PriorityStandard, listing.PriorityLow,
}
