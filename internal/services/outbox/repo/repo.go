// Package repo provides the outbox table bindings
package repo

import (
	"context"
	"encoding/json"
	"time"

	"harborlist/internal/modkit/repokit"
	perr "harborlist/internal/platform/errors"
	"harborlist/internal/platform/store"
	"harborlist/internal/services/outbox/domain"
)

// Repo is the outbox persistence surface
type Repo interface {
	Insert(ctx context.Context, id, eventType, listingID string, payload json.RawMessage, at time.Time) error
	// Lease claims up to n due events for worker until the lease expires
	Lease(ctx context.Context, worker string, n int, now time.Time, leaseFor time.Duration) ([]domain.Event, error)
	MarkDelivered(ctx context.Context, id string, at time.Time) error
	Reschedule(ctx context.Context, id string, next time.Time, cause string) error
	MarkDead(ctx context.Context, id, cause string) error
	Backlog(ctx context.Context) (int, error)
}

type (
	// PG is a Postgres implementation of the outbox repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) Insert(ctx context.Context, id, eventType, listingID string, payload json.RawMessage, at time.Time) error {
	const sql = `
		INSERT INTO outbox_events (id, event_type, listing_id, payload, next_attempt_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $5)`
	_, err := r.q.Exec(ctx, sql, id, eventType, listingID, []byte(payload), at)
	return perr.FromPostgres(err, "append outbox event")
}

// Lease uses SKIP LOCKED so concurrent relays split the backlog instead of
// blocking on each other. Expired leases become due again
func (r *queries) Lease(ctx context.Context, worker string, n int, now time.Time, leaseFor time.Duration) ([]domain.Event, error) {
	const sql = `
		WITH due AS (
			SELECT id
			  FROM outbox_events
			 WHERE status = 'pending'
			   AND next_attempt_at <= $2
			   AND (lease_expires_at IS NULL OR lease_expires_at <= $2)
			 ORDER BY next_attempt_at, created_at
			 LIMIT $3
			 FOR UPDATE SKIP LOCKED
		)
		UPDATE outbox_events o
		   SET leased_by = $1, lease_expires_at = $4, attempts = o.attempts + 1
		  FROM due
		 WHERE o.id = due.id
		RETURNING o.id::text, o.event_type, o.listing_id::text, o.payload, o.attempts, o.created_at`
	out, err := store.Many(ctx, r.q, func(row store.Row) (domain.Event, error) {
		var e domain.Event
		var payload []byte
		if err := row.Scan(&e.ID, &e.Type, &e.ListingID, &payload, &e.Attempts, &e.CreatedAt); err != nil {
			return domain.Event{}, err
		}
		e.Payload = payload
		return e, nil
	}, sql, worker, now, n, now.Add(leaseFor))
	if err != nil {
		return nil, perr.FromPostgres(err, "lease outbox events")
	}
	return out, nil
}

func (r *queries) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	const sql = `
		UPDATE outbox_events
		   SET status = 'delivered', delivered_at = $2, leased_by = NULL, lease_expires_at = NULL, last_error = NULL
		 WHERE id = $1`
	_, err := r.q.Exec(ctx, sql, id, at)
	return perr.FromPostgres(err, "mark outbox delivered")
}

func (r *queries) Reschedule(ctx context.Context, id string, next time.Time, cause string) error {
	const sql = `
		UPDATE outbox_events
		   SET next_attempt_at = $2, last_error = $3, leased_by = NULL, lease_expires_at = NULL
		 WHERE id = $1 AND status = 'pending'`
	_, err := r.q.Exec(ctx, sql, id, next, cause)
	return perr.FromPostgres(err, "reschedule outbox event")
}

func (r *queries) MarkDead(ctx context.Context, id, cause string) error {
	const sql = `
		UPDATE outbox_events
		   SET status = 'dead', last_error = $2, leased_by = NULL, lease_expires_at = NULL
		 WHERE id = $1`
	_, err := r.q.Exec(ctx, sql, id, cause)
	return perr.FromPostgres(err, "dead-letter outbox event")
}

func (r *queries) Backlog(ctx context.Context) (int, error) {
	n, err := store.Scalar[int64](ctx, r.q, `SELECT count(*) FROM outbox_events WHERE status = 'pending'`)
	if err != nil {
		return 0, perr.FromPostgres(err, "outbox backlog")
	}
	return int(n), nil
}
