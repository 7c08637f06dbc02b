// Package repo provides the moderation queue repository implementation
package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"harborlist/internal/core/listing"
	"harborlist/internal/modkit/repokit"
	perr "harborlist/internal/platform/errors"
	"harborlist/internal/platform/store"
	"harborlist/internal/services/queue/domain"
)

// Repo is the queue persistence surface used by the service layer
type Repo interface {
	// Insert adds e unless the listing already has an open entry, in which case
	// the open entry is returned
	Insert(ctx context.Context, e domain.Entry) (domain.Entry, error)
	Get(ctx context.Context, id string) (domain.Entry, error)
	GetForUpdate(ctx context.Context, id string) (domain.Entry, error)
	MarkAssigned(ctx context.Context, id, moderatorID string, at time.Time) error
	MarkResolved(ctx context.Context, id string, at time.Time) error
	ResolveOpen(ctx context.Context, listingID string, at time.Time) (int64, error)
	Raise(ctx context.Context, listingID string, p listing.Priority) (int64, error)
	List(ctx context.Context, f domain.Filter) ([]domain.Entry, int, error)
	Depth(ctx context.Context) ([]domain.Depth, error)
}

type (
	// PG is a Postgres implementation of the queue repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

const entryCols = `
	id::text, listing_id::text, submitted_by, submission_type, priority, status,
	COALESCE(assigned_to, ''), escalated, submitted_at, assigned_at, resolved_at`

func scanEntry(r store.Row) (domain.Entry, error) {
	var e domain.Entry
	var sub, prio, st string
	err := r.Scan(&e.ID, &e.ListingID, &e.SubmittedBy, &sub, &prio, &st,
		&e.AssignedTo, &e.Escalated, &e.SubmittedAt, &e.AssignedAt, &e.ResolvedAt)
	if err != nil {
		return domain.Entry{}, err
	}
	e.Submission = listing.SubmissionType(sub)
	e.Priority = listing.Priority(prio)
	e.Status = domain.Status(st)
	return e, nil
}

func (r *queries) Insert(ctx context.Context, e domain.Entry) (domain.Entry, error) {
	sql := `
		INSERT INTO moderation_queue (
			id, listing_id, submitted_by, submission_type, priority, priority_rank,
			status, escalated, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7, $8)
		ON CONFLICT (listing_id) WHERE status <> 'resolved' DO NOTHING
		RETURNING ` + entryCols

	out, err := store.One(ctx, r.q, scanEntry, sql,
		e.ID, e.ListingID, e.SubmittedBy, string(e.Submission), string(e.Priority), e.Priority.Rank(),
		e.Escalated, e.SubmittedAt)
	if err == nil {
		return out, nil
	}
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		return domain.Entry{}, perr.FromPostgres(err, "enqueue")
	}

	// conflict: an open entry already exists for this listing
	open, err := store.One(ctx, r.q, scanEntry,
		`SELECT `+entryCols+` FROM moderation_queue WHERE listing_id = $1 AND status <> 'resolved'`, e.ListingID)
	if err != nil {
		return domain.Entry{}, perr.FromPostgres(err, "enqueue: read open entry")
	}
	return open, nil
}

func (r *queries) Get(ctx context.Context, id string) (domain.Entry, error) {
	e, err := store.One(ctx, r.q, scanEntry, `SELECT `+entryCols+` FROM moderation_queue WHERE id = $1`, id)
	return e, wrapRead(err, id)
}

func (r *queries) GetForUpdate(ctx context.Context, id string) (domain.Entry, error) {
	e, err := store.One(ctx, r.q, scanEntry,
		`SELECT `+entryCols+` FROM moderation_queue WHERE id = $1 FOR UPDATE`, id)
	return e, wrapRead(err, id)
}

func wrapRead(err error, id string) error {
	if err == nil {
		return nil
	}
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return perr.NotFoundf("queue entry %s not found", id)
	}
	return perr.FromPostgres(err, "read queue entry")
}

func (r *queries) MarkAssigned(ctx context.Context, id, moderatorID string, at time.Time) error {
	const sql = `
		UPDATE moderation_queue
		   SET status = 'in_review', assigned_to = $2, assigned_at = $3
		 WHERE id = $1 AND status <> 'resolved'`
	_, err := r.q.Exec(ctx, sql, id, moderatorID, at)
	return perr.FromPostgres(err, "assign queue entry")
}

func (r *queries) MarkResolved(ctx context.Context, id string, at time.Time) error {
	const sql = `
		UPDATE moderation_queue
		   SET status = 'resolved', resolved_at = $2
		 WHERE id = $1 AND status <> 'resolved'`
	_, err := r.q.Exec(ctx, sql, id, at)
	return perr.FromPostgres(err, "resolve queue entry")
}

func (r *queries) ResolveOpen(ctx context.Context, listingID string, at time.Time) (int64, error) {
	const sql = `
		UPDATE moderation_queue
		   SET status = 'resolved', resolved_at = $2
		 WHERE listing_id = $1 AND status <> 'resolved'`
	tag, err := r.q.Exec(ctx, sql, listingID, at)
	if err != nil {
		return 0, perr.FromPostgres(err, "resolve open queue entry")
	}
	return tag.RowsAffected(), nil
}

func (r *queries) Raise(ctx context.Context, listingID string, p listing.Priority) (int64, error) {
	const sql = `
		UPDATE moderation_queue
		   SET priority = $2, priority_rank = $3, escalated = escalated OR $4
		 WHERE listing_id = $1 AND status <> 'resolved' AND priority_rank > $3`
	tag, err := r.q.Exec(ctx, sql, listingID, string(p), p.Rank(), p == listing.PriorityUrgent)
	if err != nil {
		return 0, perr.FromPostgres(err, "raise queue priority")
	}
	return tag.RowsAffected(), nil
}

// where builds the shared filter clause; args are numbered from 1
func where(f domain.Filter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.Priority != "" {
		add("priority = $%d", string(f.Priority))
	}
	if f.Assignee != "" {
		add("assigned_to = $%d", f.Assignee)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *queries) List(ctx context.Context, f domain.Filter) ([]domain.Entry, int, error) {
	clause, args := where(f)

	total, err := store.Scalar[int64](ctx, r.q, `SELECT count(*) FROM moderation_queue`+clause, args...)
	if err != nil {
		return nil, 0, perr.FromPostgres(err, "count queue")
	}

	n := len(args)
	sql := `SELECT ` + entryCols + ` FROM moderation_queue` + clause +
		fmt.Sprintf(` ORDER BY priority_rank, submitted_at, id LIMIT $%d OFFSET $%d`, n+1, n+2)
	items, err := store.Many(ctx, r.q, scanEntry, sql, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, perr.FromPostgres(err, "list queue")
	}
	return items, int(total), nil
}

func (r *queries) Depth(ctx context.Context) ([]domain.Depth, error) {
	const sql = `
		SELECT priority, count(*)
		  FROM moderation_queue
		 WHERE status <> 'resolved'
		 GROUP BY priority`
	return store.Many(ctx, r.q, func(row store.Row) (domain.Depth, error) {
		var d domain.Depth
		var p string
		var n int64
		if err := row.Scan(&p, &n); err != nil {
			return d, err
		}
		d.Priority, d.Count = listing.Priority(p), int(n)
		return d, nil
	}, sql)
}
