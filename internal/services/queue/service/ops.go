package service

import (
	"context"
	"time"

	"harborlist/internal/core/listing"
	"harborlist/internal/modkit/repokit"
	"harborlist/internal/services/queue/domain"
	"harborlist/internal/services/queue/repo"

	"github.com/google/uuid"
)

// Ops implements domain.TxPort. It holds no connection; every call runs on
// the Queryer of the caller's transaction
type Ops struct {
	binder repokit.Binder[repo.Repo]
	now    func() time.Time
	newID  func() string
}

var _ domain.TxPort = (*Ops)(nil)

// NewOps returns queue operations bound per call to the caller's transaction
func NewOps(binder repokit.Binder[repo.Repo]) *Ops {
	if binder == nil {
		panic("queue.Ops requires a non nil Repo binder")
	}
	return &Ops{
		binder: binder,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Enqueue creates an entry, or returns the listing's open entry when one exists
func (o *Ops) Enqueue(ctx context.Context, q repokit.Queryer, in domain.EnqueueInput) (domain.Entry, error) {
	at := in.At
	if at.IsZero() {
		at = o.now()
	}
	prio := in.Priority
	if !prio.Valid() {
		prio = listing.PriorityStandard
	}
	return o.binder.Bind(q).Insert(ctx, domain.Entry{
		ID:          o.newID(),
		ListingID:   in.ListingID,
		SubmittedBy: in.SubmittedBy,
		Submission:  in.Submission,
		Priority:    prio,
		Status:      domain.StatusPending,
		Escalated:   in.Escalated || prio == listing.PriorityUrgent,
		SubmittedAt: at,
	})
}

// CloseOpen resolves the listing's open entry; no open entry is not an error
func (o *Ops) CloseOpen(ctx context.Context, q repokit.Queryer, listingID string) error {
	_, err := o.binder.Bind(q).ResolveOpen(ctx, listingID, o.now())
	return err
}

// Raise moves the open entry up to p; it never lowers a priority
func (o *Ops) Raise(ctx context.Context, q repokit.Queryer, listingID string, p listing.Priority) error {
	if !p.Valid() {
		return nil
	}
	_, err := o.binder.Bind(q).Raise(ctx, listingID, p)
	return err
}
