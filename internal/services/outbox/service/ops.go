package service

import (
	"context"
	"encoding/json"
	"time"

	"harborlist/internal/modkit/repokit"
	perr "harborlist/internal/platform/errors"
	"harborlist/internal/services/outbox/domain"
	"harborlist/internal/services/outbox/repo"

	"github.com/google/uuid"
)

// Ops implements domain.TxPort on the caller's transaction
type Ops struct {
	binder repokit.Binder[repo.Repo]
	newID  func() string
}

var _ domain.TxPort = (*Ops)(nil)

// NewOps returns an appender bound per call to the caller's Queryer
func NewOps(binder repokit.Binder[repo.Repo]) *Ops {
	if binder == nil {
		panic("outbox.Ops requires a non nil Repo binder")
	}
	return &Ops{binder: binder, newID: uuid.NewString}
}

// Append stores p; it becomes visible to the relay when the caller commits
func (o *Ops) Append(ctx context.Context, q repokit.Queryer, p domain.Payload) error {
	if p.Type == "" || p.ListingID == "" {
		return perr.InvalidArgf("outbox event needs a type and a listing id")
	}
	if p.EventID == "" {
		p.EventID = o.newID()
	}
	if p.OccurredAt.IsZero() {
		p.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(p)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "encode outbox payload")
	}
	return o.binder.Bind(q).Insert(ctx, p.EventID, p.Type, p.ListingID, body, p.OccurredAt)
}
