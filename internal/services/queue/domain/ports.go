package domain

import (
	"context"

	"harborlist/internal/core/listing"
	"harborlist/internal/modkit/repokit"
)

// ServicePort is the interface implemented by the queue service
type ServicePort interface {
	List(ctx context.Context, f Filter) (Page, error)
	Get(ctx context.Context, id string) (Entry, error)
	Assign(ctx context.Context, id, moderatorID string) (Entry, error)
	Resolve(ctx context.Context, id, actorID string) (Entry, error)
}

// TxPort lets the listing service mutate the queue inside its own transaction
// so a listing transition and its queue change commit together
type TxPort interface {
	Enqueue(ctx context.Context, q repokit.Queryer, in EnqueueInput) (Entry, error)
	// CloseOpen resolves the open entry of a listing, if any
	CloseOpen(ctx context.Context, q repokit.Queryer, listingID string) error
	// Raise bumps the open entry of a listing when p is more pressing
	Raise(ctx context.Context, q repokit.Queryer, listingID string, p listing.Priority) error
}

// ListingPort is what the queue needs from listings when a moderator acts on an entry
type ListingPort interface {
	// Claim moves the listing into review for moderatorID inside q's transaction
	Claim(ctx context.Context, q repokit.Queryer, listingID, moderatorID string) error
	// Outstanding reports whether the listing still waits for a moderator decision
	Outstanding(ctx context.Context, q repokit.Queryer, listingID string) (bool, error)
}
