// Package domain holds listing service contracts independent of transport or storage
package domain

import (
	"context"
	"time"

	identdom "harborlist/internal/services/ident/domain"
)

// Actor is the caller a request acts for
type Actor = identdom.Principal

// SweeperActor is recorded on expiries
const SweeperActor = "system:sweeper"

// ServicePort is the listing API
type ServicePort interface {
	Create(ctx context.Context, a Actor, in CreateInput) (CreateResult, error)
	Update(ctx context.Context, a Actor, id string, in UpdateInput) (UpdateResult, error)
	Moderate(ctx context.Context, a Actor, id string, in ModerateInput) (StatusResult, error)
	MarkSold(ctx context.Context, a Actor, id string) (StatusResult, error)
	// Get accepts a listing id or any slug the listing ever had
	Get(ctx context.Context, a Actor, idOrSlug string) (View, error)
}

// SweepPort is what the expiry sweeper drives
type SweepPort interface {
	DueForExpiry(ctx context.Context, publishedBefore time.Time, limit int) ([]string, error)
	Expire(ctx context.Context, id string) (StatusResult, error)
}

// MediaPort checks that image URLs point at objects the owner uploaded
type MediaPort interface {
	Validate(ctx context.Context, ownerID string, urls []string) error
}

// SlugCache remembers slug to listing id lookups. Misses and failures are
// never errors; the database stays authoritative
type SlugCache interface {
	Get(ctx context.Context, slug string) (string, bool)
	Set(ctx context.Context, slug, listingID string)
	Delete(ctx context.Context, slugs ...string)
}
