package domain

import (
	"time"

	"harborlist/internal/core/listing"
)

// View is what getListing returns. The review fields are only set for the
// owner and reviewers
type View struct {
	ListingID     string         `json:"listingId"`
	OwnerID       string         `json:"ownerId"`
	Slug          string         `json:"slug"`
	RequestedSlug string         `json:"requestedSlug,omitempty"`
	Status        listing.Status `json:"status"`
	listing.Fields
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Version     int64      `json:"version"`

	Workflow     *listing.Workflow      `json:"moderationWorkflow,omitempty"`
	Pending      *listing.PendingUpdate `json:"pendingUpdate,omitempty"`
	PriceHistory []listing.PricePoint   `json:"priceHistory,omitempty"`
	History      []listing.HistoryEntry `json:"moderationHistory,omitempty"`
	Flags        []listing.Flag         `json:"flags,omitempty"`
}

// NewView projects l; private adds the review fields
func NewView(l listing.Listing, private bool) View {
	c := l.Clone()
	v := View{
		ListingID:   c.ID,
		OwnerID:     c.OwnerID,
		Slug:        c.Slug,
		Status:      c.Status,
		Fields:      c.Fields,
		PublishedAt: c.PublishedAt,
		UpdatedAt:   c.UpdatedAt,
		Version:     c.Version,
	}
	if !private {
		return v
	}
	v.Workflow = &c.Workflow
	v.Pending = c.Pending
	v.PriceHistory = c.PriceHistory
	v.History = c.History
	v.Flags = c.Flags
	return v
}

// Private reports whether the review fields are present
func (v View) Private() bool { return v.Workflow != nil }
