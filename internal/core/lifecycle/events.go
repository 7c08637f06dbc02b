package lifecycle

import (
	"time"

	"harborlist/internal/core/listing"
	"harborlist/internal/core/riskscan"
)

// Kind names an input event
type Kind string

// Input events
const (
	KindCreate   Kind = "create"
	KindEdit     Kind = "edit"
	KindDecide   Kind = "decide"
	KindClaim    Kind = "claim"
	KindMarkSold Kind = "mark_sold"
	KindExpire   Kind = "expire"
)

// Event is one request against a listing
type Event struct {
	Kind  Kind
	Actor string
	At    time.Time

	// create
	ListingID string
	OwnerID   string
	Slug      string
	Fields    listing.Fields

	// edit
	Patch listing.Patch

	// decide
	Decision        listing.Decision
	Notes           string
	RequiredChanges []string
}

// EventType is the name of an emitted domain event
type EventType string

// Emitted domain events
const (
	EventCreated          EventType = "listing.created"
	EventUpdated          EventType = "listing.updated"
	EventUpdateSubmitted  EventType = "listing.update_submitted"
	EventInReview         EventType = "listing.in_review"
	EventApproved         EventType = "listing.approved"
	EventRejected         EventType = "listing.rejected"
	EventChangesRequested EventType = "listing.changes_requested"
	EventUpdateRejected   EventType = "listing.update_rejected"
	EventResubmitted      EventType = "listing.resubmitted"
	EventSold             EventType = "listing.sold"
	EventExpired          EventType = "listing.expired"
)

// Enqueue asks for a fresh moderation queue entry
type Enqueue struct {
	Priority    listing.Priority
	Escalated   bool
	SubmittedBy string
	Submission  listing.SubmissionType
}

// QueueEffect is what the queue must do alongside the listing write.
// Close runs before Enqueue when both are set
type QueueEffect struct {
	Close   bool
	Enqueue *Enqueue
	// Raise bumps the open entry to this priority when it is more pressing
	Raise listing.Priority
}

// Outcome is the result of a decision: the next listing plus its side effects
type Outcome struct {
	Next    listing.Listing
	From    listing.Status
	To      listing.Status
	Changed bool

	Event EventType // empty when nothing is emitted

	// TitleChanged is set when published title moved and the slug must follow
	TitleChanged bool
	// ChangesCount is the number of field changes this event produced
	ChangesCount int
	// PendingReview is set when the edit is held back for a moderator
	PendingReview bool

	// Report is set whenever the event triggered a content scan
	Report *riskscan.Report
	Queue  QueueEffect
}
