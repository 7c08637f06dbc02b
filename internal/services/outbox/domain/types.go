// Package domain holds outbox event types shared by producers, the relay and its sinks
package domain

import (
	"context"
	"encoding/json"
	"time"

	"harborlist/internal/modkit/repokit"
)

// Status of an outbox row
type Status string

// Outbox statuses
const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
	StatusDead      Status = "dead"
)

// Payload is the body every listing event carries
type Payload struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"event_type"`
	ListingID  string    `json:"listing_id"`
	OwnerID    string    `json:"owner_id"`
	ActorID    string    `json:"actor_id"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status"`
	Slug       string    `json:"slug,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	Priority   string    `json:"priority,omitempty"`
	Severity   string    `json:"severity,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Event is one stored outbox row
type Event struct {
	ID        string
	Type      string
	ListingID string
	Payload   json.RawMessage
	Attempts  int
	CreatedAt time.Time
}

// Decode unmarshals the stored payload
func (e Event) Decode() (Payload, error) {
	var p Payload
	err := json.Unmarshal(e.Payload, &p)
	return p, err
}

// TxPort appends events inside the producer's transaction
type TxPort interface {
	Append(ctx context.Context, q repokit.Queryer, p Payload) error
}

// Sink receives relayed events. Deliver must be safe to call again with the same event
type Sink interface {
	Name() string
	Deliver(ctx context.Context, e Event) error
}

// RelayPort drains the outbox
type RelayPort interface {
	// Run ticks until ctx is done
	Run(ctx context.Context) error
	// Tick leases one batch and delivers it
	Tick(ctx context.Context) (TickStats, error)
}

// TickStats summarizes one relay pass
type TickStats struct {
	Leased      int
	Delivered   int
	Rescheduled int
	Dead        int
}
