// Package clickhouse appends relayed listing events to an analytics table
package clickhouse

import (
	"context"

	perr "harborlist/internal/platform/errors"
	"harborlist/internal/platform/store"
	"harborlist/internal/services/outbox/domain"
)

// Table receives one row per event
const Table = "listing_events"

// DDL creates Table. ReplacingMergeTree on event_id folds redeliveries
const DDL = `
CREATE TABLE IF NOT EXISTS listing_events (
    event_id    UUID,
    event_type  LowCardinality(String),
    listing_id  UUID,
    owner_id    String,
    actor_id    String,
    from_status LowCardinality(String),
    to_status   LowCardinality(String),
    priority    LowCardinality(String),
    severity    LowCardinality(String),
    occurred_at DateTime64(3, 'UTC')
)
ENGINE = ReplacingMergeTree
ORDER BY (listing_id, occurred_at, event_id)`

// Sink inserts events into ClickHouse
type Sink struct {
	ch store.Clickhouse
}

var _ domain.Sink = (*Sink)(nil)

// New returns a sink over ch
func New(ch store.Clickhouse) *Sink {
	if ch == nil {
		panic("clickhouse sink requires a non nil client")
	}
	return &Sink{ch: ch}
}

// Ensure creates the table when missing
func (s *Sink) Ensure(ctx context.Context) error {
	if err := s.ch.Exec(ctx, DDL); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "create listing_events")
	}
	return nil
}

// Name implements domain.Sink
func (s *Sink) Name() string { return "clickhouse" }

// Deliver inserts one row
func (s *Sink) Deliver(ctx context.Context, e domain.Event) error {
	p, err := e.Decode()
	if err != nil {
		// a payload that never decodes is dead-lettered by attempt count
		return perr.Wrap(err, perr.ErrorCodeJSON, "decode outbox payload")
	}
	return s.ch.Insert(ctx, Table, [][]any{row(e, p)})
}

func row(e domain.Event, p domain.Payload) []any {
	at := p.OccurredAt
	if at.IsZero() {
		at = e.CreatedAt
	}
	return []any{
		e.ID, e.Type, e.ListingID, p.OwnerID, p.ActorID,
		p.FromStatus, p.ToStatus, p.Priority, p.Severity, at.UTC(),
	}
}
