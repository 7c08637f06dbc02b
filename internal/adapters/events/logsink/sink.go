// Package logsink writes relayed events to the process log. It is the relay's
// fallback when no broker is configured
package logsink

import (
	"context"

	"harborlist/internal/platform/logger"
	"harborlist/internal/services/outbox/domain"
)

// Sink logs each event at info level
type Sink struct{}

var _ domain.Sink = Sink{}

// Name implements domain.Sink
func (Sink) Name() string { return "log" }

// Deliver never fails
func (Sink) Deliver(_ context.Context, e domain.Event) error {
	logger.Named("events").Info().
		Str("event_id", e.ID).
		Str("event_type", e.Type).
		Str("listing_id", e.ListingID).
		RawJSON("payload", e.Payload).
		Msg("listing event")
	return nil
}
