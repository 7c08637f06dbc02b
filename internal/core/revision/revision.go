// Package revision accumulates owner edits to a live listing into a single pending update
package revision

import (
	"time"

	"harborlist/internal/core/listing"
)

// Diff returns one change row per field edit sets to a value different from base
func Diff(base listing.Fields, edit listing.Patch, actor string, now time.Time) []listing.FieldChange {
	var out []listing.FieldChange
	for _, name := range edit.Names() {
		next, _ := edit.Get(name)
		prev := base.Value(name)
		if listing.Equal(prev, next) {
			continue
		}
		out = append(out, listing.FieldChange{Field: name, Old: prev, New: next, At: now, By: actor})
	}
	return out
}

// Accumulate merges edit into existing (which may be nil) and returns the new pending update.
// Old values are taken from the view the owner last saw: published fields with
// existing changes applied. Re-sending an identical edit adds no change rows
func Accumulate(existing *listing.PendingUpdate, edit listing.Patch, published listing.Fields, actor string, now time.Time) listing.PendingUpdate {
	if existing == nil {
		return listing.PendingUpdate{
			Changes:       edit.Clone(),
			ChangeHistory: Diff(published, edit, actor, now),
			SubmittedAt:   now,
			LastUpdatedAt: now,
		}
	}

	view := published.Apply(existing.Changes)
	delta := Diff(view, edit, actor, now)

	out := listing.PendingUpdate{
		Changes:       existing.Changes.Merge(edit),
		ChangeHistory: append(append([]listing.FieldChange(nil), existing.ChangeHistory...), delta...),
		SubmittedAt:   existing.SubmittedAt,
		LastUpdatedAt: existing.LastUpdatedAt,
	}
	if len(delta) > 0 {
		out.LastUpdatedAt = now
	}
	return out
}

// PriceChange returns the price history row for edit when it moves the price away from current
func PriceChange(current int64, edit listing.Patch, actor, reason string, now time.Time) (listing.PricePoint, bool) {
	if edit.Price == nil || *edit.Price == current {
		return listing.PricePoint{}, false
	}
	return listing.PricePoint{Price: *edit.Price, At: now, ChangedBy: actor, Reason: reason}, true
}

// Effective returns what the listing would look like once pending were approved
func Effective(published listing.Fields, pending *listing.PendingUpdate) listing.Fields {
	if pending == nil {
		return published.Clone()
	}
	return published.Apply(pending.Changes)
}
