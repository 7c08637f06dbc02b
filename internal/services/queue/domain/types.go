// Package domain holds moderation queue types independent of transport or storage
package domain

import (
	"time"

	"harborlist/internal/core/listing"
)

// Status is the state of one unit of reviewer work
type Status string

const (
	// StatusPending waits for a moderator to claim it
	StatusPending Status = "pending"

	// StatusInReview is claimed by a moderator
	StatusInReview Status = "in_review"

	// StatusResolved is closed; it never reopens
	StatusResolved Status = "resolved"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInReview, StatusResolved:
		return true
	}
	return false
}

// Entry is a moderation queue work item
type Entry struct {
	ID          string                 `json:"queueId"`
	ListingID   string                 `json:"listingId"`
	SubmittedBy string                 `json:"submittedBy"`
	Submission  listing.SubmissionType `json:"submissionType"`
	Priority    listing.Priority       `json:"priority"`
	Status      Status                 `json:"status"`
	AssignedTo  string                 `json:"assignedTo,omitempty"`
	Escalated   bool                   `json:"escalated"`
	SubmittedAt time.Time              `json:"submittedAt"`
	AssignedAt  *time.Time             `json:"assignedAt,omitempty"`
	ResolvedAt  *time.Time             `json:"resolvedAt,omitempty"`
}

// EnqueueInput creates a fresh entry for a listing
type EnqueueInput struct {
	ListingID   string
	SubmittedBy string
	Submission  listing.SubmissionType
	Priority    listing.Priority
	Escalated   bool
	At          time.Time
}

// Filter narrows a queue listing; zero values mean no constraint
type Filter struct {
	Status   Status
	Priority listing.Priority
	Assignee string
	Limit    int
	Offset   int
}

// Depth is the open entry count for one priority
type Depth struct {
	Priority listing.Priority
	Count    int
}
