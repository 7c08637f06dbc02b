// Package listing holds the listing aggregate and its closed enumerations.
// It has no behavior beyond field bookkeeping; transitions live in core/lifecycle
package listing

import (
	"time"
)

// Status is the public lifecycle state of a listing
type Status string

// Listing statuses
const (
	StatusPendingReview    Status = "pending_review"
	StatusActive           Status = "active"
	StatusUnderReview      Status = "under_review"
	StatusChangesRequested Status = "changes_requested"
	StatusRejected         Status = "rejected"
	StatusSold             Status = "sold"
	StatusExpired          Status = "expired"
)

// Statuses lists every valid status
var Statuses = []Status{
	StatusPendingReview, StatusActive, StatusUnderReview, StatusChangesRequested,
	StatusRejected, StatusSold, StatusExpired,
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no owner or moderator event can leave s
func (s Status) Terminal() bool { return s == StatusSold || s == StatusExpired }

// Visible reports whether the public sees the listing in s
func (s Status) Visible() bool { return s == StatusActive }

// WorkflowStatus tracks the review itself, independent of visibility
type WorkflowStatus string

// Workflow statuses
const (
	WorkflowPending          WorkflowStatus = "pending"
	WorkflowInReview         WorkflowStatus = "in_review"
	WorkflowApproved         WorkflowStatus = "approved"
	WorkflowRejected         WorkflowStatus = "rejected"
	WorkflowChangesRequested WorkflowStatus = "changes_requested"
	WorkflowClosed           WorkflowStatus = "closed"
)

// SubmissionType says what a review round is about
type SubmissionType string

// Submission types
const (
	SubmissionInitial      SubmissionType = "initial"
	SubmissionUpdate       SubmissionType = "update"
	SubmissionResubmission SubmissionType = "resubmission"
)

// Decision is a moderator verdict
type Decision string

// Decisions
const (
	DecisionApprove        Decision = "approve"
	DecisionReject         Decision = "reject"
	DecisionRequestChanges Decision = "request_changes"
)

// Valid reports whether d is a known decision
func (d Decision) Valid() bool {
	switch d {
	case DecisionApprove, DecisionReject, DecisionRequestChanges:
		return true
	}
	return false
}

// Priority orders moderation work
type Priority string

// Queue priorities, most pressing first
const (
	PriorityUrgent   Priority = "urgent"
	PriorityHigh     Priority = "high"
	PriorityStandard Priority = "standard"
	PriorityLow      Priority = "low"
)

// Rank is 0 for urgent and grows as priority drops; unknown ranks last
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityStandard:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// Valid reports whether p is a known priority
func (p Priority) Valid() bool { return p.Rank() < 4 }

// Action labels a moderation history entry
type Action string

// History actions
const (
	ActionCreate         Action = "create"
	ActionClaim          Action = "claim"
	ActionApprove        Action = "approve"
	ActionReject         Action = "reject"
	ActionRequestChanges Action = "request_changes"
	ActionRejectUpdate   Action = "reject_update"
	ActionResubmit       Action = "resubmit"
	ActionMarkSold       Action = "mark_sold"
	ActionExpire         Action = "expire"
)

// FlagStatus is the review state of a content flag
type FlagStatus string

// Flag statuses
const (
	FlagOpen     FlagStatus = "open"
	FlagCleared  FlagStatus = "cleared"
	FlagUpheld   FlagStatus = "upheld"
	FlagObsolete FlagStatus = "obsolete"
)

// Listing is the canonical record
type Listing struct {
	ID      string `json:"listingId"`
	OwnerID string `json:"ownerId"`
	Slug    string `json:"slug"`

	Fields
	Status Status `json:"status"`

	Workflow     Workflow       `json:"moderationWorkflow"`
	Pending      *PendingUpdate `json:"pendingUpdate,omitempty"`
	PriceHistory []PricePoint   `json:"priceHistory"`
	History      []HistoryEntry `json:"moderationHistory"`
	Flags        []Flag         `json:"flags"`

	Version     int64      `json:"version"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

// Workflow is the current review metadata
type Workflow struct {
	Status              WorkflowStatus `json:"status"`
	AssignedTo          string         `json:"assignedTo,omitempty"`
	SubmissionType      SubmissionType `json:"submissionType"`
	PreviousReviewCount int            `json:"previousReviewCount"`
	RequiredChanges     []string       `json:"requiredChanges,omitempty"`
	SubmittedAt         time.Time      `json:"submittedAt"`
}

// PendingUpdate holds owner edits to a live listing until a moderator approves them
type PendingUpdate struct {
	Changes       Patch         `json:"changes"`
	ChangeHistory []FieldChange `json:"changeHistory"`
	SubmittedAt   time.Time     `json:"submittedAt"`
	LastUpdatedAt time.Time     `json:"lastUpdatedAt"`
}

// FieldChange is one per-field change log row
type FieldChange struct {
	Field string    `json:"field"`
	Old   any       `json:"oldValue"`
	New   any       `json:"newValue"`
	At    time.Time `json:"timestamp"`
	By    string    `json:"changedBy"`
}

// PricePoint is an append-only price history row
type PricePoint struct {
	Price     int64     `json:"price"`
	At        time.Time `json:"timestamp"`
	ChangedBy string    `json:"changedBy"`
	Reason    string    `json:"reason"`
}

// Price history reasons
const (
	PriceReasonInitial     = "initial"
	PriceReasonEdit        = "edit"
	PriceReasonPendingEdit = "pending_edit"
)

// HistoryEntry is an append-only moderation history row
type HistoryEntry struct {
	Action Action    `json:"action"`
	Actor  string    `json:"actor"`
	At     time.Time `json:"timestamp"`
	Notes  string    `json:"notes,omitempty"`
	From   Status    `json:"from,omitempty"`
	To     Status    `json:"to"`
}

// Flag is an automatically or manually raised content flag
type Flag struct {
	Type     string     `json:"type"`
	Severity string     `json:"severity"`
	Status   FlagStatus `json:"status"`
	Source   string     `json:"source"`
	Detail   string     `json:"detail,omitempty"`
	RaisedAt time.Time  `json:"raisedAt"`
}

// Flag sources
const (
	FlagSourceScan    = "scan"
	FlagSourceManual  = "manual"
	FlagSourcePending = "pending_update"
)

// OpenFlags counts flags still awaiting a moderator
func (l *Listing) OpenFlags() int {
	n := 0
	for _, f := range l.Flags {
		if f.Status == FlagOpen {
			n++
		}
	}
	return n
}

// Clone returns a deep copy so transitions never alias the input
func (l Listing) Clone() Listing {
	c := l
	c.Fields = l.Fields.Clone()
	c.Workflow.RequiredChanges = append([]string(nil), l.Workflow.RequiredChanges...)
	if l.Pending != nil {
		p := *l.Pending
		p.Changes = l.Pending.Changes.Clone()
		p.ChangeHistory = append([]FieldChange(nil), l.Pending.ChangeHistory...)
		c.Pending = &p
	}
	c.PriceHistory = append([]PricePoint(nil), l.PriceHistory...)
	c.History = append([]HistoryEntry(nil), l.History...)
	c.Flags = append([]Flag(nil), l.Flags...)
	if l.PublishedAt != nil {
		t := *l.PublishedAt
		c.PublishedAt = &t
	}
	return c
}
