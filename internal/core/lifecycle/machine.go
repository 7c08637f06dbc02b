// Package lifecycle decides listing state transitions.
// Decide is pure: it reads the current listing and an event and returns the next
// listing plus the queue and event side effects the caller must persist atomically
package lifecycle

import (
	"slices"
	"strings"
	"time"

	"harborlist/internal/core/listing"
	"harborlist/internal/core/revision"
	"harborlist/internal/core/riskscan"
	perr "harborlist/internal/platform/errors"
)

// Scanner scores listing text
type Scanner interface {
	Scan(title, description string) riskscan.Report
}

// Machine applies events to listings
type Machine struct {
	scan Scanner
}

// New returns a Machine using s for content scans
func New(s Scanner) *Machine { return &Machine{scan: s} }

// PriorityFor maps a scan severity to a queue priority
func PriorityFor(sev riskscan.Severity) listing.Priority {
	switch sev {
	case riskscan.SeverityHigh:
		return listing.PriorityUrgent
	case riskscan.SeverityMedium:
		return listing.PriorityHigh
	}
	return listing.PriorityStandard
}

// Decide returns the outcome of ev against cur. cur is nil only for KindCreate.
// Illegal combinations fail with ErrorCodeInvalidState before anything is computed
func (m *Machine) Decide(cur *listing.Listing, ev Event) (Outcome, error) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if ev.Kind == KindCreate {
		if cur != nil {
			return Outcome{}, perr.InvalidStatef(string(cur.Status), "listing %s already exists", cur.ID)
		}
		return m.create(ev), nil
	}
	if cur == nil {
		return Outcome{}, perr.NotFoundf("listing not found")
	}

	switch ev.Kind {
	case KindEdit:
		return m.edit(cur, ev)
	case KindDecide:
		return m.decide(cur, ev)
	case KindClaim:
		return m.claim(cur, ev)
	case KindMarkSold:
		return m.retire(cur, ev, listing.StatusSold, listing.ActionMarkSold, EventSold)
	case KindExpire:
		return m.retire(cur, ev, listing.StatusExpired, listing.ActionExpire, EventExpired)
	}
	return Outcome{}, perr.InvalidArgf("unknown event %q", ev.Kind)
}

func (m *Machine) create(ev Event) Outcome {
	l := listing.Listing{
		ID:      ev.ListingID,
		OwnerID: ev.OwnerID,
		Slug:    ev.Slug,
		Fields:  ev.Fields.Clone(),
		Status:  listing.StatusPendingReview,
		Workflow: listing.Workflow{
			Status:         listing.WorkflowPending,
			SubmissionType: listing.SubmissionInitial,
			SubmittedAt:    ev.At,
		},
		PriceHistory: []listing.PricePoint{{
			Price: ev.Fields.Price, At: ev.At, ChangedBy: ev.Actor, Reason: listing.PriceReasonInitial,
		}},
		CreatedAt: ev.At,
		UpdatedAt: ev.At,
	}
	appendHistory(&l, listing.ActionCreate, ev, "", listing.StatusPendingReview)

	rep := m.scan.Scan(l.Title, l.Description)
	raiseFlags(&l, rep, listing.FlagSourceScan, ev.At)
	prio := PriorityFor(rep.Severity)

	return Outcome{
		Next:    l,
		To:      listing.StatusPendingReview,
		Changed: true,
		Event:   EventCreated,
		Report:  &rep,
		Queue: QueueEffect{Enqueue: &Enqueue{
			Priority:    prio,
			Escalated:   prio == listing.PriorityUrgent,
			SubmittedBy: ev.Actor,
			Submission:  listing.SubmissionInitial,
		}},
	}
}

func (m *Machine) edit(cur *listing.Listing, ev Event) (Outcome, error) {
	if ev.Patch.Empty() {
		return Outcome{}, perr.Validationf("", "edit contains no fields")
	}
	switch cur.Status {
	case listing.StatusActive:
		// the claimed pending update is what the moderator is deciding on
		if cur.Workflow.Status == listing.WorkflowInReview {
			return Outcome{}, perr.InvalidStatef(string(cur.Status), "pending update is being reviewed and cannot be edited")
		}
		return m.editLive(cur, ev), nil
	case listing.StatusPendingReview, listing.StatusRejected:
		return m.editDirect(cur, ev), nil
	case listing.StatusChangesRequested:
		return m.resubmit(cur, ev), nil
	case listing.StatusUnderReview:
		if cur.Workflow.Status == listing.WorkflowChangesRequested {
			return m.resubmit(cur, ev), nil
		}
		return Outcome{}, perr.InvalidStatef(string(cur.Status), "listing is being reviewed and cannot be edited")
	}
	return Outcome{}, perr.InvalidStatef(string(cur.Status), "cannot edit a %s listing", cur.Status)
}

// editDirect writes straight into published fields; the listing is not public
func (m *Machine) editDirect(cur *listing.Listing, ev Event) Outcome {
	delta := revision.Diff(cur.Fields, ev.Patch, ev.Actor, ev.At)
	out := Outcome{From: cur.Status, To: cur.Status}
	if len(delta) == 0 {
		out.Next = cur.Clone()
		return out
	}

	next := cur.Clone()
	applyDirect(&next, ev, &out)
	out.Next, out.Changed, out.ChangesCount, out.Event = next, true, len(delta), EventUpdated

	// a listing still waiting for review gets rescored so its queue entry reflects the new text
	if cur.Status == listing.StatusPendingReview && touchesText(ev.Patch) {
		rep := m.scan.Scan(next.Title, next.Description)
		raiseFlags(&out.Next, rep, listing.FlagSourceScan, ev.At)
		out.Report = &rep
		out.Queue.Raise = PriorityFor(rep.Severity)
	}
	return out
}

func (m *Machine) resubmit(cur *listing.Listing, ev Event) Outcome {
	delta := revision.Diff(cur.Fields, ev.Patch, ev.Actor, ev.At)
	next := cur.Clone()
	out := Outcome{From: cur.Status, To: listing.StatusPendingReview, Changed: true, ChangesCount: len(delta)}
	applyDirect(&next, ev, &out)

	next.Status = listing.StatusPendingReview
	next.Workflow = listing.Workflow{
		Status:              listing.WorkflowPending,
		SubmissionType:      listing.SubmissionResubmission,
		PreviousReviewCount: cur.Workflow.PreviousReviewCount + 1,
		SubmittedAt:         ev.At,
	}
	appendHistory(&next, listing.ActionResubmit, ev, cur.Status, listing.StatusPendingReview)

	rep := m.scan.Scan(next.Title, next.Description)
	raiseFlags(&next, rep, listing.FlagSourceScan, ev.At)
	prio := PriorityFor(rep.Severity)

	out.Next, out.Event, out.Report = next, EventResubmitted, &rep
	out.Queue = QueueEffect{Close: true, Enqueue: &Enqueue{
		Priority:    prio,
		Escalated:   prio == listing.PriorityUrgent,
		SubmittedBy: ev.Actor,
		Submission:  listing.SubmissionResubmission,
	}}
	return out
}

// editLive accumulates into the pending update; published fields stay untouched
func (m *Machine) editLive(cur *listing.Listing, ev Event) Outcome {
	before := 0
	if cur.Pending != nil {
		before = len(cur.Pending.ChangeHistory)
	}
	pu := revision.Accumulate(cur.Pending, ev.Patch, cur.Fields, ev.Actor, ev.At)
	added := len(pu.ChangeHistory) - before

	out := Outcome{From: cur.Status, To: cur.Status, PendingReview: cur.Pending != nil}
	if added == 0 {
		out.Next = cur.Clone()
		return out
	}

	next := cur.Clone()
	effective := revision.Effective(cur.Fields, cur.Pending)
	if pp, ok := revision.PriceChange(effective.Price, ev.Patch, ev.Actor, listing.PriceReasonPendingEdit, ev.At); ok {
		next.PriceHistory = append(next.PriceHistory, pp)
	}
	next.Pending = &pu
	next.UpdatedAt = ev.At

	wf := &next.Workflow
	wf.SubmissionType = listing.SubmissionUpdate
	wf.SubmittedAt = pu.SubmittedAt
	wf.Status = listing.WorkflowPending
	wf.AssignedTo = ""
	wf.RequiredChanges = nil

	prio := listing.PriorityStandard
	if touchesText(ev.Patch) {
		view := revision.Effective(next.Fields, next.Pending)
		rep := m.scan.Scan(view.Title, view.Description)
		raiseFlags(&next, rep, listing.FlagSourcePending, ev.At)
		out.Report = &rep
		if rep.Flagged() {
			prio = PriorityFor(rep.Severity)
		}
	}

	out.Next, out.Changed, out.ChangesCount, out.PendingReview = next, true, added, true
	out.Event = EventUpdateSubmitted
	if cur.Pending == nil {
		out.Queue.Enqueue = &Enqueue{
			Priority:    prio,
			Escalated:   prio == listing.PriorityUrgent,
			SubmittedBy: ev.Actor,
			Submission:  listing.SubmissionUpdate,
		}
	} else if prio != listing.PriorityStandard {
		out.Queue.Raise = prio
	}
	return out
}

func (m *Machine) decide(cur *listing.Listing, ev Event) (Outcome, error) {
	if !ev.Decision.Valid() {
		return Outcome{}, perr.Validationf("decision", "unknown decision %q", ev.Decision)
	}
	if ev.Decision == listing.DecisionReject && strings.TrimSpace(ev.Notes) == "" {
		return Outcome{}, perr.Validationf("notes", "a reason is required to reject")
	}
	if ev.Decision == listing.DecisionRequestChanges && len(cleanList(ev.RequiredChanges)) == 0 && strings.TrimSpace(ev.Notes) == "" {
		return Outcome{}, perr.Validationf("requiredChanges", "list the changes the owner must make")
	}

	switch cur.Status {
	case listing.StatusPendingReview, listing.StatusUnderReview, listing.StatusChangesRequested:
		return m.decideReview(cur, ev), nil
	case listing.StatusActive:
		if cur.Pending != nil {
			return m.decideUpdate(cur, ev), nil
		}
		return Outcome{}, perr.InvalidStatef(string(cur.Status), "active listing has no pending update to review")
	}
	return Outcome{}, perr.InvalidStatef(string(cur.Status), "cannot %s a %s listing", ev.Decision, cur.Status)
}

// decideReview settles an initial or resubmitted listing
func (m *Machine) decideReview(cur *listing.Listing, ev Event) Outcome {
	next := cur.Clone()
	out := Outcome{From: cur.Status, Changed: true, Queue: QueueEffect{Close: true}}
	wf := &next.Workflow
	wf.AssignedTo = ""

	switch ev.Decision {
	case listing.DecisionApprove:
		if next.Pending != nil {
			out.TitleChanged = next.Pending.Changes.Title != nil && *next.Pending.Changes.Title != next.Title
			next.Fields = next.Fields.Apply(next.Pending.Changes)
			next.Pending = nil
		}
		next.Status = listing.StatusActive
		if next.PublishedAt == nil {
			t := ev.At
			next.PublishedAt = &t
		}
		wf.Status, wf.RequiredChanges = listing.WorkflowApproved, nil
		settleFlags(&next, "", listing.FlagCleared)
		appendHistory(&next, listing.ActionApprove, ev, cur.Status, next.Status)
		out.Event = EventApproved

	case listing.DecisionReject:
		next.Status = listing.StatusRejected
		next.Pending = nil
		wf.Status, wf.RequiredChanges = listing.WorkflowRejected, nil
		settleFlags(&next, "", listing.FlagUpheld)
		appendHistory(&next, listing.ActionReject, ev, cur.Status, next.Status)
		out.Event = EventRejected

	case listing.DecisionRequestChanges:
		next.Status = listing.StatusUnderReview
		wf.Status = listing.WorkflowChangesRequested
		wf.RequiredChanges = requiredChanges(ev)
		appendHistory(&next, listing.ActionRequestChanges, ev, cur.Status, next.Status)
		out.Event = EventChangesRequested
	}

	next.UpdatedAt = ev.At
	out.Next, out.To = next, next.Status
	return out
}

// decideUpdate settles a pending update on a live listing; the listing stays active
func (m *Machine) decideUpdate(cur *listing.Listing, ev Event) Outcome {
	next := cur.Clone()
	out := Outcome{From: cur.Status, To: cur.Status, Changed: true, Queue: QueueEffect{Close: true}}
	pending := next.Pending
	next.Pending = nil
	wf := &next.Workflow
	wf.AssignedTo = ""

	switch ev.Decision {
	case listing.DecisionApprove:
		out.TitleChanged = pending.Changes.Title != nil && *pending.Changes.Title != next.Title
		out.ChangesCount = len(pending.Changes.Names())
		next.Fields = next.Fields.Apply(pending.Changes)
		wf.Status, wf.RequiredChanges = listing.WorkflowApproved, nil
		settleFlags(&next, "", listing.FlagCleared)
		appendHistory(&next, listing.ActionApprove, ev, cur.Status, next.Status)
		out.Event = EventApproved

	case listing.DecisionReject:
		wf.Status, wf.RequiredChanges = listing.WorkflowRejected, nil
		settleFlags(&next, listing.FlagSourcePending, listing.FlagUpheld)
		appendHistory(&next, listing.ActionRejectUpdate, ev, cur.Status, next.Status)
		out.Event = EventUpdateRejected

	case listing.DecisionRequestChanges:
		wf.Status = listing.WorkflowChangesRequested
		wf.RequiredChanges = requiredChanges(ev)
		settleFlags(&next, listing.FlagSourcePending, listing.FlagObsolete)
		appendHistory(&next, listing.ActionRequestChanges, ev, cur.Status, next.Status)
		out.Event = EventChangesRequested
	}

	next.UpdatedAt = ev.At
	out.Next = next
	return out
}

// claim records that a moderator picked the listing up from the queue
func (m *Machine) claim(cur *listing.Listing, ev Event) (Outcome, error) {
	wf := cur.Workflow
	if wf.Status == listing.WorkflowInReview {
		if wf.AssignedTo == ev.Actor {
			return Outcome{Next: cur.Clone(), From: cur.Status, To: cur.Status}, nil
		}
		return Outcome{}, perr.Conflictf("listing is already being reviewed by another moderator")
	}

	next := cur.Clone()
	out := Outcome{From: cur.Status, Changed: true}
	switch {
	case cur.Status == listing.StatusPendingReview:
		next.Status = listing.StatusUnderReview
		out.Event = EventInReview
	case cur.Status == listing.StatusActive && cur.Pending != nil:
		out.Event = EventInReview
	default:
		return Outcome{}, perr.InvalidStatef(string(cur.Status), "nothing to review on a %s listing", cur.Status)
	}
	next.Workflow.Status = listing.WorkflowInReview
	next.Workflow.AssignedTo = ev.Actor
	next.UpdatedAt = ev.At
	appendHistory(&next, listing.ActionClaim, ev, cur.Status, next.Status)

	out.Next, out.To = next, next.Status
	return out, nil
}

// retire moves a live listing to a terminal state and drops any queued edits
func (m *Machine) retire(cur *listing.Listing, ev Event, to listing.Status, action listing.Action, et EventType) (Outcome, error) {
	if cur.Status != listing.StatusActive {
		return Outcome{}, perr.InvalidStatef(string(cur.Status), "only active listings can become %s", to)
	}
	next := cur.Clone()
	next.Pending = nil
	next.Status = to
	next.Workflow.Status = listing.WorkflowClosed
	next.Workflow.AssignedTo = ""
	next.UpdatedAt = ev.At
	settleFlags(&next, listing.FlagSourcePending, listing.FlagObsolete)
	appendHistory(&next, action, ev, cur.Status, to)

	return Outcome{
		Next: next, From: cur.Status, To: to, Changed: true, Event: et,
		Queue: QueueEffect{Close: true},
	}, nil
}

// applyDirect writes ev.Patch into published fields and records price and title movement
func applyDirect(next *listing.Listing, ev Event, out *Outcome) {
	if pp, ok := revision.PriceChange(next.Price, ev.Patch, ev.Actor, listing.PriceReasonEdit, ev.At); ok {
		next.PriceHistory = append(next.PriceHistory, pp)
	}
	if ev.Patch.Title != nil && *ev.Patch.Title != next.Title {
		out.TitleChanged = true
	}
	next.Fields = next.Fields.Apply(ev.Patch)
	next.UpdatedAt = ev.At
}

func appendHistory(l *listing.Listing, a listing.Action, ev Event, from, to listing.Status) {
	l.History = append(l.History, listing.HistoryEntry{
		Action: a, Actor: ev.Actor, At: ev.At, Notes: strings.TrimSpace(ev.Notes), From: from, To: to,
	})
}

// raiseFlags replaces open flags from source with one flag per flagged category of rep
func raiseFlags(l *listing.Listing, rep riskscan.Report, source string, at time.Time) {
	settleFlags(l, source, listing.FlagObsolete)
	for _, cat := range rep.FlagCategories() {
		detail := ""
		for _, v := range rep.Violations {
			if v.Category == cat && v.Severity.Rank() >= riskscan.SeverityMedium.Rank() {
				detail = v.MatchedText
				break
			}
		}
		l.Flags = append(l.Flags, listing.Flag{
			Type:     string(cat),
			Severity: string(rep.MaxSeverityOf(cat)),
			Status:   listing.FlagOpen,
			Source:   source,
			Detail:   detail,
			RaisedAt: at,
		})
	}
}

// settleFlags moves open flags to status; an empty source matches every flag
func settleFlags(l *listing.Listing, source string, status listing.FlagStatus) {
	for i := range l.Flags {
		f := &l.Flags[i]
		if f.Status == listing.FlagOpen && (source == "" || f.Source == source) {
			f.Status = status
		}
	}
}

func touchesText(p listing.Patch) bool { return p.Title != nil || p.Description != nil }

func requiredChanges(ev Event) []string {
	if rc := cleanList(ev.RequiredChanges); len(rc) > 0 {
		return rc
	}
	return []string{strings.TrimSpace(ev.Notes)}
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
