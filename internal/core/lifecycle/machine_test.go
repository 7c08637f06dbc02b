package lifecycle

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"harborlist/internal/core/listing"
	"harborlist/internal/core/riskscan"
	perr "harborlist/internal/platform/errors"
)

var t0 = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func machine(t *testing.T) *Machine {
	t.Helper()
	s, err := riskscan.Default()
	if err != nil {
		t.Fatalf("scanner: %v", err)
	}
	return New(s)
}

func cleanFields() listing.Fields {
	return listing.Fields{
		Title:       "2015 Beneteau Oceanis 38",
		Description: "Well kept sloop with new sails and a rebuilt diesel.",
		Price:       85000,
		Year:        2015,
		Boat:        listing.Boat{Make: "Beneteau", Model: "Oceanis 38", LengthFt: 38, Type: "sail"},
	}
}

func mustDecide(t *testing.T, m *Machine, cur *listing.Listing, ev Event) Outcome {
	t.Helper()
	out, err := m.Decide(cur, ev)
	if err != nil {
		t.Fatalf("Decide(%s): %v", ev.Kind, err)
	}
	return out
}

func created(t *testing.T, m *Machine, f listing.Fields) listing.Listing {
	t.Helper()
	out := mustDecide(t, m, nil, Event{
		Kind: KindCreate, Actor: "owner-1", At: t0,
		ListingID: "l-1", OwnerID: "owner-1", Slug: "s-1", Fields: f,
	})
	return out.Next
}

func active(t *testing.T, m *Machine) listing.Listing {
	t.Helper()
	l := created(t, m, cleanFields())
	out := mustDecide(t, m, &l, Event{Kind: KindDecide, Actor: "mod-1", At: t0.Add(time.Hour), Decision: listing.DecisionApprove})
	return out.Next
}

func TestCreate_CleanText(t *testing.T) {
	t.Parallel()
	m := machine(t)
	out := mustDecide(t, m, nil, Event{Kind: KindCreate, Actor: "owner-1", At: t0, ListingID: "l-1", OwnerID: "owner-1", Fields: cleanFields()})

	if out.Next.Status != listing.StatusPendingReview || out.Event != EventCreated {
		t.Fatalf("status=%s event=%s", out.Next.Status, out.Event)
	}
	if out.Queue.Enqueue == nil || out.Queue.Enqueue.Priority != listing.PriorityStandard || out.Queue.Enqueue.Escalated {
		t.Fatalf("queue got %+v", out.Queue.Enqueue)
	}
	if len(out.Next.Flags) != 0 {
		t.Fatalf("flags got %+v", out.Next.Flags)
	}
	if len(out.Next.PriceHistory) != 1 || out.Next.PriceHistory[0].Reason != listing.PriceReasonInitial {
		t.Fatalf("price history got %+v", out.Next.PriceHistory)
	}
	if len(out.Next.History) != 1 || out.Next.History[0].Action != listing.ActionCreate {
		t.Fatalf("history got %+v", out.Next.History)
	}
	if out.Next.Workflow.SubmissionType != listing.SubmissionInitial {
		t.Fatalf("submission type got %s", out.Next.Workflow.SubmissionType)
	}
}

func TestCreate_ProhibitedKeyword(t *testing.T) {
	t.Parallel()
	m := machine(t)
	f := cleanFields()
	f.Description = "Fast boat, previously used to run cocaine along the coast."
	out := mustDecide(t, m, nil, Event{Kind: KindCreate, Actor: "owner-1", At: t0, ListingID: "l-1", Fields: f})

	if out.Next.Status != listing.StatusPendingReview {
		t.Fatalf("status got %s", out.Next.Status)
	}
	if len(out.Next.Flags) != 1 || out.Next.Flags[0].Type != string(riskscan.CategoryProhibited) {
		t.Fatalf("flags got %+v", out.Next.Flags)
	}
	if q := out.Queue.Enqueue; q == nil || q.Priority != listing.PriorityUrgent || !q.Escalated {
		t.Fatalf("queue got %+v", q)
	}
}

func TestCreate_MediumRiskIsHighPriority(t *testing.T) {
	t.Parallel()
	m := machine(t)
	f := cleanFields()
	f.Description = "Serious buyers only, email skipper@example.com"
	out := mustDecide(t, m, nil, Event{Kind: KindCreate, Actor: "o", At: t0, ListingID: "l", Fields: f})
	if q := out.Queue.Enqueue; q.Priority != listing.PriorityHigh || q.Escalated {
		t.Fatalf("queue got %+v", q)
	}
	if len(out.Next.Flags) != 1 || out.Next.Flags[0].Type != "contact" {
		t.Fatalf("flags got %+v", out.Next.Flags)
	}
}

func TestCreate_OnExistingFails(t *testing.T) {
	t.Parallel()
	m := machine(t)
	l := created(t, m, cleanFields())
	_, err := m.Decide(&l, Event{Kind: KindCreate})
	if !perr.IsCode(err, perr.ErrorCodeInvalidState) {
		t.Fatalf("err got %v", err)
	}
}

// First-time approval: published fields equal what was submitted, queue entry closed
func TestApprove_InitialSubmission(t *testing.T) {
	t.Parallel()
	m := machine(t)
	l := created(t, m, cleanFields())
	out := mustDecide(t, m, &l, Event{Kind: KindDecide, Actor: "mod-1", At: t0.Add(time.Hour), Decision: listing.DecisionApprove})

	if out.Next.Status != listing.StatusActive || out.Event != EventApproved {
		t.Fatalf("status=%s event=%s", out.Next.Status, out.Event)
	}
	if !reflect.DeepEqual(out.Next.Fields, cleanFields()) {
		t.Fatalf("published fields changed on initial approval")
	}
	if !out.Queue.Close || out.Queue.Enqueue != nil {
		t.Fatalf("queue effect got %+v", out.Queue)
	}
	if out.Next.PublishedAt == nil || !out.Next.PublishedAt.Equal(t0.Add(time.Hour)) {
		t.Fatalf("publishedAt got %v", out.Next.PublishedAt)
	}
	if h := out.Next.History[len(out.Next.History)-1]; h.Action != listing.ActionApprove || h.From != listing.StatusPendingReview {
		t.Fatalf("history got %+v", h)
	}
}

// Price change then title change on a live listing with no moderator in between
func TestEditLive_AccumulatesTwoEdits(t *testing.T) {
	t.Parallel()
	m := machine(t)
	l := active(t, m)
	prices := len(l.PriceHistory)

	o1 := mustDecide(t, m, &l, Event{Kind: KindEdit, Actor: "owner-1", At: t0.Add(2 * time.Hour), Patch: listing.Patch{Price: listing.Ptr[int64](82000)}})
	if o1.Queue.Enqueue == nil || o1.Queue.Enqueue.Priority != listing.PriorityStandard {
		t.Fatalf("first edit should enqueue at standard, got %+v", o1.Queue)
	}
	l = o1.Next
	o2 := mustDecide(t, m, &l, Event{Kind: KindEdit, Actor: "owner-1", At: t0.Add(3 * time.Hour), Patch: listing.Patch{Title: listing.Ptr("Oceanis 38, one careful owner")}})
	if o2.Queue.Enqueue != nil {
		t.Fatalf("second edit must reuse the open queue entry")
	}
	l = o2.Next

	if l.Status != listing.StatusActive || l.Pending == nil {
		t.Fatalf("status=%s pending=%v", l.Status, l.Pending)
	}
	if *l.Pending.Changes.Price != 82000 || *l.Pending.Changes.Title != "Oceanis 38, one careful owner" {
		t.Fatalf("changes got %+v", l.Pending.Changes)
	}
	if len(l.Pending.ChangeHistory) != 2 {
		t.Fatalf("change history len=%d", len(l.Pending.ChangeHistory))
	}
	if len(l.PriceHistory) != prices+1 || l.PriceHistory[prices].Price != 82000 {
		t.Fatalf("price history got %+v", l.PriceHistory)
	}
	if !reflect.DeepEqual(l.Fields, cleanFields()) {
		t.Fatalf("published fields moved before approval")
	}
	if !l.Pending.SubmittedAt.Equal(t0.Add(2 * time.Hour)) {
		t.Fatalf("first submission time lost")
	}
	if !o2.PendingReview || o2.ChangesCount != 1 {
		t.Fatalf("pendingReview=%v changes=%d", o2.PendingReview, o2.ChangesCount)
	}
}

func TestEditLive_IdenticalEditIsNoop(t *testing.T) {
	t.Parallel()
	m := machine(t)
	l := active(t, m)
	edit := listing.Patch{Price: listing.Ptr[int64](82000)}
	l = mustDecide(t, m, &l, Event{Kind: KindEdit, Actor: "o", At: t0, Patch: edit}).Next
	again := mustDecide(t, m, &l, Event{Kind: KindEdit, Actor: "o", At: t0.Add(time.Minute), Patch: edit})

	if again.Changed || again.ChangesCount != 0 || !again.PendingReview {
		t.Fatalf("changed=%v count=%d pending=%v", again.Changed, again.ChangesCount, again.PendingReview)
	}
	if len(again.Next.Pending.ChangeHistory) != 1 || len(again.Next.PriceHistory) != len(l.PriceHistory) {
		t.Fatalf("duplicate rows written")
	}
}

func TestEditLive_FlaggedTextRaisesPriority(t *testing.T) {
	t.Parallel()
	m := machine(t)
	l := active(t, m)
	out := mustDecide(t, m, &l, Event{Kind: KindEdit, Actor: "o", At: t0, Patch: listing.Patch{Description: listing.Ptr("Text me at 305-555-0100")}})
	if q := out.Queue.Enqueue; q == nil || q.Priority != listing.PriorityHigh {
		t.Fatalf("queue got %+v", q)
	}
	if out.Next.OpenFlags() != 1 || out.Next.Flags[0].Source != listing.FlagSourcePending {
		t.Fatalf("flags got %+v", out.Next.Flags)
	}
}

func TestApprove_PendingUpdateMerges(t *testing.T) {
	t.Parallel()
	m := machine(t)
	l := active(t, m)
	l = mustDecide(t, m, &l, Event{Kind: KindEdit, Actor: "o", At: t0, Patch: listing.Patch{Title: listing.Ptr("Renamed sloop"), Price: listing.Ptr[int64](80000)}}).Next

	out := mustDecide(t, m, &l, Event{Kind: KindDecide, Actor: "mod", At: t0.Add(time.Hour), Decision: listing.DecisionApprove})
	n := out.Next
	if n.Status != listing.StatusActive || n.Pending != nil {
		t.Fatalf("status=%s pending=%v", n.Status, n.Pending)
	}
	if n.Title != "Renamed sloop" || n.Price != 80000 || !out.TitleChanged {
		t.Fatalf("merge got title=%q price=%d titleChanged=%v", n.Title, n.Price, out.TitleChanged)
	}
	if !out.Queue.Close {
		t.Fatalf("queue entry should close")
	}
}

func TestDecideUpdate_RejectKeepsListingLive(t *testing.T) {
	t.Parallel()
	m := machine(t)
	l := active(t, m)
	l = mustDecide(t, m, &l, Event{Kind: KindEdit, Actor: "o", At: t0, Patch: listing.Patch{Title: listing.Ptr("Renamed sloop")}}).Next

	out := mustDecide(t, m, &l, Event{Kind: KindDecide, Actor: "mod", At: t0, Decision: listing.DecisionReject, Notes: "misleading"})
	if out.Next.Status != listing.StatusActive || out.Next.Pending != nil || out.Event != EventUpdateRejected {
		t.Fatalf("got status=%s pending=%v event=%s", out.Next.Status, out.Next.Pending, out.Event)
	}
	if out.Next.Title != cleanFields().Title {
		t.Fatalf("published title changed on reject")
	}
	if h := out.Next.History[len(out.Next.History)-1]; h.Action != listing.ActionRejectUpdate || h.Notes != "misleading" {
		t.Fatalf("history got %+v", h)
	}
}

func TestRequestChanges_ThenResubmit(t *testing.T) {
	t.Parallel()
	m := machine(t)
	l := created(t, m, cleanFields())
	rc := mustDecide(t, m, &l, Event{Kind: KindDecide, Actor: "mod", At: t0, Decision: listing.DecisionRequestChanges, RequiredChanges: []string{"add photos", " add photos ", ""}})
	l = rc.Next
	if l.Status != listing.StatusUnderReview || l.Workflow.Status != listing.WorkflowChangesRequested {
		t.Fatalf("status=%s workflow=%s", l.Status, l.Workflow.Status)
	}
	if !reflect.DeepEqual(l.Workflow.RequiredChanges, []string{"add photos"}) || !rc.Queue.Close {
		t.Fatalf("required=%v queue=%+v", l.Workflow.RequiredChanges, rc.Queue)
	}

	before := l.Workflow.PreviousReviewCount
	out := mustDecide(t, m, &l, Event{Kind: KindEdit, Actor: "owner-1", At: t0.Add(time.Hour), Patch: listing.Patch{Images: &[]string{"https://img/a.jpg"}}})
	n := out.Next
	if n.Status != listing.StatusPendingReview || out.Event != EventResubmitted {
		t.Fatalf("status=%s event=%s", n.Status, out.Event)
	}
	if n.Workflow.PreviousReviewCount != before+1 {
		t.Fatalf("review count got=%d want=%d", n.Workflow.PreviousReviewCount, before+1)
	}
	if out.Queue.Enqueue == nil || out.Queue.Enqueue.Submission != listing.SubmissionResubmission {
		t.Fatalf("fresh queue entry expected, got %+v", out.Queue)
	}
	if len(n.Images) != 1 || n.Pending != nil {
		t.Fatalf("edit should apply directly")
	}
	if h := n.History[len(n.History)-1]; h.Action != listing.ActionResubmit {
		t.Fatalf("history got %+v", h)
	}
}

func TestEditDirect_PendingReviewStays(t *testing.T) {
	t.Parallel()
	m := machine(t)
	l := created(t, m, cleanFields())
	out := mustDecide(t, m, &l, Event{Kind: KindEdit, Actor: "o", At: t0, Patch: listing.Patch{Price: listing.Ptr[int64](79000), Description: listing.Ptr("Now with stolen electronics")}})
	if out.Next.Status != listing.StatusPendingReview || out.Next.Price != 79000 {
		t.Fatalf("got %s %d", out.Next.Status, out.Next.Price)
	}
	if out.Queue.Raise != listing.PriorityUrgent || out.Queue.Enqueue != nil {
		t.Fatalf("queue got %+v", out.Queue)
	}
	if len(out.Next.History) != len(l.History) {
		t.Fatalf("pure field edit must not append history")
	}
	if last := out.Next.PriceHistory[len(out.Next.PriceHistory)-1]; last.Reason != listing.PriceReasonEdit {
		t.Fatalf("price reason got %s", last.Reason)
	}
}

func TestRejected_StaysRejected(t *testing.T) {
	t.Parallel()
	m := machine(t)
	l := created(t, m, cleanFields())
	l = mustDecide(t, m, &l, Event{Kind: KindDecide, Actor: "mod", At: t0, Decision: listing.DecisionReject, Notes: "not a boat"}).Next

	for _, ev := range []Event{
		{Kind: KindDecide, Actor: "mod", Decision: listing.DecisionApprove},
		{Kind: KindClaim, Actor: "mod"},
		{Kind: KindMarkSold, Actor: "owner-1"},
		{Kind: KindExpire, Actor: "system"},
	} {
		if _, err := m.Decide(&l, ev); !perr.IsCode(err, perr.ErrorCodeInvalidState) || perr.StateOf(err) != string(listing.StatusRejected) {
			t.Fatalf("%s on rejected: err=%v", ev.Kind, err)
		}
	}
	out := mustDecide(t, m, &l, Event{Kind: KindEdit, Actor: "owner-1", Patch: listing.Patch{Year: listing.Ptr(2016)}})
	if out.Next.Status != listing.StatusRejected || out.Next.Year != 2016 {
		t.Fatalf("edit on rejected got %s %d", out.Next.Status, out.Next.Year)
	}
}

func TestDecide_Validation(t *testing.T) {
	t.Parallel()
	m := machine(t)
	l := created(t, m, cleanFields())
	cases := []Event{
		{Kind: KindDecide, Decision: "maybe"},
		{Kind: KindDecide, Decision: listing.DecisionReject},
		{Kind: KindDecide, Decision: listing.DecisionRequestChanges, RequiredChanges: []string{" "}},
		{Kind: KindEdit},
	}
	for _, ev := range cases {
		if _, err := m.Decide(&l, ev); !perr.IsCode(err, perr.ErrorCodeValidation) {
			t.Fatalf("%+v: err=%v", ev, err)
		}
	}
	a := active(t, m)
	if _, err := m.Decide(&a, Event{Kind: KindDecide, Decision: listing.DecisionApprove}); !perr.IsCode(err, perr.ErrorCodeInvalidState) {
		t.Fatalf("approve on active without pending: %v", err)
	}
}

func TestClaim(t *testing.T) {
	t.Parallel()
	m := machine(t)
	l := created(t, m, cleanFields())
	out := mustDecide(t, m, &l, Event{Kind: KindClaim, Actor: "mod-1", At: t0})
	if out.Next.Status != listing.StatusUnderReview || out.Next.Workflow.AssignedTo != "mod-1" || out.Event != EventInReview {
		t.Fatalf("claim got %+v", out.Next.Workflow)
	}
	l = out.Next
	if same := mustDecide(t, m, &l, Event{Kind: KindClaim, Actor: "mod-1"}); same.Changed {
		t.Fatalf("reclaim by the same moderator should be a no-op")
	}
	if _, err := m.Decide(&l, Event{Kind: KindClaim, Actor: "mod-2"}); !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("claim by another moderator: %v", err)
	}
	if _, err := m.Decide(&l, Event{Kind: KindEdit, Actor: "owner-1", Patch: listing.Patch{Year: listing.Ptr(2016)}}); !perr.IsCode(err, perr.ErrorCodeInvalidState) {
		t.Fatalf("edit during review: %v", err)
	}
	approved := mustDecide(t, m, &l, Event{Kind: KindDecide, Actor: "mod-1", Decision: listing.DecisionApprove})
	if approved.Next.Status != listing.StatusActive || approved.Next.Workflow.AssignedTo != "" {
		t.Fatalf("approve from under_review got %+v", approved.Next.Workflow)
	}
}

func TestClaim_PendingUpdateOnActive(t *testing.T) {
	t.Parallel()
	m := machine(t)
	l := active(t, m)
	l = mustDecide(t, m, &l, Event{Kind: KindEdit, Actor: "owner-1", Patch: listing.Patch{Price: listing.Ptr[int64](70000)}}).Next

	out := mustDecide(t, m, &l, Event{Kind: KindClaim, Actor: "mod-1", At: t0})
	if !out.Changed || out.Event != EventInReview || out.Next.Status != listing.StatusActive {
		t.Fatalf("claim got changed=%v event=%q status=%s", out.Changed, out.Event, out.Next.Status)
	}
	l = out.Next
	if _, err := m.Decide(&l, Event{Kind: KindEdit, Actor: "owner-1", Patch: listing.Patch{Price: listing.Ptr[int64](1)}}); !perr.IsCode(err, perr.ErrorCodeInvalidState) {
		t.Fatalf("edit of a claimed update got=%v want invalid state", err)
	}
	approved := mustDecide(t, m, &l, Event{Kind: KindDecide, Actor: "mod-1", Decision: listing.DecisionApprove})
	if approved.Next.Price != 70000 {
		t.Fatalf("approved price got=%d want=70000", approved.Next.Price)
	}
}

func TestMarkSoldAndExpire(t *testing.T) {
	t.Parallel()
	m := machine(t)
	l := active(t, m)
	l = mustDecide(t, m, &l, Event{Kind: KindEdit, Actor: "o", Patch: listing.Patch{Price: listing.Ptr[int64](1)}}).Next

	sold := mustDecide(t, m, &l, Event{Kind: KindMarkSold, Actor: "owner-1"})
	if sold.Next.Status != listing.StatusSold || sold.Next.Pending != nil || !sold.Queue.Close {
		t.Fatalf("sold got %+v", sold)
	}
	if _, err := m.Decide(&sold.Next, Event{Kind: KindEdit, Patch: listing.Patch{Year: listing.Ptr(1999)}}); !perr.IsCode(err, perr.ErrorCodeInvalidState) {
		t.Fatalf("edit on sold: %v", err)
	}

	exp := mustDecide(t, m, &l, Event{Kind: KindExpire, Actor: "system"})
	if exp.Next.Status != listing.StatusExpired || exp.Event != EventExpired {
		t.Fatalf("expire got %s", exp.Next.Status)
	}
}

// Random event sequences never break the listing invariants
func TestInvariants_RandomSequences(t *testing.T) {
	t.Parallel()
	m := machine(t)
	rng := rand.New(rand.NewSource(42))
	titles := []string{"Renamed sloop", "Classic cat", "Fast skiff"}
	decisions := []listing.Decision{listing.DecisionApprove, listing.DecisionReject, listing.DecisionRequestChanges}

	for run := 0; run < 200; run++ {
		l := created(t, m, cleanFields())
		for step := 0; step < 25; step++ {
			var ev Event
			switch rng.Intn(5) {
			case 0, 1:
				ev = Event{Kind: KindEdit, Actor: "owner-1", Patch: listing.Patch{Title: listing.Ptr(titles[rng.Intn(len(titles))])}}
			case 2:
				ev = Event{Kind: KindDecide, Actor: "mod", Decision: decisions[rng.Intn(3)], Notes: "n"}
			case 3:
				ev = Event{Kind: KindClaim, Actor: "mod"}
			default:
				ev = Event{Kind: KindMarkSold, Actor: "owner-1"}
			}
			ev.At = t0.Add(time.Duration(step) * time.Minute)

			before := l
			out, err := m.Decide(&l, ev)
			if err != nil {
				continue
			}
			n := out.Next
			if n.Pending != nil && n.Status != listing.StatusActive {
				t.Fatalf("pending update outside active: %s", n.Status)
			}
			if before.Status == listing.StatusActive && ev.Kind == KindEdit && !reflect.DeepEqual(before.Fields, n.Fields) {
				t.Fatalf("edit changed published fields of a live listing")
			}
			if n.Workflow.PreviousReviewCount < before.Workflow.PreviousReviewCount {
				t.Fatalf("review count decreased")
			}
			if before.Status == listing.StatusRejected && n.Status != listing.StatusRejected {
				t.Fatalf("rejected listing left rejected via %s", ev.Kind)
			}
			if before.Status != n.Status && len(n.History) != len(before.History)+1 {
				t.Fatalf("transition %s->%s appended %d history rows", before.Status, n.Status, len(n.History)-len(before.History))
			}
			if len(n.PriceHistory) < len(before.PriceHistory) || len(n.History) < len(before.History) {
				t.Fatalf("append-only history shrank")
			}
			l = n
		}
	}
}
