// Package service contains listing workflows: every write loads the listing,
// asks core/lifecycle for the outcome and persists it together with its queue
// and outbox effects in one transaction
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"harborlist/internal/core/lifecycle"
	"harborlist/internal/core/listing"
	"harborlist/internal/core/slug"
	"harborlist/internal/modkit/repokit"
	perr "harborlist/internal/platform/errors"
	"harborlist/internal/platform/logger"
	"harborlist/internal/platform/metrics"
	"harborlist/internal/platform/net/http/bind"
	"harborlist/internal/platform/store"
	identdom "harborlist/internal/services/ident/domain"
	"harborlist/internal/services/listings/domain"
	"harborlist/internal/services/listings/repo"
	outboxdom "harborlist/internal/services/outbox/domain"
	queuedom "harborlist/internal/services/queue/domain"

	"github.com/google/uuid"
)

// Service is the public service port plus what the queue and the sweeper need
type Service interface {
	domain.ServicePort
	domain.SweepPort
	queuedom.ListingPort
}

// Svc implements the service port
type Svc struct {
	db      repokit.TxRunner
	binder  repokit.Binder[repo.Repo]
	machine *lifecycle.Machine

	queue  queuedom.TxPort
	events outboxdom.TxPort
	auth   identdom.CapabilityPort
	media  domain.MediaPort
	cache  domain.SlugCache

	retry        store.RetryPolicy
	staleRetries int
	maxImages    int
	now          func() time.Time
	newID        func() string
}

// Options control service behavior. Queue, Events, Auth and Scanner are required
type Options struct {
	Queue   queuedom.TxPort
	Events  outboxdom.TxPort
	Auth    identdom.CapabilityPort
	Scanner lifecycle.Scanner

	// Media is optional; without it image URLs are only syntax checked
	Media domain.MediaPort
	// Cache is optional
	Cache domain.SlugCache

	Retry store.RetryPolicy
	// StaleRetries bounds how often an owner edit is re-decided after losing a
	// version race (default 3)
	StaleRetries int
	MaxImages    int // default 20
}

// New constructs the service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], opt Options) *Svc {
	if db == nil {
		panic("listings.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("listings.Service requires a non nil Repo binder")
	}
	if opt.Queue == nil || opt.Events == nil {
		panic("listings.Service requires queue and outbox ports")
	}
	if opt.Auth == nil {
		panic("listings.Service requires a non nil CapabilityPort")
	}
	if opt.Scanner == nil {
		panic("listings.Service requires a content scanner")
	}
	if opt.StaleRetries <= 0 {
		opt.StaleRetries = 3
	}
	if opt.MaxImages <= 0 {
		opt.MaxImages = 20
	}
	return &Svc{
		db:           db,
		binder:       binder,
		machine:      lifecycle.New(opt.Scanner),
		queue:        opt.Queue,
		events:       opt.Events,
		auth:         opt.Auth,
		media:        opt.Media,
		cache:        opt.Cache,
		retry:        opt.Retry,
		staleRetries: opt.StaleRetries,
		maxImages:    opt.MaxImages,
		now:          func() time.Time { return time.Now().UTC() },
		newID:        func() string { return uuid.NewString() },
	}
}

// Create validates the request, checks the quota and stores a pending_review
// listing with its first queue entry
func (s *Svc) Create(ctx context.Context, a domain.Actor, in domain.CreateInput) (domain.CreateResult, error) {
	if a.Anonymous() {
		return domain.CreateResult{}, perr.Unauthorizedf("authentication required")
	}
	in.Normalize()
	if err := bind.Validate(in); err != nil {
		return domain.CreateResult{}, err
	}
	fields := in.Fields()
	if err := s.checkYear(fields.Year); err != nil {
		return domain.CreateResult{}, err
	}
	if err := s.checkImages(fields.Images); err != nil {
		return domain.CreateResult{}, err
	}
	if err := s.allow(ctx, a, identdom.ActionCreate, identdom.Target{OwnerID: a.ID}); err != nil {
		return domain.CreateResult{}, err
	}
	if s.media != nil {
		if err := s.media.Validate(ctx, a.ID, fields.Images); err != nil {
			return domain.CreateResult{}, err
		}
	}

	id := s.newID()
	ev := lifecycle.Event{Kind: lifecycle.KindCreate, Actor: a.ID, At: s.now(), ListingID: id, OwnerID: a.ID, Fields: fields}

	var out lifecycle.Outcome
	err := store.RunTx(ctx, s.db, s.retry, func(ctx context.Context, q store.RowQuerier) error {
		r := s.binder.Bind(q)
		sl, err := slug.Unique(ctx, fields.Title, id, r.SlugTaken)
		if err != nil {
			return err
		}
		ev.Slug = sl
		out, err = s.machine.Decide(nil, ev)
		if err != nil {
			return err
		}
		out.Next.Version = 1
		if err := r.Insert(ctx, out.Next); err != nil {
			return err
		}
		return s.effects(ctx, q, ev, out)
	})
	if err != nil {
		return domain.CreateResult{}, err
	}

	s.observe(ctx, ev, out)
	return domain.CreateResult{
		ListingID: id,
		Slug:      out.Next.Slug,
		Status:    out.Next.Status,
		Version:   out.Next.Version,
	}, nil
}

// Update applies an owner edit. Live listings accumulate it into the pending
// update; everything else is written directly or resubmitted
func (s *Svc) Update(ctx context.Context, a domain.Actor, id string, in domain.UpdateInput) (domain.UpdateResult, error) {
	if a.Anonymous() {
		return domain.UpdateResult{}, perr.Unauthorizedf("authentication required")
	}
	in.Normalize()
	if err := bind.Validate(in); err != nil {
		return domain.UpdateResult{}, err
	}
	patch := in.Patch()
	if patch.Empty() {
		return domain.UpdateResult{}, perr.Validationf("", "update contains no fields")
	}
	if patch.Year != nil {
		if err := s.checkYear(*patch.Year); err != nil {
			return domain.UpdateResult{}, err
		}
	}
	if patch.Images != nil {
		if err := s.checkImages(*patch.Images); err != nil {
			return domain.UpdateResult{}, err
		}
	}

	m := mutation{
		id:     id,
		ev:     lifecycle.Event{Kind: lifecycle.KindEdit, Actor: a.ID, Patch: patch},
		expect: in.ExpectedVersion,
		authorize: func(ctx context.Context, cur listing.Listing) error {
			if err := s.allow(ctx, a, identdom.ActionEdit, target(cur)); err != nil {
				return err
			}
			if s.media != nil && patch.Images != nil {
				return s.media.Validate(ctx, cur.OwnerID, *patch.Images)
			}
			return nil
		},
	}
	// a caller that pinned a version wants the conflict, not a re-decide
	out, err := s.mutate(ctx, m, in.ExpectedVersion == nil)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	return domain.UpdateResult{
		Status:        out.Next.Status,
		PendingReview: out.PendingReview,
		ChangesCount:  out.ChangesCount,
		Slug:          out.Next.Slug,
		Version:       out.Next.Version,
	}, nil
}

// Moderate records a reviewer decision. A lost version race is returned as a
// conflict so the reviewer sees the owner's newer edit before deciding again
func (s *Svc) Moderate(ctx context.Context, a domain.Actor, id string, in domain.ModerateInput) (domain.StatusResult, error) {
	if a.Anonymous() {
		return domain.StatusResult{}, perr.Unauthorizedf("authentication required")
	}
	in.Notes = strings.TrimSpace(in.Notes)
	if err := bind.Validate(in); err != nil {
		return domain.StatusResult{}, err
	}

	m := mutation{
		id: id,
		ev: lifecycle.Event{
			Kind:            lifecycle.KindDecide,
			Actor:           a.ID,
			Decision:        listing.Decision(in.Decision),
			Notes:           in.Notes,
			RequiredChanges: in.RequiredChanges,
		},
		expect: in.ExpectedVersion,
		authorize: func(ctx context.Context, cur listing.Listing) error {
			if err := s.allow(ctx, a, identdom.ActionModerate, target(cur)); err != nil {
				return err
			}
			wf := cur.Workflow
			if wf.Status == listing.WorkflowInReview && wf.AssignedTo != "" && wf.AssignedTo != a.ID && !a.Has(identdom.RoleAdmin) {
				return perr.Conflictf("listing %s is being reviewed by another moderator", cur.ID)
			}
			return nil
		},
	}
	out, err := s.mutate(ctx, m, false)
	if err != nil {
		return domain.StatusResult{}, err
	}
	return statusOf(out.Next), nil
}

// MarkSold retires an active listing on the owner's request
func (s *Svc) MarkSold(ctx context.Context, a domain.Actor, id string) (domain.StatusResult, error) {
	if a.Anonymous() {
		return domain.StatusResult{}, perr.Unauthorizedf("authentication required")
	}
	m := mutation{
		id: id,
		ev: lifecycle.Event{Kind: lifecycle.KindMarkSold, Actor: a.ID},
		authorize: func(ctx context.Context, cur listing.Listing) error {
			return s.allow(ctx, a, identdom.ActionMarkSold, target(cur))
		},
	}
	out, err := s.mutate(ctx, m, true)
	if err != nil {
		return domain.StatusResult{}, err
	}
	return statusOf(out.Next), nil
}

// Expire retires an active listing whose publication ran out
func (s *Svc) Expire(ctx context.Context, id string) (domain.StatusResult, error) {
	m := mutation{id: id, ev: lifecycle.Event{Kind: lifecycle.KindExpire, Actor: domain.SweeperActor}}
	out, err := s.mutate(ctx, m, true)
	if err != nil {
		return domain.StatusResult{}, err
	}
	return statusOf(out.Next), nil
}

// DueForExpiry lists active listings published before the cutoff
func (s *Svc) DueForExpiry(ctx context.Context, publishedBefore time.Time, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.binder.Bind(s.db).DueForExpiry(ctx, publishedBefore, limit)
}

// Get returns a listing by id or slug. Listings the public cannot see look
// missing unless the caller is the owner or a reviewer
func (s *Svc) Get(ctx context.Context, a domain.Actor, idOrSlug string) (domain.View, error) {
	idOrSlug = strings.TrimSpace(idOrSlug)
	if idOrSlug == "" {
		return domain.View{}, perr.Validationf("idOrSlug", "listing id or slug required")
	}
	id, err := s.resolve(ctx, idOrSlug)
	if err != nil {
		return domain.View{}, err
	}
	l, err := s.binder.Bind(s.db).Get(ctx, id)
	if err != nil {
		return domain.View{}, err
	}

	private := false
	if !a.Anonymous() {
		if private, err = s.auth.CanPerform(ctx, a, identdom.ActionViewPrivate, target(l)); err != nil {
			return domain.View{}, err
		}
	}
	if !private && !l.Status.Visible() {
		return domain.View{}, perr.NotFoundf("listing %q not found", idOrSlug)
	}

	v := domain.NewView(l, private)
	if idOrSlug != l.ID && idOrSlug != l.Slug {
		v.RequestedSlug = idOrSlug
	}
	return v, nil
}

func (s *Svc) resolve(ctx context.Context, idOrSlug string) (string, error) {
	if u, err := uuid.Parse(idOrSlug); err == nil {
		return u.String(), nil
	}
	if s.cache != nil {
		if id, ok := s.cache.Get(ctx, idOrSlug); ok {
			return id, nil
		}
	}
	id, _, err := s.binder.Bind(s.db).Resolve(ctx, idOrSlug)
	if err != nil {
		return "", err
	}
	if s.cache != nil {
		s.cache.Set(ctx, idOrSlug, id)
	}
	return id, nil
}

// Claim moves a listing into review for the moderator assigning its queue entry.
// It runs inside the queue's transaction
func (s *Svc) Claim(ctx context.Context, q repokit.Queryer, listingID, moderatorID string) error {
	ev := lifecycle.Event{Kind: lifecycle.KindClaim, Actor: moderatorID, At: s.now()}
	out, err := s.step(ctx, q, mutation{id: listingID, ev: ev})
	if err != nil {
		return err
	}
	s.observe(ctx, ev, out)
	return nil
}

// Outstanding reports whether the listing still waits for a moderator decision
func (s *Svc) Outstanding(ctx context.Context, q repokit.Queryer, listingID string) (bool, error) {
	l, err := s.binder.Bind(q).Get(ctx, listingID)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return awaitingDecision(l), nil
}

func awaitingDecision(l listing.Listing) bool {
	if l.Workflow.Status == listing.WorkflowChangesRequested {
		return false
	}
	switch l.Status {
	case listing.StatusPendingReview, listing.StatusUnderReview:
		return true
	case listing.StatusActive:
		return l.Pending != nil
	}
	return false
}

// mutation is one lifecycle event against a stored listing
type mutation struct {
	id string
	ev lifecycle.Event
	// authorize runs after the load and before the decision
	authorize func(ctx context.Context, cur listing.Listing) error
	expect    *int64
}

// mutate runs m in its own transaction. retryStale re-decides on a fresh read
// when a concurrent writer bumped the version first
func (s *Svc) mutate(ctx context.Context, m mutation, retryStale bool) (lifecycle.Outcome, error) {
	attempts := 1
	if retryStale {
		attempts = s.staleRetries
	}
	var (
		out lifecycle.Outcome
		err error
	)
	for i := 0; i < attempts; i++ {
		m.ev.At = s.now()
		err = store.RunTx(ctx, s.db, s.retry, func(ctx context.Context, q store.RowQuerier) error {
			var stepErr error
			out, stepErr = s.step(ctx, q, m)
			return stepErr
		})
		if !errors.Is(err, repo.ErrStale) {
			break
		}
		logger.C(ctx).Debug().Str("listing_id", m.id).Int("attempt", i+1).Msg("listing version moved; re-reading")
	}
	if err != nil {
		if errors.Is(err, repo.ErrStale) {
			return lifecycle.Outcome{}, perr.Conflictf("listing %s was modified concurrently; refresh and retry", m.id)
		}
		return lifecycle.Outcome{}, err
	}
	s.observe(ctx, m.ev, out)
	return out, nil
}

// step loads, decides and persists one mutation through q
func (s *Svc) step(ctx context.Context, q repokit.Queryer, m mutation) (lifecycle.Outcome, error) {
	r := s.binder.Bind(q)
	cur, err := r.Get(ctx, m.id)
	if err != nil {
		return lifecycle.Outcome{}, err
	}
	if m.authorize != nil {
		if err := m.authorize(ctx, cur); err != nil {
			return lifecycle.Outcome{}, err
		}
	}
	if m.expect != nil && *m.expect != cur.Version {
		return lifecycle.Outcome{}, perr.Conflictf("listing %s is at version %d, not %d; refresh and retry", cur.ID, cur.Version, *m.expect)
	}

	out, err := s.machine.Decide(&cur, m.ev)
	if err != nil {
		return lifecycle.Outcome{}, err
	}
	if !out.Changed {
		return out, nil
	}

	next := out.Next
	var redirect *slug.Redirect
	if out.TitleChanged {
		next.Slug, redirect, err = slug.Rename(ctx, cur.Slug, next.Title, cur.ID, r.SlugTaken)
		if err != nil {
			return lifecycle.Outcome{}, err
		}
	}
	if err := r.Save(ctx, cur, &next); err != nil {
		return lifecycle.Outcome{}, err
	}
	if redirect != nil {
		if err := r.AddRedirect(ctx, redirect.From, cur.ID, m.ev.At); err != nil {
			return lifecycle.Outcome{}, err
		}
		if s.cache != nil {
			s.cache.Delete(ctx, redirect.From, redirect.To)
		}
	}
	out.Next = next
	if err := s.effects(ctx, q, m.ev, out); err != nil {
		return lifecycle.Outcome{}, err
	}
	return out, nil
}

// effects applies the queue changes and appends the domain event
func (s *Svc) effects(ctx context.Context, q repokit.Queryer, ev lifecycle.Event, out lifecycle.Outcome) error {
	id := out.Next.ID
	qe := out.Queue
	if qe.Close {
		if err := s.queue.CloseOpen(ctx, q, id); err != nil {
			return err
		}
	}
	if e := qe.Enqueue; e != nil {
		_, err := s.queue.Enqueue(ctx, q, queuedom.EnqueueInput{
			ListingID:   id,
			SubmittedBy: e.SubmittedBy,
			Submission:  e.Submission,
			Priority:    e.Priority,
			Escalated:   e.Escalated,
			At:          ev.At,
		})
		if err != nil {
			return err
		}
	}
	if qe.Raise != "" {
		if err := s.queue.Raise(ctx, q, id, qe.Raise); err != nil {
			return err
		}
	}
	if out.Event == "" {
		return nil
	}
	return s.events.Append(ctx, q, payload(ev, out))
}

func payload(ev lifecycle.Event, out lifecycle.Outcome) outboxdom.Payload {
	p := outboxdom.Payload{
		Type:       string(out.Event),
		ListingID:  out.Next.ID,
		OwnerID:    out.Next.OwnerID,
		ActorID:    ev.Actor,
		FromStatus: string(out.From),
		ToStatus:   string(out.To),
		Slug:       out.Next.Slug,
		Notes:      strings.TrimSpace(ev.Notes),
		OccurredAt: ev.At,
	}
	switch {
	case out.Queue.Enqueue != nil:
		p.Priority = string(out.Queue.Enqueue.Priority)
	case out.Queue.Raise != "":
		p.Priority = string(out.Queue.Raise)
	}
	if out.Report != nil {
		p.Severity = string(out.Report.Severity)
	}
	return p
}

// observe logs and counts a committed outcome
func (s *Svc) observe(ctx context.Context, ev lifecycle.Event, out lifecycle.Outcome) {
	if out.Report != nil {
		metrics.ScanSeverity.WithLabelValues(string(out.Report.Severity)).Inc()
	}
	if !out.Changed {
		return
	}
	metrics.Transitions.WithLabelValues(string(out.Event), string(out.From), string(out.To)).Inc()

	e := logger.C(ctx).Info().
		Str("listing_id", out.Next.ID).
		Str("from", string(out.From)).
		Str("to", string(out.To)).
		Str("event", string(out.Event)).
		Str("actor", ev.Actor)
	if out.ChangesCount > 0 {
		e = e.Int("changes", out.ChangesCount)
	}
	if out.Report != nil && out.Report.Flagged() {
		e = e.Str("severity", string(out.Report.Severity))
	}
	e.Msg("listing transition")
}

func (s *Svc) allow(ctx context.Context, a domain.Actor, act identdom.Action, t identdom.Target) error {
	ok, err := s.auth.CanPerform(ctx, a, act, t)
	if err != nil {
		return err
	}
	if !ok {
		if t.ListingID == "" {
			return perr.Forbiddenf("not allowed to %s listings", act)
		}
		return perr.Forbiddenf("not allowed to %s listing %s", act, t.ListingID)
	}
	return nil
}

func (s *Svc) checkYear(year int) error {
	if limit := s.now().Year() + 1; year > limit {
		return perr.Validationf("year", "year must be at most %d", limit)
	}
	return nil
}

func (s *Svc) checkImages(urls []string) error {
	if len(urls) > s.maxImages {
		return perr.Validationf("images", "at most %d images", s.maxImages)
	}
	return nil
}

func target(l listing.Listing) identdom.Target {
	return identdom.Target{ListingID: l.ID, OwnerID: l.OwnerID}
}

func statusOf(l listing.Listing) domain.StatusResult {
	return domain.StatusResult{Status: l.Status, WorkflowStatus: l.Workflow.Status, Version: l.Version}
}
