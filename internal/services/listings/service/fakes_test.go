package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"harborlist/internal/core/listing"
	"harborlist/internal/core/riskscan"
	"harborlist/internal/modkit/repokit"
	perr "harborlist/internal/platform/errors"
	"harborlist/internal/platform/store"
	identdom "harborlist/internal/services/ident/domain"
	identsvc "harborlist/internal/services/ident/service"
	"harborlist/internal/services/listings/domain"
	"harborlist/internal/services/listings/repo"
	outboxdom "harborlist/internal/services/outbox/domain"
	queuedom "harborlist/internal/services/queue/domain"
)

// memRepo is an in-memory listing repo with the same version check as Postgres
type memRepo struct {
	mu        sync.Mutex
	rows      map[string]listing.Listing
	redirects map[string]string
	saves     int
	// beforeSave runs once per Save before the version check; tests use it to
	// slip a concurrent write in
	beforeSave func(m *memRepo, id string)
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[string]listing.Listing{}, redirects: map[string]string{}}
}

type memBinder struct{ r *memRepo }

func (b memBinder) Bind(repokit.Queryer) repo.Repo { return b.r }

func (m *memRepo) Get(_ context.Context, id string) (listing.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[id]
	if !ok {
		return listing.Listing{}, perr.NotFoundf("listing %s not found", id)
	}
	return l.Clone(), nil
}

func (m *memRepo) Resolve(_ context.Context, slug string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, l := range m.rows {
		if l.Slug == slug {
			return id, true, nil
		}
	}
	if id, ok := m.redirects[slug]; ok {
		return id, false, nil
	}
	return "", false, perr.NotFoundf("listing %q not found", slug)
}

func (m *memRepo) SlugTaken(_ context.Context, slug, exceptID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, l := range m.rows {
		if l.Slug == slug && id != exceptID {
			return true, nil
		}
	}
	if id, ok := m.redirects[slug]; ok && id != exceptID {
		return true, nil
	}
	return false, nil
}

func (m *memRepo) Insert(_ context.Context, l listing.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[l.ID]; ok {
		return perr.Conflictf("listing exists")
	}
	m.rows[l.ID] = l.Clone()
	return nil
}

func (m *memRepo) Save(_ context.Context, cur listing.Listing, next *listing.Listing) error {
	if hook := m.beforeSave; hook != nil {
		m.beforeSave = nil
		hook(m, cur.ID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	stored, ok := m.rows[cur.ID]
	if !ok || stored.Version != cur.Version {
		return repo.ErrStale
	}
	next.Version = cur.Version + 1
	m.rows[cur.ID] = next.Clone()
	delete(m.redirects, next.Slug)
	return nil
}

func (m *memRepo) AddRedirect(_ context.Context, oldSlug, listingID string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.redirects[oldSlug]; !ok {
		m.redirects[oldSlug] = listingID
	}
	return nil
}

func (m *memRepo) DueForExpiry(_ context.Context, before time.Time, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for id, l := range m.rows {
		if l.Status == listing.StatusActive && l.PublishedAt != nil && l.PublishedAt.Before(before) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// bump simulates another writer committing
func (m *memRepo) bump(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.rows[id]
	l.Version++
	m.rows[id] = l
}

// fakeTx runs fn inline
type fakeTx struct{ calls int }

func (f *fakeTx) Tx(_ context.Context, fn func(q store.RowQuerier) error) error {
	f.calls++
	return fn(f)
}

func (f *fakeTx) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (f *fakeTx) Query(context.Context, string, ...any) (store.Rows, error)      { return nil, nil }
func (f *fakeTx) QueryRow(context.Context, string, ...any) store.Row            { return nil }

// fakeQueue records the queue effects
type fakeQueue struct {
	enqueued []queuedom.EnqueueInput
	closed   []string
	raised   []listing.Priority
}

func (f *fakeQueue) Enqueue(_ context.Context, _ repokit.Queryer, in queuedom.EnqueueInput) (queuedom.Entry, error) {
	f.enqueued = append(f.enqueued, in)
	return queuedom.Entry{ListingID: in.ListingID, Priority: in.Priority, Status: queuedom.StatusPending}, nil
}

func (f *fakeQueue) CloseOpen(_ context.Context, _ repokit.Queryer, listingID string) error {
	f.closed = append(f.closed, listingID)
	return nil
}

func (f *fakeQueue) Raise(_ context.Context, _ repokit.Queryer, _ string, p listing.Priority) error {
	f.raised = append(f.raised, p)
	return nil
}

type fakeEvents struct{ got []outboxdom.Payload }

func (f *fakeEvents) Append(_ context.Context, _ repokit.Queryer, p outboxdom.Payload) error {
	f.got = append(f.got, p)
	return nil
}

func (f *fakeEvents) types() []string {
	out := make([]string, 0, len(f.got))
	for _, p := range f.got {
		out = append(out, p.Type)
	}
	return out
}

type fakeQuota struct{ n int }

func (f fakeQuota) CountOpen(context.Context, string) (int, error) { return f.n, nil }

type quotaBinder struct{ r identdom.QuotaRepo }

func (b quotaBinder) Bind(repokit.Queryer) identdom.QuotaRepo { return b.r }

type fakeMedia struct{ err error }

func (f fakeMedia) Validate(context.Context, string, []string) error { return f.err }

type fakeCache struct {
	mu      sync.Mutex
	m       map[string]string
	deleted []string
}

func (c *fakeCache) Get(_ context.Context, slug string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.m[slug]
	return id, ok
}

func (c *fakeCache) Set(_ context.Context, slug, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[slug] = id
}

func (c *fakeCache) Delete(_ context.Context, slugs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range slugs {
		delete(c.m, s)
		c.deleted = append(c.deleted, s)
	}
}

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

var (
	seller = domain.Actor{ID: "owner-1", Roles: []string{identdom.RoleSeller}}
	other  = domain.Actor{ID: "owner-2", Roles: []string{identdom.RoleSeller}}
	mod    = domain.Actor{ID: "mod-1", Roles: []string{identdom.RoleModerator}}
	mod2   = domain.Actor{ID: "mod-2", Roles: []string{identdom.RoleModerator}}
)

type harness struct {
	svc    *Svc
	repo   *memRepo
	tx     *fakeTx
	queue  *fakeQueue
	events *fakeEvents
	cache  *fakeCache
}

type harnessOpt func(*Options)

func newHarness(t *testing.T, opts ...harnessOpt) *harness {
	t.Helper()
	sc, err := riskscan.Default()
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	h := &harness{
		repo:   newMemRepo(),
		tx:     &fakeTx{},
		queue:  &fakeQueue{},
		events: &fakeEvents{},
		cache:  &fakeCache{m: map[string]string{}},
	}
	o := Options{
		Queue:   h.queue,
		Events:  h.events,
		Auth:    identsvc.New(h.tx, quotaBinder{r: fakeQuota{}}, 0),
		Scanner: sc,
		Cache:   h.cache,
	}
	for _, fn := range opts {
		fn(&o)
	}
	h.svc = New(h.tx, memBinder{r: h.repo}, o)
	h.svc.now = func() time.Time { return t0 }
	return h
}

func validInput() domain.CreateInput {
	return domain.CreateInput{
		Title:       "2015 Beneteau Oceanis 38",
		Description: "Well kept sloop with new sails and a clean survey.",
		Price:       85000,
		Year:        2015,
		Boat:        domain.BoatInput{Make: "Beneteau", Model: "Oceanis 38", LengthFt: 38, Type: "sail"},
		Images:      []string{"https://img.example.com/owner-1/a.jpg"},
		Features:    []string{"autopilot"},
	}
}

// create stores a listing and returns its id
func (h *harness) create(t *testing.T, in domain.CreateInput) string {
	t.Helper()
	res, err := h.svc.Create(context.Background(), seller, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return res.ListingID
}

// active stores a listing and approves it
func (h *harness) active(t *testing.T) string {
	t.Helper()
	id := h.create(t, validInput())
	if _, err := h.svc.Moderate(context.Background(), mod, id, domain.ModerateInput{Decision: "approve"}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	return id
}

func (h *harness) row(t *testing.T, id string) listing.Listing {
	t.Helper()
	l, err := h.repo.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("row %s: %v", id, err)
	}
	return l
}
