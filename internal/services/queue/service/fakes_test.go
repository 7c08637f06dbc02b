package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"harborlist/internal/core/listing"
	"harborlist/internal/modkit/repokit"
	perr "harborlist/internal/platform/errors"
	"harborlist/internal/platform/store"
	"harborlist/internal/services/queue/domain"
	"harborlist/internal/services/queue/repo"
)

// memRepo is an in-memory queue repo shared by every bound Queryer
type memRepo struct {
	mu      sync.Mutex
	entries map[string]domain.Entry
	depth   []domain.Depth
	err     error
}

func newMemRepo(es ...domain.Entry) *memRepo {
	m := &memRepo{entries: map[string]domain.Entry{}}
	for _, e := range es {
		m.entries[e.ID] = e
	}
	return m
}

type memBinder struct{ r *memRepo }

func (b memBinder) Bind(repokit.Queryer) repo.Repo { return b.r }

func (m *memRepo) open(listingID string) (domain.Entry, bool) {
	for _, e := range m.entries {
		if e.ListingID == listingID && e.Status != domain.StatusResolved {
			return e, true
		}
	}
	return domain.Entry{}, false
}

func (m *memRepo) Insert(_ context.Context, e domain.Entry) (domain.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if open, ok := m.open(e.ListingID); ok {
		return open, nil
	}
	m.entries[e.ID] = e
	return e, nil
}

func (m *memRepo) Get(_ context.Context, id string) (domain.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return domain.Entry{}, perr.NotFoundf("queue entry %s not found", id)
	}
	return e, nil
}

func (m *memRepo) GetForUpdate(ctx context.Context, id string) (domain.Entry, error) {
	return m.Get(ctx, id)
}

func (m *memRepo) MarkAssigned(_ context.Context, id, mod string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entries[id]
	e.Status, e.AssignedTo, e.AssignedAt = domain.StatusInReview, mod, &at
	m.entries[id] = e
	return nil
}

func (m *memRepo) MarkResolved(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entries[id]
	e.Status, e.ResolvedAt = domain.StatusResolved, &at
	m.entries[id] = e
	return nil
}

func (m *memRepo) ResolveOpen(_ context.Context, listingID string, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.open(listingID)
	if !ok {
		return 0, nil
	}
	e.Status, e.ResolvedAt = domain.StatusResolved, &at
	m.entries[e.ID] = e
	return 1, nil
}

func (m *memRepo) Raise(_ context.Context, listingID string, p listing.Priority) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.open(listingID)
	if !ok || e.Priority.Rank() <= p.Rank() {
		return 0, nil
	}
	e.Priority = p
	e.Escalated = e.Escalated || p == listing.PriorityUrgent
	m.entries[e.ID] = e
	return 1, nil
}

func (m *memRepo) List(_ context.Context, f domain.Filter) ([]domain.Entry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, 0, m.err
	}
	var out []domain.Entry
	for _, e := range m.entries {
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.Priority != "" && e.Priority != f.Priority {
			continue
		}
		if f.Assignee != "" && e.AssignedTo != f.Assignee {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		return a.SubmittedAt.Before(b.SubmittedAt)
	})
	total := len(out)
	if f.Offset >= len(out) {
		return nil, total, nil
	}
	out = out[f.Offset:]
	if f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (m *memRepo) Depth(context.Context) ([]domain.Depth, error) { return m.depth, m.err }

// fakeTx runs fn inline with a nil Queryer; memBinder ignores it
type fakeTx struct{ calls int }

func (f *fakeTx) Tx(ctx context.Context, fn func(q store.RowQuerier) error) error {
	f.calls++
	return fn(nil)
}

func (f *fakeTx) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (f *fakeTx) Query(context.Context, string, ...any) (store.Rows, error)      { return nil, nil }
func (f *fakeTx) QueryRow(context.Context, string, ...any) store.Row            { return nil }

// fakeListings records claims and answers Outstanding from a map
type fakeListings struct {
	claims      []string
	claimErr    error
	outstanding map[string]bool
}

func (f *fakeListings) Claim(_ context.Context, _ repokit.Queryer, listingID, mod string) error {
	if f.claimErr != nil {
		return f.claimErr
	}
	f.claims = append(f.claims, listingID+":"+mod)
	return nil
}

func (f *fakeListings) Outstanding(_ context.Context, _ repokit.Queryer, listingID string) (bool, error) {
	return f.outstanding[listingID], nil
}

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func entry(id, listingID string, p listing.Priority, st domain.Status, offset time.Duration) domain.Entry {
	return domain.Entry{
		ID:          id,
		ListingID:   listingID,
		SubmittedBy: "owner-1",
		Submission:  listing.SubmissionInitial,
		Priority:    p,
		Status:      st,
		SubmittedAt: t0.Add(offset),
	}
}

func newSvc(r *memRepo, l *fakeListings) *Svc {
	s := New(&fakeTx{}, memBinder{r: r}, Options{Listings: l})
	s.now = func() time.Time { return t0.Add(time.Hour) }
	return s
}
