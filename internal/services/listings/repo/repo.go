// Package repo provides the listing repository implementation
package repo

import (
	"context"
	"encoding/json"
	"time"

	"harborlist/internal/core/listing"
	"harborlist/internal/modkit/repokit"
	perr "harborlist/internal/platform/errors"
	"harborlist/internal/platform/store"
)

// ErrStale is returned by Save when the row moved past the version it was read at
var ErrStale = perr.New(perr.ErrorCodeConflict, "listing was modified concurrently")

// Repo is the listing persistence surface used by the service layer
type Repo interface {
	Get(ctx context.Context, id string) (listing.Listing, error)
	// Resolve maps a current or retired slug to its listing id
	Resolve(ctx context.Context, slug string) (id string, current bool, err error)
	SlugTaken(ctx context.Context, slug, exceptID string) (bool, error)
	Insert(ctx context.Context, l listing.Listing) error
	// Save writes next over cur when the stored version still equals cur.Version.
	// History rows past cur's lengths are appended. next.Version is bumped on success
	Save(ctx context.Context, cur listing.Listing, next *listing.Listing) error
	AddRedirect(ctx context.Context, oldSlug, listingID string, at time.Time) error
	DueForExpiry(ctx context.Context, publishedBefore time.Time, limit int) ([]string, error)
}

type (
	// PG is a Postgres implementation of the listing repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

const listingCols = `
	id::text, owner_id, slug, status, title, description, price, year,
	boat, images, features, workflow, pending, flags,
	version, created_at, updated_at, published_at`

func scanListing(r store.Row) (listing.Listing, error) {
	var l listing.Listing
	var status string
	var boat, images, features, workflow, pending, flags []byte
	err := r.Scan(&l.ID, &l.OwnerID, &l.Slug, &status, &l.Title, &l.Description, &l.Price, &l.Year,
		&boat, &images, &features, &workflow, &pending, &flags,
		&l.Version, &l.CreatedAt, &l.UpdatedAt, &l.PublishedAt)
	if err != nil {
		return listing.Listing{}, err
	}
	l.Status = listing.Status(status)

	if err := unmarshal(boat, &l.Boat); err != nil {
		return listing.Listing{}, err
	}
	if err := unmarshal(images, &l.Images); err != nil {
		return listing.Listing{}, err
	}
	if err := unmarshal(features, &l.Features); err != nil {
		return listing.Listing{}, err
	}
	if err := unmarshal(workflow, &l.Workflow); err != nil {
		return listing.Listing{}, err
	}
	if len(pending) > 0 && string(pending) != "null" {
		l.Pending = &listing.PendingUpdate{}
		if err := unmarshal(pending, l.Pending); err != nil {
			return listing.Listing{}, err
		}
	}
	if err := unmarshal(flags, &l.Flags); err != nil {
		return listing.Listing{}, err
	}
	return l, nil
}

func unmarshal(b []byte, v any) error {
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "decode listing column")
	}
	return nil
}

// columns is the jsonb encoding of the mutable document columns
type columns struct {
	boat, images, features, workflow, pending, flags []byte
}

func encode(l listing.Listing) (columns, error) {
	var c columns
	var err error
	enc := func(v any) []byte {
		if err != nil {
			return nil
		}
		var b []byte
		b, err = json.Marshal(v)
		return b
	}
	c.boat = enc(l.Boat)
	c.images = enc(nonNil(l.Images))
	c.features = enc(nonNil(l.Features))
	c.workflow = enc(l.Workflow)
	if l.Pending != nil {
		c.pending = enc(l.Pending)
	}
	c.flags = enc(nonNilFlags(l.Flags))
	if err != nil {
		return columns{}, perr.Wrap(err, perr.ErrorCodeJSON, "encode listing columns")
	}
	return c, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilFlags(f []listing.Flag) []listing.Flag {
	if f == nil {
		return []listing.Flag{}
	}
	return f
}

func (r *queries) Get(ctx context.Context, id string) (listing.Listing, error) {
	l, err := store.One(ctx, r.q, scanListing, `SELECT `+listingCols+` FROM listings WHERE id = $1`, id)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return listing.Listing{}, perr.NotFoundf("listing %s not found", id)
		}
		if _, ok := perr.As(err); ok {
			return listing.Listing{}, err
		}
		return listing.Listing{}, perr.FromPostgres(err, "read listing")
	}

	l.PriceHistory, err = store.Many(ctx, r.q, func(row store.Row) (listing.PricePoint, error) {
		var p listing.PricePoint
		err := row.Scan(&p.Price, &p.ChangedBy, &p.Reason, &p.At)
		return p, err
	}, `SELECT price, changed_by, reason, at FROM listing_price_history WHERE listing_id = $1 ORDER BY seq`, id)
	if err != nil {
		return listing.Listing{}, perr.FromPostgres(err, "read price history")
	}

	l.History, err = store.Many(ctx, r.q, func(row store.Row) (listing.HistoryEntry, error) {
		var h listing.HistoryEntry
		var action, from, to string
		if err := row.Scan(&action, &h.Actor, &h.Notes, &from, &to, &h.At); err != nil {
			return h, err
		}
		h.Action, h.From, h.To = listing.Action(action), listing.Status(from), listing.Status(to)
		return h, nil
	}, `SELECT action, actor, notes, from_status, to_status, at FROM listing_moderation_history WHERE listing_id = $1 ORDER BY seq`, id)
	if err != nil {
		return listing.Listing{}, perr.FromPostgres(err, "read moderation history")
	}
	return l, nil
}

func (r *queries) Resolve(ctx context.Context, slug string) (string, bool, error) {
	const sql = `
		SELECT id, current FROM (
			SELECT id::text AS id, true AS current, 0 AS rank FROM listings WHERE slug = $1
			UNION ALL
			SELECT listing_id::text, false, 1 FROM listing_slug_redirects WHERE old_slug = $1
		) s
		ORDER BY rank
		LIMIT 1`
	type hit struct {
		id      string
		current bool
	}
	h, err := store.One(ctx, r.q, func(row store.Row) (hit, error) {
		var h hit
		err := row.Scan(&h.id, &h.current)
		return h, err
	}, sql, slug)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return "", false, perr.NotFoundf("listing %q not found", slug)
		}
		return "", false, perr.FromPostgres(err, "resolve slug")
	}
	return h.id, h.current, nil
}

// SlugTaken counts retired slugs too so old links never change owner
func (r *queries) SlugTaken(ctx context.Context, slug, exceptID string) (bool, error) {
	const sql = `
		SELECT EXISTS (SELECT 1 FROM listings WHERE slug = $1 AND id::text <> $2)
		    OR EXISTS (SELECT 1 FROM listing_slug_redirects WHERE old_slug = $1 AND listing_id::text <> $2)`
	taken, err := store.Scalar[bool](ctx, r.q, sql, slug, exceptID)
	if err != nil {
		return false, perr.FromPostgres(err, "check slug")
	}
	return taken, nil
}

func (r *queries) Insert(ctx context.Context, l listing.Listing) error {
	c, err := encode(l)
	if err != nil {
		return err
	}
	const sql = `
		INSERT INTO listings (
			id, owner_id, slug, status, title, description, price, year,
			boat, images, features, workflow, pending, flags,
			version, created_at, updated_at, published_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	version := l.Version
	if version <= 0 {
		version = 1
	}
	_, err = r.q.Exec(ctx, sql,
		l.ID, l.OwnerID, l.Slug, string(l.Status), l.Title, l.Description, l.Price, l.Year,
		c.boat, c.images, c.features, c.workflow, c.pending, c.flags,
		version, l.CreatedAt, l.UpdatedAt, l.PublishedAt)
	if err != nil {
		if perr.IsDuplicateKey(err) {
			return perr.Wrap(err, perr.ErrorCodeConflict, "listing or slug already exists")
		}
		return perr.FromPostgres(err, "insert listing")
	}
	return r.appendHistory(ctx, l.ID, l, 0, 0)
}

func (r *queries) Save(ctx context.Context, cur listing.Listing, next *listing.Listing) error {
	c, err := encode(*next)
	if err != nil {
		return err
	}
	const sql = `
		UPDATE listings
		   SET slug = $3, status = $4, title = $5, description = $6, price = $7, year = $8,
		       boat = $9, images = $10, features = $11, workflow = $12, pending = $13, flags = $14,
		       updated_at = $15, published_at = $16, version = version + 1
		 WHERE id = $1 AND version = $2`
	tag, err := r.q.Exec(ctx, sql,
		next.ID, cur.Version, next.Slug, string(next.Status), next.Title, next.Description, next.Price, next.Year,
		c.boat, c.images, c.features, c.workflow, c.pending, c.flags,
		next.UpdatedAt, next.PublishedAt)
	if err != nil {
		if perr.IsDuplicateKey(err) {
			return perr.Wrap(err, perr.ErrorCodeConflict, "slug already in use")
		}
		return perr.FromPostgres(err, "save listing")
	}
	if tag.RowsAffected() == 0 {
		return ErrStale
	}
	next.Version = cur.Version + 1

	if next.Slug != cur.Slug {
		// a title moving back reclaims its old slug
		if _, err := r.q.Exec(ctx, `DELETE FROM listing_slug_redirects WHERE old_slug = $1`, next.Slug); err != nil {
			return perr.FromPostgres(err, "reclaim slug")
		}
	}
	return r.appendHistory(ctx, next.ID, *next, len(cur.PriceHistory), len(cur.History))
}

// appendHistory inserts the history rows of l from the given offsets on.
// seq is the list index so a replay collides instead of duplicating
func (r *queries) appendHistory(ctx context.Context, id string, l listing.Listing, priceFrom, histFrom int) error {
	for i := priceFrom; i < len(l.PriceHistory); i++ {
		p := l.PriceHistory[i]
		_, err := r.q.Exec(ctx, `
			INSERT INTO listing_price_history (listing_id, seq, price, changed_by, reason, at)
			VALUES ($1, $2, $3, $4, $5, $6)`, id, i, p.Price, p.ChangedBy, p.Reason, p.At)
		if err != nil {
			return perr.FromPostgres(err, "append price history")
		}
	}
	for i := histFrom; i < len(l.History); i++ {
		h := l.History[i]
		_, err := r.q.Exec(ctx, `
			INSERT INTO listing_moderation_history (listing_id, seq, action, actor, notes, from_status, to_status, at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			id, i, string(h.Action), h.Actor, h.Notes, string(h.From), string(h.To), h.At)
		if err != nil {
			return perr.FromPostgres(err, "append moderation history")
		}
	}
	return nil
}

func (r *queries) AddRedirect(ctx context.Context, oldSlug, listingID string, at time.Time) error {
	const sql = `
		INSERT INTO listing_slug_redirects (old_slug, listing_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (old_slug) DO NOTHING`
	_, err := r.q.Exec(ctx, sql, oldSlug, listingID, at)
	return perr.FromPostgres(err, "add slug redirect")
}

func (r *queries) DueForExpiry(ctx context.Context, publishedBefore time.Time, limit int) ([]string, error) {
	const sql = `
		SELECT id::text
		  FROM listings
		 WHERE status = 'active' AND published_at < $1
		 ORDER BY published_at, id
		 LIMIT $2`
	ids, err := store.Many(ctx, r.q, func(row store.Row) (string, error) {
		var id string
		err := row.Scan(&id)
		return id, err
	}, sql, publishedBefore, limit)
	if err != nil {
		return nil, perr.FromPostgres(err, "list listings due for expiry")
	}
	return ids, nil
}
