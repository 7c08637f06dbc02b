// Package slug builds URL-safe listing identifiers from titles
package slug

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"

	"harborlist/internal/core/normalize"
)

const (
	// MaxBaseLen bounds the title part of a slug, suffix excluded
	MaxBaseLen = 50
	// MinBaseLen is the shortest title part kept before falling back to Placeholder
	MinBaseLen = 3
	// SuffixLen is the length of the id-derived suffix
	SuffixLen = 8
	// Placeholder replaces titles that fold to almost nothing
	Placeholder = "listing"
)

var folder = normalize.New()

// Base returns the title part of a slug: folded, hyphenated, at most MaxBaseLen long
func Base(title string) string {
	folded := folder.Fold(title)

	var b strings.Builder
	b.Grow(len(folded))
	dash := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		case r == '-', r == ' ', r == '_', r == '/', r == '.':
			dash = true
		}
	}
	s := b.String()
	if len(s) < MinBaseLen {
		return Placeholder
	}
	return truncate(s, MaxBaseLen)
}

// truncate cuts s to at most n bytes without splitting a word when a hyphen allows it
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if s[n] == '-' {
		return s[:n]
	}
	if i := strings.LastIndexByte(s[:n], '-'); i >= MinBaseLen {
		return s[:i]
	}
	return strings.TrimRight(s[:n], "-")
}

// Suffix returns n characters derived from the entity id.
// UUIDs contribute the tail of their hex form, where v4 and v7 keep random bits
func Suffix(entityID string, n int) string {
	var hexID string
	if u, err := uuid.Parse(entityID); err == nil {
		hexID = hex.EncodeToString(u[:])
	} else {
		sum := sha256.Sum256([]byte(entityID))
		hexID = hex.EncodeToString(sum[:])
	}
	if n > len(hexID) {
		n = len(hexID)
	}
	return hexID[len(hexID)-n:]
}

// Generate returns the slug for title and entityID
func Generate(title, entityID string) string {
	return Base(title) + "-" + Suffix(entityID, SuffixLen)
}

// TakenFunc reports whether slug already belongs to a different entity
type TakenFunc func(ctx context.Context, slug, entityID string) (bool, error)

// Unique generates a slug and widens the suffix while taken reports a collision
func Unique(ctx context.Context, title, entityID string, taken TakenFunc) (string, error) {
	base := Base(title)
	for _, n := range []int{SuffixLen, 12, 32} {
		s := base + "-" + Suffix(entityID, n)
		if taken == nil {
			return s, nil
		}
		busy, err := taken(ctx, s, entityID)
		if err != nil {
			return "", err
		}
		if !busy {
			return s, nil
		}
	}
	// full hex id is unique per entity
	return base + "-" + Suffix(entityID, 64), nil
}

// Redirect maps a retired slug to its replacement
type Redirect struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Rename returns the slug for a new title and, when it differs from current,
// the redirect that keeps the old one resolving
func Rename(ctx context.Context, current, newTitle, entityID string, taken TakenFunc) (string, *Redirect, error) {
	next, err := Unique(ctx, newTitle, entityID, taken)
	if err != nil {
		return "", nil, err
	}
	if next == current {
		return current, nil, nil
	}
	return next, &Redirect{From: current, To: next}, nil
}
