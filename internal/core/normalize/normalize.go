// Package normalize folds listing text into comparable forms for the risk scanner
// and the slug generator
//
// Fold pipeline
// 1 Sanitize control bytes and repair UTF-8
// 2 NFKD decomposition so precomposed accents split into base + mark
// 3 Case folding
// 4 Remove combining marks and format chars (ZWJ, ZWNJ, FEFF)
// 5 Width fold fullwidth to ASCII, recompose NFC
// 6 Collapse whitespace to single spaces and trim
//
// Normalize runs Fold and then a small leet folding pass (4/@->a 0->o 1/!->i 3->e 5/$->s 7->t).
// Leet folding destroys digits so contact detection works on Fold output only
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Normalizer is concurrency safe; chains are pooled
type Normalizer struct{}

var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKD,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Mn)),
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
			norm.NFC,
		)
	},
}

// New constructs a Normalizer
func New() *Normalizer { return &Normalizer{} }

// Fold returns s case folded, accent stripped and whitespace collapsed.
// Digits and punctuation survive
func (n *Normalizer) Fold(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(Sanitize(s), "")

	tr := chainPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		// transform only fails on malformed input which Sanitize already dropped
		out = strings.ToLower(s)
	}
	return collapseSpaces(out)
}

// Normalize returns the matching form used for keyword rules
func (n *Normalizer) Normalize(s string) string {
	return leetFold(n.Fold(s))
}

// Leet applies only the leet pass to already folded text.
// Every mapping is one ASCII byte to one ASCII byte so offsets are preserved
func (n *Normalizer) Leet(folded string) string { return leetFold(folded) }

// SquashRuns limits any run of the same rune to max repeats ("woooow" -> "woow")
func SquashRuns(s string, max int) string {
	if s == "" || max < 1 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	count := 0
	for _, r := range s {
		if r == prev {
			count++
			if count > max {
				continue
			}
		} else {
			prev = r
			count = 1
		}
		b.WriteRune(r)
	}
	return b.String()
}

func leetFold(s string) string {
	if s == "" {
		return s
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '4', '@':
			return 'a'
		case '0':
			return 'o'
		case '1', '!':
			return 'i'
		case '3':
			return 'e'
		case '5', '$':
			return 's'
		case '7':
			return 't'
		}
		return r
	}, s)
}

// collapseSpaces turns any whitespace run into one ASCII space and trims the edges
func collapseSpaces(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			pending = b.Len() > 0
			continue
		}
		if pending {
			b.WriteByte(' ')
			pending = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
