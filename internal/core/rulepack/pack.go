// Package rulepack loads and compiles listing content rules from the embedded rules.json.
// Lemmas are canonicalized with the same normalizer the scanner uses so rule authors
// can write plain words
package rulepack

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"harborlist/internal/core/normalize"
)

//go:embed rules.json
var embedded []byte

type rawLemma struct {
	Term     string `json:"term"`
	Category string `json:"category"`
	Severity string `json:"severity"`
}

type rawPattern struct {
	ID       string `json:"id"`
	Pattern  string `json:"pattern"`
	Category string `json:"category"`
	Severity string `json:"severity"`
}

type rawPack struct {
	Version    int            `json:"version"`
	Meta       map[string]any `json:"meta"`
	Categories []string       `json:"categories"`
	Weights    map[string]int `json:"weights"`
	Lemmas     []rawLemma     `json:"lemmas"`
	Patterns   []rawPattern   `json:"patterns"`
	Allowlist  []string       `json:"allowlist"`
}

// Pack is a compiled rule pack
type Pack struct {
	Version    int
	Meta       map[string]any
	Categories []string

	// Weights maps a severity name to its base risk score
	Weights map[string]int

	Lemmas   []Lemma
	LemmaSet map[string]Lemma // canonical term -> lemma

	Patterns []Pattern

	// Stopset holds whole tokens that suppress any lemma hit inside them
	Stopset map[string]struct{}
}

// Lemma is a literal term matched over normalized text
type Lemma struct {
	Term     string
	Category string
	Severity string
}

// Pattern is a compiled regex rule matched over folded text
type Pattern struct {
	ID       string
	Category string
	Severity string
	Re       *regexp.Regexp
}

var severities = map[string]struct{}{"low": {}, "medium": {}, "high": {}}

// Load returns the compiled embedded pack
func Load() (*Pack, error) { return Parse(embedded) }

// Parse compiles a pack from raw JSON
func Parse(b []byte) (*Pack, error) {
	var rp rawPack
	if err := json.Unmarshal(b, &rp); err != nil {
		return nil, fmt.Errorf("rulepack: parse rules: %w", err)
	}
	if rp.Version != 1 {
		return nil, fmt.Errorf("rulepack: unsupported rules version %d (want 1)", rp.Version)
	}

	known := make(map[string]struct{}, len(rp.Categories))
	for _, c := range rp.Categories {
		known[c] = struct{}{}
	}
	check := func(what, cat, sev string) error {
		if _, ok := known[cat]; !ok {
			return fmt.Errorf("rulepack: %s: unknown category %q", what, cat)
		}
		if _, ok := severities[sev]; !ok {
			return fmt.Errorf("rulepack: %s: unknown severity %q", what, sev)
		}
		return nil
	}

	n := normalize.New()
	p := &Pack{
		Version:    rp.Version,
		Meta:       rp.Meta,
		Categories: rp.Categories,
		Weights:    map[string]int{"low": 10, "medium": 45, "high": 85},
		LemmaSet:   make(map[string]Lemma, len(rp.Lemmas)),
		Stopset:    make(map[string]struct{}, len(rp.Allowlist)),
	}
	for k, v := range rp.Weights {
		if _, ok := severities[k]; !ok {
			return nil, fmt.Errorf("rulepack: weight for unknown severity %q", k)
		}
		p.Weights[k] = v
	}

	for _, l := range rp.Lemmas {
		term := n.Normalize(l.Term)
		if term == "" {
			continue
		}
		if err := check("lemma "+l.Term, l.Category, l.Severity); err != nil {
			return nil, err
		}
		if _, dup := p.LemmaSet[term]; dup {
			continue
		}
		lm := Lemma{Term: term, Category: l.Category, Severity: l.Severity}
		p.Lemmas = append(p.Lemmas, lm)
		p.LemmaSet[term] = lm
	}

	for _, rpat := range rp.Patterns {
		if err := check("pattern "+rpat.ID, rpat.Category, rpat.Severity); err != nil {
			return nil, err
		}
		re, err := regexp.Compile(rpat.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rulepack: compile %s: %w", rpat.ID, err)
		}
		p.Patterns = append(p.Patterns, Pattern{
			ID:       rpat.ID,
			Category: rpat.Category,
			Severity: rpat.Severity,
			Re:       re,
		})
	}

	for _, s := range rp.Allowlist {
		if s = strings.TrimSpace(n.Normalize(s)); s != "" {
			p.Stopset[s] = struct{}{}
		}
	}

	// deterministic order for the automaton and for tests
	sort.Slice(p.Lemmas, func(i, j int) bool { return p.Lemmas[i].Term < p.Lemmas[j].Term })
	sort.SliceStable(p.Patterns, func(i, j int) bool { return p.Patterns[i].ID < p.Patterns[j].ID })

	return p, nil
}
