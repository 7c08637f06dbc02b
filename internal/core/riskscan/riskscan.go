// Package riskscan scores listing text for content risk.
// Scan is pure: the same title and description always produce the same report
package riskscan

import (
	"sort"
	"strings"
	"unicode"

	"harborlist/internal/core/normalize"
	"harborlist/internal/core/rulepack"
)

// Category groups violations by policy area
type Category string

const (
	// CategoryProfanity is offensive language
	CategoryProfanity Category = "profanity"
	// CategorySpam is scam or promotional patterns
	CategorySpam Category = "spam"
	// CategoryProhibited is items that cannot be listed
	CategoryProhibited Category = "prohibited"
	// CategoryContact is contact details that bypass in-app messaging
	CategoryContact Category = "contact"
)

// Severity of a single violation or of a whole report
type Severity string

// Severity levels, lowest first
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities; unknown values rank below low
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	}
	return 0
}

// score bands per overall severity, inclusive
var bands = map[Severity][2]int{
	SeverityLow:    {0, 30},
	SeverityMedium: {31, 70},
	SeverityHigh:   {71, 100},
}

// Field names used in locations
const (
	FieldTitle       = "title"
	FieldDescription = "description"
)

// Location is a byte range [Start,End) over the folded form of Field
type Location struct {
	Field string `json:"field"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Violation is a single rule hit
type Violation struct {
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	MatchedText string   `json:"matchedText"`
	Location    Location `json:"location"`
	Rule        string   `json:"rule"`
}

// Report is the result of a scan
type Report struct {
	Violations []Violation `json:"violations"`
	Severity   Severity    `json:"overallSeverity"`
	Score      int         `json:"score"`
}

// Flagged reports whether the overall severity warrants a content flag
func (r Report) Flagged() bool { return r.Severity.Rank() >= SeverityMedium.Rank() }

// FlagCategories returns the distinct categories with at least one medium or high
// violation, in first-seen order
func (r Report) FlagCategories() []Category {
	var out []Category
	seen := map[Category]bool{}
	for _, v := range r.Violations {
		if v.Severity.Rank() < SeverityMedium.Rank() || seen[v.Category] {
			continue
		}
		seen[v.Category] = true
		out = append(out, v.Category)
	}
	return out
}

// MaxSeverityOf returns the highest severity among violations of cat
func (r Report) MaxSeverityOf(cat Category) Severity {
	var best Severity
	for _, v := range r.Violations {
		if v.Category == cat && v.Severity.Rank() > best.Rank() {
			best = v.Severity
		}
	}
	return best
}

// Options tunes the scanner
type Options struct {
	// MaxViolations caps reported violations per scan (0 = 50)
	MaxViolations int
	// ShoutMinLetters is the letter count before an all caps title counts as spam (0 = 10)
	ShoutMinLetters int
	// ElongationRun is the same-letter run length treated as spam (0 = 5)
	ElongationRun int
}

// Scanner matches a compiled rule pack against listing text
type Scanner struct {
	pack  *rulepack.Pack
	norm  *normalize.Normalizer
	terms *trie
	opts  Options
}

// New creates a Scanner with default options
func New(p *rulepack.Pack) *Scanner { return NewWithOptions(p, Options{}) }

// NewWithOptions creates a Scanner with custom options
func NewWithOptions(p *rulepack.Pack, opts Options) *Scanner {
	if opts.MaxViolations <= 0 {
		opts.MaxViolations = 50
	}
	if opts.ShoutMinLetters <= 0 {
		opts.ShoutMinLetters = 10
	}
	if opts.ElongationRun <= 0 {
		opts.ElongationRun = 5
	}
	t := newTrie()
	for i, lm := range p.Lemmas {
		t.add(lm.Term, i)
	}
	t.build()
	return &Scanner{pack: p, norm: normalize.New(), terms: t, opts: opts}
}

// Default loads the embedded rule pack
func Default() (*Scanner, error) {
	p, err := rulepack.Load()
	if err != nil {
		return nil, err
	}
	return New(p), nil
}

// Scan checks title and description and returns every violation plus the overall severity
func (s *Scanner) Scan(title, description string) Report {
	var vs []Violation
	vs = append(vs, s.scanField(FieldTitle, title)...)
	vs = append(vs, s.scanField(FieldDescription, description)...)

	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if a.Location.Field != b.Location.Field {
			return a.Location.Field == FieldTitle
		}
		if a.Location.Start != b.Location.Start {
			return a.Location.Start < b.Location.Start
		}
		if a.Location.End != b.Location.End {
			return a.Location.End < b.Location.End
		}
		return a.Rule < b.Rule
	})
	if len(vs) > s.opts.MaxViolations {
		vs = vs[:s.opts.MaxViolations]
	}

	rep := Report{Violations: vs, Severity: SeverityLow}
	if len(vs) == 0 {
		return rep
	}
	top := 0
	for _, v := range vs {
		if v.Severity.Rank() > rep.Severity.Rank() {
			rep.Severity = v.Severity
		}
		if w := s.pack.Weights[string(v.Severity)]; w > top {
			top = w
		}
	}
	band := bands[rep.Severity]
	rep.Score = clamp(top+3*(len(vs)-1), band[0], band[1])
	return rep
}

func (s *Scanner) scanField(field, raw string) []Violation {
	folded := s.norm.Fold(raw)
	if folded == "" {
		return nil
	}
	matchable := s.norm.Leet(folded)

	var out []Violation
	add := func(rule string, cat Category, sev Severity, start, end int) {
		out = append(out, Violation{
			Category:    cat,
			Severity:    sev,
			MatchedText: folded[start:end],
			Location:    Location{Field: field, Start: start, End: end},
			Rule:        rule,
		})
	}

	// literal terms over the leet folded form
	lastEnd := -1
	s.terms.each(matchable, func(end, id int) {
		lm := s.pack.Lemmas[id]
		start := end - len(lm.Term)
		if start < lastEnd || !atBoundary(matchable, start, end) || s.stopped(matchable, start, end) {
			return
		}
		lastEnd = end
		add("term:"+lm.Term, Category(lm.Category), Severity(lm.Severity), start, end)
	})

	// regex rules over the folded form so digits and @ survive
	for _, p := range s.pack.Patterns {
		for _, loc := range p.Re.FindAllStringIndex(folded, -1) {
			add("pattern:"+p.ID, Category(p.Category), Severity(p.Severity), loc[0], loc[1])
		}
	}

	if field == FieldTitle && s.shouting(raw) {
		add("heuristic:shouting", CategorySpam, SeverityLow, 0, len(folded))
	}
	if start, end, ok := s.elongation(folded); ok {
		add("heuristic:elongation", CategorySpam, SeverityLow, start, end)
	}
	return out
}

func (s *Scanner) stopped(text string, start, end int) bool {
	tok := strings.TrimFunc(tokenAround(text, start, end), func(r rune) bool { return !isWord(r) })
	_, ok := s.pack.Stopset[tok]
	return ok
}

// shouting reports a title written mostly in capitals
func (s *Scanner) shouting(raw string) bool {
	letters, upper := 0, 0
	for _, r := range raw {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	return letters >= s.opts.ShoutMinLetters && upper*5 >= letters*4
}

// elongation finds the first run of one letter repeated ElongationRun times or more
func (s *Scanner) elongation(folded string) (int, int, bool) {
	if normalize.SquashRuns(folded, s.opts.ElongationRun-1) == folded {
		return 0, 0, false
	}
	var prev rune
	runStart, count := 0, 0
	for i, r := range folded {
		if r == prev {
			count++
		} else {
			if count >= s.opts.ElongationRun && unicode.IsLetter(prev) {
				return runStart, i, true
			}
			prev, runStart, count = r, i, 1
		}
	}
	if count >= s.opts.ElongationRun && unicode.IsLetter(prev) {
		return runStart, len(folded), true
	}
	return 0, 0, false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
