package riskscan

import (
	"unicode"
	"unicode/utf8"
)

// isWord reports whether r continues a word for boundary checks.
// Letters, digits, combining marks and connector punctuation count; hyphen does not
func isWord(r rune) bool {
	if r == utf8.RuneError || r == 0 {
		return false
	}
	return unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.In(r, unicode.Mn, unicode.Pc)
}

// atBoundary reports whether [start,end) of s is flanked by non-word runes
func atBoundary(s string, start, end int) bool {
	var prev, next rune
	if start > 0 {
		prev, _ = utf8.DecodeLastRuneInString(s[:start])
	}
	if end < len(s) {
		next, _ = utf8.DecodeRuneInString(s[end:])
	}
	return !isWord(prev) && !isWord(next)
}

// tokenAround widens [start,end) to the whitespace-delimited token that contains it
func tokenAround(s string, start, end int) string {
	ls, rs := start, end
	for ls > 0 {
		r, sz := utf8.DecodeLastRuneInString(s[:ls])
		if unicode.IsSpace(r) {
			break
		}
		ls -= sz
	}
	for rs < len(s) {
		r, sz := utf8.DecodeRuneInString(s[rs:])
		if unicode.IsSpace(r) {
			break
		}
		rs += sz
	}
	return s[ls:rs]
}
