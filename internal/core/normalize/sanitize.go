package normalize

import (
	"strings"
	"unicode/utf8"
)

// Sanitize drops bytes we never want stored or scanned: NUL and ASCII controls
// other than \n \r \t, DEL, C1 controls and invalid UTF-8.
// Clean input is returned unchanged without allocating
func Sanitize(s string) string {
	if s == "" || (utf8.ValidString(s) && strings.IndexFunc(s, unwanted) < 0) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r == utf8.RuneError || unwanted(r) {
			return -1
		}
		return r
	}, s)
}

func unwanted(r rune) bool {
	switch {
	case r == '\n', r == '\r', r == '\t':
		return false
	case r < 0x20, r == 0x7F:
		return true
	case r >= 0x80 && r <= 0x9F:
		return true
	}
	return false
}
