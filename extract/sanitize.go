package extract

import (
	"strings"
	"unicode"
)

// Sanitize normalizes textual content before chunking: CRLF becomes LF,
// control characters other than newline and tab are dropped, and surrounding
// whitespace is trimmed.
func Sanitize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			return -1
		}
		return r
	}, text)
	return strings.TrimSpace(text)
}
