package validators

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SanitizeString trims s, drops control characters and caps it at maxLen
// runes. A maxLen of zero means no cap.
func SanitizeString(s string, maxLen int) string {
	s = strings.TrimSpace(strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s))
	if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
		s = strings.TrimSpace(string([]rune(s)[:maxLen]))
	}
	return s
}
