package importer

import (
	"regexp"
	"strings"
)

var (
	htmlTags    = regexp.MustCompile(`<[^>]*>`)
	bareURLs    = regexp.MustCompile(`https?://\S+`)
	longNumbers = regexp.MustCompile(`\b\d{10,}\b`)
	blankLines  = regexp.MustCompile(`\n[ \t]*\n(\s*\n)*`)
	lineSpaces  = regexp.MustCompile(`[ \t]+`)
)

// CleanDescription strips markup, links and long digit runs that suppliers
// paste into descriptions, keeping paragraph breaks.
func CleanDescription(description string) string {
	out := htmlTags.ReplaceAllString(description, "\n")
	out = bareURLs.ReplaceAllString(out, "")
	out = longNumbers.ReplaceAllString(out, "")
	out = lineSpaces.ReplaceAllString(out, " ")
	out = blankLines.ReplaceAllString(out, "\n\n")
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
