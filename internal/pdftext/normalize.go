package pdftext

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
)

// fold maps fullwidth forms (digits, colon, yen sign, ideographic space)
// to their narrow equivalents and unifies line endings. Rune counts are
// preserved so layout columns still line up.
func fold(s string) string {
	s = reCRLF.ReplaceAllString(s, "\n")
	s = width.Narrow.String(s)
	return strings.ReplaceAll(s, "\u00a0", " ")
}

// Normalize prepares layout text for pattern matching: tabs and space runs
// collapse to one space, trailing spaces go, and more than one blank line
// collapses to a single blank line.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = fold(s)
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
