package normalize

import (
	"regexp"
	"slices"
	"strings"

	"github.com/joseph-ayodele/order-tracker/constants"
)

const cjk = `\x{4e00}-\x{9fa5}`

var (
	reUpperRun = regexp.MustCompile(`[A-Z]{2,}(?:\s+[A-Z]+)*`)
	reCJKRun   = regexp.MustCompile(`[` + cjk + `]+(?:\s+[` + cjk + `]+)*`)
	reWord     = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9]+`)
	reSize     = regexp.MustCompile(`\d+x\d+(?:x\d+)?`)

	// one pass in document order, used for continuation lines
	reLineToken = regexp.MustCompile(`[A-Z]{2,}|[` + cjk + `]+|\d+x\d+(?:x\d+)?|[a-zA-Z][a-zA-Z0-9]+`)

	reAllDigits = regexp.MustCompile(`^\d+$`)
)

// DescriptionTokens collects name fragments from the text that follows a
// product code: uppercase runs, CJK runs, other words not already seen,
// then dimensions such as 60x40.
func DescriptionTokens(s string) []string {
	var parts []string
	parts = append(parts, reUpperRun.FindAllString(s, -1)...)
	parts = append(parts, reCJKRun.FindAllString(s, -1)...)
	for _, w := range reWord.FindAllString(s, -1) {
		if !slices.Contains(parts, w) {
			parts = append(parts, w)
		}
	}
	parts = append(parts, reSize.FindAllString(s, -1)...)
	return parts
}

// LineTokens collects the same token classes from a continuation line, in
// the order they appear.
func LineTokens(s string) []string {
	return reLineToken.FindAllString(s, -1)
}

// CleanDescription drops standalone measure words and bare numbers and
// collapses whitespace.
func CleanDescription(s string) string {
	fields := strings.Fields(s)
	out := fields[:0]
	for _, f := range fields {
		if slices.Contains(constants.DescriptionUnitWords, f) || reAllDigits.MatchString(f) {
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}
