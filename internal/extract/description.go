package extract

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/order-tracker/constants"
	"github.com/joseph-ayodele/order-tracker/internal/normalize"
)

// ResolveDescription builds a product label for code from the page text.
// An empty result is normal.
func ResolveDescription(text, code string) string {
	desc := ""
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !strings.Contains(line, code) {
			continue
		}
		_, after, _ := strings.Cut(line, code)
		if parts := normalize.DescriptionTokens(strings.TrimSpace(after)); len(parts) > 0 {
			desc = strings.Join(parts, " ")
		}
		if desc == "" && i+1 < len(lines) && continuationLine(lines[i+1]) {
			if words := normalize.LineTokens(lines[i+1]); len(words) > 0 {
				desc = strings.Join(words, " ")
			}
		}
		break
	}
	if desc == "" {
		desc = relaxedDescription(text, code)
	}
	return normalize.CleanDescription(desc)
}

func continuationLine(line string) bool {
	return !strings.Contains(line, constants.CurrencyGlyph) &&
		!strings.Contains(line, "%") &&
		!normalize.ContainsCodeShape(line)
}

func relaxedDescription(text, code string) string {
	re, err := regexp.Compile(regexp.QuoteMeta(code) + `.*?([A-Z]+\s+[\x{4e00}-\x{9fa5}]+)`)
	if err != nil {
		return ""
	}
	if m := re.FindStringSubmatch(text); len(m) > 1 {
		return m[1]
	}
	return ""
}
