package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/order-tracker/constants"
)

// qtyStrategy is one step of the quantity chain.
type qtyStrategy struct {
	name string
	find func(text, code string) (int, bool)
	// accept bounds the captured value; nil accepts anything.
	accept func(qty int) bool
	// terminal ends the chain on a hit.
	terminal bool
}

// Later strategies override earlier ones when they fire, except that a
// hit on the tax-rate line ends the chain straight away.
var qtyStrategies = []qtyStrategy{
	{name: "tax_line", find: findTaxLineQuantity, terminal: true},
	{name: "loose", find: findLooseQuantity, accept: between(constants.QuantityLooseMin, constants.QuantityLooseMax)},
	{name: "label", find: codeSubmatch(`.*?` + constants.LabelQuantity + `.*?(\d+)`)},
	{name: "unit", find: codeSubmatch(`.*?(\d+)\s*` + constants.UnitPiece)},
	{name: "window", find: findWindowQuantity, accept: between(0, constants.QuantityWindowMax)},
}

// ResolveQuantity returns the quantity the page text states for code, or 1.
func ResolveQuantity(text, code string) int {
	qty := 1
	for _, s := range qtyStrategies {
		v, ok := s.find(text, code)
		if !ok || (s.accept != nil && !s.accept(v)) {
			continue
		}
		qty = v
		if s.terminal {
			break
		}
	}
	return qty
}

func between(lo, hi int) func(int) bool {
	return func(q int) bool { return q >= lo && q <= hi }
}

func taxRates() string {
	return strings.Join(constants.TaxRateTokens, "|")
}

func findTaxLineQuantity(text, code string) (int, bool) {
	return codeSubmatch(`.*?(\d+)\s+[\d.]+\s+(?:` + taxRates() + `)\s*%.*?` + regexp.QuoteMeta(constants.CurrencyGlyph))(text, code)
}

// codeSubmatch builds a finder for QuoteMeta(code)+suffix with the
// quantity as the first capture group.
func codeSubmatch(suffix string) func(text, code string) (int, bool) {
	return func(text, code string) (int, bool) {
		re, err := regexp.Compile(regexp.QuoteMeta(code) + suffix)
		if err != nil {
			return 0, false
		}
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			return 0, false
		}
		return atoi(m[1])
	}
}

var reWindowQuantity = regexp.MustCompile(`\s+(\d+)\s+\d+\.\d{2}\s+\d{2}\s*%`)

// findWindowQuantity searches the first runes after the code's first
// occurrence for "qty price rate%".
func findWindowQuantity(text, code string) (int, bool) {
	i := strings.Index(text, code)
	if i < 0 {
		return 0, false
	}
	window := text[i+len(code):]
	n := 0
	for j := range window {
		if n == constants.QuantityWindowRunes {
			window = window[:j]
			break
		}
		n++
	}
	m := reWindowQuantity.FindStringSubmatch(window)
	if len(m) < 2 {
		return 0, false
	}
	return atoi(m[1])
}

// findLooseQuantity finds the first standalone number on the code's line
// that is later followed by a currency amount. Code occurrences are tried
// in order until one yields a candidate.
func findLooseQuantity(text, code string) (int, bool) {
	if code == "" {
		return 0, false
	}
	for off := 0; off < len(text); {
		i := strings.Index(text[off:], code)
		if i < 0 {
			return 0, false
		}
		start := off + i
		if q, ok := looseQuantityAt(text, start+len(code)); ok {
			return q, true
		}
		off = start + 1
	}
	return 0, false
}

func looseQuantityAt(text string, pos int) (int, bool) {
	// at least one whitespace rune must follow the code
	p := pos
	for p < len(text) {
		r, size := utf8.DecodeRuneInString(text[p:])
		if !unicode.IsSpace(r) {
			break
		}
		p += size
	}
	if p == pos {
		return 0, false
	}

	lineEnd := len(text)
	if j := strings.IndexByte(text[p:], '\n'); j >= 0 {
		lineEnd = p + j
	}
	line := text[p:lineEnd]

	runStart := strings.IndexFunc(line, isASCIIDigit)
	if runStart < 0 {
		return 0, false
	}
	runEnd := runStart
	for runEnd < len(line) && isASCIIDigit(rune(line[runEnd])) {
		runEnd++
	}
	if !amountFollows(text, p+runEnd, lineEnd) {
		return 0, false
	}
	return atoi(line[runStart:runEnd])
}

// amountFollows reports whether a currency glyph between from and lineEnd
// is followed (after optional whitespace) by a digit, comma or dot.
func amountFollows(text string, from, lineEnd int) bool {
	glyph := constants.CurrencyGlyph
	for from < lineEnd {
		k := strings.Index(text[from:lineEnd], glyph)
		if k < 0 {
			return false
		}
		after := strings.TrimLeftFunc(text[from+k+len(glyph):], unicode.IsSpace)
		if after != "" && (isASCIIDigit(rune(after[0])) || after[0] == ',' || after[0] == '.') {
			return true
		}
		from += k + len(glyph)
	}
	return false
}

func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
