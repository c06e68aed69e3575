package normalize

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/order-tracker/constants"
)

var (
	reProductCode  = regexp.MustCompile(`^\d{3}\.\d{3}\.\d{2}$`)
	reCodeInText   = regexp.MustCompile(`\d{3}\.\d{3}\.\d{2}`)
	reNonDigitRune = regexp.MustCompile(`\D+`)
)

// ProductCode trims a table cell and reports whether it is a canonical DDD.DDD.DD code.
func ProductCode(cell string) (string, bool) {
	code := strings.TrimSpace(cell)
	return code, reProductCode.MatchString(code)
}

// ContainsCodeShape reports whether s contains anything shaped like a product code.
func ContainsCodeShape(s string) bool {
	return reCodeInText.MatchString(s)
}

// CodeDigits strips the dots (and anything else non-numeric) from a product code.
func CodeDigits(code string) string {
	return reNonDigitRune.ReplaceAllString(code, "")
}

// Excluded reports whether a canonical code is a fee line that must be dropped.
func Excluded(code string) bool {
	return constants.IsExcluded(code)
}
