package constants

import "strings"

// CodeCategory classifies a product code by its leading group.
type CodeCategory string

const (
	Merchandise CodeCategory = "Merchandise"
	ServiceFee  CodeCategory = "ServiceFee" // shipping / pickup fee lines
	ExemptFee   CodeCategory = "ExemptFee"  // fee-prefixed codes that are still real items
)

// Categorize returns the category for a canonical product code.
func Categorize(code string) CodeCategory {
	code = strings.TrimSpace(code)
	if !strings.HasPrefix(code, ExcludedCodePrefix) {
		return Merchandise
	}
	for _, c := range CarveOutCodes {
		if code == c {
			return ExemptFee
		}
	}
	return ServiceFee
}

// IsExcluded reports whether a line with this code should be dropped from extraction.
func IsExcluded(code string) bool {
	return Categorize(code) == ServiceFee
}

// HasFeePrefix reports whether the code carries the fee prefix at all,
// carve-outs included. The price checker skips all of these.
func HasFeePrefix(code string) bool {
	return strings.HasPrefix(strings.TrimSpace(code), ExcludedCodePrefix)
}
