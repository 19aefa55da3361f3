// Package normalize implements the text cleaning rules applied to ledger
// fields before any comparison or blank classification.
package normalize

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Clean trims leading/trailing whitespace and collapses internal whitespace
// runs to a single space. All field comparisons operate on cleaned text.
func Clean(value string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(value), " ")
}

// IsBlank reports whether a value carries no usable content. A value is
// blank if, after cleaning, it is empty or case-insensitively equals
// "nan" or "none". Spreadsheet exports frequently serialize missing cells
// as those placeholder strings.
func IsBlank(value string) bool {
	cleaned := Clean(value)
	if cleaned == "" {
		return true
	}
	lower := strings.ToLower(cleaned)
	return lower == "nan" || lower == "none"
}

// BothBlank is the row deletion predicate for ledger cleaning: a row is
// dropped only when payer and description are both blank. A row with a
// usable value in either field is retained.
func BothBlank(payer, description string) bool {
	return IsBlank(payer) && IsBlank(description)
}
