package valueobject

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText returns s in NFC form with surrounding whitespace removed and
// internal runs of whitespace collapsed to one space.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// NormalizeKey returns the comparison form of a free-text key.
// A Caser is stateful, so a fresh one is built per call.
func NormalizeKey(s string) string {
	return cases.Fold().String(NormalizeText(s))
}

// EqualKey reports whether two free-text keys are the same after normalization
func EqualKey(a, b string) bool {
	return NormalizeKey(a) == NormalizeKey(b)
}

// ContainsFold reports whether substr occurs in s, ignoring case and
// whitespace differences
func ContainsFold(s, substr string) bool {
	return strings.Contains(NormalizeKey(s), NormalizeKey(substr))
}
