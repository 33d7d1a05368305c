package valueobject

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// plainNumber matches a number after separators have been normalized
var plainNumber = regexp.MustCompile(`^-?(\d+(\.\d*)?|\.\d+)$`)

// ParseLocaleDecimal parses a quantity written with a comma as decimal
// separator and dots as thousands separators ("1.234,56").
// Empty or non-numeric text yields zero.
func ParseLocaleDecimal(s string) decimal.Decimal {
	d, _ := ParseLocaleDecimalStrict(s)
	return d
}

// ParseLocaleDecimalStrict is ParseLocaleDecimal that also reports whether
// the text was a number at all.
func ParseLocaleDecimalStrict(s string) (decimal.Decimal, bool) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\u00a0', '\u202f':
			return -1
		}
		return r
	}, s)
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return decimal.Zero, false
	}

	s = strings.ReplaceAll(s, ".", "")
	s = strings.Replace(s, ",", ".", 1)
	if !plainNumber.MatchString(s) {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// FormatLocaleDecimal renders d with a comma decimal separator and no
// thousands separator, the form ParseLocaleDecimal reads back unchanged.
func FormatLocaleDecimal(d decimal.Decimal) string {
	return strings.Replace(d.String(), ".", ",", 1)
}
