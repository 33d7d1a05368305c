package inventory

import (
	"strings"

	"github.com/lotledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// productKeyFields is the number of fields in a pipe-delimited product key
const productKeyFields = 5

// ProductDescriptor identifies a product variant: name, color, nominal width,
// nominal length and finish. Width and length keep the text they were written
// with and are compared numerically when both sides parse.
type ProductDescriptor struct {
	Name   string `json:"name"`
	Color  string `json:"color"`
	Width  string `json:"width"`
	Length string `json:"length"`
	Finish string `json:"finish"`
}

// Key renders the descriptor as "Name|Color|Width|Length|Finish"
func (p ProductDescriptor) Key() string {
	return strings.Join([]string{
		valueobject.NormalizeText(p.Name),
		valueobject.NormalizeText(p.Color),
		valueobject.NormalizeText(p.Width),
		valueobject.NormalizeText(p.Length),
		valueobject.NormalizeText(p.Finish),
	}, "|")
}

// IsZero returns true if no field is populated
func (p ProductDescriptor) IsZero() bool {
	return strings.TrimSpace(p.Name+p.Color+p.Width+p.Length+p.Finish) == ""
}

// WidthValue returns the numeric width, if it parses
func (p ProductDescriptor) WidthValue() (decimal.Decimal, bool) {
	return valueobject.ParseLocaleDecimalStrict(p.Width)
}

// LengthValue returns the numeric length, if it parses
func (p ProductDescriptor) LengthValue() (decimal.Decimal, bool) {
	return valueobject.ParseLocaleDecimalStrict(p.Length)
}

// ParseProductDescriptor decomposes a pipe-delimited product key.
// Four fields are accepted with an empty finish. Text that does not split into
// four or five fields becomes the product name with every other field empty.
func ParseProductDescriptor(s string) ProductDescriptor {
	parts := strings.Split(s, "|")
	if len(parts) != productKeyFields && len(parts) != productKeyFields-1 {
		return ProductDescriptor{Name: valueobject.NormalizeText(s)}
	}
	for len(parts) < productKeyFields {
		parts = append(parts, "")
	}
	return ProductDescriptor{
		Name:   valueobject.NormalizeText(parts[0]),
		Color:  valueobject.NormalizeText(parts[1]),
		Width:  valueobject.NormalizeText(parts[2]),
		Length: valueobject.NormalizeText(parts[3]),
		Finish: valueobject.NormalizeText(parts[4]),
	}
}

// sameText compares free-text descriptor fields
func sameText(a, b string) bool {
	return valueobject.EqualKey(a, b)
}

// sameDimension compares width or length values, numerically when both parse
func sameDimension(a, b string) bool {
	av, aok := valueobject.ParseLocaleDecimalStrict(a)
	bv, bok := valueobject.ParseLocaleDecimalStrict(b)
	if aok && bok {
		return av.Equal(bv)
	}
	return valueobject.EqualKey(a, b)
}
