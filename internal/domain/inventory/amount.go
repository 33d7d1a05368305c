package inventory

import (
	"github.com/shopspring/decimal"
)

// Measure is the unit a lot is counted in
type Measure string

const (
	// MeasureUnits counts discrete pieces (rolls, sheets, boxes)
	MeasureUnits Measure = "units"
	// MeasureMeters counts linear meters
	MeasureMeters Measure = "meters"
)

// String returns the string representation of Measure
func (m Measure) String() string {
	return string(m)
}

// IsValid returns true if the measure is known
func (m Measure) IsValid() bool {
	return m == MeasureUnits || m == MeasureMeters
}

// Amount is a signed quantity expressed in units and linear meters.
// A lot may carry both; a movement written by this service carries only the
// measure of the lot it targets.
type Amount struct {
	Units  decimal.Decimal `json:"units"`
	Meters decimal.Decimal `json:"meters"`
}

// NewAmount creates an Amount from both measures
func NewAmount(units, meters decimal.Decimal) Amount {
	return Amount{Units: units, Meters: meters}
}

// AmountOf creates an Amount holding q in the given measure
func AmountOf(m Measure, q decimal.Decimal) Amount {
	if m == MeasureMeters {
		return Amount{Meters: q}
	}
	return Amount{Units: q}
}

// Add returns a + b
func (a Amount) Add(b Amount) Amount {
	return Amount{Units: a.Units.Add(b.Units), Meters: a.Meters.Add(b.Meters)}
}

// Neg returns -a
func (a Amount) Neg() Amount {
	return Amount{Units: a.Units.Neg(), Meters: a.Meters.Neg()}
}

// Of returns the component for the given measure
func (a Amount) Of(m Measure) decimal.Decimal {
	if m == MeasureMeters {
		return a.Meters
	}
	return a.Units
}

// IsZero returns true if both components are zero
func (a Amount) IsZero() bool {
	return a.Units.IsZero() && a.Meters.IsZero()
}

// Magnitude is the absolute value of the populated component, preferring units
func (a Amount) Magnitude() decimal.Decimal {
	if !a.Units.IsZero() {
		return a.Units.Abs()
	}
	return a.Meters.Abs()
}

// Equal compares both components numerically
func (a Amount) Equal(b Amount) bool {
	return a.Units.Equal(b.Units) && a.Meters.Equal(b.Meters)
}
