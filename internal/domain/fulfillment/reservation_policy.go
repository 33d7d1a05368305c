package fulfillment

import (
	"fmt"

	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/lotledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ReservationPolicy is how firmly a reservation commits stock to an order line
type ReservationPolicy string

const (
	// ReservationAdvisory appends reservations without checking the order
	// line; a later approval step is expected to reconcile them
	ReservationAdvisory ReservationPolicy = "advisory"
	// ReservationHard rejects reservations beyond what the line still needs
	// or what the lot has available
	ReservationHard ReservationPolicy = "hard"
)

// String returns the string representation of ReservationPolicy
func (p ReservationPolicy) String() string {
	return string(p)
}

// IsValid returns true if the policy is known
func (p ReservationPolicy) IsValid() bool {
	return p == ReservationAdvisory || p == ReservationHard
}

// ParseReservationPolicy reads a configured policy; empty means advisory
func ParseReservationPolicy(s string) (ReservationPolicy, error) {
	switch p := ReservationPolicy(valueobject.NormalizeKey(s)); p {
	case "":
		return ReservationAdvisory, nil
	case ReservationAdvisory, ReservationHard:
		return p, nil
	}
	return "", shared.NewValidationError(fmt.Sprintf("unknown reservation policy %q", s))
}

// RequiresLine reports whether a reservation must be checked against its order line
func (p ReservationPolicy) RequiresLine() bool {
	return p == ReservationHard
}

// ReservationCheck carries the figures a hard reservation is judged on
type ReservationCheck struct {
	// Requested is the order line's requested quantity
	Requested decimal.Decimal
	// Dispatched is what the ledger shows dispatched against the line
	Dispatched decimal.Decimal
	// Reserved is the reservation still outstanding for the line
	Reserved decimal.Decimal
	// LotID and LotAvailable describe the lot being reserved from
	LotID        string
	LotAvailable decimal.Decimal
	// Delta is the quantity to reserve
	Delta decimal.Decimal
}

// Check validates a reservation under the policy
func (p ReservationPolicy) Check(c ReservationCheck) error {
	if !c.Delta.IsPositive() {
		return shared.NewValidationError("quantity must be greater than zero")
	}
	if p != ReservationHard {
		return nil
	}
	open := c.Requested.Sub(c.Dispatched)
	if c.Reserved.Add(c.Delta).GreaterThan(open) {
		return shared.NewOverAllocationError(open, c.Reserved, c.Delta)
	}
	if c.Delta.GreaterThan(c.LotAvailable) {
		return shared.NewInsufficientStockError(c.LotID, c.LotAvailable, c.Delta)
	}
	return nil
}
