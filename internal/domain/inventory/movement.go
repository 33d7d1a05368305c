package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/lotledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// TimestampLayout is the layout of movement timestamps written by this service.
// UTC RFC3339 strings order lexicographically in time order.
const TimestampLayout = time.RFC3339

// MovementType represents the type of a ledger movement.
// The ledger is shared with people editing it directly, so rows may carry
// types outside the constants below; aggregation matches on text.
type MovementType string

const (
	// MovementTypeEntry is stock coming into a lot
	MovementTypeEntry MovementType = "Entry"
	// MovementTypeReservation sets stock aside for an order line
	MovementTypeReservation MovementType = "Reservation"
	// MovementTypeRelease returns reserved stock when the reservation is fulfilled
	MovementTypeRelease MovementType = "Release"
	// MovementTypeDispatch is stock shipped against an order line
	MovementTypeDispatch MovementType = "Dispatch"
	// MovementTypeCuttingDelivery is origin material delivered to the warehouse as cut product
	MovementTypeCuttingDelivery MovementType = "CuttingDelivery"
	// MovementTypeConsumption is stock used up by production
	MovementTypeConsumption MovementType = "Consumption"
	// MovementTypeAdjustment corrects a lot in either direction
	MovementTypeAdjustment MovementType = "Adjustment"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is one this service writes
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeEntry,
		MovementTypeReservation,
		MovementTypeRelease,
		MovementTypeDispatch,
		MovementTypeCuttingDelivery,
		MovementTypeConsumption,
		MovementTypeAdjustment:
		return true
	}
	return false
}

// IsIncrease returns true if this movement type adds to a lot
func (t MovementType) IsIncrease() bool {
	return t == MovementTypeEntry || t == MovementTypeRelease
}

// IsDecrease returns true if this movement type takes from a lot
func (t MovementType) IsDecrease() bool {
	switch t {
	case MovementTypeReservation,
		MovementTypeDispatch,
		MovementTypeCuttingDelivery,
		MovementTypeConsumption:
		return true
	}
	return false
}

// Is compares a stored type against t, ignoring case and whitespace
func (t MovementType) Is(other MovementType) bool {
	return valueobject.EqualKey(string(t), string(other))
}

// Movement is one immutable, signed entry against exactly one lot.
// Movements are never edited or removed; corrections are new movements.
type Movement struct {
	ID          string       `json:"id"`
	LotID       string       `json:"lot_id"`
	Type        MovementType `json:"type"`
	Quantity    Amount       `json:"quantity"`
	Origin      string       `json:"origin,omitempty"`
	Destination string       `json:"destination,omitempty"`
	Reference   string       `json:"reference,omitempty"`
	Reason      string       `json:"reason,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
	Actor       string       `json:"actor,omitempty"`
	Row         int          `json:"row,omitempty"`
}

// NewMovement creates a movement of the given type against a lot.
// quantity is a magnitude; the sign is derived from the type. Adjustments
// keep the sign they are given.
func NewMovement(lotID string, movementType MovementType, measure Measure, quantity decimal.Decimal) (*Movement, error) {
	if !IsValidLotID(lotID) {
		return nil, shared.NewValidationError("lot id is required")
	}
	if !movementType.IsValid() {
		return nil, shared.NewValidationError("invalid movement type: " + movementType.String())
	}
	if !measure.IsValid() {
		return nil, shared.NewValidationError("invalid measure: " + measure.String())
	}
	if quantity.IsZero() {
		return nil, shared.NewValidationError("movement quantity must not be zero")
	}

	signed := quantity
	switch {
	case movementType.IsDecrease():
		signed = quantity.Abs().Neg()
	case movementType.IsIncrease():
		signed = quantity.Abs()
	}

	return &Movement{
		ID:        uuid.NewString(),
		LotID:     strings.TrimSpace(lotID),
		Type:      movementType,
		Quantity:  AmountOf(measure, signed),
		Timestamp: time.Now().UTC().Format(TimestampLayout),
	}, nil
}

// WithReference binds the movement to the record that caused it
func (m *Movement) WithReference(ref OperationRef) *Movement {
	m.Reference = ref.String()
	return m
}

// WithLocations sets origin and destination tags
func (m *Movement) WithLocations(origin, destination string) *Movement {
	m.Origin = origin
	m.Destination = destination
	return m
}

// WithReason sets the free-text reason
func (m *Movement) WithReason(reason string) *Movement {
	m.Reason = reason
	return m
}

// WithActor sets who recorded the movement
func (m *Movement) WithActor(actor string) *Movement {
	m.Actor = actor
	return m
}

// WithTimestamp overrides the recording time
func (m *Movement) WithTimestamp(at time.Time) *Movement {
	m.Timestamp = at.UTC().Format(TimestampLayout)
	return m
}

// OperationRef returns the decoded reference, if the reference is row-keyed
func (m *Movement) OperationRef() (OperationRef, bool) {
	return ParseOperationRef(m.Reference)
}
