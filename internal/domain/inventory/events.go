package inventory

import (
	"github.com/lotledger/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeLot = "Lot"

// Event type constants
const (
	EventTypeMovementRecorded    = "MovementRecorded"
	EventTypeReservationRecorded = "ReservationRecorded"
)

// MovementRecordedEvent is raised for every movement appended to the ledger
type MovementRecordedEvent struct {
	shared.EventHeader
	MovementID string       `json:"movement_id"`
	LotID      string       `json:"lot_id"`
	Type       MovementType `json:"type"`
	Quantity   Amount       `json:"quantity"`
	Reference  string       `json:"reference,omitempty"`
}

// NewMovementRecordedEvent creates a new MovementRecordedEvent
func NewMovementRecordedEvent(m *Movement) *MovementRecordedEvent {
	return &MovementRecordedEvent{
		EventHeader: shared.NewEventHeader(EventTypeMovementRecorded, AggregateTypeLot, m.LotID),
		MovementID:  m.ID,
		LotID:       m.LotID,
		Type:        m.Type,
		Quantity:    m.Quantity,
		Reference:   m.Reference,
	}
}

// ReservationRecordedEvent is raised when stock is reserved for an order line
type ReservationRecordedEvent struct {
	shared.EventHeader
	MovementID string `json:"movement_id"`
	LotID      string `json:"lot_id"`
	Reference  string `json:"reference"`
	Quantity   Amount `json:"quantity"`
	Policy     string `json:"policy"`
}

// NewReservationRecordedEvent creates a new ReservationRecordedEvent
func NewReservationRecordedEvent(m *Movement, policy string) *ReservationRecordedEvent {
	return &ReservationRecordedEvent{
		EventHeader: shared.NewEventHeader(EventTypeReservationRecorded, AggregateTypeLot, m.LotID),
		MovementID:  m.ID,
		LotID:       m.LotID,
		Reference:   m.Reference,
		Quantity:    m.Quantity,
		Policy:      policy,
	}
}
