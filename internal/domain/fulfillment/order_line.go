package fulfillment

import (
	"fmt"
	"strings"
	"time"

	"github.com/lotledger/backend/internal/domain/inventory"
	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/lotledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// TimestampLayout is the layout of dates this package writes to status fields
const TimestampLayout = inventory.TimestampLayout

// FirstDataRow is the first row a record can occupy; row 1 holds the headers
const FirstDataRow = 2

// ValidateRow rejects row numbers that cannot address a record
func ValidateRow(row int) error {
	if row < FirstDataRow {
		return shared.NewValidationError(fmt.Sprintf("row must be %d or greater, got %d", FirstDataRow, row))
	}
	return nil
}

// Shipment is the carrier and document metadata of a dispatched line
type Shipment struct {
	Carrier        string `json:"carrier,omitempty"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	Invoice        string `json:"invoice,omitempty"`
	DeliveryNote   string `json:"delivery_note,omitempty"`
}

// IsZero returns true if no shipment field is set
func (s Shipment) IsZero() bool {
	return strings.TrimSpace(s.Carrier+s.TrackingNumber+s.Invoice+s.DeliveryNote) == ""
}

// Merge returns s with every non-empty field of other written over it
func (s Shipment) Merge(other Shipment) Shipment {
	pick := func(current, next string) string {
		if strings.TrimSpace(next) != "" {
			return strings.TrimSpace(next)
		}
		return current
	}
	return Shipment{
		Carrier:        pick(s.Carrier, other.Carrier),
		TrackingNumber: pick(s.TrackingNumber, other.TrackingNumber),
		Invoice:        pick(s.Invoice, other.Invoice),
		DeliveryNote:   pick(s.DeliveryNote, other.DeliveryNote),
	}
}

// OrderLine is one requested product and quantity within a customer order,
// addressed by order id and the row it occupies in the order lines table.
// The requested quantity is fixed; how much has been dispatched is derived
// from the movement ledger, and Status is a cache of that derived state.
type OrderLine struct {
	shared.EventRecorder
	OrderID         string          `json:"order_id"`
	Row             int             `json:"row"`
	Description     string          `json:"description"`
	Requested       decimal.Decimal `json:"requested"`
	Status          LineStatus      `json:"status"`
	FirstDispatchAt string          `json:"first_dispatch_at,omitempty"`
	DeliveredAt     string          `json:"delivered_at,omitempty"`
	Shipment        Shipment        `json:"shipment"`
}

// Identity returns the row identity the line was read with
func (l *OrderLine) Identity() RowIdentity {
	return RowIdentity{Table: TableOrderLines, Row: l.Row, Key: l.OrderID}
}

// Ref returns the operation reference that binds movements to this line
func (l *OrderLine) Ref() inventory.OperationRef {
	return inventory.OperationRef{Owner: strings.TrimSpace(l.OrderID), Row: l.Row}
}

// LockKey is the serialization key of writes to this line
func (l *OrderLine) LockKey() string {
	return OrderLineLockKey(l.OrderID, l.Row)
}

// ApplyDispatch moves the line to the status decided for a dispatch
func (l *OrderLine) ApplyDispatch(d DispatchDecision, lotID string, at time.Time) {
	l.Status = d.Status
	if d.FirstDispatch {
		l.FirstDispatchAt = at.UTC().Format(TimestampLayout)
	}
	l.RecordEvent(NewOrderLineDispatchedEvent(l, lotID, d.Progress))
}

// MarkReady moves a pending line to Warehouse once its goods are in stock.
// It returns false when the line is past Pending.
func (l *OrderLine) MarkReady() bool {
	if l.Status != LineStatusPending {
		return false
	}
	l.Status = LineStatusWarehouse
	l.RecordEvent(NewOrderLineReadyEvent(l))
	return true
}

// UpdateShipment records carrier and document metadata
func (l *OrderLine) UpdateShipment(s Shipment) error {
	if s.IsZero() {
		return shared.NewValidationError("at least one shipment field is required")
	}
	l.Shipment = l.Shipment.Merge(s)
	return nil
}

// OrderLineLockKey is the serialization key for an order line
func OrderLineLockKey(orderID string, row int) string {
	return fmt.Sprintf("order-line:%s:%d", valueobject.NormalizeKey(orderID), row)
}
