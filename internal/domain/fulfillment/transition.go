package fulfillment

import (
	"strings"
)

// Logical tables written by fulfillment transitions
const (
	TableOrderLines    = "order_lines"
	TableCuttingOrders = "cutting_orders"
	TableCuttingItems  = "cutting_items"
)

// Logical status fields. The row store maps them to physical columns.
const (
	FieldStatus          = "status"
	FieldFirstDispatchAt = "first_dispatch_at"
	FieldDeliveredAt     = "delivered_at"
	FieldClosedAt        = "closed_at"
	FieldCarrier         = "carrier"
	FieldTrackingNumber  = "tracking_number"
	FieldInvoice         = "invoice"
	FieldDeliveryNote    = "delivery_note"
)

// FieldUpdate sets one logical field to a value
type FieldUpdate struct {
	Field string
	Value string
}

// Transition is a set of field updates to one row, written as one batch
type Transition struct {
	Table  string
	Row    int
	Fields []FieldUpdate
}

// IsEmpty returns true if the transition updates nothing
func (t Transition) IsEmpty() bool {
	return len(t.Fields) == 0
}

func (t *Transition) set(field, value string) {
	t.Fields = append(t.Fields, FieldUpdate{Field: field, Value: value})
}

func (t *Transition) setShipment(s Shipment) {
	for _, f := range []FieldUpdate{
		{Field: FieldCarrier, Value: s.Carrier},
		{Field: FieldTrackingNumber, Value: s.TrackingNumber},
		{Field: FieldInvoice, Value: s.Invoice},
		{Field: FieldDeliveryNote, Value: s.DeliveryNote},
	} {
		if strings.TrimSpace(f.Value) != "" {
			t.set(f.Field, f.Value)
		}
	}
}

// DispatchTransition writes the status of a dispatched line, the first
// dispatch date when this was the first one, and any shipment metadata
func DispatchTransition(line *OrderLine, d DispatchDecision) Transition {
	t := Transition{Table: TableOrderLines, Row: line.Row}
	t.set(FieldStatus, d.Status.String())
	if d.FirstDispatch && line.FirstDispatchAt != "" {
		t.set(FieldFirstDispatchAt, line.FirstDispatchAt)
	}
	t.setShipment(line.Shipment)
	return t
}

// WarehouseTransition writes the status of a cutting item after a delivery
func WarehouseTransition(item *CuttingItem) Transition {
	t := Transition{Table: TableCuttingItems, Row: item.Row}
	t.set(FieldStatus, item.Status.String())
	if item.Status == ItemStatusWarehouse && item.DeliveredAt != "" {
		t.set(FieldDeliveredAt, item.DeliveredAt)
	}
	return t
}

// DeliveryTransition writes a confirmed customer delivery
func DeliveryTransition(line *OrderLine) Transition {
	t := Transition{Table: TableOrderLines, Row: line.Row}
	t.set(FieldStatus, line.Status.String())
	t.set(FieldDeliveredAt, line.DeliveredAt)
	return t
}

// ShipmentTransition writes the populated shipment fields of a line
func ShipmentTransition(line *OrderLine) Transition {
	t := Transition{Table: TableOrderLines, Row: line.Row}
	t.setShipment(line.Shipment)
	return t
}

// CuttingOrderClosure writes the closed status and closing date of an order
func CuttingOrderClosure(order *CuttingOrder) Transition {
	t := Transition{Table: TableCuttingOrders, Row: order.Row}
	t.set(FieldStatus, order.Status.String())
	t.set(FieldClosedAt, order.ClosedAt)
	return t
}

// LineReadyTransition writes a line moving to Warehouse
func LineReadyTransition(line *OrderLine) Transition {
	t := Transition{Table: TableOrderLines, Row: line.Row}
	t.set(FieldStatus, line.Status.String())
	return t
}
