package fulfillment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fieldsOf(t Transition) map[string]string {
	out := make(map[string]string, len(t.Fields))
	for _, f := range t.Fields {
		out[f.Field] = f.Value
	}
	return out
}

func TestDispatchTransition(t *testing.T) {
	line := newLine(LineStatusWarehouse)
	line.Shipment = Shipment{Carrier: "Acme Freight", Invoice: "F-001"}
	decision, err := NewDispatchTracker().Decide(line, d("0"), d("40"))
	assert.NoError(t, err)
	line.ApplyDispatch(decision, "L1", time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC))

	tr := DispatchTransition(line, decision)

	assert.Equal(t, TableOrderLines, tr.Table)
	assert.Equal(t, 52, tr.Row)
	assert.Equal(t, map[string]string{
		FieldStatus:          "PartialDispatch",
		FieldFirstDispatchAt: "2024-03-02T08:30:00Z",
		FieldCarrier:         "Acme Freight",
		FieldInvoice:         "F-001",
	}, fieldsOf(tr))

	decision.FirstDispatch = false
	assert.NotContains(t, fieldsOf(DispatchTransition(line, decision)), FieldFirstDispatchAt)
}

func TestShipmentTransition(t *testing.T) {
	line := newLine(LineStatusDispatched)
	line.Shipment = Shipment{Carrier: "Old", TrackingNumber: "T-1"}

	assert.Error(t, line.UpdateShipment(Shipment{}))
	assert.NoError(t, line.UpdateShipment(Shipment{Carrier: " New ", DeliveryNote: "DN-9"}))

	assert.Equal(t, map[string]string{
		FieldCarrier:        "New",
		FieldTrackingNumber: "T-1",
		FieldDeliveryNote:   "DN-9",
	}, fieldsOf(ShipmentTransition(line)))
}

func TestCuttingTransitions(t *testing.T) {
	item := &CuttingItem{CuttingOrderID: "C7", Row: 3, Status: ItemStatusWarehouse, DeliveredAt: "2024-04-01T00:00:00Z"}
	assert.Equal(t, map[string]string{
		FieldStatus:      "Warehouse",
		FieldDeliveredAt: "2024-04-01T00:00:00Z",
	}, fieldsOf(WarehouseTransition(item)))

	item.Status = ItemStatusPartialDelivery
	assert.Equal(t, map[string]string{FieldStatus: "PartialDelivery"}, fieldsOf(WarehouseTransition(item)))

	order := &CuttingOrder{ID: "C7", Row: 4}
	order.Close(time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC))
	tr := CuttingOrderClosure(order)
	assert.Equal(t, TableCuttingOrders, tr.Table)
	assert.Equal(t, 4, tr.Row)
	assert.Equal(t, map[string]string{
		FieldStatus:   "Closed",
		FieldClosedAt: "2024-05-06T07:08:09Z",
	}, fieldsOf(tr))
}

func TestLineReadyTransition(t *testing.T) {
	line := newLine(LineStatusPending)
	assert.True(t, line.MarkReady())
	assert.False(t, line.MarkReady())
	assert.Equal(t, map[string]string{FieldStatus: "Warehouse"}, fieldsOf(LineReadyTransition(line)))
	assert.Len(t, line.PendingEvents(), 1)
}

func TestDeliveryTransition(t *testing.T) {
	line := newLine(LineStatusDispatched)
	assert.NoError(t, ConfirmDelivery(line, "2024-06-01"))
	assert.Equal(t, map[string]string{
		FieldStatus:      "Delivered",
		FieldDeliveredAt: "2024-06-01",
	}, fieldsOf(DeliveryTransition(line)))
}
