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

// CuttingOrder is a work order cutting origin lots down to target products
type CuttingOrder struct {
	shared.EventRecorder
	ID       string      `json:"id"`
	Row      int         `json:"row"`
	Status   OrderStatus `json:"status"`
	ClosedAt string      `json:"closed_at,omitempty"`
}

// IsClosed returns true once every item of the order reached the warehouse
func (o *CuttingOrder) IsClosed() bool {
	return o.Status == OrderStatusClosed
}

// Close marks the order closed at the given time
func (o *CuttingOrder) Close(at time.Time) {
	o.Status = OrderStatusClosed
	o.ClosedAt = at.UTC().Format(TimestampLayout)
	o.RecordEvent(NewCuttingOrderClosedEvent(o))
}

// CuttingItem is one line of a cutting order: material taken from an origin
// lot and delivered to the warehouse as the target product, tracked against
// its own requested quantity the same way an order line is.
type CuttingItem struct {
	shared.EventRecorder
	CuttingOrderID string          `json:"cutting_order_id"`
	Row            int             `json:"row"`
	OriginLotID    string          `json:"origin_lot_id"`
	Description    string          `json:"description"`
	Requested      decimal.Decimal `json:"requested"`
	Status         ItemStatus      `json:"status"`
	LinkedOrderID  string          `json:"linked_order_id,omitempty"`
	LinkedOrderRow int             `json:"linked_order_row,omitempty"`
	DeliveredAt    string          `json:"delivered_at,omitempty"`
}

// Identity returns the row identity the item was read with
func (i *CuttingItem) Identity() RowIdentity {
	return RowIdentity{Table: TableCuttingItems, Row: i.Row, Key: i.CuttingOrderID}
}

// Ref returns the operation reference that binds movements to this item
func (i *CuttingItem) Ref() inventory.OperationRef {
	return inventory.OperationRef{Owner: strings.TrimSpace(i.CuttingOrderID), Row: i.Row}
}

// LockKey is the serialization key of writes to this item
func (i *CuttingItem) LockKey() string {
	return CuttingItemLockKey(i.CuttingOrderID, i.Row)
}

// LinkedLine returns the identity of the order line this item produces for
func (i *CuttingItem) LinkedLine() (RowIdentity, bool) {
	if strings.TrimSpace(i.LinkedOrderID) == "" || i.LinkedOrderRow < 1 {
		return RowIdentity{}, false
	}
	return RowIdentity{Table: TableOrderLines, Row: i.LinkedOrderRow, Key: i.LinkedOrderID}, true
}

// ApplyDelivery moves the item to the status decided for a warehouse delivery
func (i *CuttingItem) ApplyDelivery(d WarehouseDecision, at time.Time) {
	i.Status = d.Status
	if d.Progress.Complete {
		i.DeliveredAt = at.UTC().Format(TimestampLayout)
	}
	i.RecordEvent(NewCuttingItemDeliveredEvent(i, d.Progress))
}

// CuttingItemLockKey is the serialization key for a cutting order item
func CuttingItemLockKey(orderID string, row int) string {
	return fmt.Sprintf("cutting-item:%s:%d", valueobject.NormalizeKey(orderID), row)
}
