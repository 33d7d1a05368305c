package fulfillment

import (
	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeOrderLine    = "OrderLine"
	AggregateTypeCuttingItem  = "CuttingItem"
	AggregateTypeCuttingOrder = "CuttingOrder"
)

// Event type constants
const (
	EventTypeOrderLineDispatched  = "OrderLineDispatched"
	EventTypeOrderLineReady       = "OrderLineReady"
	EventTypeOrderLineDelivered   = "OrderLineDelivered"
	EventTypeCuttingItemDelivered = "CuttingItemDelivered"
	EventTypeCuttingOrderClosed   = "CuttingOrderClosed"
)

// OrderLineDispatchedEvent is raised when stock is dispatched against a line
type OrderLineDispatchedEvent struct {
	shared.EventHeader
	OrderID   string          `json:"order_id"`
	Row       int             `json:"row"`
	LotID     string          `json:"lot_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
	Remaining decimal.Decimal `json:"remaining"`
	Status    LineStatus      `json:"status"`
}

// NewOrderLineDispatchedEvent creates a new OrderLineDispatchedEvent
func NewOrderLineDispatchedEvent(line *OrderLine, lotID string, p Progress) *OrderLineDispatchedEvent {
	return &OrderLineDispatchedEvent{
		EventHeader: shared.NewEventHeader(EventTypeOrderLineDispatched, AggregateTypeOrderLine, line.Ref().String()),
		OrderID:     line.OrderID,
		Row:         line.Row,
		LotID:       lotID,
		Quantity:    p.Delta,
		Total:       p.Total,
		Remaining:   p.Remaining,
		Status:      line.Status,
	}
}

// OrderLineReadyEvent is raised when a line's goods reach the warehouse
type OrderLineReadyEvent struct {
	shared.EventHeader
	OrderID string `json:"order_id"`
	Row     int    `json:"row"`
}

// NewOrderLineReadyEvent creates a new OrderLineReadyEvent
func NewOrderLineReadyEvent(line *OrderLine) *OrderLineReadyEvent {
	return &OrderLineReadyEvent{
		EventHeader: shared.NewEventHeader(EventTypeOrderLineReady, AggregateTypeOrderLine, line.Ref().String()),
		OrderID:     line.OrderID,
		Row:         line.Row,
	}
}

// OrderLineDeliveredEvent is raised when the customer confirms receipt
type OrderLineDeliveredEvent struct {
	shared.EventHeader
	OrderID     string `json:"order_id"`
	Row         int    `json:"row"`
	DeliveredAt string `json:"delivered_at"`
}

// NewOrderLineDeliveredEvent creates a new OrderLineDeliveredEvent
func NewOrderLineDeliveredEvent(line *OrderLine) *OrderLineDeliveredEvent {
	return &OrderLineDeliveredEvent{
		EventHeader: shared.NewEventHeader(EventTypeOrderLineDelivered, AggregateTypeOrderLine, line.Ref().String()),
		OrderID:     line.OrderID,
		Row:         line.Row,
		DeliveredAt: line.DeliveredAt,
	}
}

// CuttingItemDeliveredEvent is raised when cut product reaches the warehouse
type CuttingItemDeliveredEvent struct {
	shared.EventHeader
	CuttingOrderID string          `json:"cutting_order_id"`
	Row            int             `json:"row"`
	OriginLotID    string          `json:"origin_lot_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	Total          decimal.Decimal `json:"total"`
	Remaining      decimal.Decimal `json:"remaining"`
	Status         ItemStatus      `json:"status"`
}

// NewCuttingItemDeliveredEvent creates a new CuttingItemDeliveredEvent
func NewCuttingItemDeliveredEvent(item *CuttingItem, p Progress) *CuttingItemDeliveredEvent {
	return &CuttingItemDeliveredEvent{
		EventHeader:    shared.NewEventHeader(EventTypeCuttingItemDelivered, AggregateTypeCuttingItem, item.Ref().String()),
		CuttingOrderID: item.CuttingOrderID,
		Row:            item.Row,
		OriginLotID:    item.OriginLotID,
		Quantity:       p.Delta,
		Total:          p.Total,
		Remaining:      p.Remaining,
		Status:         item.Status,
	}
}

// CuttingOrderClosedEvent is raised when every item of a cutting order is delivered
type CuttingOrderClosedEvent struct {
	shared.EventHeader
	CuttingOrderID string `json:"cutting_order_id"`
	ClosedAt       string `json:"closed_at"`
}

// NewCuttingOrderClosedEvent creates a new CuttingOrderClosedEvent
func NewCuttingOrderClosedEvent(order *CuttingOrder) *CuttingOrderClosedEvent {
	return &CuttingOrderClosedEvent{
		EventHeader:    shared.NewEventHeader(EventTypeCuttingOrderClosed, AggregateTypeCuttingOrder, order.ID),
		CuttingOrderID: order.ID,
		ClosedAt:       order.ClosedAt,
	}
}
