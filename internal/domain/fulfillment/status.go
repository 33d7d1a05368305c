package fulfillment

import (
	"github.com/lotledger/backend/internal/domain/shared/valueobject"
)

// LineStatus is the fulfillment status of an order line.
// Status cells are written by people as well as by this service, so values
// read back are matched without regard to case or spacing.
type LineStatus string

const (
	LineStatusPending         LineStatus = "Pending"
	LineStatusWarehouse       LineStatus = "Warehouse"
	LineStatusPartialDispatch LineStatus = "PartialDispatch"
	LineStatusDispatched      LineStatus = "Dispatched"
	LineStatusDelivered       LineStatus = "Delivered"
)

var lineStatuses = []LineStatus{
	LineStatusPending,
	LineStatusWarehouse,
	LineStatusPartialDispatch,
	LineStatusDispatched,
	LineStatusDelivered,
}

// String returns the string representation of LineStatus
func (s LineStatus) String() string {
	return string(s)
}

// IsValid checks if the status is one this service writes
func (s LineStatus) IsValid() bool {
	for _, known := range lineStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// CanDispatch reports whether more stock may be dispatched against the line.
// Delivered is terminal; every other status defers to the ledger sums.
func (s LineStatus) CanDispatch() bool {
	return s != LineStatusDelivered
}

// CanConfirmDelivery reports whether the customer may confirm receipt
func (s LineStatus) CanConfirmDelivery() bool {
	return s == LineStatusDispatched || s == LineStatusPartialDispatch
}

// ParseLineStatus maps stored text onto a known status.
// Empty text is Pending; unknown text is kept as written.
func ParseLineStatus(s string) LineStatus {
	text := valueobject.NormalizeText(s)
	if text == "" {
		return LineStatusPending
	}
	for _, known := range lineStatuses {
		if valueobject.EqualKey(text, string(known)) {
			return known
		}
	}
	return LineStatus(text)
}

// ItemStatus is the warehouse-delivery status of a cutting order item
type ItemStatus string

const (
	ItemStatusPending         ItemStatus = "Pending"
	ItemStatusPartialDelivery ItemStatus = "PartialDelivery"
	ItemStatusWarehouse       ItemStatus = "Warehouse"
)

// String returns the string representation of ItemStatus
func (s ItemStatus) String() string {
	return string(s)
}

// ParseItemStatus maps stored text onto a known item status
func ParseItemStatus(s string) ItemStatus {
	text := valueobject.NormalizeText(s)
	if text == "" {
		return ItemStatusPending
	}
	for _, known := range []ItemStatus{ItemStatusPending, ItemStatusPartialDelivery, ItemStatusWarehouse} {
		if valueobject.EqualKey(text, string(known)) {
			return known
		}
	}
	return ItemStatus(text)
}

// OrderStatus is the status of a cutting order
type OrderStatus string

const (
	OrderStatusOpen   OrderStatus = "Open"
	OrderStatusClosed OrderStatus = "Closed"
)

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// ParseOrderStatus maps stored text onto a cutting order status.
// Anything other than Closed is an open order.
func ParseOrderStatus(s string) OrderStatus {
	if valueobject.EqualKey(s, string(OrderStatusClosed)) {
		return OrderStatusClosed
	}
	return OrderStatusOpen
}
