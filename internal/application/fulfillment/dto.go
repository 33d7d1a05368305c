package fulfillment

import (
	"github.com/lotledger/backend/internal/domain/fulfillment"
	"github.com/shopspring/decimal"
)

// ShipmentFields is the carrier and document metadata a request may carry
type ShipmentFields struct {
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
	Invoice        string `json:"invoice"`
	DeliveryNote   string `json:"delivery_note"`
}

func (s ShipmentFields) toDomain() fulfillment.Shipment {
	return fulfillment.Shipment{
		Carrier:        s.Carrier,
		TrackingNumber: s.TrackingNumber,
		Invoice:        s.Invoice,
		DeliveryNote:   s.DeliveryNote,
	}
}

// DispatchRequest dispatches quantity against an order line. LotID may be
// left empty when the line has a reservation; the latest one supplies the lot.
type DispatchRequest struct {
	OrderID  string          `json:"order_id"`
	Row      int             `json:"row"`
	Quantity decimal.Decimal `json:"quantity"`
	LotID    string          `json:"lot_id"`
	Shipment ShipmentFields  `json:"shipment"`

	Actor          string `json:"-"`
	IdempotencyKey string `json:"-"`
}

// ProgressResponse is the running-sum state of a line after a request
type ProgressResponse struct {
	Requested decimal.Decimal `json:"requested"`
	Total     decimal.Decimal `json:"total"`
	Remaining decimal.Decimal `json:"remaining"`
	Complete  bool            `json:"complete"`
}

func toProgressResponse(p fulfillment.Progress) ProgressResponse {
	return ProgressResponse{
		Requested: p.Requested,
		Total:     p.Total,
		Remaining: p.Remaining,
		Complete:  p.Complete,
	}
}

// DispatchResponse describes an accepted dispatch
type DispatchResponse struct {
	ProgressResponse
	OrderID    string          `json:"order_id"`
	Row        int             `json:"row"`
	Status     string          `json:"status"`
	LotID      string          `json:"lot_id"`
	MovementID string          `json:"movement_id"`
	Released   decimal.Decimal `json:"released"`
	Warnings   []string        `json:"warnings,omitempty"`
}

// WarehouseDeliveryRequest delivers cut material of a cutting item to the warehouse
type WarehouseDeliveryRequest struct {
	CuttingOrderID string          `json:"cutting_order_id"`
	Row            int             `json:"row"`
	Quantity       decimal.Decimal `json:"quantity"`

	Actor          string `json:"-"`
	IdempotencyKey string `json:"-"`
}

// WarehouseDeliveryResponse describes an accepted warehouse delivery
type WarehouseDeliveryResponse struct {
	ProgressResponse
	CuttingOrderID  string   `json:"cutting_order_id"`
	Row             int      `json:"row"`
	Status          string   `json:"status"`
	MovementID      string   `json:"movement_id"`
	OrderClosed     bool     `json:"order_closed"`
	LinkedLineReady bool     `json:"linked_line_ready"`
	Warnings        []string `json:"warnings,omitempty"`
}

// ConfirmDeliveryRequest records customer receipt of a dispatched line
type ConfirmDeliveryRequest struct {
	OrderID string `json:"order_id"`
	Row     int    `json:"row"`
	Date    string `json:"date"`

	Actor          string `json:"-"`
	IdempotencyKey string `json:"-"`
}

// ShipmentUpdateRequest enriches a line with shipment metadata
type ShipmentUpdateRequest struct {
	OrderID  string         `json:"order_id"`
	Row      int            `json:"row"`
	Shipment ShipmentFields `json:"shipment"`

	Actor string `json:"-"`
}

// OrderLineResponse is an order line with its ledger-derived progress
type OrderLineResponse struct {
	OrderID         string               `json:"order_id"`
	Row             int                  `json:"row"`
	Description     string               `json:"description"`
	Status          string               `json:"status"`
	Requested       decimal.Decimal      `json:"requested"`
	Dispatched      decimal.Decimal      `json:"dispatched"`
	Remaining       decimal.Decimal      `json:"remaining"`
	Reserved        decimal.Decimal      `json:"reserved"`
	FirstDispatchAt string               `json:"first_dispatch_at,omitempty"`
	DeliveredAt     string               `json:"delivered_at,omitempty"`
	Shipment        fulfillment.Shipment `json:"shipment"`
	Warnings        []string             `json:"warnings,omitempty"`
}

func toOrderLineResponse(line *fulfillment.OrderLine) *OrderLineResponse {
	return &OrderLineResponse{
		OrderID:         line.OrderID,
		Row:             line.Row,
		Description:     line.Description,
		Status:          line.Status.String(),
		Requested:       line.Requested,
		FirstDispatchAt: line.FirstDispatchAt,
		DeliveredAt:     line.DeliveredAt,
		Shipment:        line.Shipment,
	}
}
