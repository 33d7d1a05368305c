package handler

import (
	"github.com/gin-gonic/gin"
	fulfillmentapp "github.com/lotledger/backend/internal/application/fulfillment"
	"github.com/shopspring/decimal"
)

// FulfillmentHandler handles order line and cutting order fulfillment endpoints.
// Order lines and cutting items are addressed by their order id and sheet row;
// a row that no longer holds the named order is rejected.
type FulfillmentHandler struct {
	BaseHandler
	fulfillmentService *fulfillmentapp.FulfillmentService
}

// NewFulfillmentHandler creates a new FulfillmentHandler
func NewFulfillmentHandler(fulfillmentService *fulfillmentapp.FulfillmentService) *FulfillmentHandler {
	return &FulfillmentHandler{
		fulfillmentService: fulfillmentService,
	}
}

// DispatchBody is the request body of a dispatch
type DispatchBody struct {
	Quantity decimal.Decimal               `json:"quantity" swaggertype:"string" example:"30"`
	LotID    string                        `json:"lot_id" example:"L-1"`
	Shipment fulfillmentapp.ShipmentFields `json:"shipment"`
}

// QuantityBody is the request body of a warehouse delivery
type QuantityBody struct {
	Quantity decimal.Decimal `json:"quantity" swaggertype:"string" example:"10"`
}

// ConfirmDeliveryBody is the request body of a delivery confirmation
type ConfirmDeliveryBody struct {
	Date string `json:"date" binding:"required" example:"2026-03-01"`
}

// ShipmentBody is the request body of a shipment update
type ShipmentBody struct {
	Shipment fulfillmentapp.ShipmentFields `json:"shipment"`
}

// GetOrderLine godoc
// @ID           getOrderLine
// @Summary      Get an order line
// @Description  The line with its dispatched, remaining and reserved quantities derived from the ledger
// @Tags         orders
// @Produce      json
// @Param        order_id path string true "Order ID"
// @Param        row      path int    true "Sheet row of the line"
// @Success      200 {object} APIResponse[fulfillmentapp.OrderLineResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /orders/{order_id}/lines/{row} [get]
func (h *FulfillmentHandler) GetOrderLine(c *gin.Context) {
	row, err := parseRow(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.fulfillmentService.GetOrderLine(c.Request.Context(), c.Param("order_id"), row)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Dispatch godoc
// @ID           postOrderLineDispatch
// @Summary      Dispatch an order line
// @Description  Records a dispatch from a lot. The lot defaults to the line's latest reservation. A dispatch that would pass the requested quantity is rejected with the figures in the error details.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        order_id        path   string       true  "Order ID"
// @Param        row             path   int          true  "Sheet row of the line"
// @Param        Idempotency-Key header string       false "Makes the request run at most once"
// @Param        X-Actor         header string       false "Operator recorded on the movement"
// @Param        request         body   DispatchBody true  "Dispatch"
// @Success      200 {object} APIResponse[fulfillmentapp.DispatchResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /orders/{order_id}/lines/{row}/dispatch [post]
func (h *FulfillmentHandler) Dispatch(c *gin.Context) {
	row, err := parseRow(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	var body DispatchBody
	if !h.BindJSON(c, &body) {
		return
	}
	key, err := getIdempotencyKey(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.fulfillmentService.Dispatch(c.Request.Context(), fulfillmentapp.DispatchRequest{
		OrderID:        c.Param("order_id"),
		Row:            row,
		Quantity:       body.Quantity,
		LotID:          body.LotID,
		Shipment:       body.Shipment,
		Actor:          getActor(c),
		IdempotencyKey: key,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ConfirmDelivery godoc
// @ID           postOrderLineConfirmDelivery
// @Summary      Confirm customer delivery
// @Description  Marks a dispatched line as delivered on the given date
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        order_id        path   string              true  "Order ID"
// @Param        row             path   int                 true  "Sheet row of the line"
// @Param        Idempotency-Key header string              false "Makes the request run at most once"
// @Param        request         body   ConfirmDeliveryBody true  "Delivery date"
// @Success      200 {object} APIResponse[fulfillmentapp.OrderLineResponse]
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /orders/{order_id}/lines/{row}/confirm-delivery [post]
func (h *FulfillmentHandler) ConfirmDelivery(c *gin.Context) {
	row, err := parseRow(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	var body ConfirmDeliveryBody
	if !h.BindJSON(c, &body) {
		return
	}
	key, err := getIdempotencyKey(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.fulfillmentService.ConfirmDelivery(c.Request.Context(), fulfillmentapp.ConfirmDeliveryRequest{
		OrderID:        c.Param("order_id"),
		Row:            row,
		Date:           body.Date,
		Actor:          getActor(c),
		IdempotencyKey: key,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateShipment godoc
// @ID           putOrderLineShipment
// @Summary      Update shipment metadata
// @Description  Merges carrier, tracking, invoice and delivery note into the line. Empty fields keep their stored value.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        order_id path string       true "Order ID"
// @Param        row      path int          true "Sheet row of the line"
// @Param        request  body ShipmentBody true "Shipment"
// @Success      200 {object} APIResponse[fulfillmentapp.OrderLineResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /orders/{order_id}/lines/{row}/shipment [put]
func (h *FulfillmentHandler) UpdateShipment(c *gin.Context) {
	row, err := parseRow(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	var body ShipmentBody
	if !h.BindJSON(c, &body) {
		return
	}

	resp, err := h.fulfillmentService.UpdateShipment(c.Request.Context(), fulfillmentapp.ShipmentUpdateRequest{
		OrderID:  c.Param("order_id"),
		Row:      row,
		Shipment: body.Shipment,
		Actor:    getActor(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DeliverToWarehouse godoc
// @ID           postCuttingItemDelivery
// @Summary      Deliver cut material to the warehouse
// @Description  Records a warehouse delivery of a cutting item. Completing the last item closes the cutting order and readies a linked order line.
// @Tags         cutting-orders
// @Accept       json
// @Produce      json
// @Param        order_id        path   string       true  "Cutting order ID"
// @Param        row             path   int          true  "Sheet row of the item"
// @Param        Idempotency-Key header string       false "Makes the request run at most once"
// @Param        X-Actor         header string       false "Operator recorded on the movement"
// @Param        request         body   QuantityBody true  "Delivered quantity"
// @Success      200 {object} APIResponse[fulfillmentapp.WarehouseDeliveryResponse]
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /cutting-orders/{order_id}/items/{row}/deliveries [post]
func (h *FulfillmentHandler) DeliverToWarehouse(c *gin.Context) {
	row, err := parseRow(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	var body QuantityBody
	if !h.BindJSON(c, &body) {
		return
	}
	key, err := getIdempotencyKey(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.fulfillmentService.DeliverToWarehouse(c.Request.Context(), fulfillmentapp.WarehouseDeliveryRequest{
		CuttingOrderID: c.Param("order_id"),
		Row:            row,
		Quantity:       body.Quantity,
		Actor:          getActor(c),
		IdempotencyKey: key,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
