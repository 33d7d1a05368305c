package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	inventoryapp "github.com/lotledger/backend/internal/application/inventory"
	"github.com/lotledger/backend/internal/domain/shared"
)

// XLSXContentType is the media type of the availability export
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// InventoryHandler handles lot availability, allocation and reservation endpoints
type InventoryHandler struct {
	BaseHandler
	inventoryService *inventoryapp.InventoryService
	now              func() time.Time
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventoryService *inventoryapp.InventoryService) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		now:              time.Now,
	}
}

// GetAvailability godoc
// @ID           getInventoryAvailability
// @Summary      Query lot availability
// @Description  Available quantity per lot and per product, in units and meters. Consumed and discarded lots are excluded.
// @Tags         inventory
// @Produce      json
// @Param        product_key query string false "Product key"
// @Param        warehouse   query string false "Warehouse"
// @Param        class       query string false "Lot class"
// @Success      200 {object} APIResponse[inventoryapp.AvailabilityResponse]
// @Failure      503 {object} ErrorResponse
// @Router       /inventory/availability [get]
func (h *InventoryHandler) GetAvailability(c *gin.Context) {
	var q inventoryapp.AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.HandleError(c, shared.NewValidationError(err.Error()))
		return
	}

	resp, err := h.inventoryService.QueryAvailability(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ExportAvailability godoc
// @ID           exportInventoryAvailability
// @Summary      Export lot availability
// @Description  The availability report as an xlsx workbook with a lots sheet and a products sheet
// @Tags         inventory
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        product_key query string false "Product key"
// @Param        warehouse   query string false "Warehouse"
// @Param        class       query string false "Lot class"
// @Success      200 {file} file
// @Failure      503 {object} ErrorResponse
// @Router       /inventory/availability/export [get]
func (h *InventoryHandler) ExportAvailability(c *gin.Context) {
	var q inventoryapp.AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.HandleError(c, shared.NewValidationError(err.Error()))
		return
	}

	// Rendered into memory first so a failure can still answer with JSON
	var buf bytes.Buffer
	if err := h.inventoryService.ExportAvailability(c.Request.Context(), q, &buf); err != nil {
		h.HandleError(c, err)
		return
	}

	filename := fmt.Sprintf("availability-%s.xlsx", h.now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, XLSXContentType, buf.Bytes())
}

// AllocationOptions godoc
// @ID           postInventoryAllocationOptions
// @Summary      Rank candidate lots
// @Description  For each request, the lots of the same product in the destination warehouse, best candidates first
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.AllocationOptionsRequest true "Allocation requests"
// @Success      200 {object} APIResponse[[]inventoryapp.AllocationOptionResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /inventory/allocation-options [post]
func (h *InventoryHandler) AllocationOptions(c *gin.Context) {
	var req inventoryapp.AllocationOptionsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.inventoryService.AllocationOptions(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithTotal(c, resp, len(resp))
}

// Reserve godoc
// @ID           postInventoryReservation
// @Summary      Reserve lot stock for an order line
// @Description  Appends a reservation movement. Under the hard policy the line's remaining quantity and the lot's available stock are checked.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Makes the request run at most once"
// @Param        X-Actor header string false "Operator recorded on the movement"
// @Param        request body inventoryapp.ReserveRequest true "Reservation"
// @Success      201 {object} APIResponse[inventoryapp.ReserveResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /inventory/reservations [post]
func (h *InventoryHandler) Reserve(c *gin.Context) {
	var req inventoryapp.ReserveRequest
	if !h.BindJSON(c, &req) {
		return
	}
	key, err := getIdempotencyKey(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	req.Actor = getActor(c)
	req.IdempotencyKey = key

	resp, err := h.inventoryService.Reserve(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListMovements godoc
// @ID           getInventoryLotMovements
// @Summary      List the ledger of a lot
// @Description  Every movement recorded against the lot, in ledger order, with the lot's balance
// @Tags         inventory
// @Produce      json
// @Param        id path string true "Lot ID"
// @Success      200 {object} APIResponse[inventoryapp.LotLedgerResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /inventory/lots/{id}/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	resp, err := h.inventoryService.ListMovements(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithTotal(c, resp, len(resp.Movements))
}

// RebuildProjection godoc
// @ID           postInventoryProjectionRebuild
// @Summary      Rebuild the balance projection
// @Description  Re-reads the whole ledger, picking up rows edited outside the service
// @Tags         inventory
// @Produce      json
// @Success      200 {object} APIResponse[inventoryapp.RebuildResponse]
// @Failure      503 {object} ErrorResponse
// @Router       /inventory/projection/rebuild [post]
func (h *InventoryHandler) RebuildProjection(c *gin.Context) {
	resp, err := h.inventoryService.RebuildProjection(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
