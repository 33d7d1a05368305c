package router

import (
	"github.com/gin-gonic/gin"
	"github.com/lotledger/backend/internal/interfaces/http/handler"
)

// Handlers are the HTTP handlers served by the ledger API
type Handlers struct {
	Inventory   *handler.InventoryHandler
	Fulfillment *handler.FulfillmentHandler
	System      *handler.SystemHandler
}

// InventoryRoutes serves lot availability, allocation, reservations and the ledger
func InventoryRoutes(h *handler.InventoryHandler) *DomainGroup {
	g := NewDomainGroup("inventory", "/inventory")
	g.GET("/availability", h.GetAvailability).
		GET("/availability/export", h.ExportAvailability).
		POST("/allocation-options", h.AllocationOptions).
		POST("/reservations", h.Reserve).
		GET("/lots/:id/movements", h.ListMovements).
		POST("/projection/rebuild", h.RebuildProjection)
	return g
}

// OrderRoutes serves order lines, addressed by order id and sheet row
func OrderRoutes(h *handler.FulfillmentHandler) *DomainGroup {
	g := NewDomainGroup("orders", "/orders")
	g.Group("lines", "/:order_id/lines/:row").
		GET("", h.GetOrderLine).
		POST("/dispatch", h.Dispatch).
		POST("/confirm-delivery", h.ConfirmDelivery).
		PUT("/shipment", h.UpdateShipment)
	return g
}

// CuttingOrderRoutes serves warehouse deliveries of cutting items
func CuttingOrderRoutes(h *handler.FulfillmentHandler) *DomainGroup {
	g := NewDomainGroup("cutting-orders", "/cutting-orders")
	g.POST("/:order_id/items/:row/deliveries", h.DeliverToWarehouse)
	return g
}

// SystemRoutes serves service metadata
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	g := NewDomainGroup("system", "/system")
	g.GET("/info", h.GetSystemInfo).
		GET("/health", h.Health)
	return g
}

// Mount registers the versioned API and the root health check on engine
func Mount(engine *gin.Engine, h Handlers, opts ...RouterOption) *Router {
	if h.System != nil {
		engine.GET("/health", h.System.Health)
	}

	r := NewRouter(engine, opts...)
	if h.Inventory != nil {
		r.Register(InventoryRoutes(h.Inventory))
	}
	if h.Fulfillment != nil {
		r.Register(OrderRoutes(h.Fulfillment)).
			Register(CuttingOrderRoutes(h.Fulfillment))
	}
	if h.System != nil {
		r.Register(SystemRoutes(h.System))
	}
	r.Setup()
	return r
}
