package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lotledger/backend/internal/infrastructure/config"
	"github.com/lotledger/backend/internal/interfaces/http/handler"
	"github.com/lotledger/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMount_RouteTable(t *testing.T) {
	engine := gin.New()
	Mount(engine, Handlers{
		Inventory:   handler.NewInventoryHandler(nil),
		Fulfillment: handler.NewFulfillmentHandler(nil),
		System:      handler.NewSystemHandler("lotledger", "test"),
	})

	registered := make(map[string]bool)
	for _, route := range engine.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	expected := []string{
		"GET /api/v1/inventory/availability",
		"GET /api/v1/inventory/availability/export",
		"POST /api/v1/inventory/allocation-options",
		"POST /api/v1/inventory/reservations",
		"GET /api/v1/inventory/lots/:id/movements",
		"POST /api/v1/inventory/projection/rebuild",
		"GET /api/v1/orders/:order_id/lines/:row",
		"POST /api/v1/orders/:order_id/lines/:row/dispatch",
		"POST /api/v1/orders/:order_id/lines/:row/confirm-delivery",
		"PUT /api/v1/orders/:order_id/lines/:row/shipment",
		"POST /api/v1/cutting-orders/:order_id/items/:row/deliveries",
		"GET /api/v1/system/info",
		"GET /api/v1/system/health",
		"GET /health",
	}
	for _, route := range expected {
		assert.True(t, registered[route], "missing route %s", route)
	}
	assert.Len(t, registered, len(expected))
}

func TestMount_SkipsMissingHandlers(t *testing.T) {
	engine := gin.New()
	r := Mount(engine, Handlers{System: handler.NewSystemHandler("lotledger", "test")})

	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Len(t, engine.Routes(), 3)
}

func TestGroups_RouteCount(t *testing.T) {
	assert.Equal(t, 6, InventoryRoutes(handler.NewInventoryHandler(nil)).RouteCount())
	assert.Equal(t, 4, OrderRoutes(handler.NewFulfillmentHandler(nil)).RouteCount())
	assert.Equal(t, 1, CuttingOrderRoutes(handler.NewFulfillmentHandler(nil)).RouteCount())
}

func newTestEngine(maxBody int64) *gin.Engine {
	engine := NewEngine(EngineConfig{
		HTTP: config.HTTPConfig{
			MaxBodySize:      maxBody,
			CORSAllowOrigins: []string{"https://ops.example.com"},
		},
		Tracing: middleware.TracingConfig{Enabled: false},
	})
	engine.POST("/echo", func(c *gin.Context) {
		c.String(http.StatusOK, middleware.GetActor(c))
	})
	engine.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})
	return engine
}

func TestNewEngine_MiddlewareStack(t *testing.T) {
	engine := newTestEngine(64)

	t.Run("request id and actor", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("{}"))
		req.Header.Set("X-Actor", "bea")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "bea", w.Body.String())
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	})

	t.Run("request id is propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/echo", nil)
		req.Header.Set("X-Request-ID", "req-42")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
		assert.Equal(t, middleware.DefaultActor, w.Body.String())
	})

	t.Run("body limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(strings.Repeat("x", 65)))
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_REQUEST_TOO_LARGE")
	})

	t.Run("cors for configured origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/echo", nil)
		req.Header.Set("Origin", "https://ops.example.com")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, "https://ops.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("panics become 500", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/boom", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_INTERNAL")
	})
}

func TestNewEngine_Health(t *testing.T) {
	engine := newTestEngine(0)
	system := handler.NewSystemHandler("lotledger", "test")
	system.AddCheck("store", func(context.Context) error { return errors.New("quota exceeded") })
	Mount(engine, Handlers{System: system})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "quota exceeded")
}
