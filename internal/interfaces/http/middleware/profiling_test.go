package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lotledger/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
)

func profiledLabels(cfg ProfilingConfig, route, path string) map[string]string {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Profiling(cfg))

	labels := map[string]string{}
	router.POST(route, func(c *gin.Context) {
		pprof.ForLabels(c.Request.Context(), func(k, v string) bool {
			labels[k] = v
			return true
		})
		c.Status(http.StatusOK)
	})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, path, nil))
	return labels
}

func TestProfiling_LabelsRequests(t *testing.T) {
	labels := profiledLabels(ProfilingConfig{Enabled: true},
		"/api/v1/orders/:order_id/lines/:row/dispatch", "/api/v1/orders/K1/lines/2/dispatch")

	assert.Equal(t, "/api/v1/orders/:order_id/lines/:row/dispatch", labels[telemetry.ProfilingLabelRoute])
	assert.Equal(t, http.MethodPost, labels[telemetry.ProfilingLabelMethod])
	assert.Equal(t, "orders", labels[telemetry.ProfilingLabelResource])
}

func TestProfiling_SkipsAndDisabled(t *testing.T) {
	assert.Empty(t, profiledLabels(ProfilingConfig{Enabled: false}, "/api/v1/inventory/reservations", "/api/v1/inventory/reservations"))
	assert.Empty(t, profiledLabels(ProfilingConfig{Enabled: true, SkipPaths: []string{"/health"}}, "/health", "/health"))
}

func TestResourceOf(t *testing.T) {
	assert.Equal(t, "inventory", resourceOf("/api/v1/inventory/lots/:id/movements"))
	assert.Equal(t, "cutting-orders", resourceOf("/api/v1/cutting-orders/:order_id/items/:row/deliveries"))
	assert.Empty(t, resourceOf("/health"))
}
