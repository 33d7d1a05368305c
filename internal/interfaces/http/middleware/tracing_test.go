package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTracedRouter(t *testing.T, skip ...string) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	router := gin.New()
	router.Use(
		RequestID(),
		Tracing(TracingConfig{ServiceName: "lotledger-test", Enabled: true, SkipPaths: skip, TracerProvider: tp}),
		Actor(),
		SpanAttributes(),
	)
	router.GET("/api/v1/orders/:order_id/lines/:row", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"row": c.Param("row")})
	})
	router.POST("/api/v1/orders/:order_id/lines/:row/dispatch", func(c *gin.Context) {
		c.Set(ErrorCodeKey, "ERR_OVERDRAW")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false})
	})
	router.POST("/api/v1/inventory/reservations", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
	})
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router, sr
}

func onlySpan(t *testing.T, sr *tracetest.SpanRecorder) sdktrace.ReadOnlySpan {
	t.Helper()
	spans := sr.Ended()
	require.Len(t, spans, 1)
	return spans[0]
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (string, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value.Emit(), true
		}
	}
	return "", false
}

func TestTracing_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Tracing(TracingConfig{Enabled: false}), SpanAttributes())
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTracing_SpanPerRoute(t *testing.T) {
	router, sr := newTracedRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/K1/lines/2", nil)
	req.Header.Set(RequestIDKey, "req-trace-1")
	req.Header.Set(ActorHeader, "dock-2")
	router.ServeHTTP(httptest.NewRecorder(), req)

	span := onlySpan(t, sr)
	assert.Equal(t, "GET /api/v1/orders/:order_id/lines/:row", span.Name())
	assert.NotEqual(t, codes.Error, span.Status().Code)

	id, ok := spanAttr(span, "request_id")
	require.True(t, ok)
	assert.Equal(t, "req-trace-1", id)
	actor, ok := spanAttr(span, "actor")
	require.True(t, ok)
	assert.Equal(t, "dock-2", actor)
}

func TestTracing_SkipPaths(t *testing.T) {
	router, sr := newTracedRouter(t, "/health")

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, sr.Ended())
}

func TestSpanAttributes_RejectionIsNotAnError(t *testing.T) {
	router, sr := newTracedRouter(t)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/orders/K1/lines/2/dispatch", nil))

	span := onlySpan(t, sr)
	code, ok := spanAttr(span, "error_code")
	require.True(t, ok)
	assert.Equal(t, "ERR_OVERDRAW", code)
	assert.NotEqual(t, codes.Error, span.Status().Code)
}

func TestSpanAttributes_ServerErrorFailsSpan(t *testing.T) {
	router, sr := newTracedRouter(t)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/inventory/reservations", nil))

	assert.Equal(t, codes.Error, onlySpan(t, sr).Status().Code)
}
