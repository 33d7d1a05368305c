package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lotledger/backend/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var fromGin, fromCtx string
	router := gin.New()
	router.Use(RequestID())
	router.GET("/api/v1/inventory/availability", func(c *gin.Context) {
		fromGin = GetRequestID(c)
		fromCtx = logger.GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	serve := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/availability", nil)
		if header != "" {
			req.Header.Set(RequestIDKey, header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("keeps a caller supplied id", func(t *testing.T) {
		w := serve("batch-42/line-7")
		assert.Equal(t, "batch-42/line-7", w.Header().Get(RequestIDKey))
		assert.Equal(t, "batch-42/line-7", fromGin)
		assert.Equal(t, "batch-42/line-7", fromCtx)
	})

	for name, header := range map[string]string{
		"missing":            "",
		"oversized":          strings.Repeat("a", MaxRequestIDLength+1),
		"contains spaces":    "two words",
		"contains non-ascii": "pedido-ñ",
	} {
		t.Run("generates when "+name, func(t *testing.T) {
			w := serve(header)
			id := w.Header().Get(RequestIDKey)
			_, err := uuid.Parse(id)
			require.NoError(t, err)
			assert.Equal(t, id, fromGin)
			assert.Equal(t, id, fromCtx)
		})
	}

	t.Run("ids are unique", func(t *testing.T) {
		a := serve("").Header().Get(RequestIDKey)
		b := serve("").Header().Get(RequestIDKey)
		assert.NotEqual(t, a, b)
	})
}

func TestGetRequestID_WithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Empty(t, GetRequestID(c), "no request")

	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set(RequestIDKey, strings.Repeat("b", 200))
	assert.Empty(t, GetRequestID(c), "unusable header")

	c.Request.Header.Set(RequestIDKey, "header-id")
	assert.Equal(t, "header-id", GetRequestID(c))

	c.Set("request_id", "gin-id")
	assert.Equal(t, "gin-id", GetRequestID(c))

	c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), "ctx-id"))
	assert.Equal(t, "ctx-id", GetRequestID(c))
}
