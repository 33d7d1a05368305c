package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func secureHeaders(cfg SecurityConfig) http.Header {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Secure(cfg))
	router.GET("/api/v1/inventory/availability", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/inventory/availability", nil))
	return w.Header()
}

func TestSecure_Defaults(t *testing.T) {
	h := secureHeaders(DefaultSecurityConfig())

	assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", h.Get("Referrer-Policy"))
	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", h.Get("Content-Security-Policy"))
	assert.Equal(t, "no-store", h.Get("Cache-Control"))
	assert.Empty(t, h.Get("Strict-Transport-Security"))
}

func TestSecure_HSTSAndCaching(t *testing.T) {
	h := secureHeaders(SecurityConfig{HSTSMaxAge: 365 * 24 * time.Hour})

	assert.Equal(t, "max-age=31536000; includeSubDomains", h.Get("Strict-Transport-Security"))
	assert.Empty(t, h.Get("Cache-Control"))
}
