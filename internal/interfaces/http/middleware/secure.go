package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityConfig holds the security headers of a JSON API
type SecurityConfig struct {
	// HSTSMaxAge enables Strict-Transport-Security; zero leaves it off
	// because the service is often run behind plain HTTP in development.
	HSTSMaxAge time.Duration
	// NoStore marks responses uncacheable. Availability and order line
	// figures change with every ledger write.
	NoStore bool
}

// DefaultSecurityConfig disables HSTS and caching
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{NoStore: true}
}

// Secure sets headers that stop browsers from sniffing, framing or caching
// API responses. The API serves no HTML, so the content security policy
// denies everything.
func Secure(cfg SecurityConfig) gin.HandlerFunc {
	hsts := ""
	if cfg.HSTSMaxAge > 0 {
		hsts = "max-age=" + strconv.Itoa(int(cfg.HSTSMaxAge/time.Second)) + "; includeSubDomains"
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		if cfg.NoStore {
			h.Set("Cache-Control", "no-store")
		}
		if hsts != "" {
			h.Set("Strict-Transport-Security", hsts)
		}
		c.Next()
	}
}
