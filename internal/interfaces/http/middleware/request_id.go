package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lotledger/backend/internal/infrastructure/logger"
)

const (
	// RequestIDKey is the header carrying the request ID
	RequestIDKey = "X-Request-ID"
	// MaxRequestIDLength bounds a caller supplied request ID
	MaxRequestIDLength = 128

	requestIDContextKey = "request_id"
)

// RequestID keeps the caller's X-Request-ID when it is usable and generates
// a UUID otherwise. The ID is echoed on the response and stored in both the
// gin and request contexts, where the logger and tracing pick it up.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDKey)
		if !validRequestID(id) {
			id = uuid.NewString()
		}
		c.Set(requestIDContextKey, id)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Header(RequestIDKey, id)
		c.Next()
	}
}

// GetRequestID returns the request ID assigned by RequestID. Outside that
// middleware it falls back to a usable X-Request-ID header, then "".
func GetRequestID(c *gin.Context) string {
	if c.Request != nil {
		if id := logger.GetRequestID(c.Request.Context()); id != "" {
			return id
		}
	}
	if id := c.GetString(requestIDContextKey); id != "" {
		return id
	}
	if c.Request != nil {
		if id := c.GetHeader(RequestIDKey); validRequestID(id) {
			return id
		}
	}
	return ""
}

// validRequestID accepts 1 to MaxRequestIDLength visible ASCII characters,
// which keeps the ID safe to echo in headers and write to logs.
func validRequestID(id string) bool {
	if id == "" || len(id) > MaxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}
