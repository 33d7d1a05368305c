package middleware

import (
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/lotledger/backend/internal/infrastructure/logger"
)

const (
	// ActorHeader names the operator on whose behalf a request records movements
	ActorHeader = "X-Actor"
	// ActorKey is the gin context key for the actor
	ActorKey = "actor"
	// MaxActorLength bounds the actor written to the ledger
	MaxActorLength = 64
	// DefaultActor is used when a request carries no actor
	DefaultActor = "api"
)

// Actor reads the acting operator from the X-Actor header and stores it in
// both the gin context and the request context. Control characters are
// dropped so the value is safe to write into a ledger cell.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := sanitizeActor(c.GetHeader(ActorHeader))
		if actor == "" {
			actor = DefaultActor
		}
		c.Set(ActorKey, actor)
		c.Request = c.Request.WithContext(logger.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// GetActor returns the actor stored by the Actor middleware
func GetActor(c *gin.Context) string {
	if actor := c.GetString(ActorKey); actor != "" {
		return actor
	}
	return DefaultActor
}

func sanitizeActor(raw string) string {
	actor := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	if len(actor) > MaxActorLength {
		actor = actor[:MaxActorLength]
	}
	return strings.TrimSpace(actor)
}
