package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"salesaudit-backend/internal/shared/server/respond"
)

const sessionIDKey = "sessionId"

// Session resolves the caller's session identity from the X-Session-Id
// header and stores it in context. Every browser session owns its own audit
// state; there are no accounts.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		sessionID := strings.TrimSpace(c.GetHeader("X-Session-Id"))
		if sessionID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing session identity", nil)
			return
		}

		c.Set(sessionIDKey, sessionID)
		c.Next()
	}
}

// SessionIDFromContext fetches the session ID stored by Session middleware.
func SessionIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(sessionIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
