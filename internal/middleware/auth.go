package middleware

import (
	"github.com/gin-gonic/gin"
)

// DevUserID is the identity assumed by DevelopmentAuthMiddleware when no user is set
const DevUserID = "00000000-0000-0000-0000-000000000001"

// DevelopmentAuthMiddleware is a simple auth middleware for development.
// It accepts X-User-ID / X-User-Email and falls back to DevUserID.
func DevelopmentAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			userID = c.GetHeader("X-User-ID")
		}
		if userID == "" {
			userID = DevUserID
		}

		// Set both camelCase and snake_case for compatibility with RBAC middleware
		c.Set("userId", userID)
		c.Set("user_id", userID)
		c.Set("staff_id", userID) // RBAC middleware checks staff_id first
		if email := c.GetHeader("X-User-Email"); email != "" {
			c.Set("user_email", email)
		}
		c.Next()
	}
}
