package middleware

import (
	"github.com/gin-gonic/gin"

	"dinein-backend/internal/shared/response"
)

// RequireStaff allows staff and admin callers only.
// Must run after Auth.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role != "staff" && role != "admin" {
			response.Forbidden(c, "Staff access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin allows admin callers only.
// Must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != "admin" {
			response.Forbidden(c, "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}
