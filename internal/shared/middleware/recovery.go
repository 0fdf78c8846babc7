package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"dinein-backend/internal/shared/response"
	"dinein-backend/pkg/logger"
)

// Recovery converts panics into 500 responses
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", fmt.Errorf("%v", r))
				logger.Warn("panic stack", map[string]interface{}{
					"stack": string(debug.Stack()),
					"path":  c.Request.URL.Path,
				})
				response.InternalError(c, "Internal server error")
				c.Abort()
			}
		}()
		c.Next()
	}
}
