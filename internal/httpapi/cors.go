package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS allows a single browser origin. Requests from other origins get no CORS headers.
func CORS(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if reqOrigin := c.GetHeader("Origin"); reqOrigin != "" && (origin == "*" || reqOrigin == origin) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", reqOrigin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-Id")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Expose-Headers", "X-Request-Id, Retry-After")
			h.Add("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
