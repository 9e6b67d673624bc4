package rbac

import (
	"net/http"

	"ev-tracker/internal/apperr"
	"ev-tracker/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireAnyRole allows access if the caller has any of the provided roles.
// admin bypasses all checks.
func RequireAnyRole(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role, err := auth.Role(c.Request.Context())
		if err != nil || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apperr.Body(apperr.Unauthorized("role required")))
			return
		}

		if IsAdmin(role) {
			c.Next()
			return
		}

		if _, ok := allowedSet[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, apperr.Body(apperr.Forbidden("forbidden")))
			return
		}
		c.Next()
	}
}

// BlockViewerWrites rejects every mutating verb for roles without write access.
func BlockViewerWrites() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		role, err := auth.Role(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apperr.Body(apperr.Unauthorized("role required")))
			return
		}
		if !CanWrite(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, apperr.Body(apperr.Forbidden("read-only access")))
			return
		}
		c.Next()
	}
}
