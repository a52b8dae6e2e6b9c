package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/zemmon-store/internal/apperr"
)

// AdminMiddleware must run after AuthMiddleware. It lets only admins
// through. The order service checks the role again.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get principal from AuthMiddleware
		if _, exists := c.Get(principalKey); !exists {
			abort(c, http.StatusUnauthorized, "Principal not found in context (AuthMiddleware must run first)")
			return
		}

		// 2. Check permission
		if !PrincipalFrom(c).IsAdmin() {
			abort(c, http.StatusForbidden, apperr.ErrForbidden.Message)
			return
		}

		c.Next()
	}
}
