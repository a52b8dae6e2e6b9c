package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/zemmon-store/internal/apperr"
	"github.com/01moynul/zemmon-store/internal/auth"
)

const (
	principalKey = "principal"
	userIDKey    = "userID"
)

// AuthMiddleware turns the bearer token into an auth.Principal stored on the
// context. Requests without a valid token stop here with 401.
func AuthMiddleware(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get Authorization Header ---
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		scheme, tokenString, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tokenString) == "" {
			abort(c, http.StatusUnauthorized, "Invalid token format (must be Bearer)")
			return
		}

		// 2. --- Validate Token ---
		principal, err := tokens.ValidateToken(strings.TrimSpace(tokenString))
		if err != nil {
			msg := apperr.ErrInvalidToken.Message
			if errors.Is(err, apperr.ErrTokenExpired) {
				msg = apperr.ErrTokenExpired.Message
			}
			abort(c, http.StatusUnauthorized, msg)
			return
		}

		// 3. --- Success ---
		c.Set(principalKey, principal)
		c.Set(userIDKey, principal.ID)
		c.Next()
	}
}

// PrincipalFrom returns the caller set by AuthMiddleware, or the zero
// Principal on public routes.
func PrincipalFrom(c *gin.Context) auth.Principal {
	v, exists := c.Get(principalKey)
	if !exists {
		return auth.Principal{}
	}
	p, _ := v.(auth.Principal)
	return p
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}
