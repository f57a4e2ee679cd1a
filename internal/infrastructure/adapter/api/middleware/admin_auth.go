package middleware

import (
	"crypto/subtle"
	"net/http"

	domainerr "github.com/p4cs-974/verse-billing/internal/domain/error"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// AdminAuth guards the admin route group with a shared token carried in the
// X-Admin-Token header. An empty configured token disables the whole group.
func AdminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{
				Code:    domainerr.CodeInternalServer,
				Message: "Admin API is not configured",
			})
			return
		}

		supplied := c.GetHeader("X-Admin-Token")
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Code:    domainerr.CodeInternalServer,
				Message: "Invalid admin token",
			})
			return
		}
		c.Next()
	}
}
