package middleware

import (
	"jetwallet/internal/core/domain"

	"github.com/gin-gonic/gin"
)

// AuditContext copies the client IP into the request context so audit
// entries written by services carry it.
func AuditContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := domain.WithClientIP(c.Request.Context(), c.ClientIP())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
