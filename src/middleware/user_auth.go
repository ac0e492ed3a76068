package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/roster-console/src/models"
)

// RequireAdmin rejects operators whose console token does not carry the
// admin role. It must run after ConsoleAuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if models.Role(c.GetString(OperatorRoleKey)) != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "admin role required",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
