package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fraud-desk/alert_service/pkg/logger"
)

// RoleBasedAccessControl rejects analysts whose token role is not listed
func RoleBasedAccessControl(requiredRoles []string, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("analyst_role")

		for _, r := range requiredRoles {
			if role == r {
				c.Next()
				return
			}
		}

		log.Warnw("Insufficient permissions",
			"request_id", c.GetString("request_id"),
			"analyst_id", c.GetString("analyst_id"),
			"analyst_role", role,
			"required_roles", requiredRoles,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"code":       "FORBIDDEN",
			"message":    "Insufficient permissions",
			"request_id": c.GetString("request_id"),
		})
	}
}
