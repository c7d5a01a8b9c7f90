package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fraud-desk/alert_service/pkg/version"
)

// VersionHandler reports build information
func VersionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Get())
	}
}
