package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// APIVersionMiddleware enforces API versioning from the API-Version header or the path
func APIVersionMiddleware(supportedVersions []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		version := c.GetHeader("API-Version")
		if version == "" {
			if parts := strings.Split(c.Request.URL.Path, "/"); len(parts) > 2 && parts[1] == "api" {
				version = parts[2]
			}
		}
		if version == "" {
			version = "v1"
		}

		for _, v := range supportedVersions {
			if v == version {
				c.Set("api_version", version)
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"code":    "UNSUPPORTED_VERSION",
			"message": "Unsupported API version",
		})
	}
}
