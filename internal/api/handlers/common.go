package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fraud-desk/alert_service/internal/domain/entities"
	apperrors "github.com/fraud-desk/alert_service/pkg/errors"
	"github.com/fraud-desk/alert_service/pkg/logger"
)

// getRequestID extracts request ID from context
func getRequestID(c *gin.Context) string {
	if reqID, exists := c.Get("request_id"); exists {
		if id, ok := reqID.(string); ok {
			return id
		}
	}
	return ""
}

// requestLogger returns the per-request logger set by the logging middleware
func requestLogger(c *gin.Context, fallback *logger.Logger) *logger.Logger {
	if l, ok := c.Get("logger"); ok {
		if rl, ok := l.(*logger.Logger); ok {
			return rl
		}
	}
	return fallback
}

// respondError sends a standardized error response
func respondError(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	if details == nil {
		details = map[string]interface{}{}
	}
	if id := getRequestID(c); id != "" {
		details["request_id"] = id
	}
	c.JSON(status, entities.ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// respondBadRequest sends a bad request error
func respondBadRequest(c *gin.Context, message string, details map[string]interface{}) {
	respondError(c, http.StatusBadRequest, "INVALID_REQUEST", message, details)
}

// respondUnauthorized sends an unauthorized error
func respondUnauthorized(c *gin.Context, message string) {
	respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

// respondAppError maps an error onto its HTTP status. Server side failures are
// logged and their details withheld.
func respondAppError(c *gin.Context, log *logger.Logger, err error) {
	status := apperrors.GetStatusCode(err)
	if status >= http.StatusInternalServerError {
		requestLogger(c, log).Errorw("Request failed",
			"error", err,
			"code", apperrors.GetCode(err),
		)
		respondError(c, status, apperrors.GetCode(err), apperrors.GetMessage(err), nil)
		return
	}

	var details map[string]interface{}
	if d := apperrors.GetDetails(err); len(d) > 0 {
		details = make(map[string]interface{}, len(d))
		for k, v := range d {
			details[k] = v
		}
	}
	respondError(c, status, apperrors.GetCode(err), apperrors.GetMessage(err), details)
}
