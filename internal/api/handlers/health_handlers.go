package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fraud-desk/alert_service/pkg/health"
	"github.com/fraud-desk/alert_service/pkg/logger"
	"github.com/fraud-desk/alert_service/pkg/version"
)

var startTime = time.Now()

// HealthHandler handles health check endpoints
type HealthHandler struct {
	checker *health.HealthChecker
	logger  *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checker *health.HealthChecker, logger *logger.Logger) *HealthHandler {
	return &HealthHandler{checker: checker, logger: logger}
}

// Health runs every registered check
// @Summary Get application health status
// @Description Checks the alert store, the cache and the alert snapshot
// @Tags health
// @Produce json
// @Success 200 {object} health.HealthResponse
// @Failure 503 {object} health.HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	status, checks := h.checker.Check(ctx)
	if status == health.StatusUnhealthy {
		h.logger.Warnw("Health check failed", "checks", checks)
	}

	c.Header("X-Uptime", time.Since(startTime).Round(time.Second).String())
	c.JSON(statusCode(status), health.HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Version:   version.Version,
		Checks:    checks,
	})
}

// Ready reports whether the service can answer alert queries
// @Summary Readiness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, _ := h.checker.Check(ctx)
	c.JSON(statusCode(status), gin.H{
		"status":    status,
		"timestamp": time.Now().Unix(),
	})
}

// Live reports that the process is up
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
		"uptime": time.Since(startTime).String(),
	})
}

func statusCode(status health.Status) int {
	if status == health.StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
