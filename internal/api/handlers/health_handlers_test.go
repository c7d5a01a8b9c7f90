package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/fraud-desk/alert_service/pkg/health"
	"github.com/fraud-desk/alert_service/pkg/logger"
)

func healthRouter(t *testing.T, results ...health.CheckResult) *gin.Engine {
	gin.SetMode(gin.TestMode)
	checker := health.NewHealthChecker(time.Second)
	for _, r := range results {
		r := r
		checker.Register(health.NewFuncChecker(r.Component, func(context.Context) health.CheckResult { return r }))
	}
	h := NewHealthHandler(checker, logger.NewLogger(zaptest.NewLogger(t)))

	router := gin.New()
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	router.GET("/live", h.Live)
	return router
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name    string
		results []health.CheckResult
		want    int
		status  string
	}{
		{"healthy", []health.CheckResult{health.NewHealthyResult("database", "ok")}, http.StatusOK, "healthy"},
		{"cache down degrades", []health.CheckResult{
			health.NewHealthyResult("database", "ok"),
			health.NewDegradedResult("redis", "unreachable"),
		}, http.StatusOK, "degraded"},
		{"store down", []health.CheckResult{health.NewUnhealthyResult("database", errors.New("refused"))}, http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := healthRouter(t, tt.results...)

			w := serve(router, http.MethodGet, "/health", "")
			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), `"status":"`+tt.status+`"`)

			assert.Equal(t, tt.want, serve(router, http.MethodGet, "/ready", "").Code)
			assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/live", "").Code)
		})
	}
}
