package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fraud-desk/alert_service/internal/domain/entities"
	"github.com/fraud-desk/alert_service/internal/domain/services/alert"
	"github.com/fraud-desk/alert_service/internal/domain/services/alertquery"
	apperrors "github.com/fraud-desk/alert_service/pkg/errors"
	"github.com/fraud-desk/alert_service/pkg/logger"
	"github.com/fraud-desk/alert_service/pkg/pagination"
	"github.com/fraud-desk/alert_service/pkg/sanitize"
)

const defaultAuditLimit = 50

// AlertService is the query and disposition surface used by the HTTP layer
type AlertService interface {
	List(ctx context.Context, q alert.ListQuery) (*entities.AlertPage, error)
	Stats(ctx context.Context) (*entities.SummaryStats, error)
	Monthly(ctx context.Context) ([]entities.MonthlyCount, error)
	Options() entities.FilterOptions
	Detail(ctx context.Context, id string) (*entities.AlertDetail, error)
	History(ctx context.Context, id string, period entities.PeriodFilter, page pagination.Pagination) (*entities.HistoryPage, error)
	Dispose(ctx context.Context, d alert.Disposition) (*entities.AlertDetail, error)
	AuditTrail(ctx context.Context, id string, limit int) ([]entities.AuditLog, error)
}

// AlertHandlers serves the review desk API
type AlertHandlers struct {
	service AlertService
	logger  *logger.Logger
}

// NewAlertHandlers creates alert handlers
func NewAlertHandlers(service AlertService, logger *logger.Logger) *AlertHandlers {
	return &AlertHandlers{service: service, logger: logger}
}

// ListAlerts returns one page of filtered, sorted and windowed alerts
// @Summary List alerts
// @Description Filters, sorts, windows and paginates the alert record set
// @Tags alerts
// @Produce json
// @Param customer query string false "Customer name or CIF; picker form 'Name - CIF' accepted"
// @Param status query []string false "PENDING, CONFIRMED_FRAUD, CONFIRMED_LEGITIMATE" collectionFormat(multi)
// @Param sort query []string false "Attribute:Direction, up to five" collectionFormat(multi)
// @Param period query string false "7D, MTD, QTD, YTD, ALL or SPECIFIC"
// @Param page query int false "Page number"
// @Success 200 {object} entities.AlertPage
// @Failure 400 {object} entities.ErrorResponse
// @Router /api/v1/alerts [get]
func (h *AlertHandlers) ListAlerts(c *gin.Context) {
	p, criteria, rules, period, err := parseListQuery(c, h.service.Options().SortAttributes)
	if err != nil {
		respondAppError(c, h.logger, err)
		return
	}

	page, err := h.service.List(c.Request.Context(), alert.ListQuery{
		Criteria: criteria,
		Rules:    rules,
		Period:   period,
		Page:     pageOf(p.Page, p.PageSize),
	})
	if err != nil {
		respondAppError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetStats returns dashboard aggregates over all alerts
// @Summary Alert statistics
// @Tags alerts
// @Produce json
// @Success 200 {object} entities.SummaryStats
// @Router /api/v1/alerts/stats [get]
func (h *AlertHandlers) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		respondAppError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// MonthlyResponse wraps the trailing twelve month counts
type MonthlyResponse struct {
	Months []entities.MonthlyCount `json:"months"`
}

// AuditTrailResponse wraps the audit entries of one alert, newest first
type AuditTrailResponse struct {
	Entries []entities.AuditLog `json:"entries"`
}

// GetMonthly returns alert counts for the trailing twelve months
// @Summary Monthly alert counts
// @Tags alerts
// @Produce json
// @Success 200 {object} MonthlyResponse
// @Router /api/v1/alerts/monthly [get]
func (h *AlertHandlers) GetMonthly(c *gin.Context) {
	counts, err := h.service.Monthly(c.Request.Context())
	if err != nil {
		respondAppError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MonthlyResponse{Months: counts})
}

// GetOptions lists filter values and sortable attributes
// @Summary Filter options
// @Tags alerts
// @Produce json
// @Success 200 {object} entities.FilterOptions
// @Router /api/v1/alerts/options [get]
func (h *AlertHandlers) GetOptions(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Options())
}

// GetAlert returns an alert with its enrichment
// @Summary Alert detail
// @Tags alerts
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 {object} entities.AlertDetail
// @Failure 404 {object} entities.ErrorResponse
// @Router /api/v1/alerts/{id} [get]
func (h *AlertHandlers) GetAlert(c *gin.Context) {
	detail, err := h.service.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondAppError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// GetHistory returns the customer's other alerts
// @Summary Customer alert history
// @Tags alerts
// @Produce json
// @Param id path string true "Alert ID"
// @Param period query string false "7D, MTD, QTD, YTD, ALL or SPECIFIC"
// @Param period_date query string false "Date for SPECIFIC, DD/MM/YYYY"
// @Param page query int false "Page number"
// @Success 200 {object} entities.HistoryPage
// @Failure 404 {object} entities.ErrorResponse
// @Router /api/v1/alerts/{id}/history [get]
func (h *AlertHandlers) GetHistory(c *gin.Context) {
	var p historyParams
	if err := bindQuery(c, &p); err != nil {
		respondAppError(c, h.logger, err)
		return
	}
	period, err := parseHistoryPeriod(p)
	if err != nil {
		respondAppError(c, h.logger, err)
		return
	}

	history, err := h.service.History(c.Request.Context(), c.Param("id"), period, pageOf(p.Page, 0))
	if err != nil {
		respondAppError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// DisposeAlert records an analyst verdict
// @Summary Dispose alert
// @Tags alerts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Alert ID"
// @Param Idempotency-Key header string false "Replays the first response for a repeated key"
// @Param request body entities.DispositionRequest true "Verdict"
// @Success 200 {object} entities.AlertDetail
// @Failure 400 {object} entities.ErrorResponse
// @Failure 401 {object} entities.ErrorResponse
// @Failure 404 {object} entities.ErrorResponse
// @Failure 429 {object} entities.ErrorResponse
// @Router /api/v1/alerts/{id}/disposition [patch]
func (h *AlertHandlers) DisposeAlert(c *gin.Context) {
	analyst := c.GetString("analyst_id")
	if analyst == "" {
		respondUnauthorized(c, "Analyst identity required")
		return
	}

	var req entities.DispositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", map[string]interface{}{"error": err.Error()})
		return
	}

	detail, err := h.service.Dispose(c.Request.Context(), alert.Disposition{
		AlertID:  c.Param("id"),
		Status:   entities.AlertStatus(strings.ToUpper(strings.TrimSpace(string(req.Status)))),
		Feedback: sanitize.Feedback(req.Feedback),
		Analyst:  analyst,
		ClientIP: c.ClientIP(),
	})
	if err != nil {
		respondAppError(c, h.logger, err)
		return
	}

	requestLogger(c, h.logger).Infow("Alert disposed",
		"alert_id", detail.Alert.ID,
		"status", detail.Alert.Status,
		"analyst_id", analyst,
	)
	c.JSON(http.StatusOK, detail)
}

// GetAuditTrail returns the newest disposition audit entries for an alert
// @Summary Alert audit trail
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Alert ID"
// @Param limit query int false "Maximum entries"
// @Success 200 {object} AuditTrailResponse
// @Router /api/v1/alerts/{id}/audit [get]
func (h *AlertHandlers) GetAuditTrail(c *gin.Context) {
	limit := defaultAuditLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > pagination.MaxPageSize {
			respondAppError(c, h.logger, apperrors.ErrInvalidQuery.WithDetail("limit", raw))
			return
		}
		limit = n
	}

	logs, err := h.service.AuditTrail(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respondAppError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, AuditTrailResponse{Entries: logs})
}

func parseHistoryPeriod(p historyParams) (entities.PeriodFilter, error) {
	period, err := alertquery.ParsePeriod(p.Period, p.PeriodDate)
	if err != nil {
		return period, apperrors.ErrInvalidQuery.WithCause(err).WithDetail("period", p.Period)
	}
	return period, nil
}
