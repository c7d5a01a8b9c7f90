package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fraud-desk/alert_service/internal/domain/entities"
	"github.com/fraud-desk/alert_service/internal/domain/services/alert"
	"github.com/fraud-desk/alert_service/internal/domain/services/alertquery"
	apperrors "github.com/fraud-desk/alert_service/pkg/errors"
	"github.com/fraud-desk/alert_service/pkg/logger"
	"github.com/fraud-desk/alert_service/pkg/pagination"
)

type mockAlertService struct {
	mock.Mock
}

func (m *mockAlertService) List(ctx context.Context, q alert.ListQuery) (*entities.AlertPage, error) {
	args := m.Called(ctx, q)
	page, _ := args.Get(0).(*entities.AlertPage)
	return page, args.Error(1)
}

func (m *mockAlertService) Stats(ctx context.Context) (*entities.SummaryStats, error) {
	args := m.Called(ctx)
	stats, _ := args.Get(0).(*entities.SummaryStats)
	return stats, args.Error(1)
}

func (m *mockAlertService) Monthly(ctx context.Context) ([]entities.MonthlyCount, error) {
	args := m.Called(ctx)
	counts, _ := args.Get(0).([]entities.MonthlyCount)
	return counts, args.Error(1)
}

func (m *mockAlertService) Options() entities.FilterOptions {
	return entities.FilterOptions{
		SortAttributes: alertquery.DefaultRegistry().Attributes(),
		DefaultSort:    entities.DefaultSortRules(),
	}
}

func (m *mockAlertService) Detail(ctx context.Context, id string) (*entities.AlertDetail, error) {
	args := m.Called(ctx, id)
	detail, _ := args.Get(0).(*entities.AlertDetail)
	return detail, args.Error(1)
}

func (m *mockAlertService) History(ctx context.Context, id string, period entities.PeriodFilter, page pagination.Pagination) (*entities.HistoryPage, error) {
	args := m.Called(ctx, id, period, page)
	history, _ := args.Get(0).(*entities.HistoryPage)
	return history, args.Error(1)
}

func (m *mockAlertService) Dispose(ctx context.Context, d alert.Disposition) (*entities.AlertDetail, error) {
	args := m.Called(ctx, d)
	detail, _ := args.Get(0).(*entities.AlertDetail)
	return detail, args.Error(1)
}

func (m *mockAlertService) AuditTrail(ctx context.Context, id string, limit int) ([]entities.AuditLog, error) {
	args := m.Called(ctx, id, limit)
	logs, _ := args.Get(0).([]entities.AuditLog)
	return logs, args.Error(1)
}

func setupRouter(t *testing.T, svc AlertService, analyst string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAlertHandlers(svc, logger.NewLogger(zaptest.NewLogger(t)))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("request_id", "req-1")
		if analyst != "" {
			c.Set("analyst_id", analyst)
		}
		c.Next()
	})
	router.GET("/alerts", h.ListAlerts)
	router.GET("/alerts/stats", h.GetStats)
	router.GET("/alerts/monthly", h.GetMonthly)
	router.GET("/alerts/options", h.GetOptions)
	router.GET("/alerts/:id", h.GetAlert)
	router.GET("/alerts/:id/history", h.GetHistory)
	router.GET("/alerts/:id/audit", h.GetAuditTrail)
	router.PATCH("/alerts/:id/disposition", h.DisposeAlert)
	return router
}

func serve(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListAlerts_ParsesQuery(t *testing.T) {
	svc := &mockAlertService{}
	router := setupRouter(t, svc, "")

	svc.On("List", mock.Anything, mock.MatchedBy(func(q alert.ListQuery) bool {
		return q.Criteria.Customer == "Omar" &&
			assert.ObjectsAreEqual([]entities.AlertStatus{entities.AlertStatusPending, entities.AlertStatusConfirmedFraud}, q.Criteria.Statuses) &&
			assert.ObjectsAreEqual([]string{"JOD", "USD"}, q.Criteria.Currencies) &&
			q.Criteria.AmountFrom == "100" &&
			len(q.Rules) == entities.MaxSortRules &&
			q.Rules[0] == entities.SortRule{Attribute: entities.SortByAmount, Direction: entities.SortDescending} &&
			q.Rules[1] == entities.SortRule{Attribute: entities.SortByCustomerName, Direction: entities.SortAscending} &&
			q.Rules[2].Attribute == entities.SortByNone &&
			q.Period.Kind == entities.PeriodLast7Days &&
			q.Page == pagination.Pagination{Page: 2, PageSize: 25}
	})).Return(&entities.AlertPage{
		Alerts:     []entities.Alert{{ID: "AL-3", Amount: decimal.NewFromInt(5)}},
		TotalCount: 26,
		Page:       2,
		PageSize:   25,
		TotalPages: 2,
		SelectedID: "AL-3",
	}, nil)

	q := url.Values{}
	q.Set("customer", "Omar")
	q.Add("status", "PENDING,CONFIRMED_FRAUD")
	q.Add("currency", "JOD")
	q.Add("currency", "USD")
	q.Set("amount_from", "100")
	q.Add("sort", "Transaction Amount:Descending")
	q.Add("sort", "customer name")
	q.Set("period", "7d")
	q.Set("page", "2")
	q.Set("page_size", "25")

	w := serve(router, http.MethodGet, "/alerts?"+q.Encode(), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"selected_id":"AL-3"`)
	svc.AssertExpectations(t)
}

func TestListAlerts_DefaultsUseDefaultCascade(t *testing.T) {
	svc := &mockAlertService{}
	router := setupRouter(t, svc, "")

	svc.On("List", mock.Anything, mock.MatchedBy(func(q alert.ListQuery) bool {
		return q.Rules == nil && q.Criteria.IsEmpty() && q.Period.Kind == entities.PeriodAll
	})).Return(&entities.AlertPage{Alerts: []entities.Alert{}}, nil)

	w := serve(router, http.MethodGet, "/alerts", "")
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestListAlerts_RejectsBadQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"unknown status", "status=OPEN"},
		{"unknown source", "source=XX"},
		{"page size too large", "page_size=500"},
		{"oversized amount", "amount_to=" + strings.Repeat("9", 65)},
		{"unknown sort attribute", "sort=Risk:Ascending"},
		{"bad sort direction", "sort=Country:Sideways"},
		{"too many sort rules", "sort=Country&sort=Currency+Code&sort=CIF+No&sort=Alert+Source&sort=Alert+Status&sort=Transaction+Type"},
		{"unknown period", "period=LASTWEEK"},
		{"specific period with bad date", "period=SPECIFIC&period_date=someday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAlertService{}
			w := serve(setupRouter(t, svc, ""), http.MethodGet, "/alerts?"+tt.query, "")

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "INVALID_QUERY")
			svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
		})
	}
}

func TestListAlerts_PassesAmountBoundsThrough(t *testing.T) {
	tests := []struct {
		name string
		from string
	}{
		{"grouped", "1,000"},
		{"malformed", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAlertService{}
			svc.On("List", mock.Anything, mock.MatchedBy(func(q alert.ListQuery) bool {
				return q.Criteria.AmountFrom == tt.from
			})).Return(&entities.AlertPage{Alerts: []entities.Alert{}}, nil)

			q := url.Values{}
			q.Set("amount_from", tt.from)
			w := serve(setupRouter(t, svc, ""), http.MethodGet, "/alerts?"+q.Encode(), "")

			assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func TestGetAlert_NotFound(t *testing.T) {
	svc := &mockAlertService{}
	svc.On("Detail", mock.Anything, "AL-404").Return(nil, apperrors.ErrAlertNotFound.WithDetail("alert_id", "AL-404"))

	w := serve(setupRouter(t, svc, ""), http.MethodGet, "/alerts/AL-404", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ALERT_NOT_FOUND")
	assert.Contains(t, w.Body.String(), `"alert_id":"AL-404"`)
}

func TestGetAlert_InternalErrorHidesCause(t *testing.T) {
	svc := &mockAlertService{}
	svc.On("Detail", mock.Anything, "AL-1").Return(nil, apperrors.ErrServiceUnavailable.WithCause(assert.AnError))

	w := serve(setupRouter(t, svc, ""), http.MethodGet, "/alerts/AL-1", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}

func TestGetHistory(t *testing.T) {
	svc := &mockAlertService{}
	svc.On("History", mock.Anything, "AL-0",
		mock.MatchedBy(func(p entities.PeriodFilter) bool {
			return p.Kind == entities.PeriodSpecificDate && p.Date.Day() == 10 && p.Date.Month() == 9
		}),
		pagination.Pagination{Page: 2},
	).Return(&entities.HistoryPage{CIF: "12345600", Page: 2, TotalPages: 2, TotalCount: 9}, nil)

	w := serve(setupRouter(t, svc, ""), http.MethodGet, "/alerts/AL-0/history?period=SPECIFIC&period_date=10/09/2025&page=2", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"cif":"12345600"`)
	svc.AssertExpectations(t)
}

func TestGetHistory_SpecificWithoutDate(t *testing.T) {
	svc := &mockAlertService{}
	svc.On("History", mock.Anything, "AL-0",
		entities.PeriodFilter{Kind: entities.PeriodSpecificDate},
		pagination.Pagination{},
	).Return(&entities.HistoryPage{CIF: "12345600", Page: 1, TotalPages: 1, TotalCount: 9}, nil)

	w := serve(setupRouter(t, svc, ""), http.MethodGet, "/alerts/AL-0/history?period=SPECIFIC", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	svc.AssertExpectations(t)
}

func TestDisposeAlert(t *testing.T) {
	svc := &mockAlertService{}
	svc.On("Dispose", mock.Anything, mock.MatchedBy(func(d alert.Disposition) bool {
		return d.AlertID == "AL-0" && d.Status == entities.AlertStatusConfirmedFraud &&
			d.Feedback == "card skimmed" && d.Analyst == "analyst-7"
	})).Return(&entities.AlertDetail{Alert: entities.Alert{ID: "AL-0", Status: entities.AlertStatusConfirmedFraud}}, nil)

	w := serve(setupRouter(t, svc, "analyst-7"), http.MethodPatch, "/alerts/AL-0/disposition",
		`{"status":"confirmed_fraud","feedback":"  card skimmed "}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"CONFIRMED_FRAUD"`)
	svc.AssertExpectations(t)
}

func TestDisposeAlert_Errors(t *testing.T) {
	t.Run("missing analyst", func(t *testing.T) {
		w := serve(setupRouter(t, &mockAlertService{}, ""), http.MethodPatch, "/alerts/AL-0/disposition", `{"status":"CONFIRMED_FRAUD"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing status", func(t *testing.T) {
		w := serve(setupRouter(t, &mockAlertService{}, "analyst-7"), http.MethodPatch, "/alerts/AL-0/disposition", `{"feedback":"x"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("pending is not a disposition", func(t *testing.T) {
		svc := &mockAlertService{}
		svc.On("Dispose", mock.Anything, mock.Anything).Return(nil, apperrors.ErrInvalidDisposition.WithDetail("status", "PENDING"))
		w := serve(setupRouter(t, svc, "analyst-7"), http.MethodPatch, "/alerts/AL-0/disposition", `{"status":"PENDING"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_DISPOSITION")
	})
}

func TestGetAuditTrail(t *testing.T) {
	svc := &mockAlertService{}
	svc.On("AuditTrail", mock.Anything, "AL-0", 5).Return([]entities.AuditLog{{AlertID: "AL-0", Actor: "analyst-7"}}, nil)
	router := setupRouter(t, svc, "analyst-7")

	w := serve(router, http.MethodGet, "/alerts/AL-0/audit?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	var trail AuditTrailResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trail))
	require.Len(t, trail.Entries, 1)
	assert.Equal(t, "analyst-7", trail.Entries[0].Actor)

	w = serve(router, http.MethodGet, "/alerts/AL-0/audit?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatsMonthlyOptions(t *testing.T) {
	svc := &mockAlertService{}
	svc.On("Stats", mock.Anything).Return(&entities.SummaryStats{TotalAlerts: 3, UniqueCustomers: 2}, nil)
	svc.On("Monthly", mock.Anything).Return([]entities.MonthlyCount{{Label: "Sep 25", Year: 2025, Month: 9, Count: 3}}, nil)
	router := setupRouter(t, svc, "")

	w := serve(router, http.MethodGet, "/alerts/stats", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_alerts":3`)

	w = serve(router, http.MethodGet, "/alerts/monthly", "")
	var monthly MonthlyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &monthly))
	require.Len(t, monthly.Months, 1)
	assert.Equal(t, "Sep 25", monthly.Months[0].Label)

	w = serve(router, http.MethodGet, "/alerts/options", "")
	assert.Contains(t, w.Body.String(), "Transaction Amount")
}
