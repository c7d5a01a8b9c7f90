package alert

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fraud-desk/alert_service/internal/domain/entities"
	apperrors "github.com/fraud-desk/alert_service/pkg/errors"
	"github.com/fraud-desk/alert_service/pkg/logger"
	"github.com/fraud-desk/alert_service/pkg/metrics"
	"github.com/fraud-desk/alert_service/pkg/pagination"
)

type MockAlertRepository struct {
	mock.Mock
}

func (m *MockAlertRepository) ListAlerts(ctx context.Context, limit int) ([]entities.Alert, int, error) {
	args := m.Called(ctx, limit)
	alerts, _ := args.Get(0).([]entities.Alert)
	return alerts, args.Int(1), args.Error(2)
}

func (m *MockAlertRepository) GetByID(ctx context.Context, id string) (*entities.Alert, error) {
	args := m.Called(ctx, id)
	alert, _ := args.Get(0).(*entities.Alert)
	return alert, args.Error(1)
}

func (m *MockAlertRepository) ListByCIF(ctx context.Context, cif string) ([]entities.Alert, error) {
	args := m.Called(ctx, cif)
	alerts, _ := args.Get(0).([]entities.Alert)
	return alerts, args.Error(1)
}

func (m *MockAlertRepository) UpdateDisposition(ctx context.Context, id string, status entities.AlertStatus, feedback, analyst string) error {
	return m.Called(ctx, id, status, feedback, analyst).Error(0)
}

type MockAlertCache struct {
	mock.Mock
}

func (m *MockAlertCache) GetSnapshot(ctx context.Context) ([]entities.Alert, bool, error) {
	args := m.Called(ctx)
	alerts, _ := args.Get(0).([]entities.Alert)
	return alerts, args.Bool(1), args.Error(2)
}

func (m *MockAlertCache) SetSnapshot(ctx context.Context, alerts []entities.Alert) error {
	return m.Called(ctx, alerts).Error(0)
}

func (m *MockAlertCache) GetCustomer(ctx context.Context, cif string) ([]entities.Alert, bool, error) {
	args := m.Called(ctx, cif)
	alerts, _ := args.Get(0).([]entities.Alert)
	return alerts, args.Bool(1), args.Error(2)
}

func (m *MockAlertCache) SetCustomer(ctx context.Context, cif string, alerts []entities.Alert) error {
	return m.Called(ctx, cif, alerts).Error(0)
}

func (m *MockAlertCache) InvalidateAlert(ctx context.Context, cif string) error {
	return m.Called(ctx, cif).Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyFraudConfirmed(ctx context.Context, alert entities.Alert, feedback, analyst string) error {
	return m.Called(ctx, alert.ID, feedback, analyst).Error(0)
}

type MockAuditRecorder struct {
	mock.Mock
}

func (m *MockAuditRecorder) LogDisposition(ctx context.Context, alert entities.Alert, status entities.AlertStatus, feedback, actor, ip string) error {
	return m.Called(ctx, alert.ID, status, feedback, actor, ip).Error(0)
}

func (m *MockAuditRecorder) GetAlertAuditTrail(ctx context.Context, alertID string, limit int) ([]entities.AuditLog, error) {
	args := m.Called(ctx, alertID, limit)
	logs, _ := args.Get(0).([]entities.AuditLog)
	return logs, args.Error(1)
}

var referenceNow = time.Date(2025, time.September, 15, 9, 0, 0, 0, time.UTC)

// fixture holds eleven alerts: AL-0..AL-9 belong to CIF 12345600, AL-10 to another customer
func fixture() []entities.Alert {
	out := make([]entities.Alert, 0, 11)
	for i := 0; i < 11; i++ {
		cif := "12345600"
		if i == 10 {
			cif = "77777777"
		}
		status := entities.AlertStatus("")
		if i%3 == 1 {
			status = entities.AlertStatusConfirmedFraud
		}
		out = append(out, entities.Alert{
			ID:       fmt.Sprintf("AL-%d", i),
			CIF:      cif,
			Source:   entities.AlertSourceAI,
			Status:   status,
			Type:     entities.TransactionTypeCashWithdrawal,
			Amount:   decimal.NewFromInt(int64(50 + i*10)),
			Currency: "JOD",
			Country:  "Jordan",
			Date:     fmt.Sprintf("%02d/09/2025", 15-i),
			Time:     "10:00:00",
		})
	}
	return out
}

type harness struct {
	svc      *Service
	repo     *MockAlertRepository
	cache    *MockAlertCache
	notifier *MockNotifier
	audit    *MockAuditRecorder
}

func newHarness(t *testing.T, withCache bool) *harness {
	h := &harness{
		repo:     new(MockAlertRepository),
		notifier: new(MockNotifier),
		audit:    new(MockAuditRecorder),
	}
	var cache *MockAlertCache
	if withCache {
		cache = new(MockAlertCache)
		h.cache = cache
	}

	log := logger.NewLogger(zaptest.NewLogger(t))
	cfg := Config{PageSize: 10, HistoryPageSize: 7, MaxRecords: 40000, ReferenceNow: func() time.Time { return referenceNow }}
	if withCache {
		h.svc = NewService(h.repo, cache, h.notifier, h.audit, nil, metrics.NewAlertMetrics(prometheus.NewRegistry()), log, cfg)
	} else {
		h.svc = NewService(h.repo, nil, h.notifier, h.audit, nil, nil, log, cfg)
	}
	h.svc.policy = h.svc.policy.WithBaseDelay(time.Millisecond)
	return h
}

func TestService_List(t *testing.T) {
	h := newHarness(t, false)
	h.repo.On("ListAlerts", mock.Anything, 40000).Return(fixture(), 11, nil).Once()

	page, err := h.svc.List(context.Background(), ListQuery{
		Criteria: entities.FilterCriteria{AmountFrom: "75"},
		Rules:    []entities.SortRule{},
		Page:     pagination.Pagination{Page: 1, PageSize: 5},
	})
	require.NoError(t, err)

	assert.Equal(t, 8, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasNext)
	assert.Len(t, page.Alerts, 5)
	assert.Equal(t, "AL-3", page.SelectedID)
	require.NotNil(t, page.Counts)
	assert.Equal(t, entities.StatusCounts{Pending: 7, Fraud: 4, Legit: 0}, *page.Counts)

	// without a cache the second query reuses the in-process snapshot
	second, err := h.svc.List(context.Background(), ListQuery{Page: pagination.Pagination{Page: 2}})
	require.NoError(t, err)
	assert.Len(t, second.Alerts, 1)
	h.repo.AssertNumberOfCalls(t, "ListAlerts", 1)
}

func TestService_List_CacheHit(t *testing.T) {
	h := newHarness(t, true)
	h.cache.On("GetSnapshot", mock.Anything).Return(fixture(), true, nil)

	page, err := h.svc.List(context.Background(), ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 11, page.TotalCount)
	assert.Equal(t, 10, page.PageSize)
	h.repo.AssertNotCalled(t, "ListAlerts", mock.Anything, mock.Anything)
}

func TestService_List_CacheMissPopulatesCache(t *testing.T) {
	h := newHarness(t, true)
	h.cache.On("GetSnapshot", mock.Anything).Return(nil, false, nil)
	h.cache.On("SetSnapshot", mock.Anything, mock.Anything).Return(nil)
	h.repo.On("ListAlerts", mock.Anything, 40000).Return(fixture(), 11, nil)

	_, err := h.svc.List(context.Background(), ListQuery{})
	require.NoError(t, err)
	h.cache.AssertCalled(t, "SetSnapshot", mock.Anything, mock.Anything)
}

func TestService_List_CorruptRecord(t *testing.T) {
	h := newHarness(t, false)
	records := fixture()
	records[4].ID = " "
	h.repo.On("ListAlerts", mock.Anything, 40000).Return(records, 11, nil)

	_, err := h.svc.List(context.Background(), ListQuery{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrCorruptRecord))
	assert.True(t, errors.Is(err, entities.ErrMissingAlertID))
}

func TestService_StoreDownServesStaleSnapshot(t *testing.T) {
	h := newHarness(t, false)
	h.repo.On("ListAlerts", mock.Anything, 40000).Return(fixture(), 11, nil).Once()
	h.repo.On("ListAlerts", mock.Anything, 40000).Return(nil, 0, apperrors.ErrServiceUnavailable)

	_, err := h.svc.Stats(context.Background())
	require.NoError(t, err)
	h.svc.config.SnapshotTTL = time.Nanosecond

	stats, err := h.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 11, stats.TotalAlerts)
}

func TestService_StoreDownWithoutSnapshot(t *testing.T) {
	h := newHarness(t, false)
	h.repo.On("ListAlerts", mock.Anything, 40000).Return(nil, 0, apperrors.ErrServiceUnavailable)

	_, err := h.svc.Stats(context.Background())
	require.Error(t, err)
	assert.Equal(t, 503, apperrors.GetStatusCode(err))
}

func TestService_Monthly(t *testing.T) {
	h := newHarness(t, false)
	h.repo.On("ListAlerts", mock.Anything, 40000).Return(fixture(), 11, nil)

	months, err := h.svc.Monthly(context.Background())
	require.NoError(t, err)
	require.Len(t, months, 12)
	assert.Equal(t, "Sep 25", months[11].Label)
	assert.Equal(t, 11, months[11].Count)
}

func TestService_Options(t *testing.T) {
	h := newHarness(t, false)
	opts := h.svc.Options()

	assert.Equal(t, entities.TransactionTypes, opts.TransactionTypes)
	assert.Len(t, opts.Statuses, 3)
	assert.Contains(t, opts.SortAttributes, entities.SortByAmount)
	assert.Equal(t, entities.DefaultSortRules(), opts.DefaultSort)
}

func TestService_Detail(t *testing.T) {
	h := newHarness(t, false)
	h.repo.On("ListAlerts", mock.Anything, 40000).Return(fixture(), 11, nil)

	detail, err := h.svc.Detail(context.Background(), "AL-0")
	require.NoError(t, err)
	assert.Equal(t, "AL-0", detail.Alert.ID)
	assert.Equal(t, "AL-0", detail.Enrichment.AlertID)
	assert.Equal(t, entities.EnrichmentWithdrawal, detail.Enrichment.Category)
	assert.NotNil(t, detail.Enrichment.Withdrawal)
}

func TestService_Detail_Errors(t *testing.T) {
	h := newHarness(t, false)
	h.repo.On("ListAlerts", mock.Anything, 40000).Return(fixture(), 11, nil)
	h.repo.On("GetByID", mock.Anything, "AL-404").Return(nil, apperrors.ErrAlertNotFound.WithDetail("alert_id", "AL-404"))

	_, err := h.svc.Detail(context.Background(), "")
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.GetType(err))

	_, err = h.svc.Detail(context.Background(), "AL-404")
	assert.True(t, errors.Is(err, apperrors.ErrAlertNotFound))
}

func TestService_History(t *testing.T) {
	h := newHarness(t, false)
	records := fixture()
	h.repo.On("ListAlerts", mock.Anything, 40000).Return(records, 11, nil)
	h.repo.On("ListByCIF", mock.Anything, "12345600").Return(records[:10], nil)

	page, err := h.svc.History(context.Background(), "AL-0", entities.PeriodFilter{}, pagination.Pagination{Page: 1, PageSize: 50})
	require.NoError(t, err)
	assert.Equal(t, "12345600", page.CIF)
	assert.Equal(t, 9, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 7)
	assert.Equal(t, "AL-1", page.Items[0].Alert.ID)
	for _, item := range page.Items {
		assert.NotEqual(t, "AL-0", item.Alert.ID)
		assert.Equal(t, item.Alert.ID, item.Enrichment.AlertID)
	}

	week, err := h.svc.History(context.Background(), "AL-0", entities.PeriodFilter{Kind: entities.PeriodLast7Days}, pagination.Pagination{})
	require.NoError(t, err)
	// 14/09 back to 08/09
	assert.Equal(t, 7, week.TotalCount)
}

func TestService_Dispose_RejectsNonFinalStatus(t *testing.T) {
	h := newHarness(t, false)

	_, err := h.svc.Dispose(context.Background(), Disposition{AlertID: "AL-0", Status: entities.AlertStatusPending})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidDisposition))
	h.repo.AssertNotCalled(t, "UpdateDisposition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Dispose_ConfirmedFraud(t *testing.T) {
	h := newHarness(t, true)
	h.cache.On("GetSnapshot", mock.Anything).Return(fixture(), true, nil)
	h.cache.On("InvalidateAlert", mock.Anything, "12345600").Return(nil).Once()
	h.repo.On("UpdateDisposition", mock.Anything, "AL-0", entities.AlertStatusConfirmedFraud, "card skimmed", "analyst-7").Return(nil).Once()
	h.audit.On("LogDisposition", mock.Anything, "AL-0", entities.AlertStatusConfirmedFraud, "card skimmed", "analyst-7", "10.0.0.1").Return(nil).Once()
	h.notifier.On("NotifyFraudConfirmed", mock.Anything, "AL-0", "card skimmed", "analyst-7").Return(nil).Once()

	detail, err := h.svc.Dispose(context.Background(), Disposition{
		AlertID:  "AL-0",
		Status:   entities.AlertStatusConfirmedFraud,
		Feedback: "card skimmed",
		Analyst:  "analyst-7",
		ClientIP: "10.0.0.1",
	})
	require.NoError(t, err)
	assert.Equal(t, entities.AlertStatusConfirmedFraud, detail.Alert.Status)
	assert.Equal(t, "card skimmed", detail.Enrichment.Feedback)

	h.repo.AssertExpectations(t)
	h.cache.AssertExpectations(t)
	h.audit.AssertExpectations(t)
	h.notifier.AssertExpectations(t)
}

func TestService_Dispose_LegitimateSkipsNotification(t *testing.T) {
	h := newHarness(t, false)
	h.repo.On("ListAlerts", mock.Anything, 40000).Return(fixture(), 11, nil)
	h.repo.On("UpdateDisposition", mock.Anything, "AL-2", entities.AlertStatusConfirmedLegitimate, "", "analyst-7").Return(nil)
	h.audit.On("LogDisposition", mock.Anything, "AL-2", entities.AlertStatusConfirmedLegitimate, "", "analyst-7", "").Return(errors.New("audit down"))

	_, err := h.svc.Dispose(context.Background(), Disposition{AlertID: "AL-2", Status: entities.AlertStatusConfirmedLegitimate, Analyst: "analyst-7"})
	require.NoError(t, err)
	h.notifier.AssertNotCalled(t, "NotifyFraudConfirmed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	_, _, loaded := h.svc.SnapshotAge()
	assert.False(t, loaded, "disposition drops the in-process snapshot")
}

func TestService_Dispose_InFlightLoadDoesNotRestoreOldSnapshot(t *testing.T) {
	h := newHarness(t, false)
	disposed := fixture()
	disposed[0].Status = entities.AlertStatusConfirmedLegitimate

	started, release := make(chan struct{}), make(chan struct{})
	h.repo.On("ListAlerts", mock.Anything, 40000).Return(fixture(), 11, nil).Once()
	h.repo.On("ListAlerts", mock.Anything, 40000).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(fixture(), 11, nil).Once()
	h.repo.On("ListAlerts", mock.Anything, 40000).Return(disposed, 11, nil)
	h.repo.On("UpdateDisposition", mock.Anything, "AL-0", entities.AlertStatusConfirmedLegitimate, "", "analyst-7").Return(nil)
	h.audit.On("LogDisposition", mock.Anything, "AL-0", entities.AlertStatusConfirmedLegitimate, "", "analyst-7", "").Return(nil)

	_, err := h.svc.Refresh(context.Background())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := h.svc.Refresh(context.Background())
		done <- err
	}()
	<-started

	_, err = h.svc.Dispose(context.Background(), Disposition{AlertID: "AL-0", Status: entities.AlertStatusConfirmedLegitimate, Analyst: "analyst-7"})
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-done)

	_, _, loaded := h.svc.SnapshotAge()
	assert.False(t, loaded, "load started before the disposition is discarded")

	detail, err := h.svc.Detail(context.Background(), "AL-0")
	require.NoError(t, err)
	assert.Equal(t, entities.AlertStatusConfirmedLegitimate, detail.Alert.Status)
	h.repo.AssertNumberOfCalls(t, "ListAlerts", 3)
}

func TestService_Dispose_InFlightLoadSkipsCacheWrite(t *testing.T) {
	h := newHarness(t, true)
	records := fixture()

	started, release := make(chan struct{}), make(chan struct{})
	h.cache.On("GetSnapshot", mock.Anything).Return(records, true, nil)
	h.cache.On("InvalidateAlert", mock.Anything, "12345600").Return(nil)
	h.repo.On("ListAlerts", mock.Anything, 40000).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(records, 11, nil).Once()
	h.repo.On("UpdateDisposition", mock.Anything, "AL-0", entities.AlertStatusConfirmedLegitimate, "", "analyst-7").Return(nil)
	h.audit.On("LogDisposition", mock.Anything, "AL-0", entities.AlertStatusConfirmedLegitimate, "", "analyst-7", "").Return(nil)

	done := make(chan error, 1)
	go func() {
		_, err := h.svc.Refresh(context.Background())
		done <- err
	}()
	<-started

	_, err := h.svc.Dispose(context.Background(), Disposition{AlertID: "AL-0", Status: entities.AlertStatusConfirmedLegitimate, Analyst: "analyst-7"})
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-done)
	h.cache.AssertNotCalled(t, "SetSnapshot", mock.Anything, mock.Anything)
}

func TestService_Dispose_StoreFailure(t *testing.T) {
	h := newHarness(t, false)
	h.repo.On("ListAlerts", mock.Anything, 40000).Return(fixture(), 11, nil)
	h.repo.On("UpdateDisposition", mock.Anything, "AL-0", entities.AlertStatusConfirmedFraud, "", "").
		Return(apperrors.ErrAlertNotFound)

	_, err := h.svc.Dispose(context.Background(), Disposition{AlertID: "AL-0", Status: entities.AlertStatusConfirmedFraud})
	assert.True(t, errors.Is(err, apperrors.ErrAlertNotFound))
	h.repo.AssertNumberOfCalls(t, "UpdateDisposition", 1)
	h.notifier.AssertNotCalled(t, "NotifyFraudConfirmed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Refresh(t *testing.T) {
	h := newHarness(t, false)
	h.repo.On("ListAlerts", mock.Anything, 40000).Return(fixture(), 12, nil)

	n, err := h.svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 11, n)

	_, size, loaded := h.svc.SnapshotAge()
	assert.True(t, loaded)
	assert.Equal(t, 11, size)
}

func TestService_AuditTrail(t *testing.T) {
	h := newHarness(t, false)
	h.repo.On("ListAlerts", mock.Anything, 40000).Return(fixture(), 11, nil)
	h.audit.On("GetAlertAuditTrail", mock.Anything, "AL-1", 100).Return([]entities.AuditLog{{AlertID: "AL-1"}}, nil)

	logs, err := h.svc.AuditTrail(context.Background(), "AL-1", 0)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}
