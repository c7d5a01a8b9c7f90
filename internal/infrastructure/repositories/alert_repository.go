package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/fraud-desk/alert_service/internal/domain/entities"
	"github.com/fraud-desk/alert_service/internal/infrastructure/database"
	apperrors "github.com/fraud-desk/alert_service/pkg/errors"
	"github.com/fraud-desk/alert_service/pkg/tracing"
)

// alertSelect projects one alert joined with its transaction, account and
// customer. Dates are rendered DD/MM/YYYY and times HH:MM:SS.
const alertSelect = `
	SELECT
		a.id,
		a.source,
		COALESCE(a.status, '') AS status,
		COALESCE(a.feedback, '') AS feedback,
		COALESCE(to_char(a.alert_date, 'DD/MM/YYYY'), '') AS alert_date,
		t.trn_code,
		COALESCE(to_char(t.trn_date, 'DD/MM/YYYY'), '') AS date,
		COALESCE(to_char(t.trn_time, 'HH24:MI:SS'), '') AS time,
		t.type,
		t.amount,
		t.currency,
		t.country,
		COALESCE(t.channel, '') AS channel,
		COALESCE(t.merchant_name, '') AS merchant_name,
		COALESCE(t.merchant_type, '') AS merchant_type,
		COALESCE(t.pos_number, '') AS pos_number,
		COALESCE(t.atm_number, '') AS atm_number,
		COALESCE(t.website_url, '') AS website_url,
		acc.account_no,
		acc.account_type,
		c.name AS customer_name,
		c.cif,
		COALESCE(c.segment, '') AS segment,
		COALESCE(c.gender, '') AS gender,
		COALESCE(to_char(c.dob, 'DD/MM/YYYY'), '') AS dob,
		COALESCE(c.nationality, '') AS nationality,
		COALESCE(to_char(c.member_since, 'DD/MM/YYYY'), '') AS member_since,
		COALESCE(c.mobile, '') AS mobile,
		COALESCE(c.branch, '') AS branch
	FROM alerts a
	JOIN transactions t ON t.trn_code = a.trn_code
	JOIN accounts acc ON acc.account_no = t.account_no
	JOIN customers c ON c.cif = acc.cif`

// AlertRepository reads joined alert records and persists dispositions
type AlertRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *sqlx.DB, logger *zap.Logger) *AlertRepository {
	return &AlertRepository{
		db:     db,
		logger: logger,
	}
}

// ListAlerts returns up to limit alerts in insertion order along with the
// number of alerts stored
func (r *AlertRepository) ListAlerts(ctx context.Context, limit int) ([]entities.Alert, int, error) {
	query, args := database.NewQueryBuilder(alertSelect).
		OrderBy("a.created_at, a.id").
		Limit(limit).
		Build()

	var alerts []entities.Alert
	err := tracing.TraceQuery(ctx, tracing.DBSpanConfig{Operation: "SELECT", Table: "alerts", Query: query, IncludeQuery: true},
		func(ctx context.Context) error {
			return database.Timed(ctx, r.logger, "list_alerts", func(ctx context.Context) error {
				return r.db.SelectContext(ctx, &alerts, query, args...)
			})
		})
	if err != nil {
		r.logger.Error("failed to list alerts", zap.Error(err), zap.Int("limit", limit))
		return nil, 0, apperrors.WrapClassified(err, "failed to list alerts")
	}

	total := len(alerts)
	if limit > 0 && total == limit {
		err = tracing.TraceQuery(ctx, tracing.DBSpanConfig{Operation: "SELECT", Table: "alerts"},
			func(ctx context.Context) error {
				return r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM alerts")
			})
		if err != nil {
			r.logger.Error("failed to count alerts", zap.Error(err))
			return nil, 0, apperrors.WrapClassified(err, "failed to count alerts")
		}
	}

	r.logger.Debug("alerts loaded", zap.Int("count", len(alerts)), zap.Int("total", total))
	return alerts, total, nil
}

// GetByID retrieves a single alert
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*entities.Alert, error) {
	query, args := database.NewQueryBuilder(alertSelect).Where("a.id = ?", id).Build()

	var alert entities.Alert
	err := tracing.TraceQuery(ctx, tracing.DBSpanConfig{Operation: "SELECT", Table: "alerts"},
		func(ctx context.Context) error {
			return r.db.GetContext(ctx, &alert, query, args...)
		})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrAlertNotFound.WithDetail("alert_id", id)
		}
		r.logger.Error("failed to get alert", zap.Error(err), zap.String("alert_id", id))
		return nil, apperrors.WrapClassified(err, "failed to get alert")
	}

	return &alert, nil
}

// ListByCIF retrieves every alert raised for one customer
func (r *AlertRepository) ListByCIF(ctx context.Context, cif string) ([]entities.Alert, error) {
	query, args := database.NewQueryBuilder(alertSelect).
		Where("c.cif = ?", cif).
		OrderBy("a.created_at, a.id").
		Build()

	var alerts []entities.Alert
	err := tracing.TraceQuery(ctx, tracing.DBSpanConfig{Operation: "SELECT", Table: "alerts"},
		func(ctx context.Context) error {
			return r.db.SelectContext(ctx, &alerts, query, args...)
		})
	if err != nil {
		r.logger.Error("failed to list customer alerts", zap.Error(err), zap.String("cif", cif))
		return nil, apperrors.WrapClassified(err, "failed to list customer alerts")
	}

	return alerts, nil
}

// UpdateDisposition records the analyst verdict on an alert
func (r *AlertRepository) UpdateDisposition(ctx context.Context, id string, status entities.AlertStatus, feedback, analyst string) error {
	query := `
		UPDATE alerts
		SET status = $2, feedback = $3, disposed_by = $4, disposed_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`

	var affected int64
	err := tracing.TraceQuery(ctx, tracing.DBSpanConfig{Operation: "UPDATE", Table: "alerts"},
		func(ctx context.Context) error {
			result, err := r.db.ExecContext(ctx, query, id, string(status), feedback, analyst)
			if err != nil {
				return err
			}
			affected, err = result.RowsAffected()
			return err
		})
	if err != nil {
		r.logger.Error("failed to update alert disposition",
			zap.Error(err),
			zap.String("alert_id", id),
			zap.String("status", string(status)),
		)
		return apperrors.WrapClassified(err, fmt.Sprintf("failed to update alert %s", id))
	}

	if affected == 0 {
		return apperrors.ErrAlertNotFound.WithDetail("alert_id", id)
	}

	r.logger.Info("alert disposition updated",
		zap.String("alert_id", id),
		zap.String("status", string(status)),
		zap.String("analyst", analyst),
	)
	return nil
}
