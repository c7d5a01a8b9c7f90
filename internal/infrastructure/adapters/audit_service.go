package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fraud-desk/alert_service/internal/domain/entities"
	apperrors "github.com/fraud-desk/alert_service/pkg/errors"
	"github.com/fraud-desk/alert_service/pkg/signature"
	"github.com/fraud-desk/alert_service/pkg/tracing"
)

// AuditService persists HMAC signed audit entries for alert dispositions
type AuditService struct {
	db     *sqlx.DB
	logger *zap.Logger
	signer *signature.Signer
}

// NewAuditService creates a new audit service
func NewAuditService(db *sqlx.DB, logger *zap.Logger, secretKey string) *AuditService {
	return &AuditService{
		db:     db,
		logger: logger,
		signer: signature.NewSigner(secretKey),
	}
}

// LogDisposition records a status change made by an analyst
func (a *AuditService) LogDisposition(ctx context.Context, alert entities.Alert, status entities.AlertStatus, feedback, actor, ip string) error {
	auditLog := entities.AuditLog{
		ID:           uuid.New(),
		AlertID:      alert.ID,
		Actor:        actor,
		Action:       entities.AuditActionDisposition,
		StatusBefore: string(alert.EffectiveStatus()),
		StatusAfter:  string(status),
		Changes: map[string]interface{}{
			"feedback_before": alert.Feedback,
			"feedback_after":  feedback,
		},
		Amount:    decimal.NewNullDecimal(alert.Amount),
		Currency:  alert.Currency,
		IPAddress: ip,
		CreatedAt: time.Now().UTC(),
	}
	auditLog.Signature = a.generateSignature(auditLog)

	return a.insertAuditLog(ctx, auditLog)
}

// generateSignature signs the identifying fields of an entry
func (a *AuditService) generateSignature(log entities.AuditLog) string {
	return a.signer.Sign(signedFields(log))
}

func signedFields(log entities.AuditLog) []byte {
	return signature.Fields(
		log.AlertID,
		log.Actor,
		string(log.Action),
		log.StatusBefore,
		log.StatusAfter,
		log.Amount.Decimal.String(),
		strconv.FormatInt(log.CreatedAt.Unix(), 10),
	)
}

func (a *AuditService) insertAuditLog(ctx context.Context, log entities.AuditLog) error {
	changesJSON, err := json.Marshal(log.Changes)
	if err != nil {
		return fmt.Errorf("failed to marshal changes: %w", err)
	}

	query := `
		INSERT INTO alert_audit_logs (
			id, alert_id, actor, action, status_before, status_after, changes,
			amount, currency, ip_address, signature, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	err = tracing.TraceQuery(ctx, tracing.DBSpanConfig{Operation: "INSERT", Table: "alert_audit_logs"},
		func(ctx context.Context) error {
			_, err := a.db.ExecContext(ctx, query,
				log.ID, log.AlertID, log.Actor, log.Action, log.StatusBefore, log.StatusAfter,
				changesJSON, log.Amount, log.Currency, log.IPAddress, log.Signature, log.CreatedAt,
			)
			return err
		})
	if err != nil {
		a.logger.Error("Failed to insert audit log",
			zap.Error(err),
			zap.String("alert_id", log.AlertID),
			zap.String("action", string(log.Action)),
		)
		return apperrors.WrapClassified(err, "failed to insert audit log")
	}

	a.logger.Info("Audit event logged",
		zap.String("id", log.ID.String()),
		zap.String("alert_id", log.AlertID),
		zap.String("status", log.StatusAfter),
	)
	return nil
}

// VerifyLogIntegrity verifies the HMAC signature of an audit log
func (a *AuditService) VerifyLogIntegrity(log entities.AuditLog) bool {
	return a.signer.Verify(signedFields(log), log.Signature) == nil
}

// GetAlertAuditTrail returns the newest entries recorded for an alert
func (a *AuditService) GetAlertAuditTrail(ctx context.Context, alertID string, limit int) ([]entities.AuditLog, error) {
	query := `
		SELECT id, alert_id, actor, action, COALESCE(status_before, '') AS status_before,
			COALESCE(status_after, '') AS status_after, changes, amount,
			COALESCE(currency, '') AS currency, COALESCE(ip_address, '') AS ip_address,
			signature, created_at
		FROM alert_audit_logs
		WHERE alert_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	var logs []entities.AuditLog
	err := tracing.TraceQuery(ctx, tracing.DBSpanConfig{Operation: "SELECT", Table: "alert_audit_logs"},
		func(ctx context.Context) error {
			return a.db.SelectContext(ctx, &logs, query, alertID, limit)
		})
	if err != nil {
		return nil, apperrors.WrapClassified(err, "failed to query audit trail")
	}

	for i := range logs {
		if len(logs[i].ChangesJSON) == 0 {
			continue
		}
		if err := json.Unmarshal(logs[i].ChangesJSON, &logs[i].Changes); err != nil {
			a.logger.Warn("Failed to unmarshal audit changes", zap.Error(err))
		}
	}
	return logs, nil
}
