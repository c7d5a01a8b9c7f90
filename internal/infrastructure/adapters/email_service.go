package adapters

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/fraud-desk/alert_service/internal/domain/entities"
	apperrors "github.com/fraud-desk/alert_service/pkg/errors"
	"github.com/fraud-desk/alert_service/pkg/metrics"
	"github.com/fraud-desk/alert_service/pkg/retry"
)

// EmailServiceConfig holds email service configuration
type EmailServiceConfig struct {
	APIKey        string
	FromEmail     string
	FromName      string
	FraudOpsEmail string
	Environment   string // "development", "staging", "production"
}

type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// EmailService sends fraud-ops notifications through SendGrid. Without an API
// key, or in development, messages are only logged.
type EmailService struct {
	logger   *zap.Logger
	config   EmailServiceConfig
	client   mailSender
	policy   retry.Policy
	mockMode bool
}

// NewEmailService creates a new email service
func NewEmailService(logger *zap.Logger, config EmailServiceConfig) *EmailService {
	mockMode := config.Environment == "development" || config.APIKey == ""

	var client mailSender
	if !mockMode {
		client = sendgrid.NewSendClient(config.APIKey)
	}

	return &EmailService{
		logger:   logger,
		config:   config,
		client:   client,
		policy:   retry.PolicyNotification,
		mockMode: mockMode,
	}
}

// sendEmail delivers one message, retrying 5xx and transport failures
func (e *EmailService) sendEmail(ctx context.Context, to, subject, htmlContent, textContent string) error {
	if e.mockMode {
		e.logger.Info("Email sent successfully (MOCK)",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.String("content_preview", textContent[:min(100, len(textContent))]+"..."))
		return nil
	}

	from := mail.NewEmail(e.config.FromName, e.config.FromEmail)
	message := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), textContent, htmlContent)

	return retry.Do(ctx, e.policy, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		response, err := e.client.SendWithContext(ctx, message)
		if err != nil {
			metrics.RecordExternalAPICall("sendgrid", "mail_send", "error")
			e.logger.Error("Failed to send email", zap.String("to", to), zap.Error(err))
			return apperrors.WrapExternal(err, "sendgrid", "failed to send email")
		}

		metrics.RecordExternalAPICall("sendgrid", "mail_send", strconv.Itoa(response.StatusCode))
		switch {
		case response.StatusCode >= 500 || response.StatusCode == 429:
			e.logger.Warn("Email service unavailable",
				zap.Int("status_code", response.StatusCode),
				zap.String("response_body", response.Body))
			return apperrors.ErrExternalService.WithDetail("status", strconv.Itoa(response.StatusCode))
		case response.StatusCode >= 400:
			e.logger.Error("Email service rejected message",
				zap.String("to", to),
				zap.Int("status_code", response.StatusCode),
				zap.String("response_body", response.Body))
			return apperrors.WrapValidation(
				fmt.Errorf("email service error: status %d, body: %s", response.StatusCode, response.Body),
				"email rejected")
		}

		e.logger.Info("Email sent successfully",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Int("status_code", response.StatusCode))
		return nil
	})
}

// NotifyFraudConfirmed tells the fraud-ops mailbox that an analyst confirmed fraud on an alert
func (e *EmailService) NotifyFraudConfirmed(ctx context.Context, alert entities.Alert, feedback, analyst string) error {
	if e.config.FraudOpsEmail == "" {
		e.logger.Debug("fraud ops mailbox not configured, skipping notification", zap.String("alert_id", alert.ID))
		return nil
	}

	subject := fmt.Sprintf("Confirmed fraud: alert %s (CIF %s)", alert.ID, alert.CIF)
	amount := alert.Amount.StringFixed(2) + " " + alert.Currency

	textContent := fmt.Sprintf(`Alert %s was confirmed as fraud by %s.

Customer:    %s (CIF %s)
Account:     %s
Transaction: %s %s, %s on %s %s
Source:      %s
Feedback:    %s
`,
		alert.ID, analyst,
		alert.CustomerName, alert.CIF,
		alert.AccountNo,
		alert.TrnCode, alert.Type, amount, alert.Date, alert.Time,
		alert.Source.Label(),
		feedback,
	)

	htmlContent := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
	<h2 style="color: #b00020;">Confirmed fraud: alert %s</h2>
	<p>Confirmed by <strong>%s</strong>.</p>
	<table style="border-collapse: collapse;">
		<tr><td>Customer</td><td>%s (CIF %s)</td></tr>
		<tr><td>Account</td><td>%s</td></tr>
		<tr><td>Transaction</td><td>%s %s, %s on %s %s</td></tr>
		<tr><td>Source</td><td>%s</td></tr>
		<tr><td>Feedback</td><td>%s</td></tr>
	</table>
</body>
</html>`,
		html.EscapeString(alert.ID), html.EscapeString(analyst),
		html.EscapeString(alert.CustomerName), html.EscapeString(alert.CIF),
		html.EscapeString(alert.AccountNo),
		html.EscapeString(alert.TrnCode), html.EscapeString(alert.Type), html.EscapeString(amount),
		html.EscapeString(alert.Date), html.EscapeString(alert.Time),
		html.EscapeString(alert.Source.Label()),
		html.EscapeString(feedback),
	)

	return e.sendEmail(ctx, e.config.FraudOpsEmail, subject, htmlContent, textContent)
}
