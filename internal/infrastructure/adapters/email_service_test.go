package adapters

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fraud-desk/alert_service/internal/domain/entities"
	apperrors "github.com/fraud-desk/alert_service/pkg/errors"
)

type fakeSender struct {
	responses []*rest.Response
	errs      []error
	sent      []*mail.SGMailV3
}

func (f *fakeSender) SendWithContext(_ context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	i := len(f.sent)
	f.sent = append(f.sent, email)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return nil, err
	}
	return f.responses[i], nil
}

func newTestEmailService(t *testing.T, sender *fakeSender) *EmailService {
	svc := NewEmailService(zaptest.NewLogger(t), EmailServiceConfig{
		APIKey:        "SG.test",
		FromEmail:     "alerts@bank.example",
		FromName:      "Fraud Alerts",
		FraudOpsEmail: "fraud-ops@bank.example",
		Environment:   "production",
	})
	svc.client = sender
	svc.policy = svc.policy.WithBaseDelay(time.Millisecond)
	return svc
}

func fraudAlert() entities.Alert {
	return entities.Alert{
		ID:           "AL-0",
		CIF:          "12345600",
		CustomerName: "Omar <Haddad>",
		Source:       entities.AlertSourceAI,
		Type:         entities.TransactionTypeCashWithdrawal,
		Amount:       decimal.RequireFromString("120.5"),
		Currency:     "JOD",
	}
}

func TestEmailService_NotifyFraudConfirmed(t *testing.T) {
	sender := &fakeSender{responses: []*rest.Response{{StatusCode: 202}}}
	svc := newTestEmailService(t, sender)

	err := svc.NotifyFraudConfirmed(context.Background(), fraudAlert(), "card skimmed", "analyst-7")
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "Confirmed fraud: alert AL-0 (CIF 12345600)", msg.Subject)
	assert.Equal(t, "fraud-ops@bank.example", msg.Personalizations[0].To[0].Address)

	var htmlBody string
	for _, c := range msg.Content {
		if c.Type == "text/html" {
			htmlBody = c.Value
		}
	}
	assert.True(t, strings.Contains(htmlBody, "Omar &lt;Haddad&gt;"))
	assert.True(t, strings.Contains(htmlBody, "120.50 JOD"))
}

func TestEmailService_RetriesServerErrors(t *testing.T) {
	sender := &fakeSender{responses: []*rest.Response{{StatusCode: 503}, {StatusCode: 202}}}
	svc := newTestEmailService(t, sender)

	err := svc.NotifyFraudConfirmed(context.Background(), fraudAlert(), "", "analyst-7")
	require.NoError(t, err)
	assert.Len(t, sender.sent, 2)
}

func TestEmailService_DoesNotRetryRejection(t *testing.T) {
	sender := &fakeSender{responses: []*rest.Response{{StatusCode: 400, Body: "bad from"}}}
	svc := newTestEmailService(t, sender)

	err := svc.NotifyFraudConfirmed(context.Background(), fraudAlert(), "", "analyst-7")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.GetType(err))
	assert.Len(t, sender.sent, 1)
}

func TestEmailService_TransportErrorIsRetried(t *testing.T) {
	sender := &fakeSender{
		errs:      []error{errors.New("connection reset by peer"), nil},
		responses: []*rest.Response{nil, {StatusCode: 202}},
	}
	svc := newTestEmailService(t, sender)

	require.NoError(t, svc.NotifyFraudConfirmed(context.Background(), fraudAlert(), "", "analyst-7"))
	assert.Len(t, sender.sent, 2)
}

func TestEmailService_MockMode(t *testing.T) {
	svc := NewEmailService(zaptest.NewLogger(t), EmailServiceConfig{FraudOpsEmail: "fraud-ops@bank.example"})
	assert.True(t, svc.mockMode)
	assert.NoError(t, svc.NotifyFraudConfirmed(context.Background(), fraudAlert(), "", "analyst-7"))
}
