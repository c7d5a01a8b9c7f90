package repositories

import (
	"context"

	"github.com/fraud-desk/alert_service/internal/domain/entities"
)

// AlertRepository defines the interface for alert persistence
type AlertRepository interface {
	// ListAlerts returns up to limit joined alert records and the total stored
	ListAlerts(ctx context.Context, limit int) ([]entities.Alert, int, error)
	GetByID(ctx context.Context, id string) (*entities.Alert, error)
	ListByCIF(ctx context.Context, cif string) ([]entities.Alert, error)
	UpdateDisposition(ctx context.Context, id string, status entities.AlertStatus, feedback, analyst string) error
}

// AlertCache stores the full alert record set and per-customer alert lists
// between loads. A miss is reported with ok=false and a nil error.
type AlertCache interface {
	GetSnapshot(ctx context.Context) (alerts []entities.Alert, ok bool, err error)
	SetSnapshot(ctx context.Context, alerts []entities.Alert) error
	GetCustomer(ctx context.Context, cif string) (alerts []entities.Alert, ok bool, err error)
	SetCustomer(ctx context.Context, cif string, alerts []entities.Alert) error
	// InvalidateAlert drops every entry that contains alerts of the customer
	InvalidateAlert(ctx context.Context, cif string) error
}
