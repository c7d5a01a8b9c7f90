package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AuditAction string

const (
	AuditActionDisposition AuditAction = "alert.disposition"
)

// AuditLog is a signed entry of an alert's audit trail
type AuditLog struct {
	ID           uuid.UUID              `json:"id" db:"id"`
	AlertID      string                 `json:"alert_id" db:"alert_id"`
	Actor        string                 `json:"actor" db:"actor"`
	Action       AuditAction            `json:"action" db:"action"`
	StatusBefore string                 `json:"status_before" db:"status_before"`
	StatusAfter  string                 `json:"status_after" db:"status_after"`
	Changes      map[string]interface{} `json:"changes,omitempty" db:"-"`
	ChangesJSON  []byte                 `json:"-" db:"changes"`
	Amount       decimal.NullDecimal    `json:"amount" db:"amount"`
	Currency     string                 `json:"currency" db:"currency"`
	IPAddress    string                 `json:"ip_address,omitempty" db:"ip_address"`
	Signature    string                 `json:"signature" db:"signature"`
	CreatedAt    time.Time              `json:"created_at" db:"created_at"`
}
