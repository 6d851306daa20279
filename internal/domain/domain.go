// Package domain declares the entities shared by the wizard workflows,
// storage layer, and notification senders.
package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role describes the access level of a bot operator.
type Role string

const (
	// RoleAdmin grants access to every workflow including payouts.
	RoleAdmin Role = "admin"
	// RoleStaff grants access to meter reading entry only.
	RoleStaff Role = "staff"
)

// AuditAction identifies the kind of mutation recorded in the audit trail.
type AuditAction string

const (
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
)

// Entity type labels used in audit entries.
const (
	EntityMeterReading = "meter_reading"
	EntityPayout       = "payout_transaction"
)

// Staff is a bot operator resolved from a Telegram user ID.
type Staff struct {
	TelegramID int64  `db:"telegram_id"`
	Name       string `db:"name"`
	Role       Role   `db:"role"`
}

// IsAdmin reports whether the operator may run admin-only workflows.
func (s Staff) IsAdmin() bool { return s.Role == RoleAdmin }

// Property is a metered unit of the shared estate. ChatID, when set, is
// the owner's Telegram chat notified about recorded readings.
type Property struct {
	ID     int64         `db:"id"`
	Name   string        `db:"name"`
	ChatID sql.NullInt64 `db:"chat_id"`
}

// AccountKind distinguishes owner accounts from the organization account.
type AccountKind string

const (
	AccountOwner        AccountKind = "owner"
	AccountOrganization AccountKind = "organization"
)

// Account participates in payout transactions on either side.
// ChatID, when set, is the Telegram chat notified about payouts
// touching the account.
type Account struct {
	ID     int64         `db:"id"`
	Name   string        `db:"name"`
	Kind   AccountKind   `db:"kind"`
	ChatID sql.NullInt64 `db:"chat_id"`
}

// MeterReading is a dated utility meter value for a property.
// Values over a property's history are non-decreasing; the storage
// layer rejects violations at commit time.
type MeterReading struct {
	ID         int64           `db:"id"`
	PropertyID int64           `db:"property_id"`
	Date       time.Time       `db:"reading_date"`
	Value      decimal.Decimal `db:"value"`
	CreatedAt  time.Time       `db:"created_at"`
}

// PayoutTransaction is a confirmed transfer between two accounts.
type PayoutTransaction struct {
	ID            uuid.UUID       `db:"id"`
	FromAccountID int64           `db:"from_account_id"`
	ToAccountID   int64           `db:"to_account_id"`
	Amount        decimal.Decimal `db:"amount"`
	Date          time.Time       `db:"payout_date"`
	Description   string          `db:"description"`
	CreatedAt     time.Time       `db:"created_at"`
}

// AuditEntry records one committed mutation. It is written in the same
// database transaction as the mutation it describes.
type AuditEntry struct {
	ID         uuid.UUID   `db:"id"`
	EntityType string      `db:"entity_type"`
	EntityID   string      `db:"entity_id"`
	Action     AuditAction `db:"action"`
	ActorID    int64       `db:"actor_id"`
	Changes    string      `db:"changes"`
	CreatedAt  time.Time   `db:"created_at"`
}
