package wizard

import (
	"time"

	"github.com/shopspring/decimal"

	"condobot/internal/domain"
)

// Kind selects which wizard a session belongs to.
type Kind string

const (
	// KindMeterReading is the meter reading entry wizard.
	KindMeterReading Kind = "meter_reading"
	// KindPayout is the inter-account payout wizard.
	KindPayout Kind = "payout"
)

// Step identifies one stage of a wizard's state machine. Step values are
// declared by the workflow packages; the engine treats them as opaque.
type Step string

// Action is the meter-reading branch chosen at action selection.
type Action string

const (
	ActionNew    Action = "new"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Key addresses one session. The same operator gets independent sessions
// in different chats.
type Key struct {
	ChatID int64
	UserID int64
}

// Session holds the in-progress state of one wizard run. It lives only in
// memory between the entry command and the terminal step; nothing here is
// ever persisted.
type Session struct {
	Kind Kind
	Step Step

	ActorID   int64
	ActorRole domain.Role

	// Meter reading wizard.
	PropertyID   int64
	PropertyName string
	Action       Action
	ReadingID    int64

	// Payout wizard.
	FromAccountID   int64
	FromAccountName string
	ToAccountID     int64
	ToAccountName   string

	// Entered fields.
	Date        time.Time
	Value       decimal.Decimal
	Amount      decimal.Decimal
	Description string

	// Baseline is the previous reading value the entered value is validated
	// against. Nil means the property has no usable prior reading.
	Baseline     *decimal.Decimal
	BaselineDate time.Time

	// SuggestedAmount is the system-computed payout hint. Display only,
	// never enforced.
	SuggestedAmount *decimal.Decimal
	// SuggestedValue pre-fills the value prompt: the property's previous
	// value for new readings, the current value when editing.
	SuggestedValue *decimal.Decimal
	// SuggestedDate pre-fills date prompts with the most recent reading date.
	SuggestedDate time.Time

	touched time.Time
}

// ResetEntry clears the operation-specific fields while keeping the actor
// identity, so the meter wizard can loop back to property selection after a
// successful commit.
func (s *Session) ResetEntry() {
	s.PropertyID = 0
	s.PropertyName = ""
	s.Action = ""
	s.ReadingID = 0
	s.FromAccountID = 0
	s.FromAccountName = ""
	s.ToAccountID = 0
	s.ToAccountName = ""
	s.Date = time.Time{}
	s.Value = decimal.Decimal{}
	s.Amount = decimal.Decimal{}
	s.Description = ""
	s.Baseline = nil
	s.BaselineDate = time.Time{}
	s.SuggestedAmount = nil
	s.SuggestedValue = nil
	s.SuggestedDate = time.Time{}
}
