package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashSession status values. "closed" is terminal.
const (
	SessionOpen          = "open"
	SessionPendingReview = "pending_review"
	SessionClosed        = "closed"
)

// CashMovement kinds (sangria / suprimento).
const (
	MovementWithdrawal = "withdrawal"
	MovementDeposit    = "deposit"
)

// CashSession represents one cash drawer shift for one establishment.
// Lifecycle: open → pending_review → closed (attendant flow) or
// open → closed (manager flow).
//
// At most one session per establishment may be "open" at a time — enforced by
// a partial unique index on (establishment_id) WHERE status = 'open', so Open
// is an atomic conditional insert, never a check-then-insert.
type CashSession struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EstablishmentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	OpenedBy        uuid.UUID       `gorm:"type:uuid;not null"`
	OpeningFloat    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	OpeningNote     *string

	// Expected* are frozen at close time — a snapshot of the ledger at that
	// moment, never recomputed afterward. NULL while the session is open.
	ExpectedCash   *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ExpectedPix    *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ExpectedDebit  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ExpectedCredit *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ExpectedTotal  *decimal.Decimal `gorm:"type:decimal(12,2)"`

	// Counted* are the operator's physical count. NULL while open, and NULL
	// forever on manager-flow closes (no human count happened).
	CountedCash   *decimal.Decimal `gorm:"type:decimal(12,2)"`
	CountedPix    *decimal.Decimal `gorm:"type:decimal(12,2)"`
	CountedDebit  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	CountedCredit *decimal.Decimal `gorm:"type:decimal(12,2)"`

	// Difference = sum(counted) − expected_total.
	Difference     *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ClosingNote    *string
	ValidationNote *string

	Status string `gorm:"type:varchar(20);not null;default:'open'"`
	// AttendantFlow marks sessions closed by a non-elevated actor; these stop
	// at pending_review until a manager validates them.
	AttendantFlow bool `gorm:"not null;default:false"`

	OpenedAt    time.Time
	ClosedAt    *time.Time
	ClosedBy    *uuid.UUID `gorm:"type:uuid"`
	ValidatedAt *time.Time
	ValidatedBy *uuid.UUID `gorm:"type:uuid"`

	Movements []CashMovement `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

// CashMovement is a manual cash adjustment recorded while the owning session
// is open. Movements are NEVER modified or deleted — a mis-entered movement is
// corrected by an offsetting movement of the opposite kind.
type CashMovement struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	Kind        string          `gorm:"type:varchar(20);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description *string
	ActorID     uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt   time.Time
}
