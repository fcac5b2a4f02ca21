package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Audited lifecycle actions.
const (
	AuditCashOpen     = "cash.open"
	AuditCashClose    = "cash.close"
	AuditCashValidate = "cash.validate"
)

// AuditEntry is an immutable record of a session lifecycle action.
// Entries reference a session by id only — there is no ownership relation
// back, and no update or delete path exists anywhere in the codebase.
type AuditEntry struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EstablishmentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	SessionID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Action          string          `gorm:"type:varchar(30);not null"`
	ActorID         uuid.UUID       `gorm:"type:uuid;not null"`
	Payload         json.RawMessage `gorm:"type:jsonb"`
	CreatedAt       time.Time
}
