package model

import (
	"time"

	"github.com/google/uuid"
)

// Establishment is the tenant record. Each cash session, order and user
// belongs to exactly one establishment.
type Establishment struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name string    `gorm:"not null"`
	// ReportEmail receives the closing report after every session close.
	ReportEmail *string
	// ReconcileAcceptedOnly excludes online-channel orders that were never
	// accepted from expected totals. This is a per-tenant business exception
	// inherited from production — confirm with the establishment owner before
	// enabling it for a new tenant.
	ReconcileAcceptedOnly bool `gorm:"not null;default:false"`
	Active                bool `gorm:"not null;default:true"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
