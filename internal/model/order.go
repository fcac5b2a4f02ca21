package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tenders in the reconciliation set. Orders paid with anything else (meal
// vouchers, courtesy, etc.) are excluded from drawer reconciliation, not from
// revenue reporting.
const (
	TenderCash   = "cash"
	TenderPix    = "pix"
	TenderDebit  = "debit"
	TenderCredit = "credit"
)

// Order status values relevant to the ledger.
const (
	OrderCompleted = "completed"
	OrderCanceled  = "canceled"
)

// Order channels.
const (
	ChannelPOS    = "pos"
	ChannelOnline = "online"
)

// ReconcilableTenders is the closed tender set summed by the ledger reader.
var ReconcilableTenders = []string{TenderCash, TenderPix, TenderDebit, TenderCredit}

// Order is a row of the sales ledger. The reconciliation engine only ever
// READS this table (aggregated sums); order management lives elsewhere.
type Order struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EstablishmentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Tender          string          `gorm:"type:varchar(20);not null"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status          string          `gorm:"type:varchar(20);not null;default:'completed'"`
	Channel         string          `gorm:"type:varchar(10);not null;default:'pos'"`
	// Accepted is only meaningful for online-channel orders; POS orders are
	// accepted by construction.
	Accepted  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"index"`
}
