package repository

import (
	"context"
	"time"

	"saborpos/internal/model"
	"saborpos/internal/reconcile"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerRepository is the engine's read-only view over the sales ledger.
type LedgerRepository interface {
	// SumByTender aggregates completed orders per tender within [from, to).
	// Only the closed tender set {cash, pix, debit, credit} participates.
	// When acceptedOnly is set, online-channel orders that were never
	// accepted are excluded (per-establishment flag, see model.Establishment).
	SumByTender(ctx context.Context, establishmentID uuid.UUID, from, to time.Time, acceptedOnly bool) (reconcile.Totals, error)
}

type ledgerRepo struct{ db *gorm.DB }

func NewLedgerRepository(db *gorm.DB) LedgerRepository { return &ledgerRepo{db: db} }

func (r *ledgerRepo) SumByTender(ctx context.Context, establishmentID uuid.UUID, from, to time.Time, acceptedOnly bool) (reconcile.Totals, error) {
	var rows []struct {
		Tender string
		Total  decimal.Decimal
	}

	// Narrow, indexed range scan: idx_orders_establishment_created covers
	// (establishment_id, created_at).
	q := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Select("tender, COALESCE(SUM(total), 0) AS total").
		Where("establishment_id = ?", establishmentID).
		Where("status = ?", model.OrderCompleted).
		Where("tender IN ?", model.ReconcilableTenders).
		Where("created_at >= ? AND created_at < ?", from, to)

	if acceptedOnly {
		q = q.Where("channel <> ? OR accepted", model.ChannelOnline)
	}

	if err := q.Group("tender").Scan(&rows).Error; err != nil {
		return reconcile.Totals{}, err
	}

	totals := reconcile.Totals{
		Cash:   decimal.Zero,
		Pix:    decimal.Zero,
		Debit:  decimal.Zero,
		Credit: decimal.Zero,
	}
	for _, row := range rows {
		switch row.Tender {
		case model.TenderCash:
			totals.Cash = row.Total
		case model.TenderPix:
			totals.Pix = row.Total
		case model.TenderDebit:
			totals.Debit = row.Total
		case model.TenderCredit:
			totals.Credit = row.Total
		}
	}
	return totals, nil
}
