package repository

import (
	"context"
	"errors"

	"saborpos/internal/model"
	"saborpos/internal/reconcile"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CashRepository interface {
	// Transaction runs fn inside a database transaction; every write of one
	// lifecycle transition (session row + audit entry) goes through here so
	// partial state is never persisted.
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error

	CreateSession(ctx context.Context, tx *gorm.DB, s *model.CashSession) error
	FindSessionByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error)
	// FindSessionForUpdate locks the session row (SELECT ... FOR UPDATE) so
	// concurrent close/validate attempts serialize instead of double-writing.
	FindSessionForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CashSession, error)
	// FindOpenSession is the keyed lookup establishment → open session.
	// Returns (nil, nil) when no session is open.
	FindOpenSession(ctx context.Context, establishmentID uuid.UUID) (*model.CashSession, error)
	UpdateSession(ctx context.Context, tx *gorm.DB, s *model.CashSession) error

	CreateMovement(ctx context.Context, m *model.CashMovement) error
	ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error)
	SumMovements(ctx context.Context, sessionID uuid.UUID) (reconcile.MovementSums, error)

	ListSessions(ctx context.Context, establishmentID uuid.UUID, page, limit int) ([]model.CashSession, int64, error)
}

type cashRepo struct{ db *gorm.DB }

func NewCashRepository(db *gorm.DB) CashRepository { return &cashRepo{db: db} }

// conn returns the transaction handle when one is active, else the pool.
func (r *cashRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *cashRepo) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *cashRepo) CreateSession(ctx context.Context, tx *gorm.DB, s *model.CashSession) error {
	// Uniqueness of the open session rides on the partial unique index
	// uniq_cash_sessions_open; a violation surfaces as gorm.ErrDuplicatedKey.
	return r.conn(tx).WithContext(ctx).Create(s).Error
}

func (r *cashRepo) FindSessionByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cashRepo) FindSessionForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.conn(tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cashRepo) FindOpenSession(ctx context.Context, establishmentID uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).
		Where("establishment_id = ? AND status = ?", establishmentID, model.SessionOpen).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cashRepo) UpdateSession(ctx context.Context, tx *gorm.DB, s *model.CashSession) error {
	return r.conn(tx).WithContext(ctx).Save(s).Error
}

func (r *cashRepo) CreateMovement(ctx context.Context, m *model.CashMovement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *cashRepo) ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&movs).Error
	return movs, err
}

func (r *cashRepo) SumMovements(ctx context.Context, sessionID uuid.UUID) (reconcile.MovementSums, error) {
	var rows []struct {
		Kind  string
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&model.CashMovement{}).
		Select("kind, COALESCE(SUM(amount), 0) AS total").
		Where("session_id = ?", sessionID).
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return reconcile.MovementSums{}, err
	}

	sums := reconcile.MovementSums{Deposits: decimal.Zero, Withdrawals: decimal.Zero}
	for _, row := range rows {
		switch row.Kind {
		case model.MovementDeposit:
			sums.Deposits = row.Total
		case model.MovementWithdrawal:
			sums.Withdrawals = row.Total
		}
	}
	return sums, nil
}

func (r *cashRepo) ListSessions(ctx context.Context, establishmentID uuid.UUID, page, limit int) ([]model.CashSession, int64, error) {
	var sessions []model.CashSession
	var total int64
	offset := (page - 1) * limit

	// History covers past sessions only; the live one is served by FindOpenSession.
	q := r.db.WithContext(ctx).
		Model(&model.CashSession{}).
		Where("establishment_id = ? AND status <> ?", establishmentID, model.SessionOpen)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("opened_at DESC").Offset(offset).Limit(limit).Find(&sessions).Error
	return sessions, total, err
}
