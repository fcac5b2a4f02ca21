package repository

import (
	"context"

	"saborpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditRepository appends immutable lifecycle audit entries.
// Append is the only mutation exposed — entries are never updated or deleted.
type AuditRepository interface {
	Append(ctx context.Context, tx *gorm.DB, e *model.AuditEntry) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.AuditEntry, error)
}

type auditRepo struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) AuditRepository { return &auditRepo{db: db} }

func (r *auditRepo) Append(ctx context.Context, tx *gorm.DB, e *model.AuditEntry) error {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	return conn.WithContext(ctx).Create(e).Error
}

func (r *auditRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.AuditEntry, error) {
	var entries []model.AuditEntry
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}
