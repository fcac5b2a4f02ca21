package repository

import (
	"context"

	"saborpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EstablishmentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Establishment, error)
}

type establishmentRepo struct{ db *gorm.DB }

func NewEstablishmentRepository(db *gorm.DB) EstablishmentRepository {
	return &establishmentRepo{db: db}
}

func (r *establishmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Establishment, error) {
	var e model.Establishment
	err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}
