package postgres

import (
	"context"

	"github.com/CHEzRIF21/logiclinic/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClinicRepository struct {
	db *gorm.DB
}

func NewClinicRepository(db *gorm.DB) *ClinicRepository {
	return &ClinicRepository{db: db}
}

func (r *ClinicRepository) Create(ctx context.Context, c *domain.Clinic) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ClinicRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Clinic, error) {
	var c domain.Clinic
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}
