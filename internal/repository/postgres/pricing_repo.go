package postgres

import (
	"context"
	"errors"

	"github.com/CHEzRIF21/logiclinic/internal/domain/pricing"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PricingRepository struct {
	db *gorm.DB
}

func NewPricingRepository(db *gorm.DB) *PricingRepository {
	return &PricingRepository{db: db}
}

func (r *PricingRepository) CreateService(ctx context.Context, svc *pricing.BillableService) error {
	return r.db.WithContext(ctx).Create(svc).Error
}

func (r *PricingRepository) GetService(ctx context.Context, id uuid.UUID) (*pricing.BillableService, error) {
	var svc pricing.BillableService
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&svc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pricing.ErrServiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *PricingRepository) GetServiceByCode(ctx context.Context, code string) (*pricing.BillableService, error) {
	var svc pricing.BillableService
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&svc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pricing.ErrServiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *PricingRepository) ListServices(ctx context.Context, typeService string, activeOnly bool) ([]pricing.BillableService, error) {
	tx := r.db.WithContext(ctx).Model(&pricing.BillableService{})
	if typeService != "" {
		tx = tx.Where("type_service = ?", typeService)
	}
	if activeOnly {
		tx = tx.Where("actif = true")
	}

	var services []pricing.BillableService
	if err := tx.Order("code ASC").Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

func (r *PricingRepository) GetClinicPricing(ctx context.Context, clinicID, serviceID uuid.UUID) (*pricing.ClinicPricing, error) {
	var p pricing.ClinicPricing
	err := r.db.WithContext(ctx).
		Where("clinic_id = ? AND service_id = ? AND active = true", clinicID, serviceID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PricingRepository) UpsertClinicPricing(ctx context.Context, p *pricing.ClinicPricing) error {
	var existing pricing.ClinicPricing
	err := r.db.WithContext(ctx).
		Where("clinic_id = ? AND service_id = ?", p.ClinicID, p.ServiceID).
		First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return r.db.WithContext(ctx).Create(p).Error
	case err != nil:
		return err
	}

	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *PricingRepository) ListClinicPricing(ctx context.Context, clinicID uuid.UUID) ([]pricing.ClinicPricing, error) {
	var rows []pricing.ClinicPricing
	err := r.db.WithContext(ctx).
		Where("clinic_id = ?", clinicID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
