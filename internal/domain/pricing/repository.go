package pricing

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateService(ctx context.Context, svc *BillableService) error
	GetService(ctx context.Context, id uuid.UUID) (*BillableService, error)
	GetServiceByCode(ctx context.Context, code string) (*BillableService, error)
	ListServices(ctx context.Context, typeService string, activeOnly bool) ([]BillableService, error)

	// GetClinicPricing returns the active per-clinic override for a
	// service, or nil when the clinic has none.
	GetClinicPricing(ctx context.Context, clinicID, serviceID uuid.UUID) (*ClinicPricing, error)
	UpsertClinicPricing(ctx context.Context, p *ClinicPricing) error
	ListClinicPricing(ctx context.Context, clinicID uuid.UUID) ([]ClinicPricing, error)
}
