package service

import (
	"context"
	"strings"

	"github.com/CHEzRIF21/logiclinic/internal/domain/pricing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PricingService struct {
	repo pricing.Repository
	log  *zap.Logger
}

func NewPricingService(repo pricing.Repository, log *zap.Logger) *PricingService {
	return &PricingService{repo: repo, log: log}
}

// Resolve returns the tariff to charge a clinic for a service: the
// clinic's own active override when one exists, the catalogue default
// otherwise.
func (s *PricingService) Resolve(ctx context.Context, clinicID, serviceID uuid.UUID) (*pricing.Resolved, error) {
	svc, err := s.repo.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if !svc.Actif {
		return nil, pricing.ErrServiceInactive
	}

	override, err := s.repo.GetClinicPricing(ctx, clinicID, serviceID)
	if err != nil {
		return nil, err
	}
	if override != nil {
		unite := override.Unite
		if unite == "" {
			unite = svc.Unite
		}
		return &pricing.Resolved{
			Tarif:  override.TarifBase,
			Source: pricing.SourceClinic,
			Unite:  unite,
		}, nil
	}

	return &pricing.Resolved{
		Tarif:  svc.TarifDefaut,
		Source: pricing.SourceDefault,
		Unite:  svc.Unite,
	}, nil
}

func (s *PricingService) CreateService(ctx context.Context, svc *pricing.BillableService, caller Caller) (*pricing.BillableService, error) {
	if caller.Role != "admin" {
		return nil, ErrForbidden
	}

	var errs []string
	if strings.TrimSpace(svc.Code) == "" {
		errs = append(errs, "code is required")
	}
	if strings.TrimSpace(svc.Nom) == "" {
		errs = append(errs, "nom is required")
	}
	if svc.TarifDefaut < 0 {
		errs = append(errs, "tarif_defaut cannot be negative")
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	if svc.Unite == "" {
		svc.Unite = "acte"
	}
	svc.Actif = true

	if err := s.repo.CreateService(ctx, svc); err != nil {
		return nil, err
	}

	s.log.Info("billable service created",
		zap.String("code", svc.Code),
		zap.Int64("tarif_defaut", svc.TarifDefaut),
	)
	return svc, nil
}

func (s *PricingService) ListServices(ctx context.Context, typeService string) ([]pricing.BillableService, error) {
	return s.repo.ListServices(ctx, typeService, true)
}

func (s *PricingService) SetClinicPricing(ctx context.Context, cmd *pricing.UpsertPricingCommand, caller Caller) (*pricing.ClinicPricing, error) {
	if caller.Role != "admin" {
		return nil, ErrForbidden
	}
	if cmd.TarifBase < 0 {
		return nil, pricing.ErrInvalidTariff
	}

	if _, err := s.repo.GetService(ctx, cmd.ServiceID); err != nil {
		return nil, err
	}

	p := &pricing.ClinicPricing{
		ClinicID:  caller.ClinicID,
		ServiceID: cmd.ServiceID,
		TarifBase: cmd.TarifBase,
		Unite:     cmd.Unite,
		Active:    cmd.Active,
	}
	if err := s.repo.UpsertClinicPricing(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info("clinic pricing updated",
		zap.String("clinic_id", caller.ClinicID.String()),
		zap.String("service_id", cmd.ServiceID.String()),
		zap.Int64("tarif_base", cmd.TarifBase),
	)
	return p, nil
}

func (s *PricingService) ListClinicPricing(ctx context.Context, caller Caller) ([]pricing.ClinicPricing, error) {
	return s.repo.ListClinicPricing(ctx, caller.ClinicID)
}
