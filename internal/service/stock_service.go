package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/CHEzRIF21/logiclinic/internal/config"
	"github.com/CHEzRIF21/logiclinic/internal/domain/pharmacy"
	"github.com/CHEzRIF21/logiclinic/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type StockService struct {
	products  pharmacy.ProductRepository
	lots      pharmacy.LotRepository
	movements pharmacy.MovementRepository
	auditSvc  *AuditService
	metrics   *metrics.Collector
	cfg       config.ClinicConfig
	log       *zap.Logger
}

func NewStockService(
	products pharmacy.ProductRepository,
	lots pharmacy.LotRepository,
	movements pharmacy.MovementRepository,
	auditSvc *AuditService,
	collector *metrics.Collector,
	cfg config.ClinicConfig,
	log *zap.Logger,
) *StockService {
	return &StockService{
		products:  products,
		lots:      lots,
		movements: movements,
		auditSvc:  auditSvc,
		metrics:   collector,
		cfg:       cfg,
		log:       log,
	}
}

func (s *StockService) CreateProduct(ctx context.Context, p *pharmacy.Product, caller Caller) (*pharmacy.Product, error) {
	if strings.TrimSpace(p.Nom) == "" {
		return nil, &ValidationError{Fields: []string{"nom is required"}}
	}

	p.ClinicID = caller.ClinicID
	p.Active = true
	if err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		ClinicID:     caller.ClinicID,
		UserID:       caller.UserID,
		UserRole:     caller.Role,
		Action:       "create",
		ResourceType: "product",
		ResourceID:   p.ID.String(),
		IPAddress:    caller.IP,
	})
	return p, nil
}

func (s *StockService) ListProducts(ctx context.Context, search string, caller Caller) ([]*pharmacy.Product, error) {
	return s.products.List(ctx, caller.ClinicID, search)
}

// ReceiveLot registers an incoming batch. A lot that arrives already
// expired is stored in quarantaine so it can never be dispensed, but its
// reception still appears in the movement ledger.
func (s *StockService) ReceiveLot(ctx context.Context, cmd *pharmacy.CreateLotCommand, caller Caller) (*pharmacy.Lot, error) {
	if err := validateReceiveLot(cmd); err != nil {
		return nil, err
	}

	if _, err := s.products.GetByID(ctx, caller.ClinicID, cmd.MedicamentID); err != nil {
		return nil, err
	}

	exists, err := s.lots.ExistsByNumero(ctx, caller.ClinicID, cmd.MedicamentID, cmd.NumeroLot)
	if err != nil {
		return nil, fmt.Errorf("checking lot number: %w", err)
	}
	if exists {
		return nil, pharmacy.ErrLotAlreadyExists
	}

	now := time.Now()
	status := pharmacy.LotActif
	if now.After(cmd.DateExpiration) {
		status = pharmacy.LotQuarantaine
		s.log.Warn("lot received already expired, quarantined",
			zap.String("numero_lot", cmd.NumeroLot),
			zap.Time("date_expiration", cmd.DateExpiration),
		)
	}

	lot := &pharmacy.Lot{
		ClinicID:           caller.ClinicID,
		MedicamentID:       cmd.MedicamentID,
		NumeroLot:          cmd.NumeroLot,
		QuantiteDisponible: cmd.Quantite,
		DateExpiration:     cmd.DateExpiration,
		PrixUnitaire:       cmd.PrixUnitaire,
		Source:             cmd.Source,
		Status:             status,
	}
	if err := s.lots.Create(ctx, lot); err != nil {
		return nil, fmt.Errorf("creating lot: %w", err)
	}

	if err := s.movements.Create(ctx, &pharmacy.StockMovement{
		ClinicID:      caller.ClinicID,
		MedicamentID:  cmd.MedicamentID,
		LotID:         lot.ID,
		Type:          pharmacy.MovementReception,
		Quantite:      cmd.Quantite,
		QuantiteAvant: 0,
		QuantiteApres: cmd.Quantite,
		Motif:         "reception",
		Reference:     cmd.NumeroLot,
		UtilisateurID: caller.UserID,
	}); err != nil {
		s.log.Error("failed to record reception movement", zap.Error(err))
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		ClinicID:     caller.ClinicID,
		UserID:       caller.UserID,
		UserRole:     caller.Role,
		Action:       "create",
		ResourceType: "lot",
		ResourceID:   lot.ID.String(),
		IPAddress:    caller.IP,
	})

	s.log.Info("lot received",
		zap.String("lot_id", lot.ID.String()),
		zap.String("numero_lot", lot.NumeroLot),
		zap.Int("quantite", lot.QuantiteDisponible),
		zap.String("statut", string(lot.Status)),
	)
	return lot, nil
}

// StockCheck is the availability answer for one requested quantity of a
// medication, with the FEFO allocation that would serve it.
type StockCheck struct {
	Sufficient     bool                    `json:"sufficient"`
	TotalAvailable int                     `json:"total_available"`
	Allocations    []StockAllocation       `json:"allocations"`
	Warnings       []pharmacy.Availability `json:"warnings,omitempty"`
}

type StockAllocation struct {
	Lot        *pharmacy.Lot `json:"lot"`
	Quantite   int           `json:"quantite"`
	NearExpiry bool          `json:"near_expiry"`
}

// CheckAvailability answers whether qty of a medication can be served and
// from which lots, earliest expiration first. Expired lots never count;
// near-expiry lots count but carry a warning.
func (s *StockService) CheckAvailability(ctx context.Context, medicamentID uuid.UUID, qty int, caller Caller) (*StockCheck, error) {
	if qty <= 0 {
		return nil, pharmacy.ErrInvalidQuantity
	}

	lots, err := s.lots.ListAvailable(ctx, caller.ClinicID, medicamentID)
	if err != nil {
		return nil, fmt.Errorf("listing lots: %w", err)
	}

	now := time.Now()
	check := &StockCheck{}
	remaining := qty
	for _, lot := range lots {
		avail := lot.CheckAvailability(lot.QuantiteDisponible, now, s.cfg.NearExpiryWarnDays)
		if avail.Expired {
			continue
		}
		check.TotalAvailable += lot.QuantiteDisponible
		if remaining > 0 {
			take := lot.QuantiteDisponible
			if take > remaining {
				take = remaining
			}
			check.Allocations = append(check.Allocations, StockAllocation{
				Lot:        lot,
				Quantite:   take,
				NearExpiry: avail.NearExpiry,
			})
			if avail.NearExpiry {
				check.Warnings = append(check.Warnings, avail)
			}
			remaining -= take
		}
	}
	check.Sufficient = remaining == 0

	return check, nil
}

// AdjustLot applies a signed inventory correction and records it in the
// movement ledger with the operator's motif.
func (s *StockService) AdjustLot(ctx context.Context, lotID uuid.UUID, delta int, motif string, caller Caller) (*pharmacy.Lot, error) {
	if delta == 0 {
		return nil, pharmacy.ErrInvalidQuantity
	}
	if strings.TrimSpace(motif) == "" {
		return nil, &ValidationError{Fields: []string{"motif is required for adjustments"}}
	}

	lot, err := s.lots.Adjust(ctx, caller.ClinicID, lotID, delta)
	if err != nil {
		return nil, err
	}

	if err := s.movements.Create(ctx, &pharmacy.StockMovement{
		ClinicID:      caller.ClinicID,
		MedicamentID:  lot.MedicamentID,
		LotID:         lot.ID,
		Type:          pharmacy.MovementAjustement,
		Quantite:      delta,
		QuantiteAvant: lot.QuantiteDisponible - delta,
		QuantiteApres: lot.QuantiteDisponible,
		Motif:         motif,
		Reference:     lot.NumeroLot,
		UtilisateurID: caller.UserID,
	}); err != nil {
		s.log.Error("failed to record adjustment movement", zap.Error(err))
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		ClinicID:     caller.ClinicID,
		UserID:       caller.UserID,
		UserRole:     caller.Role,
		Action:       "update",
		ResourceType: "lot",
		ResourceID:   lot.ID.String(),
		IPAddress:    caller.IP,
		Changes:      fmt.Sprintf(`{"ajustement":%d,"motif":%q}`, delta, motif),
	})

	return lot, nil
}

// Alerts assembles the pharmacy dashboard: expired stock still on the
// shelf, lots inside the expiry warning window, and products out of or
// below minimum stock.
func (s *StockService) Alerts(ctx context.Context, caller Caller) (*pharmacy.StockAlerts, error) {
	now := time.Now()

	expired, err := s.lots.ListExpired(ctx, caller.ClinicID, now)
	if err != nil {
		return nil, fmt.Errorf("listing expired lots: %w", err)
	}

	nearExpiry, err := s.lots.ListNearExpiry(ctx, caller.ClinicID, now, s.cfg.AlertExpirationDays)
	if err != nil {
		return nil, fmt.Errorf("listing near-expiry lots: %w", err)
	}

	stock, err := s.products.StockByProduct(ctx, caller.ClinicID)
	if err != nil {
		return nil, fmt.Errorf("aggregating stock: %w", err)
	}

	alerts := &pharmacy.StockAlerts{
		ExpiredLots:    expired,
		NearExpiryLots: nearExpiry,
	}
	for _, ps := range stock {
		switch {
		case ps.Quantite == 0:
			alerts.OutOfStock = append(alerts.OutOfStock, ps)
		case ps.MinStock > 0 && ps.Quantite <= ps.MinStock:
			alerts.LowStock = append(alerts.LowStock, ps)
		}
	}

	return alerts, nil
}

func (s *StockService) ListMovements(ctx context.Context, lotID *uuid.UUID, limit int, caller Caller) ([]*pharmacy.StockMovement, error) {
	return s.movements.List(ctx, caller.ClinicID, lotID, limit)
}

func validateReceiveLot(cmd *pharmacy.CreateLotCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.NumeroLot) == "" {
		errs = append(errs, "numero_lot is required")
	}
	if cmd.Quantite <= 0 {
		errs = append(errs, "quantite must be positive")
	}
	if cmd.PrixUnitaire < 0 {
		errs = append(errs, "prix_unitaire cannot be negative")
	}
	if cmd.DateExpiration.IsZero() {
		errs = append(errs, "date_expiration is required")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
