package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/CHEzRIF21/logiclinic/internal/config"
	"github.com/CHEzRIF21/logiclinic/internal/domain/dispensation"
	"github.com/CHEzRIF21/logiclinic/internal/domain/patient"
	"github.com/CHEzRIF21/logiclinic/internal/domain/pharmacy"
	"github.com/CHEzRIF21/logiclinic/internal/domain/prescription"
	"github.com/CHEzRIF21/logiclinic/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DispensationService struct {
	repo             dispensation.Repository
	prescriptionRepo prescription.Repository
	patientRepo      patient.Repository
	lots             pharmacy.LotRepository
	billingSvc       *BillingService
	auditSvc         *AuditService
	metrics          *metrics.Collector
	cfg              config.ClinicConfig
	log              *zap.Logger
}

func NewDispensationService(
	repo dispensation.Repository,
	prescriptionRepo prescription.Repository,
	patientRepo patient.Repository,
	lots pharmacy.LotRepository,
	billingSvc *BillingService,
	auditSvc *AuditService,
	collector *metrics.Collector,
	cfg config.ClinicConfig,
	log *zap.Logger,
) *DispensationService {
	return &DispensationService{
		repo:             repo,
		prescriptionRepo: prescriptionRepo,
		patientRepo:      patientRepo,
		lots:             lots,
		billingSvc:       billingSvc,
		auditSvc:         auditSvc,
		metrics:          collector,
		cfg:              cfg,
		log:              log,
	}
}

// Begin opens an en_cours dispensation against a prescription. The
// prescription must be within the dispensing window, not cancelled, and
// still have open lines.
func (s *DispensationService) Begin(ctx context.Context, prescriptionID uuid.UUID, caller Caller) (*dispensation.Dispensation, error) {
	if caller.Role != "pharmacien" && caller.Role != "admin" {
		return nil, ErrForbidden
	}

	p, err := s.prescriptionRepo.GetByID(ctx, caller.ClinicID, prescriptionID)
	if err != nil {
		return nil, err
	}
	if err := s.checkDispensable(p, time.Now()); err != nil {
		return nil, err
	}

	now := time.Now()
	prefix := dailyPrefix("DISP", now)
	last, err := s.repo.LastNumberWithPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("allocating numero dispensation: %w", err)
	}

	d := &dispensation.Dispensation{
		ClinicID:           caller.ClinicID,
		NumeroDispensation: nextNumber(prefix, last),
		DateDispensation:   now,
		PrescriptionID:     p.ID,
		PatientID:          p.PatientID,
		UtilisateurID:      caller.UserID,
		Status:             dispensation.StatusEnCours,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		s.log.Error("failed to create dispensation", zap.Error(err))
		return nil, fmt.Errorf("creating dispensation: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		ClinicID:     caller.ClinicID,
		UserID:       caller.UserID,
		UserRole:     caller.Role,
		Action:       "create",
		ResourceType: "dispensation",
		ResourceID:   d.ID.String(),
		IPAddress:    caller.IP,
	})

	s.log.Info("dispensation started",
		zap.String("dispensation_id", d.ID.String()),
		zap.String("numero", d.NumeroDispensation),
		zap.String("prescription_id", p.ID.String()),
	)
	return d, nil
}

// AddLine attaches a delivery to an open dispensation: which prescription
// line, from which lot, how much. Stock and expiry are checked here so
// the operator learns of problems early; the binding check is the guarded
// decrement at finalize time.
func (s *DispensationService) AddLine(ctx context.Context, dispensationID uuid.UUID, cmd *dispensation.AddLineCommand, caller Caller) (*dispensation.Line, error) {
	if cmd.Quantite <= 0 {
		return nil, dispensation.ErrInvalidQuantity
	}

	d, err := s.repo.GetByID(ctx, caller.ClinicID, dispensationID)
	if err != nil {
		return nil, err
	}
	if d.Status != dispensation.StatusEnCours {
		return nil, dispensation.InvalidTransition(d.Status, dispensation.StatusEnCours)
	}

	p, err := s.prescriptionRepo.GetByID(ctx, caller.ClinicID, d.PrescriptionID)
	if err != nil {
		return nil, err
	}
	pl := p.LineByID(cmd.PrescriptionLineID)
	if pl == nil {
		return nil, prescription.ErrLineNotFound
	}

	// Count quantities already staged on this dispensation for the line.
	staged := 0
	for i := range d.Lines {
		if d.Lines[i].PrescriptionLineID == pl.ID {
			staged += d.Lines[i].QuantiteDelivree
		}
	}
	if cmd.Quantite+staged > pl.Remaining() {
		return nil, dispensation.NewBusinessRuleError(
			dispensation.CodeQuantityExceedsRemains,
			fmt.Sprintf("requested %d but only %d remaining on line %s", cmd.Quantite, pl.Remaining()-staged, pl.ID),
		)
	}

	lot, err := s.lots.GetByID(ctx, caller.ClinicID, cmd.LotID)
	if err != nil {
		return nil, err
	}
	avail := lot.CheckAvailability(cmd.Quantite, time.Now(), s.cfg.NearExpiryWarnDays)
	if avail.Expired {
		return nil, pharmacy.ErrLotExpired
	}
	if !avail.Sufficient {
		s.metrics.StockShortfallsTotal.Inc()
		return nil, pharmacy.ErrInsufficientStock
	}
	if avail.NearExpiry {
		s.log.Warn("dispensing from near-expiry lot",
			zap.String("lot_id", lot.ID.String()),
			zap.Int("days_to_expiry", avail.DaysToExpiry),
		)
	}

	line := &dispensation.Line{
		DispensationID:     d.ID,
		PrescriptionLineID: pl.ID,
		MedicamentID:       pl.MedicamentID,
		NomMedicament:      pl.NomMedicament,
		LotID:              lot.ID,
		NumeroLot:          lot.NumeroLot,
		DateExpiration:     lot.DateExpiration,
		QuantiteDelivree:   cmd.Quantite,
		PrixUnitaire:       lot.PrixUnitaire,
		PrixTotal:          lot.PrixUnitaire * int64(cmd.Quantite),
	}
	if err := s.repo.AddLine(ctx, line); err != nil {
		return nil, fmt.Errorf("adding line: %w", err)
	}

	return line, nil
}

// Finalize moves an en_cours dispensation to terminee: it snapshots the
// patient's coverage, computes the tiers-payant split, and commits the
// stock decrements atomically. When everything clinical has committed it
// emits the billing tickets; a ticket failure is reported through the
// returned error but the finalized dispensation stands.
func (s *DispensationService) Finalize(ctx context.Context, dispensationID uuid.UUID, observations string, caller Caller) (*dispensation.Dispensation, error) {
	d, err := s.repo.GetByID(ctx, caller.ClinicID, dispensationID)
	if err != nil {
		return nil, err
	}
	if !d.Status.CanTransition(dispensation.StatusTerminee) {
		return nil, dispensation.InvalidTransition(d.Status, dispensation.StatusTerminee)
	}
	if len(d.Lines) == 0 {
		return nil, dispensation.ErrNoLines
	}

	// Re-check the prescription window at commit time: a dispensation
	// left open overnight must not outlive the age gate.
	p, err := s.prescriptionRepo.GetByID(ctx, caller.ClinicID, d.PrescriptionID)
	if err != nil {
		return nil, err
	}
	if err := s.checkDispensable(p, time.Now()); err != nil {
		return nil, err
	}

	pat, err := s.patientRepo.GetByID(ctx, caller.ClinicID, d.PatientID)
	if err != nil {
		return nil, err
	}

	cov := dispensation.Coverage{
		AssuranceID:    pat.Coverage.AssuranceID,
		AssuranceNom:   pat.Coverage.AssuranceNom,
		TauxCouverture: pat.Coverage.TauxCouverture,
		Plafond:        pat.Coverage.Plafond,
	}

	d.MontantTotal = d.TotalAmount()
	d.MontantAssurance, d.MontantPatient = cov.Split(d.MontantTotal)
	d.AssuranceID = cov.AssuranceID
	d.AssuranceNom = cov.AssuranceNom
	d.Observations = observations
	d.Status = dispensation.StatusTerminee

	if err := s.repo.Finalize(ctx, d); err != nil {
		if errors.Is(err, pharmacy.ErrInsufficientStock) {
			s.metrics.StockShortfallsTotal.Inc()
		}
		s.log.Error("dispensation finalize failed",
			zap.String("dispensation_id", d.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.DispensationsTotal.WithLabelValues(string(dispensation.StatusTerminee)).Inc()
	s.metrics.StockDecrementsTotal.Add(float64(len(d.Lines)))
	s.auditSvc.LogAsync(ctx, AuditEntry{
		ClinicID:     caller.ClinicID,
		UserID:       caller.UserID,
		UserRole:     caller.Role,
		Action:       "update",
		ResourceType: "dispensation",
		ResourceID:   d.ID.String(),
		IPAddress:    caller.IP,
		Changes:      fmt.Sprintf(`{"statut":"terminee","montant_total":%d,"montant_assurance":%d,"montant_patient":%d}`, d.MontantTotal, d.MontantAssurance, d.MontantPatient),
	})

	s.log.Info("dispensation finalized",
		zap.String("dispensation_id", d.ID.String()),
		zap.String("numero", d.NumeroDispensation),
		zap.Int64("montant_total", d.MontantTotal),
		zap.Int64("montant_assurance", d.MontantAssurance),
		zap.Int64("montant_patient", d.MontantPatient),
	)

	// Billing is downstream of the clinical record: the dispensation is
	// committed whatever happens here. The IntegrationError carries the
	// retry context to the caller.
	if err := s.billingSvc.EmitDispensationTickets(ctx, d, caller); err != nil {
		return d, err
	}

	return d, nil
}

// Validate is the pharmacist's final sign-off on a terminee dispensation.
func (s *DispensationService) Validate(ctx context.Context, dispensationID uuid.UUID, caller Caller) (*dispensation.Dispensation, error) {
	if caller.Role != "pharmacien" && caller.Role != "admin" {
		return nil, ErrForbidden
	}

	d, err := s.repo.GetByID(ctx, caller.ClinicID, dispensationID)
	if err != nil {
		return nil, err
	}
	if !d.Status.CanTransition(dispensation.StatusValidee) {
		return nil, dispensation.InvalidTransition(d.Status, dispensation.StatusValidee)
	}

	if err := s.repo.UpdateStatus(ctx, caller.ClinicID, d.ID, dispensation.StatusValidee); err != nil {
		return nil, err
	}
	d.Status = dispensation.StatusValidee

	s.metrics.DispensationsTotal.WithLabelValues(string(dispensation.StatusValidee)).Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		ClinicID:     caller.ClinicID,
		UserID:       caller.UserID,
		UserRole:     caller.Role,
		Action:       "validate",
		ResourceType: "dispensation",
		ResourceID:   d.ID.String(),
		IPAddress:    caller.IP,
	})

	return d, nil
}

// Cancel abandons an en_cours dispensation. Nothing has touched stock or
// the prescription at that point, so cancellation is a pure status write.
func (s *DispensationService) Cancel(ctx context.Context, dispensationID uuid.UUID, caller Caller) (*dispensation.Dispensation, error) {
	d, err := s.repo.GetByID(ctx, caller.ClinicID, dispensationID)
	if err != nil {
		return nil, err
	}
	if !d.Status.CanTransition(dispensation.StatusAnnulee) {
		return nil, dispensation.InvalidTransition(d.Status, dispensation.StatusAnnulee)
	}

	if err := s.repo.UpdateStatus(ctx, caller.ClinicID, d.ID, dispensation.StatusAnnulee); err != nil {
		return nil, err
	}
	d.Status = dispensation.StatusAnnulee

	s.metrics.DispensationsTotal.WithLabelValues(string(dispensation.StatusAnnulee)).Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		ClinicID:     caller.ClinicID,
		UserID:       caller.UserID,
		UserRole:     caller.Role,
		Action:       "cancel",
		ResourceType: "dispensation",
		ResourceID:   d.ID.String(),
		IPAddress:    caller.IP,
	})

	s.log.Info("dispensation cancelled",
		zap.String("dispensation_id", d.ID.String()),
		zap.String("numero", d.NumeroDispensation),
	)
	return d, nil
}

func (s *DispensationService) GetDispensation(ctx context.Context, id uuid.UUID, caller Caller) (*dispensation.Dispensation, error) {
	return s.repo.GetByID(ctx, caller.ClinicID, id)
}

func (s *DispensationService) ListDispensations(ctx context.Context, q *dispensation.ListDispensationsQuery, caller Caller) (*dispensation.PagedDispensations, error) {
	q.ClinicID = caller.ClinicID
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.repo.List(ctx, q)
}

func (s *DispensationService) checkDispensable(p *prescription.Prescription, now time.Time) error {
	if p.Status == prescription.StatusAnnule {
		return dispensation.NewBusinessRuleError(
			dispensation.CodePrescriptionCancelled,
			fmt.Sprintf("prescription %s is cancelled", p.NumeroOrdonnance),
		)
	}
	if p.TooOld(now, s.cfg.PrescriptionMaxAgeDays) {
		return dispensation.NewBusinessRuleError(
			dispensation.CodePrescriptionTooOld,
			fmt.Sprintf("prescription %s is %d days old, limit is %d", p.NumeroOrdonnance, p.AgeDays(now), s.cfg.PrescriptionMaxAgeDays),
		)
	}
	if !p.Dispensable() {
		return dispensation.NewBusinessRuleError(
			dispensation.CodeNothingToDispense,
			fmt.Sprintf("prescription %s has no remaining quantity to dispense", p.NumeroOrdonnance),
		)
	}
	return nil
}
