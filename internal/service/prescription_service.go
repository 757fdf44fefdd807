package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/CHEzRIF21/logiclinic/internal/config"
	"github.com/CHEzRIF21/logiclinic/internal/domain/patient"
	"github.com/CHEzRIF21/logiclinic/internal/domain/prescription"
	"github.com/CHEzRIF21/logiclinic/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PrescriptionService struct {
	repo        prescription.Repository
	patientRepo patient.Repository
	auditSvc    *AuditService
	metrics     *metrics.Collector
	cfg         config.ClinicConfig
	log         *zap.Logger
}

func NewPrescriptionService(
	repo prescription.Repository,
	patientRepo patient.Repository,
	auditSvc *AuditService,
	collector *metrics.Collector,
	cfg config.ClinicConfig,
	log *zap.Logger,
) *PrescriptionService {
	return &PrescriptionService{
		repo:        repo,
		patientRepo: patientRepo,
		auditSvc:    auditSvc,
		metrics:     collector,
		cfg:         cfg,
		log:         log,
	}
}

func (s *PrescriptionService) CreatePrescription(ctx context.Context, cmd *prescription.CreatePrescriptionCommand, caller Caller) (*prescription.Prescription, error) {
	if caller.Role != "medecin" && caller.Role != "admin" {
		return nil, ErrForbidden
	}
	if err := validateCreatePrescription(cmd); err != nil {
		return nil, err
	}

	if _, err := s.patientRepo.GetByID(ctx, caller.ClinicID, cmd.PatientID); err != nil {
		return nil, fmt.Errorf("verifying patient: %w", err)
	}

	now := time.Now()
	prefix := dailyPrefix("ORD", now)
	last, err := s.repo.LastNumberWithPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("allocating numero ordonnance: %w", err)
	}

	p := &prescription.Prescription{
		ClinicID:         caller.ClinicID,
		NumeroOrdonnance: nextNumber(prefix, last),
		DatePrescription: now,
		ConsultationID:   cmd.ConsultationID,
		PatientID:        cmd.PatientID,
		PrescripteurID:   cmd.PrescripteurID,
		PrescripteurNom:  cmd.PrescripteurNom,
		Status:           prescription.StatusPrescrit,
	}
	for i, in := range cmd.Lines {
		p.Lines = append(p.Lines, prescription.Line{
			MedicamentID:   in.MedicamentID,
			NomMedicament:  strings.TrimSpace(in.NomMedicament),
			Posologie:      in.Posologie,
			Ordre:          i,
			QuantiteTotale: in.QuantiteTotale,
		})
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.log.Error("failed to create prescription", zap.Error(err))
		return nil, fmt.Errorf("creating prescription: %w", err)
	}

	s.metrics.PrescriptionsIssued.Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		ClinicID:     caller.ClinicID,
		UserID:       caller.UserID,
		UserRole:     caller.Role,
		Action:       "create",
		ResourceType: "prescription",
		ResourceID:   p.ID.String(),
		IPAddress:    caller.IP,
	})

	s.log.Info("prescription created",
		zap.String("prescription_id", p.ID.String()),
		zap.String("numero", p.NumeroOrdonnance),
		zap.Int("lines", len(p.Lines)),
	)
	return p, nil
}

func (s *PrescriptionService) GetPrescription(ctx context.Context, id uuid.UUID, caller Caller) (*prescription.Prescription, error) {
	return s.repo.GetByID(ctx, caller.ClinicID, id)
}

// ListActive returns the dispensing queue: prescriptions that still have
// something to serve, oldest first. Prescriptions past the dispensing
// window stay listed; the age gate applies at dispensation time.
func (s *PrescriptionService) ListActive(ctx context.Context, patientID *uuid.UUID, caller Caller) ([]*prescription.Prescription, error) {
	return s.repo.ListActive(ctx, caller.ClinicID, patientID)
}

func (s *PrescriptionService) ListPrescriptions(ctx context.Context, q *prescription.ListPrescriptionsQuery, caller Caller) (*prescription.PagedPrescriptions, error) {
	q.ClinicID = caller.ClinicID
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.repo.List(ctx, q)
}

// CancelPrescription sets the terminal ANNULE state. Already-dispensed
// quantities are not returned to stock; cancellation only blocks further
// dispensing.
func (s *PrescriptionService) CancelPrescription(ctx context.Context, id uuid.UUID, caller Caller) error {
	if caller.Role != "medecin" && caller.Role != "admin" {
		return ErrForbidden
	}

	p, err := s.repo.GetByID(ctx, caller.ClinicID, id)
	if err != nil {
		return err
	}
	if p.Status == prescription.StatusAnnule {
		return prescription.ErrAlreadyCancelled
	}

	if err := s.repo.UpdateStatus(ctx, caller.ClinicID, id, prescription.StatusAnnule); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		ClinicID:     caller.ClinicID,
		UserID:       caller.UserID,
		UserRole:     caller.Role,
		Action:       "cancel",
		ResourceType: "prescription",
		ResourceID:   id.String(),
		IPAddress:    caller.IP,
	})

	s.log.Info("prescription cancelled",
		zap.String("prescription_id", id.String()),
		zap.String("numero", p.NumeroOrdonnance),
	)
	return nil
}

// RecomputeStatus re-derives the status from the line quantities and
// persists it when it drifted. Safe to call any number of times.
func (s *PrescriptionService) RecomputeStatus(ctx context.Context, id uuid.UUID, caller Caller) (*prescription.Prescription, error) {
	p, err := s.repo.GetByID(ctx, caller.ClinicID, id)
	if err != nil {
		return nil, err
	}

	derived := p.DeriveStatus()
	if derived != p.Status {
		if err := s.repo.UpdateStatus(ctx, caller.ClinicID, id, derived); err != nil {
			return nil, err
		}
		p.Status = derived
	}
	return p, nil
}

func validateCreatePrescription(cmd *prescription.CreatePrescriptionCommand) error {
	var errs []string

	if cmd.PatientID == uuid.Nil {
		errs = append(errs, "patient_id is required")
	}
	if cmd.ConsultationID == uuid.Nil {
		errs = append(errs, "consultation_id is required")
	}
	if cmd.PrescripteurID == uuid.Nil {
		errs = append(errs, "prescripteur_id is required")
	}
	if len(cmd.Lines) == 0 {
		errs = append(errs, "at least one line is required")
	}
	for i, l := range cmd.Lines {
		if l.MedicamentID == uuid.Nil {
			errs = append(errs, fmt.Sprintf("lines[%d].medicament_id is required", i))
		}
		if strings.TrimSpace(l.NomMedicament) == "" {
			errs = append(errs, fmt.Sprintf("lines[%d].nom_medicament is required", i))
		}
		if l.QuantiteTotale <= 0 {
			errs = append(errs, fmt.Sprintf("lines[%d].quantite_totale must be positive", i))
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
