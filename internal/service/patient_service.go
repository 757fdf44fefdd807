package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/CHEzRIF21/logiclinic/internal/domain/patient"
	"github.com/CHEzRIF21/logiclinic/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PatientService struct {
	repo     patient.Repository
	auditSvc *AuditService
	metrics  *metrics.Collector
	log      *zap.Logger
}

func NewPatientService(repo patient.Repository, auditSvc *AuditService, collector *metrics.Collector, log *zap.Logger) *PatientService {
	return &PatientService{
		repo:     repo,
		auditSvc: auditSvc,
		metrics:  collector,
		log:      log,
	}
}

func (s *PatientService) CreatePatient(ctx context.Context, cmd *patient.CreatePatientCommand, caller Caller) (*patient.Patient, error) {
	cmd.ClinicID = caller.ClinicID
	if err := validateCreatePatient(cmd); err != nil {
		return nil, err
	}

	identifiant := strings.TrimSpace(cmd.Identifiant)
	if identifiant == "" {
		identifiant = newPatientIdentifiant(time.Now())
	}

	p := &patient.Patient{
		ClinicID:      caller.ClinicID,
		Identifiant:   identifiant,
		Nom:           strings.TrimSpace(cmd.Nom),
		Prenoms:       strings.TrimSpace(cmd.Prenoms),
		DateNaissance: cmd.DateNaissance,
		Sexe:          cmd.Sexe,
		ContactInfo: patient.ContactInfo{
			Phone:   strings.TrimSpace(cmd.Phone),
			Email:   strings.ToLower(strings.TrimSpace(cmd.Email)),
			Address: cmd.Address,
			City:    cmd.City,
			Country: cmd.Country,
		},
		Coverage:  cmd.Coverage,
		Notes:     cmd.Notes,
		Status:    patient.StatusActive,
		CreatedBy: caller.UserID,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.log.Error("failed to create patient", zap.Error(err))
		return nil, fmt.Errorf("creating patient: %w", err)
	}

	s.metrics.PatientsCreatedTotal.Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		ClinicID:     caller.ClinicID,
		UserID:       caller.UserID,
		UserRole:     caller.Role,
		Action:       "create",
		ResourceType: "patient",
		ResourceID:   p.ID.String(),
		IPAddress:    caller.IP,
	})

	s.log.Info("patient created",
		zap.String("patient_id", p.ID.String()),
		zap.String("identifiant", p.Identifiant),
		zap.String("created_by", caller.UserID.String()),
	)

	return p, nil
}

func (s *PatientService) GetPatient(ctx context.Context, id uuid.UUID, caller Caller) (*patient.Patient, error) {
	p, err := s.repo.GetByID(ctx, caller.ClinicID, id)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		ClinicID:     caller.ClinicID,
		UserID:       caller.UserID,
		UserRole:     caller.Role,
		Action:       "read",
		ResourceType: "patient",
		ResourceID:   id.String(),
		IPAddress:    caller.IP,
	})

	return p, nil
}

func (s *PatientService) UpdatePatient(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand, caller Caller) (*patient.Patient, error) {
	if cmd.Sexe != nil && !cmd.Sexe.IsValid() {
		return nil, patient.ErrInvalidSexe
	}
	if cmd.Coverage != nil {
		if cmd.Coverage.TauxCouverture < 0 || cmd.Coverage.TauxCouverture > 100 {
			return nil, patient.ErrInvalidCoverage
		}
	}

	p, err := s.repo.Update(ctx, caller.ClinicID, id, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		ClinicID:     caller.ClinicID,
		UserID:       caller.UserID,
		UserRole:     caller.Role,
		Action:       "update",
		ResourceType: "patient",
		ResourceID:   id.String(),
		IPAddress:    caller.IP,
	})

	return p, nil
}

func (s *PatientService) DeactivatePatient(ctx context.Context, id uuid.UUID, caller Caller) error {
	p, err := s.repo.GetByID(ctx, caller.ClinicID, id)
	if err != nil {
		return err
	}

	if err := p.Deactivate(); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		ClinicID:     caller.ClinicID,
		UserID:       caller.UserID,
		UserRole:     caller.Role,
		Action:       "delete",
		ResourceType: "patient",
		ResourceID:   id.String(),
		IPAddress:    caller.IP,
	})

	return s.repo.SoftDelete(ctx, caller.ClinicID, id)
}

func (s *PatientService) ListPatients(ctx context.Context, q *patient.ListPatientsQuery, caller Caller) (*patient.PagedPatients, error) {
	q.ClinicID = caller.ClinicID
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}

	return s.repo.List(ctx, q)
}

func validateCreatePatient(cmd *patient.CreatePatientCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.Nom) == "" {
		errs = append(errs, "nom is required")
	}
	if strings.TrimSpace(cmd.Prenoms) == "" {
		errs = append(errs, "prenoms is required")
	}
	if cmd.DateNaissance.IsZero() {
		errs = append(errs, "date_naissance is required")
	}
	if cmd.DateNaissance.After(time.Now()) {
		errs = append(errs, "date_naissance cannot be in the future")
	}
	if !cmd.Sexe.IsValid() {
		errs = append(errs, "sexe is invalid")
	}
	if cmd.Coverage.TauxCouverture < 0 || cmd.Coverage.TauxCouverture > 100 {
		errs = append(errs, "taux_couverture must be between 0 and 100")
	}
	if cmd.Coverage.Plafond != nil && *cmd.Coverage.Plafond < 0 {
		errs = append(errs, "plafond cannot be negative")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func newPatientIdentifiant(now time.Time) string {
	// PAT-YYYY-<8 random hex>; uniqueness is enforced by the database.
	return fmt.Sprintf("PAT-%d-%s", now.Year(), uuid.NewString()[:8])
}
