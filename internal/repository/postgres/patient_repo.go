package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/CHEzRIF21/logiclinic/internal/domain/patient"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PatientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) Create(ctx context.Context, p *patient.Patient) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if err != nil && isUniqueViolation(err) {
		return patient.ErrPatientAlreadyExists
	}
	return err
}

func (r *PatientRepository) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*patient.Patient, error) {
	var p patient.Patient
	err := r.db.WithContext(ctx).
		Where("id = ? AND clinic_id = ? AND deleted_at IS NULL", id, clinicID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, patient.ErrPatientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PatientRepository) GetByIdentifiant(ctx context.Context, clinicID uuid.UUID, identifiant string) (*patient.Patient, error) {
	var p patient.Patient
	err := r.db.WithContext(ctx).
		Where("identifiant = ? AND clinic_id = ? AND deleted_at IS NULL", identifiant, clinicID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, patient.ErrPatientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PatientRepository) Update(ctx context.Context, clinicID, id uuid.UUID, cmd *patient.UpdatePatientCommand) (*patient.Patient, error) {
	p, err := r.GetByID(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}

	if cmd.Nom != nil {
		p.Nom = strings.TrimSpace(*cmd.Nom)
	}
	if cmd.Prenoms != nil {
		p.Prenoms = strings.TrimSpace(*cmd.Prenoms)
	}
	if cmd.Sexe != nil {
		p.Sexe = *cmd.Sexe
	}
	if cmd.Phone != nil {
		p.Phone = strings.TrimSpace(*cmd.Phone)
	}
	if cmd.Email != nil {
		p.Email = strings.ToLower(strings.TrimSpace(*cmd.Email))
	}
	if cmd.Address != nil {
		p.Address = *cmd.Address
	}
	if cmd.City != nil {
		p.City = *cmd.City
	}
	if cmd.Country != nil {
		p.Country = *cmd.Country
	}
	if cmd.Coverage != nil {
		p.Coverage = *cmd.Coverage
	}
	if cmd.Notes != nil {
		p.Notes = *cmd.Notes
	}

	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PatientRepository) SoftDelete(ctx context.Context, clinicID, id uuid.UUID) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&patient.Patient{}).
		Where("id = ? AND clinic_id = ? AND deleted_at IS NULL", id, clinicID).
		Updates(map[string]any{"deleted_at": &now, "status": patient.StatusInactive})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) List(ctx context.Context, q *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	tx := r.db.WithContext(ctx).Model(&patient.Patient{}).
		Where("clinic_id = ? AND deleted_at IS NULL", q.ClinicID)

	if search := strings.TrimSpace(q.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		tx = tx.Where(
			"LOWER(identifiant) LIKE ? OR LOWER(nom) LIKE ? OR LOWER(prenoms) LIKE ?",
			like, like, like,
		)
	}
	if q.Status != nil {
		tx = tx.Where("status = ?", *q.Status)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	var patients []*patient.Patient
	err := tx.Order("nom ASC, prenoms ASC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&patients).Error
	if err != nil {
		return nil, err
	}

	return &patient.PagedPatients{
		Patients:   patients,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages(total, q.PageSize),
	}, nil
}
