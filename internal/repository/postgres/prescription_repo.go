package postgres

import (
	"context"
	"errors"

	"github.com/CHEzRIF21/logiclinic/internal/domain/prescription"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PrescriptionRepository struct {
	db *gorm.DB
}

func NewPrescriptionRepository(db *gorm.DB) *PrescriptionRepository {
	return &PrescriptionRepository{db: db}
}

func (r *PrescriptionRepository) Create(ctx context.Context, p *prescription.Prescription) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if err != nil && isUniqueViolation(err) {
		return prescription.ErrDuplicateNumber
	}
	return err
}

func (r *PrescriptionRepository) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*prescription.Prescription, error) {
	var p prescription.Prescription
	err := r.db.WithContext(ctx).
		Preload("Lines", func(tx *gorm.DB) *gorm.DB { return tx.Order("ordre ASC") }).
		Where("id = ? AND clinic_id = ? AND deleted_at IS NULL", id, clinicID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, prescription.ErrPrescriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PrescriptionRepository) UpdateStatus(ctx context.Context, clinicID, id uuid.UUID, status prescription.Status) error {
	res := r.db.WithContext(ctx).Model(&prescription.Prescription{}).
		Where("id = ? AND clinic_id = ? AND deleted_at IS NULL", id, clinicID).
		Update("statut", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return prescription.ErrPrescriptionNotFound
	}
	return nil
}

func (r *PrescriptionRepository) ListActive(ctx context.Context, clinicID uuid.UUID, patientID *uuid.UUID) ([]*prescription.Prescription, error) {
	tx := r.db.WithContext(ctx).
		Preload("Lines", func(tx *gorm.DB) *gorm.DB { return tx.Order("ordre ASC") }).
		Where("clinic_id = ? AND deleted_at IS NULL", clinicID).
		Where("statut IN ?", []prescription.Status{prescription.StatusPrescrit, prescription.StatusPartiel})
	if patientID != nil {
		tx = tx.Where("patient_id = ?", *patientID)
	}

	var prescriptions []*prescription.Prescription
	if err := tx.Order("date_prescription ASC").Find(&prescriptions).Error; err != nil {
		return nil, err
	}

	// Status can lag the lines when a concurrent dispensation just
	// completed; keep only prescriptions with something left to serve.
	active := prescriptions[:0]
	for _, p := range prescriptions {
		if p.Dispensable() {
			active = append(active, p)
		}
	}
	return active, nil
}

func (r *PrescriptionRepository) List(ctx context.Context, q *prescription.ListPrescriptionsQuery) (*prescription.PagedPrescriptions, error) {
	tx := r.db.WithContext(ctx).Model(&prescription.Prescription{}).
		Where("clinic_id = ? AND deleted_at IS NULL", q.ClinicID)
	if q.PatientID != nil {
		tx = tx.Where("patient_id = ?", *q.PatientID)
	}
	if q.Status != nil {
		tx = tx.Where("statut = ?", *q.Status)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	var prescriptions []*prescription.Prescription
	err := tx.Preload("Lines", func(tx *gorm.DB) *gorm.DB { return tx.Order("ordre ASC") }).
		Order("date_prescription DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&prescriptions).Error
	if err != nil {
		return nil, err
	}

	return &prescription.PagedPrescriptions{
		Prescriptions: prescriptions,
		TotalCount:    total,
		Page:          q.Page,
		PageSize:      q.PageSize,
		TotalPages:    totalPages(total, q.PageSize),
	}, nil
}

func (r *PrescriptionRepository) LastNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	var numero string
	err := r.db.WithContext(ctx).Model(&prescription.Prescription{}).
		Select("numero_ordonnance").
		Where("numero_ordonnance LIKE ?", prefix+"%").
		Order("numero_ordonnance DESC").
		Limit(1).
		Scan(&numero).Error
	if err != nil {
		return "", err
	}
	return numero, nil
}
