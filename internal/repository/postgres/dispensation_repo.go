package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/CHEzRIF21/logiclinic/internal/domain/dispensation"
	"github.com/CHEzRIF21/logiclinic/internal/domain/pharmacy"
	"github.com/CHEzRIF21/logiclinic/internal/domain/prescription"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DispensationRepository struct {
	db *gorm.DB
}

func NewDispensationRepository(db *gorm.DB) *DispensationRepository {
	return &DispensationRepository{db: db}
}

func (r *DispensationRepository) Create(ctx context.Context, d *dispensation.Dispensation) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DispensationRepository) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*dispensation.Dispensation, error) {
	var d dispensation.Dispensation
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("id = ? AND clinic_id = ?", id, clinicID).
		First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, dispensation.ErrDispensationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DispensationRepository) AddLine(ctx context.Context, line *dispensation.Line) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *DispensationRepository) UpdateStatus(ctx context.Context, clinicID, id uuid.UUID, status dispensation.Status) error {
	res := r.db.WithContext(ctx).Model(&dispensation.Dispensation{}).
		Where("id = ? AND clinic_id = ?", id, clinicID).
		Update("statut", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return dispensation.ErrDispensationNotFound
	}
	return nil
}

// Finalize persists the terminee transition as one transaction. Stock is
// taken with the guarded decrement per line; a movement records each
// before/after pair; prescription lines advance under their own guard;
// the prescription status is recomputed from the rows inside the same
// transaction. Any failure rolls everything back, so either the whole
// dispensation takes effect or none of it does.
func (r *DispensationRepository) Finalize(ctx context.Context, d *dispensation.Dispensation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range d.Lines {
			line := &d.Lines[i]

			if err := decrementLot(tx, d, line); err != nil {
				return err
			}

			res := tx.Model(&prescription.Line{}).
				Where("id = ? AND quantite_dispensee + ? <= quantite_totale", line.PrescriptionLineID, line.QuantiteDelivree).
				Update("quantite_dispensee", gorm.Expr("quantite_dispensee + ?", line.QuantiteDelivree))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return dispensation.NewBusinessRuleError(
					dispensation.CodeQuantityExceedsRemains,
					fmt.Sprintf("line %s: delivered quantity exceeds remaining prescribed quantity", line.PrescriptionLineID),
				)
			}
		}

		var p prescription.Prescription
		err := tx.Preload("Lines").
			Where("id = ? AND clinic_id = ?", d.PrescriptionID, d.ClinicID).
			First(&p).Error
		if err != nil {
			return err
		}
		if err := tx.Model(&prescription.Prescription{}).
			Where("id = ?", p.ID).
			Update("statut", p.DeriveStatus()).Error; err != nil {
			return err
		}

		return tx.Model(&dispensation.Dispensation{}).
			Where("id = ? AND clinic_id = ?", d.ID, d.ClinicID).
			Updates(map[string]any{
				"statut":            d.Status,
				"montant_total":     d.MontantTotal,
				"montant_assurance": d.MontantAssurance,
				"montant_patient":   d.MontantPatient,
				"assurance_id":      d.AssuranceID,
				"assurance_nom":     d.AssuranceNom,
			}).Error
	})
}

// decrementLot takes stock for one dispensation line and records the
// movement with its before/after snapshot.
func decrementLot(tx *gorm.DB, d *dispensation.Dispensation, line *dispensation.Line) error {
	res := tx.Model(&pharmacy.Lot{}).
		Where("id = ? AND clinic_id = ? AND quantite_disponible >= ?", line.LotID, d.ClinicID, line.QuantiteDelivree).
		Update("quantite_disponible", gorm.Expr("quantite_disponible - ?", line.QuantiteDelivree))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&pharmacy.Lot{}).
			Where("id = ? AND clinic_id = ?", line.LotID, d.ClinicID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return pharmacy.ErrLotNotFound
		}
		return pharmacy.ErrInsufficientStock
	}

	var lot pharmacy.Lot
	if err := tx.Where("id = ?", line.LotID).First(&lot).Error; err != nil {
		return err
	}

	return tx.Create(&pharmacy.StockMovement{
		ClinicID:      d.ClinicID,
		MedicamentID:  line.MedicamentID,
		LotID:         line.LotID,
		Type:          pharmacy.MovementDispensation,
		Quantite:      -line.QuantiteDelivree,
		QuantiteAvant: lot.QuantiteDisponible + line.QuantiteDelivree,
		QuantiteApres: lot.QuantiteDisponible,
		Motif:         "dispensation",
		Reference:     d.NumeroDispensation,
		UtilisateurID: d.UtilisateurID,
	}).Error
}

func (r *DispensationRepository) List(ctx context.Context, q *dispensation.ListDispensationsQuery) (*dispensation.PagedDispensations, error) {
	tx := r.db.WithContext(ctx).Model(&dispensation.Dispensation{}).
		Where("clinic_id = ?", q.ClinicID)
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

	var dispensations []*dispensation.Dispensation
	err := tx.Preload("Lines").
		Order("date_dispensation DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&dispensations).Error
	if err != nil {
		return nil, err
	}

	return &dispensation.PagedDispensations{
		Dispensations: dispensations,
		TotalCount:    total,
		Page:          q.Page,
		PageSize:      q.PageSize,
		TotalPages:    totalPages(total, q.PageSize),
	}, nil
}

func (r *DispensationRepository) LastNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	var numero string
	err := r.db.WithContext(ctx).Model(&dispensation.Dispensation{}).
		Select("numero_dispensation").
		Where("numero_dispensation LIKE ?", prefix+"%").
		Order("numero_dispensation DESC").
		Limit(1).
		Scan(&numero).Error
	if err != nil {
		return "", err
	}
	return numero, nil
}
