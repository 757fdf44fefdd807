package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/CHEzRIF21/logiclinic/internal/domain/pharmacy"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, p *pharmacy.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProductRepository) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*pharmacy.Product, error) {
	var p pharmacy.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND clinic_id = ? AND deleted_at IS NULL", id, clinicID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pharmacy.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) Update(ctx context.Context, p *pharmacy.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *ProductRepository) List(ctx context.Context, clinicID uuid.UUID, search string) ([]*pharmacy.Product, error) {
	tx := r.db.WithContext(ctx).
		Where("clinic_id = ? AND deleted_at IS NULL AND active = true", clinicID)
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		tx = tx.Where("LOWER(code) LIKE ? OR LOWER(nom) LIKE ?", like, like)
	}

	var products []*pharmacy.Product
	if err := tx.Order("nom ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) StockByProduct(ctx context.Context, clinicID uuid.UUID) ([]pharmacy.ProductStock, error) {
	var rows []pharmacy.ProductStock
	err := r.db.WithContext(ctx).
		Table("pharmacy.products AS p").
		Select(`p.id AS product_id, p.code, p.nom, p.min_stock,
			COALESCE(SUM(l.quantite_disponible) FILTER (WHERE l.statut = 'actif' AND l.date_expiration > NOW()), 0) AS quantite`).
		Joins("LEFT JOIN pharmacy.lots l ON l.medicament_id = p.id AND l.clinic_id = p.clinic_id").
		Where("p.clinic_id = ? AND p.deleted_at IS NULL AND p.active = true", clinicID).
		Group("p.id, p.code, p.nom, p.min_stock").
		Order("p.nom ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type LotRepository struct {
	db *gorm.DB
}

func NewLotRepository(db *gorm.DB) *LotRepository {
	return &LotRepository{db: db}
}

func (r *LotRepository) Create(ctx context.Context, lot *pharmacy.Lot) error {
	err := r.db.WithContext(ctx).Create(lot).Error
	if err != nil && isUniqueViolation(err) {
		return pharmacy.ErrLotAlreadyExists
	}
	return err
}

func (r *LotRepository) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*pharmacy.Lot, error) {
	var lot pharmacy.Lot
	err := r.db.WithContext(ctx).
		Where("id = ? AND clinic_id = ?", id, clinicID).
		First(&lot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pharmacy.ErrLotNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

func (r *LotRepository) ExistsByNumero(ctx context.Context, clinicID, medicamentID uuid.UUID, numeroLot string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&pharmacy.Lot{}).
		Where("clinic_id = ? AND medicament_id = ? AND numero_lot = ?", clinicID, medicamentID, numeroLot).
		Count(&count).Error
	return count > 0, err
}

func (r *LotRepository) ListAvailable(ctx context.Context, clinicID, medicamentID uuid.UUID) ([]*pharmacy.Lot, error) {
	var lots []*pharmacy.Lot
	err := r.db.WithContext(ctx).
		Where("clinic_id = ? AND medicament_id = ?", clinicID, medicamentID).
		Where("statut = ? AND quantite_disponible > 0 AND date_expiration > NOW()", pharmacy.LotActif).
		Order("date_expiration ASC"). // FEFO
		Find(&lots).Error
	if err != nil {
		return nil, err
	}
	return lots, nil
}

func (r *LotRepository) ListExpired(ctx context.Context, clinicID uuid.UUID, asOf time.Time) ([]*pharmacy.Lot, error) {
	var lots []*pharmacy.Lot
	err := r.db.WithContext(ctx).
		Where("clinic_id = ? AND quantite_disponible > 0", clinicID).
		Where("date_expiration <= ? OR statut IN ?", asOf, []pharmacy.LotStatus{pharmacy.LotExpire, pharmacy.LotQuarantaine}).
		Order("date_expiration ASC").
		Find(&lots).Error
	if err != nil {
		return nil, err
	}
	return lots, nil
}

func (r *LotRepository) ListNearExpiry(ctx context.Context, clinicID uuid.UUID, asOf time.Time, withinDays int) ([]*pharmacy.Lot, error) {
	limit := asOf.Add(time.Duration(withinDays) * 24 * time.Hour)
	var lots []*pharmacy.Lot
	err := r.db.WithContext(ctx).
		Where("clinic_id = ? AND statut = ? AND quantite_disponible > 0", clinicID, pharmacy.LotActif).
		Where("date_expiration > ? AND date_expiration <= ?", asOf, limit).
		Order("date_expiration ASC").
		Find(&lots).Error
	if err != nil {
		return nil, err
	}
	return lots, nil
}

// Decrement runs the single guarded UPDATE that is the only writer of
// quantite_disponible during dispensing. The availability check and the
// subtraction are one statement, so concurrent callers serialize on the
// row lock and the loser of the race sees the guard fail instead of
// driving the quantity negative.
func (r *LotRepository) Decrement(ctx context.Context, clinicID, lotID uuid.UUID, qty int) (*pharmacy.Lot, error) {
	if qty <= 0 {
		return nil, pharmacy.ErrInvalidQuantity
	}

	res := r.db.WithContext(ctx).Model(&pharmacy.Lot{}).
		Where("id = ? AND clinic_id = ? AND quantite_disponible >= ?", lotID, clinicID, qty).
		Update("quantite_disponible", gorm.Expr("quantite_disponible - ?", qty))
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		// Guard failed: distinguish a missing lot from short stock.
		var count int64
		if err := r.db.WithContext(ctx).Model(&pharmacy.Lot{}).
			Where("id = ? AND clinic_id = ?", lotID, clinicID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, pharmacy.ErrLotNotFound
		}
		return nil, pharmacy.ErrInsufficientStock
	}

	return r.GetByID(ctx, clinicID, lotID)
}

// Adjust applies a signed correction under the same guard: the row only
// updates when the resulting quantity stays non-negative.
func (r *LotRepository) Adjust(ctx context.Context, clinicID, lotID uuid.UUID, delta int) (*pharmacy.Lot, error) {
	res := r.db.WithContext(ctx).Model(&pharmacy.Lot{}).
		Where("id = ? AND clinic_id = ? AND quantite_disponible + ? >= 0", lotID, clinicID, delta).
		Update("quantite_disponible", gorm.Expr("quantite_disponible + ?", delta))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&pharmacy.Lot{}).
			Where("id = ? AND clinic_id = ?", lotID, clinicID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, pharmacy.ErrLotNotFound
		}
		return nil, pharmacy.ErrInsufficientStock
	}
	return r.GetByID(ctx, clinicID, lotID)
}

func (r *LotRepository) UpdateStatus(ctx context.Context, clinicID, lotID uuid.UUID, status pharmacy.LotStatus) error {
	res := r.db.WithContext(ctx).Model(&pharmacy.Lot{}).
		Where("id = ? AND clinic_id = ?", lotID, clinicID).
		Update("statut", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pharmacy.ErrLotNotFound
	}
	return nil
}

type MovementRepository struct {
	db *gorm.DB
}

func NewMovementRepository(db *gorm.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

func (r *MovementRepository) Create(ctx context.Context, m *pharmacy.StockMovement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MovementRepository) List(ctx context.Context, clinicID uuid.UUID, lotID *uuid.UUID, limit int) ([]*pharmacy.StockMovement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	tx := r.db.WithContext(ctx).Where("clinic_id = ?", clinicID)
	if lotID != nil {
		tx = tx.Where("lot_id = ?", *lotID)
	}

	var movements []*pharmacy.StockMovement
	err := tx.Order("created_at DESC").Limit(limit).Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}
