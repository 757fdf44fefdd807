package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/CHEzRIF21/logiclinic/internal/domain/billing"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) Create(ctx context.Context, t *billing.Ticket) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TicketRepository) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*billing.Ticket, error) {
	var t billing.Ticket
	err := r.db.WithContext(ctx).
		Where("id = ? AND clinic_id = ?", id, clinicID).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, billing.ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TicketRepository) ListPending(ctx context.Context, clinicID uuid.UUID, patientID *uuid.UUID) ([]*billing.Ticket, error) {
	tx := r.db.WithContext(ctx).
		Where("clinic_id = ? AND statut = ?", clinicID, billing.TicketEnAttente)
	if patientID != nil {
		tx = tx.Where("patient_id = ?", *patientID)
	}

	var tickets []*billing.Ticket
	if err := tx.Order("created_at ASC").Find(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *TicketRepository) MarkInvoiced(ctx context.Context, clinicID uuid.UUID, ticketIDs []uuid.UUID, invoiceID uuid.UUID) error {
	// The en_attente guard keeps a ticket from landing on two invoices.
	res := r.db.WithContext(ctx).Model(&billing.Ticket{}).
		Where("id IN ? AND clinic_id = ? AND statut = ?", ticketIDs, clinicID, billing.TicketEnAttente).
		Updates(map[string]any{"statut": billing.TicketFacture, "facture_id": invoiceID})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != int64(len(ticketIDs)) {
		return billing.ErrTicketNotFound
	}
	return nil
}

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *billing.Invoice) error {
	err := r.db.WithContext(ctx).Omit("Tickets", "Payments").Create(inv).Error
	if err != nil && isUniqueViolation(err) {
		return billing.ErrDuplicateNumero
	}
	return err
}

func (r *InvoiceRepository) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*billing.Invoice, error) {
	var inv billing.Invoice
	err := r.db.WithContext(ctx).
		Preload("Tickets").
		Preload("Payments").
		Where("id = ? AND clinic_id = ?", id, clinicID).
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, billing.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// RecordPayment inserts the payment and advances amount_paid and statut
// in one transaction, so a crash between the two cannot leave a payment
// that the invoice balance does not reflect.
func (r *InvoiceRepository) RecordPayment(ctx context.Context, inv *billing.Invoice, p *billing.Payment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return tx.Model(&billing.Invoice{}).
			Where("id = ? AND clinic_id = ?", inv.ID, inv.ClinicID).
			Updates(map[string]any{
				"amount_paid": inv.AmountPaid,
				"statut":      inv.Status,
			}).Error
	})
}

func (r *InvoiceRepository) LastNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	var numero string
	err := r.db.WithContext(ctx).Model(&billing.Invoice{}).
		Select("numero").
		Where("numero LIKE ?", prefix+"%").
		Order("numero DESC").
		Limit(1).
		Scan(&numero).Error
	if err != nil {
		return "", err
	}
	return numero, nil
}

func (r *InvoiceRepository) ListPayments(ctx context.Context, clinicID uuid.UUID, from, to time.Time) ([]billing.Payment, error) {
	var payments []billing.Payment
	err := r.db.WithContext(ctx).
		Where("clinic_id = ? AND created_at >= ? AND created_at < ?", clinicID, from, to).
		Order("created_at ASC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

type CashRepository struct {
	db *gorm.DB
}

func NewCashRepository(db *gorm.DB) *CashRepository {
	return &CashRepository{db: db}
}

func (r *CashRepository) CreateEntry(ctx context.Context, e *billing.CashEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *CashRepository) ListEntries(ctx context.Context, clinicID uuid.UUID, from, to time.Time, entryType *billing.CashEntryType) ([]billing.CashEntry, error) {
	tx := r.db.WithContext(ctx).
		Where("clinic_id = ? AND date >= ? AND date < ?", clinicID, from, to)
	if entryType != nil {
		tx = tx.Where("type = ?", *entryType)
	}

	var entries []billing.CashEntry
	if err := tx.Order("date ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
