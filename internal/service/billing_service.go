package service

import (
	"context"
	"fmt"
	"time"

	"github.com/CHEzRIF21/logiclinic/internal/domain"
	"github.com/CHEzRIF21/logiclinic/internal/domain/billing"
	"github.com/CHEzRIF21/logiclinic/internal/domain/dispensation"
	"github.com/CHEzRIF21/logiclinic/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ClinicRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Clinic, error)
}

type BillingService struct {
	tickets  billing.TicketRepository
	invoices billing.InvoiceRepository
	cash     billing.CashRepository
	clinics  ClinicRepository
	auditSvc *AuditService
	metrics  *metrics.Collector
	log      *zap.Logger
}

func NewBillingService(
	tickets billing.TicketRepository,
	invoices billing.InvoiceRepository,
	cash billing.CashRepository,
	clinics ClinicRepository,
	auditSvc *AuditService,
	collector *metrics.Collector,
	log *zap.Logger,
) *BillingService {
	return &BillingService{
		tickets:  tickets,
		invoices: invoices,
		cash:     cash,
		clinics:  clinics,
		auditSvc: auditSvc,
		metrics:  collector,
		log:      log,
	}
}

// EmitDispensationTickets creates the billing claims for a finalized
// dispensation: one ticket per payer whose share is non-zero. Any failure
// comes back as an IntegrationError so the caller can report it without
// undoing the dispensation the tickets describe.
func (s *BillingService) EmitDispensationTickets(ctx context.Context, d *dispensation.Dispensation, caller Caller) error {
	type pending struct {
		payer   billing.PayerType
		payerID *uuid.UUID
		nom     string
		montant int64
	}

	var toEmit []pending
	if d.MontantPatient > 0 {
		toEmit = append(toEmit, pending{
			payer:   billing.PayerPatient,
			payerID: &d.PatientID,
			montant: d.MontantPatient,
		})
	}
	if d.MontantAssurance > 0 {
		toEmit = append(toEmit, pending{
			payer:   billing.PayerAssurance,
			payerID: d.AssuranceID,
			nom:     d.AssuranceNom,
			montant: d.MontantAssurance,
		})
	}

	for _, e := range toEmit {
		ref := d.ID
		t := &billing.Ticket{
			ClinicID:         d.ClinicID,
			PatientID:        d.PatientID,
			ServiceOrigine:   "pharmacie",
			ReferenceOrigine: &ref,
			TypeActe:         fmt.Sprintf("Dispensation %s", d.NumeroDispensation),
			Montant:          e.montant,
			PayeurType:       e.payer,
			PayeurID:         e.payerID,
			PayeurNom:        e.nom,
			Status:           billing.TicketEnAttente,
		}
		if err := s.tickets.Create(ctx, t); err != nil {
			s.metrics.TicketFailuresTotal.Inc()
			s.log.Error("ticket emission failed",
				zap.String("dispensation_id", d.ID.String()),
				zap.String("payeur", string(e.payer)),
				zap.Error(err),
			)
			return billing.NewIntegrationError(
				billing.CodeTicketCreationFailed,
				fmt.Sprintf("dispensation %s saved but ticket for %s was not created", d.NumeroDispensation, e.payer),
				err,
			)
		}
		s.metrics.TicketsEmittedTotal.WithLabelValues(string(e.payer)).Inc()
	}

	return nil
}

func (s *BillingService) ListPendingTickets(ctx context.Context, patientID *uuid.UUID, caller Caller) ([]*billing.Ticket, error) {
	return s.tickets.ListPending(ctx, caller.ClinicID, patientID)
}

// CreateInvoice groups pending tickets of one patient into an invoice.
// The numero embeds the clinic code and the month, with a sequence that
// restarts monthly.
func (s *BillingService) CreateInvoice(ctx context.Context, patientID uuid.UUID, ticketIDs []uuid.UUID, caller Caller) (*billing.Invoice, error) {
	if len(ticketIDs) == 0 {
		return nil, billing.ErrNoTickets
	}

	var total int64
	for _, id := range ticketIDs {
		t, err := s.tickets.GetByID(ctx, caller.ClinicID, id)
		if err != nil {
			return nil, err
		}
		if t.Status != billing.TicketEnAttente {
			return nil, fmt.Errorf("ticket %s: %w", id, billing.ErrTicketNotFound)
		}
		if t.PatientID != patientID {
			return nil, fmt.Errorf("ticket %s belongs to another patient: %w", id, billing.ErrTicketNotFound)
		}
		total += t.Montant
	}

	clinic, err := s.clinics.GetByID(ctx, caller.ClinicID)
	if err != nil {
		return nil, fmt.Errorf("loading clinic: %w", err)
	}

	prefix := monthlyPrefix("FAC", clinic.Code, time.Now())
	last, err := s.invoices.LastNumberWithPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("allocating numero facture: %w", err)
	}

	inv := &billing.Invoice{
		ClinicID:  caller.ClinicID,
		PatientID: patientID,
		Numero:    nextNumber(prefix, last),
		Total:     total,
		Currency:  "XOF",
		Status:    billing.InvoiceEnAttente,
	}
	if err := s.invoices.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("creating invoice: %w", err)
	}

	if err := s.tickets.MarkInvoiced(ctx, caller.ClinicID, ticketIDs, inv.ID); err != nil {
		return nil, fmt.Errorf("linking tickets: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		ClinicID:     caller.ClinicID,
		UserID:       caller.UserID,
		UserRole:     caller.Role,
		Action:       "create",
		ResourceType: "invoice",
		ResourceID:   inv.ID.String(),
		IPAddress:    caller.IP,
	})

	s.log.Info("invoice created",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("numero", inv.Numero),
		zap.Int64("total", inv.Total),
		zap.Int("tickets", len(ticketIDs)),
	)
	return inv, nil
}

func (s *BillingService) GetInvoice(ctx context.Context, id uuid.UUID, caller Caller) (*billing.Invoice, error) {
	return s.invoices.GetByID(ctx, caller.ClinicID, id)
}

// RecordPayment applies a payment to an invoice. Partial payments are
// allowed and tracked through the reliquat; overpaying is rejected.
func (s *BillingService) RecordPayment(ctx context.Context, invoiceID uuid.UUID, montant int64, methode billing.PaymentMethod, caller Caller) (*billing.Invoice, error) {
	if montant <= 0 {
		return nil, billing.ErrInvalidAmount
	}

	inv, err := s.invoices.GetByID(ctx, caller.ClinicID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status == billing.InvoiceAnnulee {
		return nil, billing.ErrInvoiceCancelled
	}
	if montant > inv.Remaining() {
		return nil, billing.ErrOverpayment
	}

	p := &billing.Payment{
		ClinicID:  caller.ClinicID,
		InvoiceID: inv.ID,
		Montant:   montant,
		Methode:   methode,
		RecuPar:   caller.UserID,
	}

	inv.AmountPaid += montant
	inv.Status = inv.DeriveStatus()

	if err := s.invoices.RecordPayment(ctx, inv, p); err != nil {
		return nil, fmt.Errorf("recording payment: %w", err)
	}

	s.metrics.PaymentsTotal.WithLabelValues(string(methode)).Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		ClinicID:     caller.ClinicID,
		UserID:       caller.UserID,
		UserRole:     caller.Role,
		Action:       "update",
		ResourceType: "invoice",
		ResourceID:   inv.ID.String(),
		IPAddress:    caller.IP,
		Changes:      fmt.Sprintf(`{"paiement":%d,"methode":%q,"reliquat":%d}`, montant, methode, inv.Remaining()),
	})

	s.log.Info("payment recorded",
		zap.String("invoice_id", inv.ID.String()),
		zap.Int64("montant", montant),
		zap.String("methode", string(methode)),
		zap.Int64("reliquat", inv.Remaining()),
		zap.String("statut", string(inv.Status)),
	)
	return inv, nil
}

// AddCashEntry writes a caisse journal line outside invoice payments:
// a bank deposit (DEPOT) or a petty expense (DEPENSE).
func (s *BillingService) AddCashEntry(ctx context.Context, entryType billing.CashEntryType, montant int64, description string, caller Caller) (*billing.CashEntry, error) {
	if caller.Role != "caissier" && caller.Role != "admin" {
		return nil, ErrForbidden
	}
	if montant <= 0 {
		return nil, billing.ErrInvalidAmount
	}
	if entryType != billing.CashDepot && entryType != billing.CashDepense {
		return nil, &ValidationError{Fields: []string{"type must be DEPOT or DEPENSE"}}
	}

	e := &billing.CashEntry{
		ClinicID:    caller.ClinicID,
		Type:        entryType,
		Montant:     montant,
		Description: description,
		Date:        time.Now(),
		CreatedBy:   caller.UserID,
	}
	if err := s.cash.CreateEntry(ctx, e); err != nil {
		return nil, fmt.Errorf("creating cash entry: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		ClinicID:     caller.ClinicID,
		UserID:       caller.UserID,
		UserRole:     caller.Role,
		Action:       "create",
		ResourceType: "cash_entry",
		ResourceID:   e.ID.String(),
		IPAddress:    caller.IP,
	})

	return e, nil
}

// CashStatistics folds invoice payments and journal entries for a period
// into the caisse totals.
func (s *BillingService) CashStatistics(ctx context.Context, from, to time.Time, caller Caller) (*billing.CashStatistics, error) {
	payments, err := s.invoices.ListPayments(ctx, caller.ClinicID, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}

	entries, err := s.cash.ListEntries(ctx, caller.ClinicID, from, to, nil)
	if err != nil {
		return nil, fmt.Errorf("listing cash entries: %w", err)
	}

	stats := billing.ComputeStatistics(payments, entries)
	return &stats, nil
}
