package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TicketRepository interface {
	Create(ctx context.Context, t *Ticket) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Ticket, error)
	// ListPending returns en_attente tickets, oldest first; patientID nil
	// lists across all patients of the clinic.
	ListPending(ctx context.Context, clinicID uuid.UUID, patientID *uuid.UUID) ([]*Ticket, error)
	// MarkInvoiced flips the given tickets to facture and links the invoice.
	MarkInvoiced(ctx context.Context, clinicID uuid.UUID, ticketIDs []uuid.UUID, invoiceID uuid.UUID) error
}

type InvoiceRepository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Invoice, error)
	// RecordPayment inserts the payment and updates amount_paid and
	// statut in one transaction.
	RecordPayment(ctx context.Context, inv *Invoice, p *Payment) error
	LastNumberWithPrefix(ctx context.Context, prefix string) (string, error)
	ListPayments(ctx context.Context, clinicID uuid.UUID, from, to time.Time) ([]Payment, error)
}

type CashRepository interface {
	CreateEntry(ctx context.Context, e *CashEntry) error
	ListEntries(ctx context.Context, clinicID uuid.UUID, from, to time.Time, entryType *CashEntryType) ([]CashEntry, error)
}
