package billing

import (
	"time"

	"github.com/google/uuid"
)

type PayerType string

const (
	PayerPatient   PayerType = "patient"
	PayerAssurance PayerType = "assurance"
)

type TicketStatus string

const (
	TicketEnAttente TicketStatus = "en_attente"
	TicketFacture   TicketStatus = "facture"
	TicketAnnule    TicketStatus = "annule"
)

// Ticket is a billing claim emitted by a clinical service (pharmacy,
// consultation, laboratoire…) toward the caisse. One ticket per payer
// with a non-zero amount; tickets are grouped into invoices at payment
// time and never mutated by the emitting service afterwards.
type Ticket struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	ClinicID  uuid.UUID `gorm:"column:clinic_id;type:uuid;not null;index"`
	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`

	// ServiceOrigine identifies the emitting module, e.g. "pharmacie".
	ServiceOrigine string `gorm:"column:service_origine;type:varchar(50);not null"`
	// ReferenceOrigine links back to the source document (dispensation id…).
	ReferenceOrigine *uuid.UUID `gorm:"column:reference_origine;type:uuid;index"`
	TypeActe         string     `gorm:"column:type_acte;type:varchar(255);not null"`

	Montant int64 `gorm:"column:montant;not null"`

	PayeurType PayerType  `gorm:"column:payeur_type;type:varchar(20);not null;default:'patient'"`
	PayeurID   *uuid.UUID `gorm:"column:payeur_id;type:uuid"`
	PayeurNom  string     `gorm:"column:payeur_nom;type:varchar(255)"`

	Status    TicketStatus `gorm:"column:statut;type:varchar(20);not null;default:'en_attente';index"`
	InvoiceID *uuid.UUID   `gorm:"column:facture_id;type:uuid;index"`
}

func (Ticket) TableName() string {
	return "billing.tickets_facturation"
}

type InvoiceStatus string

const (
	InvoiceEnAttente InvoiceStatus = "EN_ATTENTE"
	InvoicePartielle InvoiceStatus = "PARTIELLE"
	InvoicePayee     InvoiceStatus = "PAYEE"
	InvoiceAnnulee   InvoiceStatus = "ANNULEE"
)

type Invoice struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	ClinicID  uuid.UUID `gorm:"column:clinic_id;type:uuid;not null;index"`
	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`

	// Numero format: FAC-CODE-YYYYMM-XXXX, unique and never reused.
	Numero string `gorm:"column:numero;type:varchar(30);uniqueIndex;not null"`

	Total      int64         `gorm:"column:total;not null"`
	AmountPaid int64         `gorm:"column:amount_paid;not null;default:0"`
	Currency   string        `gorm:"column:currency;type:varchar(5);not null;default:'XOF'"`
	Status     InvoiceStatus `gorm:"column:statut;type:varchar(20);not null;default:'EN_ATTENTE';index"`

	Tickets  []Ticket  `gorm:"foreignKey:InvoiceID"`
	Payments []Payment `gorm:"foreignKey:InvoiceID"`
}

func (Invoice) TableName() string {
	return "billing.invoices"
}

// Remaining is the unpaid balance (reliquat).
func (i *Invoice) Remaining() int64 {
	return i.Total - i.AmountPaid
}

// DeriveStatus computes the invoice status from payments received.
func (i *Invoice) DeriveStatus() InvoiceStatus {
	if i.Status == InvoiceAnnulee {
		return InvoiceAnnulee
	}
	switch {
	case i.AmountPaid >= i.Total:
		return InvoicePayee
	case i.AmountPaid > 0:
		return InvoicePartielle
	default:
		return InvoiceEnAttente
	}
}

type PaymentMethod string

const (
	PaymentEspeces     PaymentMethod = "especes"
	PaymentMobileMoney PaymentMethod = "mobile_money"
	PaymentCarte       PaymentMethod = "carte"
	PaymentVirement    PaymentMethod = "virement"
)

type Payment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	ClinicID  uuid.UUID `gorm:"column:clinic_id;type:uuid;not null;index"`
	InvoiceID uuid.UUID `gorm:"column:facture_id;type:uuid;not null;index"`

	Montant int64         `gorm:"column:montant;not null"`
	Methode PaymentMethod `gorm:"column:methode;type:varchar(20);not null"`

	RecuPar uuid.UUID `gorm:"column:recu_par;type:uuid;not null"`
}

func (Payment) TableName() string {
	return "billing.payments"
}

type CashEntryType string

const (
	CashDepot   CashEntryType = "DEPOT"
	CashDepense CashEntryType = "DEPENSE"
)

// CashEntry is a line of the caisse journal, outside invoice payments
// (bank deposits, petty expenses).
type CashEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	ClinicID uuid.UUID `gorm:"column:clinic_id;type:uuid;not null;index"`

	Type        CashEntryType `gorm:"column:type;type:varchar(10);not null"`
	Montant     int64         `gorm:"column:montant;not null"`
	Description string        `gorm:"column:description;type:text"`
	Date        time.Time     `gorm:"column:date;not null;index"`
	CreatedBy   uuid.UUID     `gorm:"column:created_by;type:uuid;not null"`
}

func (CashEntry) TableName() string {
	return "billing.caisse_entries"
}

// CashStatistics summarises caisse activity for a period: receipts from
// invoice payments, plus journal deposits and expenses.
type CashStatistics struct {
	Recettes   int64 `json:"recettes"`
	Depenses   int64 `json:"depenses"`
	Versements int64 `json:"versements"`
	Solde      int64 `json:"solde"`
	Entries    int   `json:"entries"`
}

// ComputeStatistics folds payments and journal entries into period totals.
// Solde = recettes + depots − depenses, mirroring the caisse ledger rules.
func ComputeStatistics(payments []Payment, entries []CashEntry) CashStatistics {
	var stats CashStatistics
	var depots int64
	for i := range payments {
		stats.Recettes += payments[i].Montant
	}
	for i := range entries {
		switch entries[i].Type {
		case CashDepot:
			depots += entries[i].Montant
		case CashDepense:
			stats.Depenses += entries[i].Montant
		}
	}
	stats.Versements = depots
	stats.Solde = stats.Recettes + depots - stats.Depenses
	stats.Entries = len(entries)
	return stats
}
