package billing

import (
	"errors"
	"testing"
)

func TestInvoiceRemaining(t *testing.T) {
	inv := Invoice{Total: 10000, AmountPaid: 4000}
	if got := inv.Remaining(); got != 6000 {
		t.Errorf("Remaining() = %d, want 6000", got)
	}
}

func TestInvoiceDeriveStatus(t *testing.T) {
	tests := []struct {
		name string
		inv  Invoice
		want InvoiceStatus
	}{
		{"unpaid", Invoice{Total: 10000}, InvoiceEnAttente},
		{"partial", Invoice{Total: 10000, AmountPaid: 4000}, InvoicePartielle},
		{"paid", Invoice{Total: 10000, AmountPaid: 10000}, InvoicePayee},
		{"cancelled stays cancelled", Invoice{Total: 10000, AmountPaid: 10000, Status: InvoiceAnnulee}, InvoiceAnnulee},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.inv.DeriveStatus(); got != tt.want {
				t.Errorf("DeriveStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestComputeStatistics(t *testing.T) {
	payments := []Payment{
		{Montant: 15000},
		{Montant: 5000},
	}
	entries := []CashEntry{
		{Type: CashDepot, Montant: 10000},
		{Type: CashDepense, Montant: 3000},
		{Type: CashDepense, Montant: 2000},
	}

	stats := ComputeStatistics(payments, entries)
	if stats.Recettes != 20000 {
		t.Errorf("Recettes = %d, want 20000", stats.Recettes)
	}
	if stats.Versements != 10000 {
		t.Errorf("Versements = %d, want 10000", stats.Versements)
	}
	if stats.Depenses != 5000 {
		t.Errorf("Depenses = %d, want 5000", stats.Depenses)
	}
	// solde = recettes + depots - depenses
	if stats.Solde != 25000 {
		t.Errorf("Solde = %d, want 25000", stats.Solde)
	}
	if stats.Entries != 3 {
		t.Errorf("Entries = %d, want 3", stats.Entries)
	}
}

func TestComputeStatisticsEmpty(t *testing.T) {
	stats := ComputeStatistics(nil, nil)
	if stats.Solde != 0 || stats.Recettes != 0 || stats.Depenses != 0 {
		t.Errorf("empty period should produce zero totals: %+v", stats)
	}
}

func TestIntegrationErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewIntegrationError(CodeTicketCreationFailed, "ticket not created", cause)

	if !errors.Is(err, cause) {
		t.Error("IntegrationError should unwrap to its cause")
	}

	var integErr *IntegrationError
	if !errors.As(error(err), &integErr) {
		t.Fatal("errors.As failed to match IntegrationError")
	}
	if integErr.Code != CodeTicketCreationFailed {
		t.Errorf("code = %s, want %s", integErr.Code, CodeTicketCreationFailed)
	}
}
