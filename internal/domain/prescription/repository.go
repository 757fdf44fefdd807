package prescription

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Prescription) error

	// GetByID loads a prescription with its lines, scoped to the clinic.
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Prescription, error)

	UpdateStatus(ctx context.Context, clinicID, id uuid.UUID, status Status) error

	// ListActive returns prescriptions in PRESCRIT or PARTIELLEMENT_DISPENSE
	// with at least one open line, oldest first so the longest-waiting
	// prescriptions are served before newer ones.
	ListActive(ctx context.Context, clinicID uuid.UUID, patientID *uuid.UUID) ([]*Prescription, error)

	List(ctx context.Context, q *ListPrescriptionsQuery) (*PagedPrescriptions, error)

	// LastNumberWithPrefix returns the highest numero_ordonnance starting
	// with prefix, or "" when none exists. Used for sequence generation.
	LastNumberWithPrefix(ctx context.Context, prefix string) (string, error)
}
