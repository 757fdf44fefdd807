package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new patient. Returns ErrPatientAlreadyExists on duplicate Identifiant.
	Create(ctx context.Context, p *Patient) error

	// GetByID retrieves a patient by primary key, scoped to the clinic.
	// Returns ErrPatientNotFound if missing or owned by another clinic.
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Patient, error)

	// GetByIdentifiant retrieves a patient by the clinic-visible number.
	GetByIdentifiant(ctx context.Context, clinicID uuid.UUID, identifiant string) (*Patient, error)

	// Update applies partial updates to an existing patient record.
	Update(ctx context.Context, clinicID, id uuid.UUID, cmd *UpdatePatientCommand) (*Patient, error)

	// SoftDelete marks the patient as deleted (records are retained).
	SoftDelete(ctx context.Context, clinicID, id uuid.UUID) error

	// List returns a paginated, filtered list of patients.
	List(ctx context.Context, q *ListPatientsQuery) (*PagedPatients, error)
}
