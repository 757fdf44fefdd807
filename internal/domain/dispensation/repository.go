package dispensation

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Dispensation) error

	// GetByID loads a dispensation with its lines, scoped to the clinic.
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Dispensation, error)

	AddLine(ctx context.Context, line *Line) error

	UpdateStatus(ctx context.Context, clinicID, id uuid.UUID, status Status) error

	// Finalize persists the terminee transition atomically: in a single
	// transaction it decrements every referenced lot with the guarded
	// update, writes the stock movements, increments the prescription
	// lines' dispensed quantities, recomputes and stores the prescription
	// status, and saves the dispensation amounts and status. If any lot
	// decrement fails the whole transaction rolls back and the error of
	// the failing decrement is returned; no partial decrement survives.
	Finalize(ctx context.Context, d *Dispensation) error

	List(ctx context.Context, q *ListDispensationsQuery) (*PagedDispensations, error)

	// LastNumberWithPrefix returns the highest numero_dispensation starting
	// with prefix, or "" when none exists.
	LastNumberWithPrefix(ctx context.Context, prefix string) (string, error)
}
