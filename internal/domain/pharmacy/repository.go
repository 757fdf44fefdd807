package pharmacy

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Product, error)
	Update(ctx context.Context, p *Product) error
	// List returns active products matching the search term on code or nom.
	List(ctx context.Context, clinicID uuid.UUID, search string) ([]*Product, error)
	// StockByProduct aggregates available quantity across usable lots.
	StockByProduct(ctx context.Context, clinicID uuid.UUID) ([]ProductStock, error)
}

type LotRepository interface {
	Create(ctx context.Context, lot *Lot) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Lot, error)
	ExistsByNumero(ctx context.Context, clinicID, medicamentID uuid.UUID, numeroLot string) (bool, error)

	// ListAvailable returns usable lots of a medication ordered by
	// expiration ascending (FEFO) so the earliest-expiring lot is
	// dispensed first.
	ListAvailable(ctx context.Context, clinicID, medicamentID uuid.UUID) ([]*Lot, error)

	ListExpired(ctx context.Context, clinicID uuid.UUID, asOf time.Time) ([]*Lot, error)
	ListNearExpiry(ctx context.Context, clinicID uuid.UUID, asOf time.Time, withinDays int) ([]*Lot, error)

	// Decrement atomically subtracts qty from the lot's available quantity.
	// The subtraction and the availability re-check are a single guarded
	// UPDATE (quantite_disponible >= qty); it returns ErrInsufficientStock
	// when the guard fails and ErrLotNotFound when the lot is unknown, so
	// two concurrent dispensations can never drive the quantity negative.
	Decrement(ctx context.Context, clinicID, lotID uuid.UUID, qty int) (*Lot, error)

	// Adjust applies a signed correction to the lot quantity under the
	// same non-negative guard as Decrement.
	Adjust(ctx context.Context, clinicID, lotID uuid.UUID, delta int) (*Lot, error)

	UpdateStatus(ctx context.Context, clinicID, lotID uuid.UUID, status LotStatus) error
}

type MovementRepository interface {
	Create(ctx context.Context, m *StockMovement) error
	List(ctx context.Context, clinicID uuid.UUID, lotID *uuid.UUID, limit int) ([]*StockMovement, error)
}
