package pharmacy

import (
	"time"

	"github.com/google/uuid"
)

type LotStatus string

const (
	LotActif   LotStatus = "actif"
	LotInactif LotStatus = "inactif"
	LotExpire  LotStatus = "expire"
	// LotQuarantaine: received already expired, blocked from dispensing.
	LotQuarantaine LotStatus = "quarantaine"
)

// Product is a medication reference in the pharmacy catalogue.
type Product struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	ClinicID uuid.UUID `gorm:"column:clinic_id;type:uuid;not null;index"`

	Code     string `gorm:"column:code;type:varchar(30);index"`
	Nom      string `gorm:"column:nom;type:varchar(255);not null;index"`
	Dosage   string `gorm:"column:dosage;type:varchar(50)"`
	Forme    string `gorm:"column:forme;type:varchar(50)"`
	Unite    string `gorm:"column:unite;type:varchar(30)"`
	MinStock int    `gorm:"column:min_stock;default:0"`

	Active bool `gorm:"column:active;default:true;index"`
}

func (Product) TableName() string {
	return "pharmacy.products"
}

// Lot is a batch of a medication with its own expiration and quantity.
// QuantiteDisponible is the only shared mutable quantity in the system;
// its sole mutator is the guarded decrement in the lot repository.
type Lot struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	ClinicID     uuid.UUID `gorm:"column:clinic_id;type:uuid;not null;index"`
	MedicamentID uuid.UUID `gorm:"column:medicament_id;type:uuid;not null;index"`

	NumeroLot string `gorm:"column:numero_lot;type:varchar(50);not null;index"`
	// Invariant: never negative.
	QuantiteDisponible int       `gorm:"column:quantite_disponible;not null;default:0"`
	DateExpiration     time.Time `gorm:"column:date_expiration;not null;index"`
	PrixUnitaire       int64     `gorm:"column:prix_unitaire;not null;default:0"`
	Source             string    `gorm:"column:source;type:varchar(255)"`

	Status LotStatus `gorm:"column:statut;type:varchar(20);not null;default:'actif';index"`
}

func (Lot) TableName() string {
	return "pharmacy.lots"
}

// Expired reports whether the lot is past its expiration date.
func (l *Lot) Expired(now time.Time) bool {
	return now.After(l.DateExpiration)
}

// DaysToExpiry is the number of whole days until expiration, rounded up.
// Negative for already-expired lots.
func (l *Lot) DaysToExpiry(now time.Time) int {
	remaining := l.DateExpiration.Sub(now)
	days := int(remaining.Hours() / 24)
	if remaining > time.Duration(days)*24*time.Hour {
		days++
	}
	return days
}

// Availability is the result of a stock check against a lot.
type Availability struct {
	Sufficient   bool
	Expired      bool
	DaysToExpiry int
	// NearExpiry is a non-blocking warning: the lot is usable but expires
	// within the configured window.
	NearExpiry bool
	Available  int
}

// CheckAvailability applies the availability rules to a lot snapshot.
// A lot satisfies a request iff it holds enough quantity AND is not
// expired; a near-expiry lot remains usable but is flagged.
func (l *Lot) CheckAvailability(qty int, now time.Time, nearExpiryDays int) Availability {
	expired := l.Expired(now) || l.Status == LotExpire || l.Status == LotQuarantaine
	days := l.DaysToExpiry(now)
	return Availability{
		Sufficient:   !expired && l.QuantiteDisponible >= qty,
		Expired:      expired,
		DaysToExpiry: days,
		NearExpiry:   !expired && days > 0 && days < nearExpiryDays,
		Available:    l.QuantiteDisponible,
	}
}

type MovementType string

const (
	MovementDispensation MovementType = "dispensation"
	MovementReception    MovementType = "reception"
	MovementAjustement   MovementType = "ajustement"
)

// StockMovement is an immutable ledger entry. Movements are never updated
// or deleted; corrections create new adjustment entries.
type StockMovement struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	ClinicID     uuid.UUID `gorm:"column:clinic_id;type:uuid;not null;index"`
	MedicamentID uuid.UUID `gorm:"column:medicament_id;type:uuid;not null;index"`
	LotID        uuid.UUID `gorm:"column:lot_id;type:uuid;not null;index"`

	Type     MovementType `gorm:"column:type;type:varchar(20);not null"`
	Quantite int          `gorm:"column:quantite;not null"`
	// Before/after snapshot of the lot quantity.
	QuantiteAvant int    `gorm:"column:quantite_avant;not null"`
	QuantiteApres int    `gorm:"column:quantite_apres;not null"`
	Motif         string `gorm:"column:motif;type:varchar(255)"`
	// Reference to the originating document (numero dispensation, lot number…).
	Reference     string    `gorm:"column:reference;type:varchar(50);index"`
	UtilisateurID uuid.UUID `gorm:"column:utilisateur_id;type:uuid;not null"`
}

func (StockMovement) TableName() string {
	return "pharmacy.stock_movements"
}

type CreateLotCommand struct {
	ClinicID       uuid.UUID
	MedicamentID   uuid.UUID
	NumeroLot      string
	Quantite       int
	PrixUnitaire   int64
	DateExpiration time.Time
	Source         string
	CreatedBy      uuid.UUID
}

// StockAlerts summarises the pharmacy dashboard indicators.
type StockAlerts struct {
	ExpiredLots    []*Lot
	NearExpiryLots []*Lot
	OutOfStock     []ProductStock
	LowStock       []ProductStock
}

// ProductStock is the aggregate available quantity of a product across
// its usable lots.
type ProductStock struct {
	ProductID uuid.UUID
	Code      string
	Nom       string
	Quantite  int
	MinStock  int
}
