package dispensation

import (
	"time"

	"github.com/google/uuid"
)

// Status of a dispensation. Forward-only: en_cours → terminee → validee,
// with cancellation allowed only while en_cours.
type Status string

const (
	StatusEnCours  Status = "en_cours"
	StatusTerminee Status = "terminee"
	StatusValidee  Status = "validee"
	StatusAnnulee  Status = "annulee"
)

var transitions = map[Status][]Status{
	StatusEnCours:  {StatusTerminee, StatusAnnulee},
	StatusTerminee: {StatusValidee},
	StatusValidee:  {},
	StatusAnnulee:  {},
}

// CanTransition reports whether moving from s to next is a legal step of
// the dispensation state machine.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

type Line struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	DispensationID     uuid.UUID `gorm:"column:dispensation_id;type:uuid;not null;index"`
	PrescriptionLineID uuid.UUID `gorm:"column:prescription_line_id;type:uuid;not null;index"`
	MedicamentID       uuid.UUID `gorm:"column:medicament_id;type:uuid;not null"`
	NomMedicament      string    `gorm:"column:nom_medicament;type:varchar(255)"`

	LotID          uuid.UUID `gorm:"column:lot_id;type:uuid;not null;index"`
	NumeroLot      string    `gorm:"column:numero_lot;type:varchar(50)"`
	DateExpiration time.Time `gorm:"column:date_expiration"`

	QuantiteDelivree int   `gorm:"column:quantite_delivree;not null"`
	PrixUnitaire     int64 `gorm:"column:prix_unitaire;not null"`
	PrixTotal        int64 `gorm:"column:prix_total;not null"`
}

func (Line) TableName() string {
	return "pharmacy.dispensation_lignes"
}

type Dispensation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	ClinicID uuid.UUID `gorm:"column:clinic_id;type:uuid;not null;index"`

	NumeroDispensation string    `gorm:"column:numero_dispensation;type:varchar(30);uniqueIndex;not null"`
	DateDispensation   time.Time `gorm:"column:date_dispensation;not null"`

	PrescriptionID uuid.UUID `gorm:"column:prescription_id;type:uuid;not null;index"`
	PatientID      uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	UtilisateurID  uuid.UUID `gorm:"column:utilisateur_id;type:uuid;not null"`

	Status Status `gorm:"column:statut;type:varchar(20);not null;default:'en_cours';index"`

	// Amounts in whole currency units (XOF has no subunits). Invariant:
	// MontantAssurance + MontantPatient == MontantTotal.
	MontantTotal     int64 `gorm:"column:montant_total;not null;default:0"`
	MontantAssurance int64 `gorm:"column:montant_assurance;not null;default:0"`
	MontantPatient   int64 `gorm:"column:montant_patient;not null;default:0"`

	// Payer snapshot taken at finalize time.
	AssuranceID  *uuid.UUID `gorm:"column:assurance_id;type:uuid"`
	AssuranceNom string     `gorm:"column:assurance_nom;type:varchar(255)"`

	Observations string `gorm:"column:observations;type:text"`

	Lines []Line `gorm:"foreignKey:DispensationID"`
}

func (Dispensation) TableName() string {
	return "pharmacy.dispensations"
}

// Coverage is the tiers-payant context supplied at finalize time.
type Coverage struct {
	AssuranceID  *uuid.UUID
	AssuranceNom string
	// TauxCouverture is the insurer's share in percent, 0-100.
	TauxCouverture int
	// Plafond caps the insurer's share; nil means uncapped.
	Plafond *int64
}

// Split divides total between insurer and patient. The insurer share is
// total*taux/100 rounded half-up on the whole currency unit, then capped
// by plafond; the patient absorbs the rounding remainder so the two
// shares always sum to total exactly.
func (c Coverage) Split(total int64) (assurance, patient int64) {
	if c.AssuranceID == nil || c.TauxCouverture <= 0 || total <= 0 {
		return 0, total
	}

	taux := int64(c.TauxCouverture)
	if taux > 100 {
		taux = 100
	}

	assurance = (total*taux + 50) / 100 // round half-up
	if c.Plafond != nil && *c.Plafond >= 0 && assurance > *c.Plafond {
		assurance = *c.Plafond
	}
	if assurance > total {
		assurance = total
	}
	return assurance, total - assurance
}

// TotalAmount sums the line totals.
func (d *Dispensation) TotalAmount() int64 {
	var total int64
	for i := range d.Lines {
		total += d.Lines[i].PrixTotal
	}
	return total
}

type AddLineCommand struct {
	PrescriptionLineID uuid.UUID
	LotID              uuid.UUID
	Quantite           int
}

type ListDispensationsQuery struct {
	ClinicID  uuid.UUID
	PatientID *uuid.UUID
	Status    *Status
	Page      int
	PageSize  int
}

type PagedDispensations struct {
	Dispensations []*Dispensation
	TotalCount    int64
	Page          int
	PageSize      int
	TotalPages    int
}
