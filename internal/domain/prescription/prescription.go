package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Status of a prescription. The values are the strings persisted by the
// clinical record and must not be renamed.
type Status string

const (
	// StatusPrescrit: issued, nothing dispensed yet.
	StatusPrescrit Status = "PRESCRIT"
	// StatusPartiel: at least one line has progress, not all complete.
	StatusPartiel Status = "PARTIELLEMENT_DISPENSE"
	// StatusDispense: every line fully dispensed.
	StatusDispense Status = "DISPENSE"
	// StatusAnnule is set externally (prescriber cancellation) and is
	// terminal: it is never derived from line states and excludes the
	// prescription from dispensing regardless of remaining quantities.
	StatusAnnule Status = "ANNULE"
)

type Line struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PrescriptionID uuid.UUID `gorm:"column:prescription_id;type:uuid;not null;index"`
	MedicamentID   uuid.UUID `gorm:"column:medicament_id;type:uuid;not null;index"`
	NomMedicament  string    `gorm:"column:nom_medicament;type:varchar(255);not null"`
	Posologie      string    `gorm:"column:posologie;type:varchar(255)"`
	Ordre          int       `gorm:"column:ordre;default:0"`

	// Invariant: 0 <= QuantiteDispensee <= QuantiteTotale.
	QuantiteTotale    int `gorm:"column:quantite_totale;not null"`
	QuantiteDispensee int `gorm:"column:quantite_dispensee;default:0"`
}

func (Line) TableName() string {
	return "clinical.prescription_lines"
}

// Remaining is the quantity still to be dispensed on this line.
func (l *Line) Remaining() int {
	return l.QuantiteTotale - l.QuantiteDispensee
}

// Open reports whether the line still has quantity to dispense.
func (l *Line) Open() bool {
	return l.Remaining() > 0
}

// Complete reports whether the line has been fully dispensed.
func (l *Line) Complete() bool {
	return l.QuantiteDispensee >= l.QuantiteTotale
}

type Prescription struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	ClinicID uuid.UUID `gorm:"column:clinic_id;type:uuid;not null;index"`

	NumeroOrdonnance string    `gorm:"column:numero_ordonnance;type:varchar(30);uniqueIndex;not null"`
	DatePrescription time.Time `gorm:"column:date_prescription;not null;index"`
	ConsultationID   uuid.UUID `gorm:"column:consultation_id;type:uuid;not null;index"`
	PatientID        uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	PrescripteurID   uuid.UUID `gorm:"column:prescripteur_id;type:uuid;not null"`
	PrescripteurNom  string    `gorm:"column:prescripteur_nom;type:varchar(255)"`

	Status Status `gorm:"column:statut;type:varchar(30);not null;default:'PRESCRIT';index"`

	Lines []Line `gorm:"foreignKey:PrescriptionID"`
}

func (Prescription) TableName() string {
	return "clinical.prescriptions"
}

// DeriveStatus computes the status implied by the line quantities.
// It never yields StatusAnnule: cancellation is an external, terminal act.
// The derivation is idempotent by construction.
func (p *Prescription) DeriveStatus() Status {
	if p.Status == StatusAnnule {
		return StatusAnnule
	}

	complete := 0
	anyProgress := false
	for i := range p.Lines {
		if p.Lines[i].Complete() {
			complete++
		}
		if p.Lines[i].QuantiteDispensee > 0 {
			anyProgress = true
		}
	}

	switch {
	case len(p.Lines) > 0 && complete == len(p.Lines):
		return StatusDispense
	case anyProgress:
		return StatusPartiel
	default:
		return StatusPrescrit
	}
}

// Dispensable reports whether the prescription can still be dispensed
// against: not cancelled, not complete, with at least one open line.
func (p *Prescription) Dispensable() bool {
	if p.Status != StatusPrescrit && p.Status != StatusPartiel {
		return false
	}
	for i := range p.Lines {
		if p.Lines[i].Open() {
			return true
		}
	}
	return false
}

// AgeDays is the prescription age in whole days, rounded up: a
// prescription dated 6.5 days ago is 7 days old.
func (p *Prescription) AgeDays(now time.Time) int {
	elapsed := now.Sub(p.DatePrescription)
	days := int(elapsed.Hours() / 24)
	if elapsed > time.Duration(days)*24*time.Hour {
		days++
	}
	return days
}

// TooOld reports whether the prescription exceeds the dispensing window.
func (p *Prescription) TooOld(now time.Time, maxAgeDays int) bool {
	return p.AgeDays(now) > maxAgeDays
}

// LineByID returns the line with the given id, or nil.
func (p *Prescription) LineByID(id uuid.UUID) *Line {
	for i := range p.Lines {
		if p.Lines[i].ID == id {
			return &p.Lines[i]
		}
	}
	return nil
}

type CreateLineInput struct {
	MedicamentID   uuid.UUID
	NomMedicament  string
	Posologie      string
	QuantiteTotale int
}

type CreatePrescriptionCommand struct {
	ClinicID        uuid.UUID
	ConsultationID  uuid.UUID
	PatientID       uuid.UUID
	PrescripteurID  uuid.UUID
	PrescripteurNom string
	Lines           []CreateLineInput
}

type ListPrescriptionsQuery struct {
	ClinicID  uuid.UUID
	PatientID *uuid.UUID
	Status    *Status
	Page      int
	PageSize  int
}

type PagedPrescriptions struct {
	Prescriptions []*Prescription
	TotalCount    int64
	Page          int
	PageSize      int
	TotalPages    int
}
