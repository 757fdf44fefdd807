package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Sexe string

const (
	SexeMasculin Sexe = "M"
	SexeFeminin  Sexe = "F"
	SexeInconnu  Sexe = "X"
)

func (s Sexe) IsValid() bool {
	switch s {
	case SexeMasculin, SexeFeminin, SexeInconnu:
		return true
	}
	return false
}

// Status represents the lifecycle state of a patient record.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusDeceased Status = "deceased"
)

type ContactInfo struct {
	Phone   string `gorm:"column:phone;type:varchar(20)"`
	Email   string `gorm:"column:email;type:varchar(255)"`
	Address string `gorm:"column:address;type:text"`
	City    string `gorm:"column:city;type:varchar(100)"`
	Country string `gorm:"column:country;type:varchar(100)"`
}

// Coverage is the patient's tiers-payant arrangement: which insurer pays,
// what share of the bill it covers and up to which cap.
type Coverage struct {
	AssuranceID  *uuid.UUID `gorm:"column:assurance_id;type:uuid;index"`
	AssuranceNom string     `gorm:"column:assurance_nom;type:varchar(255)"`
	// Percentage 0-100 of each bill covered by the insurer.
	TauxCouverture int `gorm:"column:taux_couverture;default:0"`
	// Optional cap in whole currency units; nil means uncapped.
	Plafond *int64 `gorm:"column:plafond"`
}

// Covered reports whether an insurer actually pays a share.
func (c Coverage) Covered() bool {
	return c.AssuranceID != nil && c.TauxCouverture > 0
}

type Patient struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"` // Soft delete

	ClinicID uuid.UUID `gorm:"column:clinic_id;type:uuid;not null;index"`

	// Identifiant is the clinic-visible patient number (e.g. PAT-2026-0042).
	Identifiant   string    `gorm:"column:identifiant;type:varchar(30);uniqueIndex;not null"`
	Nom           string    `gorm:"column:nom;type:varchar(100);not null"`
	Prenoms       string    `gorm:"column:prenoms;type:varchar(100);not null"`
	DateNaissance time.Time `gorm:"column:date_naissance;not null"`
	Sexe          Sexe      `gorm:"column:sexe;type:varchar(1);not null"`

	ContactInfo
	Coverage

	Status Status `gorm:"column:status;type:varchar(20);default:'active';index"`
	Notes  string `gorm:"column:notes;type:text"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Patient) TableName() string {
	return "clinical.patients"
}

func (p *Patient) FullName() string {
	return strings.TrimSpace(p.Nom + " " + p.Prenoms)
}

func (p *Patient) Age() int {
	now := time.Now()
	years := now.Year() - p.DateNaissance.Year()
	if now.Month() < p.DateNaissance.Month() ||
		(now.Month() == p.DateNaissance.Month() && now.Day() < p.DateNaissance.Day()) {
		years--
	}
	return years
}

func (p *Patient) IsActive() bool {
	return p.Status == StatusActive && p.DeletedAt == nil
}

func (p *Patient) Deactivate() error {
	if p.Status == StatusDeceased {
		return ErrPatientDeceased
	}
	p.Status = StatusInactive
	return nil
}

type CreatePatientCommand struct {
	ClinicID      uuid.UUID
	Identifiant   string
	Nom           string
	Prenoms       string
	DateNaissance time.Time
	Sexe          Sexe
	Phone         string
	Email         string
	Address       string
	City          string
	Country       string
	Coverage      Coverage
	Notes         string
	CreatedBy     uuid.UUID
}

type UpdatePatientCommand struct {
	Nom      *string
	Prenoms  *string
	Sexe     *Sexe
	Phone    *string
	Email    *string
	Address  *string
	City     *string
	Country  *string
	Coverage *Coverage
	Notes    *string
}

// ListPatientsQuery defines filtering and pagination for patient list queries.
type ListPatientsQuery struct {
	ClinicID uuid.UUID
	Search   string // Matches identifiant, nom or prenoms
	Status   *Status
	Page     int
	PageSize int
}

type PagedPatients struct {
	Patients   []*Patient
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
