package pricing

import (
	"time"

	"github.com/google/uuid"
)

// BillableService is a catalogue entry with its default tariff, shared by
// all clinics. Medications reference their catalogue entry by id.
type BillableService struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Code        string `gorm:"column:code;type:varchar(30);uniqueIndex;not null"`
	Nom         string `gorm:"column:nom;type:varchar(255);not null"`
	TypeService string `gorm:"column:type_service;type:varchar(50);not null;index"`
	// Whole currency units.
	TarifDefaut int64  `gorm:"column:tarif_defaut;not null;default:0"`
	Unite       string `gorm:"column:unite;type:varchar(30);not null;default:'acte'"`

	Actif bool `gorm:"column:actif;default:true;index"`
}

func (BillableService) TableName() string {
	return "billing.services_facturables"
}

// ClinicPricing is a per-clinic tariff override. When present and active
// it wins over the catalogue default.
type ClinicPricing struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	ClinicID  uuid.UUID `gorm:"column:clinic_id;type:uuid;not null;uniqueIndex:idx_clinic_service"`
	ServiceID uuid.UUID `gorm:"column:service_id;type:uuid;not null;uniqueIndex:idx_clinic_service"`

	TarifBase int64  `gorm:"column:tarif_base;not null"`
	Unite     string `gorm:"column:unite;type:varchar(30);not null;default:'acte'"`
	Active    bool   `gorm:"column:active;default:true"`
}

func (ClinicPricing) TableName() string {
	return "billing.clinic_pricing"
}

// Source identifies which tariff won the resolution.
type Source string

const (
	SourceClinic  Source = "clinic"
	SourceDefault Source = "default"
)

// Resolved is the outcome of a tariff lookup for a clinic and service.
type Resolved struct {
	Tarif  int64  `json:"tarif"`
	Source Source `json:"source"`
	Unite  string `json:"unite"`
}

type UpsertPricingCommand struct {
	ClinicID  uuid.UUID
	ServiceID uuid.UUID
	TarifBase int64
	Unite     string
	Active    bool
}
