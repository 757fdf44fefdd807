package service

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var ErrForbidden = errors.New("forbidden: insufficient permissions")

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

// Caller identifies the authenticated user on whose behalf a service
// operation runs. ClinicID scopes every query the operation issues.
type Caller struct {
	UserID   uuid.UUID
	ClinicID uuid.UUID
	Role     string
	IP       string
}

type AuditEntry struct {
	ClinicID     uuid.UUID
	UserID       uuid.UUID
	UserRole     string
	Action       string
	ResourceType string
	ResourceID   string
	IPAddress    string
	RequestID    string
	StatusCode   int
	Changes      string
}
