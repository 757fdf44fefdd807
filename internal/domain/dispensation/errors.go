package dispensation

import (
	"errors"
	"fmt"
)

var (
	ErrDispensationNotFound = errors.New("dispensation not found")
	ErrNoLines              = errors.New("dispensation has no lines")
	ErrInvalidQuantity      = errors.New("delivered quantity must be positive")
)

// Business rule codes, stable across API versions.
const (
	CodePrescriptionCancelled  = "PRESCRIPTION_CANCELLED"
	CodePrescriptionTooOld     = "PRESCRIPTION_TOO_OLD"
	CodeNothingToDispense      = "NOTHING_TO_DISPENSE"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeQuantityExceedsRemains = "QUANTITY_EXCEEDS_REMAINING"
)

// BusinessRuleError is a rejected operation with a stable code the
// calling layer can render.
type BusinessRuleError struct {
	Code    string
	Message string
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewBusinessRuleError(code, message string) *BusinessRuleError {
	return &BusinessRuleError{Code: code, Message: message}
}

// InvalidTransition builds the error for an illegal state-machine step.
func InvalidTransition(from, to Status) *BusinessRuleError {
	return &BusinessRuleError{
		Code:    CodeInvalidStateTransition,
		Message: fmt.Sprintf("cannot transition dispensation from %s to %s", from, to),
	}
}
