package billing

import (
	"errors"
	"fmt"
)

var (
	ErrTicketNotFound   = errors.New("billing ticket not found")
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrNoTickets        = errors.New("invoice requires at least one pending ticket")
	ErrDuplicateNumero  = errors.New("invoice numero already exists")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvoiceCancelled = errors.New("invoice is cancelled")
	ErrOverpayment      = errors.New("payment exceeds the remaining balance")
)

const CodeTicketCreationFailed = "TICKET_CREATION_FAILED"

// IntegrationError reports a side-effect failure that must not undo the
// clinical event that triggered it. It is surfaced for manual retry.
type IntegrationError struct {
	Code    string
	Message string
	Err     error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *IntegrationError) Unwrap() error {
	return e.Err
}

func NewIntegrationError(code, message string, err error) *IntegrationError {
	return &IntegrationError{Code: code, Message: message, Err: err}
}
