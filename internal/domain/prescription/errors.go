package prescription

import "errors"

var (
	ErrPrescriptionNotFound = errors.New("prescription not found")
	ErrLineNotFound         = errors.New("prescription line not found")
	ErrNoLines              = errors.New("prescription must have at least one line")
	ErrInvalidQuantity      = errors.New("prescribed quantity must be positive")
	ErrDuplicateNumber      = errors.New("numero ordonnance already exists")
	ErrAlreadyCancelled     = errors.New("prescription is already cancelled")
)
