package pricing

import "errors"

var (
	ErrServiceNotFound = errors.New("billable service not found")
	ErrServiceInactive = errors.New("billable service is inactive")
	ErrInvalidTariff   = errors.New("tariff must not be negative")
)
