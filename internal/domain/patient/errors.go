package patient

import "errors"

var (
	ErrPatientNotFound      = errors.New("patient not found")
	ErrPatientAlreadyExists = errors.New("patient with this identifiant already exists")
	ErrPatientDeceased      = errors.New("operation not permitted: patient is deceased")
	ErrInvalidSexe          = errors.New("invalid sexe value")
	ErrInvalidDateNaissance = errors.New("date of birth cannot be in the future")
	ErrInvalidCoverage      = errors.New("taux de couverture must be between 0 and 100")
)
