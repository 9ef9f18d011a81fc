package progress

import "errors"

// Lookup failures. Both also match database.ErrNotFound.
var (
	ErrUnknownUser  = errors.New("unknown user")
	ErrUnknownDrill = errors.New("unknown drill")
)

// FieldError is used to indicate an error with a specific input field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is returned when caller input is rejected before any state changes.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err *ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func (err *ValidationError) Unwrap() error {
	return err.Err
}
