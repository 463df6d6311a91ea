/*
errors.go - Centralized error types for the schedule engine

PURPOSE:
  All validation failures in one place. The orchestrator catches these and
  converts them to diagnostic schedule rows; only a direct Validate call
  (e.g. from a form-editing UI) ever sees them as errors.

USAGE:
  err := eng.Validate(contract)
  if errors.Is(err, engine.ErrInvalidValue) { ... }

  var verr *engine.ValidationError
  if errors.As(err, &verr) { fmt.Println(verr.Field) }
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingField is returned when a required field is absent or blank.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidValue is returned when the total contract value is not a
	// positive number.
	ErrInvalidValue = errors.New("contract value must be a positive number")

	// ErrInvalidDateFormat is returned when a supplied (non-sentinel) date
	// is not in YYYY-MM-DD form.
	ErrInvalidDateFormat = errors.New("invalid date format, expected YYYY-MM-DD")

	// ErrInvalidDateOrder is returned when the start date is not strictly
	// before the end date.
	ErrInvalidDateOrder = errors.New("contract start date must be before end date")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError reports which contract field failed validation and why.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid contract data: %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func validationErr(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidationError reports whether err originated from contract validation.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
