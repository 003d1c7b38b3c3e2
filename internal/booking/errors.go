package booking

import (
	"errors"
	"fmt"
	"strings"

	"carspa/internal/models"
)

var (
	// ErrValidationIncomplete means the current step still has required fields missing.
	ErrValidationIncomplete = errors.New("validation incomplete")
	// ErrPreconditionViolation is a caller bug, e.g. submitting before the review step.
	ErrPreconditionViolation = errors.New("precondition violation")
	ErrUnknownField          = errors.New("unknown field")
	ErrInvalidField          = errors.New("invalid field value")
	ErrSessionCompleted      = errors.New("booking already submitted")
)

// IncompleteError lists the fields that block leaving a step.
type IncompleteError struct {
	Step    models.Step
	Missing []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%s: step %s requires %s", ErrValidationIncomplete, e.Step, strings.Join(e.Missing, ", "))
}

func (e *IncompleteError) Unwrap() error {
	return ErrValidationIncomplete
}
