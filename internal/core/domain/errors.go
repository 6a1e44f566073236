package domain

import (
	"errors"
	"fmt"
)

// ErrValidation marks malformed input. Wrap it with NewValidationError so the
// HTTP boundary can surface the violated constraint to the caller.
var ErrValidation = errors.New("invalid input")

// NewValidationError returns an error that matches ErrValidation via
// errors.Is and carries a description of the violated constraint.
func NewValidationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
