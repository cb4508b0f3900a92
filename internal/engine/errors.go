package engine

import "errors"

// Error kinds surfaced by the engine. Callers match them with errors.Is; the
// wrapped message names the offending identifier or constraint.
var (
	ErrValidation     = errors.New("validation error")
	ErrNotFound       = errors.New("not found")
	ErrInvalidPayment = errors.New("invalid payment")
)
