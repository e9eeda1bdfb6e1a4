package sim

import "errors"

// Failures that abort a simulation run. Callers match them with errors.Is.
var (
	ErrMissingPrice     = errors.New("no price at trade timestamp")
	ErrInvalidTimeOrder = errors.New("event timestamp precedes previous event")
	ErrDivisionByZero   = errors.New("division by zero")
	ErrConfiguration    = errors.New("invalid simulator configuration")
)
