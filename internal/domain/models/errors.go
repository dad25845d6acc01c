package models

import "errors"

// Domain error kinds. Callers match them with errors.Is and map them to
// metric labels and log levels at the edges.
var (
	ErrInsufficientData  = errors.New("insufficient data")
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrDuplicateBar      = errors.New("duplicate bar event")
	ErrMalformedBar      = errors.New("malformed bar event")
	ErrStaleConfirmation = errors.New("stale confirmation data")
)

// ErrorKind returns the metric label for a domain error. Errors outside the
// domain set report as "internal".
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, ErrDuplicateBar):
		return "duplicate_bar"
	case errors.Is(err, ErrMalformedBar):
		return "malformed_bar"
	case errors.Is(err, ErrStaleConfirmation):
		return "stale_confirmation"
	default:
		return "internal"
	}
}
