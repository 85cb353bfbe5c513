package model

import "errors"

var (
	// ErrInvalidFill marks a fill that cannot take part in matching.
	ErrInvalidFill = errors.New("invalid fill")
	// ErrInvalidSpec marks a contract spec with a non-positive tick size or tick value.
	ErrInvalidSpec = errors.New("invalid contract spec")
	// ErrUnknownInstrument is a warning: the default contract spec was applied.
	ErrUnknownInstrument = errors.New("unknown instrument")
)
