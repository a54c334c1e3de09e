package costmodel

import "errors"

// Sentinel errors for cost computations.
// They indicate caller mistakes and are never caused by remote state.
var (
	ErrInvalidCadence  = errors.New("invalid refresh cadence")
	ErrInvalidVolume   = errors.New("invalid volume")
	ErrInvalidScenario = errors.New("invalid retry scenario")
	ErrInvalidChannel  = errors.New("invalid channel")
	ErrDivisionByZero  = errors.New("division by zero")
)
