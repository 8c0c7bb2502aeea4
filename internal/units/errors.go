package units

import "errors"

// Sentinel errors for unit handling. Check with errors.Is().
var (
	// ErrUnknownSystem indicates an unrecognised unit system name or code.
	ErrUnknownSystem = errors.New("units: unknown unit system")

	// ErrNoConversion indicates no conversion exists between two units.
	ErrNoConversion = errors.New("units: no conversion")
)
