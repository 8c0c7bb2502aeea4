package station

import "errors"

// Sentinel errors for station payload handling. Check with errors.Is().
var (
	// ErrBadPayload indicates a payload that could not be decoded into a record.
	ErrBadPayload = errors.New("station: bad payload")
)
