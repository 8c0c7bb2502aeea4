package uplink

import "errors"

// Sentinel errors for delivery. Check with errors.Is().
var (
	// ErrDeliveryFailed indicates a transient delivery failure. The worker
	// retries up to max_tries, then abandons the record and moves on.
	ErrDeliveryFailed = errors.New("uplink: delivery failed")

	// ErrFatalDelivery indicates a failure that can never succeed, such as
	// a missing bucket. The worker stops processing entirely; fixing the
	// configuration and restarting is the only recovery.
	ErrFatalDelivery = errors.New("uplink: fatal delivery failure")
)
