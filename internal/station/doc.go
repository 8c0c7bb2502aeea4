// Package station models the weather-station side of the uplink: the
// observation record, the loop/archive event streams, and the decoding
// of the JSON payloads the station software publishes over MQTT.
//
// # Records
//
// A Record carries a capture timestamp, the unit system of its values,
// an optional binding stamp, and the observation fields in the order
// the station emitted them. Field order is part of the contract: the
// line-protocol encoder iterates it directly, so identical payloads
// always produce identical output.
//
// # Events
//
// The Dispatcher replaces the station engine's event binding: MQTT
// message callbacks decode the payload and Dispatch a NewLoopPacket or
// NewArchiveRecord event; delivery workers Bind to the streams their
// destination is configured for.
package station
