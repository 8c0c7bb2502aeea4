// Package uplink implements the record-to-wire pipeline: per-field
// templates, line-protocol encoding, and the background delivery
// worker that writes observation records to an InfluxDB v2 write API.
//
// # Pipeline
//
// Each configured destination runs one Worker. The binding adapter
// (BindTo) subscribes the worker to the station's loop and archive
// event streams; records are cloned, stamped with their binding, and
// enqueued without blocking the producer. The worker dequeues, applies
// staleness and backlog policy, encodes, and posts with bounded
// retries:
//
//	station events -> queue -> worker -> encoder -> poster -> InfluxDB
//
// # Failure handling
//
// Failures are absorbed at the lowest level possible. A field that
// cannot be converted or formatted is skipped; a record that exhausts
// its retries is abandoned (and spooled when a dead-letter store is
// configured); only a fatal classification, the server reporting that
// the bucket or database does not exist, stops the worker, since no
// retry will ever succeed. The station feed is never blocked or
// crashed by delivery failures.
//
// # Posters
//
// Delivery goes through the Poster interface. HTTPPoster posts line
// protocol directly; ClientPoster uses the InfluxDB client library and
// synthesizes a 204 outcome on success. Classification works on the
// reduced Outcome value so both look the same to the worker.
package uplink
