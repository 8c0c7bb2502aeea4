// Package deadletter spools abandoned records to a local SQLite file.
//
// A record that exhausts its delivery retries is gone as far as the
// destination is concerned; the spool keeps its encoded payload, the
// failure reason, and timestamps so an operator can inspect what was
// lost and replay it by hand if it matters. The spool is optional:
// without it, abandoned records are only logged.
package deadletter
