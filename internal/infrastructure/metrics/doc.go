// Package metrics exposes delivery counters as Prometheus series.
//
// One Set is registered at startup; each delivery worker holds a
// Destination view curried to its own label so hot-path increments do
// not touch the label lookup. The status API serves the registry on
// /metrics.
package metrics
