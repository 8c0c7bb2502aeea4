// Package units carries the weather unit knowledge the encoder needs.
//
// Station software stamps every record with a unit system (US, METRIC,
// or METRICWX via the usUnits field). Each known observation name maps
// to a unit group (temperature, pressure, speed, ...), each system
// assigns every group a standard unit, and each unit reduces to a short
// label used as a field-name suffix (degree_F -> "F"). Dimensionless
// units such as percent and compass degrees have no suffix.
//
// Convert handles the pairwise conversions between the units the
// standard tables can produce. Everything here is pure table lookup;
// the package performs no I/O and holds no mutable state.
package units
