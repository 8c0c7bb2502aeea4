package units

import "fmt"

// Conversion factors.
const (
	mbarPerInHg   = 33.86389
	kphPerMph     = 1.609344
	mpsPerMph     = 0.44704
	knotPerMph    = 0.868976
	mmPerInch     = 25.4
	cmPerInch     = 2.54
	metersPerFoot = 0.3048
)

// conversions maps from-unit → to-unit → conversion function.
// Only pairs the standard unit tables can produce are defined; asking
// for anything else is a caller error surfaced as ErrNoConversion.
var conversions = map[string]map[string]func(float64) float64{
	"degree_F": {
		"degree_C": func(v float64) float64 { return (v - 32.0) * 5.0 / 9.0 },
	},
	"degree_C": {
		"degree_F": func(v float64) float64 { return v*9.0/5.0 + 32.0 },
	},
	"inHg": {
		"mbar": func(v float64) float64 { return v * mbarPerInHg },
		"hPa":  func(v float64) float64 { return v * mbarPerInHg },
	},
	"mbar": {
		"inHg": func(v float64) float64 { return v / mbarPerInHg },
		"hPa":  func(v float64) float64 { return v },
	},
	"hPa": {
		"inHg": func(v float64) float64 { return v / mbarPerInHg },
		"mbar": func(v float64) float64 { return v },
	},
	"mile_per_hour": {
		"km_per_hour":      func(v float64) float64 { return v * kphPerMph },
		"meter_per_second": func(v float64) float64 { return v * mpsPerMph },
		"knot":             func(v float64) float64 { return v * knotPerMph },
	},
	"km_per_hour": {
		"mile_per_hour":    func(v float64) float64 { return v / kphPerMph },
		"meter_per_second": func(v float64) float64 { return v / 3.6 },
		"knot":             func(v float64) float64 { return v / kphPerMph * knotPerMph },
	},
	"meter_per_second": {
		"mile_per_hour": func(v float64) float64 { return v / mpsPerMph },
		"km_per_hour":   func(v float64) float64 { return v * 3.6 },
		"knot":          func(v float64) float64 { return v / mpsPerMph * knotPerMph },
	},
	"knot": {
		"mile_per_hour":    func(v float64) float64 { return v / knotPerMph },
		"km_per_hour":      func(v float64) float64 { return v / knotPerMph * kphPerMph },
		"meter_per_second": func(v float64) float64 { return v / knotPerMph * mpsPerMph },
	},
	"inch": {
		"mm": func(v float64) float64 { return v * mmPerInch },
		"cm": func(v float64) float64 { return v * cmPerInch },
	},
	"mm": {
		"inch": func(v float64) float64 { return v / mmPerInch },
		"cm":   func(v float64) float64 { return v / 10.0 },
	},
	"cm": {
		"inch": func(v float64) float64 { return v / cmPerInch },
		"mm":   func(v float64) float64 { return v * 10.0 },
	},
	"inch_per_hour": {
		"mm_per_hour": func(v float64) float64 { return v * mmPerInch },
		"cm_per_hour": func(v float64) float64 { return v * cmPerInch },
	},
	"mm_per_hour": {
		"inch_per_hour": func(v float64) float64 { return v / mmPerInch },
		"cm_per_hour":   func(v float64) float64 { return v / 10.0 },
	},
	"cm_per_hour": {
		"inch_per_hour": func(v float64) float64 { return v / cmPerInch },
		"mm_per_hour":   func(v float64) float64 { return v * 10.0 },
	},
	"foot": {
		"meter": func(v float64) float64 { return v * metersPerFoot },
	},
	"meter": {
		"foot": func(v float64) float64 { return v / metersPerFoot },
	},
}

// Convert converts a value between two named units.
//
// Identical units pass through unchanged. Unknown pairs return
// ErrNoConversion; the caller decides whether that drops the field.
func Convert(value float64, from, to string) (float64, error) {
	if from == to {
		return value, nil
	}
	fns, ok := conversions[from]
	if !ok {
		return 0, fmt.Errorf("%w: %s -> %s", ErrNoConversion, from, to)
	}
	fn, ok := fns[to]
	if !ok {
		return 0, fmt.Errorf("%w: %s -> %s", ErrNoConversion, from, to)
	}
	return fn(value), nil
}
