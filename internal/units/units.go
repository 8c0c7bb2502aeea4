package units

import "fmt"

// System identifies the unit system a record's values are expressed in.
// The numeric values match the usUnits field emitted by station software.
type System int

// Recognized unit systems.
const (
	US       System = 0x01
	Metric   System = 0x10
	MetricWX System = 0x11
)

// SystemFromName parses a configured unit system name.
func SystemFromName(name string) (System, error) {
	switch name {
	case "US", "us":
		return US, nil
	case "METRIC", "metric":
		return Metric, nil
	case "METRICWX", "metricwx":
		return MetricWX, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSystem, name)
}

// SystemFromCode converts a usUnits value to a System.
func SystemFromCode(code int) (System, error) {
	switch System(code) {
	case US, Metric, MetricWX:
		return System(code), nil
	}
	return 0, fmt.Errorf("%w: code %d", ErrUnknownSystem, code)
}

func (s System) String() string {
	switch s {
	case US:
		return "US"
	case Metric:
		return "METRIC"
	case MetricWX:
		return "METRICWX"
	}
	return fmt.Sprintf("System(%d)", int(s))
}

// Unit groups. An observation belongs to a group; a system assigns each
// group a standard unit.
const (
	groupTemperature = "group_temperature"
	groupPressure    = "group_pressure"
	groupSpeed       = "group_speed"
	groupRain        = "group_rain"
	groupRainRate    = "group_rainrate"
	groupPercent     = "group_percent"
	groupDirection   = "group_direction"
	groupRadiation   = "group_radiation"
	groupUV          = "group_uv"
	groupAltitude    = "group_altitude"
	groupCount       = "group_count"
	groupVolt        = "group_volt"
)

// obsGroups maps the common observation names to their unit group.
// Observations not listed here pass through without conversion or suffix.
var obsGroups = map[string]string{
	"outTemp":      groupTemperature,
	"inTemp":       groupTemperature,
	"extraTemp1":   groupTemperature,
	"extraTemp2":   groupTemperature,
	"extraTemp3":   groupTemperature,
	"soilTemp1":    groupTemperature,
	"leafTemp1":    groupTemperature,
	"dewpoint":     groupTemperature,
	"inDewpoint":   groupTemperature,
	"heatindex":    groupTemperature,
	"windchill":    groupTemperature,
	"appTemp":      groupTemperature,
	"outHumidity":  groupPercent,
	"inHumidity":   groupPercent,
	"extraHumid1":  groupPercent,
	"extraHumid2":  groupPercent,
	"rxCheckPercent": groupPercent,
	"barometer":    groupPressure,
	"pressure":     groupPressure,
	"altimeter":    groupPressure,
	"windSpeed":    groupSpeed,
	"windGust":     groupSpeed,
	"windDir":      groupDirection,
	"windGustDir":  groupDirection,
	"rain":         groupRain,
	"ET":           groupRain,
	"rainRate":     groupRainRate,
	"radiation":    groupRadiation,
	"UV":           groupUV,
	"altitude":     groupAltitude,
	"cloudbase":    groupAltitude,
	"lightning_strike_count": groupCount,
	"supplyVoltage": groupVolt,
	"referenceVoltage": groupVolt,
}

// standardUnits assigns each group its unit per system.
var standardUnits = map[System]map[string]string{
	US: {
		groupTemperature: "degree_F",
		groupPressure:    "inHg",
		groupSpeed:       "mile_per_hour",
		groupRain:        "inch",
		groupRainRate:    "inch_per_hour",
		groupPercent:     "percent",
		groupDirection:   "degree_compass",
		groupRadiation:   "watt_per_meter_squared",
		groupUV:          "uv_index",
		groupAltitude:    "foot",
		groupCount:       "count",
		groupVolt:        "volt",
	},
	Metric: {
		groupTemperature: "degree_C",
		groupPressure:    "mbar",
		groupSpeed:       "km_per_hour",
		groupRain:        "cm",
		groupRainRate:    "cm_per_hour",
		groupPercent:     "percent",
		groupDirection:   "degree_compass",
		groupRadiation:   "watt_per_meter_squared",
		groupUV:          "uv_index",
		groupAltitude:    "meter",
		groupCount:       "count",
		groupVolt:        "volt",
	},
	MetricWX: {
		groupTemperature: "degree_C",
		groupPressure:    "mbar",
		groupSpeed:       "meter_per_second",
		groupRain:        "mm",
		groupRainRate:    "mm_per_hour",
		groupPercent:     "percent",
		groupDirection:   "degree_compass",
		groupRadiation:   "watt_per_meter_squared",
		groupUV:          "uv_index",
		groupAltitude:    "meter",
		groupCount:       "count",
		groupVolt:        "volt",
	},
}

// labels reduces full unit names to the short suffix appended to field
// names. An empty value means the unit is dimensionless and gets no suffix.
var labels = map[string]string{
	"degree_F":               "F",
	"degree_C":               "C",
	"inHg":                   "inHg",
	"mbar":                   "mbar",
	"hPa":                    "hPa",
	"mile_per_hour":          "mph",
	"km_per_hour":            "kph",
	"meter_per_second":       "mps",
	"knot":                   "knot",
	"inch":                   "in",
	"mm":                     "mm",
	"cm":                     "cm",
	"inch_per_hour":          "inph",
	"mm_per_hour":            "mmph",
	"cm_per_hour":            "cmph",
	"foot":                   "ft",
	"meter":                  "m",
	"watt_per_meter_squared": "Wpm2",
	"volt":                   "V",
	"degree_compass":         "",
	"percent":                "",
	"uv_index":               "",
	"count":                  "",
	"unix_epoch":             "",
}

// StandardUnit returns the unit an observation is expressed in under the
// given system. ok is false for observations with no known unit group.
func StandardUnit(obsKey string, sys System) (unit string, ok bool) {
	group, ok := obsGroups[obsKey]
	if !ok {
		return "", false
	}
	unit, ok = standardUnits[sys][group]
	return unit, ok
}

// Label returns the short suffix for a unit name. ok is false for
// unknown units; an empty suffix with ok=true means dimensionless.
func Label(unit string) (suffix string, ok bool) {
	suffix, ok = labels[unit]
	return suffix, ok
}
