package uplink

import (
	"github.com/stationside/wxuplink/internal/infrastructure/config"
	"github.com/stationside/wxuplink/internal/units"
)

// defaultFormat renders any numeric value compactly: 24.0 prints as 24,
// 33.5 as 33.5.
const defaultFormat = "%g"

// Template describes how one observation is written: the output field
// name, the target unit (empty means no conversion beyond the
// destination's unit system), and the numeric format verb.
//
// Templates are pure derived data. They are computed the first time a
// field key is seen for a destination and cached for the worker's
// lifetime; they are never mutated afterwards.
type Template struct {
	Name   string
	Units  string
	Format string
}

// ResolveTemplate computes the template for a field key.
//
// Explicit overrides always win. When appendUnitsLabel is set and the
// override provides neither a name nor a unit, the field's standard
// unit under the reference system is reduced to its short label and
// appended to the name: outTemp becomes outTemp_F under US.
// Dimensionless units (percent, compass degrees) get no suffix, and
// unknown observations keep their key unchanged.
func ResolveTemplate(fieldKey string, override config.FieldOverride, appendUnitsLabel bool, sys units.System) Template {
	t := Template{
		Name:   override.Name,
		Units:  override.Units,
		Format: override.Format,
	}

	if appendUnitsLabel && t.Name == "" && t.Units == "" {
		if unit, ok := units.StandardUnit(fieldKey, sys); ok {
			if suffix, ok := units.Label(unit); ok && suffix != "" {
				t.Name = fieldKey + "_" + suffix
			}
		}
	}

	if t.Name == "" {
		t.Name = fieldKey
	}
	if t.Format == "" {
		t.Format = defaultFormat
	}

	return t
}
