package uplink

import (
	"fmt"
	"strings"

	"github.com/stationside/wxuplink/internal/infrastructure/config"
	"github.com/stationside/wxuplink/internal/infrastructure/logging"
	"github.com/stationside/wxuplink/internal/station"
	"github.com/stationside/wxuplink/internal/units"
)

// ContentType is the body content type for every write-API payload.
const ContentType = "text/plain; charset=utf-8"

// reservedFields are bookkeeping keys skipped by the "most" selection
// policy. Some station firmwares emit these as ordinary data fields;
// they are metadata, not observations. The set is fixed: "most" skips
// all four, "all" uploads whatever the record carries.
var reservedFields = map[string]bool{
	"dateTime": true,
	"usUnits":  true,
	"interval": true,
	"binding":  true,
}

// Encoder turns records into line-protocol payloads for one destination.
//
// The encoder owns the destination's template cache. It is used only by
// that destination's worker goroutine, so the cache needs no locking.
type Encoder struct {
	cfg *config.DestinationConfig
	log *logging.Logger

	// targetSys is the unit system records are converted to before
	// upload. Zero means keep each record's own system.
	targetSys units.System

	// templates caches resolved templates per reference system. Keyed
	// twice because loop and archive records may arrive in different
	// systems when no override is configured.
	templates map[units.System]map[string]Template
}

// NewEncoder creates an encoder for a destination.
// The unit_system override must already be validated.
func NewEncoder(cfg *config.DestinationConfig, log *logging.Logger) (*Encoder, error) {
	e := &Encoder{
		cfg:       cfg,
		log:       log,
		templates: make(map[units.System]map[string]Template),
	}
	if cfg.UnitSystem != "" {
		sys, err := units.SystemFromName(cfg.UnitSystem)
		if err != nil {
			return nil, err
		}
		e.targetSys = sys
	}
	return e, nil
}

// Encode produces the wire payload for a record.
//
// The record is read but never mutated. A field whose unit conversion
// or formatting fails is logged and omitted; encoding itself never
// fails, so the return is the payload and its content type only.
func (e *Encoder) Encode(rec *station.Record) (payload string, contentType string) {
	targetSys := e.targetSys
	if targetSys == 0 {
		targetSys = rec.UnitSystem
	}

	tags := e.tagSegment(rec)
	values := e.encodeFields(rec, targetSys)

	switch e.cfg.LineFormat {
	case "multi-line":
		lines := make([]string, 0, len(values))
		for _, v := range values {
			lines = append(lines, fmt.Sprintf("%s%s value=%s %d", v.name, tags, v.value, rec.Time))
		}
		return strings.Join(lines, "\n"), ContentType

	case "multi-line-dotted":
		lines := make([]string, 0, len(values))
		for _, v := range values {
			lines = append(lines, fmt.Sprintf("%s.%s%s value=%s %d", e.cfg.Measurement, v.name, tags, v.value, rec.Time))
		}
		return strings.Join(lines, "\n"), ContentType

	default: // single-line
		pairs := make([]string, 0, len(values))
		for _, v := range values {
			pairs = append(pairs, v.name+"="+v.value)
		}
		return fmt.Sprintf("%s%s %s %d", e.cfg.Measurement, tags, strings.Join(pairs, ","), rec.Time), ContentType
	}
}

// tagSegment builds the tag portion of a line: a binding tag when the
// record carries one, then the destination's static tags. The result
// starts with a comma, or is empty when there are no tags at all.
func (e *Encoder) tagSegment(rec *station.Record) string {
	var b strings.Builder
	if rec.Binding != "" {
		b.WriteString(",binding=")
		b.WriteString(string(rec.Binding))
	}
	if len(e.cfg.Tags) > 0 {
		b.WriteByte(',')
		b.WriteString(strings.Join(e.cfg.Tags, ","))
	}
	return b.String()
}

// encodedField is one name=value pair ready for assembly.
type encodedField struct {
	name  string
	value string
}

// encodeFields applies the selection policy, resolves templates,
// converts units, and formats each surviving field, preserving the
// record's insertion order throughout.
func (e *Encoder) encodeFields(rec *station.Record, targetSys units.System) []encodedField {
	out := make([]encodedField, 0, rec.Len())
	for _, f := range rec.Fields() {
		if !e.selected(f.Name) {
			continue
		}

		tmpl := e.template(f.Name, targetSys)

		value, err := e.convert(f, rec.UnitSystem, targetSys, tmpl)
		if err != nil {
			e.log.Warn("skipping field", "field", f.Name, "error", err)
			continue
		}

		formatted := fmt.Sprintf(tmpl.Format, value)
		if strings.Contains(formatted, "%!") {
			e.log.Warn("skipping field", "field", f.Name, "error",
				fmt.Sprintf("format %q does not apply to %v", tmpl.Format, value))
			continue
		}

		out = append(out, encodedField{name: tmpl.Name, value: formatted})
	}
	return out
}

// selected applies the destination's field-selection policy, then the omit list.
func (e *Encoder) selected(name string) bool {
	switch e.cfg.ObsToUpload {
	case "all":
		// everything the record carries
	case "selected":
		found := false
		for _, want := range e.cfg.Fields {
			if want == name {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	default: // "most"
		if reservedFields[name] {
			return false
		}
	}

	for _, skip := range e.cfg.Omit {
		if skip == name {
			return false
		}
	}
	return true
}

// template returns the cached template for a field under the reference
// system, resolving it on first use.
func (e *Encoder) template(fieldKey string, sys units.System) Template {
	cache, ok := e.templates[sys]
	if !ok {
		cache = make(map[string]Template)
		e.templates[sys] = cache
	}
	if tmpl, ok := cache[fieldKey]; ok {
		return tmpl
	}
	tmpl := ResolveTemplate(fieldKey, e.cfg.Inputs[fieldKey], e.cfg.AppendUnitsLabel, sys)
	cache[fieldKey] = tmpl
	return tmpl
}

// convert moves a field value from the record's unit system to the
// template's target unit, or to the field's standard unit under the
// destination's reference system when the template names none.
func (e *Encoder) convert(f station.Field, recSys, targetSys units.System, tmpl Template) (float64, error) {
	srcUnit, known := units.StandardUnit(f.Name, recSys)
	if !known {
		// No unit knowledge for this observation. An explicit target
		// unit cannot be honoured; pass the value through otherwise.
		if tmpl.Units != "" {
			return 0, fmt.Errorf("%w: unknown source unit for %q", units.ErrNoConversion, f.Name)
		}
		return f.Value, nil
	}

	dstUnit := tmpl.Units
	if dstUnit == "" {
		dstUnit, _ = units.StandardUnit(f.Name, targetSys)
	}

	return units.Convert(f.Value, srcUnit, dstUnit)
}
