package uplink_test

import (
	"strings"
	"testing"

	"github.com/stationside/wxuplink/internal/infrastructure/config"
	"github.com/stationside/wxuplink/internal/infrastructure/logging"
	"github.com/stationside/wxuplink/internal/station"
	"github.com/stationside/wxuplink/internal/units"
	"github.com/stationside/wxuplink/internal/uplink"
)

// =============================================================================
// Test Helpers
// =============================================================================

func newEncoder(t *testing.T, cfg *config.DestinationConfig) *uplink.Encoder {
	t.Helper()
	enc, err := uplink.NewEncoder(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	return enc
}

// sampleRecord mirrors a typical archive payload in US units.
func sampleRecord() *station.Record {
	rec := station.NewRecord(1700000000, units.US)
	rec.Binding = station.BindingArchive
	rec.Append("outTemp", 33.5)
	rec.Append("inTemp", 75.8)
	rec.Append("outHumidity", 24)
	return rec
}

// =============================================================================
// Single-Line Encoding
// =============================================================================

func TestEncode_SingleLine(t *testing.T) {
	enc := newEncoder(t, &config.DestinationConfig{
		Measurement:      "record",
		Tags:             []string{"station=test"},
		ObsToUpload:      "most",
		AppendUnitsLabel: true,
	})

	payload, contentType := enc.Encode(sampleRecord())

	want := "record,binding=archive,station=test outTemp_F=33.5,inTemp_F=75.8,outHumidity=24 1700000000"
	if payload != want {
		t.Errorf("Encode() =\n  %q\nwant\n  %q", payload, want)
	}
	if contentType != uplink.ContentType {
		t.Errorf("contentType = %q, want %q", contentType, uplink.ContentType)
	}
}

func TestEncode_Idempotent(t *testing.T) {
	enc := newEncoder(t, &config.DestinationConfig{
		Measurement:      "record",
		AppendUnitsLabel: true,
	})

	rec := sampleRecord()
	first, _ := enc.Encode(rec)
	second, _ := enc.Encode(rec)

	if first != second {
		t.Errorf("Encode() not reproducible:\n  %q\n  %q", first, second)
	}
}

func TestEncode_NoTags(t *testing.T) {
	enc := newEncoder(t, &config.DestinationConfig{Measurement: "record"})

	rec := station.NewRecord(1700000000, units.US)
	rec.Append("outHumidity", 24)

	payload, _ := enc.Encode(rec)
	want := "record outHumidity=24 1700000000"
	if payload != want {
		t.Errorf("Encode() = %q, want %q", payload, want)
	}
}

func TestEncode_EmptyRecord(t *testing.T) {
	enc := newEncoder(t, &config.DestinationConfig{
		Measurement: "record",
		Tags:        []string{"station=test"},
	})

	rec := station.NewRecord(1700000000, units.US)
	payload, _ := enc.Encode(rec)

	want := "record,station=test  1700000000"
	if payload != want {
		t.Errorf("Encode() = %q, want %q", payload, want)
	}
}

// =============================================================================
// Multi-Line Encodings
// =============================================================================

func TestEncode_MultiLine(t *testing.T) {
	enc := newEncoder(t, &config.DestinationConfig{
		Measurement:      "record",
		Tags:             []string{"station=test"},
		LineFormat:       "multi-line",
		AppendUnitsLabel: true,
	})

	payload, _ := enc.Encode(sampleRecord())

	want := strings.Join([]string{
		"outTemp_F,binding=archive,station=test value=33.5 1700000000",
		"inTemp_F,binding=archive,station=test value=75.8 1700000000",
		"outHumidity,binding=archive,station=test value=24 1700000000",
	}, "\n")
	if payload != want {
		t.Errorf("Encode() =\n%s\nwant\n%s", payload, want)
	}
}

func TestEncode_MultiLineDotted(t *testing.T) {
	enc := newEncoder(t, &config.DestinationConfig{
		Measurement: "weewx",
		LineFormat:  "multi-line-dotted",
	})

	rec := station.NewRecord(1700000000, units.US)
	rec.Append("outTemp", 33.5)

	payload, _ := enc.Encode(rec)
	want := "weewx.outTemp value=33.5 1700000000"
	if payload != want {
		t.Errorf("Encode() = %q, want %q", payload, want)
	}
}

// =============================================================================
// Field Selection
// =============================================================================

func TestEncode_MostSkipsReservedFields(t *testing.T) {
	enc := newEncoder(t, &config.DestinationConfig{
		Measurement: "record",
		ObsToUpload: "most",
	})

	// Some firmwares republish the metadata keys as data fields.
	rec := station.NewRecord(1700000000, units.US)
	rec.Append("dateTime", 1700000000)
	rec.Append("usUnits", 1)
	rec.Append("interval", 5)
	rec.Append("binding", 0)
	rec.Append("outTemp", 33.5)

	payload, _ := enc.Encode(rec)
	want := "record outTemp=33.5 1700000000"
	if payload != want {
		t.Errorf("Encode() = %q, want %q", payload, want)
	}
}

func TestEncode_AllKeepsReservedFields(t *testing.T) {
	enc := newEncoder(t, &config.DestinationConfig{
		Measurement: "record",
		ObsToUpload: "all",
	})

	rec := station.NewRecord(1700000000, units.US)
	rec.Append("interval", 5)
	rec.Append("outTemp", 33.5)

	payload, _ := enc.Encode(rec)
	want := "record interval=5,outTemp=33.5 1700000000"
	if payload != want {
		t.Errorf("Encode() = %q, want %q", payload, want)
	}
}

func TestEncode_SelectedFieldsOnly(t *testing.T) {
	enc := newEncoder(t, &config.DestinationConfig{
		Measurement: "record",
		ObsToUpload: "selected",
		Fields:      []string{"outTemp", "barometer"},
	})

	rec := station.NewRecord(1700000000, units.US)
	rec.Append("outTemp", 33.5)
	rec.Append("inTemp", 75.8)
	rec.Append("barometer", 29.92)

	payload, _ := enc.Encode(rec)
	want := "record outTemp=33.5,barometer=29.92 1700000000"
	if payload != want {
		t.Errorf("Encode() = %q, want %q", payload, want)
	}
}

func TestEncode_OmitList(t *testing.T) {
	enc := newEncoder(t, &config.DestinationConfig{
		Measurement: "record",
		ObsToUpload: "all",
		Omit:        []string{"inTemp"},
	})

	rec := station.NewRecord(1700000000, units.US)
	rec.Append("outTemp", 33.5)
	rec.Append("inTemp", 75.8)

	payload, _ := enc.Encode(rec)
	want := "record outTemp=33.5 1700000000"
	if payload != want {
		t.Errorf("Encode() = %q, want %q", payload, want)
	}
}

// =============================================================================
// Unit Conversion and Formatting
// =============================================================================

func TestEncode_UnitSystemConversion(t *testing.T) {
	enc := newEncoder(t, &config.DestinationConfig{
		Measurement:      "record",
		UnitSystem:       "METRIC",
		AppendUnitsLabel: true,
	})

	rec := station.NewRecord(1700000000, units.US)
	rec.Append("outTemp", 50)
	rec.Append("outHumidity", 24)

	payload, _ := enc.Encode(rec)
	want := "record outTemp_C=10,outHumidity=24 1700000000"
	if payload != want {
		t.Errorf("Encode() = %q, want %q", payload, want)
	}
}

func TestEncode_PerFieldUnitOverride(t *testing.T) {
	enc := newEncoder(t, &config.DestinationConfig{
		Measurement: "record",
		Inputs: map[string]config.FieldOverride{
			"barometer": {Units: "hPa", Format: "%.1f"},
		},
	})

	rec := station.NewRecord(1700000000, units.US)
	rec.Append("barometer", 29.92)

	payload, _ := enc.Encode(rec)
	want := "record barometer=1013.2 1700000000"
	if payload != want {
		t.Errorf("Encode() = %q, want %q", payload, want)
	}
}

func TestEncode_FieldNameOverride(t *testing.T) {
	enc := newEncoder(t, &config.DestinationConfig{
		Measurement:      "record",
		AppendUnitsLabel: true,
		Inputs: map[string]config.FieldOverride{
			"outTemp": {Name: "temperature"},
		},
	})

	payload, _ := enc.Encode(sampleRecord())
	if !strings.Contains(payload, "temperature=33.5") {
		t.Errorf("Encode() = %q, want renamed field temperature", payload)
	}
	if strings.Contains(payload, "outTemp") {
		t.Errorf("Encode() = %q, overridden key must not appear", payload)
	}
}

func TestEncode_SkipsFieldOnConversionFailure(t *testing.T) {
	enc := newEncoder(t, &config.DestinationConfig{
		Measurement: "record",
		Inputs: map[string]config.FieldOverride{
			// No conversion between these unit groups exists.
			"outTemp": {Units: "mbar"},
		},
	})

	rec := station.NewRecord(1700000000, units.US)
	rec.Append("outTemp", 33.5)
	rec.Append("inTemp", 75.8)

	payload, _ := enc.Encode(rec)
	want := "record inTemp=75.8 1700000000"
	if payload != want {
		t.Errorf("Encode() = %q, want bad field dropped: %q", payload, want)
	}
}

func TestEncode_SkipsFieldOnBadFormat(t *testing.T) {
	enc := newEncoder(t, &config.DestinationConfig{
		Measurement: "record",
		Inputs: map[string]config.FieldOverride{
			"outTemp": {Format: "%s"},
		},
	})

	rec := station.NewRecord(1700000000, units.US)
	rec.Append("outTemp", 33.5)
	rec.Append("outHumidity", 24)

	payload, _ := enc.Encode(rec)
	want := "record outHumidity=24 1700000000"
	if payload != want {
		t.Errorf("Encode() = %q, want bad field dropped: %q", payload, want)
	}
}

func TestNewEncoder_RejectsUnknownUnitSystem(t *testing.T) {
	_, err := uplink.NewEncoder(&config.DestinationConfig{
		Measurement: "record",
		UnitSystem:  "IMPERIAL",
	}, logging.Discard())
	if err == nil {
		t.Fatal("NewEncoder() error = nil, want unknown unit system error")
	}
}
