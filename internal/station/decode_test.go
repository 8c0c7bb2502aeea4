package station_test

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stationside/wxuplink/internal/station"
	"github.com/stationside/wxuplink/internal/units"
)

// =============================================================================
// Decode Tests
// =============================================================================

func TestDecodeRecord(t *testing.T) {
	payload := []byte(`{"dateTime": 1700000000, "usUnits": 1, "outTemp": 33.5, "inTemp": 75.8, "outHumidity": 24}`)

	rec, err := station.DecodeRecord(payload)
	if err != nil {
		t.Fatalf("DecodeRecord() error = %v", err)
	}

	if rec.Time != 1700000000 {
		t.Errorf("Time = %d, want 1700000000", rec.Time)
	}
	if rec.UnitSystem != units.US {
		t.Errorf("UnitSystem = %v, want US", rec.UnitSystem)
	}
	if rec.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", rec.Len())
	}
}

func TestDecodeRecord_PreservesFieldOrder(t *testing.T) {
	payload := []byte(`{"dateTime": 1700000000, "windSpeed": 4, "outTemp": 33.5, "barometer": 29.92, "rain": 0}`)

	rec, err := station.DecodeRecord(payload)
	if err != nil {
		t.Fatalf("DecodeRecord() error = %v", err)
	}

	want := []string{"windSpeed", "outTemp", "barometer", "rain"}
	fields := rec.Fields()
	if len(fields) != len(want) {
		t.Fatalf("Len() = %d, want %d", len(fields), len(want))
	}
	for i, name := range want {
		if fields[i].Name != name {
			t.Errorf("field %d = %q, want %q", i, fields[i].Name, name)
		}
	}
}

func TestDecodeRecord_UnitSystems(t *testing.T) {
	tests := []struct {
		code int
		want units.System
	}{
		{0x01, units.US},
		{0x10, units.Metric},
		{0x11, units.MetricWX},
	}
	for _, tt := range tests {
		payload := []byte(`{"dateTime": 1700000000, "usUnits": ` + strconv.Itoa(tt.code) + `}`)
		rec, err := station.DecodeRecord(payload)
		if err != nil {
			t.Fatalf("DecodeRecord(usUnits=%d) error = %v", tt.code, err)
		}
		if rec.UnitSystem != tt.want {
			t.Errorf("UnitSystem = %v, want %v", rec.UnitSystem, tt.want)
		}
	}
}

func TestDecodeRecord_DefaultsToUS(t *testing.T) {
	rec, err := station.DecodeRecord([]byte(`{"dateTime": 1700000000, "outTemp": 50}`))
	if err != nil {
		t.Fatalf("DecodeRecord() error = %v", err)
	}
	if rec.UnitSystem != units.US {
		t.Errorf("UnitSystem = %v, want US when usUnits absent", rec.UnitSystem)
	}
}

func TestDecodeRecord_Binding(t *testing.T) {
	rec, err := station.DecodeRecord([]byte(`{"dateTime": 1700000000, "binding": "loop"}`))
	if err != nil {
		t.Fatalf("DecodeRecord() error = %v", err)
	}
	if rec.Binding != station.BindingLoop {
		t.Errorf("Binding = %q, want %q", rec.Binding, station.BindingLoop)
	}
	if rec.Len() != 0 {
		t.Errorf("binding must not appear as a data field, Len() = %d", rec.Len())
	}
}

func TestDecodeRecord_SkipsNonNumericValues(t *testing.T) {
	payload := []byte(`{"dateTime": 1700000000, "outTemp": 33.5, "stormStart": null, "model": "Vantage", "ok": true, "inTemp": 70}`)

	rec, err := station.DecodeRecord(payload)
	if err != nil {
		t.Fatalf("DecodeRecord() error = %v", err)
	}

	fields := rec.Fields()
	if len(fields) != 2 {
		t.Fatalf("Len() = %d, want 2", len(fields))
	}
	if fields[0].Name != "outTemp" || fields[1].Name != "inTemp" {
		t.Errorf("fields = %v, want outTemp then inTemp", fields)
	}
}

func TestDecodeRecord_SkipsNestedValues(t *testing.T) {
	payload := []byte(`{"dateTime": 1700000000, "meta": {"a": {"b": 1}, "c": [1, 2]}, "tags": [1, [2, 3]], "outTemp": 33.5}`)

	rec, err := station.DecodeRecord(payload)
	if err != nil {
		t.Fatalf("DecodeRecord() error = %v", err)
	}
	if rec.Len() != 1 || rec.Fields()[0].Name != "outTemp" {
		t.Errorf("fields = %v, want only outTemp", rec.Fields())
	}
}

func TestDecodeRecord_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ``},
		{"not an object", `[1, 2, 3]`},
		{"truncated", `{"dateTime":`},
		{"missing dateTime", `{"usUnits": 1, "outTemp": 33.5}`},
		{"dateTime not a number", `{"dateTime": "noon"}`},
		{"unknown unit system", `{"dateTime": 1700000000, "usUnits": 7}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := station.DecodeRecord([]byte(tt.payload))
			if !errors.Is(err, station.ErrBadPayload) {
				t.Errorf("DecodeRecord() error = %v, want ErrBadPayload", err)
			}
		})
	}
}

// =============================================================================
// Record Tests
// =============================================================================

func TestRecordClone(t *testing.T) {
	rec := station.NewRecord(1700000000, units.Metric)
	rec.Append("outTemp", 1.5)
	rec.Append("outHumidity", 80)

	cp := rec.Clone()
	cp.Binding = station.BindingArchive
	cp.Append("inTemp", 21)

	if rec.Binding != "" {
		t.Errorf("original Binding = %q, want empty", rec.Binding)
	}
	if rec.Len() != 2 {
		t.Errorf("original Len() = %d, want 2 after clone mutation", rec.Len())
	}
	if cp.Len() != 3 {
		t.Errorf("clone Len() = %d, want 3", cp.Len())
	}
	if cp.Time != rec.Time || cp.UnitSystem != rec.UnitSystem {
		t.Error("clone must carry time and unit system")
	}
}

// =============================================================================
// Dispatcher Tests
// =============================================================================

func TestDispatcher(t *testing.T) {
	d := station.NewDispatcher()

	var got []string
	d.Bind(station.NewLoopPacket, func(ev station.Event) {
		got = append(got, "loop-a")
	})
	d.Bind(station.NewLoopPacket, func(ev station.Event) {
		got = append(got, "loop-b")
	})
	d.Bind(station.NewArchiveRecord, func(ev station.Event) {
		got = append(got, "archive")
	})

	rec := station.NewRecord(1700000000, units.US)
	d.Dispatch(station.Event{Kind: station.NewLoopPacket, Record: rec})

	if len(got) != 2 || got[0] != "loop-a" || got[1] != "loop-b" {
		t.Errorf("loop handlers ran as %v, want [loop-a loop-b]", got)
	}

	got = got[:0]
	d.Dispatch(station.Event{Kind: station.NewArchiveRecord, Record: rec})
	if len(got) != 1 || got[0] != "archive" {
		t.Errorf("archive handlers ran as %v, want [archive]", got)
	}
}

func TestEventKindString(t *testing.T) {
	if station.NewLoopPacket.String() != "loop" {
		t.Errorf("NewLoopPacket.String() = %q", station.NewLoopPacket.String())
	}
	if station.NewArchiveRecord.String() != "archive" {
		t.Errorf("NewArchiveRecord.String() = %q", station.NewArchiveRecord.String())
	}
}
