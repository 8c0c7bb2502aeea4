package station

import (
	"time"

	"github.com/stationside/wxuplink/internal/units"
)

// Binding identifies which station event stream produced a record.
type Binding string

// Recognized bindings.
const (
	BindingLoop    Binding = "loop"
	BindingArchive Binding = "archive"
)

// Field is a single named observation value.
type Field struct {
	Name  string
	Value float64
}

// Record is one observation sample: a capture timestamp, the unit
// system its values are expressed in, an optional binding stamp, and
// the data fields in the order the station emitted them.
//
// Field order is preserved deliberately: the encoder's output must be
// reproducible for identical input, and Go maps would shuffle it.
//
// Records are produced once per sample interval, handed to exactly one
// delivery queue, and never mutated after the worker reads them.
type Record struct {
	// Time is the capture time as unix seconds, not the send time.
	Time int64

	// UnitSystem is the system the field values are expressed in.
	UnitSystem units.System

	// Binding is stamped by the binding adapter; empty until then.
	Binding Binding

	fields []Field
}

// NewRecord creates an empty record with the given capture time and unit system.
func NewRecord(captureTime int64, sys units.System) *Record {
	return &Record{
		Time:       captureTime,
		UnitSystem: sys,
	}
}

// Append adds a field, keeping insertion order.
func (r *Record) Append(name string, value float64) {
	r.fields = append(r.fields, Field{Name: name, Value: value})
}

// Fields returns the data fields in insertion order.
// Callers must not modify the returned slice.
func (r *Record) Fields() []Field {
	return r.fields
}

// Len returns the number of data fields.
func (r *Record) Len() int {
	return len(r.fields)
}

// Clone returns a copy with its own field slice. The binding adapter
// clones before stamping so destinations never share a record.
func (r *Record) Clone() *Record {
	out := &Record{
		Time:       r.Time,
		UnitSystem: r.UnitSystem,
		Binding:    r.Binding,
	}
	if len(r.fields) > 0 {
		out.fields = make([]Field, len(r.fields))
		copy(out.fields, r.fields)
	}
	return out
}

// Age returns how old the record's capture time is relative to now.
func (r *Record) Age(now time.Time) time.Duration {
	return now.Sub(time.Unix(r.Time, 0))
}
