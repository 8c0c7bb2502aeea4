package station

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/stationside/wxuplink/internal/units"
)

// Reserved metadata keys in station payloads.
const (
	keyTime    = "dateTime"
	keyUnits   = "usUnits"
	keyBinding = "binding"
)

// DecodeRecord parses a station JSON payload into a Record.
//
// The payload is a flat JSON object: {"dateTime": 1700000000,
// "usUnits": 1, "outTemp": 33.5, ...}. Key order in the payload
// determines field order in the record, so the object is walked with
// a token decoder rather than unmarshalled into a map.
//
// dateTime is required. usUnits defaults to US when absent (older
// station firmware omits it). Null and non-numeric values are skipped;
// a record is never rejected for a single bad observation.
func DecodeRecord(payload []byte) (*Record, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadPayload, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: expected JSON object", ErrBadPayload)
	}

	rec := &Record{UnitSystem: units.US}
	haveTime := false

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadPayload, err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: non-string key", ErrBadPayload)
		}

		valTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadPayload, err)
		}

		switch key {
		case keyTime:
			num, ok := valTok.(json.Number)
			if !ok {
				return nil, fmt.Errorf("%w: dateTime is not a number", ErrBadPayload)
			}
			t, err := num.Int64()
			if err != nil {
				return nil, fmt.Errorf("%w: dateTime: %w", ErrBadPayload, err)
			}
			rec.Time = t
			haveTime = true

		case keyUnits:
			num, ok := valTok.(json.Number)
			if !ok {
				continue
			}
			code, err := num.Int64()
			if err != nil {
				continue
			}
			sys, err := units.SystemFromCode(int(code))
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrBadPayload, err)
			}
			rec.UnitSystem = sys

		case keyBinding:
			if s, ok := valTok.(string); ok {
				rec.Binding = Binding(s)
			}

		default:
			if delim, ok := valTok.(json.Delim); ok && (delim == '{' || delim == '[') {
				if err := skipCompound(dec); err != nil {
					return nil, fmt.Errorf("%w: %w", ErrBadPayload, err)
				}
				continue
			}
			num, ok := valTok.(json.Number)
			if !ok {
				// null, bool, or string: not an observation
				continue
			}
			v, err := num.Float64()
			if err != nil {
				continue
			}
			rec.Append(key, v)
		}
	}

	if !haveTime {
		return nil, fmt.Errorf("%w: missing dateTime", ErrBadPayload)
	}

	return rec, nil
}

// skipCompound consumes tokens until the compound value whose opening
// delimiter was just read is fully balanced.
func skipCompound(dec *json.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if delim, ok := tok.(json.Delim); ok {
			switch delim {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}
