// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package chirp

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"time"
)

const (
	levelKey = "level"
	timeKey  = "time"
	msgKey   = "msg"
	nameKey  = "name"
)

var (
	// ErrInvalidEntry is returned when a serialized entry lacks one of the
	// required level, time or msg properties or carries them with the wrong type.
	ErrInvalidEntry = errors.New("invalid log entry")
)

// Fields is a set of string-keyed values attached to an Entry.
type Fields map[string]any

// Entry is the record produced by a single logging call.
// Fields must be treated as read-only by every consumer.
type Entry struct {
	Level  Level
	Time   int64
	Msg    string
	Fields Fields
}

// Timestamp returns the entry time as a time.Time in UTC.
func (e Entry) Timestamp() time.Time {
	return time.UnixMilli(e.Time).UTC()
}

// Map returns the flat representation of the entry, the same shape used on the
// wire. Reserved keys are assigned last so that extra fields never shadow them.
func (e Entry) Map() map[string]any {
	out := make(map[string]any, len(e.Fields)+3)
	maps.Copy(out, e.Fields)
	out[levelKey] = int(e.Level)
	out[timeKey] = e.Time
	out[msgKey] = e.Msg
	return out
}

// MarshalJSON renders the entry as a flat JSON object.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Map())
}

// UnmarshalJSON parses a flat JSON object produced by MarshalJSON.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	entry, err := EntryFromMap(raw)
	if err != nil {
		return err
	}

	*e = entry
	return nil
}

// EntryFromMap rebuilds an Entry from its flat representation. Numeric values
// of any Go numeric type are accepted for level and time, so maps decoded by
// different codecs can be converted.
func EntryFromMap(raw map[string]any) (Entry, error) {
	if raw == nil {
		return Entry{}, fmt.Errorf("%w: empty object", ErrInvalidEntry)
	}

	level, ok := toInt64(raw[levelKey])
	if !ok {
		return Entry{}, fmt.Errorf("%w: missing or non numeric %q", ErrInvalidEntry, levelKey)
	}

	ts, ok := toInt64(raw[timeKey])
	if !ok {
		return Entry{}, fmt.Errorf("%w: missing or non numeric %q", ErrInvalidEntry, timeKey)
	}

	msg := ""
	if value, found := raw[msgKey]; found && value != nil {
		if msg, ok = value.(string); !ok {
			return Entry{}, fmt.Errorf("%w: non string %q", ErrInvalidEntry, msgKey)
		}
	}

	var fields Fields
	for key, value := range raw {
		if isReserved(key) {
			continue
		}
		if fields == nil {
			fields = make(Fields, len(raw))
		}
		fields[key] = value
	}

	return Entry{
		Level:  Level(level),
		Time:   ts,
		Msg:    msg,
		Fields: fields,
	}, nil
}

func isReserved(key string) bool {
	return key == levelKey || key == timeKey || key == msgKey
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case float32:
		return int64(v), true
	case float64:
		return int64(v), true
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}
		f, err := v.Float64()
		return int64(f), err == nil
	default:
		return 0, false
	}
}
