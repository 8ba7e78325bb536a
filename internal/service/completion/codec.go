package completion

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/careroute/tour-backend-go/internal/domain/tour"
)

const FormatVersion = 3

// Format names the persisted shape a payload was decoded from.
type Format string

const (
	FormatEmpty        Format = "empty"
	FormatEnvelope     Format = "envelope"      // current, versioned
	FormatWeekdayMap   Format = "weekday_map"   // current map without envelope
	FormatLegacyNested Format = "legacy_nested" // per (week, weekday), discarded
	FormatFlatArray    Format = "flat_array"    // oldest, migrated into the active weekday
	FormatUnknown      Format = "unknown"
)

type envelope struct {
	Version        int                `json:"version"`
	CurrentWeekday string             `json:"current_weekday,omitempty"`
	Completed      map[string][]int64 `json:"completed"`
}

// Encode writes the canonical envelope. Weekdays without entries are left out
// and ids are sorted, so equal stores encode to equal bytes.
func Encode(s *Store) ([]byte, error) {
	s.mu.RLock()
	env := envelope{
		Version:        FormatVersion,
		CurrentWeekday: string(s.current),
		Completed:      make(map[string][]int64, len(s.completed)),
	}
	for day, set := range s.completed {
		if len(set) > 0 {
			env.Completed[string(day)] = sortedIDs(set)
		}
	}
	s.mu.RUnlock()

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion state: %w", err)
	}
	return data, nil
}

type decoder func(raw json.RawMessage, active tour.Weekday) (*Store, bool)

// decoders are tried in order; the first that recognizes the payload wins.
var decoders = []struct {
	format Format
	decode decoder
}{
	{FormatEnvelope, decodeEnvelope},
	{FormatWeekdayMap, decodeWeekdayMap},
	{FormatLegacyNested, decodeLegacyNested},
	{FormatFlatArray, decodeFlatArray},
}

// Decode turns any known persisted shape into a Store. active is the weekday
// to use as cursor when the payload carries none, and the target of flat-array
// migration. Unknown or corrupt payloads yield an empty store; Decode never
// fails.
func Decode(data []byte, active tour.Weekday) (*Store, Format) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return emptyStore(active), FormatEmpty
	}
	if !json.Valid(trimmed) {
		return emptyStore(active), FormatUnknown
	}

	for _, d := range decoders {
		if s, ok := d.decode(json.RawMessage(trimmed), active); ok {
			return s, d.format
		}
	}
	return emptyStore(active), FormatUnknown
}

func decodeEnvelope(raw json.RawMessage, active tour.Weekday) (*Store, bool) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, false
	}
	if _, ok := probe["version"]; !ok {
		return nil, false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Version < 1 {
		return nil, false
	}

	cursor := tour.Weekday(env.CurrentWeekday)
	if !cursor.IsValid() {
		cursor = active
	}
	s := emptyStore(cursor)
	if !fillWeekdays(s, env.Completed) {
		return nil, false
	}
	return s, true
}

func decodeWeekdayMap(raw json.RawMessage, active tour.Weekday) (*Store, bool) {
	var m map[string][]int64
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}

	s := emptyStore(active)
	if !fillWeekdays(s, m) {
		return nil, false
	}
	return s, true
}

// decodeLegacyNested recognizes {"<week>": {"<weekday>": [ids]}}. The ids
// cannot be mapped onto the current weekday sets, so they are dropped.
func decodeLegacyNested(raw json.RawMessage, active tour.Weekday) (*Store, bool) {
	var m map[string]map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil || len(m) == 0 {
		return nil, false
	}
	return emptyStore(active), true
}

func decodeFlatArray(raw json.RawMessage, active tour.Weekday) (*Store, bool) {
	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, false
	}

	s := emptyStore(active)
	if !active.IsValid() {
		return s, true
	}
	for _, id := range ids {
		s.set(active, id, true)
	}
	return s, true
}

// fillWeekdays copies m into s. Any key that is not a weekday rejects the
// whole map.
func fillWeekdays(s *Store, m map[string][]int64) bool {
	for key, ids := range m {
		day := tour.Weekday(key)
		if !day.IsValid() {
			return false
		}
		for _, id := range ids {
			s.set(day, id, true)
		}
	}
	return true
}

func emptyStore(active tour.Weekday) *Store {
	s := NewStore()
	if active.IsValid() {
		s.current = active
	}
	return s
}
