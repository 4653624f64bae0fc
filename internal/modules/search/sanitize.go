package search

import (
	"encoding/json"
	"math"
	"strings"

	"zekken/internal/observability"
)

// Sanitize keeps only records with the full cab shape: non-blank provider and cabType,
// a non-negative fare, a whole non-negative eta and a whole capacity of at least one.
// It never fails; rejected records are only counted.
func Sanitize(raw []json.RawMessage) []CabOption {
	out := make([]CabOption, 0, len(raw))
	for _, r := range raw {
		if cab, ok := sanitizeRecord(r); ok {
			out = append(out, cab)
		}
	}
	if dropped := len(raw) - len(out); dropped > 0 {
		observability.CabRecordsDropped.Add(float64(dropped))
	}
	return out
}

func sanitizeRecord(raw json.RawMessage) (CabOption, bool) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return CabOption{}, false
	}

	provider, ok := textField(fields, "provider")
	if !ok {
		return CabOption{}, false
	}
	cabType, ok := textField(fields, "cabType")
	if !ok {
		return CabOption{}, false
	}
	fare, ok := fields["fare"].(float64)
	if !ok || fare < 0 {
		return CabOption{}, false
	}
	eta, ok := wholeField(fields, "eta", 0)
	if !ok {
		return CabOption{}, false
	}
	capacity, ok := wholeField(fields, "capacity", 1)
	if !ok {
		return CabOption{}, false
	}

	return CabOption{Provider: provider, CabType: cabType, Fare: fare, ETA: eta, Capacity: capacity}, true
}

func textField(fields map[string]any, key string) (string, bool) {
	s, ok := fields[key].(string)
	s = strings.TrimSpace(s)
	return s, ok && s != ""
}

func wholeField(fields map[string]any, key string, floor int) (int, bool) {
	f, ok := fields[key].(float64)
	if !ok || f != math.Trunc(f) || f < float64(floor) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
