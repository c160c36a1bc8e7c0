package demiurge

import (
	"encoding/json"
	"strconv"
)

// Lenient field decoding. The node is trusted on shape but not on
// types: absent or malformed fields take the zero value instead of
// failing the whole call. Kept separate so the policy is testable
// without a transport.

func resultFields(result json.RawMessage) map[string]json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(result, &fields); err != nil {
		return nil
	}
	return fields
}

func int64Field(fields map[string]json.RawMessage, key string) int64 {
	raw, ok := fields[key]
	if !ok {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0
	}
	return int64(f)
}

// uint64Field accepts both numeric and decimal-string encodings. The
// string form is what the node sends for balances above the float64
// integer range.
func uint64Field(fields map[string]json.RawMessage, key string) uint64 {
	raw, ok := fields[key]
	if !ok {
		return 0
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f < 0 {
			return 0
		}
		return uint64(f)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func boolField(fields map[string]json.RawMessage, key string) bool {
	raw, ok := fields[key]
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false
	}
	return b
}
