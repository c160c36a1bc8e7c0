package demiurge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fields(t *testing.T, raw string) map[string]json.RawMessage {
	t.Helper()
	m := resultFields(json.RawMessage(raw))
	assert.NotNil(t, m)
	return m
}

func TestUint64Field(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want uint64
	}{
		{"number", `{"balance":1000}`, 1000},
		{"number truncated", `{"balance":99.9}`, 99},
		{"negative number", `{"balance":-5}`, 0},
		{"decimal string", `{"balance":"12345"}`, 12345},
		{"max uint64 string", `{"balance":"18446744073709551615"}`, 18446744073709551615},
		{"malformed string", `{"balance":"not-a-number"}`, 0},
		{"negative string", `{"balance":"-5"}`, 0},
		{"bool", `{"balance":true}`, 0},
		{"null", `{"balance":null}`, 0},
		{"absent", `{}`, 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, uint64Field(fields(t, c.raw), "balance"))
		})
	}
}

func TestInt64Field(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int64
	}{
		{"number", `{"height":42}`, 42},
		{"zero", `{"height":0}`, 0},
		{"string rejected", `{"height":"42"}`, 0},
		{"null", `{"height":null}`, 0},
		{"absent", `{}`, 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, int64Field(fields(t, c.raw), "height"))
		})
	}
}

func TestBoolField(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want bool
	}{
		{"true", `{"is_archon":true}`, true},
		{"false", `{"is_archon":false}`, false},
		{"string rejected", `{"is_archon":"true"}`, false},
		{"number rejected", `{"is_archon":1}`, false},
		{"absent", `{}`, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, boolField(fields(t, c.raw), "is_archon"))
		})
	}
}

func TestResultFields_Malformed(t *testing.T) {
	assert.Nil(t, resultFields(json.RawMessage(`7`)))
	assert.Equal(t, uint64(0), uint64Field(nil, "balance"))
	assert.False(t, boolField(nil, "is_archon"))
}
