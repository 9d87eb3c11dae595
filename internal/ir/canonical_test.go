package ir

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", String("hello"), `"hello"`},
		{"empty string", String(""), `""`},
		{"int", Int(42), "42"},
		{"negative int", Int(-100), "-100"},
		{"max int64", Int(9223372036854775807), "9223372036854775807"},
		{"bool", Bool(true), "true"},
		{"null", Null{}, "null"},
		{"go nil", nil, "null"},
		{"empty array", Array{}, "[]"},
		{"empty object", Object{}, "{}"},
		{"row", []any{int64(1), "Ada", nil, true}, `[1,"Ada",null,true]`},
		{"int32", int32(7), "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalDriverValues(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.FixedZone("x", 3600))

	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"decimal", decimal.RequireFromString("1200.50"), `"1200.5"`},
		{"float64", 0.1, `"0.1"`},
		{"float32", float32(2.5), `"2.5"`},
		{"time in utc", at, `"2024-03-01T11:30:00Z"`},
		{"bytes", []byte("hi"), `"aGk="`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

type record map[string]any

func (r record) Map() map[string]any { return r }

func TestMarshalCanonicalComposite(t *testing.T) {
	result, err := MarshalCanonical([]any{record{"street": "Main St", "city": "Springfield"}})
	require.NoError(t, err)
	assert.Equal(t, `[{"city":"Springfield","street":"Main St"}]`, string(result))
}

func TestMarshalCanonicalUnsupported(t *testing.T) {
	_, err := MarshalCanonical(struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")

	_, err = MarshalCanonical([]any{1, make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[1]")
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := Object{
		"zebra": Int(1),
		"alpha": Int(2),
		"beta":  Object{"b": Int(1), "a": Int(2)},
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"beta":{"a":2,"b":1},"zebra":1}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+10000 encodes as the surrogate pair D800 DC00, which sorts before E000.
	obj := Object{
		"\uE000":     Int(1),
		"\U00010000": Int(2),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical(String("<b> & </b>"))
	require.NoError(t, err)
	assert.Equal(t, `"<b> & </b>"`, string(result))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	composed, err := MarshalCanonical(String("caf\u00e9"))
	require.NoError(t, err)
	decomposed, err := MarshalCanonical(String("cafe\u0301"))
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"separators stay literal", "a\u2028b\u2029c", "\"a\u2028b\u2029c\""},
		{"escape text stays escaped", `see \u2028`, `"see \\u2028"`},
		{"both", "lit \\u2028 and real \u2028", "\"lit \\\\u2028 and real \u2028\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(String(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalStringEscaping(t *testing.T) {
	result, err := MarshalCanonical(String("q\"b\\n\n"))
	require.NoError(t, err)
	assert.Equal(t, `"q\"b\\n\n"`, string(result))
}
