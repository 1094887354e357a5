package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeConverterConvert(t *testing.T) {
	conv := TypeConverter{}

	cases := []struct {
		name         string
		value        any
		expectedType string
		want         any
	}{
		{"int passthrough", 5, "integer", int64(5)},
		{"string to int", "42", "int", int64(42)},
		{"float64 to int truncates", 3.9, "number", int64(3)},
		{"string to float", "3.14", "float", 3.14},
		{"int to float", 7, "float", float64(7)},
		{"bool passthrough", true, "boolean", true},
		{"string true alias", "yes", "bool", true},
		{"string false alias", "off", "boolean", false},
		{"non-string to string", 99, "text", "99"},
		{"string to string", "hi", "str", "hi"},
		{"array passthrough", []any{1, 2}, "list", []any{1, 2}},
		{"json string to array", `[1,2,3]`, "array", []any{float64(1), float64(2), float64(3)}},
		{"object passthrough", map[string]any{"a": 1}, "dict", map[string]any{"a": 1}},
		{"json string to object", `{"a":1}`, "json", map[string]any{"a": float64(1)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := conv.Convert("param", tc.value, tc.expectedType)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTypeConverterConvertErrors(t *testing.T) {
	conv := TypeConverter{}

	cases := []struct {
		name         string
		value        any
		expectedType string
	}{
		{"unknown type", "x", "tuple"},
		{"non-numeric string to int", "abc", "int"},
		{"non-numeric string to float", "abc", "float"},
		{"invalid boolean string", "maybe", "boolean"},
		{"non-convertible to boolean", 1, "boolean"},
		{"malformed json array", "[1,2", "array"},
		{"malformed json object", "{not json}", "object"},
		{"required string value missing", nil, "string"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := conv.Convert("param", tc.value, tc.expectedType)
			assert.Error(t, err)
		})
	}
}
