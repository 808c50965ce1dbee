package dates

import (
	"encoding/json"
	"testing"
)

func TestDisplayText(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"String", "1", "1"},
		{"Integer number", json.Number("42"), "42"},
		{"Trailing zero", json.Number("1.0"), "1"},
		{"Fraction", json.Number("0.25"), "0.25"},
		{"Large", json.Number("1e21"), "1e+21"},
		{"Small", json.Number("0.0000001"), "1e-7"},
		{"Negative zero", -0.0, "0"},
		{"Bool", false, "false"},
		{"Null", nil, "null"},
		{"Array", []any{"a", nil, json.Number("3")}, "a,,3"},
		{"Nested array", []any{[]any{"a", "b"}, "c"}, "a,b,c"},
		{"Object", map[string]any{"k": "v"}, "[object Object]"},
		{"YAML int", 3000, "3000"},
		{"YAML mapping", map[any]any{1: "a"}, "[object Object]"},
		{"Undefined ID", UndefinedID, "undefined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayText(tt.value); got != tt.want {
				t.Errorf("DisplayText(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}
