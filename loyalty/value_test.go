package loyalty

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceBool(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want Tristate
	}{
		{"native true", Bool(true), True},
		{"native false", Bool(false), False},
		{"non-zero number", Int(3), True},
		{"zero number", Int(0), False},
		{"fractional number", Float(0.5), True},
		{"string yes", String("Yes"), True},
		{"string on with spaces", String("  ON "), True},
		{"string 1", String("1"), True},
		{"string y", String("y"), True},
		{"string false is unknown", String("false"), Unknown},
		{"empty string", String(""), Unknown},
		{"absent", Absent(), Unknown},
		{"object", Value{kind: KindOther}, Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceBool(tt.in))
		})
	}
}

func TestCoerceDecimal(t *testing.T) {
	tests := []struct {
		name   string
		in     Value
		want   string
		wantOK bool
	}{
		{"integer", Int(7), "7", true},
		{"float keeps shortest form", Float(0.1), "0.1", true},
		{"trimmed string", String(" 12.50 "), "12.5", true},
		{"garbage string", String("ten"), "0", false},
		{"empty string", String("  "), "0", false},
		{"boolean", Bool(true), "0", false},
		{"absent", Absent(), "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CoerceDecimal(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestValueUnmarshalJSON(t *testing.T) {
	var attrs Attributes
	raw := `[
		{"name": "flag", "value": true},
		{"name": "percent", "value": 10.25},
		{"name": "text", "value": "yes"},
		{"name": "ref", "value": {"meta": {"href": "x"}}},
		{"name": "nothing", "value": null},
		{"name": "missing"}
	]`
	require.NoError(t, json.Unmarshal([]byte(raw), &attrs))
	require.Len(t, attrs, 6)

	assert.Equal(t, KindBool, attrs.Lookup("flag").Kind())
	assert.Equal(t, KindNumber, attrs.Lookup("percent").Kind())
	assert.Equal(t, "10.25", DecimalOrZero(attrs.Lookup("percent")).String())
	assert.Equal(t, True, CoerceBool(attrs.Lookup("text")))
	assert.Equal(t, KindOther, attrs.Lookup("ref").Kind())
	assert.True(t, attrs.Lookup("nothing").IsAbsent())
	assert.True(t, attrs.Lookup("missing").IsAbsent())
	assert.True(t, attrs.Lookup("unknown name").IsAbsent())
}

func TestAttributesLookupFirstMatchWins(t *testing.T) {
	attrs := Attributes{
		{Name: "percent", Value: Int(5)},
		{Name: "percent", Value: Int(9)},
	}
	assert.Equal(t, "5", DecimalOrZero(attrs.Lookup("percent")).String())
}

func TestValueMarshalJSON(t *testing.T) {
	out, err := json.Marshal([]Value{Bool(true), Int(12), String("a"), Absent()})
	require.NoError(t, err)
	assert.JSONEq(t, `[true, 12, "a", null]`, string(out))
}
