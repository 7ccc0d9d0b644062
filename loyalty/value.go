package loyalty

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind identifies which representation a Value carries.
type Kind int

const (
	KindAbsent Kind = iota
	KindBool
	KindNumber
	KindString
	KindOther // objects, arrays and anything else upstream may send
)

// Value is a loosely typed attribute value as received from upstream JSON.
// It never travels past Value Coercion: callers convert it with CoerceBool or
// CoerceDecimal as soon as they read it.
type Value struct {
	kind Kind
	b    bool
	n    decimal.Decimal
	s    string
}

// Absent returns the value of a missing attribute.
func Absent() Value { return Value{} }

// Bool wraps a native boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps an exact decimal.
func Number(d decimal.Decimal) Value { return Value{kind: KindNumber, n: d} }

// Int wraps an integer.
func Int(i int64) Value { return Number(decimal.NewFromInt(i)) }

// Float wraps a float using its shortest decimal representation.
func Float(f float64) Value { return Number(decimal.NewFromFloat(f)) }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Kind reports the representation held by v.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether v carries nothing.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// UnmarshalJSON decodes any JSON token into a Value. Numbers are kept as exact
// decimals; objects and arrays become KindOther so coercion treats them as
// unknown instead of failing the whole document.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Absent()
		return nil
	}

	switch data[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case '{', '[':
		*v = Value{kind: KindOther}
	default:
		d, err := decimal.NewFromString(string(data))
		if err != nil {
			*v = Value{kind: KindOther}
			return nil
		}
		*v = Number(d)
	}
	return nil
}

// MarshalJSON writes v back in its original JSON shape. KindOther is written as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return []byte(v.n.String()), nil
	case KindString:
		return json.Marshal(v.s)
	default:
		return []byte("null"), nil
	}
}

// Tristate is the result of boolean coercion. Unknown is distinct from False:
// a missing checkbox is not the same as an unchecked one.
type Tristate int

const (
	Unknown Tristate = iota
	False
	True
)

func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

var truthyStrings = map[string]struct{}{
	"1": {}, "true": {}, "yes": {}, "y": {}, "on": {},
}

// IsTruthy reports whether s spells true ("1", "true", "yes", "y", "on"),
// ignoring case and surrounding space.
func IsTruthy(s string) bool {
	_, ok := truthyStrings[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// CoerceBool converts v to a Tristate. Native booleans pass through, numbers
// are true when non-zero, strings are true only when IsTruthy. Every other
// string and every other kind is Unknown.
func CoerceBool(v Value) Tristate {
	switch v.kind {
	case KindBool:
		if v.b {
			return True
		}
		return False
	case KindNumber:
		if v.n.IsZero() {
			return False
		}
		return True
	case KindString:
		if IsTruthy(v.s) {
			return True
		}
	}
	return Unknown
}

// CoerceDecimal converts v to an exact decimal. The second result is false
// when v is absent or cannot be parsed; callers treat that as zero.
func CoerceDecimal(v Value) (decimal.Decimal, bool) {
	switch v.kind {
	case KindNumber:
		return v.n, true
	case KindString:
		s := strings.TrimSpace(v.s)
		if s == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
	return decimal.Zero, false
}

// DecimalOrZero is CoerceDecimal with the absent case folded into zero.
func DecimalOrZero(v Value) decimal.Decimal {
	d, _ := CoerceDecimal(v)
	return d
}
