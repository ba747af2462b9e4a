package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Value is a sealed interface representing a literal scalar.
// Only Null, String, Int, Float, and Bool implement it.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Null represents the SQL NULL literal.
type Null struct{}

func (Null) irValue() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String represents a text literal.
type String string

func (String) irValue() {}

// Int represents an integer literal. Always int64.
type Int int64

func (Int) irValue() {}

// Float represents a floating point literal. Always float64.
type Float float64

func (Float) irValue() {}

// Bool represents a boolean literal.
type Bool bool

func (Bool) irValue() {}

// FromAny converts a Go value to a Value.
//
// Accepted inputs: nil, Value, string, bool, every signed and unsigned
// integer width, float32 and float64. NaN and infinities are rejected because
// no SQL dialect grizzly targets can express them as literals. Unsigned values
// above math.MaxInt64 are rejected.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint:
		return fromUint(uint64(val))
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint64:
		return fromUint(val)
	case float32:
		return fromFloat(float64(val))
	case float64:
		return fromFloat(val)
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", val.String(), err)
		}
		return fromFloat(f)
	default:
		return nil, fmt.Errorf("unsupported literal type: %T", v)
	}
}

func fromUint(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return nil, fmt.Errorf("unsigned value %d overflows int64", u)
	}
	return Int(int64(u)), nil
}

func fromFloat(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite float %v cannot be used as a literal", f)
	}
	return Float(f), nil
}

// MustFromAny is like FromAny but panics on error.
// Intended for tests and statically known literals.
func MustFromAny(v any) Value {
	val, err := FromAny(v)
	if err != nil {
		panic(err)
	}
	return val
}

// ToAny converts a Value back to its Go native form.
// Null becomes nil. Used to pass literals as database/sql parameters.
func ToAny(v Value) any {
	switch val := v.(type) {
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	default:
		return nil
	}
}

// Format renders a Value for human-readable output.
// Null renders as the empty string; floats use the shortest representation.
func Format(v Value) string {
	switch val := v.(type) {
	case String:
		return string(val)
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Bool:
		return strconv.FormatBool(bool(val))
	default:
		return ""
	}
}

// MarshalValue marshals a Value to (non-canonical) JSON bytes.
// Use MarshalCanonical for fingerprinting.
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil, Null:
		return []byte("null"), nil
	case String:
		return json.Marshal(string(val))
	case Int:
		return json.Marshal(int64(val))
	case Float:
		return json.Marshal(float64(val))
	case Bool:
		return json.Marshal(bool(val))
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}
