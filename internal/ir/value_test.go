package ir

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	// Compile-time check via assignment
	var _ Value = Null{}
	var _ Value = String("test")
	var _ Value = Int(42)
	var _ Value = Float(1.5)
	var _ Value = Bool(true)
}

func TestFromAny(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null{}},
		{"string", "abc", String("abc")},
		{"bool", true, Bool(true)},
		{"int", 470747760, Int(470747760)},
		{"int8", int8(-3), Int(-3)},
		{"int32", int32(7), Int(7)},
		{"int64", int64(1) << 40, Int(1 << 40)},
		{"uint16", uint16(9), Int(9)},
		{"uint64", uint64(12), Int(12)},
		{"float32", float32(0.5), Float(0.5)},
		{"float64", 2.25, Float(2.25)},
		{"value passthrough", String("x"), String("x")},
		{"json integer", json.Number("12"), Int(12)},
		{"json float", json.Number("1.25"), Float(1.25)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAny(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromAnyRejects(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"struct", struct{}{}},
		{"slice", []int{1}},
		{"NaN", math.NaN()},
		{"Inf", math.Inf(1)},
		{"uint overflow", uint64(math.MaxUint64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromAny(tt.in)
			assert.Error(t, err)
		})
	}
}

func TestMustFromAnyPanics(t *testing.T) {
	assert.Panics(t, func() { MustFromAny(map[string]int{}) })
	assert.Equal(t, Int(1), MustFromAny(1))
}

func TestToAny(t *testing.T) {
	assert.Nil(t, ToAny(Null{}))
	assert.Equal(t, "s", ToAny(String("s")))
	assert.Equal(t, int64(3), ToAny(Int(3)))
	assert.Equal(t, 1.5, ToAny(Float(1.5)))
	assert.Equal(t, true, ToAny(Bool(true)))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "", Format(Null{}))
	assert.Equal(t, "abc", Format(String("abc")))
	assert.Equal(t, "-4", Format(Int(-4)))
	assert.Equal(t, "0.1", Format(Float(0.1)))
	assert.Equal(t, "false", Format(Bool(false)))
}

func TestMarshalValue(t *testing.T) {
	tests := []struct {
		in   Value
		want string
	}{
		{Null{}, "null"},
		{nil, "null"},
		{String(`a"b`), `"a\"b"`},
		{Int(5), "5"},
		{Float(2.5), "2.5"},
		{Bool(true), "true"},
	}

	for _, tt := range tests {
		got, err := MarshalValue(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(got))
	}
}
