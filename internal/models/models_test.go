package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	testCases := []struct {
		kind     Kind
		expected string
	}{
		{Null, "null"},
		{Bool, "boolean"},
		{Number, "number"},
		{String, "string"},
		{Object, "object"},
		{Array, "array"},
		{Kind(42), "unknown"},
	}
	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.kind.String())
		})
	}
}

func TestIsContainer(t *testing.T) {
	assert.True(t, Object.IsContainer())
	assert.True(t, Array.IsContainer())
	for _, k := range []Kind{Null, Bool, Number, String} {
		assert.False(t, k.IsContainer(), k.String())
	}
}

func TestZeroValueIsNull(t *testing.T) {
	var v Value
	assert.Equal(t, Null, v.Kind())
	assert.Equal(t, NullValue(), v)
	assert.Equal(t, 0, v.Len())
}

func TestLen(t *testing.T) {
	testCases := []struct {
		name     string
		value    Value
		expected int
	}{
		{"null", NullValue(), 0},
		{"bool", BoolValue(true), 0},
		{"number", NumberValue(json.Number("12")), 0},
		{"string", StringValue("four"), 0},
		{"empty object", ObjectValue(), 0},
		{"empty array", ArrayValue(), 0},
		{"object", ObjectValue(Member{Key: "a", Value: NullValue()}, Member{Key: "b", Value: NullValue()}), 2},
		{"array", ArrayValue(BoolValue(true), BoolValue(false), NullValue()), 3},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.value.Len())
		})
	}
}

func TestEmptyContainersAreNotNil(t *testing.T) {
	assert.NotNil(t, ObjectValue().Members())
	assert.NotNil(t, ArrayValue().Items())
}

func TestPayloads(t *testing.T) {
	assert.True(t, BoolValue(true).Bool())
	assert.Equal(t, json.Number("1e2"), NumberValue(json.Number("1e2")).Number())
	assert.Equal(t, "hi", StringValue("hi").Str())

	arr := ArrayValue(StringValue("x"), NumberValue(json.Number("1")))
	assert.Equal(t, String, arr.Items()[0].Kind())
	assert.Equal(t, Number, arr.Items()[1].Kind())
}

func TestGet(t *testing.T) {
	obj := ObjectValue(
		Member{Key: "name", Value: StringValue("first")},
		Member{Key: "age", Value: NumberValue(json.Number("30"))},
		Member{Key: "name", Value: StringValue("second")},
	)

	v, ok := obj.Get("name")
	assert.True(t, ok)
	assert.Equal(t, "first", v.Str())

	v, ok = obj.Get("age")
	assert.True(t, ok)
	assert.Equal(t, json.Number("30"), v.Number())

	_, ok = obj.Get("missing")
	assert.False(t, ok)

	// Duplicates stay visible in order.
	members := obj.Members()
	assert.Len(t, members, 3)
	assert.Equal(t, "second", members[2].Value.Str())
}

func TestGet_NonObject(t *testing.T) {
	_, ok := ArrayValue(StringValue("name")).Get("name")
	assert.False(t, ok)

	_, ok = StringValue("name").Get("name")
	assert.False(t, ok)
}
