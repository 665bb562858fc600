package models

import "encoding/json"

// Kind identifies which of the six JSON value shapes a Value holds.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Object
	Array
)

// String returns the lowercase JSON name of the kind
func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Object:
		return "object"
	case Array:
		return "array"
	default:
		return "unknown"
	}
}

// IsContainer reports whether the kind holds members.
func (k Kind) IsContainer() bool {
	return k == Object || k == Array
}

// Member is a single key/value pair of a JSON object.
type Member struct {
	Key   string
	Value Value
}

// Value is a JSON value. The zero Value is null.
// Object members keep their source order.
type Value struct {
	kind    Kind
	boolean bool
	number  json.Number
	str     string
	members []Member
	items   []Value
}

// NullValue returns the JSON null.
func NullValue() Value { return Value{} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{kind: Bool, boolean: b} }

// NumberValue wraps a number literal.
func NumberValue(n json.Number) Value { return Value{kind: Number, number: n} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: String, str: s} }

// ObjectValue builds an object from members in the given order.
func ObjectValue(members ...Member) Value {
	if members == nil {
		members = []Member{}
	}
	return Value{kind: Object, members: members}
}

// ArrayValue builds an array from items in the given order.
func ArrayValue(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: Array, items: items}
}

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// Len returns the member count for containers and 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case Object:
		return len(v.members)
	case Array:
		return len(v.items)
	default:
		return 0
	}
}

// Bool returns the boolean payload.
func (v Value) Bool() bool { return v.boolean }

// Number returns the number literal.
func (v Value) Number() json.Number { return v.number }

// Str returns the string payload.
func (v Value) Str() string { return v.str }

// Members returns the object members in order. The slice must not be modified.
func (v Value) Members() []Member { return v.members }

// Items returns the array items in order. The slice must not be modified.
func (v Value) Items() []Value { return v.items }

// Get looks up an object member by key. Duplicate keys are kept in order,
// so the first member with the key wins. Non-objects have no members.
func (v Value) Get(key string) (Value, bool) {
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Document is a parsed JSON input together with facts about its source.
type Document struct {
	Root Value
	// Size is the number of bytes the root was decoded from.
	Size int64
}
