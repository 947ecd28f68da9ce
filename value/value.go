// Package value provides the generic tree model that expansion walks over.
//
// A Value is an explicit tagged variant over the six JSON shapes. Objects keep
// their members in document order and may carry duplicate keys, since the
// expansion rules depend on both.
package value

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Kind identifies the shape of a Value.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Member is a single key/value pair of an object.
type Member struct {
	Key   string
	Value Value
}

// Value is an immutable node of the input tree.
// The zero Value is null.
type Value struct {
	kind  Kind
	b     bool
	s     string // string contents, or the literal text of a number
	items []Value
	membs []Member
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Number returns a number value from its literal text.
// The text is not validated; use Parse for untrusted input.
func Number(text string) Value { return Value{kind: KindNumber, s: text} }

// Float returns a number value.
func Float(f float64) Value {
	return Value{kind: KindNumber, s: strconv.FormatFloat(f, 'g', -1, 64)}
}

// Int returns an integer number value.
func Int(i int64) Value {
	return Value{kind: KindNumber, s: strconv.FormatInt(i, 10)}
}

// Array returns an array value holding items in order.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, items: items}
}

// Object returns an object value holding members in order.
func Object(members ...Member) Value {
	if members == nil {
		members = []Member{}
	}
	return Value{kind: KindObject, membs: members}
}

// Pair is a shorthand for building a Member.
func Pair(key string, v Value) Member { return Member{Key: key, Value: v} }

// Kind returns the shape of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsScalar reports whether v is a string, number or boolean.
func (v Value) IsScalar() bool {
	return v.kind == KindString || v.kind == KindNumber || v.kind == KindBool
}

// AsString returns the string contents if v is a string.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsBool returns the boolean if v is a boolean.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsFloat returns the numeric value if v is a number.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// NumberText returns the literal text of a number, or "" for other kinds.
func (v Value) NumberText() string {
	if v.kind != KindNumber {
		return ""
	}
	return v.s
}

// Items returns the elements of an array, or nil for other kinds.
// The returned slice must not be modified.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.items
}

// Members returns the members of an object in document order, or nil for
// other kinds. The returned slice must not be modified.
func (v Value) Members() []Member {
	if v.kind != KindObject {
		return nil
	}
	return v.membs
}

// Len returns the number of array items or object members.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindObject:
		return len(v.membs)
	default:
		return 0
	}
}

// Get returns the first member named key.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	for _, m := range v.membs {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Has reports whether the object has a member named key.
func (v Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Equal reports whether two values are structurally identical.
// Object members are compared in order.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	case KindNumber:
		if v.s == o.s {
			return true
		}
		a, okA := v.AsFloat()
		b, okB := o.AsFloat()
		return okA && okB && a == b
	case KindArray:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.membs) != len(o.membs) {
			return false
		}
		for i := range v.membs {
			if v.membs[i].Key != o.membs[i].Key || !v.membs[i].Value.Equal(o.membs[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// MarshalJSON renders the value as JSON, keeping member order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// String renders the value as compact JSON. Intended for diagnostics.
func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return "<invalid>"
	}
	return string(b)
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		buf.WriteString(v.s)
	case KindString:
		return writeString(buf, v.s)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, m := range v.membs {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, m.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := m.Value.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
