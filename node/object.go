package node

import (
	"github.com/gofhir/jsonld/value"
)

// Kind is the variant of an Object.
type Kind int

// Object variants.
const (
	KindInvalid Kind = iota
	KindNode
	KindLiteral
	KindList
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindLiteral:
		return "literal"
	case KindList:
		return "list"
	default:
		return "invalid"
	}
}

// Literal is an expanded scalar value.
type Literal struct {
	// Value is a string, number or boolean.
	Value value.Value

	// Type is the datatype IRI, or "".
	Type string

	// Language is the language tag of a string value, or "".
	Language string
}

// Equal reports whether two literals are identical.
func (l Literal) Equal(o Literal) bool {
	return l.Type == o.Type && l.Language == o.Language && l.Value.Equal(o.Value)
}

// Object is an expanded value: a Node, a Literal or a List.
// The zero Object is invalid.
type Object struct {
	kind Kind
	node *Node
	lit  Literal
	list []Object
}

// NodeObject wraps n.
func NodeObject(n *Node) Object {
	return Object{kind: KindNode, node: n}
}

// LiteralObject wraps l.
func LiteralObject(l Literal) Object {
	return Object{kind: KindLiteral, lit: l}
}

// ListObject creates a list of items.
func ListObject(items ...Object) Object {
	if items == nil {
		items = []Object{}
	}
	return Object{kind: KindList, list: items}
}

// Kind returns the variant of o.
func (o Object) Kind() Kind { return o.kind }

// Node returns the node held by o.
func (o Object) Node() (*Node, bool) {
	return o.node, o.kind == KindNode
}

// Literal returns the literal held by o.
func (o Object) Literal() (Literal, bool) {
	return o.lit, o.kind == KindLiteral
}

// List returns the items of a list. The slice must not be modified.
func (o Object) List() ([]Object, bool) {
	return o.list, o.kind == KindList
}

// AsString returns the value of a string literal.
func (o Object) AsString() (string, bool) {
	if o.kind != KindLiteral {
		return "", false
	}
	return o.lit.Value.AsString()
}

// Equal reports whether o and other are structurally identical.
func (o Object) Equal(other Object) bool {
	if o.kind != other.kind {
		return false
	}
	switch o.kind {
	case KindNode:
		return o.node.Equal(other.node)
	case KindLiteral:
		return o.lit.Equal(other.lit)
	case KindList:
		return equalObjects(o.list, other.list)
	default:
		return true
	}
}

func equalObjects(a, b []Object) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Value renders o in expanded JSON-LD form.
func (o Object) Value() value.Value {
	switch o.kind {
	case KindNode:
		return o.node.Value()
	case KindLiteral:
		members := []value.Member{value.Pair("@value", o.lit.Value)}
		if o.lit.Type != "" {
			members = append(members, value.Pair("@type", value.String(o.lit.Type)))
		}
		if o.lit.Language != "" {
			members = append(members, value.Pair("@language", value.String(o.lit.Language)))
		}
		return value.Object(members...)
	case KindList:
		return value.Object(value.Pair("@list", objectsValue(o.list)))
	default:
		return value.Null()
	}
}

func objectsValue(objs []Object) value.Value {
	items := make([]value.Value, len(objs))
	for i, o := range objs {
		items[i] = o.Value()
	}
	return value.Array(items...)
}

// MarshalJSON implements json.Marshaler.
func (o Object) MarshalJSON() ([]byte, error) {
	return o.Value().MarshalJSON()
}

// String returns the expanded JSON form of o.
func (o Object) String() string {
	return o.Value().String()
}
