package node

import (
	"iter"
	"slices"

	"github.com/gofhir/jsonld/value"
)

// Property is one expanded property of a node.
type Property struct {
	IRI    string
	Values []Object
}

// Node is an expanded node. Nodes are immutable once built.
type Node struct {
	id    string
	types []string
	props []Property
	index map[string]int
}

// ID returns the node identifier, or "" for an anonymous node.
func (n *Node) ID() string { return n.id }

// HasID reports whether the node is identified.
func (n *Node) HasID() bool { return n.id != "" }

// Types returns the @type IRIs in document order. The slice must not be
// modified.
func (n *Node) Types() []string { return n.types }

// HasType reports whether t is one of the node's types.
func (n *Node) HasType(t string) bool {
	return slices.Contains(n.types, t)
}

// Get returns the values of property iri, or nil.
func (n *Node) Get(iri string) []Object {
	if i, ok := n.index[iri]; ok {
		return n.props[i].Values
	}
	return nil
}

// First returns the first value of property iri.
func (n *Node) First(iri string) (Object, bool) {
	if vs := n.Get(iri); len(vs) > 0 {
		return vs[0], true
	}
	return Object{}, false
}

// Has reports whether the node has property iri.
func (n *Node) Has(iri string) bool {
	_, ok := n.index[iri]
	return ok
}

// Properties returns the properties in order of first appearance.
// The slice must not be modified.
func (n *Node) Properties() []Property { return n.props }

// All iterates over properties in order of first appearance.
func (n *Node) All() iter.Seq2[string, []Object] {
	return func(yield func(string, []Object) bool) {
		for _, p := range n.props {
			if !yield(p.IRI, p.Values) {
				return
			}
		}
	}
}

// Len returns the number of properties.
func (n *Node) Len() int { return len(n.props) }

// IsReference reports whether the node carries only an identifier.
func (n *Node) IsReference() bool {
	return n.id != "" && len(n.types) == 0 && len(n.props) == 0
}

// Equal reports whether n and o are structurally identical, including the
// order of types, properties and values.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.id != o.id || !slices.Equal(n.types, o.types) || len(n.props) != len(o.props) {
		return false
	}
	for i := range n.props {
		if n.props[i].IRI != o.props[i].IRI || !equalObjects(n.props[i].Values, o.props[i].Values) {
			return false
		}
	}
	return true
}

// Value renders n in expanded JSON-LD form.
func (n *Node) Value() value.Value {
	members := make([]value.Member, 0, len(n.props)+2)
	if n.id != "" {
		members = append(members, value.Pair("@id", value.String(n.id)))
	}
	if len(n.types) > 0 {
		types := make([]value.Value, len(n.types))
		for i, t := range n.types {
			types[i] = value.String(t)
		}
		members = append(members, value.Pair("@type", value.Array(types...)))
	}
	for _, p := range n.props {
		members = append(members, value.Pair(p.IRI, objectsValue(p.Values)))
	}
	return value.Object(members...)
}

// MarshalJSON implements json.Marshaler.
func (n *Node) MarshalJSON() ([]byte, error) {
	return n.Value().MarshalJSON()
}

// Builder assembles a Node. The zero value is ready to use.
type Builder struct {
	id    string
	types []string
	props []Property
	index map[string]int
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// SetID sets the node identifier. A later call replaces an earlier one.
func (b *Builder) SetID(id string) {
	b.id = id
}

// AddType appends types, skipping ones already present.
func (b *Builder) AddType(types ...string) {
	for _, t := range types {
		if !slices.Contains(b.types, t) {
			b.types = append(b.types, t)
		}
	}
}

// Add appends values to property iri. A property seen before keeps its
// position and accumulates the new values after the existing ones. Adding
// no values still records the property.
func (b *Builder) Add(iri string, values ...Object) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	if i, ok := b.index[iri]; ok {
		b.props[i].Values = append(b.props[i].Values, values...)
		return
	}
	b.index[iri] = len(b.props)
	b.props = append(b.props, Property{IRI: iri, Values: append([]Object{}, values...)})
}

// Empty reports whether nothing has been added.
func (b *Builder) Empty() bool {
	return b.id == "" && len(b.types) == 0 && len(b.props) == 0
}

// Build returns the node. ok is false when the node would carry no
// information (no id, no types, no properties); such nodes are dropped from
// expanded output. The Builder must not be used after Build.
func (b *Builder) Build() (n *Node, ok bool) {
	if b.Empty() {
		return nil, false
	}
	n = &Node{id: b.id, types: b.types, props: b.props, index: b.index}
	if n.index == nil {
		n.index = map[string]int{}
	}
	*b = Builder{}
	return n, true
}
