package node

import (
	"iter"
	"slices"

	"github.com/gofhir/jsonld/value"
)

// Graph is the ordered, read-only result of expanding one document.
type Graph struct {
	objects []Object
}

// NewGraph creates a graph holding objs in order.
func NewGraph(objs ...Object) *Graph {
	return &Graph{objects: slices.Clip(objs)}
}

// Len returns the number of top-level objects.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.objects)
}

// At returns the i-th top-level object.
func (g *Graph) At(i int) Object {
	return g.objects[i]
}

// Objects iterates over the top-level objects in order. Each call starts a
// new pass.
func (g *Graph) Objects() iter.Seq[Object] {
	return func(yield func(Object) bool) {
		if g == nil {
			return
		}
		for _, o := range g.objects {
			if !yield(o) {
				return
			}
		}
	}
}

// Nodes iterates over the top-level objects that are nodes.
func (g *Graph) Nodes() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for o := range g.Objects() {
			if n, ok := o.Node(); ok && !yield(n) {
				return
			}
		}
	}
}

// Slice returns a copy of the top-level objects.
func (g *Graph) Slice() []Object {
	if g == nil {
		return nil
	}
	return slices.Clone(g.objects)
}

// Find returns the first top-level node with identifier id.
func (g *Graph) Find(id string) (*Node, bool) {
	for n := range g.Nodes() {
		if n.ID() == id {
			return n, true
		}
	}
	return nil, false
}

// Equal reports whether g and o hold structurally identical objects in the
// same order.
func (g *Graph) Equal(o *Graph) bool {
	if g == nil || o == nil {
		return g.Len() == 0 && o.Len() == 0
	}
	return equalObjects(g.objects, o.objects)
}

// Value renders the graph as an expanded JSON-LD array.
func (g *Graph) Value() value.Value {
	if g == nil {
		return value.Array()
	}
	return objectsValue(g.objects)
}

// MarshalJSON renders the graph as an expanded JSON-LD document.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return g.Value().MarshalJSON()
}

// Count returns the number of nodes reachable from the top-level objects,
// counting nested nodes and list members.
func (g *Graph) Count() int {
	total := 0
	for o := range g.Objects() {
		total += countNodes(o)
	}
	return total
}

func countNodes(o Object) int {
	switch o.kind {
	case KindNode:
		total := 1
		for _, p := range o.node.props {
			for _, v := range p.Values {
				total += countNodes(v)
			}
		}
		return total
	case KindList:
		total := 0
		for _, v := range o.list {
			total += countNodes(v)
		}
		return total
	default:
		return 0
	}
}
