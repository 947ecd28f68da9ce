package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	ld "github.com/gofhir/jsonld"
	"github.com/gofhir/jsonld/node"
)

// writeText prints a result as an indented outline of nodes, properties and
// values.
func writeText(w io.Writer, r *ld.Result) error {
	bw := bufio.NewWriter(w)

	name := r.Source
	if name == "" {
		name = fmt.Sprintf("document %d", r.Index)
	}
	fmt.Fprintf(bw, "== %s ==\n", name)
	if r.Graph.Len() == 0 {
		fmt.Fprintln(bw, "(empty)")
	}
	for o := range r.Graph.Objects() {
		writeObject(bw, o, 0)
	}
	fmt.Fprintln(bw)
	return bw.Flush()
}

func writeObject(w *bufio.Writer, o node.Object, depth int) {
	indent := strings.Repeat("  ", depth)

	switch o.Kind() {
	case node.KindNode:
		n, _ := o.Node()
		id := "[]"
		if n.HasID() {
			id = "<" + n.ID() + ">"
		}
		fmt.Fprintf(w, "%s%s\n", indent, id)
		for _, t := range n.Types() {
			fmt.Fprintf(w, "%s  a <%s>\n", indent, t)
		}
		for _, p := range n.Properties() {
			fmt.Fprintf(w, "%s  <%s>\n", indent, p.IRI)
			if len(p.Values) == 0 {
				fmt.Fprintf(w, "%s    (none)\n", indent)
			}
			for _, v := range p.Values {
				writeObject(w, v, depth+2)
			}
		}
	case node.KindLiteral:
		l, _ := o.Literal()
		fmt.Fprintf(w, "%s%s\n", indent, formatLiteral(l))
	case node.KindList:
		items, _ := o.List()
		fmt.Fprintf(w, "%s( list of %d\n", indent, len(items))
		for _, item := range items {
			writeObject(w, item, depth+1)
		}
		fmt.Fprintf(w, "%s)\n", indent)
	}
}

func formatLiteral(l node.Literal) string {
	s := l.Value.String()
	switch {
	case l.Language != "":
		return s + "@" + l.Language
	case l.Type != "":
		return s + "^^<" + l.Type + ">"
	default:
		return s
	}
}
