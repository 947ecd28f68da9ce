// Package node holds the output of JSON-LD expansion.
//
// An expanded document is a Graph: an ordered, read-only sequence of
// top-level Objects. An Object is a Node (an identified or blank resource
// with types and multi-valued properties), a Literal (a scalar with an
// optional datatype or language) or a List.
//
// Nodes are assembled with a Builder. Properties keep the order in which
// they first appeared, and repeated properties accumulate values instead of
// overwriting them.
//
// Usage:
//
//	for obj := range graph.Objects() {
//	    n, ok := obj.Node()
//	    if !ok {
//	        continue
//	    }
//	    for _, name := range n.Get("http://xmlns.com/foaf/0.1/name") {
//	        s, _ := name.AsString()
//	        fmt.Println(n.ID(), s)
//	    }
//	}
package node
