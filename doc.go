// Package jsonld provides JSON-LD document expansion.
//
// Expansion removes the context dependence of a compact JSON-LD document:
// every term is replaced by the absolute IRI its context maps it to, every
// property becomes a multi-valued ordered set and non-informative values are
// dropped. The result is a Graph of top-level objects that callers iterate.
//
// # Quick Start
//
//	import (
//	    ld "github.com/gofhir/jsonld"
//	    "github.com/gofhir/jsonld/engine"
//	    "github.com/gofhir/jsonld/node"
//	)
//
//	expander := engine.New()
//	graph, err := expander.ExpandBytes(ctx, doc, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for obj := range graph.Objects() {
//	    if n, ok := obj.Node(); ok {
//	        fmt.Println(n.ID())
//	        for _, name := range n.Get("http://xmlns.com/foaf/0.1/name") {
//	            s, _ := name.AsString()
//	            fmt.Println(s)
//	        }
//	    }
//	}
//
// # Functional Options
//
//	expander := engine.New(
//	    ld.WithLoader(loader.NewCaching(loader.NewHTTP(), 10*time.Minute)),
//	    ld.WithBase("https://example.org/"),
//	    ld.WithMaxDepth(64),
//	)
//
// # Error Policy
//
// Expansion is permissive about vocabulary and strict about structure.
// Unresolvable property terms, null values and empty objects are dropped
// silently. Context load failures, malformed identifiers, invalid contexts
// and cancellation abort the whole expansion; no partial graph is returned.
// All errors are *Error values and match the Err* sentinels with errors.Is.
//
// # Packages
//
//   - value: the ordered input tree and its JSON/YAML decoders
//   - iri: identifier validation and resolution
//   - context: term definitions and local context processing
//   - walker: recursive document expansion
//   - node: expanded nodes, literals, lists and the result graph
//   - engine: orchestration, cancellation, tracing and metrics
//   - loader: remote context loaders (none, memory, dir, http, chain, caching)
//   - worker, stream: batch and streaming expansion
package jsonld
