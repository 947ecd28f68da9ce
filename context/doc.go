// Package context implements JSON-LD active contexts and context processing.
//
// A Context maps terms to absolute IRIs and carries the optional base IRI,
// vocabulary mapping and default language. Contexts are immutable: Derive
// returns a child that stores only its own entries and defers everything else
// to its parent, so a context can be shared freely between goroutines and
// nested walks.
//
// A Processor merges the value of an @context entry into an active context,
// calling the configured loader.Loader for remote context references.
//
// Usage:
//
//	base := ldctx.New(nil).Derive(
//	    ldctx.WithTerm("name", ldctx.TermDefinition{ID: "http://xmlns.com/foaf/0.1/name"}),
//	)
//	iri, ok := base.Resolve("name")
//
// The package name shadows the standard library; importers alias it as ldctx.
package context
