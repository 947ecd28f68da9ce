// Package loader provides remote context loaders for JSON-LD expansion.
//
// The expansion engine never performs I/O itself. When a document's @context
// names a remote context by URL, the engine asks its Loader for the document
// and suspends until the Loader returns.
//
// Key components:
//   - NoLoader: fails every request (the default, fully offline)
//   - Memory: in-memory URL to document map
//   - Dir: serves context files from an fs.FS under a URL prefix
//   - Embedded: bundled well-known contexts from the specs package
//   - HTTP: fetches contexts over HTTP(S)
//   - Chain: tries loaders in order, falling through on ErrNotFound
//   - Caching: TTL cache with one in-flight fetch per URL
//
// Example usage:
//
//	l := loader.NewChain(
//	    loader.NewEmbedded(),
//	    loader.NewCaching(loader.NewHTTP(), 10*time.Minute),
//	)
//	exp := engine.New(ld.WithLoader(l))
package loader
