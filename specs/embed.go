// Package specs provides embedded JSON-LD context documents.
//
// The bundled contexts cover common vocabularies (FOAF, Dublin Core terms,
// a schema.org subset and a prefix-only context) so that documents referring
// to them can be expanded offline through loader.Embedded.
//
// Usage:
//
//	data, ok := specs.Lookup("http://xmlns.com/foaf/0.1/context.jsonld")
//	if !ok {
//	    return specs.ErrUnknownContext
//	}
package specs

import (
	"embed"
	"errors"
	"path"
	"sort"
	"strings"
)

// Contexts holds the bundled context documents.
//
//go:embed contexts/*.jsonld
var Contexts embed.FS

// ErrUnknownContext is returned for URLs without a bundled document.
var ErrUnknownContext = errors.New("no embedded context for URL")

// dir is the directory inside Contexts holding the documents.
const dir = "contexts"

// ContextFiles maps the well-known URL of each bundled context to its file.
var ContextFiles = map[string]string{
	"http://xmlns.com/foaf/0.1/context.jsonld":  "foaf.jsonld",
	"http://purl.org/dc/terms/context.jsonld":   "dcterms.jsonld",
	"http://schema.org/":                        "schema.jsonld",
	"https://schema.org/":                       "schema.jsonld",
	"http://schema.org/docs/jsonldcontext.json": "schema.jsonld",
	"https://www.w3.org/ns/prefixes.jsonld":     "prefixes.jsonld",
}

// normalize drops a fragment and a trailing "#" from url.
func normalize(url string) string {
	if i := strings.IndexByte(url, '#'); i >= 0 {
		url = url[:i]
	}
	return url
}

// Lookup returns the bundled document for url.
func Lookup(url string) ([]byte, bool) {
	name, ok := ContextFiles[normalize(url)]
	if !ok {
		return nil, false
	}
	data, err := Contexts.ReadFile(path.Join(dir, name))
	if err != nil {
		return nil, false
	}
	return data, true
}

// ReadFile returns a bundled document by file name.
func ReadFile(name string) ([]byte, error) {
	return Contexts.ReadFile(path.Join(dir, name))
}

// URLs returns the URLs with a bundled document, sorted.
func URLs() []string {
	urls := make([]string, 0, len(ContextFiles))
	for u := range ContextFiles {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}
