package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofhir/jsonld/value"
)

// ErrNotFound is returned when a loader has no document for a URL.
var ErrNotFound = errors.New("context document not found")

// ErrNotSupported is returned when a loader does not handle a URL at all.
var ErrNotSupported = errors.New("context loading not supported")

// RemoteDocument is a loaded context document.
type RemoteDocument struct {
	// URL is the final URL of the document after redirects. Relative
	// references inside the document resolve against it.
	URL string

	// Document is the parsed document.
	Document value.Value

	// ContentType is the media type reported by the source, if any.
	ContentType string

	// ContextURL is a context referenced through an HTTP Link header.
	ContextURL string
}

// Loader fetches remote context documents.
// Implementations must honour ctx cancellation.
type Loader interface {
	Load(ctx context.Context, url string) (*RemoteDocument, error)
}

// Func adapts a function to the Loader interface.
type Func func(ctx context.Context, url string) (*RemoteDocument, error)

// Load calls f.
func (f Func) Load(ctx context.Context, url string) (*RemoteDocument, error) {
	return f(ctx, url)
}

// --- Null Implementation ---

// NoLoader fails every request with ErrNotSupported.
type NoLoader struct{}

// Load always returns ErrNotSupported.
func (NoLoader) Load(_ context.Context, url string) (*RemoteDocument, error) {
	return nil, fmt.Errorf("%w: %s", ErrNotSupported, url)
}

// --- Chain ---

// Chain tries multiple loaders in order.
type Chain struct {
	loaders []Loader
}

// NewChain creates a new loader chain.
func NewChain(loaders ...Loader) *Chain {
	return &Chain{loaders: loaders}
}

// Load tries each loader until one succeeds. ErrNotFound and ErrNotSupported
// fall through to the next loader; any other error stops the chain.
func (c *Chain) Load(ctx context.Context, url string) (*RemoteDocument, error) {
	for _, l := range c.loaders {
		doc, err := l.Load(ctx, url)
		if err == nil && doc != nil {
			return doc, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrNotSupported) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
}

// Add appends a loader to the chain.
func (c *Chain) Add(l Loader) {
	c.loaders = append(c.loaders, l)
}

// Len returns the number of loaders in the chain.
func (c *Chain) Len() int {
	return len(c.loaders)
}

// parse decodes a context document. YAML is accepted for files whose name
// says so.
func parse(name string, data []byte) (value.Value, error) {
	if isYAML(name) {
		return value.ParseYAML(data)
	}
	return value.Parse(data)
}
