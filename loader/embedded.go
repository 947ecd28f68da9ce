package loader

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofhir/jsonld/specs"
	"github.com/gofhir/jsonld/value"
)

// Embedded serves the contexts bundled in the specs package.
type Embedded struct {
	parsed sync.Map // url -> value.Value
}

// NewEmbedded creates a loader over the bundled contexts.
func NewEmbedded() *Embedded {
	return &Embedded{}
}

// Load implements Loader.
func (e *Embedded) Load(ctx context.Context, url string) (*RemoteDocument, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if v, ok := e.parsed.Load(url); ok {
		return &RemoteDocument{URL: url, Document: v.(value.Value), ContentType: MediaTypeJSONLD}, nil
	}

	data, ok := specs.Lookup(url)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	doc, err := value.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("embedded context %s: %w", url, err)
	}
	e.parsed.Store(url, doc)
	return &RemoteDocument{URL: url, Document: doc, ContentType: MediaTypeJSONLD}, nil
}

// URLs returns the URLs served by the loader.
func (e *Embedded) URLs() []string {
	return specs.URLs()
}
