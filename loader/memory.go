package loader

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gofhir/jsonld/value"
)

// Memory serves context documents from an in-memory map.
// It is safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]value.Value
}

// NewMemory creates an empty in-memory loader.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]value.Value)}
}

// Add registers doc under url, replacing any previous document.
func (m *Memory) Add(url string, doc value.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[url] = doc
}

// AddJSON parses data and registers it under url.
func (m *Memory) AddJSON(url string, data []byte) error {
	doc, err := value.Parse(data)
	if err != nil {
		return fmt.Errorf("context %s: %w", url, err)
	}
	m.Add(url, doc)
	return nil
}

// Remove unregisters url.
func (m *Memory) Remove(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, url)
}

// Len returns the number of registered documents.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// URLs returns the registered URLs, sorted.
func (m *Memory) URLs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	urls := make([]string, 0, len(m.docs))
	for u := range m.docs {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// Load implements Loader.
func (m *Memory) Load(ctx context.Context, url string) (*RemoteDocument, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	m.mu.RLock()
	doc, ok := m.docs[url]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	return &RemoteDocument{URL: url, Document: doc, ContentType: MediaTypeJSONLD}, nil
}
