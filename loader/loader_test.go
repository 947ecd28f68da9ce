package loader

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofhir/jsonld/value"
)

const personContext = `{"@context": {"name": "http://xmlns.com/foaf/0.1/name"}}`

func TestNoLoader(t *testing.T) {
	doc, err := NoLoader{}.Load(context.Background(), "https://example.org/ctx")
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, ErrNotSupported)
	assert.Contains(t, err.Error(), "https://example.org/ctx")
}

func TestFunc(t *testing.T) {
	var got string
	l := Func(func(_ context.Context, url string) (*RemoteDocument, error) {
		got = url
		return &RemoteDocument{URL: url}, nil
	})

	doc, err := l.Load(context.Background(), "https://example.org/a")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/a", doc.URL)
	assert.Equal(t, "https://example.org/a", got)
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.AddJSON("https://example.org/person", []byte(personContext)))
	m.Add("https://example.org/empty", value.Object())

	t.Run("load", func(t *testing.T) {
		doc, err := m.Load(context.Background(), "https://example.org/person")
		require.NoError(t, err)
		assert.Equal(t, "https://example.org/person", doc.URL)
		assert.Equal(t, MediaTypeJSONLD, doc.ContentType)
		assert.True(t, doc.Document.Has("@context"))
	})

	t.Run("not found", func(t *testing.T) {
		_, err := m.Load(context.Background(), "https://example.org/missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := m.Load(ctx, "https://example.org/person")
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("bookkeeping", func(t *testing.T) {
		assert.Equal(t, 2, m.Len())
		assert.Equal(t, []string{"https://example.org/empty", "https://example.org/person"}, m.URLs())
		m.Remove("https://example.org/empty")
		assert.Equal(t, 1, m.Len())
	})

	t.Run("invalid JSON", func(t *testing.T) {
		err := m.AddJSON("https://example.org/bad", []byte(`{"@context":`))
		assert.Error(t, err)
	})
}

func TestDir(t *testing.T) {
	fsys := fstest.MapFS{
		"person.jsonld":   {Data: []byte(personContext)},
		"org/unit.json":   {Data: []byte(`{"@context": {"unit": "https://example.org/unit"}}`)},
		"yaml/terms.yaml": {Data: []byte("\"@context\":\n  label: http://www.w3.org/2000/01/rdf-schema#label\n")},
		"broken.jsonld":   {Data: []byte(`{`)},
	}
	d := NewDir(fsys, "https://example.org/ctx/")

	tests := []struct {
		name        string
		url         string
		contentType string
		wantErr     error
	}{
		{"exact file", "https://example.org/ctx/person.jsonld", MediaTypeJSONLD, nil},
		{"extension added", "https://example.org/ctx/person", MediaTypeJSONLD, nil},
		{"nested json", "https://example.org/ctx/org/unit", MediaTypeJSON, nil},
		{"yaml", "https://example.org/ctx/yaml/terms", MediaTypeYAML, nil},
		{"fragment ignored", "https://example.org/ctx/person#v1", MediaTypeJSONLD, nil},
		{"missing", "https://example.org/ctx/nobody", "", ErrNotFound},
		{"outside prefix", "https://other.org/person", "", ErrNotSupported},
		{"escape attempt", "https://example.org/ctx/../../etc/passwd", "", ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := d.Load(context.Background(), tt.url)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.url, doc.URL)
			assert.Equal(t, tt.contentType, doc.ContentType)
			assert.True(t, doc.Document.Has("@context"))
		})
	}

	t.Run("parse error", func(t *testing.T) {
		_, err := d.Load(context.Background(), "https://example.org/ctx/broken")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})

	t.Run("url round trip", func(t *testing.T) {
		name, ok := d.Name("https://example.org/ctx/org/unit.json")
		require.True(t, ok)
		assert.Equal(t, "org/unit.json", name)
		assert.Equal(t, "https://example.org/ctx/org/unit.json", d.URL(name))
	})
}

func TestEmbedded(t *testing.T) {
	e := NewEmbedded()

	doc, err := e.Load(context.Background(), "http://xmlns.com/foaf/0.1/context.jsonld")
	require.NoError(t, err)
	ctxDef, ok := doc.Document.Get("@context")
	require.True(t, ok)
	assert.True(t, ctxDef.Has("name"))

	again, err := e.Load(context.Background(), "http://xmlns.com/foaf/0.1/context.jsonld")
	require.NoError(t, err)
	assert.True(t, doc.Document.Equal(again.Document))

	_, err = e.Load(context.Background(), "https://example.org/unknown")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NotEmpty(t, e.URLs())
}

func TestChain(t *testing.T) {
	first := NewMemory()
	second := NewMemory()
	require.NoError(t, first.AddJSON("https://example.org/a", []byte(`{"@context": {"a": "https://example.org/a#"}}`)))
	require.NoError(t, second.AddJSON("https://example.org/b", []byte(`{"@context": {"b": "https://example.org/b#"}}`)))

	c := NewChain(NoLoader{}, first)
	c.Add(second)
	assert.Equal(t, 3, c.Len())

	doc, err := c.Load(context.Background(), "https://example.org/b")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/b", doc.URL)

	_, err = c.Load(context.Background(), "https://example.org/c")
	assert.ErrorIs(t, err, ErrNotFound)

	boom := errors.New("disk on fire")
	failing := NewChain(Func(func(context.Context, string) (*RemoteDocument, error) {
		return nil, boom
	}), first)
	_, err = failing.Load(context.Background(), "https://example.org/a")
	assert.ErrorIs(t, err, boom, "hard errors must stop the chain")
}

func TestCaching(t *testing.T) {
	var calls atomic.Int32
	inner := Func(func(_ context.Context, url string) (*RemoteDocument, error) {
		calls.Add(1)
		if url == "https://example.org/fail" {
			return nil, ErrNotFound
		}
		return &RemoteDocument{URL: url, Document: value.Object()}, nil
	})
	c := NewCaching(inner, time.Minute)

	for i := 0; i < 3; i++ {
		_, err := c.Load(context.Background(), "https://example.org/a")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load())
	hits, misses := c.Stats()
	assert.Equal(t, uint64(2), hits)
	assert.Equal(t, uint64(1), misses)
	assert.Equal(t, 1, c.Len())

	t.Run("failures are not cached", func(t *testing.T) {
		before := calls.Load()
		_, err := c.Load(context.Background(), "https://example.org/fail")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = c.Load(context.Background(), "https://example.org/fail")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, before+2, calls.Load())
	})

	t.Run("forget and flush", func(t *testing.T) {
		c.Forget("https://example.org/a")
		assert.Equal(t, 0, c.Len())
		_, err := c.Load(context.Background(), "https://example.org/a")
		require.NoError(t, err)
		c.Flush()
		assert.Equal(t, 0, c.Len())
	})
}

func TestCaching_SingleFlight(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	inner := Func(func(_ context.Context, url string) (*RemoteDocument, error) {
		calls.Add(1)
		<-release
		return &RemoteDocument{URL: url, Document: value.Object()}, nil
	})
	c := NewCaching(inner, 0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Load(context.Background(), "https://example.org/slow")
			assert.NoError(t, err)
		}()
	}

	// Let the goroutines pile up behind the first call.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestCaching_CancelledCallerDoesNotFailOthers(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	inner := Func(func(ctx context.Context, url string) (*RemoteDocument, error) {
		calls.Add(1)
		close(started)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-release:
			return &RemoteDocument{URL: url, Document: value.Object()}, nil
		}
	})
	c := NewCaching(inner, 0)
	const url = "https://example.org/slow"

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.Load(ctxA, url)
		errA <- err
	}()
	<-started

	type result struct {
		doc *RemoteDocument
		err error
	}
	resB := make(chan result, 1)
	go func() {
		doc, err := c.Load(context.Background(), url)
		resB <- result{doc, err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(release)
	b := <-resB
	require.NoError(t, b.err)
	assert.Equal(t, url, b.doc.URL)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, c.Len())
}
