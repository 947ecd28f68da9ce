package engine

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ld "github.com/gofhir/jsonld"
	ldctx "github.com/gofhir/jsonld/context"
	"github.com/gofhir/jsonld/loader"
	"github.com/gofhir/jsonld/node"
	"github.com/gofhir/jsonld/pkg/logger"
	"github.com/gofhir/jsonld/value"
)

const foafName = "http://xmlns.com/foaf/0.1/name"

func parse(t testing.TB, s string) value.Value {
	t.Helper()
	v, err := value.Parse([]byte(s))
	require.NoError(t, err)
	return v
}

func newExpander(opts ...ld.Option) *Expander {
	return New(append([]ld.Option{ld.WithLogger(logger.Discard())}, opts...)...)
}

func contextDoc(members ...value.Member) value.Value {
	return value.Object(value.Pair("@context", value.Object(members...)))
}

func TestNew(t *testing.T) {
	e := New()
	require.NotNil(t, e.Options())
	require.NotNil(t, e.Metrics())
	require.NotNil(t, e.Processor())
	assert.Equal(t, ld.ProcessingModeJSONLD11, e.Options().ProcessingMode)
	assert.NoError(t, e.Close())
}

func TestExpand_FOAFName(t *testing.T) {
	doc := parse(t, `{"@context":{"name":"http://xmlns.com/foaf/0.1/name"}, "@id":"https://example.org/x", "name":"A"}`)

	g, err := newExpander().Expand(context.Background(), doc, nil)
	require.NoError(t, err)
	require.Equal(t, 1, g.Len())

	n, ok := g.At(0).Node()
	require.True(t, ok)
	assert.Equal(t, "https://example.org/x", n.ID())
	assert.Equal(t, 1, n.Len())

	values := n.Get(foafName)
	require.Len(t, values, 1)
	lit, ok := values[0].Literal()
	require.True(t, ok)
	s, _ := lit.Value.AsString()
	assert.Equal(t, "A", s)
	assert.Empty(t, lit.Type)
	assert.Empty(t, lit.Language)
}

func TestExpand_UnknownTermYieldsEmptyGraph(t *testing.T) {
	g, err := newExpander().Expand(context.Background(), parse(t, `{"unknownTerm": "x"}`), nil)
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, 0, g.Len())

	data, err := json.Marshal(g)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestExpand_DuplicatePropertiesAccumulate(t *testing.T) {
	doc := parse(t, `{
		"@context": {"name": "http://xmlns.com/foaf/0.1/name"},
		"@id": "https://example.org/x",
		"name": "first",
		"name": "second"
	}`)

	g, err := newExpander().Expand(context.Background(), doc, nil)
	require.NoError(t, err)

	n, ok := g.Find("https://example.org/x")
	require.True(t, ok)
	values := n.Get(foafName)
	require.Len(t, values, 2)
	first, _ := values[0].AsString()
	second, _ := values[1].AsString()
	assert.Equal(t, "first", first)
	assert.Equal(t, "second", second)
}

func TestExpand_LoaderFailure(t *testing.T) {
	doc := parse(t, `{"@context": "https://example.org/missing.jsonld", "name": "A"}`)

	g, err := newExpander().Expand(context.Background(), doc, nil)
	require.Error(t, err)
	assert.Nil(t, g)
	assert.ErrorIs(t, err, ld.ErrContextLoadFailed)
	assert.ErrorIs(t, err, loader.ErrNotSupported)

	var le *ld.Error
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "https://example.org/missing.jsonld", le.URL)
	assert.Equal(t, "/@context", le.Path)
}

func TestExpand_PreservesOrder(t *testing.T) {
	doc := parse(t, `[
		{"@id": "https://example.org/3", "http://example.org/z": 1, "http://example.org/a": 2, "http://example.org/m": 3},
		{"@id": "https://example.org/1"},
		{"@id": "https://example.org/2", "http://example.org/b": [3, 2, 1]}
	]`)

	g, err := newExpander().Expand(context.Background(), doc, nil)
	require.NoError(t, err)

	var ids []string
	for n := range g.Nodes() {
		ids = append(ids, n.ID())
	}
	assert.Equal(t, []string{"https://example.org/3", "https://example.org/1", "https://example.org/2"}, ids)

	first, _ := g.Find("https://example.org/3")
	var props []string
	for p := range first.All() {
		props = append(props, p)
	}
	assert.Equal(t, []string{"http://example.org/z", "http://example.org/a", "http://example.org/m"}, props)

	last, _ := g.Find("https://example.org/2")
	var nums []string
	for _, o := range last.Get("http://example.org/b") {
		lit, _ := o.Literal()
		nums = append(nums, lit.Value.NumberText())
	}
	assert.Equal(t, []string{"3", "2", "1"}, nums)
}

func TestExpand_Base(t *testing.T) {
	doc := parse(t, `[{"@id": "a"}, {"@id": "../b"}]`)

	g, err := newExpander(ld.WithBase("https://example.org/docs/")).Expand(context.Background(), doc, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"@id": "https://example.org/docs/a"}, {"@id": "https://example.org/b"}]`, mustJSON(t, g))

	g, err = newExpander().Expand(context.Background(), parse(t, `[{"@id": "https://example.org/ok"}, {"@id": "rel"}]`), nil)
	assert.Nil(t, g)
	require.ErrorIs(t, err, ld.ErrInvalidIdentifier)

	var le *ld.Error
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "/1/@id", le.Path)
}

func TestExpand_InitialAndExpandContext(t *testing.T) {
	e := newExpander(ld.WithExpandContext(contextDoc(value.Pair("name", value.String(foafName)))))
	initial := ldctx.New(nil).Derive(
		ldctx.WithTerm("knows", ldctx.TermDefinition{ID: "http://xmlns.com/foaf/0.1/knows", Type: ldctx.TypeID}),
	)

	doc := parse(t, `{"@id": "https://example.org/a", "name": "A", "knows": "https://example.org/b"}`)

	g, err := e.Expand(context.Background(), doc, initial)
	require.NoError(t, err)
	assert.JSONEq(t, `[{
		"@id": "https://example.org/a",
		"http://xmlns.com/foaf/0.1/name": [{"@value": "A"}],
		"http://xmlns.com/foaf/0.1/knows": [{"@id": "https://example.org/b"}]
	}]`, mustJSON(t, g))

	// Without an initial context only the expand context applies.
	g, err = e.Expand(context.Background(), doc, nil)
	require.NoError(t, err)
	n, _ := g.Find("https://example.org/a")
	assert.True(t, n.Has(foafName))
	assert.False(t, n.Has("http://xmlns.com/foaf/0.1/knows"))
}

func TestExpand_InitialContextNotModified(t *testing.T) {
	initial := ldctx.New(nil).Derive(ldctx.WithTerm("name", ldctx.TermDefinition{ID: foafName}))
	doc := parse(t, `{"@context": {"name": "http://schema.org/name"}, "@id": "https://example.org/a", "name": "A"}`)

	g, err := newExpander().Expand(context.Background(), doc, initial)
	require.NoError(t, err)
	n, _ := g.Find("https://example.org/a")
	assert.True(t, n.Has("http://schema.org/name"))

	iri, ok := initial.Resolve("name")
	require.True(t, ok)
	assert.Equal(t, foafName, iri)
}

func TestExpandBytes(t *testing.T) {
	e := newExpander()

	g, err := e.ExpandBytes(context.Background(), []byte(`{"@id": "https://example.org/j", "http://example.org/p": true}`), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, g.Len())

	yamlDoc := []byte(`"@context":
  name: http://xmlns.com/foaf/0.1/name
"@id": https://example.org/y
name: A
`)
	g, err = e.ExpandBytes(context.Background(), yamlDoc, nil)
	require.NoError(t, err)
	n, ok := g.Find("https://example.org/y")
	require.True(t, ok)
	assert.Len(t, n.Get(foafName), 1)

	g, err = e.ExpandBytes(context.Background(), []byte(`{"@id": `), nil)
	assert.Nil(t, g)
	assert.ErrorIs(t, err, ld.ErrInvalidInput)
	assert.ErrorIs(t, err, value.ErrSyntax)
}

func TestExpand_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g, err := newExpander().Expand(ctx, parse(t, `{"@id": "https://example.org/x"}`), nil)
	assert.Nil(t, g)
	assert.ErrorIs(t, err, ld.ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExpand_CancelledBetweenTopLevelElements(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	remote := contextDoc(value.Pair("name", value.String(foafName)))
	l := loader.Func(func(_ context.Context, url string) (*loader.RemoteDocument, error) {
		cancel()
		return &loader.RemoteDocument{URL: url, Document: remote}, nil
	})

	doc := parse(t, `[
		{"@context": "https://example.org/c.jsonld", "@id": "https://example.org/a", "name": "A"},
		{"@id": "https://example.org/b"}
	]`)

	g, err := newExpander(ld.WithLoader(l)).Expand(ctx, doc, nil)
	assert.Nil(t, g)
	assert.ErrorIs(t, err, ld.ErrCancelled)
}

func TestExpand_Metrics(t *testing.T) {
	mem := loader.NewMemory()
	mem.Add("https://example.org/c.jsonld", contextDoc(value.Pair("name", value.String(foafName))))

	metrics := ld.NewMetrics()
	e := newExpander(ld.WithLoader(mem), ld.WithMetrics(metrics))
	doc := parse(t, `{"@context": "https://example.org/c.jsonld", "@id": "https://example.org/a", "name": "A"}`)

	for range 2 {
		_, err := e.Expand(context.Background(), doc, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, uint64(2), metrics.ExpansionsTotal())
	assert.Equal(t, uint64(1), metrics.Loads(), "second expansion reuses the processed context")
	assert.InDelta(t, 0.5, metrics.CacheHitRate(), 1e-9)
	assert.Equal(t, uint64(2), metrics.NodesBuilt())

	assert.Equal(t, 1, e.Forget("https://example.org/c.jsonld"))
	_, err := e.Expand(context.Background(), doc, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), metrics.Loads())

	_, err = e.Expand(context.Background(), parse(t, `{"@context": "https://example.org/other.jsonld"}`), nil)
	require.Error(t, err)
	assert.Equal(t, uint64(1), metrics.ExpansionsFailed())
	assert.Equal(t, uint64(1), metrics.ErrorCount(ld.CodeContextLoadFailed))
}

func TestExpand_Concurrent(t *testing.T) {
	mem := loader.NewMemory()
	mem.Add("https://example.org/c.jsonld", contextDoc(value.Pair("name", value.String(foafName))))
	e := newExpander(ld.WithLoader(mem))
	doc := parse(t, `{"@context": "https://example.org/c.jsonld", "@id": "https://example.org/a", "name": "A"}`)

	want, err := e.Expand(context.Background(), doc, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, err := e.Expand(context.Background(), doc, nil)
			if err != nil {
				errs <- err
				return
			}
			if !g.Equal(want) {
				errs <- errors.New("graphs differ")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func mustJSON(t *testing.T, g *node.Graph) string {
	t.Helper()
	data, err := json.Marshal(g)
	require.NoError(t, err)
	return string(data)
}
