package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"

	"github.com/gofhir/jsonld/value"
)

const peopleContext = `{
	"foaf": "http://xmlns.com/foaf/0.1/",
	"name": "foaf:name",
	"knows": {"@id": "foaf:knows", "@type": "@id"},
	"age": {"@id": "foaf:age", "@type": "http://www.w3.org/2001/XMLSchema#integer"},
	"nick": {"@id": "foaf:nick", "@container": "@list"},
	"title": {"@id": "http://purl.org/dc/terms/title", "@container": "@language"}
}`

var word = rapid.StringMatching(`[a-z]{1,6}`)

func drawStrings(rt *rapid.T, label string) value.Value {
	n := rapid.IntRange(0, 3).Draw(rt, label+"Len")
	items := make([]value.Value, n)
	for i := range items {
		items[i] = value.String(word.Draw(rt, label))
	}
	return value.Array(items...)
}

func drawNode(rt *rapid.T, depth int) value.Value {
	var members []value.Member
	if rapid.Bool().Draw(rt, "hasID") {
		members = append(members, value.Pair("@id", value.String("https://example.org/"+word.Draw(rt, "id"))))
	}
	if rapid.Bool().Draw(rt, "hasType") {
		members = append(members, value.Pair("@type", value.String("foaf:"+word.Draw(rt, "type"))))
	}

	props := rapid.IntRange(0, 4).Draw(rt, "props")
	for range props {
		key := rapid.SampledFrom([]string{"name", "knows", "age", "nick", "title"}).Draw(rt, "key")
		var v value.Value
		switch key {
		case "name":
			if rapid.Bool().Draw(rt, "nameArray") {
				v = drawStrings(rt, "name")
			} else {
				v = value.String(word.Draw(rt, "name"))
			}
		case "knows":
			if depth < 2 && rapid.Bool().Draw(rt, "nested") {
				v = drawNode(rt, depth+1)
			} else {
				v = value.String("https://example.org/" + word.Draw(rt, "ref"))
			}
		case "age":
			v = value.Int(rapid.Int64Range(-1000, 1000).Draw(rt, "age"))
		case "nick":
			v = drawStrings(rt, "nick")
		case "title":
			var langs []value.Member
			for _, tag := range rapid.SliceOfNDistinct(rapid.SampledFrom([]string{"en", "de", "fr"}), 1, 3, rapid.ID[string]).Draw(rt, "langs") {
				langs = append(langs, value.Pair(tag, value.String(word.Draw(rt, "title"))))
			}
			v = value.Object(langs...)
		}
		members = append(members, value.Pair(key, v))
	}
	return value.Object(members...)
}

func drawDocument(rt *rapid.T) value.Value {
	ctx, err := value.Parse([]byte(peopleContext))
	if err != nil {
		rt.Fatalf("context: %v", err)
	}
	n := rapid.IntRange(0, 5).Draw(rt, "nodes")
	nodes := make([]value.Value, n)
	for i := range nodes {
		nodes[i] = drawNode(rt, 0)
	}
	return value.Object(
		value.Pair("@context", ctx),
		value.Pair("@graph", value.Array(nodes...)),
	)
}

func TestExpand_IdempotentProperty(t *testing.T) {
	e := newExpander()

	rapid.Check(t, func(rt *rapid.T) {
		doc := drawDocument(rt)

		first, err := e.Expand(context.Background(), doc, nil)
		if err != nil {
			rt.Fatalf("first expansion: %v", err)
		}
		second, err := e.Expand(context.Background(), doc, nil)
		if err != nil {
			rt.Fatalf("second expansion: %v", err)
		}
		if !cmp.Equal(first, second) {
			rt.Fatalf("expansions differ:\n%s\n%s", first.Value(), second.Value())
		}
	})
}

func TestExpand_ExpandedFormIsFixedPoint(t *testing.T) {
	e := newExpander()

	rapid.Check(t, func(rt *rapid.T) {
		doc := drawDocument(rt)

		expanded, err := e.Expand(context.Background(), doc, nil)
		if err != nil {
			rt.Fatalf("expansion: %v", err)
		}
		data, err := json.Marshal(expanded)
		if err != nil {
			rt.Fatalf("marshal: %v", err)
		}
		again, err := e.ExpandBytes(context.Background(), data, nil)
		if err != nil {
			rt.Fatalf("re-expansion of %s: %v", data, err)
		}
		if !cmp.Equal(expanded, again) {
			rt.Fatalf("re-expansion changed the graph:\n%s\n%s", data, again.Value())
		}
	})
}

func TestExpand_TopLevelOrderProperty(t *testing.T) {
	e := newExpander()

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(rt, "n")
		perm := rapid.Permutation(makeRange(n)).Draw(rt, "perm")

		items := make([]value.Value, n)
		want := make([]string, n)
		for i, k := range perm {
			id := fmt.Sprintf("https://example.org/n%d", k)
			want[i] = id
			items[i] = value.Object(
				value.Pair("@id", value.String(id)),
				value.Pair("http://example.org/p", value.Int(int64(k))),
			)
		}

		g, err := e.Expand(context.Background(), value.Array(items...), nil)
		if err != nil {
			rt.Fatalf("expansion: %v", err)
		}
		var got []string
		for nd := range g.Nodes() {
			got = append(got, nd.ID())
		}
		if diff := cmp.Diff(want, got); diff != "" {
			rt.Fatalf("order mismatch (-want +got):\n%s", diff)
		}
	})
}

func makeRange(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
