package walker

import (
	"context"
	"slices"

	ld "github.com/gofhir/jsonld"
	ldctx "github.com/gofhir/jsonld/context"
	"github.com/gofhir/jsonld/node"
	"github.com/gofhir/jsonld/pool"
	"github.com/gofhir/jsonld/value"
)

// entry is one member of an object after key resolution.
type entry struct {
	// key is the member name as written.
	key string
	// iri is the expanded property IRI or keyword.
	iri   string
	value value.Value
}

var (
	entrySlices = pool.NewSlicePool[entry](16)
	keywordMaps = pool.NewMapPool[string, entry](8)
)

// object expands a JSON object: a node, value, list or set object.
func (w *Walker) object(ctx context.Context, active *ldctx.Context, f frame, v value.Value) ([]node.Object, error) {
	if err := w.enter(); err != nil {
		return nil, err
	}
	defer w.leave()

	w.emit(ld.StateWalking)

	active, err := w.embeddedContext(ctx, active, v)
	if err != nil {
		return nil, err
	}

	props := entrySlices.Acquire()
	defer entrySlices.Release(props)
	kws := keywordMaps.Acquire()
	defer keywordMaps.Release(kws)

	if err := w.classify(active, v, kws, props); err != nil {
		return nil, err
	}

	if _, ok := kws[ld.KeywordReverse]; ok {
		return nil, w.located(ld.KeywordReverse, ld.NewError(ld.CodeUnsupportedFeature, "reverse properties are not supported"))
	}
	for _, kw := range []string{ld.KeywordNest, "@included"} {
		if _, ok := kws[kw]; ok {
			return nil, w.located(kw, ld.NewError(ld.CodeUnsupportedFeature, "%s is not supported", kw))
		}
	}

	if _, ok := kws[ld.KeywordValue]; ok {
		return w.valueObject(active, f, kws, *props)
	}
	for _, kw := range []string{ld.KeywordList, ld.KeywordSet} {
		if e, ok := kws[kw]; ok {
			return w.container(ctx, active, f, kw, e, kws, *props)
		}
	}
	if e, ok := kws[ld.KeywordGraph]; ok {
		return w.graph(ctx, active, f, e, kws, *props)
	}
	return w.nodeObject(ctx, active, kws, *props)
}

// embeddedContext merges every @context member of v into active.
func (w *Walker) embeddedContext(ctx context.Context, active *ldctx.Context, v value.Value) (*ldctx.Context, error) {
	for _, m := range v.Members() {
		if m.Key != ld.KeywordContext {
			continue
		}
		next, err := w.run.Process(ctx, active, m.Value)
		if err != nil {
			return nil, w.located(ld.KeywordContext, err)
		}
		active = next
	}
	return active, nil
}

// classify resolves the keys of v, splitting keyword members into kws and
// property members, in document order, into props.
func (w *Walker) classify(active *ldctx.Context, v value.Value, kws map[string]entry, props *[]entry) error {
	for _, m := range v.Members() {
		if m.Key == ld.KeywordContext {
			continue
		}
		iri, ok := active.Resolve(m.Key)
		if !ok {
			if ld.LooksLikeKeyword(m.Key) {
				w.log.Debug("ignoring reserved key", "key", m.Key, "path", w.ptr.String())
				continue
			}
			w.ptr.Push(m.Key)
			w.dropTerm(m.Key)
			w.ptr.Pop()
			if w.strict {
				return w.located(m.Key, ld.NewError(ld.CodeUnresolvedTerm, "term %q does not resolve", m.Key))
			}
			continue
		}

		e := entry{key: m.Key, iri: iri, value: m.Value}
		if !ld.IsKeyword(iri) {
			*props = append(*props, e)
			continue
		}

		prev, dup := kws[iri]
		switch {
		case !dup:
			kws[iri] = e
		case iri == ld.KeywordType:
			prev.value = value.Array(slices.Concat(itemsOf(prev.value), itemsOf(e.value))...)
			kws[iri] = prev
		default:
			return w.located(m.Key, ld.NewError(ld.CodeCollidingKeywords, "%s given by both %q and %q", iri, prev.key, m.Key))
		}
	}
	return nil
}

// nodeObject expands a node object.
func (w *Walker) nodeObject(ctx context.Context, active *ldctx.Context, kws map[string]entry, props []entry) ([]node.Object, error) {
	b := node.NewBuilder()

	if e, ok := kws[ld.KeywordID]; ok {
		id, err := w.nodeID(active, e)
		if err != nil {
			return nil, err
		}
		b.SetID(id)
	}

	if e, ok := kws[ld.KeywordType]; ok {
		if err := w.nodeTypes(active, e, b); err != nil {
			return nil, err
		}
	}

	for _, p := range props {
		def, hasDef := active.Lookup(p.key)
		f := frame{iri: p.iri, def: def, hasDef: hasDef}

		w.ptr.Push(p.key)
		objs, err := w.property(ctx, active, f, p.value)
		w.ptr.Pop()
		if err != nil {
			return nil, err
		}

		// An explicit empty array survives as an empty property; anything
		// else that expanded to nothing is dropped.
		if len(objs) == 0 && p.value.Kind() != value.KindArray {
			continue
		}
		b.Add(p.iri, objs...)
	}

	n, ok := b.Build()
	if !ok {
		w.metrics.RecordDroppedValue()
		return nil, nil
	}
	w.metrics.RecordNodes(1)
	return []node.Object{node.NodeObject(n)}, nil
}

// property expands the value of one property according to its term
// definition.
func (w *Walker) property(ctx context.Context, active *ldctx.Context, f frame, v value.Value) ([]node.Object, error) {
	if f.hasDef && f.def.Container == ldctx.ContainerLanguage && v.Kind() == value.KindObject {
		return w.languageMap(active, v)
	}

	objs, err := w.element(ctx, active, f, v)
	if err != nil {
		return nil, err
	}

	if f.hasDef && f.def.Container == ldctx.ContainerList && !isListValue(active, v) {
		return []node.Object{node.ListObject(objs...)}, nil
	}
	return objs, nil
}

// isListValue reports whether v is written as a list object.
func isListValue(active *ldctx.Context, v value.Value) bool {
	if v.Kind() != value.KindObject {
		return false
	}
	for _, m := range v.Members() {
		if iri, ok := active.Resolve(m.Key); ok && iri == ld.KeywordList {
			return true
		}
	}
	return false
}

// nodeID expands an @id member.
func (w *Walker) nodeID(active *ldctx.Context, e entry) (string, error) {
	s, ok := e.value.AsString()
	if !ok {
		return "", w.located(e.key, ld.NewError(ld.CodeInvalidIdentifier, "@id must be a string, got %s", e.value.Kind()))
	}
	id, err := active.ExpandID(s)
	if err != nil {
		return "", w.located(e.key, ld.Wrap(ld.CodeInvalidIdentifier, err, "@id %q", s))
	}
	return id, nil
}

// nodeTypes expands an @type member into b. Types that cannot be expanded
// are dropped.
func (w *Walker) nodeTypes(active *ldctx.Context, e entry, b *node.Builder) error {
	w.ptr.Push(e.key)
	defer w.ptr.Pop()

	for i, t := range itemsOf(e.value) {
		s, ok := t.AsString()
		if !ok {
			w.ptr.PushIndex(i)
			err := w.fail(ld.NewError(ld.CodeInvalidIdentifier, "@type must be a string or an array of strings, got %s", t.Kind()))
			w.ptr.Pop()
			return err
		}
		typ, err := active.ExpandVocabID(s)
		if err != nil {
			w.metrics.RecordDroppedTerm()
			w.log.Warn("dropping unresolved type", "type", s, "path", w.ptr.String(), "err", err)
			continue
		}
		b.AddType(typ)
	}
	return nil
}

// graph expands an object carrying @graph. Only a top-level object with
// nothing but @graph (and @context) is accepted; its contents join the
// default graph.
func (w *Walker) graph(ctx context.Context, active *ldctx.Context, f frame, e entry, kws map[string]entry, props []entry) ([]node.Object, error) {
	if !f.topLevel() || len(props) > 0 || len(kws) > 1 {
		return nil, w.located(e.key, ld.NewError(ld.CodeUnsupportedFeature, "named graphs are not supported"))
	}

	w.ptr.Push(e.key)
	defer w.ptr.Pop()

	objs, err := w.element(ctx, active, frame{iri: ld.KeywordGraph}, e.value)
	if err != nil {
		return nil, err
	}
	return w.keepNodes(objs), nil
}

// container expands an @list or @set object.
func (w *Walker) container(ctx context.Context, active *ldctx.Context, f frame, kw string, e entry, kws map[string]entry, props []entry) ([]node.Object, error) {
	if len(props) > 0 {
		return nil, w.located(props[0].key, ld.NewError(ld.CodeInvalidSetOrList, "%s object with property %q", kw, props[0].key))
	}
	for other, oe := range kws {
		if other != kw && other != ld.KeywordIndex {
			return nil, w.located(oe.key, ld.NewError(ld.CodeInvalidSetOrList, "%s object with %s", kw, other))
		}
	}

	w.ptr.Push(e.key)
	objs, err := w.element(ctx, active, f, e.value)
	w.ptr.Pop()
	if err != nil {
		return nil, err
	}

	if kw == ld.KeywordSet {
		return objs, nil
	}
	return []node.Object{node.ListObject(objs...)}, nil
}

// located adds the pointer of member key to err.
func (w *Walker) located(key string, err error) error {
	w.ptr.Push(key)
	defer w.ptr.Pop()
	return w.fail(err)
}

// itemsOf returns the items of an array, or v itself.
func itemsOf(v value.Value) []value.Value {
	if v.Kind() == value.KindArray {
		return v.Items()
	}
	return []value.Value{v}
}
