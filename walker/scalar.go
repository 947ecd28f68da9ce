package walker

import (
	ld "github.com/gofhir/jsonld"
	ldctx "github.com/gofhir/jsonld/context"
	"github.com/gofhir/jsonld/iri"
	"github.com/gofhir/jsonld/node"
	"github.com/gofhir/jsonld/value"
)

// scalar expands a bare string, number or boolean under the active
// property's term definition.
func (w *Walker) scalar(active *ldctx.Context, f frame, v value.Value) (node.Object, error) {
	s, isString := v.AsString()

	if f.hasDef && isString && f.def.CoercesToID() {
		var (
			id  string
			err error
		)
		if f.def.Type == ldctx.TypeVocab {
			id, err = active.ExpandVocabID(s)
		} else {
			id, err = active.ExpandID(s)
		}
		if err != nil {
			return node.Object{}, w.fail(ld.Wrap(ld.CodeInvalidIdentifier, err, "node reference %q", s))
		}
		b := node.NewBuilder()
		b.SetID(id)
		n, _ := b.Build()
		return node.NodeObject(n), nil
	}

	w.emit(ld.StateLiteralEmit)

	lit := node.Literal{Value: v}
	switch {
	case f.hasDef && f.def.Type != "" && !f.def.CoercesToID():
		lit.Type = f.def.Type
	case isString && f.hasDef && f.def.HasLanguage:
		lit.Language = f.def.Language
	case isString:
		lit.Language, _ = active.Language()
	}
	return node.LiteralObject(lit), nil
}

// valueObject validates and expands an object carrying @value.
func (w *Walker) valueObject(active *ldctx.Context, f frame, kws map[string]entry, props []entry) ([]node.Object, error) {
	if len(props) > 0 {
		return nil, w.located(props[0].key, ld.NewError(ld.CodeInvalidValueObject, "value object with property %q", props[0].key))
	}
	for kw, e := range kws {
		switch kw {
		case ld.KeywordValue, ld.KeywordType, ld.KeywordLanguage, ld.KeywordIndex, ld.KeywordDirection:
		default:
			return nil, w.located(e.key, ld.NewError(ld.CodeInvalidValueObject, "value object with %s", kw))
		}
	}

	ve := kws[ld.KeywordValue]
	val := ve.value
	if val.IsNull() {
		w.metrics.RecordDroppedValue()
		return nil, nil
	}

	te, hasType := kws[ld.KeywordType]
	le, hasLang := kws[ld.KeywordLanguage]

	if hasType {
		if t, _ := te.value.AsString(); t == ld.KeywordJSON {
			return nil, w.located(te.key, ld.NewError(ld.CodeUnsupportedFeature, "JSON literals are not supported"))
		}
	}
	if !val.IsScalar() {
		return nil, w.located(ve.key, ld.NewError(ld.CodeInvalidValueObject, "@value must be a scalar, got %s", val.Kind()))
	}
	if hasType && hasLang {
		return nil, w.located(le.key, ld.NewError(ld.CodeInvalidValueObject, "value object with both @type and @language"))
	}

	lit := node.Literal{Value: val}

	if hasLang {
		tag, ok := le.value.AsString()
		if !ok {
			return nil, w.located(le.key, ld.NewError(ld.CodeInvalidValueObject, "@language must be a string"))
		}
		if val.Kind() != value.KindString {
			return nil, w.located(le.key, ld.NewError(ld.CodeInvalidValueObject, "@language on a %s value", val.Kind()))
		}
		lit.Language = tag
	}

	if hasType {
		t, ok := te.value.AsString()
		if !ok {
			return nil, w.located(te.key, ld.NewError(ld.CodeInvalidValueObject, "@type of a value object must be a string"))
		}
		typ, err := active.ExpandVocabID(t)
		if err != nil || !iri.IsAbsolute(typ) {
			return nil, w.located(te.key, ld.NewError(ld.CodeInvalidValueObject, "@type %q is not an absolute IRI", t))
		}
		lit.Type = typ
	}

	w.emit(ld.StateLiteralEmit)
	return []node.Object{node.LiteralObject(lit)}, nil
}

// languageMap expands the value of a term with @container @language.
// Member names are language tags; @none (or an alias of it) means no tag.
func (w *Walker) languageMap(active *ldctx.Context, v value.Value) ([]node.Object, error) {
	var objs []node.Object
	for _, m := range v.Members() {
		tag := m.Key
		if expanded, ok := active.Resolve(tag); ok && expanded == ld.KeywordNone {
			tag = ""
		}

		w.ptr.Push(m.Key)
		for i, item := range itemsOf(m.Value) {
			switch item.Kind() {
			case value.KindNull:
				w.metrics.RecordDroppedValue()
				continue
			case value.KindString:
				w.emit(ld.StateLiteralEmit)
				objs = append(objs, node.LiteralObject(node.Literal{Value: item, Language: tag}))
			default:
				if m.Value.Kind() == value.KindArray {
					w.ptr.PushIndex(i)
				}
				err := w.fail(ld.NewError(ld.CodeInvalidValueObject, "language map values must be strings, got %s", item.Kind()))
				return nil, err
			}
		}
		w.ptr.Pop()
	}
	return objs, nil
}
