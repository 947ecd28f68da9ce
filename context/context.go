package context

import (
	"fmt"
	"strings"
	"sync/atomic"

	ld "github.com/gofhir/jsonld"
	"github.com/gofhir/jsonld/iri"
)

// setting is a context-level value (base, vocab, language) that a derived
// context may set, clear or leave to its parent.
type setting struct {
	set   bool
	value string
}

var nextID atomic.Uint64

// Context is an immutable active context.
// The zero value is not usable; create contexts with New or Derive.
// A nil *Context behaves as an empty context.
type Context struct {
	id     uint64
	parent *Context

	// terms holds the definitions made at this level. A nil definition is
	// an explicit null that hides any parent definition.
	terms map[string]*TermDefinition
	order []string

	base  setting
	vocab setting
	lang  setting

	depth int
}

// New creates an empty context inheriting from parent (which may be nil).
func New(parent *Context) *Context {
	c := &Context{id: nextID.Add(1), parent: parent}
	if parent != nil {
		c.depth = parent.depth + 1
	}
	return c
}

// DeriveOption sets an entry of a derived context.
type DeriveOption func(*Context)

// WithTerm defines term in the derived context.
func WithTerm(term string, def TermDefinition) DeriveOption {
	return func(c *Context) {
		c.define(term, &def)
	}
}

// WithoutTerm defines term as null, hiding any inherited definition.
func WithoutTerm(term string) DeriveOption {
	return func(c *Context) {
		c.define(term, nil)
	}
}

// WithBase sets the base IRI. An empty base clears it.
func WithBase(base string) DeriveOption {
	return func(c *Context) {
		c.base = setting{set: true, value: base}
	}
}

// WithVocab sets the vocabulary mapping. An empty vocab clears it.
func WithVocab(vocab string) DeriveOption {
	return func(c *Context) {
		c.vocab = setting{set: true, value: vocab}
	}
}

// WithLanguage sets the default language. An empty tag clears it.
func WithLanguage(tag string) DeriveOption {
	return func(c *Context) {
		c.lang = setting{set: true, value: tag}
	}
}

// Derive returns a child of c with opts applied. c is never modified.
func (c *Context) Derive(opts ...DeriveOption) *Context {
	child := New(c)
	for _, opt := range opts {
		opt(child)
	}
	return child
}

// define must only be called on a context that has not been published yet.
func (c *Context) define(term string, def *TermDefinition) {
	if c.terms == nil {
		c.terms = make(map[string]*TermDefinition)
	}
	if _, ok := c.terms[term]; !ok {
		c.order = append(c.order, term)
	}
	c.terms[term] = def
}

// Lookup returns the definition of term visible from c.
func (c *Context) Lookup(term string) (TermDefinition, bool) {
	for cur := c; cur != nil; cur = cur.parent {
		if def, ok := cur.terms[term]; ok {
			if def == nil {
				return TermDefinition{}, false
			}
			return *def, true
		}
	}
	return TermDefinition{}, false
}

// Defines reports whether term is defined (possibly as null) at this level,
// not counting ancestors.
func (c *Context) Defines(term string) bool {
	if c == nil {
		return false
	}
	_, ok := c.terms[term]
	return ok
}

func (c *Context) lookupSetting(pick func(*Context) setting) string {
	for cur := c; cur != nil; cur = cur.parent {
		if s := pick(cur); s.set {
			return s.value
		}
	}
	return ""
}

// Base returns the base IRI, or "" when none is set.
func (c *Context) Base() string {
	return c.lookupSetting(func(c *Context) setting { return c.base })
}

// Vocab returns the vocabulary mapping, or "" when none is set.
func (c *Context) Vocab() string {
	return c.lookupSetting(func(c *Context) setting { return c.vocab })
}

// Language returns the default language.
func (c *Context) Language() (string, bool) {
	tag := c.lookupSetting(func(c *Context) setting { return c.lang })
	return tag, tag != ""
}

// Depth returns the number of ancestors of c.
func (c *Context) Depth() int {
	if c == nil {
		return 0
	}
	return c.depth
}

// ID returns a process-unique identifier of c. Equal ids mean the same
// context value.
func (c *Context) ID() uint64 {
	if c == nil {
		return 0
	}
	return c.id
}

// Terms returns every term visible from c with a non-null definition, in
// order of first definition.
func (c *Context) Terms() []string {
	var chain []*Context
	for cur := c; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}

	seen := make(map[string]bool)
	var terms []string
	for i := len(chain) - 1; i >= 0; i-- {
		for _, t := range chain[i].order {
			if !seen[t] {
				seen[t] = true
				terms = append(terms, t)
			}
		}
	}

	out := terms[:0]
	for _, t := range terms {
		if _, ok := c.Lookup(t); ok {
			out = append(out, t)
		}
	}
	return out
}

// Resolve expands term as a property key or type name.
//
// Keywords resolve to themselves. A defined term resolves to its mapping; a
// term defined as null does not resolve. Otherwise a compact IRI is expanded
// through its prefix, an absolute IRI or blank node label passes through
// unchanged, and a plain term is appended to the vocabulary mapping if one is
// set. A result that is not a well-formed IRI does not resolve, nor does
// anything else; the caller drops such terms.
func (c *Context) Resolve(term string) (string, bool) {
	if ld.IsKeyword(term) {
		return term, true
	}
	if ld.LooksLikeKeyword(term) {
		return "", false
	}

	for cur := c; cur != nil; cur = cur.parent {
		if def, ok := cur.terms[term]; ok {
			if def == nil {
				return "", false
			}
			return def.ID, true
		}
	}

	if strings.Contains(term, ":") {
		if expanded, ok := c.expandCompact(term); ok {
			return wellFormed(expanded)
		}
		return wellFormed(term)
	}

	if vocab := c.Vocab(); vocab != "" {
		return wellFormed(vocab + term)
	}
	return "", false
}

// wellFormed reports s when it is a blank node label or a valid absolute IRI.
func wellFormed(s string) (string, bool) {
	if _, err := iri.Validate(s); err != nil {
		return "", false
	}
	return s, true
}

// expandCompact expands prefix:suffix through a prefix term.
func (c *Context) expandCompact(s string) (string, bool) {
	prefix, suffix, ok := iri.SplitCompact(s)
	if !ok || prefix == "_" {
		return "", false
	}
	def, ok := c.Lookup(prefix)
	if !ok || !def.Prefix || def.IsAlias() {
		return "", false
	}
	return def.ID + suffix, true
}

// ExpandID expands s as a node identifier: a compact IRI, a blank node
// label, an absolute IRI, or a reference relative to the base IRI.
func (c *Context) ExpandID(s string) (string, error) {
	if s == "" {
		base := c.Base()
		if base == "" {
			return "", fmt.Errorf("empty identifier: %w", iri.ErrNotAbsolute)
		}
		return iri.Validate(base)
	}
	if ld.IsKeyword(s) {
		return "", fmt.Errorf("keyword %q used as identifier: %w", s, iri.ErrMalformed)
	}
	if iri.IsBlank(s) {
		return s, nil
	}
	if expanded, ok := c.expandCompact(s); ok {
		return iri.Validate(expanded)
	}
	if iri.IsAbsolute(s) {
		return iri.Validate(s)
	}

	base := c.Base()
	if base == "" {
		return "", fmt.Errorf("%q has no base to resolve against: %w", s, iri.ErrNotAbsolute)
	}
	resolved, err := iri.Resolve(base, s)
	if err != nil {
		return "", err
	}
	return iri.Validate(resolved)
}

// ExpandVocabID expands s as a term first and as an identifier second, the
// rule for values of terms typed @vocab.
func (c *Context) ExpandVocabID(s string) (string, error) {
	if expanded, ok := c.Resolve(s); ok && !ld.IsKeyword(expanded) {
		return expanded, nil
	}
	return c.ExpandID(s)
}

// String returns a short description for logs.
func (c *Context) String() string {
	if c == nil {
		return "context(empty)"
	}
	return fmt.Sprintf("context(#%d terms=%d depth=%d)", c.id, len(c.Terms()), c.depth)
}
