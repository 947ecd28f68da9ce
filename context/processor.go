package context

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	ld "github.com/gofhir/jsonld"
	"github.com/gofhir/jsonld/cache"
	"github.com/gofhir/jsonld/iri"
	"github.com/gofhir/jsonld/loader"
	"github.com/gofhir/jsonld/pkg/logger"
	"github.com/gofhir/jsonld/value"
)

// memoKey identifies a processed remote context: the same URL applied to the
// same active context always yields the same result.
type memoKey struct {
	parent uint64
	url    string
}

// Processor merges local contexts into active contexts.
// It is safe for concurrent use; per-expansion state lives in a Run.
type Processor struct {
	loader    loader.Loader
	mode      ld.ProcessingMode
	maxRemote int
	memo      *cache.LRU[memoKey, *Context]

	metrics *ld.Metrics
	log     *logger.Logger
	tracer  trace.Tracer
}

// NewProcessor creates a Processor configured from opts.
// A nil opts uses ld.DefaultOptions().
func NewProcessor(opts *ld.Options) *Processor {
	if opts == nil {
		opts = ld.DefaultOptions()
	}
	p := &Processor{
		loader:    opts.Loader,
		mode:      opts.ProcessingMode,
		maxRemote: opts.MaxRemoteContexts,
		metrics:   opts.Metrics,
		log:       opts.Logger,
		tracer:    opts.Tracer,
	}
	if p.loader == nil {
		p.loader = loader.NoLoader{}
	}
	if p.metrics == nil {
		p.metrics = ld.NewMetrics()
	}
	if p.log == nil {
		p.log = logger.Default()
	}
	p.memo = cache.New(opts.ContextCacheSize, cache.WithEvictCallback(func(k memoKey, _ *Context) {
		p.log.Debug("evicted processed context", "url", k.url)
	}))
	return p
}

// CacheStats returns statistics of the processed-context cache.
func (p *Processor) CacheStats() cache.Stats {
	return p.memo.Stats()
}

// Forget drops every processed context built from url, so the next
// reference loads it again.
func (p *Processor) Forget(url string) int {
	return p.memo.RemoveFunc(func(k memoKey) bool { return k.url == url })
}

// Purge drops every processed context.
func (p *Processor) Purge() {
	p.memo.Purge()
}

// Process merges local into active with a fresh Run.
func (p *Processor) Process(ctx context.Context, active *Context, local value.Value) (*Context, error) {
	return p.NewRun(Hooks{}).Process(ctx, active, local)
}

// Hooks are notified around every Loader call of a Run.
type Hooks struct {
	BeforeLoad func(url string)
	AfterLoad  func(url string, err error)
}

// Run holds the state of the context processing done for one expansion:
// the number of remote contexts loaded so far.
type Run struct {
	p     *Processor
	hooks Hooks
	loads int
}

// NewRun starts a Run.
func (p *Processor) NewRun(hooks Hooks) *Run {
	return &Run{p: p, hooks: hooks}
}

// Loads returns the number of Loader calls made by the run.
func (r *Run) Loads() int {
	return r.loads
}

// Process merges local, the value of an @context entry, into active and
// returns the resulting context. active is not modified.
// Relative context references resolve against the base of active.
func (r *Run) Process(ctx context.Context, active *Context, local value.Value) (*Context, error) {
	return r.process(ctx, active, local, active.Base(), nil, false)
}

func (r *Run) process(
	ctx context.Context,
	active *Context,
	local value.Value,
	refBase string,
	stack []string,
	remote bool,
) (*Context, error) {
	items := []value.Value{local}
	if local.Kind() == value.KindArray {
		items = local.Items()
	}

	result := active
	for _, item := range items {
		var err error
		switch item.Kind() {
		case value.KindNull:
			result = New(nil).Derive(WithBase(result.Base()))
		case value.KindString:
			ref, _ := item.AsString()
			result, err = r.remote(ctx, result, ref, refBase, stack)
		case value.KindObject:
			result, err = r.object(result, item, remote)
		default:
			err = ld.NewError(ld.CodeInvalidLocalContext, "context entry must be null, a string or an object, got %s", item.Kind())
		}
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// remote loads the context document at ref and merges its @context.
func (r *Run) remote(ctx context.Context, active *Context, ref, refBase string, stack []string) (*Context, error) {
	url := ref
	if !iri.IsAbsolute(ref) {
		if refBase == "" {
			return nil, ld.ContextLoadFailed(ref, fmt.Errorf("relative context reference without base: %w", iri.ErrNotAbsolute))
		}
		resolved, err := iri.Resolve(refBase, ref)
		if err != nil {
			return nil, ld.ContextLoadFailed(ref, err)
		}
		url = resolved
	}

	if slices.Contains(stack, url) {
		return nil, &ld.Error{Code: ld.CodeContextOverflow, URL: url, Message: "recursive context inclusion"}
	}

	if err := ctx.Err(); err != nil {
		return nil, ld.Cancelled(err)
	}

	key := memoKey{parent: active.ID(), url: url}
	result, hit, err := r.p.memo.GetOrLoad(key, func() (*Context, error) {
		return r.fetch(ctx, active, url, stack)
	})
	if hit {
		r.p.metrics.RecordCacheHit()
	} else {
		r.p.metrics.RecordCacheMiss()
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// fetch loads url and processes its context on top of active.
func (r *Run) fetch(ctx context.Context, active *Context, url string, stack []string) (*Context, error) {
	if r.loads >= r.p.maxRemote {
		return nil, &ld.Error{
			Code:    ld.CodeContextOverflow,
			URL:     url,
			Message: fmt.Sprintf("more than %d remote contexts", r.p.maxRemote),
		}
	}
	r.loads++

	doc, err := r.load(ctx, url)
	if err != nil {
		return nil, err
	}

	docURL := doc.URL
	if docURL == "" {
		docURL = url
	}

	local, ok := doc.Document.Get(ld.KeywordContext)
	switch {
	case doc.Document.Kind() == value.KindObject && ok:
	case doc.ContextURL != "":
		// A plain JSON document names its context in a Link header.
		local = value.String(doc.ContextURL)
	default:
		return nil, &ld.Error{Code: ld.CodeInvalidLocalContext, URL: url, Message: "remote document has no @context entry"}
	}
	inner := append(stack[:len(stack):len(stack)], url)

	return r.process(ctx, active, local, docURL, inner, true)
}

// load performs one Loader call.
func (r *Run) load(ctx context.Context, url string) (*loader.RemoteDocument, error) {
	if r.hooks.BeforeLoad != nil {
		r.hooks.BeforeLoad(url)
	}

	var span trace.Span
	if r.p.tracer != nil {
		ctx, span = r.p.tracer.Start(ctx, "jsonld.load",
			trace.WithAttributes(attribute.String("jsonld.context.url", url)))
	}

	r.p.log.Debug("loading remote context", "url", url)
	doc, err := r.p.loader.Load(ctx, url)
	if err == nil && doc == nil {
		err = fmt.Errorf("%w: %s", loader.ErrNotFound, url)
	}
	r.p.metrics.RecordLoad(err == nil)

	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
	if r.hooks.AfterLoad != nil {
		r.hooks.AfterLoad(url, err)
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ld.Cancelled(ctxErr)
		}
		r.p.log.Warn("remote context load failed", "url", url, "err", err)
		return nil, ld.ContextLoadFailed(url, err)
	}
	return doc, nil
}

// object merges a context definition object.
func (r *Run) object(active *Context, obj value.Value, remote bool) (*Context, error) {
	next := New(active)

	if v, ok := obj.Get(ld.KeywordVersion); ok {
		if err := r.version(v); err != nil {
			return nil, err
		}
	}

	if v, ok := obj.Get(ld.KeywordImport); ok && !v.IsNull() {
		return nil, ld.NewError(ld.CodeUnsupportedFeature, "@import is not supported")
	}

	for _, kw := range []string{ld.KeywordPropagate, ld.KeywordProtected} {
		if v, ok := obj.Get(kw); ok && v.Kind() != value.KindBool {
			return nil, ld.NewError(ld.CodeInvalidLocalContext, "%s must be a boolean", kw)
		}
	}

	if v, ok := obj.Get(ld.KeywordBase); ok && !remote {
		if err := setBase(next, v); err != nil {
			return nil, err
		}
	}

	if v, ok := obj.Get(ld.KeywordVocab); ok {
		if err := setVocab(next, v); err != nil {
			return nil, err
		}
	}

	if v, ok := obj.Get(ld.KeywordLanguage); ok {
		switch v.Kind() {
		case value.KindNull:
			next.lang = setting{set: true}
		case value.KindString:
			tag, _ := v.AsString()
			next.lang = setting{set: true, value: tag}
		default:
			return nil, ld.NewError(ld.CodeInvalidLocalContext, "@language must be a string or null")
		}
	}

	// Later duplicates of a term win, but keep the position of the first.
	local := make(map[string]value.Value, obj.Len())
	var keys []string
	for _, m := range obj.Members() {
		if contextKeywords[m.Key] {
			continue
		}
		if _, seen := local[m.Key]; !seen {
			keys = append(keys, m.Key)
		}
		local[m.Key] = m.Value
	}

	b := &termBuilder{
		ctx:     next,
		local:   local,
		defined: make(map[string]bool, len(local)),
		mode:    r.p.mode,
		log:     r.p.log,
	}
	for _, k := range keys {
		if err := b.define(k); err != nil {
			return nil, err
		}
	}

	// Dependencies are defined first; keep document order instead.
	ordered := make([]string, 0, len(next.order))
	for _, k := range keys {
		if next.Defines(k) {
			ordered = append(ordered, k)
		}
	}
	next.order = ordered
	return next, nil
}

// contextKeywords are the keywords allowed as keys of a context definition.
var contextKeywords = map[string]bool{
	ld.KeywordBase:      true,
	ld.KeywordVocab:     true,
	ld.KeywordLanguage:  true,
	ld.KeywordVersion:   true,
	ld.KeywordImport:    true,
	ld.KeywordPropagate: true,
	ld.KeywordProtected: true,
	ld.KeywordDirection: true,
}

func (r *Run) version(v value.Value) error {
	if v.Kind() != value.KindNumber || v.NumberText() != "1.1" {
		return ld.NewError(ld.CodeInvalidLocalContext, "invalid @version value %s", v)
	}
	if !r.p.mode.Allows11() {
		return ld.NewError(ld.CodeProcessingModeConflict, "@version 1.1 in %s mode", r.p.mode)
	}
	return nil
}

func setBase(c *Context, v value.Value) error {
	switch v.Kind() {
	case value.KindNull:
		c.base = setting{set: true}
		return nil
	case value.KindString:
	default:
		return ld.NewError(ld.CodeInvalidLocalContext, "@base must be a string or null")
	}

	s, _ := v.AsString()
	if iri.IsAbsolute(s) {
		valid, err := iri.Validate(s)
		if err != nil {
			return ld.Wrap(ld.CodeInvalidLocalContext, err, "invalid @base")
		}
		c.base = setting{set: true, value: valid}
		return nil
	}

	current := c.Base()
	if current == "" {
		return ld.NewError(ld.CodeInvalidLocalContext, "relative @base %q without a base IRI", s)
	}
	resolved, err := iri.Resolve(current, s)
	if err != nil {
		return ld.Wrap(ld.CodeInvalidLocalContext, err, "invalid @base")
	}
	c.base = setting{set: true, value: resolved}
	return nil
}

func setVocab(c *Context, v value.Value) error {
	switch v.Kind() {
	case value.KindNull:
		c.vocab = setting{set: true}
		return nil
	case value.KindString:
	default:
		return ld.NewError(ld.CodeInvalidLocalContext, "@vocab must be a string or null")
	}

	s, _ := v.AsString()
	var vocab string
	switch expanded, ok := c.Resolve(s); {
	case s == "":
		vocab = c.Base()
	case ok && !ld.IsKeyword(expanded):
		vocab = expanded
	case c.Base() != "":
		resolved, err := iri.Resolve(c.Base(), s)
		if err != nil {
			return ld.Wrap(ld.CodeInvalidLocalContext, err, "invalid @vocab")
		}
		vocab = resolved
	}

	if vocab == "" || (!iri.IsAbsolute(vocab) && !iri.IsBlank(vocab)) {
		return ld.NewError(ld.CodeInvalidLocalContext, "invalid vocabulary mapping %q", s)
	}
	c.vocab = setting{set: true, value: vocab}
	return nil
}

// termBuilder creates the term definitions of one local context, following
// dependencies between them and rejecting cycles.
type termBuilder struct {
	ctx     *Context
	local   map[string]value.Value
	defined map[string]bool // false while in progress, true when done
	mode    ld.ProcessingMode
	log     *logger.Logger
}

func (b *termBuilder) define(term string) error {
	if done, seen := b.defined[term]; seen {
		if done {
			return nil
		}
		return ld.NewError(ld.CodeCyclicTermDefinition, "term %q", term)
	}

	switch {
	case term == "":
		return ld.NewError(ld.CodeInvalidTermDefinition, "empty term")
	case ld.IsKeyword(term):
		return ld.NewError(ld.CodeInvalidTermDefinition, "keyword %s cannot be redefined", term)
	case ld.LooksLikeKeyword(term):
		b.log.Warn("ignoring keyword-like term", "term", term)
		b.defined[term] = true
		return nil
	}

	b.defined[term] = false
	def, err := b.build(term, b.local[term])
	if err != nil {
		return err
	}
	b.ctx.define(term, def)
	b.defined[term] = true
	return nil
}

func (b *termBuilder) build(term string, v value.Value) (*TermDefinition, error) {
	switch v.Kind() {
	case value.KindNull:
		return nil, nil
	case value.KindString:
		s, _ := v.AsString()
		id, err := b.expandIRI(term, s)
		if err != nil {
			return nil, err
		}
		def := &TermDefinition{ID: id}
		if !def.IsAlias() {
			simple := !strings.ContainsAny(term, ":/")
			def.Prefix = !b.mode.Allows11() || (simple && (endsWithGenDelim(id) || iri.IsBlank(id)))
		}
		return def, nil
	case value.KindObject:
		return b.buildExpanded(term, v)
	default:
		return nil, ld.NewError(ld.CodeInvalidTermDefinition, "term %q must be a string, an object or null", term)
	}
}

func (b *termBuilder) buildExpanded(term string, obj value.Value) (*TermDefinition, error) {
	for _, m := range obj.Members() {
		switch m.Key {
		case ld.KeywordID, ld.KeywordType, ld.KeywordLanguage, ld.KeywordContainer,
			ld.KeywordPrefix, ld.KeywordProtected, ld.KeywordDirection:
		case ld.KeywordReverse, ld.KeywordContext, ld.KeywordNest, ld.KeywordIndex:
			return nil, ld.NewError(ld.CodeUnsupportedFeature, "term %q: %s is not supported", term, m.Key)
		default:
			return nil, ld.NewError(ld.CodeInvalidTermDefinition, "term %q: unexpected entry %q", term, m.Key)
		}
	}

	def := &TermDefinition{}

	if idVal, ok := obj.Get(ld.KeywordID); ok {
		if idVal.IsNull() {
			return nil, nil
		}
		s, ok := idVal.AsString()
		if !ok {
			return nil, ld.NewError(ld.CodeInvalidTermDefinition, "term %q: @id must be a string", term)
		}
		id, err := b.expandIRI(term, s)
		if err != nil {
			return nil, err
		}
		def.ID = id
	} else {
		id, err := b.implicitID(term)
		if err != nil {
			return nil, err
		}
		def.ID = id
	}

	if tv, ok := obj.Get(ld.KeywordType); ok {
		t, err := b.typeMapping(term, tv)
		if err != nil {
			return nil, err
		}
		def.Type = t
	}

	if lv, ok := obj.Get(ld.KeywordLanguage); ok {
		switch lv.Kind() {
		case value.KindNull:
			def.HasLanguage = true
		case value.KindString:
			def.Language, _ = lv.AsString()
			def.HasLanguage = true
		default:
			return nil, ld.NewError(ld.CodeInvalidTermDefinition, "term %q: @language must be a string or null", term)
		}
	}

	if cv, ok := obj.Get(ld.KeywordContainer); ok {
		c, err := containerMapping(term, cv)
		if err != nil {
			return nil, err
		}
		def.Container = c
	}

	def.Prefix = !b.mode.Allows11() && !def.IsAlias()
	if pv, ok := obj.Get(ld.KeywordPrefix); ok {
		prefix, isBool := pv.AsBool()
		switch {
		case !b.mode.Allows11():
			return nil, ld.NewError(ld.CodeInvalidTermDefinition, "term %q: @prefix requires json-ld-1.1", term)
		case !isBool:
			return nil, ld.NewError(ld.CodeInvalidTermDefinition, "term %q: @prefix must be a boolean", term)
		case strings.ContainsAny(term, ":/"):
			return nil, ld.NewError(ld.CodeInvalidTermDefinition, "term %q: compact IRIs cannot be prefixes", term)
		case prefix && def.IsAlias():
			return nil, ld.NewError(ld.CodeInvalidTermDefinition, "term %q: keyword aliases cannot be prefixes", term)
		}
		def.Prefix = prefix
	}

	return def, nil
}

// implicitID derives the IRI of a term defined without @id.
func (b *termBuilder) implicitID(term string) (string, error) {
	if strings.Contains(term, ":") {
		if prefix, _, ok := iri.SplitCompact(term); ok {
			if _, inLocal := b.local[prefix]; inLocal && prefix != term {
				if err := b.define(prefix); err != nil {
					return "", err
				}
			}
		}
		if expanded, ok := b.ctx.expandCompact(term); ok {
			if out, ok := wellFormed(expanded); ok {
				return out, nil
			}
		} else if out, ok := wellFormed(term); ok {
			return out, nil
		}
	}
	if vocab := b.ctx.Vocab(); vocab != "" {
		if out, ok := wellFormed(vocab + term); ok {
			return out, nil
		}
	}
	return "", ld.NewError(ld.CodeInvalidTermDefinition, "term %q has no IRI mapping", term)
}

// expandIRI expands the IRI mapping s of term, first defining any term of the
// same local context that s depends on.
func (b *termBuilder) expandIRI(term, s string) (string, error) {
	if ld.IsKeyword(s) {
		if s == ld.KeywordContext {
			return "", ld.NewError(ld.CodeInvalidTermDefinition, "term %q: @context cannot be aliased", term)
		}
		return s, nil
	}
	if ld.LooksLikeKeyword(s) {
		return "", ld.NewError(ld.CodeInvalidTermDefinition, "term %q: %q has the form of a keyword", term, s)
	}

	if _, inLocal := b.local[s]; inLocal {
		if err := b.define(s); err != nil {
			return "", err
		}
	}
	if prefix, _, ok := iri.SplitCompact(s); ok {
		if _, inLocal := b.local[prefix]; inLocal {
			if err := b.define(prefix); err != nil {
				return "", err
			}
		}
	}

	out, ok := b.ctx.Resolve(s)
	if !ok {
		return "", ld.NewError(ld.CodeInvalidTermDefinition, "term %q: %q does not expand to an absolute IRI", term, s)
	}
	if !iri.IsBlank(out) && !ld.IsKeyword(out) {
		if _, err := iri.Validate(out); err != nil {
			return "", ld.Wrap(ld.CodeInvalidTermDefinition, err, "term %q", term)
		}
	}
	return out, nil
}

func (b *termBuilder) typeMapping(term string, tv value.Value) (string, error) {
	s, ok := tv.AsString()
	if !ok {
		return "", ld.NewError(ld.CodeInvalidTermDefinition, "term %q: @type must be a string", term)
	}
	switch s {
	case TypeID, TypeVocab:
		return s, nil
	case ld.KeywordJSON, ld.KeywordNone:
		return "", ld.NewError(ld.CodeUnsupportedFeature, "term %q: type %s is not supported", term, s)
	}

	t, err := b.expandIRI(term, s)
	if err != nil {
		return "", err
	}
	if ld.IsKeyword(t) || !iri.IsAbsolute(t) {
		return "", ld.NewError(ld.CodeInvalidTermDefinition, "term %q: invalid type mapping %q", term, s)
	}
	return t, nil
}

func containerMapping(term string, cv value.Value) (Container, error) {
	var names []string
	switch cv.Kind() {
	case value.KindNull:
		return ContainerNone, nil
	case value.KindString:
		s, _ := cv.AsString()
		names = []string{s}
	case value.KindArray:
		for _, item := range cv.Items() {
			s, ok := item.AsString()
			if !ok {
				return ContainerNone, ld.NewError(ld.CodeInvalidTermDefinition, "term %q: @container entries must be strings", term)
			}
			names = append(names, s)
		}
	default:
		return ContainerNone, ld.NewError(ld.CodeInvalidTermDefinition, "term %q: invalid @container", term)
	}

	var list, set, lang bool
	for _, n := range names {
		switch n {
		case ld.KeywordList:
			list = true
		case ld.KeywordSet:
			set = true
		case ld.KeywordLanguage:
			lang = true
		case ld.KeywordIndex, ld.KeywordGraph, ld.KeywordID, ld.KeywordType:
			return ContainerNone, ld.NewError(ld.CodeUnsupportedFeature, "term %q: container %s is not supported", term, n)
		default:
			return ContainerNone, ld.NewError(ld.CodeInvalidTermDefinition, "term %q: unknown container %q", term, n)
		}
	}

	switch {
	case list && (set || lang):
		return ContainerNone, ld.NewError(ld.CodeInvalidTermDefinition, "term %q: @list cannot be combined", term)
	case list:
		return ContainerList, nil
	case lang:
		return ContainerLanguage, nil
	case set:
		return ContainerSet, nil
	default:
		return ContainerNone, nil
	}
}
