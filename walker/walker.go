package walker

import (
	"context"
	"errors"
	"slices"

	ld "github.com/gofhir/jsonld"
	ldctx "github.com/gofhir/jsonld/context"
	"github.com/gofhir/jsonld/node"
	"github.com/gofhir/jsonld/pkg/logger"
	"github.com/gofhir/jsonld/pool"
	"github.com/gofhir/jsonld/value"
)

// NotifyFunc receives the walker's state changes: ld.StateWalking when an
// object is entered and ld.StateLiteralEmit when a literal is produced.
// detail is the JSON pointer of the location.
type NotifyFunc func(state ld.State, detail string)

// Config configures a Walker.
type Config struct {
	// Options supplies limits, strictness, logger and metrics.
	// Nil uses ld.DefaultOptions().
	Options *ld.Options

	// Run processes embedded contexts. Nil starts a Run on a new Processor
	// built from Options.
	Run *ldctx.Run

	// Notify is optional.
	Notify NotifyFunc
}

// Walker expands document values into node objects.
type Walker struct {
	run      *ldctx.Run
	strict   bool
	maxDepth int
	metrics  *ld.Metrics
	log      *logger.Logger
	notify   NotifyFunc

	ptr   *pool.Pointer
	depth int
}

// frame is the active property of the value being expanded.
type frame struct {
	// iri is the expanded property, "@graph" inside an unwrapped graph, or
	// "" at the top level.
	iri    string
	def    ldctx.TermDefinition
	hasDef bool
}

// topLevel reports whether values in this frame are free-floating.
func (f frame) topLevel() bool {
	return f.iri == "" || f.iri == ld.KeywordGraph
}

// New creates a Walker.
func New(cfg Config) *Walker {
	opts := cfg.Options
	if opts == nil {
		opts = ld.DefaultOptions()
	}
	run := cfg.Run
	if run == nil {
		run = ldctx.NewProcessor(opts).NewRun(ldctx.Hooks{})
	}
	w := &Walker{
		run:      run,
		strict:   opts.Strict,
		maxDepth: opts.MaxDepth,
		metrics:  opts.Metrics,
		log:      opts.Logger,
		notify:   cfg.Notify,
		ptr:      pool.AcquirePointer(),
	}
	if w.metrics == nil {
		w.metrics = ld.NewMetrics()
	}
	if w.log == nil {
		w.log = logger.Default()
	}
	return w
}

// Release returns the walker's buffers to their pools. The Walker must not
// be used afterwards.
func (w *Walker) Release() {
	w.ptr.Release()
	w.ptr = nil
}

// Walk expands v with the active context. activeProperty is the term whose
// value v is, or "" for a document root. At the top level only node objects
// are returned; scalars, value objects and lists there are free-floating
// and dropped.
func (w *Walker) Walk(ctx context.Context, v value.Value, active *ldctx.Context, activeProperty string) ([]node.Object, error) {
	w.ptr.Reset()
	w.depth = 0

	f := frame{}
	if activeProperty != "" {
		iri, ok := active.Resolve(activeProperty)
		if !ok {
			w.dropTerm(activeProperty)
			if w.strict {
				return nil, ld.NewError(ld.CodeUnresolvedTerm, "term %q does not resolve", activeProperty)
			}
			return nil, nil
		}
		f.iri = iri
		f.def, f.hasDef = active.Lookup(activeProperty)
	}

	if f.topLevel() {
		objs, err := w.element(ctx, active, f, v)
		if err != nil {
			return nil, err
		}
		return w.keepNodes(objs), nil
	}
	return w.property(ctx, active, f, v)
}

// Walk expands v with a Walker configured from default options.
func Walk(ctx context.Context, v value.Value, active *ldctx.Context, activeProperty string) ([]node.Object, error) {
	w := New(Config{})
	defer w.Release()
	return w.Walk(ctx, v, active, activeProperty)
}

// element expands any value.
func (w *Walker) element(ctx context.Context, active *ldctx.Context, f frame, v value.Value) ([]node.Object, error) {
	switch v.Kind() {
	case value.KindNull:
		w.metrics.RecordDroppedValue()
		return nil, nil
	case value.KindArray:
		return w.array(ctx, active, f, v)
	case value.KindObject:
		return w.object(ctx, active, f, v)
	default:
		if f.topLevel() {
			w.metrics.RecordDroppedValue()
			return nil, nil
		}
		obj, err := w.scalar(active, f, v)
		if err != nil {
			return nil, err
		}
		return []node.Object{obj}, nil
	}
}

var objectSlices = pool.NewSlicePool[node.Object](16)

// array expands every item of v, flattening nested arrays.
func (w *Walker) array(ctx context.Context, active *ldctx.Context, f frame, v value.Value) ([]node.Object, error) {
	if err := w.enter(); err != nil {
		return nil, err
	}
	defer w.leave()

	buf := objectSlices.Acquire()
	defer objectSlices.Release(buf)

	for i, item := range v.Items() {
		w.ptr.PushIndex(i)
		objs, err := w.element(ctx, active, f, item)
		w.ptr.Pop()
		if err != nil {
			return nil, err
		}
		*buf = append(*buf, objs...)
	}
	return slices.Clone(*buf), nil
}

// enter descends one level, failing past the depth limit.
func (w *Walker) enter() error {
	w.depth++
	if w.maxDepth > 0 && w.depth > w.maxDepth {
		return w.fail(ld.NewError(ld.CodeMaxDepthExceeded, "document nests deeper than %d levels", w.maxDepth))
	}
	return nil
}

func (w *Walker) leave() {
	w.depth--
}

// keepNodes drops free-floating values from a top-level sequence.
func (w *Walker) keepNodes(objs []node.Object) []node.Object {
	kept := objs[:0]
	for _, o := range objs {
		if o.Kind() == node.KindNode {
			kept = append(kept, o)
			continue
		}
		w.metrics.RecordDroppedValue()
	}
	return kept
}

// fail locates err at the current position.
func (w *Walker) fail(err error) error {
	var e *ld.Error
	if errors.As(err, &e) {
		return e.WithPath(w.ptr.String())
	}
	return err
}

func (w *Walker) dropTerm(term string) {
	w.metrics.RecordDroppedTerm()
	w.log.Warn("dropping unresolved term", "term", term, "path", w.ptr.String())
}

func (w *Walker) emit(state ld.State) {
	if w.notify != nil {
		w.notify(state, w.ptr.String())
	}
}
