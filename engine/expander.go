// Package engine provides the JSON-LD expansion engine.
//
// An Expander turns one document at a time into a node.Graph: it prepares
// the initial context, walks the document root with a walker.Walker, and
// reports the outcome as an ld.Error, a metrics sample, a trace span and a
// sequence of state transitions. Expansion is all-or-nothing: a failed
// expansion returns no graph.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	ld "github.com/gofhir/jsonld"
	ldctx "github.com/gofhir/jsonld/context"
	"github.com/gofhir/jsonld/node"
	"github.com/gofhir/jsonld/pkg/logger"
	"github.com/gofhir/jsonld/pool"
	"github.com/gofhir/jsonld/value"
	"github.com/gofhir/jsonld/walker"
)

// TracerName is the instrumentation name used when no tracer is configured.
const TracerName = "github.com/gofhir/jsonld"

// Expander expands JSON-LD documents. It is safe for concurrent use.
type Expander struct {
	options *ld.Options
	proc    *ldctx.Processor

	// root is the initial context used when Expand is given none: an empty
	// context carrying Options.Base. Sharing it lets the processor memoise
	// remote contexts across expansions.
	root *ldctx.Context

	// prepared is root with Options.ExpandContext applied, built on first use.
	mu       sync.Mutex
	prepared *ldctx.Context

	metrics *ld.Metrics
	log     *logger.Logger
	tracer  trace.Tracer
}

// New creates an Expander.
func New(opts ...ld.Option) *Expander {
	options := ld.Apply(opts...)
	if options.Metrics == nil {
		options.Metrics = ld.NewMetrics()
	}
	if options.Logger == nil {
		options.Logger = logger.Default()
	}
	if options.Tracer == nil {
		options.Tracer = otel.Tracer(TracerName)
	}

	root := ldctx.New(nil)
	if options.Base != "" {
		root = root.Derive(ldctx.WithBase(options.Base))
	}

	return &Expander{
		options: options,
		proc:    ldctx.NewProcessor(options),
		root:    root,
		metrics: options.Metrics,
		log:     options.Logger,
		tracer:  options.Tracer,
	}
}

// Expand expands doc against initial. A nil initial context starts from an
// empty one. On failure the returned graph is nil and the error is an
// *ld.Error.
func (e *Expander) Expand(ctx context.Context, doc value.Value, initial *ldctx.Context) (*node.Graph, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := e.log.With("run", runID)

	ctx, span := e.tracer.Start(ctx, "jsonld.expand",
		trace.WithAttributes(attribute.String("jsonld.run_id", runID)))
	defer span.End()

	st := newTracker(e.options.Observer, log, span)

	graph, err := e.expand(ctx, doc, initial, st)
	duration := time.Since(start)
	e.metrics.RecordExpansion(duration, err)

	if err != nil {
		st.to(ld.StateFailed, err.Error())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Debug("expansion failed", "duration", duration, "err", err)
		return nil, err
	}

	st.to(ld.StateDone, "")
	span.SetAttributes(
		attribute.Int("jsonld.objects", graph.Len()),
		attribute.Int("jsonld.nodes", graph.Count()),
	)
	log.Debug("expansion done", "objects", graph.Len(), "duration", duration)
	return graph, nil
}

// ExpandBytes decodes data as JSON, or YAML when it does not look like
// JSON, and expands it.
func (e *Expander) ExpandBytes(ctx context.Context, data []byte, initial *ldctx.Context) (*node.Graph, error) {
	doc, err := value.Decode(data)
	if err != nil {
		err = ld.Wrap(ld.CodeInvalidInput, err, "decoding document")
		e.metrics.RecordExpansion(0, err)
		return nil, err
	}
	return e.Expand(ctx, doc, initial)
}

func (e *Expander) expand(ctx context.Context, doc value.Value, initial *ldctx.Context, st *tracker) (*node.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, ld.Cancelled(err)
	}

	run := e.proc.NewRun(ldctx.Hooks{
		BeforeLoad: func(url string) { st.notify(ld.StateLoaderWait, url) },
		AfterLoad:  func(url string, _ error) { st.to(ld.StateWalking, url) },
	})

	st.to(ld.StateWalking, "")

	active, err := e.initialContext(ctx, run, initial)
	if err != nil {
		return nil, err
	}

	w := walker.New(walker.Config{Options: e.options, Run: run, Notify: st.notify})
	defer w.Release()

	if doc.Kind() != value.KindArray {
		objs, err := w.Walk(ctx, doc, active, "")
		if err != nil {
			return nil, err
		}
		return node.NewGraph(objs...), nil
	}

	var all []node.Object
	for i, item := range doc.Items() {
		if err := ctx.Err(); err != nil {
			return nil, ld.Cancelled(err)
		}
		objs, err := w.Walk(ctx, item, active, "")
		if err != nil {
			return nil, atIndex(err, i)
		}
		all = append(all, objs...)
	}
	return node.NewGraph(all...), nil
}

// initialContext returns the context the document root is walked with.
func (e *Expander) initialContext(ctx context.Context, run *ldctx.Run, initial *ldctx.Context) (*ldctx.Context, error) {
	if initial == nil {
		return e.preparedRoot(ctx, run)
	}
	active := initial
	if e.options.Base != "" {
		active = active.Derive(ldctx.WithBase(e.options.Base))
	}
	return e.applyExpandContext(ctx, run, active)
}

// preparedRoot returns root with the expand context applied. Failures are
// not cached, so a transient loader error is retried on the next call.
func (e *Expander) preparedRoot(ctx context.Context, run *ldctx.Run) (*ldctx.Context, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.prepared != nil {
		return e.prepared, nil
	}
	c, err := e.applyExpandContext(ctx, run, e.root)
	if err != nil {
		return nil, err
	}
	e.prepared = c
	return c, nil
}

func (e *Expander) applyExpandContext(ctx context.Context, run *ldctx.Run, active *ldctx.Context) (*ldctx.Context, error) {
	local := e.options.ExpandContext
	if local.IsNull() {
		return active, nil
	}
	// An expand context may be given as a whole {"@context": ...} document.
	if inner, ok := local.Get(ld.KeywordContext); ok && local.Kind() == value.KindObject {
		local = inner
	}
	c, err := run.Process(ctx, active, local)
	if err != nil {
		var le *ld.Error
		if errors.As(err, &le) {
			return nil, le.WithPath("/" + ld.KeywordContext)
		}
		return nil, err
	}
	return c, nil
}

// atIndex prefixes the error path with the index of a top-level element.
func atIndex(err error, i int) error {
	var le *ld.Error
	if !errors.As(err, &le) {
		return err
	}
	c := *le
	c.Path = pool.AppendIndex("", i) + le.Path
	return &c
}

// Forget drops memoised contexts built from url, typically after the
// document behind it changed.
func (e *Expander) Forget(url string) int {
	e.mu.Lock()
	e.prepared = nil
	e.mu.Unlock()
	return e.proc.Forget(url)
}

// Processor returns the context processor shared by all expansions.
func (e *Expander) Processor() *ldctx.Processor {
	return e.proc
}

// Metrics returns the expander's metrics.
func (e *Expander) Metrics() *ld.Metrics {
	return e.metrics
}

// Options returns the expander's options.
func (e *Expander) Options() *ld.Options {
	return e.options
}

// Close releases resources held by the expander.
func (e *Expander) Close() error {
	e.proc.Purge()
	return nil
}
